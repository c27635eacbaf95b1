package cards

import (
	"Lotero/models/postgres"
	"Lotero/utils/logger"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// parsedCard is one card layout file before it gets an id assigned.
type parsedCard struct {
	ColorTheme string
	CardNumber int
	Grid       [][]int // 0 marks an empty cell
}

var filenamePattern = regexp.MustCompile(`^card-([a-z]+)-(\d+)$`)

// parseFilename extracts the color theme and card number from a file
// named card-{color}-{n}.csv.
func parseFilename(path string) (string, int, error) {
	base := strings.TrimSuffix(filepath.Base(path), ".csv")
	match := filenamePattern.FindStringSubmatch(base)
	if match == nil {
		return "", 0, fmt.Errorf("invalid card filename %q, expected card-{color}-{number}.csv", filepath.Base(path))
	}
	number, err := strconv.Atoi(match[2])
	if err != nil {
		return "", 0, err
	}
	return match[1], number, nil
}

// parseGrid reads a CSV layout into a sparse number grid. Cells holding
// "x" (or nothing) are empty; everything else must be a number 1..90.
func parseGrid(content string) ([][]int, error) {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	grid := make([][]int, len(lines))
	for i, line := range lines {
		cells := strings.Split(line, ",")
		row := make([]int, len(cells))
		for j, cell := range cells {
			trimmed := strings.TrimSpace(cell)
			if trimmed == "" || strings.EqualFold(trimmed, "x") {
				continue
			}
			number, err := strconv.Atoi(trimmed)
			if err != nil {
				return nil, fmt.Errorf("invalid cell %q at row %d col %d", trimmed, i, j)
			}
			if number < 1 || number > 90 {
				return nil, fmt.Errorf("number %d out of range at row %d col %d", number, i, j)
			}
			row[j] = number
		}
		grid[i] = row
	}
	return grid, nil
}

// cardID generates C01, C02, ... following the seeded ordering.
func cardID(index int) string {
	return fmt.Sprintf("C%02d", index+1)
}

// SeedFromDir scans a directory of card layout CSV files and upserts
// the card catalog. One-time batch import, safe to re-run.
func SeedFromDir(db *gorm.DB, dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("reading cards directory: %w", err)
	}

	var parsed []parsedCard
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".csv") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		color, number, err := parseFilename(path)
		if err != nil {
			return 0, err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", path, err)
		}
		grid, err := parseGrid(string(content))
		if err != nil {
			return 0, fmt.Errorf("parsing %s: %w", path, err)
		}
		parsed = append(parsed, parsedCard{ColorTheme: color, CardNumber: number, Grid: grid})
		logger.Infof("Parsed card layout %s (color: %s, number: %d)", entry.Name(), color, number)
	}

	// Stable ordering so re-seeding assigns the same ids
	sort.Slice(parsed, func(i, j int) bool {
		if parsed[i].ColorTheme != parsed[j].ColorTheme {
			return parsed[i].ColorTheme < parsed[j].ColorTheme
		}
		return parsed[i].CardNumber < parsed[j].CardNumber
	})

	cards := make([]postgres.Card, len(parsed))
	for i, p := range parsed {
		layout, err := json.Marshal(p.Grid)
		if err != nil {
			return 0, err
		}
		cards[i] = postgres.Card{
			ID:         cardID(i),
			PairID:     fmt.Sprintf("card-%s", p.ColorTheme),
			ColorTheme: p.ColorTheme,
			IsActive:   true,
			Layout:     layout,
		}
	}

	if len(cards) == 0 {
		return 0, nil
	}

	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"pair_id", "color_theme", "is_active", "layout"}),
	}).Create(&cards).Error
	if err != nil {
		return 0, fmt.Errorf("seeding cards: %w", err)
	}

	logger.Infof("Seeded %d cards", len(cards))
	return len(cards), nil
}
