package game

import (
	game_constants "Lotero/constants/game"
	"Lotero/models/postgres"
	"errors"
	"time"

	"gorm.io/gorm"
)

// GameState is the first snapshot part sent to a new viewer.
type GameState struct {
	GameID       string     `json:"gameId"`
	Status       string     `json:"status"`
	StartedAt    *time.Time `json:"startedAt,omitempty"`
	CalledCount  int        `json:"calledCount"`
	TotalNumbers int        `json:"totalNumbers"`
}

// PlayerInfo is one roster entry in the second snapshot part.
type PlayerInfo struct {
	UserID   string    `json:"userId"`
	JoinedAt time.Time `json:"joinedAt"`
}

// Snapshot is the full state a reconnecting viewer needs, sent in the
// fixed order game_state -> players -> picked_cards so a client never
// observes players before status or cards before players.
type Snapshot struct {
	State       GameState         `json:"state"`
	Players     []PlayerInfo      `json:"players"`
	PickedCards map[string]string `json:"pickedCards"` // cardId -> userId
}

// Snapshot builds the three-part subscribe snapshot from committed
// state. Read-only, runs outside any game lock.
func (e *Engine) Snapshot(gameID string) (*Snapshot, error) {
	var game postgres.Game
	err := e.db.Where("id = ?", gameID).First(&game).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("game with id %s not found", gameID)
		}
		return nil, err
	}

	var calledCount int64
	err = e.db.Model(&postgres.GameCalledNumber{}).
		Where("game_id = ?", gameID).Count(&calledCount).Error
	if err != nil {
		return nil, err
	}

	var roster []postgres.GamePlayer
	err = e.db.Where("game_id = ?", gameID).
		Order("joined_at ASC").Find(&roster).Error
	if err != nil {
		return nil, err
	}
	players := make([]PlayerInfo, len(roster))
	for i, p := range roster {
		players[i] = PlayerInfo{UserID: p.UserID, JoinedAt: p.JoinedAt}
	}

	var gameCards []postgres.GameCard
	if err := e.db.Where("game_id = ?", gameID).Find(&gameCards).Error; err != nil {
		return nil, err
	}
	picked := make(map[string]string, len(gameCards))
	for _, gc := range gameCards {
		picked[gc.CardID] = gc.UserID
	}

	return &Snapshot{
		State: GameState{
			GameID:       game.ID,
			Status:       string(game.Status),
			StartedAt:    game.StartedAt,
			CalledCount:  int(calledCount),
			TotalNumbers: game_constants.TotalNumbers,
		},
		Players:     players,
		PickedCards: picked,
	}, nil
}
