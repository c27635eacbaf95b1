package postgres

import (
	"time"

	"gorm.io/datatypes"
)

/*
 * 'Card' is static reference data seeded offline by cmd/seedcards and
 * never mutated by the engine. Layout holds the sparse number grid as a
 * jsonb array of rows, 0 meaning an empty cell.
 */
type Card struct {
	ID         string         `gorm:"primaryKey;size:10;not null"` // C01..C18
	PairID     string         `gorm:"size:15;not null;index:ix_cards_pair_id"`
	ColorTheme string         `gorm:"size:20;not null"`
	IsActive   bool           `gorm:"not null;default:true;index:ix_cards_active"`
	Layout     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt  time.Time      `gorm:"not null"`
}
