package postgres

import (
	"time"
)

/*
 * 'GameCalledNumber' is the call log. Rows are only ever inserted, so the
 * row count for a game doubles as the cursor into GameNumberOrder.
 */
type GameCalledNumber struct {
	GameID   string    `gorm:"primaryKey;size:36;not null;index:ix_called_numbers_game"`
	Number   int       `gorm:"primaryKey;autoIncrement:false;not null"`
	CalledAt time.Time `gorm:"not null"`
}
