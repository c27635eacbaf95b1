package postgres

import (
	"time"
)

/*
 * 'GameCard' is a card claim inside one game. The composite primary key
 * guarantees at most one owner per (game, card); the per-user limit is
 * enforced by the engine under the game row lock.
 */
type GameCard struct {
	GameID     string    `gorm:"primaryKey;size:36;not null;index:ix_game_cards_user,priority:1"`
	CardID     string    `gorm:"primaryKey;size:10;not null"`
	UserID     string    `gorm:"size:36;not null;index:ix_game_cards_user,priority:2"`
	SelectedAt time.Time `gorm:"not null"`

	Card Card `gorm:"foreignKey:CardID"`
	User User `gorm:"foreignKey:UserID"`
}
