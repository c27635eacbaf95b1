package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GameStatus string

const (
	GameStatusPrepare  GameStatus = "prepare"
	GameStatusStarted  GameStatus = "started"
	GameStatusFinished GameStatus = "finished"
)

/*
 * 'Game' is one playthrough instance: card claims while preparing, then a
 * committed draw order and a growing call log once started. Status only
 * ever moves forward (prepare -> started -> finished) and every mutation
 * happens under a row lock on this table.
 */
type Game struct {
	ID           string     `gorm:"primaryKey;size:36;not null"`
	RoomID       *string    `gorm:"size:36;index:ix_games_room"`
	Name         string     `gorm:"size:100"`
	Status       GameStatus `gorm:"size:20;not null;default:prepare;index:ix_games_status"`
	WinnerUserID *string    `gorm:"size:36"`
	StartedAt    *time.Time
	FinishedAt   *time.Time
	CreatedAt    time.Time `gorm:"not null;index:ix_games_created_at"`

	GameCards     []*GameCard         `gorm:"foreignKey:GameID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	NumberOrder   []*GameNumberOrder  `gorm:"foreignKey:GameID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
	CalledNumbers []*GameCalledNumber `gorm:"foreignKey:GameID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (g *Game) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// 'GamePlayer' is the roster snapshot copied from RoomPlayers when the
// game is created from a room.
type GamePlayer struct {
	GameID   string    `gorm:"primaryKey;size:36;not null;index:ix_game_players_game"`
	UserID   string    `gorm:"primaryKey;size:36;not null"`
	JoinedAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}
