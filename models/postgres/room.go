package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoomStatus string

const (
	RoomStatusWaiting    RoomStatus = "waiting"
	RoomStatusInProgress RoomStatus = "in_progress"
	RoomStatusFinished   RoomStatus = "finished"
)

/*
 * 'Room' is the pre-game lobby players join by its 6-digit code. Once a
 * game is created from the room its status moves to in_progress and no
 * further joins are accepted.
 */
type Room struct {
	ID        string     `gorm:"primaryKey;size:36;not null"`
	Name      string     `gorm:"size:100;not null"`
	CreatorID string     `gorm:"size:36;not null;index:ix_rooms_creator"`
	GroupID   *string    `gorm:"size:36"`
	Status    RoomStatus `gorm:"size:20;not null;default:waiting"`
	Code      string     `gorm:"size:6;not null;uniqueIndex:ux_rooms_code"`
	GameMode  string     `gorm:"size:20"`
	CreatedAt time.Time  `gorm:"not null"`
	UpdatedAt time.Time  `gorm:"not null"`

	Creator User `gorm:"foreignKey:CreatorID"`
	Group   *Group
	Players []*RoomPlayer `gorm:"foreignKey:RoomID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE;"`
}

func (r *Room) BeforeCreate(tx *gorm.DB) (err error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

// 'RoomPlayer' is the (room, user) membership record. Joining twice is a
// no-op, enforced by the composite primary key.
type RoomPlayer struct {
	RoomID   string    `gorm:"primaryKey;size:36;not null"`
	UserID   string    `gorm:"primaryKey;size:36;not null"`
	JoinedAt time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID"`
}
