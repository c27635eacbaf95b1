package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'Group' is a reusable roster of users owned by its creator. Rooms may
 * optionally be linked to a group when they are created.
 */
type Group struct {
	ID          string    `gorm:"primaryKey;size:36;not null"`
	Name        string    `gorm:"size:100;not null"`
	Description string    `gorm:"size:255"`
	CreatorID   string    `gorm:"size:36;not null;index:ix_groups_creator"`
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`

	Creator User `gorm:"foreignKey:CreatorID"`
}

func (g *Group) BeforeCreate(tx *gorm.DB) (err error) {
	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	return nil
}

// 'GroupPlayer' is the (group, user) membership record.
type GroupPlayer struct {
	GroupID  string    `gorm:"primaryKey;size:36;not null"`
	UserID   string    `gorm:"primaryKey;size:36;not null"`
	JoinedAt time.Time `gorm:"not null"`

	Group Group `gorm:"foreignKey:GroupID"`
	User  User  `gorm:"foreignKey:UserID"`
}
