package postgres

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
 * 'User' contains the blueprint definition of a registered user. The id is
 * the opaque identity carried by the auth token and referenced by every
 * roster/claim row.
 */
type User struct {
	ID           string    `gorm:"primaryKey;size:36;not null"`
	Email        string    `gorm:"size:100;not null;uniqueIndex"`
	Username     string    `gorm:"size:50;not null;uniqueIndex"`
	PasswordHash string    `gorm:"size:255;not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (u *User) BeforeCreate(tx *gorm.DB) (err error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}
