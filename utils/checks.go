package utils

import (
	"Lotero/models/postgres"
	"fmt"

	"gorm.io/gorm"
)

// Function to check if a room exists
func CheckRoomExists(db *gorm.DB, roomID string) (*postgres.Room, error) {
	var room postgres.Room
	result := db.Where("id = ?", roomID).First(&room)

	if result.Error != nil {
		if result.Error == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("room not found")
		}
		return nil, result.Error
	}

	return &room, nil
}

func IsPlayerInRoom(db *gorm.DB, roomID string, userID string) (bool, error) {
	var count int64
	err := db.Model(&postgres.RoomPlayer{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Count(&count).Error

	if err != nil {
		return false, err
	}

	return count > 0, nil
}
