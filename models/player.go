package models

import (
	"time"

	"gorm.io/gorm"
)

// Player is one anonymous participant in a room. Name is unique within
// the room; LastSeenAt drives the inactivity and name-reuse checks.
type Player struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	RoomID     uint           `json:"room_id" gorm:"not null;uniqueIndex:idx_room_name"`
	Name       string         `json:"name" gorm:"not null;uniqueIndex:idx_room_name"`
	Score      int            `json:"score" gorm:"not null;default:0"`
	JoinedAt   time.Time      `json:"joined_at"`
	LastSeenAt time.Time      `json:"last_seen_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Room Room `json:"room,omitempty"`
}
