package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomQuestion binds a question to a room at a fixed play order.
// OrderIndex is a dense 1-based sequence, immutable once play starts.
type RoomQuestion struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	RoomID     uint           `json:"room_id" gorm:"not null;uniqueIndex:idx_room_question"`
	QuestionID uint           `json:"question_id" gorm:"not null;uniqueIndex:idx_room_question"`
	OrderIndex int            `json:"order_index" gorm:"not null"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Room     Room     `json:"room,omitempty"`
	Question Question `json:"question,omitempty"`
}
