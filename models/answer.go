package models

import (
	"time"

	"gorm.io/gorm"
)

// Answer is the append-only ledger entry for one submission. The unique
// index on (player, room_question) is the ultimate double-submit guard.
type Answer struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	PlayerID       uint           `json:"player_id" gorm:"not null;uniqueIndex:idx_player_room_question"`
	RoomQuestionID uint           `json:"room_question_id" gorm:"not null;uniqueIndex:idx_player_room_question"`
	SelectedOption string         `json:"selected_option" gorm:"not null;size:1"`
	Correct        bool           `json:"correct" gorm:"not null"`
	AnsweredAt     time.Time      `json:"answered_at"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Player       Player       `json:"player,omitempty"`
	RoomQuestion RoomQuestion `json:"room_question,omitempty"`
}
