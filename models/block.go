package models

import (
	"time"

	"gorm.io/gorm"
)

// Block is a question bank owned by a host. A block needs at least 20
// questions before it can back a room.
type Block struct {
	ID          uint           `json:"id" gorm:"primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Description string         `json:"description"`
	OwnerID     uint           `json:"owner_id" gorm:"not null"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Owner     User       `json:"owner,omitempty"`
	Questions []Question `json:"questions,omitempty" gorm:"foreignKey:BlockID"`
}
