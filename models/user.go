package models

import (
	"time"

	"gorm.io/gorm"
)

// User is a host account. Registration and login live in an external
// service; the engine only needs the identity to check room ownership.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Username  string         `json:"username" gorm:"uniqueIndex;not null"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Blocks []Block `json:"blocks,omitempty" gorm:"foreignKey:OwnerID"`
	Rooms  []Room  `json:"rooms,omitempty" gorm:"foreignKey:HostID"`
}
