package models

import (
	"time"

	"gorm.io/gorm"
)

type RoomState string

const (
	RoomWaiting  RoomState = "WAITING"
	RoomRunning  RoomState = "RUNNING"
	RoomFinished RoomState = "FINISHED"
)

type RoomPhase string

const (
	PhaseQuestion RoomPhase = "QUESTION"
	PhaseResults  RoomPhase = "RESULTS"
)

type SelectionMode string

const (
	SelectionManual SelectionMode = "MANUAL"
	SelectionRandom SelectionMode = "RANDOM"
)

type AdvanceMode string

const (
	AdvanceAuto   AdvanceMode = "AUTO"
	AdvanceManual AdvanceMode = "MANUAL"
)

// Room is one live quiz session. Phase is only meaningful while the room
// is RUNNING; CurrentQuestionIndex is 1-based and 0 before start.
type Room struct {
	ID                   uint           `json:"id" gorm:"primaryKey"`
	Pin                  string         `json:"pin" gorm:"uniqueIndex;not null;size:8"`
	HostID               uint           `json:"host_id" gorm:"not null"`
	BlockID              uint           `json:"block_id" gorm:"not null"`
	QuestionCount        int            `json:"question_count" gorm:"not null"`
	TimePerQuestion      int            `json:"time_per_question" gorm:"not null"` // seconds
	SelectionMode        SelectionMode  `json:"selection_mode" gorm:"not null"`
	AdvanceMode          AdvanceMode    `json:"advance_mode" gorm:"not null"`
	State                RoomState      `json:"state" gorm:"not null;default:'WAITING'"`
	Phase                RoomPhase      `json:"phase,omitempty"`
	CurrentQuestionIndex int            `json:"current_question_index"`
	QuestionStartedAt    *time.Time     `json:"question_started_at,omitempty"`
	PhaseStartedAt       *time.Time     `json:"phase_started_at,omitempty"`
	StartedAt            *time.Time     `json:"started_at,omitempty"`
	FinishedAt           *time.Time     `json:"finished_at,omitempty"`
	LastActivityAt       time.Time      `json:"last_activity_at"`
	CreatedAt            time.Time      `json:"created_at"`
	UpdatedAt            time.Time      `json:"updated_at"`
	DeletedAt            gorm.DeletedAt `json:"-" gorm:"index"`

	// Relationships
	Host      User           `json:"host,omitempty"`
	Block     Block          `json:"block,omitempty"`
	Questions []RoomQuestion `json:"questions,omitempty" gorm:"foreignKey:RoomID"`
	Players   []Player       `json:"players,omitempty" gorm:"foreignKey:RoomID"`
}

func (r *Room) IsAuto() bool {
	return r.AdvanceMode != AdvanceManual
}
