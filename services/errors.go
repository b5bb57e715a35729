package services

import "errors"

// Validation errors: the input itself is malformed.
var (
	ErrNameRequired    = errors.New("player name is required")
	ErrInvalidOption   = errors.New("option must be one of A, B, C or D")
	ErrQuestionCount   = errors.New("invalid question count for this block")
	ErrTimePerQuestion = errors.New("time per question must be between 5 and 120 seconds")
	ErrBlockTooSmall   = errors.New("block needs at least 20 questions to host a room")
	ErrSelectionCount  = errors.New("selection must contain exactly the configured number of questions")
	ErrForeignQuestion = errors.New("question does not belong to the room's block")
)

// State errors: the operation is not legal in the room's current state.
var (
	ErrRoomAlreadyStarted   = errors.New("room has already started")
	ErrRoomNotRunning       = errors.New("room is not running")
	ErrRoomNotJoinable      = errors.New("room is not accepting players")
	ErrNoPlayers            = errors.New("cannot start a room without players")
	ErrSelectionIncomplete  = errors.New("question selection is incomplete")
	ErrSelectionLocked      = errors.New("question selection cannot change after start")
	ErrNameTaken            = errors.New("name already taken in this room")
	ErrAlreadyAnswered      = errors.New("player has already answered this question")
	ErrTimeExpired          = errors.New("time is up for this question")
	ErrAlreadyInAnotherRoom = errors.New("player session belongs to another room")
)

// Not-found errors.
var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrPlayerNotFound   = errors.New("player not found")
	ErrQuestionNotFound = errors.New("current question not found")
	ErrBlockNotFound    = errors.New("block not found")
	ErrInvalidSession   = errors.New("session not found or expired")
)

// Authorization errors.
var ErrNotRoomHost = errors.New("room belongs to another host")
