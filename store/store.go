package store

import (
	"errors"
	"time"

	"quizlive/models"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrDuplicateAnswer = errors.New("answer already exists for player and question")
	ErrDuplicateName   = errors.New("player name already exists in room")
)

// Store is the persistence boundary of the game engine. The engine never
// talks to a database directly; production wires the gorm implementation,
// tests wire the in-memory one.
type Store interface {
	// Rooms
	CreateRoom(room *models.Room) error
	SaveRoom(room *models.Room) error
	RoomByPin(pin string) (*models.Room, error)
	RoomByID(id uint) (*models.Room, error)
	RoomsByHost(hostID uint) ([]models.Room, error)
	RoomPinExists(pin string) (bool, error)
	// DeleteRoom cascades to the room's questions, players and answers.
	DeleteRoom(room *models.Room) error

	// Blocks
	BlockByID(id uint) (*models.Block, error)

	// Room questions
	ReplaceRoomQuestions(roomID uint, rqs []models.RoomQuestion) error
	CountRoomQuestions(roomID uint) (int64, error)
	RoomQuestionByOrder(roomID uint, orderIndex int) (*models.RoomQuestion, error)
	RoomQuestionsOrdered(roomID uint) ([]models.RoomQuestion, error)

	// Players
	CreatePlayer(p *models.Player) error
	SavePlayer(p *models.Player) error
	PlayerByID(id uint) (*models.Player, error)
	PlayerByRoomAndName(roomID uint, name string) (*models.Player, error)
	PlayersByRoom(roomID uint) ([]models.Player, error)
	CountPlayers(roomID uint) (int64, error)
	CountActivePlayers(roomID uint, seenAfter time.Time) (int64, error)
	// TouchPlayer records liveness without writing any other column, so a
	// stale in-memory copy can never clobber a freshly scored row.
	TouchPlayer(playerID uint, seenAt time.Time) error
	DeletePlayer(p *models.Player) error

	// Answers
	CreateAnswer(a *models.Answer) error
	AnswerFor(playerID, roomQuestionID uint) (*models.Answer, error)
	HasAnswered(playerID, roomQuestionID uint) (bool, error)
	CountAnswers(roomQuestionID uint) (int64, error)
	AnswersForQuestion(roomQuestionID uint) ([]models.Answer, error)
}
