package services

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log"
	mrand "math/rand"
	"time"

	"quizlive/models"
	"quizlive/store"
)

const (
	minBlockQuestions  = 20
	minTimePerQuestion = 5
	maxTimePerQuestion = 120
	waitingRoomTTL     = 10 * time.Minute
)

// RoomService manages room lifecycle outside of play: creation, question
// selection and deletion.
type RoomService struct {
	store    store.Store
	registry *Registry
	rng      *mrand.Rand
	now      func() time.Time
}

func NewRoomService(st store.Store, registry *Registry) *RoomService {
	return &RoomService{
		store:    st,
		registry: registry,
		rng:      mrand.New(mrand.NewSource(time.Now().UnixNano())),
		now:      time.Now,
	}
}

type CreateRoomRequest struct {
	BlockID         uint                 `json:"block_id" binding:"required"`
	QuestionCount   int                  `json:"question_count" binding:"required"`
	TimePerQuestion int                  `json:"time_per_question" binding:"required"`
	SelectionMode   models.SelectionMode `json:"selection_mode"`
	AdvanceMode     models.AdvanceMode   `json:"advance_mode"`
}

// CreateRoom validates the configuration, mints a unique pin and, in
// RANDOM mode, assigns the question bindings immediately.
func (s *RoomService) CreateRoom(hostID uint, req *CreateRoomRequest) (*models.Room, error) {
	block, err := s.store.BlockByID(req.BlockID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrBlockNotFound
		}
		return nil, err
	}
	total := len(block.Questions)
	if total < minBlockQuestions {
		return nil, ErrBlockTooSmall
	}
	if req.QuestionCount < 1 || req.QuestionCount > total {
		return nil, fmt.Errorf("%w: 1..%d", ErrQuestionCount, total)
	}
	if req.TimePerQuestion < minTimePerQuestion || req.TimePerQuestion > maxTimePerQuestion {
		return nil, ErrTimePerQuestion
	}
	selectionMode := req.SelectionMode
	if selectionMode == "" {
		selectionMode = models.SelectionManual
	}
	advanceMode := req.AdvanceMode
	if advanceMode == "" {
		advanceMode = models.AdvanceAuto
	}

	pin, err := s.generateUniquePin()
	if err != nil {
		return nil, err
	}

	now := s.now()
	room := &models.Room{
		Pin:             pin,
		HostID:          hostID,
		BlockID:         block.ID,
		QuestionCount:   req.QuestionCount,
		TimePerQuestion: req.TimePerQuestion,
		SelectionMode:   selectionMode,
		AdvanceMode:     advanceMode,
		State:           models.RoomWaiting,
		LastActivityAt:  now,
	}
	if err := s.store.CreateRoom(room); err != nil {
		return nil, err
	}

	if selectionMode == models.SelectionRandom {
		if err := s.AssignRandomQuestions(room); err != nil {
			return nil, err
		}
	}

	log.Printf("[Room %s] created (block %d, %d questions, %s/%s)",
		room.Pin, block.ID, room.QuestionCount, selectionMode, advanceMode)
	return room, nil
}

// generateUniquePin draws 6-digit numeric pins until one is free, giving
// up after 20 attempts.
func (s *RoomService) generateUniquePin() (string, error) {
	for i := 0; i < 20; i++ {
		var buf [8]byte
		if _, err := rand.Read(buf[:]); err != nil {
			return "", err
		}
		n := binary.BigEndian.Uint64(buf[:]) % 900000
		pin := fmt.Sprintf("%06d", 100000+n)
		exists, err := s.store.RoomPinExists(pin)
		if err != nil {
			return "", err
		}
		if !exists {
			return pin, nil
		}
	}
	return "", errors.New("could not generate a unique pin")
}

func (s *RoomService) GetByPin(pin string) (*models.Room, error) {
	room, err := s.store.RoomByPin(pin)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *RoomService) RoomsByHost(hostID uint) ([]models.Room, error) {
	return s.store.RoomsByHost(hostID)
}

// AssignManualQuestions replaces the room's bindings with the given ids
// in play order. Every id must belong to the room's block; the selection
// is frozen once the room leaves WAITING.
func (s *RoomService) AssignManualQuestions(room *models.Room, questionIDs []uint) error {
	if room.State != models.RoomWaiting {
		return ErrSelectionLocked
	}
	if len(questionIDs) != room.QuestionCount {
		return fmt.Errorf("%w: expected %d", ErrSelectionCount, room.QuestionCount)
	}
	block, err := s.store.BlockByID(room.BlockID)
	if err != nil {
		return err
	}
	byID := make(map[uint]bool, len(block.Questions))
	for i := range block.Questions {
		byID[block.Questions[i].ID] = true
	}

	rqs := make([]models.RoomQuestion, 0, len(questionIDs))
	seen := make(map[uint]bool, len(questionIDs))
	for i, qid := range questionIDs {
		if !byID[qid] {
			return fmt.Errorf("%w: %d", ErrForeignQuestion, qid)
		}
		if seen[qid] {
			return fmt.Errorf("%w: duplicate question %d", ErrSelectionCount, qid)
		}
		seen[qid] = true
		rqs = append(rqs, models.RoomQuestion{
			RoomID:     room.ID,
			QuestionID: qid,
			OrderIndex: i + 1,
		})
	}
	if err := s.store.ReplaceRoomQuestions(room.ID, rqs); err != nil {
		return err
	}
	room.LastActivityAt = s.now()
	return s.store.SaveRoom(room)
}

// AssignRandomQuestions samples questionCount distinct questions from the
// block and binds them in a random order.
func (s *RoomService) AssignRandomQuestions(room *models.Room) error {
	if room.State != models.RoomWaiting {
		return ErrSelectionLocked
	}
	block, err := s.store.BlockByID(room.BlockID)
	if err != nil {
		return err
	}
	shuffled := append([]models.Question(nil), block.Questions...)
	s.rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	rqs := make([]models.RoomQuestion, 0, room.QuestionCount)
	for i := 0; i < room.QuestionCount; i++ {
		rqs = append(rqs, models.RoomQuestion{
			RoomID:     room.ID,
			QuestionID: shuffled[i].ID,
			OrderIndex: i + 1,
		})
	}
	if err := s.store.ReplaceRoomQuestions(room.ID, rqs); err != nil {
		return err
	}
	room.LastActivityAt = s.now()
	return s.store.SaveRoom(room)
}

func (s *RoomService) HasSelection(room *models.Room) (bool, error) {
	count, err := s.store.CountRoomQuestions(room.ID)
	if err != nil {
		return false, err
	}
	return count == int64(room.QuestionCount), nil
}

func (s *RoomService) GetSelection(room *models.Room) ([]models.RoomQuestion, error) {
	return s.store.RoomQuestionsOrdered(room.ID)
}

// DeleteRoom tears down the runtime and cascades deletion of questions,
// players and answers.
func (s *RoomService) DeleteRoom(room *models.Room) error {
	s.registry.Destroy(room.Pin)
	return s.store.DeleteRoom(room)
}

// SecondsLeftToExpire is the remaining lifetime of a WAITING room before
// the housekeeping sweep may reclaim it. Zero once the room started.
func (s *RoomService) SecondsLeftToExpire(room *models.Room) int64 {
	if room.State != models.RoomWaiting {
		return 0
	}
	expiresAt := room.LastActivityAt.Add(waitingRoomTTL)
	left := int64(expiresAt.Sub(s.now()) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}
