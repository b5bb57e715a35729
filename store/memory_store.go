package store

import (
	"sort"
	"sync"
	"time"

	"quizlive/models"
)

// MemoryStore is a mutex-guarded in-memory Store. It enforces the same
// uniqueness rules as the Postgres schema, so engine tests exercise the
// ledger contract for real.
type MemoryStore struct {
	mu sync.Mutex

	nextID        uint
	rooms         map[uint]*models.Room
	blocks        map[uint]*models.Block
	roomQuestions map[uint]*models.RoomQuestion
	players       map[uint]*models.Player
	answers       map[uint]*models.Answer
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:        1,
		rooms:         make(map[uint]*models.Room),
		blocks:        make(map[uint]*models.Block),
		roomQuestions: make(map[uint]*models.RoomQuestion),
		players:       make(map[uint]*models.Player),
		answers:       make(map[uint]*models.Answer),
	}
}

func (s *MemoryStore) id() uint {
	id := s.nextID
	s.nextID++
	return id
}

// AddBlock seeds a question bank. Questions get ids assigned if missing.
func (s *MemoryStore) AddBlock(block *models.Block) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if block.ID == 0 {
		block.ID = s.id()
	}
	for i := range block.Questions {
		if block.Questions[i].ID == 0 {
			block.Questions[i].ID = s.id()
		}
		block.Questions[i].BlockID = block.ID
	}
	copied := *block
	copied.Questions = append([]models.Question(nil), block.Questions...)
	s.blocks[block.ID] = &copied
}

func (s *MemoryStore) CreateRoom(room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room.ID = s.id()
	now := time.Now()
	room.CreatedAt = now
	room.UpdatedAt = now
	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *MemoryStore) SaveRoom(room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; !ok {
		return ErrNotFound
	}
	room.UpdatedAt = time.Now()
	copied := *room
	s.rooms[room.ID] = &copied
	return nil
}

func (s *MemoryStore) RoomByPin(pin string) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.Pin == pin {
			copied := *r
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) RoomByID(id uint) (*models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *r
	return &copied, nil
}

func (s *MemoryStore) RoomsByHost(hostID uint) ([]models.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rooms []models.Room
	for _, r := range s.rooms {
		if r.HostID == hostID {
			rooms = append(rooms, *r)
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.After(rooms[j].CreatedAt)
	})
	return rooms, nil
}

func (s *MemoryStore) RoomPinExists(pin string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.rooms {
		if r.Pin == pin {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) DeleteRoom(room *models.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rq := range s.roomQuestions {
		if rq.RoomID == room.ID {
			for aid, a := range s.answers {
				if a.RoomQuestionID == rq.ID {
					delete(s.answers, aid)
				}
			}
			delete(s.roomQuestions, id)
		}
	}
	for id, p := range s.players {
		if p.RoomID == room.ID {
			delete(s.players, id)
		}
	}
	delete(s.rooms, room.ID)
	return nil
}

func (s *MemoryStore) BlockByID(id uint) (*models.Block, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	block, ok := s.blocks[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *block
	copied.Questions = append([]models.Question(nil), block.Questions...)
	return &copied, nil
}

func (s *MemoryStore) ReplaceRoomQuestions(roomID uint, rqs []models.RoomQuestion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, rq := range s.roomQuestions {
		if rq.RoomID == roomID {
			delete(s.roomQuestions, id)
		}
	}
	for i := range rqs {
		rq := rqs[i]
		rq.ID = s.id()
		rqs[i].ID = rq.ID
		s.roomQuestions[rq.ID] = &rq
	}
	return nil
}

func (s *MemoryStore) CountRoomQuestions(roomID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, rq := range s.roomQuestions {
		if rq.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) RoomQuestionByOrder(roomID uint, orderIndex int) (*models.RoomQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rq := range s.roomQuestions {
		if rq.RoomID == roomID && rq.OrderIndex == orderIndex {
			copied := *rq
			if q := s.questionByID(rq.QuestionID); q != nil {
				copied.Question = *q
			}
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) RoomQuestionsOrdered(roomID uint) ([]models.RoomQuestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var rqs []models.RoomQuestion
	for _, rq := range s.roomQuestions {
		if rq.RoomID == roomID {
			copied := *rq
			if q := s.questionByID(rq.QuestionID); q != nil {
				copied.Question = *q
			}
			rqs = append(rqs, copied)
		}
	}
	sort.Slice(rqs, func(i, j int) bool {
		return rqs[i].OrderIndex < rqs[j].OrderIndex
	})
	return rqs, nil
}

func (s *MemoryStore) questionByID(id uint) *models.Question {
	for _, block := range s.blocks {
		for i := range block.Questions {
			if block.Questions[i].ID == id {
				return &block.Questions[i]
			}
		}
	}
	return nil
}

func (s *MemoryStore) CreatePlayer(p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.players {
		if existing.RoomID == p.RoomID && existing.Name == p.Name {
			return ErrDuplicateName
		}
	}
	p.ID = s.id()
	now := time.Now()
	if p.JoinedAt.IsZero() {
		p.JoinedAt = now
	}
	if p.LastSeenAt.IsZero() {
		p.LastSeenAt = now
	}
	copied := *p
	s.players[p.ID] = &copied
	return nil
}

func (s *MemoryStore) SavePlayer(p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.players[p.ID]; !ok {
		return ErrNotFound
	}
	copied := *p
	s.players[p.ID] = &copied
	return nil
}

func (s *MemoryStore) PlayerByID(id uint) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *p
	return &copied, nil
}

func (s *MemoryStore) PlayerByRoomAndName(roomID uint, name string) (*models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.players {
		if p.RoomID == roomID && p.Name == name {
			copied := *p
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) PlayersByRoom(roomID uint) ([]models.Player, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var players []models.Player
	for _, p := range s.players {
		if p.RoomID == roomID {
			players = append(players, *p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].JoinedAt.Before(players[j].JoinedAt)
	})
	return players, nil
}

func (s *MemoryStore) CountPlayers(roomID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.players {
		if p.RoomID == roomID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) CountActivePlayers(roomID uint, seenAfter time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, p := range s.players {
		if p.RoomID == roomID && p.LastSeenAt.After(seenAfter) {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) TouchPlayer(playerID uint, seenAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.players[playerID]
	if !ok {
		return ErrNotFound
	}
	p.LastSeenAt = seenAt
	return nil
}

func (s *MemoryStore) DeletePlayer(p *models.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, p.ID)
	return nil
}

func (s *MemoryStore) CreateAnswer(a *models.Answer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.answers {
		if existing.PlayerID == a.PlayerID && existing.RoomQuestionID == a.RoomQuestionID {
			return ErrDuplicateAnswer
		}
	}
	a.ID = s.id()
	if a.AnsweredAt.IsZero() {
		a.AnsweredAt = time.Now()
	}
	copied := *a
	s.answers[a.ID] = &copied
	return nil
}

func (s *MemoryStore) AnswerFor(playerID, roomQuestionID uint) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.PlayerID == playerID && a.RoomQuestionID == roomQuestionID {
			copied := *a
			return &copied, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) HasAnswered(playerID, roomQuestionID uint) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.PlayerID == playerID && a.RoomQuestionID == roomQuestionID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) CountAnswers(roomQuestionID uint) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var count int64
	for _, a := range s.answers {
		if a.RoomQuestionID == roomQuestionID {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) AnswersForQuestion(roomQuestionID uint) ([]models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var answers []models.Answer
	for _, a := range s.answers {
		if a.RoomQuestionID == roomQuestionID {
			copied := *a
			if p, ok := s.players[a.PlayerID]; ok {
				copied.Player = *p
			}
			answers = append(answers, copied)
		}
	}
	sort.Slice(answers, func(i, j int) bool { return answers[i].ID < answers[j].ID })
	return answers, nil
}
