package services

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"quizlive/models"
	"quizlive/store"
)

// GameConfig tunes the engine. Zero values fall back to the defaults the
// original deployment used.
type GameConfig struct {
	AnswerPoolSize    int
	ResultSeconds     int
	ReuseGraceSeconds int
	InactiveSeconds   int
}

func (c GameConfig) withDefaults() GameConfig {
	if c.AnswerPoolSize <= 0 {
		c.AnswerPoolSize = 8
	}
	if c.ResultSeconds <= 0 {
		c.ResultSeconds = 3
	}
	if c.ReuseGraceSeconds <= 0 {
		c.ReuseGraceSeconds = 15
	}
	if c.InactiveSeconds <= 0 {
		c.InactiveSeconds = 15
	}
	return c
}

// GameService drives the per-room state machine: WAITING -> RUNNING
// (QUESTION <-> RESULTS) -> FINISHED. Every state-changing operation runs
// under the target room's runtime lock; unrelated rooms never contend.
type GameService struct {
	store    store.Store
	registry *Registry
	hub      *Hub
	pool     *answerPool
	cfg      GameConfig
	now      func() time.Time
}

func NewGameService(st store.Store, registry *Registry, hub *Hub, cfg GameConfig) *GameService {
	cfg = cfg.withDefaults()
	return &GameService{
		store:    st,
		registry: registry,
		hub:      hub,
		pool:     newAnswerPool(cfg.AnswerPoolSize),
		cfg:      cfg,
		now:      time.Now,
	}
}

// Close drains the answer pool and tears down every room runtime.
func (s *GameService) Close() {
	s.pool.Close()
	s.registry.DestroyAll()
}

// ---- players ----

// JoinRoom adds a player to a WAITING room. A name whose previous holder
// has been inactive beyond the reuse grace window is reclaimed by handing
// back the existing player record. The whole join runs under the room lock
// against fresh state, so a join racing StartRoom cannot slip a player
// into a room that already left WAITING.
func (s *GameService) JoinRoom(room *models.Room, name string) (*models.Player, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, ErrNameRequired
	}

	var player *models.Player
	err := s.withRoomLock(room, func(rt *RoomRuntime, fresh *models.Room) error {
		if fresh.State != models.RoomWaiting {
			return ErrRoomNotJoinable
		}

		existing, err := s.store.PlayerByRoomAndName(fresh.ID, trimmed)
		if err == nil {
			limit := s.now().Add(-time.Duration(s.cfg.ReuseGraceSeconds) * time.Second)
			if existing.LastSeenAt.After(limit) {
				return ErrNameTaken
			}
			existing.LastSeenAt = s.now()
			if err := s.store.SavePlayer(existing); err != nil {
				return err
			}
			player = existing
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		p := &models.Player{
			RoomID:     fresh.ID,
			Name:       trimmed,
			JoinedAt:   s.now(),
			LastSeenAt: s.now(),
		}
		if err := s.store.CreatePlayer(p); err != nil {
			if errors.Is(err, store.ErrDuplicateName) {
				return ErrNameTaken
			}
			return err
		}
		player = p
		s.broadcast(fresh.Pin, "player_update", map[string]interface{}{
			"action": "joined",
			"name":   p.Name,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return player, nil
}

// TouchPlayer refreshes the player's liveness timestamp. Only the
// last_seen_at column is written; a status poll carrying a stale score
// must never overwrite what the question flow persisted.
func (s *GameService) TouchPlayer(player *models.Player) error {
	now := s.now()
	if err := s.store.TouchPlayer(player.ID, now); err != nil {
		return err
	}
	player.LastSeenAt = now
	return nil
}

// LeaveRoom removes the player, but only while the room is still WAITING.
// Once play started the roster is frozen.
func (s *GameService) LeaveRoom(room *models.Room, player *models.Player) error {
	return s.withRoomLock(room, func(rt *RoomRuntime, fresh *models.Room) error {
		if fresh.State != models.RoomWaiting {
			return nil
		}
		if err := s.store.DeletePlayer(player); err != nil {
			return err
		}
		s.broadcast(fresh.Pin, "player_update", map[string]interface{}{
			"action": "left",
			"name":   player.Name,
		})
		return nil
	})
}

// RoomOf resolves the room a player record belongs to.
func (s *GameService) RoomOf(player *models.Player) (*models.Room, error) {
	room, err := s.store.RoomByID(player.RoomID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *GameService) PlayerByID(id uint) (*models.Player, error) {
	player, err := s.store.PlayerByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPlayerNotFound
		}
		return nil, err
	}
	return player, nil
}

func (s *GameService) Players(room *models.Room) ([]models.Player, error) {
	return s.store.PlayersByRoom(room.ID)
}

// Ranking returns the room's players ordered by score desc, name asc.
func (s *GameService) Ranking(room *models.Room) ([]models.Player, error) {
	players, err := s.store.PlayersByRoom(room.ID)
	if err != nil {
		return nil, err
	}
	return RankPlayers(players), nil
}

// Position is the player's 1-based rank in the room.
func (s *GameService) Position(room *models.Room, player *models.Player) (int, error) {
	ranked, err := s.Ranking(room)
	if err != nil {
		return 0, err
	}
	return RankPosition(ranked, player.ID), nil
}

// ---- phase scheduler ----

// withRoomLock runs fn under the room's runtime lock against a freshly
// loaded copy of the room, then reflects fn's mutations back into the
// caller's room.
func (s *GameService) withRoomLock(room *models.Room, fn func(rt *RoomRuntime, fresh *models.Room) error) error {
	rt := s.registry.RuntimeFor(room.Pin)
	rt.mu.Lock()
	defer rt.mu.Unlock()

	fresh, err := s.store.RoomByPin(room.Pin)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRoomNotFound
		}
		return err
	}
	if err := fn(rt, fresh); err != nil {
		return err
	}
	*room = *fresh
	return nil
}

// StartRoom transitions WAITING -> RUNNING(QUESTION, index 1).
func (s *GameService) StartRoom(room *models.Room) error {
	err := s.withRoomLock(room, func(rt *RoomRuntime, fresh *models.Room) error {
		if fresh.State != models.RoomWaiting {
			return ErrRoomAlreadyStarted
		}
		total, err := s.store.CountPlayers(fresh.ID)
		if err != nil {
			return err
		}
		if total == 0 {
			return ErrNoPlayers
		}
		selected, err := s.store.CountRoomQuestions(fresh.ID)
		if err != nil {
			return err
		}
		if selected != int64(fresh.QuestionCount) {
			return ErrSelectionIncomplete
		}

		now := s.now()
		fresh.State = models.RoomRunning
		fresh.StartedAt = &now
		fresh.CurrentQuestionIndex = 1
		fresh.Phase = models.PhaseQuestion
		fresh.QuestionStartedAt = &now
		fresh.PhaseStartedAt = &now
		fresh.LastActivityAt = now
		if err := s.store.SaveRoom(fresh); err != nil {
			return err
		}
		if fresh.IsAuto() {
			s.scheduleQuestionTimerLocked(rt, fresh)
		} else {
			rt.cancelTimers()
			rt.questionOpen = true
		}
		s.broadcast(fresh.Pin, "room_started", map[string]interface{}{
			"question_index": fresh.CurrentQuestionIndex,
			"total":          fresh.QuestionCount,
		})
		return nil
	})
	if err != nil {
		return err
	}
	log.Printf("[Room %s] started (%d questions, %s)", room.Pin, room.QuestionCount, room.AdvanceMode)
	return nil
}

// NextQuestion is the host's overloaded advance action. During QUESTION
// it ends the question, but only once everyone answered or the budget
// elapsed; during RESULTS it moves to the next question or finishes.
func (s *GameService) NextQuestion(room *models.Room) error {
	err := s.withRoomLock(room, func(rt *RoomRuntime, fresh *models.Room) error {
		if fresh.State != models.RoomRunning {
			return nil
		}
		if fresh.Phase == models.PhaseQuestion {
			rq, err := s.currentRoomQuestion(fresh)
			if err != nil {
				return err
			}
			total, err := s.store.CountPlayers(fresh.ID)
			if err != nil {
				return err
			}
			answers, err := s.store.CountAnswers(rq.ID)
			if err != nil {
				return err
			}
			if total > 0 && answers < total && s.secondsLeft(fresh) > 0 {
				return nil // wait for the players or the clock
			}
			if err := s.endQuestionLocked(rt, fresh); err != nil {
				return err
			}
			if fresh.IsAuto() {
				s.scheduleResultTimerLocked(rt, fresh)
			}
			return nil
		}
		return s.advanceLocked(rt, fresh)
	})
	if err != nil {
		return err
	}
	if room.State == models.RoomFinished {
		s.registry.Destroy(room.Pin)
	}
	return nil
}

// ForceEndQuestion closes the current question window regardless of who
// has answered. No-op outside RUNNING(QUESTION).
func (s *GameService) ForceEndQuestion(room *models.Room) error {
	return s.withRoomLock(room, func(rt *RoomRuntime, fresh *models.Room) error {
		if fresh.State != models.RoomRunning || fresh.Phase != models.PhaseQuestion {
			return nil
		}
		if err := s.endQuestionLocked(rt, fresh); err != nil {
			return err
		}
		if fresh.IsAuto() {
			s.scheduleResultTimerLocked(rt, fresh)
		}
		return nil
	})
}

// StopRoom force-finishes the room. Idempotent: stopping a FINISHED room
// is a no-op.
func (s *GameService) StopRoom(room *models.Room) error {
	err := s.withRoomLock(room, func(rt *RoomRuntime, fresh *models.Room) error {
		if fresh.State == models.RoomFinished {
			return nil
		}
		return s.finishLocked(fresh)
	})
	if err != nil {
		return err
	}
	s.registry.Destroy(room.Pin)
	return nil
}

// advanceLocked performs the RESULTS -> next QUESTION (or FINISHED) step.
func (s *GameService) advanceLocked(rt *RoomRuntime, room *models.Room) error {
	if room.CurrentQuestionIndex >= room.QuestionCount {
		return s.finishLocked(room)
	}
	now := s.now()
	room.CurrentQuestionIndex++
	room.Phase = models.PhaseQuestion
	room.QuestionStartedAt = &now
	room.PhaseStartedAt = &now
	if err := s.store.SaveRoom(room); err != nil {
		return err
	}
	if room.IsAuto() {
		s.scheduleQuestionTimerLocked(rt, room)
	} else {
		rt.cancelTimers()
		rt.questionOpen = true
	}
	s.broadcast(room.Pin, "phase_changed", map[string]interface{}{
		"phase":          room.Phase,
		"question_index": room.CurrentQuestionIndex,
	})
	return nil
}

// endQuestionLocked closes the question window and flips to RESULTS. In
// MANUAL mode this is also where correct answers score their point.
func (s *GameService) endQuestionLocked(rt *RoomRuntime, room *models.Room) error {
	if room.State != models.RoomRunning {
		return ErrRoomNotRunning
	}
	rt.cancelTimers()
	rt.questionOpen = false

	if !room.IsAuto() {
		rq, err := s.currentRoomQuestion(room)
		if err != nil {
			log.Printf("[Room %s] end question: %v", room.Pin, err)
		} else {
			answers, err := s.store.AnswersForQuestion(rq.ID)
			if err != nil {
				return err
			}
			for i := range answers {
				if !answers[i].Correct {
					continue
				}
				player, err := s.store.PlayerByID(answers[i].PlayerID)
				if err != nil {
					log.Printf("[Room %s] scoring player %d: %v", room.Pin, answers[i].PlayerID, err)
					continue
				}
				player.Score++
				if err := s.store.SavePlayer(player); err != nil {
					return err
				}
			}
		}
	}

	now := s.now()
	room.Phase = models.PhaseResults
	room.PhaseStartedAt = &now
	if err := s.store.SaveRoom(room); err != nil {
		return err
	}
	s.broadcast(room.Pin, "phase_changed", map[string]interface{}{
		"phase":          room.Phase,
		"question_index": room.CurrentQuestionIndex,
	})
	return nil
}

// finishLocked is the terminal transition. The caller destroys the
// runtime after releasing the room lock.
func (s *GameService) finishLocked(room *models.Room) error {
	now := s.now()
	room.State = models.RoomFinished
	room.Phase = ""
	room.FinishedAt = &now
	if err := s.store.SaveRoom(room); err != nil {
		return err
	}
	s.broadcast(room.Pin, "room_finished", map[string]interface{}{
		"finished_at": now,
	})
	log.Printf("[Room %s] finished", room.Pin)
	return nil
}

// ---- timers ----

func (s *GameService) scheduleQuestionTimerLocked(rt *RoomRuntime, room *models.Room) {
	rt.cancelTimers()
	rt.questionOpen = true
	pin := room.Pin
	d := time.Duration(room.TimePerQuestion) * time.Second
	rt.questionTimer = time.AfterFunc(d, func() { s.onQuestionTimeout(pin) })
	log.Printf("[Room %s] question timer started (%ds)", pin, room.TimePerQuestion)
}

func (s *GameService) scheduleResultTimerLocked(rt *RoomRuntime, room *models.Room) {
	if rt.resultTimer != nil {
		rt.resultTimer.Stop()
	}
	pin := room.Pin
	rt.resultTimer = time.AfterFunc(time.Duration(s.cfg.ResultSeconds)*time.Second, func() {
		s.onResultsTimeout(pin)
	})
}

func (s *GameService) onQuestionTimeout(pin string) {
	rt := s.registry.lookup(pin)
	if rt == nil {
		return
	}
	rt.mu.Lock()
	defer rt.mu.Unlock()

	room, err := s.store.RoomByPin(pin)
	if err != nil {
		log.Printf("[Room %s] question timer: %v", pin, err)
		return
	}
	if room.State != models.RoomRunning || room.Phase != models.PhaseQuestion {
		return
	}
	log.Printf("[Room %s] question timer expired", pin)
	rt.questionOpen = false
	if err := s.endQuestionLocked(rt, room); err != nil {
		log.Printf("[Room %s] question timer: end question: %v", pin, err)
		return
	}
	if room.IsAuto() {
		s.scheduleResultTimerLocked(rt, room)
	}
}

func (s *GameService) onResultsTimeout(pin string) {
	rt := s.registry.lookup(pin)
	if rt == nil {
		return
	}
	rt.mu.Lock()
	room, err := s.store.RoomByPin(pin)
	if err != nil {
		log.Printf("[Room %s] result timer: %v", pin, err)
		rt.mu.Unlock()
		return
	}
	if room.State != models.RoomRunning || room.Phase != models.PhaseResults {
		rt.mu.Unlock()
		return
	}
	if err := s.advanceLocked(rt, room); err != nil {
		log.Printf("[Room %s] result timer: advance: %v", pin, err)
	}
	finished := room.State == models.RoomFinished
	rt.mu.Unlock()

	if finished {
		s.registry.Destroy(pin)
	}
}

// ---- answer submission pipeline ----

// SubmitAnswer validates and records one answer. The work runs on the
// answer pool, serialized under the room's lock; the caller blocks until
// its own submission completes, success or failure.
func (s *GameService) SubmitAnswer(player *models.Player, room *models.Room, option string) error {
	rt := s.registry.RuntimeFor(room.Pin)
	return s.pool.Do(func() error {
		rt.mu.Lock()
		defer rt.mu.Unlock()

		fresh, err := s.store.RoomByPin(room.Pin)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrRoomNotFound
			}
			return err
		}
		if fresh.State != models.RoomRunning {
			return ErrRoomNotRunning
		}
		if fresh.IsAuto() && !rt.questionOpen {
			return ErrTimeExpired
		}
		rq, err := s.currentRoomQuestion(fresh)
		if err != nil {
			return err
		}
		key := fmt.Sprintf("%d:%d", player.ID, rq.ID)
		if _, dup := rt.answered[key]; dup {
			return ErrAlreadyAnswered
		}
		answered, err := s.store.HasAnswered(player.ID, rq.ID)
		if err != nil {
			return err
		}
		if answered {
			return ErrAlreadyAnswered
		}
		if s.secondsLeft(fresh) <= 0 {
			return ErrTimeExpired
		}
		opt := strings.ToUpper(strings.TrimSpace(option))
		if opt != "A" && opt != "B" && opt != "C" && opt != "D" {
			return ErrInvalidOption
		}

		correct := strings.EqualFold(rq.Question.CorrectOption, opt)
		answer := &models.Answer{
			PlayerID:       player.ID,
			RoomQuestionID: rq.ID,
			SelectedOption: opt,
			Correct:        correct,
			AnsweredAt:     s.now(),
		}
		if err := s.store.CreateAnswer(answer); err != nil {
			if errors.Is(err, store.ErrDuplicateAnswer) {
				return ErrAlreadyAnswered
			}
			return err
		}
		rt.answered[key] = opt

		if fresh.IsAuto() && correct {
			scored, err := s.store.PlayerByID(player.ID)
			if err != nil {
				return err
			}
			scored.Score++
			if err := s.store.SavePlayer(scored); err != nil {
				return err
			}
			player.Score = scored.Score
		}

		if fresh.IsAuto() {
			all, err := s.allAnswered(fresh, rq)
			if err != nil {
				return err
			}
			if all {
				rt.cancelTimers()
				if err := s.endQuestionLocked(rt, fresh); err != nil {
					return err
				}
				s.scheduleResultTimerLocked(rt, fresh)
			}
		}

		log.Printf("[Room %s] answer %s recorded for %s", fresh.Pin, opt, player.Name)
		*room = *fresh
		return nil
	})
}

// ---- queries ----

func (s *GameService) CurrentRoomQuestion(room *models.Room) (*models.RoomQuestion, error) {
	return s.currentRoomQuestion(room)
}

func (s *GameService) currentRoomQuestion(room *models.Room) (*models.RoomQuestion, error) {
	rq, err := s.store.RoomQuestionByOrder(room.ID, room.CurrentQuestionIndex)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return rq, nil
}

func (s *GameService) HasAnswered(player *models.Player, rq *models.RoomQuestion) (bool, error) {
	return s.store.HasAnswered(player.ID, rq.ID)
}

// AnswerFor returns the player's answer for rq, or nil if none exists.
func (s *GameService) AnswerFor(player *models.Player, rq *models.RoomQuestion) (*models.Answer, error) {
	answer, err := s.store.AnswerFor(player.ID, rq.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return answer, nil
}

// SecondsLeft is the remaining question time. In AUTO mode a question
// every player has answered reports zero even before the budget elapses;
// MANUAL never closes early, so there the clock alone decides.
func (s *GameService) SecondsLeft(room *models.Room) int64 {
	return s.secondsLeft(room)
}

func (s *GameService) secondsLeft(room *models.Room) int64 {
	if room.State != models.RoomRunning || room.Phase != models.PhaseQuestion {
		return 0
	}
	if room.QuestionStartedAt == nil {
		return 0
	}
	if room.IsAuto() {
		if rq, err := s.currentRoomQuestion(room); err == nil {
			if all, err := s.allAnswered(room, rq); err == nil && all {
				return 0
			}
		}
	}
	end := room.QuestionStartedAt.Add(time.Duration(room.TimePerQuestion) * time.Second)
	left := int64(end.Sub(s.now()) / time.Second)
	if left < 0 {
		return 0
	}
	return left
}

// ResultSecondsLeft is the remaining time of the RESULTS window.
func (s *GameService) ResultSecondsLeft(room *models.Room) int64 {
	if room.State != models.RoomRunning || room.Phase != models.PhaseResults {
		return 0
	}
	if room.PhaseStartedAt == nil {
		return 0
	}
	elapsed := int64(s.now().Sub(*room.PhaseStartedAt) / time.Second)
	left := int64(s.cfg.ResultSeconds) - elapsed
	if left < 0 {
		return 0
	}
	return left
}

// QuestionEndsAt is the wall-clock end of the current question window in
// epoch milliseconds, or 0 when no question has started.
func (s *GameService) QuestionEndsAt(room *models.Room) int64 {
	if room.QuestionStartedAt == nil {
		return 0
	}
	return room.QuestionStartedAt.
		Add(time.Duration(room.TimePerQuestion) * time.Second).
		UnixMilli()
}

func (s *GameService) allAnswered(room *models.Room, rq *models.RoomQuestion) (bool, error) {
	total, err := s.store.CountPlayers(room.ID)
	if err != nil {
		return false, err
	}
	answers, err := s.store.CountAnswers(rq.ID)
	if err != nil {
		return false, err
	}
	return total > 0 && answers >= total, nil
}

// CanShowResults tells the host whether the advance action would take
// effect during QUESTION: everyone answered or the budget elapsed.
func (s *GameService) CanShowResults(room *models.Room) bool {
	if room.State != models.RoomRunning || room.Phase != models.PhaseQuestion {
		return false
	}
	rq, err := s.currentRoomQuestion(room)
	if err != nil {
		return false
	}
	all, err := s.allAnswered(room, rq)
	if err != nil {
		return false
	}
	return all || s.secondsLeft(room) == 0
}

// ---- inactivity monitor ----

// FinishIfNoActivePlayers stops a RUNNING room once no player has been
// seen within the inactivity threshold. Invoked opportunistically from
// status queries rather than by a background sweep.
func (s *GameService) FinishIfNoActivePlayers(room *models.Room) error {
	if room.State != models.RoomRunning {
		return nil
	}
	limit := s.now().Add(-time.Duration(s.cfg.InactiveSeconds) * time.Second)
	active, err := s.store.CountActivePlayers(room.ID, limit)
	if err != nil {
		return err
	}
	if active > 0 {
		return nil
	}
	log.Printf("[Room %s] no active players, stopping", room.Pin)
	return s.StopRoom(room)
}

func (s *GameService) broadcast(pin, event string, payload interface{}) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastToRoom(pin, event, payload)
}
