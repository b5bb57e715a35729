package services

import (
	"time"

	"quizlive/models"
)

// RoomStatusService assembles the polling payloads. All field-suppression
// rules (notably: hide score/position from players in MANUAL mode until
// RESULTS) live here, in one place, rather than per endpoint.
type RoomStatusService struct {
	game  *GameService
	rooms *RoomService
}

func NewRoomStatusService(game *GameService, rooms *RoomService) *RoomStatusService {
	return &RoomStatusService{game: game, rooms: rooms}
}

type PlayerTag struct {
	Name   string `json:"name"`
	Status string `json:"status"` // blank, correct, wrong, inactive, finished
}

type RankEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// QuestionView is the player-safe question payload: no correct option.
type QuestionView struct {
	Statement string `json:"statement"`
	OptionA   string `json:"option_a"`
	OptionB   string `json:"option_b"`
	OptionC   string `json:"option_c"`
	OptionD   string `json:"option_d"`
}

// HostQuestionView additionally reveals the correct option.
type HostQuestionView struct {
	QuestionView
	CorrectOption string `json:"correct_option"`
}

type HostStatus struct {
	State               models.RoomState   `json:"state"`
	Phase               models.RoomPhase   `json:"phase"`
	AdvanceMode         models.AdvanceMode `json:"advance_mode"`
	CanAdvance          bool               `json:"can_advance"`
	ExpiresInSeconds    int64              `json:"expires_in_seconds"`
	Players             []PlayerTag        `json:"players"`
	Ranking             []RankEntry        `json:"ranking"`
	QuestionSecondsLeft *int64             `json:"question_seconds_left,omitempty"`
	QuestionEndsAt      *int64             `json:"question_ends_at,omitempty"`
	ServerNow           *int64             `json:"server_now,omitempty"`
	CurrentQuestion     *HostQuestionView  `json:"current_question,omitempty"`
	ResultSecondsLeft   *int64             `json:"result_seconds_left,omitempty"`
}

type PlayStatus struct {
	State             models.RoomState   `json:"state"`
	Phase             models.RoomPhase   `json:"phase"`
	AdvanceMode       models.AdvanceMode `json:"advance_mode"`
	Score             *int               `json:"score,omitempty"`
	Position          *int               `json:"position,omitempty"`
	SecondsLeft       *int64             `json:"seconds_left,omitempty"`
	QuestionEndsAt    *int64             `json:"question_ends_at,omitempty"`
	ServerNow         *int64             `json:"server_now,omitempty"`
	AlreadyAnswered   *bool              `json:"already_answered,omitempty"`
	Question          *QuestionView      `json:"question,omitempty"`
	ResultSecondsLeft *int64             `json:"result_seconds_left,omitempty"`
	Answered          *bool              `json:"answered,omitempty"`
	Correct           *bool              `json:"correct,omitempty"`
	Statement         *string            `json:"statement,omitempty"`
}

// BuildHostStatus computes the host dashboard payload. It also performs
// the lazy idle check, so an abandoned room gets reaped the next time the
// host looks at it.
func (s *RoomStatusService) BuildHostStatus(room *models.Room) (*HostStatus, error) {
	if err := s.game.FinishIfNoActivePlayers(room); err != nil {
		return nil, err
	}

	out := &HostStatus{
		State:            room.State,
		Phase:            phaseOrDefault(room),
		AdvanceMode:      room.AdvanceMode,
		CanAdvance:       s.game.CanShowResults(room),
		ExpiresInSeconds: s.rooms.SecondsLeftToExpire(room),
	}

	tags, err := s.buildPlayerTags(room)
	if err != nil {
		return nil, err
	}
	out.Players = tags

	out.Ranking = []RankEntry{}
	if room.State != models.RoomWaiting {
		ranked, err := s.game.Ranking(room)
		if err != nil {
			return nil, err
		}
		for i := range ranked {
			out.Ranking = append(out.Ranking, RankEntry{Name: ranked[i].Name, Score: ranked[i].Score})
		}
	}

	if room.State == models.RoomRunning && room.Phase == models.PhaseQuestion {
		if rq, err := s.game.CurrentRoomQuestion(room); err == nil {
			left := s.game.SecondsLeft(room)
			out.QuestionSecondsLeft = &left
			if room.QuestionStartedAt != nil {
				endsAt := s.game.QuestionEndsAt(room)
				serverNow := s.game.now().UnixMilli()
				out.QuestionEndsAt = &endsAt
				out.ServerNow = &serverNow
			}
			out.CurrentQuestion = &HostQuestionView{
				QuestionView:  questionView(&rq.Question),
				CorrectOption: rq.Question.CorrectOption,
			}
		}
	}

	if room.State == models.RoomRunning && room.Phase == models.PhaseResults {
		left := s.game.ResultSecondsLeft(room)
		out.ResultSecondsLeft = &left
	}

	return out, nil
}

// BuildPlayStatus computes the player polling payload and touches the
// player's liveness. Quiescent states produce a payload, never an error.
func (s *RoomStatusService) BuildPlayStatus(room *models.Room, player *models.Player) (*PlayStatus, error) {
	if err := s.game.TouchPlayer(player); err != nil {
		return nil, err
	}
	if err := s.game.FinishIfNoActivePlayers(room); err != nil {
		return nil, err
	}
	// Scoring may have run since the caller loaded this record; answer the
	// poll from the persisted row.
	current, err := s.game.PlayerByID(player.ID)
	if err != nil {
		return nil, err
	}
	*player = *current

	out := &PlayStatus{
		State:       room.State,
		Phase:       phaseOrDefault(room),
		AdvanceMode: room.AdvanceMode,
	}

	// In MANUAL mode the outcome stays hidden until the host reveals the
	// results phase.
	if room.IsAuto() || room.Phase == models.PhaseResults {
		score := player.Score
		out.Score = &score
		position, err := s.game.Position(room, player)
		if err != nil {
			return nil, err
		}
		out.Position = &position
	}

	if room.State == models.RoomRunning && room.Phase == models.PhaseQuestion {
		rq, err := s.game.CurrentRoomQuestion(room)
		if err == nil {
			left := s.game.SecondsLeft(room)
			out.SecondsLeft = &left
			if room.QuestionStartedAt != nil {
				endsAt := s.game.QuestionEndsAt(room)
				serverNow := s.game.now().UnixMilli()
				out.QuestionEndsAt = &endsAt
				out.ServerNow = &serverNow
			}
			answered, err := s.game.HasAnswered(player, rq)
			if err != nil {
				return nil, err
			}
			out.AlreadyAnswered = &answered
			view := questionView(&rq.Question)
			out.Question = &view
		}
	}

	if room.State == models.RoomRunning && room.Phase == models.PhaseResults {
		rq, err := s.game.CurrentRoomQuestion(room)
		if err == nil {
			left := s.game.ResultSecondsLeft(room)
			out.ResultSecondsLeft = &left
			answer, err := s.game.AnswerFor(player, rq)
			if err != nil {
				return nil, err
			}
			answered := answer != nil
			correct := answered && answer.Correct
			out.Answered = &answered
			out.Correct = &correct
			statement := rq.Question.Statement
			out.Statement = &statement
		}
	}

	return out, nil
}

// buildPlayerTags labels every player for the host dashboard.
func (s *RoomStatusService) buildPlayerTags(room *models.Room) ([]PlayerTag, error) {
	players, err := s.game.Players(room)
	if err != nil {
		return nil, err
	}

	var rq *models.RoomQuestion
	timeUp := false
	if room.State == models.RoomRunning {
		if current, err := s.game.CurrentRoomQuestion(room); err == nil {
			rq = current
			timeUp = s.game.SecondsLeft(room) == 0
		}
	}
	inactiveLimit := s.game.now().Add(-time.Duration(s.game.cfg.InactiveSeconds) * time.Second)

	tags := make([]PlayerTag, 0, len(players))
	for i := range players {
		p := &players[i]
		status := "blank"
		switch {
		case room.State == models.RoomFinished:
			status = "finished"
		case p.LastSeenAt.Before(inactiveLimit):
			status = "inactive"
		case rq != nil:
			answer, err := s.game.AnswerFor(p, rq)
			if err != nil {
				return nil, err
			}
			if answer != nil {
				if answer.Correct {
					status = "correct"
				} else {
					status = "wrong"
				}
			} else if timeUp {
				status = "wrong"
			}
		}
		tags = append(tags, PlayerTag{Name: p.Name, Status: status})
	}
	return tags, nil
}

func phaseOrDefault(room *models.Room) models.RoomPhase {
	if room.Phase == "" {
		return models.PhaseQuestion
	}
	return room.Phase
}

func questionView(q *models.Question) QuestionView {
	return QuestionView{
		Statement: q.Statement,
		OptionA:   q.OptionA,
		OptionB:   q.OptionB,
		OptionC:   q.OptionC,
		OptionD:   q.OptionD,
	}
}
