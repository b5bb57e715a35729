package services

import (
	"testing"
	"time"

	"quizlive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostStatusWaiting(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	_, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)

	out, err := status.BuildHostStatus(room)
	require.NoError(t, err)

	assert.Equal(t, models.RoomWaiting, out.State)
	assert.Equal(t, models.PhaseQuestion, out.Phase)
	assert.False(t, out.CanAdvance)
	assert.Greater(t, out.ExpiresInSeconds, int64(0))
	require.Len(t, out.Players, 1)
	assert.Equal(t, "blank", out.Players[0].Status)
	assert.Empty(t, out.Ranking)
	assert.Nil(t, out.CurrentQuestion)
	assert.Nil(t, out.QuestionSecondsLeft)
}

func TestHostStatusRunningQuestion(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{ResultSeconds: 3600})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	alice, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	_, err = game.JoinRoom(room, "bob")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))
	require.NoError(t, game.SubmitAnswer(alice, room, "A"))

	out, err := status.BuildHostStatus(room)
	require.NoError(t, err)

	assert.Equal(t, models.RoomRunning, out.State)
	assert.Equal(t, models.PhaseQuestion, out.Phase)
	require.NotNil(t, out.CurrentQuestion)
	assert.Equal(t, "A", out.CurrentQuestion.CorrectOption)
	require.NotNil(t, out.QuestionSecondsLeft)
	assert.Greater(t, *out.QuestionSecondsLeft, int64(0))
	require.NotNil(t, out.QuestionEndsAt)
	require.NotNil(t, out.ServerNow)
	assert.Greater(t, *out.QuestionEndsAt, *out.ServerNow)

	byName := map[string]string{}
	for _, tag := range out.Players {
		byName[tag.Name] = tag.Status
	}
	assert.Equal(t, "correct", byName["alice"])
	assert.Equal(t, "blank", byName["bob"])
	assert.Len(t, out.Ranking, 2)
}

func TestHostStatusResults(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{ResultSeconds: 3600})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	alice, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	bob, err := game.JoinRoom(room, "bob")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))
	require.NoError(t, game.SubmitAnswer(alice, room, "A"))
	require.NoError(t, game.SubmitAnswer(bob, room, "C"))

	out, err := status.BuildHostStatus(room)
	require.NoError(t, err)

	assert.Equal(t, models.PhaseResults, out.Phase)
	assert.Nil(t, out.CurrentQuestion)
	require.NotNil(t, out.ResultSecondsLeft)
	assert.Greater(t, *out.ResultSecondsLeft, int64(0))

	byName := map[string]string{}
	for _, tag := range out.Players {
		byName[tag.Name] = tag.Status
	}
	assert.Equal(t, "correct", byName["alice"])
	assert.Equal(t, "wrong", byName["bob"])
}

func TestHostStatusTagsFinishedAndInactive(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{InactiveSeconds: 15})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	_, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)

	// A silent player turns inactive after the threshold.
	game.now = func() time.Time { return time.Now().Add(20 * time.Second) }
	out, err := status.BuildHostStatus(room)
	require.NoError(t, err)
	require.Len(t, out.Players, 1)
	assert.Equal(t, "inactive", out.Players[0].Status)

	game.now = time.Now
	require.NoError(t, game.StartRoom(room))
	require.NoError(t, game.StopRoom(room))

	out, err = status.BuildHostStatus(room)
	require.NoError(t, err)
	require.Len(t, out.Players, 1)
	assert.Equal(t, "finished", out.Players[0].Status)
}

func TestHostStatusReapsAbandonedRoom(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{InactiveSeconds: 15})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	_, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))

	game.now = func() time.Time { return time.Now().Add(30 * time.Second) }
	out, err := status.BuildHostStatus(room)
	require.NoError(t, err)
	assert.Equal(t, models.RoomFinished, out.State)
}

func TestPlayStatusAuto(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{ResultSeconds: 3600})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	alice, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	_, err = game.JoinRoom(room, "bob")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))

	out, err := status.BuildPlayStatus(room, alice)
	require.NoError(t, err)

	require.NotNil(t, out.Score)
	require.NotNil(t, out.Position)
	require.NotNil(t, out.Question)
	assert.Equal(t, "Question 1", out.Question.Statement)
	require.NotNil(t, out.AlreadyAnswered)
	assert.False(t, *out.AlreadyAnswered)
	require.NotNil(t, out.SecondsLeft)
	assert.Greater(t, *out.SecondsLeft, int64(0))

	require.NoError(t, game.SubmitAnswer(alice, room, "A"))

	out, err = status.BuildPlayStatus(room, alice)
	require.NoError(t, err)
	require.NotNil(t, out.Score)
	assert.Equal(t, 1, *out.Score)
	assert.Equal(t, 1, *out.Position)
	require.NotNil(t, out.AlreadyAnswered)
	assert.True(t, *out.AlreadyAnswered)
}

func TestPlayStatusManualHidesScoreDuringQuestion(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceManual, 2)

	alice, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))
	require.NoError(t, game.SubmitAnswer(alice, room, "A"))

	out, err := status.BuildPlayStatus(room, alice)
	require.NoError(t, err)
	assert.Nil(t, out.Score, "score stays hidden until results in manual mode")
	assert.Nil(t, out.Position)

	require.NoError(t, game.NextQuestion(room))
	require.Equal(t, models.PhaseResults, room.Phase)

	out, err = status.BuildPlayStatus(room, alice)
	require.NoError(t, err)
	require.NotNil(t, out.Score)
	assert.Equal(t, 1, *out.Score)
	require.NotNil(t, out.Answered)
	assert.True(t, *out.Answered)
	require.NotNil(t, out.Correct)
	assert.True(t, *out.Correct)
	require.NotNil(t, out.Statement)
	assert.Equal(t, "Question 1", *out.Statement)
}

func TestPlayStatusResultsWithoutAnswer(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{ResultSeconds: 3600})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	alice, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))
	require.NoError(t, game.ForceEndQuestion(room))

	out, err := status.BuildPlayStatus(room, alice)
	require.NoError(t, err)
	require.NotNil(t, out.Answered)
	assert.False(t, *out.Answered)
	require.NotNil(t, out.Correct)
	assert.False(t, *out.Correct)
}

func TestPlayStatusTouchesLiveness(t *testing.T) {
	st, rooms, game := newTestEngine(t, GameConfig{InactiveSeconds: 15})
	status := NewRoomStatusService(game, rooms)
	room := newTestRoom(t, st, rooms, models.AdvanceAuto, 2)

	alice, err := game.JoinRoom(room, "alice")
	require.NoError(t, err)
	require.NoError(t, game.StartRoom(room))

	// The polling player keeps refreshing their own liveness, so the
	// room survives the inactivity check.
	game.now = func() time.Time { return time.Now().Add(30 * time.Second) }
	out, err := status.BuildPlayStatus(room, alice)
	require.NoError(t, err)
	assert.Equal(t, models.RoomRunning, out.State)
}
