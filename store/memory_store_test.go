package store

import (
	"testing"
	"time"

	"quizlive/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAnswerRejectsDuplicates(t *testing.T) {
	st := NewMemoryStore()

	first := &models.Answer{PlayerID: 1, RoomQuestionID: 2, SelectedOption: "A"}
	require.NoError(t, st.CreateAnswer(first))

	dup := &models.Answer{PlayerID: 1, RoomQuestionID: 2, SelectedOption: "B"}
	assert.ErrorIs(t, st.CreateAnswer(dup), ErrDuplicateAnswer)

	other := &models.Answer{PlayerID: 1, RoomQuestionID: 3, SelectedOption: "B"}
	require.NoError(t, st.CreateAnswer(other))

	count, err := st.CountAnswers(2)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestDeleteRoomCascades(t *testing.T) {
	st := NewMemoryStore()

	room := &models.Room{Pin: "123456", HostID: 1}
	require.NoError(t, st.CreateRoom(room))

	require.NoError(t, st.ReplaceRoomQuestions(room.ID, []models.RoomQuestion{
		{RoomID: room.ID, QuestionID: 10, OrderIndex: 1},
		{RoomID: room.ID, QuestionID: 11, OrderIndex: 2},
	}))
	rqs, err := st.RoomQuestionsOrdered(room.ID)
	require.NoError(t, err)
	require.Len(t, rqs, 2)

	player := &models.Player{RoomID: room.ID, Name: "alice"}
	require.NoError(t, st.CreatePlayer(player))
	require.NoError(t, st.CreateAnswer(&models.Answer{PlayerID: player.ID, RoomQuestionID: rqs[0].ID, SelectedOption: "A"}))

	require.NoError(t, st.DeleteRoom(room))

	_, err = st.RoomByPin("123456")
	assert.ErrorIs(t, err, ErrNotFound)
	count, err := st.CountPlayers(room.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
	answers, err := st.CountAnswers(rqs[0].ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, answers)
}

func TestCountActivePlayers(t *testing.T) {
	st := NewMemoryStore()

	room := &models.Room{Pin: "123456", HostID: 1}
	require.NoError(t, st.CreateRoom(room))

	now := time.Now()
	require.NoError(t, st.CreatePlayer(&models.Player{RoomID: room.ID, Name: "fresh", LastSeenAt: now}))
	require.NoError(t, st.CreatePlayer(&models.Player{RoomID: room.ID, Name: "stale", LastSeenAt: now.Add(-time.Minute)}))

	count, err := st.CountActivePlayers(room.ID, now.Add(-15*time.Second))
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestPlayerByRoomAndName(t *testing.T) {
	st := NewMemoryStore()

	room := &models.Room{Pin: "123456", HostID: 1}
	require.NoError(t, st.CreateRoom(room))
	require.NoError(t, st.CreatePlayer(&models.Player{RoomID: room.ID, Name: "alice"}))

	found, err := st.PlayerByRoomAndName(room.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Name)

	_, err = st.PlayerByRoomAndName(room.ID, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreatePlayerRejectsDuplicateName(t *testing.T) {
	st := NewMemoryStore()

	room := &models.Room{Pin: "123456", HostID: 1}
	other := &models.Room{Pin: "654321", HostID: 1}
	require.NoError(t, st.CreateRoom(room))
	require.NoError(t, st.CreateRoom(other))

	require.NoError(t, st.CreatePlayer(&models.Player{RoomID: room.ID, Name: "alice"}))

	err := st.CreatePlayer(&models.Player{RoomID: room.ID, Name: "alice"})
	assert.ErrorIs(t, err, ErrDuplicateName)

	// Same name in a different room is fine.
	require.NoError(t, st.CreatePlayer(&models.Player{RoomID: other.ID, Name: "alice"}))
}

func TestTouchPlayerWritesOnlyLiveness(t *testing.T) {
	st := NewMemoryStore()

	room := &models.Room{Pin: "123456", HostID: 1}
	require.NoError(t, st.CreateRoom(room))

	player := &models.Player{RoomID: room.ID, Name: "alice", Score: 3}
	require.NoError(t, st.CreatePlayer(player))

	seen := time.Now().Add(time.Minute)
	require.NoError(t, st.TouchPlayer(player.ID, seen))

	fresh, err := st.PlayerByID(player.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Score)
	assert.True(t, fresh.LastSeenAt.Equal(seen))

	assert.ErrorIs(t, st.TouchPlayer(99, seen), ErrNotFound)
}
