package routes

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizlive/handlers"
	"quizlive/models"
	"quizlive/services"
	"quizlive/store"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

type testServer struct {
	router *gin.Engine
	store  *store.MemoryStore
	block  *models.Block
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemoryStore()
	block := &models.Block{Name: "Capitals", OwnerID: 1}
	for i := 0; i < 20; i++ {
		block.Questions = append(block.Questions, models.Question{
			Statement:     fmt.Sprintf("Question %d", i+1),
			OptionA:       "Lisbon",
			OptionB:       "Madrid",
			OptionC:       "Paris",
			OptionD:       "Rome",
			CorrectOption: "A",
		})
	}
	st.AddBlock(block)

	registry := services.NewRegistry()
	hub := services.NewHub()
	game := services.NewGameService(st, registry, hub, services.GameConfig{ResultSeconds: 3600})
	t.Cleanup(game.Close)
	rooms := services.NewRoomService(st, registry)
	status := services.NewRoomStatusService(game, rooms)
	sessions := services.NewMemorySessionStore()

	roomHandler := handlers.NewRoomHandler(rooms, game, status)
	playerHandler := handlers.NewPlayerHandler(rooms, game, status, sessions)

	router := gin.New()
	SetupRoutes(router, roomHandler, playerHandler, rooms, hub, testSecret)

	return &testServer{router: router, store: st, block: block}
}

func hostToken(t *testing.T, userID uint) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": userID})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func authHeaders(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func TestRoomEndpointsRequireAuth(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/rooms", gin.H{}, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/rooms", nil, map[string]string{"Authorization": "Bearer not-a-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestFullGameOverHTTP(t *testing.T) {
	ts := newTestServer(t)
	token := hostToken(t, 1)

	// Host creates a room.
	w := ts.do(t, http.MethodPost, "/api/rooms", gin.H{
		"block_id":          ts.block.ID,
		"question_count":    2,
		"time_per_question": 60,
		"advance_mode":      "AUTO",
	}, authHeaders(token))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var room models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
	require.NotEmpty(t, room.Pin)

	// Host picks the questions.
	w = ts.do(t, http.MethodPost, "/api/rooms/"+room.Pin+"/questions", gin.H{
		"question_ids": []uint{ts.block.Questions[0].ID, ts.block.Questions[1].ID},
	}, authHeaders(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Player joins with the pin.
	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": room.Pin, "name": "alice"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var joined struct {
		Player       models.Player `json:"player"`
		SessionToken string        `json:"session_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	require.NotEmpty(t, joined.SessionToken)
	session := map[string]string{"X-Session-Token": joined.SessionToken}

	// Starting before anyone joined would conflict; now it works.
	w = ts.do(t, http.MethodPost, "/api/rooms/"+room.Pin+"/start", nil, authHeaders(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Player sees the question.
	w = ts.do(t, http.MethodGet, "/api/play/"+room.Pin+"/status", nil, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var status struct {
		State    models.RoomState `json:"state"`
		Phase    models.RoomPhase `json:"phase"`
		Question *struct {
			Statement string `json:"statement"`
		} `json:"question"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, models.RoomRunning, status.State)
	require.NotNil(t, status.Question)
	assert.Equal(t, "Question 1", status.Question.Statement)

	// First answer lands, the duplicate conflicts.
	w = ts.do(t, http.MethodPost, "/api/play/"+room.Pin+"/answer", gin.H{"option": "a"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/play/"+room.Pin+"/answer", gin.H{"option": "b"}, session)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The host dashboard reflects the results phase.
	w = ts.do(t, http.MethodGet, "/api/rooms/"+room.Pin+"/status", nil, authHeaders(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var host struct {
		State models.RoomState `json:"state"`
		Phase models.RoomPhase `json:"phase"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &host))
	assert.Equal(t, models.RoomRunning, host.State)
	assert.Equal(t, models.PhaseResults, host.Phase)

	// Advance through question 2 to the end.
	w = ts.do(t, http.MethodPost, "/api/rooms/"+room.Pin+"/next", nil, authHeaders(token))
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/api/play/"+room.Pin+"/answer", gin.H{"option": "C"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = ts.do(t, http.MethodPost, "/api/rooms/"+room.Pin+"/next", nil, authHeaders(token))
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodGet, "/api/play/"+room.Pin+"/status", nil, session)
	require.Equal(t, http.StatusOK, w.Code)
	var final struct {
		State models.RoomState `json:"state"`
		Score *int             `json:"score"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &final))
	assert.Equal(t, models.RoomFinished, final.State)
	require.NotNil(t, final.Score)
	assert.Equal(t, 1, *final.Score)
}

func TestOwnershipIsEnforced(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/rooms", gin.H{
		"block_id":          ts.block.ID,
		"question_count":    2,
		"time_per_question": 60,
	}, authHeaders(hostToken(t, 1)))
	require.Equal(t, http.StatusCreated, w.Code)
	var room models.Room
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))

	w = ts.do(t, http.MethodPost, "/api/rooms/"+room.Pin+"/start", nil, authHeaders(hostToken(t, 2)))
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/rooms/"+room.Pin, nil, authHeaders(hostToken(t, 2)))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestJoinValidation(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": "000000", "name": "alice"}, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	token := hostToken(t, 1)
	createResp := ts.do(t, http.MethodPost, "/api/rooms", gin.H{
		"block_id":          ts.block.ID,
		"question_count":    2,
		"time_per_question": 60,
	}, authHeaders(token))
	require.Equal(t, http.StatusCreated, createResp.Code)
	var room models.Room
	require.NoError(t, json.Unmarshal(createResp.Body.Bytes(), &room))

	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": room.Pin, "name": "  "}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": room.Pin, "name": "alice"}, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": room.Pin, "name": "alice"}, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestStatusRequiresSession(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/play/123456/status", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = ts.do(t, http.MethodGet, "/api/play/123456/status", nil, map[string]string{"X-Session-Token": "bogus"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJoinBlockedWhileSeatedElsewhere(t *testing.T) {
	ts := newTestServer(t)
	token := hostToken(t, 1)

	createRoom := func() models.Room {
		w := ts.do(t, http.MethodPost, "/api/rooms", gin.H{
			"block_id":          ts.block.ID,
			"question_count":    2,
			"time_per_question": 60,
			"advance_mode":      "AUTO",
		}, authHeaders(token))
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		var room models.Room
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &room))
		return room
	}
	roomA := createRoom()
	roomB := createRoom()

	w := ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": roomA.Pin, "name": "alice"}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var joined struct {
		Player       models.Player `json:"player"`
		SessionToken string        `json:"session_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &joined))
	session := map[string]string{"X-Session-Token": joined.SessionToken}

	// Seated in room A, the session cannot take a seat in room B.
	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": roomB.Pin, "name": "alice"}, session)
	assert.Equal(t, http.StatusConflict, w.Code, w.Body.String())

	// Presenting the token to room A again just hands back the same seat.
	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": roomA.Pin, "name": "alice"}, session)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rejoined struct {
		Player       models.Player `json:"player"`
		SessionToken string        `json:"session_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rejoined))
	assert.Equal(t, joined.Player.ID, rejoined.Player.ID)

	// Once room A is over the stale session is released and the join goes
	// through.
	w = ts.do(t, http.MethodPost, "/api/rooms/"+roomA.Pin+"/stop", nil, authHeaders(token))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = ts.do(t, http.MethodPost, "/api/play/join", gin.H{"pin": roomB.Pin, "name": "alice"}, session)
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}
