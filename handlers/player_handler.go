package handlers

import (
	"net/http"

	"quizlive/models"
	"quizlive/services"

	"github.com/gin-gonic/gin"
)

const sessionHeader = "X-Session-Token"

type PlayerHandler struct {
	roomService *services.RoomService
	gameService *services.GameService
	status      *services.RoomStatusService
	sessions    services.SessionStore
}

func NewPlayerHandler(roomService *services.RoomService, gameService *services.GameService, status *services.RoomStatusService, sessions services.SessionStore) *PlayerHandler {
	return &PlayerHandler{
		roomService: roomService,
		gameService: gameService,
		status:      status,
		sessions:    sessions,
	}
}

type joinRoomRequest struct {
	Pin  string `json:"pin" binding:"required"`
	Name string `json:"name"`
}

func (h *PlayerHandler) JoinRoom(c *gin.Context) {
	var req joinRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomService.GetByPin(req.Pin)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	// A session already seated in a live room cannot join a second one.
	// A seat in a finished or deleted room is released on the spot.
	if token := c.GetHeader(sessionHeader); token != "" {
		if playerID, err := h.sessions.PlayerID(c.Request.Context(), token); err == nil {
			if existing, err := h.gameService.PlayerByID(playerID); err == nil {
				prior, err := h.gameService.RoomOf(existing)
				if err == nil && prior.State != models.RoomFinished {
					if prior.ID == room.ID {
						c.JSON(http.StatusOK, gin.H{
							"player":        existing,
							"session_token": token,
						})
						return
					}
					c.JSON(httpStatus(services.ErrAlreadyInAnotherRoom), gin.H{"error": services.ErrAlreadyInAnotherRoom.Error()})
					return
				}
			}
			h.sessions.Delete(c.Request.Context(), token)
		}
	}

	player, err := h.gameService.JoinRoom(room, req.Name)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	token, err := h.sessions.Create(c.Request.Context(), player.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"player":        player,
		"session_token": token,
	})
}

func (h *PlayerHandler) PlayStatus(c *gin.Context) {
	room, player, ok := h.sessionPlayer(c)
	if !ok {
		return
	}

	status, err := h.status.BuildPlayStatus(room, player)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

type submitAnswerRequest struct {
	Option string `json:"option" binding:"required"`
}

func (h *PlayerHandler) SubmitAnswer(c *gin.Context) {
	room, player, ok := h.sessionPlayer(c)
	if !ok {
		return
	}

	var req submitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.gameService.SubmitAnswer(player, room, req.Option); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Answer submitted"})
}

func (h *PlayerHandler) LeaveRoom(c *gin.Context) {
	room, player, ok := h.sessionPlayer(c)
	if !ok {
		return
	}

	if err := h.gameService.LeaveRoom(room, player); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	if token := c.GetHeader(sessionHeader); token != "" {
		h.sessions.Delete(c.Request.Context(), token)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Left room"})
}

// sessionPlayer resolves the session token against the pin's room. The
// player must actually belong to that room, tokens do not transfer.
func (h *PlayerHandler) sessionPlayer(c *gin.Context) (*models.Room, *models.Player, bool) {
	pin := c.Param("pin")
	if pin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room PIN required"})
		return nil, nil, false
	}

	token := c.GetHeader(sessionHeader)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session token required"})
		return nil, nil, false
	}

	playerID, err := h.sessions.PlayerID(c.Request.Context(), token)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return nil, nil, false
	}

	room, err := h.roomService.GetByPin(pin)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return nil, nil, false
	}

	player, err := h.gameService.PlayerByID(playerID)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return nil, nil, false
	}

	if player.RoomID != room.ID {
		c.JSON(httpStatus(services.ErrInvalidSession), gin.H{"error": services.ErrInvalidSession.Error()})
		return nil, nil, false
	}

	return room, player, true
}
