package handlers

import (
	"net/http"

	"quizlive/models"
	"quizlive/services"

	"github.com/gin-gonic/gin"
)

type RoomHandler struct {
	roomService *services.RoomService
	gameService *services.GameService
	status      *services.RoomStatusService
}

func NewRoomHandler(roomService *services.RoomService, gameService *services.GameService, status *services.RoomStatusService) *RoomHandler {
	return &RoomHandler{
		roomService: roomService,
		gameService: gameService,
		status:      status,
	}
}

func (h *RoomHandler) CreateRoom(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req services.CreateRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.roomService.CreateRoom(userID.(uint), &req)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *RoomHandler) ListRooms(c *gin.Context) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	rooms, err := h.roomService.RoomsByHost(userID.(uint))
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	// Sweep abandoned rooms on the way past: expired waiting rooms get
	// deleted, running rooms with no active players get finished.
	alive := make([]models.Room, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if room.State == models.RoomWaiting && h.roomService.SecondsLeftToExpire(room) == 0 {
			if err := h.roomService.DeleteRoom(room); err != nil {
				c.JSON(httpStatus(err), gin.H{"error": err.Error()})
				return
			}
			continue
		}
		if err := h.gameService.FinishIfNoActivePlayers(room); err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return
		}
		alive = append(alive, *room)
	}

	c.JSON(http.StatusOK, alive)
}

type questionSelectionRequest struct {
	QuestionIDs []uint `json:"question_ids" binding:"required"`
}

func (h *RoomHandler) SetQuestions(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	var req questionSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.roomService.AssignManualQuestions(room, req.QuestionIDs); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Questions assigned"})
}

func (h *RoomHandler) GetSelection(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	selection, err := h.roomService.GetSelection(room)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, selection)
}

func (h *RoomHandler) StartRoom(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	if err := h.gameService.StartRoom(room); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) NextQuestion(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	if err := h.gameService.NextQuestion(room); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) EndQuestion(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	if err := h.gameService.ForceEndQuestion(room); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) StopRoom(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	if err := h.gameService.StopRoom(room); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, room)
}

func (h *RoomHandler) RoomStatus(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	status, err := h.status.BuildHostStatus(room)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, status)
}

func (h *RoomHandler) DeleteRoom(c *gin.Context) {
	room, ok := h.ownedRoom(c)
	if !ok {
		return
	}

	if err := h.roomService.DeleteRoom(room); err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Room deleted"})
}

// ownedRoom loads the pin's room and enforces that the authenticated user
// hosts it. On failure it writes the response itself and returns ok=false.
func (h *RoomHandler) ownedRoom(c *gin.Context) (*models.Room, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}

	pin := c.Param("pin")
	if pin == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Room PIN required"})
		return nil, false
	}

	room, err := h.roomService.GetByPin(pin)
	if err != nil {
		c.JSON(httpStatus(err), gin.H{"error": err.Error()})
		return nil, false
	}

	if room.HostID != userID.(uint) {
		c.JSON(httpStatus(services.ErrNotRoomHost), gin.H{"error": services.ErrNotRoomHost.Error()})
		return nil, false
	}

	// A waiting room that nobody touched for too long is gone.
	if room.State == models.RoomWaiting && h.roomService.SecondsLeftToExpire(room) == 0 {
		if err := h.roomService.DeleteRoom(room); err != nil {
			c.JSON(httpStatus(err), gin.H{"error": err.Error()})
			return nil, false
		}
		c.JSON(httpStatus(services.ErrRoomNotFound), gin.H{"error": services.ErrRoomNotFound.Error()})
		return nil, false
	}

	return room, true
}
