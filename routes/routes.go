package routes

import (
	"log"
	"net/http"

	"quizlive/handlers"
	"quizlive/middleware"
	"quizlive/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

func SetupRoutes(
	router *gin.Engine,
	roomHandler *handlers.RoomHandler,
	playerHandler *handlers.PlayerHandler,
	roomService *services.RoomService,
	hub *services.Hub,
	jwtSecret string,
) {
	api := router.Group("/api")
	{
		// Host routes (JWT-protected)
		rooms := api.Group("/rooms")
		rooms.Use(middleware.AuthMiddleware(jwtSecret))
		{
			rooms.GET("", roomHandler.ListRooms)
			rooms.POST("", roomHandler.CreateRoom)
			rooms.POST("/:pin/questions", roomHandler.SetQuestions)
			rooms.GET("/:pin/selection", roomHandler.GetSelection)
			rooms.POST("/:pin/start", roomHandler.StartRoom)
			rooms.POST("/:pin/next", roomHandler.NextQuestion)
			rooms.POST("/:pin/end-question", roomHandler.EndQuestion)
			rooms.POST("/:pin/stop", roomHandler.StopRoom)
			rooms.GET("/:pin/status", roomHandler.RoomStatus)
			rooms.DELETE("/:pin", roomHandler.DeleteRoom)
		}

		// Player routes (session-token based, no account needed)
		play := api.Group("/play")
		{
			play.POST("/join", playerHandler.JoinRoom)
			play.GET("/:pin/status", playerHandler.PlayStatus)
			play.POST("/:pin/answer", playerHandler.SubmitAnswer)
			play.POST("/:pin/leave", playerHandler.LeaveRoom)
		}
	}

	// WebSocket endpoint for the host dashboard live feed
	router.GET("/ws/:pin", func(c *gin.Context) {
		pin := c.Param("pin")

		if _, err := roomService.GetByPin(pin); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("WebSocket upgrade failed for room %s: %v", pin, err)
			return
		}

		hub.RegisterClient(conn, pin)
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
