package main

import (
	"log"
	"time"

	"quizlive/config"
	"quizlive/handlers"
	"quizlive/middleware"
	"quizlive/models"
	"quizlive/routes"
	"quizlive/services"
	"quizlive/store"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Auto-migrate database models
	err = db.AutoMigrate(
		&models.User{},
		&models.Block{},
		&models.Question{},
		&models.Room{},
		&models.RoomQuestion{},
		&models.Player{},
		&models.Answer{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient := config.InitRedis(cfg)

	// Initialize persistence and the per-room runtime registry
	st := store.NewGormStore(db)
	registry := services.NewRegistry()

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Initialize services
	gameService := services.NewGameService(st, registry, hub, services.GameConfig{
		AnswerPoolSize:    cfg.AnswerPoolSize,
		ResultSeconds:     cfg.ResultSeconds,
		ReuseGraceSeconds: cfg.ReuseGraceSeconds,
		InactiveSeconds:   cfg.InactiveSeconds,
	})
	defer gameService.Close()
	roomService := services.NewRoomService(st, registry)
	statusService := services.NewRoomStatusService(gameService, roomService)
	sessions := services.NewRedisSessionStore(redisClient, time.Duration(cfg.SessionTTLMinutes)*time.Minute)

	// Initialize handlers
	roomHandler := handlers.NewRoomHandler(roomService, gameService, statusService)
	playerHandler := handlers.NewPlayerHandler(roomService, gameService, statusService, sessions)

	// Setup Gin router
	router := gin.Default()

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Setup routes
	routes.SetupRoutes(router, roomHandler, playerHandler, roomService, hub, cfg.JWTSecret)

	// Start server
	log.Printf("Server starting on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
