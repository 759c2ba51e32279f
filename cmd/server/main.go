package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/call"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/chat"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/handlers"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/linkpreview"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/notify"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/presence"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/storage"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/transport"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "Rooms Backend",
		// Attachment uploads go through the same app.
		BodyLimit: 100 * 1024 * 1024, // 100MB
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders: "Origin, Content-Type, Accept, X-Supports-Gzip",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Initialize the store. Redis is authoritative state, not a cache, but a
	// dev box without Redis still gets a working server on the in-memory
	// fallback.
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	var dataStore store.Store
	redisStore := store.NewRedisStore(redisAddr, redisPassword, redisDB)
	if err := redisStore.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Falling back to in-memory store; state will not survive restarts.", err)
		dataStore = store.NewMemoryStore()
	} else {
		log.Println("Redis connected successfully")
		dataStore = redisStore
	}
	defer dataStore.Close()

	// Wire the engine
	hub := transport.NewHub()
	tracker := presence.NewTracker(dataStore)
	dispatcher := notify.NewDispatcher(dataStore, hub, tracker)
	chatService := chat.NewService(dataStore, hub, dispatcher, tracker)
	audio := call.NewCoordinator(call.Audio, dataStore, hub, dispatcher, tracker)
	screen := call.NewCoordinator(call.ScreenShare, dataStore, hub, dispatcher, tracker)

	// Initialize S3/MinIO storage (best-effort; upload endpoint returns 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(hub, tracker, chatService, audio, screen)
	subscriptionHandler := handlers.NewSubscriptionHandler(dataStore)
	linkPreviewHandler := handlers.NewLinkPreviewHandler(linkpreview.NewExtractor(dataStore))
	uploadHandler := handlers.NewUploadHandler(s3Store)

	// HTTP API
	api := app.Group("/api")
	api.Post("/subscriptions", subscriptionHandler.Save)
	api.Get("/subscriptions", subscriptionHandler.List)
	api.Post("/linkPreview", limiter.New(limiter.Config{
		Max:        30,
		Expiration: time.Minute,
	}), linkPreviewHandler.Preview)
	api.Post("/upload", uploadHandler.Upload)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":      "ok",
			"connections": hub.Count(),
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
