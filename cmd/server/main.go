package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mindpulse-backend/internal/config"
	"mindpulse-backend/internal/database"
	"mindpulse-backend/internal/handlers"
	"mindpulse-backend/internal/middleware"
	"mindpulse-backend/internal/repository"
	"mindpulse-backend/internal/router"
	"mindpulse-backend/internal/services"
	"mindpulse-backend/internal/vectorstore"
	"mindpulse-backend/internal/websocket"
	"mindpulse-backend/internal/worker"
)

func main() {
	log.Println("🚀 Starting MindPulse Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Initialize Vector Memory Store ────
	memoryStore, err := vectorstore.NewQdrantStore(vectorstore.QdrantConfig{
		URL:            cfg.QdrantURL,
		CollectionName: cfg.QdrantCollection,
		APIKey:         cfg.QdrantAPIKey,
		VectorDim:      cfg.EmbeddingDim,
	})
	if err != nil {
		log.Fatalf("✗ Qdrant connection failed: %v", err)
	}
	defer memoryStore.Close()

	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := memoryStore.EnsureCollection(ctx); err != nil {
			cancel()
			log.Fatalf("✗ Qdrant collection setup failed: %v", err)
		}
		cancel()
	}
	log.Println("✓ Qdrant memory store ready")

	// ──── Initialize Repositories ────
	sessionRepo := repository.NewSessionRepo(pool)
	historyRepo := repository.NewHistoryRepo(pool)

	// ──── Step 6: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(
		cfg.GeminiAPIKey,
		cfg.GeminiModel,
		cfg.GeminiEmbeddingModel,
		cfg.GeminiConcurrentReqs,
	)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	sessionService := services.NewSessionService(sessionRepo, historyRepo, jwtAuth)
	chatService := services.NewChatService(
		sessionRepo,
		historyRepo,
		geminiService,
		memoryStore,
		redisClients.Queue,
		cfg.ScoringPolicy(),
		int64(cfg.IdleGapMs),
	)

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(sessionService)
	chatHandler := handlers.NewChatHandler(chatService)
	dashboardHandler := handlers.NewDashboardHandler(chatService)

	// ──── Step 7: Start Memory Indexing Worker Pool ────
	workerPool := worker.NewPool(redisClients.Queue, geminiService, memoryStore, 3)
	workerPool.Start()
	log.Println("✓ Worker pool started (3 goroutines)")

	// ──── Step 8: Start WebSocket Hub ────
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	log.Println("✓ WebSocket hub started")

	// ──── Step 9: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		chatHandler,
		dashboardHandler,
		wsHub,
		cfg.FrontendURL,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		workerPool.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ MindPulse Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
