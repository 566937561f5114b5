package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"csvpilot/internal/analyzer"
	"csvpilot/internal/config"
	"csvpilot/internal/repository"
	"csvpilot/internal/server"
	"csvpilot/internal/service"
	"csvpilot/internal/session"
	"csvpilot/internal/storage"

	"github.com/joho/godotenv"
)

func main() {
	// Load env if it exists
	godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	redis, err := storage.NewRedis(
		cfg.Redis.Addr,
		cfg.Redis.Password,
		cfg.Redis.DB,
	)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redis.Close()

	log.Println("Connected to redis successfully")

	store := session.NewRedisStore(redis, cfg.Session.TTL)

	// Audit log is optional; without a database the app still gates and
	// analyzes, it just doesn't record history
	var audit *service.AuditService
	if cfg.DatabaseURL != "" {
		postgres, err := storage.NewPostgres(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer postgres.Close()

		if err := postgres.AutoMigrate(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}

		audit = service.NewAuditService(repository.NewAuditRepository(postgres), 1000)
		log.Println("Connected to postgres, audit log enabled")
	} else {
		log.Println("DATABASE_URL not set, audit log disabled")
	}

	var completer analyzer.Completer
	if cfg.Gemini.APIKey != "" {
		gemini, err := analyzer.NewGemini(cfg.Gemini.APIKey, cfg.Gemini.Model)
		if err != nil {
			log.Fatalf("Failed to create gemini client: %v", err)
		}
		completer = gemini
	} else {
		completer = analyzer.Unconfigured{}
	}

	// Create server
	srv := server.New(cfg, store, completer, audit)

	go func() {
		addr := ":" + cfg.Server.Port
		if err := srv.Run(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
