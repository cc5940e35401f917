package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/api"
	"github.com/tubes-arcade/arcade-backend/internal/api/middleware"
	"github.com/tubes-arcade/arcade-backend/internal/config"
	"github.com/tubes-arcade/arcade-backend/internal/database"
	"github.com/tubes-arcade/arcade-backend/internal/services/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" && !cfg.BypassAuth {
		log.Println("warning: JWT_SECRET is not set; authenticated endpoints will return 500")
	}

	dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer dbService.Close()

	sessionManager := session.NewSessionManager(session.DefaultTickInterval)

	handler := api.NewRouter(api.Dependencies{
		Scores:         database.NewScoreRepository(dbService.DB),
		Users:          dbService,
		Sessions:       sessionManager,
		Auth:           middleware.NewAuthenticator(cfg.JWTSecret, cfg.BypassAuth),
		Tuning:         cfg.Tuning,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	// WebSocket接続はhijackされているため、SessionManager側で閉じる
	sessionManager.Shutdown()
	log.Println("Server stopped")
}
