package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/tidytask/tidytask/internal/agent"
	"github.com/tidytask/tidytask/internal/auth"
	"github.com/tidytask/tidytask/internal/config"
	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/llm"
	"github.com/tidytask/tidytask/internal/logger"
	"github.com/tidytask/tidytask/internal/maintenance"
	"github.com/tidytask/tidytask/internal/server"
	"github.com/tidytask/tidytask/internal/store"
)

var version = "dev"

func main() {
	// Handle --version / -v flag
	if len(os.Args) == 2 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Println("tidytask " + version)
		os.Exit(0)
	}

	logger.Banner()

	cfg := config.Load()

	// Initialize database
	db, err := database.New(cfg.DataDir)
	if err != nil {
		logger.Fatal("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Resolve JWT secret: env var > database > generate and persist
	jwtSecret := cfg.JWTSecret
	if jwtSecret == "" {
		var stored string
		err := db.QueryRow("SELECT value FROM settings WHERE key = 'jwt_secret'").Scan(&stored)
		if err == nil && stored != "" {
			jwtSecret = stored
		} else {
			jwtSecret, err = auth.GenerateSecret()
			if err != nil {
				logger.Fatal("Failed to generate JWT secret: %v", err)
			}
			// Persist to database so tokens survive restarts
			if _, err := db.Exec("INSERT INTO settings (id, key, value) VALUES (?, 'jwt_secret', ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
				uuid.NewString(), jwtSecret); err != nil {
				logger.Error("Failed to persist JWT secret: %v", err)
			}
			logger.Success("Generated and persisted JWT secret")
		}
	}

	authService := auth.NewService(jwtSecret)

	llmClient := llm.NewClient(cfg.OpenRouterKey, cfg.ModelTimeout)
	if !llmClient.IsConfigured() {
		logger.Warn("OPENROUTER_API_KEY not set. Chat will return a degraded response until it is configured.")
	}

	taskStore := store.NewTaskStore(db)
	conversationStore := store.NewConversationStore(db)

	registry := agent.NewRegistry()
	agent.RegisterTaskTools(registry, taskStore)
	runner := agent.NewRunner(llmClient, registry, conversationStore, cfg.AgentModel, cfg.AgentSummarize)

	sched := maintenance.New(db)
	if err := sched.Start(); err != nil {
		logger.Fatal("Failed to start maintenance scheduler: %v", err)
	}
	defer sched.Stop()

	srv := server.New(server.Config{
		DB:            db,
		Auth:          authService,
		Tasks:         taskStore,
		Conversations: conversationStore,
		Runner:        runner,
		Version:       version,
	})

	addr := fmt.Sprintf("%s:%d", cfg.BindAddress, cfg.Port)
	if cfg.BindAddress != "127.0.0.1" && cfg.BindAddress != "localhost" {
		logger.Warn("Binding to %s — accessible from the network. Use TIDYTASK_BIND=127.0.0.1 for localhost-only.", cfg.BindAddress)
	}
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      srv.Router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.ModelTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		url := fmt.Sprintf("http://localhost:%d", cfg.Port)
		logger.Listen(addr, url, cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	<-done
	logger.Shutdown("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("Server shutdown failed: %v", err)
	}

	logger.Bye()
}
