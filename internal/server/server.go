package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/tidytask/tidytask/internal/agent"
	"github.com/tidytask/tidytask/internal/auth"
	"github.com/tidytask/tidytask/internal/database"
	"github.com/tidytask/tidytask/internal/handlers"
	mw "github.com/tidytask/tidytask/internal/middleware"
	"github.com/tidytask/tidytask/internal/store"
)

type Server struct {
	Router *chi.Mux
	DB     *database.DB
	Auth   *auth.Service
}

type Config struct {
	DB            *database.DB
	Auth          *auth.Service
	Tasks         *store.TaskStore
	Conversations *store.ConversationStore
	Runner        *agent.Runner
	Version       string
}

func New(cfg Config) *Server {
	s := &Server{
		Router: chi.NewRouter(),
		DB:     cfg.DB,
		Auth:   cfg.Auth,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg)

	return s
}

func (s *Server) setupMiddleware() {
	s.Router.Use(chiMiddleware.RealIP)
	s.Router.Use(mw.RequestID)
	s.Router.Use(mw.SecurityHeaders)
	s.Router.Use(mw.Logger)
	s.Router.Use(mw.CORS)
	s.Router.Use(chiMiddleware.Recoverer)
}

func (s *Server) setupRoutes(cfg Config) {
	authHandler := handlers.NewAuthHandler(s.DB, s.Auth)
	tasksHandler := handlers.NewTasksHandler(s.DB, cfg.Tasks)
	chatHandler := handlers.NewChatHandler(s.DB, cfg.Runner, cfg.Conversations)
	systemHandler := handlers.NewSystemHandler(s.DB, cfg.Version)

	s.Router.Route("/api/v1", func(r chi.Router) {
		// Public routes (no auth required)
		r.Route("/auth", func(r chi.Router) {
			r.With(mw.RateLimit(10, time.Minute)).Post("/signup", authHandler.Signup)
			r.With(mw.RateLimit(10, time.Minute)).Post("/login", authHandler.Login)
		})

		r.Get("/system/health", systemHandler.Health)

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(s.Auth))

			r.Post("/auth/logout", authHandler.Logout)
			r.Get("/auth/me", authHandler.Me)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", tasksHandler.List)
				r.Post("/", tasksHandler.Create)
				r.Get("/{id}", tasksHandler.Get)
				r.Put("/{id}", tasksHandler.Update)
				r.Delete("/{id}", tasksHandler.Delete)
				r.Post("/{id}/complete", tasksHandler.Complete)
			})

			r.Post("/chat", chatHandler.Chat)
			r.Get("/chat/history", chatHandler.History)
		})
	})
}
