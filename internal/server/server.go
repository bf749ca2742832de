// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: every dependency is wired here, in one
// place, and each layer only receives what it needs — services get
// repository interfaces, handlers get services, nothing below the router
// sees HTTP middleware.
//
// Dependency chain:
//
//	sqlite.DB → CatalogService / AuthService → ModHandler / AuthHandler
//	TokenService ─┬→ AuthService
//	              └→ auth middlewares (RequireAuth / RequireAdmin / OptionalAuth)
//	ai.Enricher → AIHandler
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/abenhamida/minemods/internal/ai"
	"github.com/abenhamida/minemods/internal/auth"
	"github.com/abenhamida/minemods/internal/handler"
	"github.com/abenhamida/minemods/internal/middleware"
	sqliteRepo "github.com/abenhamida/minemods/internal/repository/sqlite"
	"github.com/abenhamida/minemods/internal/service"
)

// Config holds server configuration, loaded from the environment in main.
type Config struct {
	Port               int
	DBPath             string
	StaticDir          string // prebuilt SPA to serve at /; empty disables
	BaseURL            string // public origin, e.g. "http://localhost:8080"
	SessionSecret      string // HMAC secret for session/admin tokens
	AdminPasswordHash  string // bcrypt hash; empty disables admin login
	GoogleClientID     string
	GoogleClientSecret string
	GeminiAPIKey       string // empty disables the AI routes' upstream calls
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with the full dependency graph wired.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	if cfg.SessionSecret == "" {
		return nil, fmt.Errorf("server: SESSION_SECRET is required")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes wires middleware, handlers, and the route table.
//
// Route structure:
//
//	GET    /api/auth/url       → Google authorization URL
//	GET    /auth/callback      → OAuth callback (sets cookies, popup page)
//	POST   /api/admin/login    → admin capability login
//	POST   /api/auth/logout    → clear identity cookies
//	GET    /api/me             → current identity from cookies
//	GET    /api/mods           → list catalog
//	GET    /api/mods/{id}      → one mod
//	POST   /api/mods           → create (admin)
//	PUT    /api/mods/{id}      → update (admin)
//	DELETE /api/mods/{id}      → delete (admin)
//	POST   /api/mods/{id}/rate → rate (login)
//	POST   /api/ai/*           → Gemini proxies (rate limited)
//	GET    /*                  → SPA static files (when configured)
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	// === Auth plumbing ===
	tokens, err := auth.NewTokenService(s.config.SessionSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	google := auth.NewGoogleProvider(
		s.config.GoogleClientID,
		s.config.GoogleClientSecret,
		strings.TrimRight(s.config.BaseURL, "/")+"/auth/callback",
	)
	passwords := auth.NewPasswordService()

	// === Services ===
	authService := service.NewAuthService(s.db, tokens, passwords, s.config.AdminPasswordHash, s.logger)
	catalogService := service.NewCatalogService(s.db, s.db, s.logger)

	enricher, err := ai.NewEnricher(context.Background(), s.config.GeminiAPIKey, s.logger)
	if err != nil {
		return fmt.Errorf("creating AI enricher: %w", err)
	}
	if enricher == nil {
		s.logger.Warn("GEMINI_API_KEY not set — AI enrichment endpoints will return null")
	}

	// === Handlers ===
	authHandler := handler.NewAuthHandler(google, authService, s.logger)
	modHandler := handler.NewModHandler(catalogService, s.logger)
	aiHandler := handler.NewAIHandler(enricher, s.logger)

	// OAuth callback lives outside /api — it's a browser navigation target,
	// registered with Google as the redirect URI.
	s.router.Get("/auth/callback", authHandler.HandleCallback)

	s.router.Route("/api", func(r chi.Router) {
		r.Get("/auth/url", authHandler.HandleAuthURL)
		r.Post("/auth/logout", authHandler.HandleLogout)
		r.Post("/admin/login", authHandler.HandleAdminLogin)

		r.With(auth.OptionalAuth(tokens)).Get("/me", authHandler.HandleMe)

		r.Get("/mods", modHandler.HandleList)
		r.Get("/mods/{id}", modHandler.HandleGetByID)

		// Catalog writes need the admin capability. OptionalAuth runs too so
		// a logged-in admin becomes the author of entries they create.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin(tokens))
			r.Use(auth.OptionalAuth(tokens))
			r.Post("/mods", modHandler.HandleCreate)
			r.Put("/mods/{id}", modHandler.HandleUpdate)
			r.Delete("/mods/{id}", modHandler.HandleDelete)
		})

		r.With(auth.RequireAuth(tokens)).Post("/mods/{id}/rate", modHandler.HandleRate)

		// The AI proxies spend upstream quota — keep them behind a per-IP
		// rate limit.
		r.Route("/ai", func(r chi.Router) {
			r.Use(httprate.LimitByIP(10, time.Minute))
			r.Post("/describe", aiHandler.HandleDescribe)
			r.Post("/analyze", aiHandler.HandleAnalyze)
			r.Post("/speech", aiHandler.HandleSpeech)
		})
	})

	// === SPA static files ===
	if s.config.StaticDir != "" {
		s.router.Get("/*", spaHandler(s.config.StaticDir))
	}

	return nil
}

// spaHandler serves the prebuilt frontend: real files as-is, anything else
// falls back to index.html so client-side routes deep-link correctly.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			fileServer.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	}
}

// Start runs the HTTP server and blocks until shutdown.
//
// Graceful shutdown: stop accepting connections, give in-flight requests
// 30 seconds to finish, then close the database (flushes the WAL, releases
// the file lock).
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
