// Package main is the entry point for the mod catalog server.
//
// The main package stays minimal — its job is to:
// 1. Read configuration (env vars, with a best-effort .env for development)
// 2. Create shared dependencies (the logger)
// 3. Start the application
//
// All actual logic lives in imported packages (internal/server, internal/handler, etc.).
package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/abenhamida/minemods/internal/server"
)

func main() {
	// Load .env if present. Real environment variables win over .env values,
	// so production deployments are unaffected by a stray file.
	_ = godotenv.Load()

	logger := newLogger()

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/minemods.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}

	// Ensure the data directory exists before sqlite tries to create the file.
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	staticDir := os.Getenv("STATIC_DIR")
	if staticDir != "" {
		staticDir, _ = filepath.Abs(staticDir)
	}

	baseURL := os.Getenv("APP_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + strconv.Itoa(port)
	}

	// SESSION_SECRET must be a long random string. Use:
	//   SESSION_SECRET=$(openssl rand -hex 32)
	sessionSecret := os.Getenv("SESSION_SECRET")
	if sessionSecret == "" {
		logger.Error("SESSION_SECRET not set — refusing to start without a signing key")
		os.Exit(1)
	}

	// ADMIN_PASSWORD_HASH is a bcrypt hash. Generate one with:
	//   htpasswd -bnBC 12 "" 'your-password' | tr -d ':\n'
	// If unset, admin login is disabled and the catalog is read-only.
	adminHash := os.Getenv("ADMIN_PASSWORD_HASH")
	if adminHash == "" {
		logger.Warn("ADMIN_PASSWORD_HASH not set — admin login is disabled")
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		StaticDir:          staticDir,
		BaseURL:            baseURL,
		SessionSecret:      sessionSecret,
		AdminPasswordHash:  adminHash,
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GeminiAPIKey:       os.Getenv("GEMINI_API_KEY"),
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start() blocks until the server is shut down (via Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newLogger builds the process-wide slog.Logger. LOG_LEVEL accepts
// debug, info, warn, or error; anything else (or unset) means info.
func newLogger() *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
}
