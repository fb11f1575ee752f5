package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dnoice/roachtrack/internal/api"
	"github.com/dnoice/roachtrack/internal/auth"
	"github.com/dnoice/roachtrack/internal/config"
	"github.com/dnoice/roachtrack/internal/db"
	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/security"
)

var (
	// Version information (set via ldflags)
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("RoachTrack Server\n")
		fmt.Printf("Version:    %s\n", Version)
		fmt.Printf("Commit:     %s\n", Commit)
		fmt.Printf("Build Time: %s\n", BuildTime)
		os.Exit(0)
	}

	log.Printf("Starting RoachTrack Server %s (commit: %s)", Version, Commit)

	// Load .env if present; real environment variables win
	if err := godotenv.Load(); err == nil {
		log.Printf("Loaded environment from .env")
	}

	// Load configuration
	cfg, err := config.LoadWithEnv(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database
	log.Printf("Connecting to database: %s", cfg.Database.Path)
	database, err := db.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	log.Printf("Running database migrations...")
	if err := db.RunMigrations(database); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(database.DB, cfg.Auth.BcryptCost)
	propertyRepo := repository.NewPropertyRepository(database.DB)
	sightingRepo := repository.NewSightingRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	// Initialize security components
	auditor := security.NewAuditor(auditRepo)
	limiter := security.NewRateLimiter(
		cfg.RateLimit.MaxAttempts,
		cfg.AttemptWindow(),
		cfg.LockoutDuration(),
		auditor,
	)

	// Initialize sessions and the authentication service
	sessions := auth.NewSessionStore(cfg.SessionTTL())
	authSvc := auth.NewService(userRepo, limiter, auditor, sessions)

	// Create HTTP server
	server := api.NewServer(
		cfg,
		authSvc,
		sessions,
		auditor,
		userRepo,
		propertyRepo,
		sightingRepo,
		auditRepo,
	)

	// Setup graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	// Start server in a goroutine
	go func() {
		log.Printf("Starting HTTP server on %s", cfg.Server.ListenAddr)
		if err := server.Run(); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	log.Printf("RoachTrack Server is running")
	log.Printf("Press Ctrl+C to shutdown")

	// Wait for interrupt signal
	<-quit
	log.Printf("Shutting down server...")

	database.Close()

	log.Printf("Server stopped")
}
