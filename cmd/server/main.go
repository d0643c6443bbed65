package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/huntsync/server/internal/config"
	"github.com/huntsync/server/internal/handlers"
	custommw "github.com/huntsync/server/internal/middleware"
	"github.com/huntsync/server/internal/observability"
	"github.com/huntsync/server/internal/repository"
	"github.com/huntsync/server/internal/services"
)

const serviceVersion = "1.0.0"

func main() {
	// Optional .env for local development
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize telemetry
	telemetry, err := observability.Initialize(context.Background(), observability.NewConfig("huntsync-server", serviceVersion))
	if err != nil {
		log.Printf("Warning: telemetry initialization failed: %v", err)
	}

	// Initialize database
	var db *sql.DB
	if cfg.UsePostgres() {
		log.Println("Using PostgreSQL database")
		db, err = repository.NewPostgresDB(cfg.DatabaseURL)
	} else {
		log.Println("Using SQLite database")
		db, err = repository.NewSQLiteDB(cfg.DatabasePath)
	}
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Repositories
	teamRepo := repository.NewTeamRepository(db)
	lockRepo := repository.NewTeamLockRepository(db)
	progressRepo := repository.NewProgressRepository(db)
	photoRepo := repository.NewPhotoRepository(db)
	locationRepo := repository.NewLocationRepository(db)

	// Services
	lockService := services.NewLockService(teamRepo, lockRepo, time.Duration(cfg.Lock.TTLMinutes)*time.Minute)
	progressService := services.NewProgressService(progressRepo, locationRepo)
	hashService := services.NewHashService()
	imageService := services.NewImageService(cfg.Upload.MaxDimension, cfg.Upload.JPEGQuality)
	storageService, err := services.NewPhotoStorageService(
		cfg.PhotoStorage.BasePath,
		cfg.PhotoStorage.AllowedExtensions,
		cfg.PhotoStorage.MaxFileSizeMB,
	)
	if err != nil {
		log.Fatalf("Failed to initialize storage service: %v", err)
	}

	maintenanceService := services.NewMaintenanceService(photoRepo, storageService, time.Hour)
	maintenanceService.Start()
	defer maintenanceService.Stop()

	huntMetrics, err := observability.NewHuntMetrics()
	if err != nil {
		log.Printf("Warning: metrics initialization failed: %v", err)
	}

	// Handlers
	lockHandler := handlers.NewLockHandler(lockService, huntMetrics)
	progressHandler := handlers.NewProgressHandler(progressService, huntMetrics)
	uploadHandler := handlers.NewUploadHandler(photoRepo, storageService, imageService, hashService, progressService, cfg.Upload.AllowLargeUploads, huntMetrics)
	activeHandler := handlers.NewActiveHandler(locationRepo, progressRepo, cfg.Event.Settings, cfg.Event.Sponsors)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService)
	healthHandler := handlers.NewHealthHandler()

	httpMetrics, err := observability.NewHTTPMetrics()
	if err != nil {
		log.Printf("Warning: HTTP metrics initialization failed: %v", err)
	}

	// Setup router
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware("huntsync-server"))
	if httpMetrics != nil {
		r.Use(observability.MetricsMiddleware(httpMetrics))
	}

	// Routes
	r.Get("/health", healthHandler.HealthCheck)
	r.Get("/api/health", healthHandler.HealthCheck)
	r.Get("/api/version", handlers.VersionHandler)

	r.Get("/api/maintenance/status", maintenanceHandler.Status)
	r.Post("/api/maintenance/sweep", maintenanceHandler.Sweep)

	r.Post("/api/lock/acquire", lockHandler.Acquire)

	// Team-scoped routes require the device lock token
	r.Group(func(r chi.Router) {
		r.Use(custommw.RequireLock(lockService))

		r.Delete("/api/lock", lockHandler.Release)

		r.Get("/api/progress/{orgID}/{teamID}/{huntID}", progressHandler.Get)
		r.Put("/api/progress/{orgID}/{teamID}/{huntID}", progressHandler.Put)

		r.Get("/api/active/{orgID}/{teamID}/{huntID}", activeHandler.Get)

		r.Route("/api/upload", func(r chi.Router) {
			r.Post("/orchestrated", uploadHandler.Orchestrated)
			r.Post("/signed", uploadHandler.Signed)
			r.Post("/legacy", uploadHandler.Legacy)
		})
	})

	// Create server
	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second, // Longer for uploads
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("HuntSync Server starting on %s", cfg.ServerAddress)
		log.Printf("Photo storage path: %s", cfg.PhotoStorage.BasePath)
		log.Printf("Max file size: %dMB", cfg.PhotoStorage.MaxFileSizeMB)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(ctx); err != nil {
			log.Printf("Warning: telemetry shutdown failed: %v", err)
		}
	}

	log.Println("Server stopped")
}
