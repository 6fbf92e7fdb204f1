package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"streamhive/internal/auth"
	"streamhive/internal/database"
	"streamhive/internal/handlers"
	"streamhive/internal/ingest"
	"streamhive/internal/logging"
	"streamhive/internal/middleware"
	"streamhive/internal/publisher"
	"streamhive/internal/startup"
	"streamhive/internal/storage"
	"streamhive/internal/transcoder"
	"streamhive/internal/workers"
)

const maxTranscodeWorkers = 8

func main() {
	startTime := time.Now()
	ctx := context.Background()

	// Load configuration
	config, err := startup.LoadConfig()
	if err != nil {
		startup.LogFatal("Configuration error: %v", err)
	}

	// Initialize database
	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		startup.LogFatal("Failed to initialize database: %v", err)
	}
	defer db.Close()
	startup.LogDatabaseInit(time.Since(dbStart))

	// Update connection pool metrics periodically
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		for range ticker.C {
			db.UpdateDBMetrics()
		}
	}()

	// Select the storage backend once at startup; everything downstream
	// works against the interface.
	backend, err := newBackend(ctx, config)
	if err != nil {
		startup.LogFatal("Failed to initialize storage backend: %v", err)
	}

	// Initialize transcoder and ingestion pipeline
	transcodeWorkers := workers.ForCPU(maxTranscodeWorkers)
	if err := startup.LogTranscoderInit(ctx, config.TranscodeTimeout, transcodeWorkers); err != nil {
		startup.LogFatal("Transcoder initialization failed: %v", err)
	}
	trans := transcoder.New(&transcoder.ExecRunner{}, config.TranscodeTimeout)
	pub := publisher.New(backend)
	svc := ingest.New(db, trans, pub, config.WorkDir, transcodeWorkers)

	// Initialize handlers
	authMgr := auth.New(config.JWTSecret, auth.DefaultTTL)
	h := handlers.New(db, svc, authMgr, config.StagingDir)

	// Setup router
	router := setupRouter(h, backend)

	// Log routes dynamically
	startup.LogHTTPRoutes(router, config.LogStaticFiles, config.LogHealthChecks)

	// Apply logging middleware
	loggingConfig := middleware.DefaultLoggingConfig()
	loggingConfig.LogStaticFiles = config.LogStaticFiles
	loggingConfig.LogHealthChecks = config.LogHealthChecks
	loggedHandler := middleware.Logger(loggingConfig)(router)

	// Apply metrics middleware
	handler := middleware.Metrics(middleware.DefaultMetricsConfig())(loggedHandler)

	// Create server. WriteTimeout is unset: uploads block until the
	// full pipeline finishes.
	srv := &http.Server{
		Addr:         ":" + config.Port,
		Handler:      handler,
		ReadTimeout:  0,
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	// Serve Prometheus metrics on a separate listener
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", promhttp.Handler())
		metricsSrv = &http.Server{
			Addr:        ":" + config.MetricsPort,
			Handler:     metricsMux,
			ReadTimeout: 15 * time.Second,
		}
		go func() {
			if err := metricsSrv.ListenAndServe(); err != http.ErrServerClosed {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	// Start graceful shutdown handler
	go handleShutdown(srv, metricsSrv, db)

	// Start server
	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		startup.LogFatal("Server error: %v", err)
	}
}

func newBackend(ctx context.Context, config *startup.Config) (storage.Backend, error) {
	if config.S3Bucket != "" {
		return storage.NewS3(ctx, config.S3Bucket)
	}
	return storage.NewLocal(config.UploadDir)
}

func setupRouter(h *handlers.Handlers, backend storage.Backend) *mux.Router {
	r := mux.NewRouter()

	// Health check routes (no auth required)
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/healthz", h.HealthCheck).Methods("GET")
	r.HandleFunc("/livez", h.LivenessCheck).Methods("GET", "HEAD")
	r.HandleFunc("/readyz", h.ReadinessCheck).Methods("GET")

	// Auth routes
	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", h.Register).Methods("POST")
	auth.HandleFunc("/login", h.Login).Methods("POST")
	auth.HandleFunc("/logout", h.Logout).Methods("POST")
	auth.HandleFunc("/me", h.RequireAuth(h.Me)).Methods("GET")
	auth.HandleFunc("/forgot-password", h.ForgotPassword).Methods("POST")
	auth.HandleFunc("/reset-password/{token}", h.ResetPassword).Methods("PUT")

	// Video catalog routes
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/videos", h.ListVideos).Methods("GET")
	api.HandleFunc("/videos", h.RequireAuth(h.UploadVideo)).Methods("POST")
	api.HandleFunc("/videos/{id}", h.GetVideo).Methods("GET")

	// Watch history
	api.HandleFunc("/users/history", h.RequireAuth(h.GetHistory)).Methods("GET")
	api.HandleFunc("/users/history", h.RequireAuth(h.SaveHistory)).Methods("POST")

	// The local backend serves published artifacts directly; with S3
	// the playlist and segment URLs point at the bucket instead.
	if local, ok := backend.(*storage.Local); ok {
		r.PathPrefix("/uploads/").Handler(
			http.StripPrefix("/uploads/", http.FileServer(http.Dir(local.Root()))))
	}

	return r
}

func handleShutdown(srv, metricsSrv *http.Server, db *database.Database) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Closing database")
	if err := db.Close(); err != nil {
		logging.Warn("Database close error: %v", err)
	} else {
		startup.LogShutdownStepComplete("Database closed")
	}

	startup.LogShutdownComplete()
}
