package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mwhitford/pgprobe/internal/config"
	"github.com/mwhitford/pgprobe/internal/health"
	"github.com/mwhitford/pgprobe/internal/logger"
	"github.com/mwhitford/pgprobe/internal/metrics"
	"github.com/mwhitford/pgprobe/internal/probe"
	"github.com/mwhitford/pgprobe/internal/web"
)

func main() {
	// Define command-line flags
	configFile := flag.String("config", "", "Path to configuration file")
	addr := flag.String("addr", "", "HTTP listen address")
	dbHost := flag.String("db-host", "", "PostgreSQL host")
	dbPort := flag.Int("db-port", 0, "PostgreSQL port")
	dbName := flag.String("db-name", "", "Database name")
	dbUser := flag.String("db-user", "", "Database user")
	dbPass := flag.String("db-pass", "", "Database password")
	sslMode := flag.String("db-sslmode", "", "PostgreSQL sslmode")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	logger.SetDebug(*debug)

	// A .env file is optional; environment takes over from there
	_ = godotenv.Load()

	// Resolve configuration: defaults, then file, then env, then flags
	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadFromFile(*configFile)
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}
		cfg = loaded
	}
	cfg.ApplyEnv()
	cfg.MergeWithFlags(*addr, *dbHost, *dbPort, *dbName, *dbUser, *dbPass, *sslMode)

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Println("pgprobe - PostgreSQL connectivity checker")
	fmt.Printf("Target: %s\n", cfg.Database.Redacted())

	if err := run(cfg); err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
}

func run(cfg *config.Config) error {
	// Track process uptime
	startTime := time.Now()
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for range ticker.C {
			metrics.Uptime.Set(time.Since(startTime).Seconds())
		}
	}()

	checker := probe.New(cfg.Database)

	healthService := health.NewService()
	healthService.RegisterChecker("database", health.NewDatabaseChecker(checker))

	webHandler, err := web.NewHandler(checker, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create web handler: %w", err)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/", wrapMetrics("index", webHandler.Index))
	mux.HandleFunc("/api/check", wrapMetrics("check", webHandler.Check))
	mux.HandleFunc("/health", wrapMetrics("health", healthService.Handler()))
	mux.HandleFunc("/health/live", wrapMetrics("health_live", healthService.LivenessHandler()))
	mux.HandleFunc("/health/ready", wrapMetrics("health_ready", healthService.ReadinessHandler()))

	// Prometheus metrics endpoint
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("main", "Listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	// Wait for a shutdown signal or a server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		logger.Info("main", "Received signal %v, shutting down...", sig)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}

	return nil
}

// wrapMetrics wraps an HTTP handler to track request metrics
func wrapMetrics(endpoint string, handler func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Custom response writer to capture the status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		handler(wrapped, r)

		metrics.HTTPRequests.WithLabelValues(endpoint, strconv.Itoa(wrapped.statusCode)).Inc()
	}
}

// responseWriter captures the status code for metrics
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
