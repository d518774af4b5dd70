package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ethanadams/sigv4probe/internal/config"
	"github.com/ethanadams/sigv4probe/internal/logging"
	"github.com/ethanadams/sigv4probe/internal/metrics"
	"github.com/ethanadams/sigv4probe/internal/probe"
	"github.com/ethanadams/sigv4probe/internal/scheduler"
	"github.com/ethanadams/sigv4probe/internal/testdata"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logging.SetLevel(cfg.Logging.Level)

	log.Printf("Starting sigv4probe")
	log.Printf("Config: endpoint=%s, probes=%d", cfg.Target.Endpoint, len(cfg.Probes))

	if err := testdata.EnsureBodyFiles(cfg); err != nil {
		log.Printf("Warning: failed to ensure probe body fixtures: %v", err)
	}

	metricsCollector := metrics.NewCollector()
	log.Printf("Initialized metrics collector")

	runners := make(map[string]probe.Runner)

	if cfg.Target.Endpoint != "" && cfg.Target.AccessKey != "" {
		httpRunner, err := probe.NewHTTPRunner(cfg, metricsCollector)
		if err != nil {
			log.Printf("Warning: Failed to initialize HTTP runner: %v", err)
		} else {
			runners["http"] = httpRunner
			defer httpRunner.Close()
			log.Printf("Initialized HTTP runner (endpoint: %s)", cfg.Target.Endpoint)
		}
	} else {
		log.Printf("HTTP runner disabled (no credentials configured)")
	}

	if cfg.K6.BinaryPath != "" {
		runners["k6"] = probe.NewK6Runner(cfg, metricsCollector)
		log.Printf("Initialized k6 runner (binary: %s)", cfg.K6.BinaryPath)
	}

	sched := scheduler.New(cfg, runners)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := sched.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	mux := http.NewServeMux()

	mux.Handle(cfg.Metrics.Path, promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, "sigv4probe\n\n")
		fmt.Fprintf(w, "Endpoints:\n")
		fmt.Fprintf(w, "  %s - Prometheus metrics\n", cfg.Metrics.Path)
		fmt.Fprintf(w, "  /health - Health check\n")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting HTTP server on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start HTTP server: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Received shutdown signal, shutting down gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}

	log.Println("Shutdown complete")
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, "OK\n")
}
