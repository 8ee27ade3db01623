package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"flowguard/internal/alert"
	"flowguard/internal/config"
	"flowguard/internal/flow"
	"flowguard/internal/handlers"
	"flowguard/internal/store"
)

func main() {
	log.Println("Starting flowguard telemetry service...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	st, err := store.NewRedisStore(
		cfg.RedisAddr,
		cfg.RedisPassword,
		cfg.RedisDB,
		alert.CooldownMS*time.Millisecond,
		cfg.DataTZ,
	)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer st.Close()
	log.Println("Connected to Redis")

	notifier := alert.NewNotifier(cfg.AlertURL, cfg.AlertKey, cfg.AlertTimeout)
	processor := flow.NewProcessor(st, notifier, cfg.DataTZ)
	handler := handlers.NewHandler(processor, st, cfg.DataTZ)

	router := mux.NewRouter()
	router.HandleFunc("/readings", handler.SubmitReading).Methods(http.MethodPost)
	router.HandleFunc("/latest", handler.GetLatest).Methods(http.MethodGet)
	router.HandleFunc("/history", handler.GetHistory).Methods(http.MethodGet)
	router.HandleFunc("/export", handler.ExportCSV).Methods(http.MethodGet)
	router.HandleFunc("/health", handler.HealthCheck).Methods(http.MethodGet)

	// Prometheus scrape endpoint
	router.Handle("/prometheus", promhttp.Handler())

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	})

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      c.Handler(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server listening on port %s\n", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped gracefully")
}
