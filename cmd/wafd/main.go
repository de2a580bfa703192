package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"
	"github.com/spf13/pflag"

	"github.com/neomorfeo/wafd/internal/adapter/fsm"
	oteladapter "github.com/neomorfeo/wafd/internal/adapter/otel"
	riveradapter "github.com/neomorfeo/wafd/internal/adapter/river"
	"github.com/neomorfeo/wafd/internal/adapter/sqlite"
	"github.com/neomorfeo/wafd/internal/adapter/xlsx"
	"github.com/neomorfeo/wafd/internal/app"

	handler "github.com/neomorfeo/wafd/internal/adapter/http"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		log.Fatal(err)
	}
}

// config holds the server settings. Flags override the environment.
type config struct {
	Port         string
	DatabasePath string
	QueueWorkers int
}

func parseConfig(args []string) (config, error) {
	workers, err := strconv.Atoi(envOrDefault("QUEUE_WORKERS", "2"))
	if err != nil {
		return config{}, fmt.Errorf("QUEUE_WORKERS: %w", err)
	}

	cfg := config{}
	flags := pflag.NewFlagSet("wafd", pflag.ContinueOnError)
	flags.StringVar(&cfg.Port, "port", envOrDefault("PORT", "8080"), "HTTP listen port")
	flags.StringVar(&cfg.DatabasePath, "database", envOrDefault("DATABASE_PATH", "wafd.db"), "path to the SQLite database")
	flags.IntVar(&cfg.QueueWorkers, "queue-workers", workers, "number of event queue workers")

	if err := flags.Parse(args); err != nil {
		return config{}, err
	}
	return cfg, nil
}

func run(args []string) error {
	cfg, err := parseConfig(args)
	if err != nil {
		return err
	}

	ctx := context.Background()

	// --- Telemetry ---
	providers, err := oteladapter.Setup(ctx, oteladapter.ConfigFromEnv())
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Printf("otel shutdown: %v", err)
		}
	}()

	// --- Adapters (out) ---
	db, err := oteladapter.OpenDB(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}

	store, err := sqlite.NewFromDB(db)
	if err != nil {
		db.Close()
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()

	queue, err := riveradapter.Setup(ctx, db, cfg.QueueWorkers)
	if err != nil {
		return fmt.Errorf("queue: %w", err)
	}
	if err := queue.Start(ctx); err != nil {
		return fmt.Errorf("starting queue: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := queue.Stop(stopCtx); err != nil {
			log.Printf("queue stop: %v", err)
		}
	}()

	publisher := oteladapter.NewTracingPublisher(riveradapter.NewPublisher(queue))
	traced := oteladapter.NewTracingStore(store)

	// --- Application ---
	pilgrims := app.NewPilgrimService(traced, app.NewRegistrationNumberGenerator(time.Now), publisher)
	services := handler.Services{
		Tents:      app.NewTentService(traced, publisher),
		Allocation: app.NewAllocationService(traced, fsm.New(), publisher),
		Ledger:     app.NewBookingLedger(traced),
		Pilgrims:   pilgrims,
		Agencies:   app.NewAgencyService(traced),
		Statistics: app.NewStatisticsService(traced),
		Importer:   xlsx.NewImporter(pilgrims),
	}

	// --- Adapters (in) ---
	router := chi.NewMux()
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(otelchi.Middleware("wafd", otelchi.WithChiRoutes(router)))

	api := humachi.New(router, huma.DefaultConfig("wafd", "0.1.0"))
	handler.Register(api, services)

	// --- Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown.
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("wafd listening on :%s", cfg.Port)
		log.Printf("API docs: http://localhost:%s/docs", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-done:
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	}
	log.Println("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("stopped")
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
