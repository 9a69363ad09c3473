package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Vodeneev/bonusbet/internal/bonusbet"
	"github.com/Vodeneev/bonusbet/internal/pkg/config"
	"github.com/Vodeneev/bonusbet/internal/pkg/logging"
	"github.com/Vodeneev/bonusbet/internal/pkg/oddsapi"
	"github.com/Vodeneev/bonusbet/internal/pkg/performance"
)

const (
	defaultConfigPath = "configs/bonusbet.yaml"
)

func main() {
	var configPath string

	defaultConfig := os.Getenv("CONFIG_PATH")
	if defaultConfig == "" {
		defaultConfig = defaultConfigPath
	}

	flag.StringVar(&configPath, "config", defaultConfig, "Path to config file (can be set via CONFIG_PATH env var)")
	flag.Parse()

	fmt.Printf("Loading config from: %s\n", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	_, logCloser, err := logging.SetupLogger(&cfg.Logging, "bonusbet")
	if err != nil {
		log.Printf("Warning: failed to setup logging: %v, continuing with default logger", err)
	}
	defer logCloser.Close()

	if cfg.OddsAPI.APIKey == "" {
		slog.Error("odds_api.api_key is required (or set ODDS_API_KEY)")
		os.Exit(1)
	}

	client := oddsapi.NewClient(oddsapi.Options{
		BaseURL:         cfg.OddsAPI.BaseURL,
		APIKey:          cfg.OddsAPI.APIKey,
		Regions:         cfg.OddsAPI.Regions,
		OddsFormat:      cfg.OddsAPI.OddsFormat,
		Bookmakers:      cfg.BookmakerKeys(),
		PreferredSports: cfg.OddsAPI.PreferredSports,
		MaxSports:       cfg.OddsAPI.MaxSports,
		Timeout:         config.Duration(cfg.OddsAPI.Timeout, 10*time.Second),
		SportsTTL:       config.Duration(cfg.OddsAPI.SportsTTL, time.Hour),
		OddsTTL:         config.Duration(cfg.OddsAPI.OddsTTL, 5*time.Minute),
	})
	defer client.Close()

	scanner := bonusbet.NewScanner(client,
		bonusbet.WithMarkets(cfg.OddsAPI.Markets),
		bonusbet.WithHorizon(config.Duration(cfg.Search.Horizon, 7*24*time.Hour)),
		bonusbet.WithSportPause(config.Duration(cfg.OddsAPI.SportPause, 0)),
	)
	books := bonusbet.NewBookmakers(cfg.Bookmakers)
	tracker := performance.GetTracker()
	queue := bonusbet.NewQueue()

	notifier, stopNotifier := newNotifier(cfg, books)
	defer stopNotifier()

	engine := bonusbet.NewEngine(scanner, queue, books, tracker, cfg.Search.QuickThreshold)
	worker := bonusbet.NewWorker(bonusbet.WorkerConfig{
		Interval:       config.Duration(cfg.Search.Interval, bonusbet.DefaultInterval),
		MaxAttempts:    cfg.Search.MaxAttempts,
		QuickThreshold: cfg.Search.QuickThreshold,
	}, queue, scanner, notifier, tracker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received shutdown signal, stopping bonusbet...")
		cancel()
	}()

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(config.Duration(cfg.HTTP.RequestTimeout, 60*time.Second)))
	if len(cfg.HTTP.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.HTTP.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
			MaxAge:         300,
		}))
	}
	bonusbet.NewHandler(engine, tracker, client.Stats).Routes(r)

	srv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           r,
		ReadHeaderTimeout: config.Duration(cfg.HTTP.ReadHeaderTimeout, 5*time.Second),
	}

	go func() {
		slog.Info("HTTP server listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			cancel()
		}
	}()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	slog.Info("Bonusbet started",
		"regions", cfg.OddsAPI.Regions,
		"bookmakers", len(cfg.Bookmakers),
		"interval", cfg.Search.Interval,
		"max_attempts", cfg.Search.MaxAttempts)

	<-ctx.Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
	wg.Wait()

	tracker.PrintSummary()
	slog.Info("Bonusbet stopped", "queued_searches_dropped", queue.Len())
}

// newNotifier picks the Telegram notifier when a bot token is configured.
func newNotifier(cfg *config.Config, books *bonusbet.Bookmakers) (bonusbet.Notifier, func()) {
	if cfg.Telegram.BotToken == "" {
		slog.Info("Telegram bot token not set, notifications will only be logged")
		return bonusbet.LogNotifier{}, func() {}
	}
	tg, err := bonusbet.NewTelegramNotifier(cfg.Telegram.BotToken, bonusbet.TelegramOptions{
		FallbackChatID: cfg.Telegram.FallbackChatID,
		SendInterval:   config.Duration(cfg.Telegram.SendInterval, bonusbet.DefaultTelegramSendInterval),
		Bookmakers:     books,
	})
	if err != nil {
		slog.Error("Failed to create telegram notifier, falling back to logs", "error", err)
		return bonusbet.LogNotifier{}, func() {}
	}
	return tg, tg.Stop
}
