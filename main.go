package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"googlemaps.github.io/maps"

	"donde-comemos-bot/activity"
	"donde-comemos-bot/config"
	"donde-comemos-bot/db"
	"donde-comemos-bot/places"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mapsClient, err := maps.NewClient(maps.WithAPIKey(cfg.MapsToken), maps.WithRateLimit(cfg.MapsRateLimit))
	if err != nil {
		log.Fatalf("Failed to create Google Maps client: %v", err)
	}

	pick, err := places.ParsePickPolicy(cfg.PickPolicy)
	if err != nil {
		log.Fatalf("Invalid PICK_POLICY: %v", err)
	}

	resolver := places.NewResolver(mapsClient, places.ResolverOptions{
		Bounds:   places.Bounds(cfg.Bounds),
		Region:   cfg.Region,
		Language: cfg.Language,
	})
	finder := places.NewFinder(resolver, mapsClient, places.FinderOptions{
		Radius:      cfg.SearchRadius,
		Language:    cfg.Language,
		MaxAttempts: cfg.SearchAttempts,
		Backoff:     cfg.SearchBackoff,
		Pick:        pick,
	})
	service := places.NewService(finder, places.NewPresenter(mapsClient, mapsClient, cfg.Language))

	recorders := activity.Multi{activity.NewFileLog(cfg.ActivityLogPath)}
	var store recommendationStore

	database, err := openDatabase(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	if database != nil {
		defer database.Close()
		recorders = append(recorders, db.ActivityRecorder{DB: database})
		store = database
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("Failed to create bot: %v", err)
	}

	limiter := newUserLimiter(cfg.RateLimit)
	bot := NewRestaurantBot(api, BotOptions{
		Places:   service,
		Activity: recorders,
		Store:    store,
		Limiter:  limiter,
		Timeout:  cfg.RequestTimeout,
	})

	if cfg.HTTPAddr != "" {
		server := newAPIServer(service, limiter)
		go func() {
			log.Printf("HTTP server starting on %s", cfg.HTTPAddr)
			if err := server.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("HTTP server error: %v", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Printf("HTTP server shutdown error: %v", err)
			}
		}()
	}

	log.Printf("Logging activity to %s", cfg.ActivityLogPath)
	if err := bot.Start(ctx); err != nil {
		log.Printf("Bot stopped with error: %v", err)
	}
	log.Printf("Shutting down")
}

// openDatabase returns nil when no database is configured.
func openDatabase(ctx context.Context) (*db.DB, error) {
	dbCfg, err := db.LoadConfig()
	if err != nil {
		return nil, err
	}
	if !dbCfg.IsConfigured() {
		log.Printf("Database not configured, recommendations and stats are disabled")
		return nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	database, err := db.Connect(connectCtx, dbCfg)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(connectCtx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}
