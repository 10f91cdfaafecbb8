package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/aliceryden/portalen/internal/api"
	"github.com/aliceryden/portalen/internal/config"
	"github.com/aliceryden/portalen/internal/database"
	"github.com/aliceryden/portalen/internal/domain"
	"github.com/aliceryden/portalen/internal/events"
	"github.com/aliceryden/portalen/internal/export"
	"github.com/aliceryden/portalen/internal/geo"
	"github.com/aliceryden/portalen/internal/google"
	"github.com/aliceryden/portalen/internal/logging"
	"github.com/aliceryden/portalen/internal/metrics"
	"github.com/aliceryden/portalen/internal/models"
	"github.com/aliceryden/portalen/internal/notify"
	"github.com/aliceryden/portalen/internal/repository"
	"github.com/aliceryden/portalen/internal/service"
	"github.com/aliceryden/portalen/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}

	graph, err := loadAreas(cfg, &logger)
	if err != nil {
		return err
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := database.NewDB(cfg.Database.Path, &logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	redisClient := initRedis(ctx, cfg, &logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}
	cache := initAvailabilityCache(redisClient, &logger)

	calendarService := initGoogleCalendar(ctx, cfg, &logger)

	var syncWorker domain.SyncWorker
	if calendarService != nil {
		calendarWorker := worker.NewCalendarWorker(db, calendarService, redisClient, worker.DefaultRetryPolicy(), &logger)
		go calendarWorker.Start(ctx)
		syncWorker = calendarWorker
	}

	notifier := initNotifier(cfg, &logger)

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	bookingService := service.NewBookingService(
		db, eventBus, syncWorker, cache, notifier,
		cfg.Booking.DefaultTravelFee, cfg.Booking.MaxAdvanceDays, &logger,
	)
	availabilityService := service.NewAvailabilityService(db, graph, cache, &logger)
	searchService := service.NewSearchService(db, &logger)
	exporter := export.NewRouteSheetExporter(cfg.Exports.Path, &logger)

	httpServer := api.NewHTTPServer(
		&cfg.API, db, bookingService, availabilityService, searchService,
		exporter, graph, &logger,
	)

	startMetrics(ctx, cfg, &logger)

	return startServer(ctx, httpServer, cfg, &logger)
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, logger, closer, nil
}

func loadAreas(cfg *config.Config, logger *zerolog.Logger) (*geo.Graph, error) {
	areasPath := os.Getenv("AREAS_PATH")
	if areasPath == "" {
		areasPath = cfg.Areas.Path
	}

	areaConfig, err := geo.LoadFile(areasPath)
	if err != nil {
		logger.Error().Err(err).Str("areas_path", areasPath).Msg("load areas")
		return nil, err
	}

	graph := geo.NewGraph(areaConfig)
	logger.Info().Int("areas", len(areaConfig.Areas)).Msg("area graph loaded")
	return graph, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("create database directory")
		return err
	}
	if cfg.Exports.Path != "" {
		if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
			logger.Error().Err(err).Msg("create exports directory")
			return err
		}
	}
	return nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

// initAvailabilityCache builds the day snapshot cache: redis primary with
// in-memory fallback, or memory only when redis is not configured.
func initAvailabilityCache(redisClient *redis.Client, logger *zerolog.Logger) domain.AvailabilityCache {
	ttl := time.Duration(models.AvailabilityCacheTTL) * time.Second
	memory := repository.NewMemoryAvailabilityCache(ttl)
	if redisClient == nil {
		return memory
	}
	primary := repository.NewRedisAvailabilityCache(redisClient, ttl)
	return repository.NewFailoverAvailabilityCache(primary, memory, logger)
}

func initGoogleCalendar(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.CalendarService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.CalendarID == "" {
		return nil
	}

	calendarService, err := google.NewCalendarService(cfg.Google.CredentialsFile, cfg.Google.CalendarID)
	if err != nil {
		logger.Warn().Err(err).Msg("google calendar init failed, continuing without calendar sync")
		return nil
	}

	if err := calendarService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("google calendar connection test failed")
		return nil
	}

	logger.Info().Msg("google calendar connected")
	return calendarService
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Warn().Err(err).Msg("telegram init failed, continuing without notifications")
		return nil
	}
	botAPI.Debug = cfg.Telegram.Debug

	logger.Info().Str("bot", botAPI.Self.UserName).Msg("telegram connected")
	return notify.NewTelegramNotifier(botAPI, logger)
}

func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	lifecycle := []string{
		events.EventBookingCreated,
		events.EventBookingConfirmed,
		events.EventBookingStarted,
		events.EventBookingCompleted,
		events.EventBookingCancelled,
	}

	for _, eventType := range lifecycle {
		bus.Subscribe(eventType, func(ev *events.Event) error {
			var payload events.BookingEventPayload
			if err := json.Unmarshal(ev.Payload, &payload); err != nil {
				logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
				return nil
			}
			logger.Info().
				Str("event", ev.Type).
				Int64("booking_id", payload.BookingID).
				Int64("farrier_id", payload.FarrierID).
				Str("status", payload.Status).
				Str("actor", payload.ActorRole).
				Msg("booking event")
			return nil
		})
	}
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}

func startServer(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("api server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http server shutdown")
	}

	logger.Info().Msg("api server stopped")
	return nil
}
