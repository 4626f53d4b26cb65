package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/api"
	"github.com/pnpbots/pnptv-app-sub003/internal/bot"
	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/daily"
	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/events"
	"github.com/pnpbots/pnptv-app-sub003/internal/logging"
	"github.com/pnpbots/pnptv-app-sub003/internal/metrics"
	"github.com/pnpbots/pnptv-app-sub003/internal/models"
	"github.com/pnpbots/pnptv-app-sub003/internal/payments"
	"github.com/pnpbots/pnptv-app-sub003/internal/repository"
	"github.com/pnpbots/pnptv-app-sub003/internal/service"
	"github.com/pnpbots/pnptv-app-sub003/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, seed, logger, closer, loadErr := loadConfigAndLogger()
	if loadErr != nil {
		return loadErr
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, seed, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.Register()

	redisClient, stateService := initStateService(ctx, cfg, &logger)

	paymentRouter := initPayments(cfg, &logger)
	roomClient := daily.NewClient(cfg.Daily, &logger)

	refundWorker := worker.NewRefundWorker(db, paymentRouter, redisClient, worker.RetryPolicy{}, &logger)
	go refundWorker.Start(ctx)

	eventBus := events.NewEventBus()
	subscribeBookingEvents(eventBus, &logger)

	bookingService := service.NewBookingService(
		db, eventBus, paymentRouter, roomClient, refundWorker,
		cfg.Booking.HoldTTLMinutes, cfg.Booking.MaxDaysAhead, cfg.Payments.Currency, &logger,
	)
	userService := service.NewUserService(db, cfg, &logger)
	performerService := service.NewPerformerService(db, &logger)
	listingService := service.NewListingService(db, eventBus, &logger)
	venueService := service.NewVenueService(db, float64(cfg.Booking.NearbyRadiusKM), cfg.Booking.NearbyLimit, &logger)
	streamService := service.NewStreamService(db, roomClient, eventBus, &logger)

	startAvailability(ctx, cfg, db, &logger)

	if cfg.Webhooks.Enabled {
		webhookServer := api.NewWebhookServer(cfg.Webhooks, bookingService, &logger)
		go func() {
			if err := webhookServer.Start(); err != nil {
				logger.Error().Err(err).Msg("Webhook server error")
			}
		}()
		defer func() {
			_ = webhookServer.Shutdown(context.Background())
		}()
	}

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, &logger)
		go backupService.Start(ctx)
	}

	return startBot(
		ctx, cfg, db, stateService, eventBus, bookingService,
		userService, performerService, listingService, venueService, streamService, &logger,
	)
}

// seedData is the operator-maintained catalog loaded at startup.
// Rates are strings in YAML and parsed to decimals on load.
type seedData struct {
	Performers []performerSeed `yaml:"performers"`
	Venues     []models.Venue  `yaml:"venues"`
}

type performerSeed struct {
	UserID    int64  `yaml:"user_id"`
	StageName string `yaml:"stage_name"`
	Bio       string `yaml:"bio"`
	Rate30    string `yaml:"rate_30"`
	Rate60    string `yaml:"rate_60"`
	Rate90    string `yaml:"rate_90"`
	Workdays  []int  `yaml:"workdays"`
	HourFrom  int    `yaml:"hour_from"`
	HourTo    int    `yaml:"hour_to"`
	IsActive  bool   `yaml:"is_active"`
}

func (s performerSeed) toModel() (models.Performer, error) {
	rate30, err := decimal.NewFromString(s.Rate30)
	if err != nil {
		return models.Performer{}, fmt.Errorf("performer %q rate_30: %w", s.StageName, err)
	}
	rate60, err := decimal.NewFromString(s.Rate60)
	if err != nil {
		return models.Performer{}, fmt.Errorf("performer %q rate_60: %w", s.StageName, err)
	}
	rate90, err := decimal.NewFromString(s.Rate90)
	if err != nil {
		return models.Performer{}, fmt.Errorf("performer %q rate_90: %w", s.StageName, err)
	}
	return models.Performer{
		UserID:    s.UserID,
		StageName: s.StageName,
		Bio:       s.Bio,
		Rate30:    rate30,
		Rate60:    rate60,
		Rate90:    rate90,
		Workdays:  s.Workdays,
		HourFrom:  s.HourFrom,
		HourTo:    s.HourTo,
		IsActive:  s.IsActive,
	}, nil
}

func loadConfigAndLogger() (*config.Config, *seedData, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/seed.yaml"
	}
	seedBytes, err := os.ReadFile(seedPath)
	if err != nil {
		logger.Error().Err(err).Msgf("Error reading %s", seedPath)
		return nil, nil, zerolog.Logger{}, closer, err
	}

	var seed seedData
	if err := yaml.Unmarshal(seedBytes, &seed); err != nil {
		logger.Error().Err(err).Msg("Error parsing seed.yaml")
		return nil, nil, zerolog.Logger{}, closer, err
	}

	return cfg, &seed, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Error creating database directory")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Error creating exports directory")
		return err
	}
	return nil
}

func initDatabase(cfg *config.Config, seed *seedData, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Error initializing database")
		return nil, err
	}

	ctx := context.Background()
	performers := make([]models.Performer, 0, len(seed.Performers))
	for _, ps := range seed.Performers {
		p, err := ps.toModel()
		if err != nil {
			logger.Error().Err(err).Msg("Invalid performer seed")
			return nil, err
		}
		performers = append(performers, p)
	}
	if err := db.SyncPerformers(ctx, performers); err != nil {
		logger.Error().Err(err).Msg("Error syncing performers")
	}
	if err := db.SyncVenues(ctx, seed.Venues); err != nil {
		logger.Error().Err(err).Msg("Error syncing venues")
	}
	return db, nil
}

func initStateService(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, *service.StateService) {
	var redisClient *redis.Client
	if cfg.Redis.Address != "" {
		redisClient = repository.NewRedisClient(cfg.Redis)
		if errPing := repository.Ping(ctx, redisClient); errPing != nil {
			logger.Warn().Err(errPing).Msg("Redis unavailable")
		}
	}

	primaryRepo := repository.NewRedisStateRepository(redisClient, time.Duration(models.DefaultRedisTTL)*time.Second)
	fallbackRepo := repository.NewMemoryStateRepository(time.Duration(models.DefaultRedisTTL) * time.Second)
	stateRepo := repository.NewFailoverStateRepository(primaryRepo, fallbackRepo, logger)
	return redisClient, service.NewStateService(stateRepo, logger)
}

func initPayments(cfg *config.Config, logger *zerolog.Logger) *payments.Router {
	router := payments.NewRouter()
	router.Register(models.PaymentMethodCard, payments.NewEpaycoClient(cfg.Payments.Epayco, logger))
	router.Register(models.PaymentMethodCrypto, payments.NewDaimoClient(cfg.Payments.Daimo, logger))
	return router
}

// startAvailability generates slots ahead and keeps sweeping lapsed
// holds back to open.
func startAvailability(ctx context.Context, cfg *config.Config, db *database.DB, logger *zerolog.Logger) {
	availability := service.NewAvailabilityService(db, cfg.Booking.GenerateDaysAhead, logger)

	if created, err := availability.GenerateSlots(ctx, time.Now()); err != nil {
		logger.Error().Err(err).Msg("Initial slot generation failed")
	} else {
		logger.Info().Int("slots", created).Msg("Slot schedule generated")
	}

	// Refresh the schedule twice a day so the horizon keeps moving.
	go func() {
		ticker := time.NewTicker(12 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := availability.GenerateSlots(ctx, time.Now()); err != nil {
					logger.Error().Err(err).Msg("Slot generation failed")
				}
			}
		}
	}()

	sweepInterval := time.Duration(cfg.Booking.SlotSweepSeconds) * time.Second
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	go availability.RunSweeper(ctx, sweepInterval)
}

func startBot(
	ctx context.Context,
	cfg *config.Config,
	db *database.DB,
	stateService *service.StateService,
	eventBus *events.EventBus,
	bookingService *service.BookingService,
	userService *service.UserService,
	performerService *service.PerformerService,
	listingService *service.ListingService,
	venueService *service.VenueService,
	streamService *service.StreamService,
	logger *zerolog.Logger,
) error {
	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Set the bot token in config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	botWrapper := bot.NewBotWrapper(botAPI)
	tgService := service.NewTelegramService(botWrapper)

	telegramBot, err := bot.NewBot(
		tgService, cfg, db, stateService, eventBus, bookingService,
		userService, performerService, listingService, venueService, streamService, logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Error creating bot")
		return err
	}

	logger.Info().Msg("Bot started...")
	telegramBot.StartReminders(ctx)
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

// subscribeBookingEvents keeps an audit trail of every lifecycle event.
func subscribeBookingEvents(bus *events.EventBus, logger *zerolog.Logger) {
	if bus == nil {
		return
	}

	audit := func(ev *events.Event) error {
		var payload events.BookingEventPayload
		if err := json.Unmarshal(ev.Payload, &payload); err != nil {
			logger.Error().Err(err).Str("event", ev.Type).Msg("event bus: decode payload")
			return nil
		}
		logger.Info().
			Str("event", ev.Type).
			Int64("booking_id", payload.BookingID).
			Int64("caller_id", payload.CallerID).
			Int64("performer_id", payload.PerformerID).
			Str("status", payload.Status).
			Msg("booking event")
		return nil
	}

	bus.Subscribe(events.EventBookingHeld, audit)
	bus.Subscribe(events.EventBookingConfirmed, audit)
	bus.Subscribe(events.EventBookingCancelled, audit)
	bus.Subscribe(events.EventBookingRescheduled, audit)
	bus.Subscribe(events.EventBookingCompleted, audit)
	bus.Subscribe(events.EventCallStarted, audit)
}
