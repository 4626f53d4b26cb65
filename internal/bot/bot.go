package bot

import (
	"context"
	"os"
	"time"

	"github.com/pnpbots/pnptv-app-sub003/internal/config"
	"github.com/pnpbots/pnptv-app-sub003/internal/database"
	"github.com/pnpbots/pnptv-app-sub003/internal/domain"
	"github.com/pnpbots/pnptv-app-sub003/internal/events"
	"github.com/pnpbots/pnptv-app-sub003/internal/metrics"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Bot struct {
	tgService        domain.TelegramService
	config           *config.Config
	db               *database.DB
	stateService     domain.StateManager
	eventBus         domain.EventPublisher
	bookingService   domain.BookingOrchestrator
	userService      domain.UserService
	performerService domain.PerformerService
	listingService   domain.ListingService
	venueService     domain.VenueService
	streamService    domain.StreamService
	logger           *zerolog.Logger
}

func NewBot(
	tgService domain.TelegramService,
	cfg *config.Config,
	db *database.DB,
	stateService domain.StateManager,
	eventBus domain.EventPublisher,
	bookingService domain.BookingOrchestrator,
	userService domain.UserService,
	performerService domain.PerformerService,
	listingService domain.ListingService,
	venueService domain.VenueService,
	streamService domain.StreamService,
	logger *zerolog.Logger,
) (*Bot, error) {
	if eventBus == nil {
		eventBus = events.NewEventBus()
	}

	if logger == nil {
		l := zerolog.New(os.Stdout).With().Timestamp().Logger()
		logger = &l
	}

	return &Bot{
		tgService:        tgService,
		config:           cfg,
		db:               db,
		stateService:     stateService,
		eventBus:         eventBus,
		bookingService:   bookingService,
		userService:      userService,
		performerService: performerService,
		listingService:   listingService,
		venueService:     venueService,
		streamService:    streamService,
		logger:           logger,
	}, nil
}

const (
	StateMainMenu            = "main_menu"
	StateAwaitRescheduleDate = "await_reschedule_date"
	StateAwaitStreamTitle    = "await_stream_title"
	StateAwaitRejectReason   = "await_reject_reason"
	StateAwaitBroadcast      = "await_broadcast"
	StateListingName         = "listing_name"
	StateListingDescription  = "listing_description"
	StateListingCity         = "listing_city"
	StateListingCategory     = "listing_category"
	StateListingPhone        = "listing_phone"
	StateListingWebsite      = "listing_website"
)

func (b *Bot) Start(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.tgService.GetUpdatesChan(u)

	b.logger.Info().Str("username", b.tgService.GetSelf().UserName).Msg("Authorized on account")

	for {
		select {
		case <-ctx.Done():
			b.logger.Info().Msg("Bot stopping...")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.processUpdate(ctx, update)
		}
	}
}

func (b *Bot) processUpdate(ctx context.Context, update tgbotapi.Update) {
	updateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	requestID := uuid.New().String()
	l := b.logger.With().Str("request_id", requestID).Logger()
	updateCtx = l.WithContext(updateCtx)

	b.withRecovery(func() {
		var userID int64
		switch {
		case update.Message != nil:
			userID = update.Message.From.ID
			metrics.IncUpdate("message")
		case update.CallbackQuery != nil:
			userID = update.CallbackQuery.From.ID
			metrics.IncUpdate("callback")
		}

		if userID == 0 {
			return
		}

		if b.isBlacklisted(userID) {
			return
		}

		b.trackActivity(userID)

		if !b.isAdmin(userID) {
			allowed, err := b.stateService.CheckRateLimit(updateCtx, userID, b.config.Bot.RateLimitMessages, time.Duration(b.config.Bot.RateLimitWindow)*time.Second)
			if err != nil {
				b.logger.Error().Err(err).Int64("user_id", userID).Msg("Rate limit check failed")
			} else if !allowed {
				b.logger.Warn().Int64("user_id", userID).Msg("Rate limit exceeded")
				if update.Message != nil {
					b.sendMessage(update.Message.Chat.ID, "⚠️ You are sending messages too fast. Please wait a moment.")
				}
				return
			}
		}

		if update.CallbackQuery != nil {
			b.handleCallbackQuery(updateCtx, update)
			return
		}

		if update.Message == nil {
			return
		}

		b.handleMessage(updateCtx, update)
	})
}

// Stop stops receiving Telegram updates (best-effort).
func (b *Bot) Stop() {
	if b == nil || b.tgService == nil {
		return
	}
	b.tgService.StopReceivingUpdates()
}
