package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Houeta/logitrack/internal/i18n"
	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"gopkg.in/telebot.v4"
)

// Tracker looks up parcels by tracking code.
type Tracker interface {
	Lookup(ctx context.Context, source, code string) (models.Parcel, error)
}

// Bot contains the bot API instance and other information.
type Bot struct {
	bot          *telebot.Bot
	log          *slog.Logger
	tracker      Tracker
	cache        Cache
	metrics      *metrics.Metrics
	stateManager *StateManager
	localizer    *i18n.Localizer
	loc          *time.Location // History dates are shown in this zone
}

// NewBot creates a new bot with the given token. A nil cache disables result caching.
func NewBot(
	log *slog.Logger,
	tracker Tracker,
	cache Cache,
	metrics *metrics.Metrics,
	loc *time.Location,
	token string,
	poller time.Duration,
) (*Bot, error) {
	api, err := telebot.NewBot(telebot.Settings{
		Token:  token,
		Poller: &telebot.LongPoller{Timeout: poller},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Telegram bot: %w", err)
	}
	log.Info("Authorized on account", "account", api.Me.Username)

	return newBot(log, api, tracker, cache, metrics, loc)
}

func newBot(
	log *slog.Logger,
	api *telebot.Bot,
	tracker Tracker,
	cache Cache,
	metrics *metrics.Metrics,
	loc *time.Location,
) (*Bot, error) {
	if loc == nil {
		loc = time.UTC
	}

	localizer, err := i18n.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize localizer: %w", err)
	}

	botInstance := &Bot{
		bot:          api,
		log:          log,
		tracker:      tracker,
		cache:        cache,
		metrics:      metrics,
		stateManager: NewStateManager(),
		localizer:    localizer,
		loc:          loc,
	}

	botInstance.registerRoutes()

	return botInstance, nil
}

// Start launches the bot to listen for updates. It blocks until Stop is called.
func (b *Bot) Start() {
	b.log.Info("Telegram bot is starting...")
	b.bot.Start()
}

// Stop gracefully stops the Telegram bot and logs the action.
func (b *Bot) Stop() {
	b.log.Info("Telegram bot is stopped...")
	b.bot.Stop()
}

// registerRoutes configures all routes (commands).
func (b *Bot) registerRoutes() {
	b.bot.Use(b.LoggingMiddleware)

	b.bot.Handle("/start", b.startHandler)
	b.bot.Handle("/help", b.helpHandler)
	b.bot.Handle("/track", b.trackHandler)
	b.bot.Handle("/language", b.languageHandler)
	b.bot.Handle(telebot.OnText, b.textHandler)
	b.bot.Handle(telebot.OnMedia, b.unknownHandler)

	// Language selection callbacks
	b.bot.Handle("\flanguage_en", b.languageChangeHandler)
	b.bot.Handle("\flanguage_bg", b.languageChangeHandler)
}

// language returns the user's chosen language, falling back to the Telegram client language.
func (b *Bot) language(tCtx telebot.Context) string {
	sender := tCtx.Sender()
	if sender == nil {
		return i18n.DefaultLanguage
	}

	if lang, ok := b.stateManager.Language(sender.ID); ok {
		return lang
	}

	return i18n.NormalizeLanguageCode(sender.LanguageCode)
}

// t is a shorthand method for getting translations.
func (b *Bot) t(tCtx telebot.Context, key string) string {
	return b.localizer.Get(b.language(tCtx), key)
}
