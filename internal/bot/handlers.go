package bot

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/tracking"
	"gopkg.in/telebot.v4"
)

const (
	cacheKeyPrefix = "logitrack:track:"
	cacheTTL       = time.Minute
	requestTimeout = 3 * time.Second
	dateLayout     = "2006-01-02 15:04"
)

// startHandler process command /start.
func (b *Bot) startHandler(ctx telebot.Context) error {
	b.log.Info("User started the bot", "id", ctx.Sender().ID, "username", ctx.Sender().Username)
	b.metrics.CommandReceived.WithLabelValues("start").Inc()

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "welcome"), b.buildMainMenu(ctx))
}

func (b *Bot) helpHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("help").Inc()

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "help"), b.buildMainMenu(ctx))
}

// trackHandler processes /track <code>. Without a code it asks for one.
func (b *Bot) trackHandler(ctx telebot.Context) error {
	b.metrics.CommandReceived.WithLabelValues("track").Inc()

	args := ctx.Args()
	if len(args) == 0 {
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.t(ctx, "track.prompt"))
	}

	return b.replyWithParcel(ctx, args[0])
}

// textHandler routes menu buttons and treats any other text as a tracking code.
func (b *Bot) textHandler(ctx telebot.Context) error {
	text := strings.TrimSpace(ctx.Text())

	switch {
	case b.isButton(text, "menu.track"):
		b.metrics.CommandReceived.WithLabelValues("track").Inc()
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.t(ctx, "track.prompt"))
	case b.isButton(text, "menu.language"):
		return b.languageHandler(ctx)
	case b.isButton(text, "menu.help"):
		return b.helpHandler(ctx)
	}

	b.metrics.CommandReceived.WithLabelValues("text").Inc()
	return b.replyWithParcel(ctx, text)
}

func (b *Bot) unknownHandler(ctx telebot.Context) error {
	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.t(ctx, "error.unknown"))
}

func (b *Bot) replyWithParcel(ctx telebot.Context, code string) error {
	timeoutCtx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	parcel, err := b.lookup(timeoutCtx, code)
	switch {
	case errors.Is(err, models.ErrValidation):
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.t(ctx, "track.prompt"))
	case errors.Is(err, models.ErrNotFound):
		b.log.InfoContext(timeoutCtx, "Parcel not found", "user", ctx.Sender().ID, "tracking", code)
		b.metrics.SentMessages.WithLabelValues("text").Inc()
		return ctx.Send(b.t(ctx, "track.not_found"))
	case err != nil:
		b.log.ErrorContext(timeoutCtx, "Failed to look up parcel", "tracking", code, "error", err)
		b.metrics.SentMessages.WithLabelValues("error").Inc()
		return ctx.Send(b.t(ctx, "error.internal"))
	}

	b.metrics.SentMessages.WithLabelValues("text").Inc()
	return ctx.Send(b.formatParcel(b.language(ctx), parcel))
}

// lookup consults the cache before the tracking service and caches hits.
func (b *Bot) lookup(ctx context.Context, code string) (models.Parcel, error) {
	code = strings.TrimSpace(code)
	if b.cache == nil || code == "" {
		return b.tracker.Lookup(ctx, tracking.SourceBot, code)
	}

	cacheKey := cacheKeyPrefix + code
	cached, err := b.cache.Get(ctx, cacheKey)
	switch {
	case err == nil:
		var parcel models.Parcel
		if json.Unmarshal(cached, &parcel) == nil {
			b.metrics.CacheOps.WithLabelValues("get", "hit").Inc()
			return parcel, nil
		}
		b.metrics.CacheOps.WithLabelValues("get", "error").Inc()
	case errors.Is(err, ErrCacheMiss):
		b.metrics.CacheOps.WithLabelValues("get", "miss").Inc()
	default:
		b.log.WarnContext(ctx, "Failed to read tracking cache", "key", cacheKey, "error", err)
		b.metrics.CacheOps.WithLabelValues("get", "error").Inc()
	}

	parcel, err := b.tracker.Lookup(ctx, tracking.SourceBot, code)
	if err != nil {
		return models.Parcel{}, err
	}

	data, err := json.Marshal(parcel)
	if err != nil {
		b.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		b.log.ErrorContext(ctx, "Failed to marshal parcel for caching", "error", err)
		return parcel, nil
	}
	if err = b.cache.Set(ctx, cacheKey, data, cacheTTL); err != nil {
		b.metrics.CacheOps.WithLabelValues("set", "error").Inc()
		b.log.WarnContext(ctx, "Failed to save parcel to cache", "key", cacheKey, "error", err)
		return parcel, nil
	}
	b.metrics.CacheOps.WithLabelValues("set", "success").Inc()

	return parcel, nil
}

// formatParcel renders the public view of a parcel. Owner and staff emails are left out.
func (b *Bot) formatParcel(lang string, parcel models.Parcel) string {
	get := func(key string, data map[string]any) string {
		return b.localizer.GetWithData(lang, key, data)
	}

	lines := []string{
		get("track.header", map[string]any{"tracking": parcel.Tracking}),
		get("track.status", map[string]any{"status": b.localizer.Get(lang, "status."+string(parcel.Status))}),
		get("track.route", map[string]any{"sender": parcel.Sender, "recipient": parcel.Recipient}),
		get("track.delivery", map[string]any{
			"delivery": b.localizer.Get(lang, "delivery."+string(parcel.DeliveryType)),
		}),
		get("track.weight", map[string]any{"weight": parcel.Weight.String()}),
	}

	if len(parcel.History) > 0 {
		lines = append(lines, "", b.localizer.Get(lang, "track.history"))
		for _, entry := range parcel.History {
			lines = append(lines, get("track.event", map[string]any{
				"date":   entry.Date.In(b.loc).Format(dateLayout),
				"status": b.localizer.Get(lang, "status."+string(entry.Status)),
			}))
		}
	}

	return strings.Join(lines, "\n")
}
