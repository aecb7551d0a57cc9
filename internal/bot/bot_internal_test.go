package bot

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/telebot.v4"
)

// fakeContext records what handlers send. Methods that are not overridden panic.
type fakeContext struct {
	telebot.Context

	sender    *telebot.User
	text      string
	args      []string
	callback  *telebot.Callback
	sent      []string
	options   [][]any
	responses []*telebot.CallbackResponse
}

func (c *fakeContext) Sender() *telebot.User       { return c.sender }
func (c *fakeContext) Text() string                { return c.text }
func (c *fakeContext) Args() []string              { return c.args }
func (c *fakeContext) Callback() *telebot.Callback { return c.callback }

func (c *fakeContext) Send(what any, opts ...any) error {
	c.sent = append(c.sent, fmt.Sprint(what))
	c.options = append(c.options, opts)
	return nil
}

func (c *fakeContext) Respond(resp ...*telebot.CallbackResponse) error {
	c.responses = append(c.responses, resp...)
	return nil
}

func (c *fakeContext) last() string {
	if len(c.sent) == 0 {
		return ""
	}
	return c.sent[len(c.sent)-1]
}

type fakeTracker struct {
	mu      sync.Mutex
	parcels map[string]models.Parcel
	err     error
	calls   int
}

func (f *fakeTracker) Lookup(_ context.Context, _, code string) (models.Parcel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++

	if f.err != nil {
		return models.Parcel{}, f.err
	}
	if code == "" {
		return models.Parcel{}, models.ErrValidation
	}
	parcel, ok := f.parcels[code]
	if !ok {
		return models.Parcel{}, models.ErrNotFound
	}
	return parcel, nil
}

type memoryCache struct {
	mu     sync.Mutex
	values map[string][]byte
	getErr error
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	value, ok := c.values[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return value, nil
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.values[key] = value
	return nil
}

func demoParcel() models.Parcel {
	owner := "john@example.com"
	date := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	return models.Parcel{
		ID:           1,
		Tracking:     "LT-2024-001234",
		Sender:       "John Smith",
		OwnerEmail:   &owner,
		Recipient:    "Jane Doe",
		DeliveryType: models.DeliveryAddress,
		Weight:       2.5,
		Price:        15.99,
		Status:       models.StatusInTransit,
		History: []models.HistoryEntry{
			{Date: date, Status: models.StatusRegistered, By: "m.roberts@logitrack.com"},
			{Date: date.Add(time.Hour), Status: models.StatusInTransit},
		},
	}
}

func newTestBot(t *testing.T, tracker Tracker, cache Cache) (*Bot, *metrics.Metrics) {
	t.Helper()

	api, err := telebot.NewBot(telebot.Settings{Offline: true})
	require.NoError(t, err)

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	b, err := newBot(logger, api, tracker, cache, appMetrics, nil)
	require.NoError(t, err)

	return b, appMetrics
}

func newTracker() *fakeTracker {
	return &fakeTracker{parcels: map[string]models.Parcel{"LT-2024-001234": demoParcel()}}
}

func TestTrackHandler(t *testing.T) {
	t.Parallel()

	t.Run("success - parcel found", func(t *testing.T) {
		t.Parallel()
		b, appMetrics := newTestBot(t, newTracker(), nil)
		ctx := &fakeContext{sender: &telebot.User{ID: 1}, args: []string{"LT-2024-001234"}}

		require.NoError(t, b.trackHandler(ctx))

		msg := ctx.last()
		assert.Contains(t, msg, "📦 Parcel LT-2024-001234")
		assert.Contains(t, msg, "Status: In transit")
		assert.Contains(t, msg, "From John Smith to Jane Doe")
		assert.Contains(t, msg, "Delivery: to an address")
		assert.Contains(t, msg, "Weight: 2.5 kg")
		assert.Contains(t, msg, "• 2024-05-01 12:00  Registered")
		assert.NotContains(t, msg, "john@example.com")
		assert.NotContains(t, msg, "m.roberts@logitrack.com")
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.CommandReceived.WithLabelValues("track")), 0)
	})

	t.Run("success - prompt without code", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t, newTracker(), nil)
		ctx := &fakeContext{sender: &telebot.User{ID: 1}}

		require.NoError(t, b.trackHandler(ctx))

		assert.Equal(t, "Please enter tracking number.", ctx.last())
	})

	t.Run("error - unknown code", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t, newTracker(), nil)
		ctx := &fakeContext{sender: &telebot.User{ID: 1}, args: []string{"LT-0000"}}

		require.NoError(t, b.trackHandler(ctx))

		assert.Equal(t, "No parcel found with this tracking number.", ctx.last())
	})

	t.Run("error - tracker failure", func(t *testing.T) {
		t.Parallel()
		b, appMetrics := newTestBot(t, &fakeTracker{err: assert.AnError}, nil)
		ctx := &fakeContext{sender: &telebot.User{ID: 1}, args: []string{"LT-1"}}

		require.NoError(t, b.trackHandler(ctx))

		assert.Equal(t, "🚫 Internal server error, please try again later.", ctx.last())
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.SentMessages.WithLabelValues("error")), 0)
	})
}

func TestFormatParcel_Location(t *testing.T) {
	t.Parallel()

	api, err := telebot.NewBot(telebot.Settings{Offline: true})
	require.NoError(t, err)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	b, err := newBot(logger, api, newTracker(), nil, appMetrics, time.FixedZone("EEST", 3*60*60))
	require.NoError(t, err)

	msg := b.formatParcel("en", demoParcel())

	assert.Contains(t, msg, "• 2024-05-01 15:00  Registered")
	assert.Contains(t, msg, "2024-05-01 16:00")
	assert.NotContains(t, msg, "2024-05-01 12:00")
}

func TestTextHandler(t *testing.T) {
	t.Parallel()

	t.Run("track button asks for a code in any language", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t, newTracker(), nil)

		ctx := &fakeContext{sender: &telebot.User{ID: 1}, text: "🔎 Проследи пратка"}
		require.NoError(t, b.textHandler(ctx))

		assert.Equal(t, "Please enter tracking number.", ctx.last())
	})

	t.Run("plain text is looked up", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t, newTracker(), nil)

		ctx := &fakeContext{sender: &telebot.User{ID: 1, LanguageCode: "bg"}, text: "  LT-2024-001234  "}
		require.NoError(t, b.textHandler(ctx))

		assert.Contains(t, ctx.last(), "Пратка LT-2024-001234")
		assert.Contains(t, ctx.last(), "Статус: В транзит")
	})

	t.Run("help button", func(t *testing.T) {
		t.Parallel()
		b, appMetrics := newTestBot(t, newTracker(), nil)

		ctx := &fakeContext{sender: &telebot.User{ID: 1}, text: "❓ Help"}
		require.NoError(t, b.textHandler(ctx))

		assert.Contains(t, ctx.last(), "/track <number>")
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.CommandReceived.WithLabelValues("help")), 0)
	})
}

func TestLookupCache(t *testing.T) {
	t.Parallel()

	t.Run("second lookup is served from cache", func(t *testing.T) {
		t.Parallel()
		tracker := newTracker()
		cache := &memoryCache{values: make(map[string][]byte)}
		b, appMetrics := newTestBot(t, tracker, cache)

		first, err := b.lookup(t.Context(), "LT-2024-001234")
		require.NoError(t, err)
		second, err := b.lookup(t.Context(), "LT-2024-001234")
		require.NoError(t, err)

		assert.Equal(t, 1, tracker.calls)
		assert.Equal(t, first.Tracking, second.Tracking)
		assert.Len(t, second.History, 2)
		assert.InDelta(t, 2.5, second.Weight.Kg(), 1e-9)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.CacheOps.WithLabelValues("get", "miss")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.CacheOps.WithLabelValues("set", "success")), 0)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.CacheOps.WithLabelValues("get", "hit")), 0)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		t.Parallel()
		tracker := newTracker()
		cache := &memoryCache{values: make(map[string][]byte)}
		b, _ := newTestBot(t, tracker, cache)

		_, err := b.lookup(t.Context(), "LT-0000")
		require.ErrorIs(t, err, models.ErrNotFound)

		assert.Empty(t, cache.values)
	})

	t.Run("cache failure falls back to tracker", func(t *testing.T) {
		t.Parallel()
		tracker := newTracker()
		cache := &memoryCache{values: make(map[string][]byte), getErr: assert.AnError}
		b, appMetrics := newTestBot(t, tracker, cache)

		parcel, err := b.lookup(t.Context(), "LT-2024-001234")

		require.NoError(t, err)
		assert.Equal(t, "LT-2024-001234", parcel.Tracking)
		assert.InDelta(t, 1, testutil.ToFloat64(appMetrics.CacheOps.WithLabelValues("get", "error")), 0)
	})
}

func TestLanguageChangeHandler(t *testing.T) {
	t.Parallel()

	t.Run("success - switch to bulgarian", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t, newTracker(), nil)
		user := &telebot.User{ID: 7, LanguageCode: "en"}

		ctx := &fakeContext{sender: user, callback: &telebot.Callback{Unique: "language_bg"}}
		require.NoError(t, b.languageChangeHandler(ctx))

		assert.Equal(t, "✅ Езикът е сменен на български.", ctx.last())
		require.Len(t, ctx.responses, 1)

		start := &fakeContext{sender: user}
		require.NoError(t, b.startHandler(start))
		assert.Contains(t, start.last(), "Добре дошли в LogiTrack!")
	})

	t.Run("error - unknown language", func(t *testing.T) {
		t.Parallel()
		b, _ := newTestBot(t, newTracker(), nil)

		ctx := &fakeContext{sender: &telebot.User{ID: 7}, callback: &telebot.Callback{Unique: "language_xx"}}
		require.NoError(t, b.languageChangeHandler(ctx))

		require.Len(t, ctx.responses, 1)
		assert.Equal(t, "Unknown language", ctx.responses[0].Text)
		assert.Empty(t, ctx.sent)

		_, ok := b.stateManager.Language(7)
		assert.False(t, ok)
	})
}

func TestLanguageHandler(t *testing.T) {
	t.Parallel()
	b, _ := newTestBot(t, newTracker(), nil)

	ctx := &fakeContext{sender: &telebot.User{ID: 3}}
	require.NoError(t, b.languageHandler(ctx))

	assert.Equal(t, "Choose your language:", ctx.last())
	require.Len(t, ctx.options[0], 1)
	menu, ok := ctx.options[0][0].(*telebot.ReplyMarkup)
	require.True(t, ok)
	require.Len(t, menu.InlineKeyboard, 2)
	assert.Equal(t, "language_bg", menu.InlineKeyboard[1][0].Unique)
}
