package parcels_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Houeta/logitrack/internal/idgen"
	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/parcels"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/Houeta/logitrack/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "plain:" + password, nil }

var (
	admin    = &session.Actor{ID: 1, Email: repository.AdminEmail, Role: models.RoleAdmin}
	employee = &session.Actor{ID: 2, Email: "s.chen@logitrack.com", Role: models.RoleEmployee}
	john     = &session.Actor{ID: 3, Email: "john@example.com", Role: models.RoleClient}
)

type fixture struct {
	svc     *parcels.Service
	repo    *repository.Repository
	metrics *metrics.Metrics
	now     time.Time
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	now := time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC)
	repo := repository.NewRepository(repository.NewMemoryStore())
	require.NoError(t, repo.SeedDemoData(t.Context(), plainHasher{}, now.Add(-24*time.Hour)))

	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())
	svc := parcels.NewService(
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		repo,
		idgen.NewWithClock(func() time.Time { return now }),
		appMetrics,
	).WithClock(func() time.Time { return now })

	return fixture{svc: svc, repo: repo, metrics: appMetrics, now: now}
}

func lt1() parcels.Input {
	return parcels.Input{
		Tracking:     "LT-1",
		Sender:       "A",
		Recipient:    "B",
		DeliveryType: models.DeliveryAddress,
		Weight:       "3",
	}
}

func TestService_Create(t *testing.T) {
	t.Parallel()

	t.Run("success - registers with derived price and one history entry", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		parcel, err := fx.svc.Create(t.Context(), employee, lt1())

		require.NoError(t, err)
		assert.InDelta(t, 11.0, parcel.Price, 1e-9)
		assert.Equal(t, models.StatusRegistered, parcel.Status)
		require.Len(t, parcel.History, 1)
		assert.Equal(t, models.HistoryEntry{Date: fx.now, Status: models.StatusRegistered, By: employee.Email}, parcel.History[0])
		assert.Equal(t, employee.Email, parcel.RegisteredBy)
		require.NotNil(t, parcel.CreatedAt)
		assert.Equal(t, fx.now, *parcel.CreatedAt)
		assert.Nil(t, parcel.OwnerEmail)

		stored, err := fx.repo.GetParcels(t.Context())
		require.NoError(t, err)
		require.Len(t, stored, 3)
		assert.Equal(t, "LT-1", stored[2].Tracking)
		assert.InDelta(t, 1, testutil.ToFloat64(fx.metrics.Operations.WithLabelValues("parcel", "create", "success")), 0)
	})

	t.Run("success - status in input is ignored", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		in := lt1()
		in.Status = models.StatusDelivered
		in.OwnerEmail = " john@example.com "

		parcel, err := fx.svc.Create(t.Context(), admin, in)

		require.NoError(t, err)
		assert.Equal(t, models.StatusRegistered, parcel.Status)
		assert.Equal(t, "john@example.com", parcel.Owner())
	})

	invalid := []struct {
		name   string
		mutate func(*parcels.Input)
	}{
		{name: "error - missing tracking", mutate: func(in *parcels.Input) { in.Tracking = " " }},
		{name: "error - missing sender", mutate: func(in *parcels.Input) { in.Sender = "" }},
		{name: "error - missing recipient", mutate: func(in *parcels.Input) { in.Recipient = "" }},
		{name: "error - missing delivery type", mutate: func(in *parcels.Input) { in.DeliveryType = "" }},
		{name: "error - unknown delivery type", mutate: func(in *parcels.Input) { in.DeliveryType = "Drone" }},
		{name: "error - zero weight", mutate: func(in *parcels.Input) { in.Weight = "0" }},
		{name: "error - negative weight", mutate: func(in *parcels.Input) { in.Weight = "-1" }},
		{name: "error - non numeric weight", mutate: func(in *parcels.Input) { in.Weight = "heavy" }},
		{name: "error - unknown status", mutate: func(in *parcels.Input) { in.Status = "Lost" }},
	}

	for _, tt := range invalid {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fx := newFixture(t)
			in := lt1()
			tt.mutate(&in)

			_, err := fx.svc.Create(t.Context(), employee, in)

			require.ErrorIs(t, err, models.ErrValidation)
			stored, err := fx.repo.GetParcels(t.Context())
			require.NoError(t, err)
			assert.Len(t, stored, 2)
		})
	}

	t.Run("error - client cannot create", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Create(t.Context(), john, lt1())
		require.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("error - no session", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Create(t.Context(), nil, lt1())
		require.ErrorIs(t, err, models.ErrUnauthenticated)
	})

	t.Run("error - duplicate tracking code", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		in := lt1()
		in.Tracking = "LT-2024-001234"

		_, err := fx.svc.Create(t.Context(), employee, in)
		require.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestService_Update(t *testing.T) {
	t.Parallel()

	t.Run("success - status change appends history", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		created, err := fx.svc.Create(ctx, employee, lt1())
		require.NoError(t, err)

		in := lt1()
		in.Status = models.StatusDelivered
		updated, err := fx.svc.Update(ctx, employee, created.ID, in)

		require.NoError(t, err)
		require.Len(t, updated.History, 2)
		assert.Equal(t, models.StatusDelivered, updated.History[1].Status)
		assert.Equal(t, models.StatusDelivered, updated.Status)
	})

	t.Run("success - edit without status change keeps history", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		created, err := fx.svc.Create(ctx, employee, lt1())
		require.NoError(t, err)

		in := lt1()
		in.Weight = "4"
		in.Recipient = "C"
		in.Status = models.StatusRegistered
		updated, err := fx.svc.Update(ctx, admin, created.ID, in)

		require.NoError(t, err)
		assert.Len(t, updated.History, 1)
		assert.InDelta(t, 13.0, updated.Price, 1e-9)
		assert.Equal(t, "C", updated.Recipient)
		assert.Equal(t, employee.Email, updated.RegisteredBy, "provenance survives edits")

		in.Status = ""
		updated, err = fx.svc.Update(ctx, admin, created.ID, in)
		require.NoError(t, err)
		assert.Len(t, updated.History, 1)
		assert.Equal(t, models.StatusRegistered, updated.Status)
	})

	t.Run("error - validation leaves record untouched", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		in := lt1()
		in.Tracking = "LT-2024-001234"
		in.Weight = "abc"
		_, err := fx.svc.Update(ctx, admin, 1, in)
		require.ErrorIs(t, err, models.ErrValidation)

		stored, err := fx.repo.GetParcels(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Jane Doe", stored[0].Recipient)
	})

	t.Run("error - client cannot update", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Update(t.Context(), john, 1, lt1())
		require.ErrorIs(t, err, models.ErrForbidden)
	})

	t.Run("error - unknown id", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Update(t.Context(), admin, 404, lt1())
		require.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("error - tracking code taken by another parcel", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		in := lt1()
		in.Tracking = "LT-2024-001235"

		_, err := fx.svc.Update(t.Context(), admin, 1, in)
		require.ErrorIs(t, err, models.ErrConflict)
	})
}

func TestService_Delete(t *testing.T) {
	t.Parallel()

	t.Run("error - employee cannot delete", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		require.ErrorIs(t, fx.svc.Delete(t.Context(), employee, 1), models.ErrForbidden)
	})

	t.Run("success - admin deletes", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		require.NoError(t, fx.svc.Delete(ctx, admin, 1))
		require.ErrorIs(t, fx.svc.Delete(ctx, admin, 1), models.ErrNotFound)

		stored, err := fx.repo.GetParcels(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "LT-2024-001235", stored[0].Tracking)
	})
}

func TestService_Visibility(t *testing.T) {
	t.Parallel()

	t.Run("success - staff see everything", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		for _, actor := range []*session.Actor{admin, employee} {
			visible, err := fx.svc.Visible(t.Context(), actor, "")
			require.NoError(t, err)
			assert.Len(t, visible, 2)
		}
	})

	t.Run("success - client sees only owned parcels", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()
		viewer := &session.Actor{ID: 9, Email: "x@y.com", Role: models.RoleClient}

		owned := lt1()
		owned.OwnerEmail = "x@y.com"
		_, err := fx.svc.Create(ctx, employee, owned)
		require.NoError(t, err)

		visible, err := fx.svc.Visible(ctx, viewer, "")

		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "LT-1", visible[0].Tracking)
	})

	t.Run("success - no session sees nothing", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		visible, err := fx.svc.Visible(t.Context(), nil, "")
		require.NoError(t, err)
		assert.Empty(t, visible)
	})

	t.Run("success - search by recipient", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		visible, err := fx.svc.Visible(t.Context(), admin, "bob")
		require.NoError(t, err)
		require.Len(t, visible, 1)
		assert.Equal(t, "LT-2024-001235", visible[0].Tracking)
	})
}

func TestService_View(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := t.Context()

	parcel, err := fx.svc.View(ctx, john, 1)
	require.NoError(t, err)
	assert.Equal(t, "LT-2024-001234", parcel.Tracking)
	assert.NotEmpty(t, parcel.History)

	_, err = fx.svc.View(ctx, john, 2)
	require.ErrorIs(t, err, models.ErrForbidden)

	_, err = fx.svc.View(ctx, nil, 1)
	require.ErrorIs(t, err, models.ErrUnauthenticated)

	_, err = fx.svc.View(ctx, admin, 77)
	require.ErrorIs(t, err, models.ErrNotFound)
}

func TestService_Stats(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)

	stats, err := fx.svc.Stats(t.Context(), admin)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.StatusInTransit])
	assert.Equal(t, 1, stats.ByStatus[models.StatusDelivered])
	assert.Equal(t, 0, stats.ByStatus[models.StatusReturned])

	stats, err = fx.svc.Stats(t.Context(), john)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}
