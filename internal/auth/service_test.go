package auth_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Houeta/logitrack/internal/auth"
	"github.com/Houeta/logitrack/internal/idgen"
	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fixture struct {
	svc     *auth.Service
	repo    *repository.Repository
	metrics *metrics.Metrics
	hasher  *auth.BcryptHasher
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := repository.NewRepository(repository.NewMemoryStore())
	hasher := auth.NewBcryptHasher(bcrypt.MinCost)
	appMetrics := metrics.NewMetrics(prometheus.NewRegistry())

	require.NoError(t, repo.SeedDemoData(t.Context(), hasher, time.Now()))

	svc := auth.NewService(
		logger,
		repo,
		hasher,
		auth.NewTokenIssuer([]byte("secret"), time.Hour),
		auth.NewMemoryBlacklist(),
		idgen.New(),
		appMetrics,
	)

	return fixture{svc: svc, repo: repo, metrics: appMetrics, hasher: hasher}
}

func TestService_Login(t *testing.T) {
	t.Parallel()

	t.Run("error - missing fields", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Login(t.Context(), " ", "admin123")
		require.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("error - unknown email", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Login(t.Context(), "nobody@logitrack.com", "admin123")

		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		require.ErrorIs(t, err, models.ErrUnauthenticated)
		assert.InDelta(t, 1, testutil.ToFloat64(fx.metrics.Logins.WithLabelValues("rejected")), 0)
	})

	t.Run("error - wrong password", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Login(t.Context(), repository.AdminEmail, "admin")
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)

		current, err := fx.repo.GetCurrentUser(t.Context())
		require.NoError(t, err)
		assert.Nil(t, current, "failed login must not move the session pointer")
	})

	t.Run("success - admin", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		result, err := fx.svc.Login(t.Context(), repository.AdminEmail, "admin123")

		require.NoError(t, err)
		assert.NotEmpty(t, result.Token)
		assert.Equal(t, models.RoleAdmin, result.User.Role)

		current, err := fx.repo.GetCurrentUser(t.Context())
		require.NoError(t, err)
		require.NotNil(t, current)
		assert.Equal(t, repository.AdminEmail, current.Email)
	})

	t.Run("success - legacy plaintext password is rehashed", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		users, err := fx.repo.GetUsers(ctx)
		require.NoError(t, err)
		users = append(users, models.User{ID: 99, Name: "Old", Email: "old@example.com", Password: "client123", Role: models.RoleClient})
		require.NoError(t, fx.repo.SaveUsers(ctx, users))

		_, err = fx.svc.Login(ctx, "old@example.com", "client123")
		require.NoError(t, err)

		users, err = fx.repo.GetUsers(ctx)
		require.NoError(t, err)
		stored := users[len(users)-1]
		assert.True(t, auth.IsHashed(stored.Password))

		_, err = fx.svc.Login(ctx, "old@example.com", "client123")
		require.NoError(t, err, "rehashed password must still log in")
	})
}

func TestService_Register(t *testing.T) {
	t.Parallel()

	t.Run("error - missing fields", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Register(t.Context(), auth.RegisterInput{Name: "Jane", Email: "jane@example.com"})
		require.ErrorIs(t, err, models.ErrValidation)
	})

	t.Run("error - duplicate email", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)

		_, err := fx.svc.Register(t.Context(), auth.RegisterInput{
			Name: "Impostor", Email: repository.AdminEmail, Password: "x",
		})
		require.ErrorIs(t, err, models.ErrConflict)
	})

	t.Run("success - creates user and client", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		result, err := fx.svc.Register(ctx, auth.RegisterInput{
			Name: " Jane Doe ", Email: "jane@example.com", Password: "pw", Phone: "+1 555",
		})
		require.NoError(t, err)
		assert.Equal(t, models.RoleClient, result.User.Role)

		cols, err := fx.repo.Snapshot(ctx)
		require.NoError(t, err)

		idx := cols.UserIndex("jane@example.com")
		require.NotEqual(t, -1, idx)
		assert.Equal(t, "Jane Doe", cols.Users[idx].Name)
		ok, err := fx.hasher.Verify(cols.Users[idx].Password, "pw")
		require.NoError(t, err)
		assert.True(t, ok)

		require.Len(t, cols.Clients, 3)
		assert.Equal(t, "jane@example.com", cols.Clients[2].Email)
		assert.Equal(t, "+1 555", cols.Clients[2].Phone)

		current, err := fx.repo.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "jane@example.com", current.Email)
		assert.InDelta(t, 1, testutil.ToFloat64(fx.metrics.Registrations), 0)
	})

	t.Run("success - existing client record is reused", func(t *testing.T) {
		t.Parallel()
		fx := newFixture(t)
		ctx := t.Context()

		_, err := fx.svc.Register(ctx, auth.RegisterInput{Name: "John Smith", Email: "john@example.com", Password: "pw"})
		require.NoError(t, err)

		clients, err := fx.repo.GetClients(ctx)
		require.NoError(t, err)
		assert.Len(t, clients, 2)
	})
}

func TestService_AuthenticateAndLogout(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := t.Context()

	result, err := fx.svc.Login(ctx, repository.AdminEmail, "admin123")
	require.NoError(t, err)

	actor, claims, err := fx.svc.Authenticate(ctx, result.Token)
	require.NoError(t, err)
	assert.Equal(t, repository.AdminEmail, actor.Email)
	assert.Equal(t, models.RoleAdmin, actor.Role)

	require.NoError(t, fx.svc.Logout(ctx, claims))

	_, _, err = fx.svc.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, auth.ErrTokenRevoked)
	require.ErrorIs(t, err, models.ErrUnauthenticated)

	current, err := fx.repo.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, current)

	require.ErrorIs(t, fx.svc.Logout(ctx, nil), models.ErrUnauthenticated)
}

func TestService_AuthenticateDeletedAccount(t *testing.T) {
	t.Parallel()
	fx := newFixture(t)
	ctx := t.Context()

	result, err := fx.svc.Register(ctx, auth.RegisterInput{Name: "Temp", Email: "temp@example.com", Password: "pw"})
	require.NoError(t, err)

	users, err := fx.repo.GetUsers(ctx)
	require.NoError(t, err)
	require.NoError(t, fx.repo.SaveUsers(ctx, users[:1]))

	_, _, err = fx.svc.Authenticate(ctx, result.Token)
	require.ErrorIs(t, err, models.ErrUnauthenticated)
	require.ErrorContains(t, err, "no longer exists")
}
