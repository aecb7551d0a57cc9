package registry_test

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/Houeta/logitrack/internal/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

// plainHasher keeps hashes readable in assertions.
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) {
	return "plain:" + password, nil
}

// seqIDs hands out 100, 101, ...
type seqIDs struct{ next int64 }

func (s *seqIDs) Next() int64 {
	if s.next == 0 {
		s.next = 100
	}
	s.next++
	return s.next - 1
}

var (
	admin    = &session.Actor{ID: 1, Name: "Admin User", Email: repository.AdminEmail, Role: models.RoleAdmin}
	employee = &session.Actor{ID: 2, Name: "Sarah Chen", Email: "s.chen@logitrack.com", Role: models.RoleEmployee}
	client   = &session.Actor{ID: 3, Name: "John Smith", Email: "john@example.com", Role: models.RoleClient}
)

func newRepo(t *testing.T) *repository.Repository {
	t.Helper()

	repo := repository.NewRepository(repository.NewMemoryStore())
	require.NoError(t, repo.SeedDemoData(t.Context(), plainHasher{}, time.Now()))

	return repo
}

func newDeps() (*slog.Logger, *metrics.Metrics) {
	return slog.New(slog.NewTextHandler(io.Discard, nil)), metrics.NewMetrics(prometheus.NewRegistry())
}

func findUser(t *testing.T, repo *repository.Repository, email string) (models.User, bool) {
	t.Helper()

	users, err := repo.GetUsers(t.Context())
	require.NoError(t, err)
	for _, u := range users {
		if u.Email == email {
			return u, true
		}
	}
	return models.User{}, false
}
