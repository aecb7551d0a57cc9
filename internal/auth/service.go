package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/Houeta/logitrack/internal/session"
)

var (
	// ErrInvalidCredentials is returned when the email is unknown or the password does not match.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrTokenRevoked is returned for tokens invalidated by logout.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// Store is the part of the storage gateway the auth service needs.
type Store interface {
	GetUsers(ctx context.Context) ([]models.User, error)
	Update(ctx context.Context, fn func(*repository.Collections) error) error
	SetCurrentUser(ctx context.Context, user models.User) error
	Logout(ctx context.Context) error
}

// IDSource hands out fresh record ids.
type IDSource interface {
	Next() int64
}

// Session is what a successful login or registration returns to the caller.
type Session struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expiresAt"`
	User      *session.Actor `json:"user"`
}

// RegisterInput holds the self-registration form.
type RegisterInput struct {
	Name     string `json:"fullName"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// Service handles login, self-registration, logout and token authentication.
type Service struct {
	log     *slog.Logger
	store   Store
	hasher  PasswordHasher
	tokens  *TokenIssuer
	revoked Blacklist
	ids     IDSource
	metrics *metrics.Metrics
}

// NewService wires the auth service.
func NewService(
	log *slog.Logger,
	store Store,
	hasher PasswordHasher,
	tokens *TokenIssuer,
	revoked Blacklist,
	ids IDSource,
	appMetrics *metrics.Metrics,
) *Service {
	return &Service{
		log:     log,
		store:   store,
		hasher:  hasher,
		tokens:  tokens,
		revoked: revoked,
		ids:     ids,
		metrics: appMetrics,
	}
}

// Login checks the credentials, moves the session pointer to the user and issues a token.
// A legacy plaintext password is replaced by its hash after a successful match.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", models.ErrValidation)
	}

	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load users: %w", err)
	}

	idx := slices.IndexFunc(users, func(u models.User) bool { return u.Email == email })
	if idx == -1 {
		s.metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %w", models.ErrUnauthenticated, ErrInvalidCredentials)
	}
	user := users[idx]

	ok, err := s.hasher.Verify(user.Password, password)
	if err != nil {
		s.metrics.Logins.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.Logins.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("%w: %w", models.ErrUnauthenticated, ErrInvalidCredentials)
	}

	if !IsHashed(user.Password) {
		s.rehash(ctx, user, password)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.Logins.WithLabelValues("success").Inc()
	s.log.InfoContext(ctx, "User logged in", "email", user.Email, "role", user.Role)

	return result, nil
}

func (s *Service) rehash(ctx context.Context, user models.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.log.WarnContext(ctx, "Failed to hash legacy password", "email", user.Email, "error", err)
		return
	}

	err = s.store.Update(ctx, func(c *repository.Collections) error {
		if idx := c.UserIndex(user.Email); idx != -1 && c.Users[idx].Password == user.Password {
			c.Users[idx].Password = hash
		}
		return nil
	})
	if err != nil {
		s.log.WarnContext(ctx, "Failed to store rehashed password", "email", user.Email, "error", err)
		return
	}

	s.log.InfoContext(ctx, "Legacy plaintext password rehashed", "email", user.Email)
}

// Register creates a client account together with its client record and logs it in.
// An existing client record with the same email is reused.
func (s *Service) Register(ctx context.Context, input RegisterInput) (*Session, error) {
	name := strings.TrimSpace(input.Name)
	email := strings.TrimSpace(input.Email)
	password := strings.TrimSpace(input.Password)
	if name == "" || email == "" || password == "" {
		return nil, fmt.Errorf("%w: full name, email and password are required", models.ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	var user models.User
	err = s.store.Update(ctx, func(c *repository.Collections) error {
		if c.UserIndex(email) != -1 {
			return fmt.Errorf("%w: email %s is already registered", models.ErrConflict, email)
		}

		user = models.User{ID: s.ids.Next(), Name: name, Email: email, Password: hash, Role: models.RoleClient}
		c.Users = append(c.Users, user)

		if !slices.ContainsFunc(c.Clients, func(cl models.Client) bool { return cl.Email == email }) {
			c.Clients = append(c.Clients, models.Client{
				ID:    s.ids.Next(),
				Name:  name,
				Email: email,
				Phone: strings.TrimSpace(input.Phone),
			})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	result, err := s.startSession(ctx, user)
	if err != nil {
		return nil, err
	}

	s.metrics.Registrations.Inc()
	s.log.InfoContext(ctx, "Client registered", "email", email)

	return result, nil
}

func (s *Service) startSession(ctx context.Context, user models.User) (*Session, error) {
	if err := s.store.SetCurrentUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to set current user: %w", err)
	}

	token, claims, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	return &Session{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: session.FromUser(user)}, nil
}

// Logout revokes the token for the rest of its lifetime and clears the session pointer.
func (s *Service) Logout(ctx context.Context, claims *Claims) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", models.ErrUnauthenticated)
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}

	if err := s.revoked.Revoke(ctx, claims.ID, ttl); err != nil {
		return err
	}

	if err := s.store.Logout(ctx); err != nil {
		return err
	}

	s.log.InfoContext(ctx, "User logged out", "email", claims.Email)

	return nil
}

// Authenticate turns a bearer token into the current actor. The role is taken from
// the stored account, so role changes apply to tokens issued earlier.
func (s *Service) Authenticate(ctx context.Context, raw string) (*session.Actor, *Claims, error) {
	claims, err := s.tokens.Parse(raw)
	if err != nil {
		return nil, nil, err
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, err
	}
	if revoked {
		return nil, nil, fmt.Errorf("%w: %w", models.ErrUnauthenticated, ErrTokenRevoked)
	}

	users, err := s.store.GetUsers(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load users: %w", err)
	}

	idx := slices.IndexFunc(users, func(u models.User) bool { return u.Email == claims.Email })
	if idx == -1 {
		return nil, nil, fmt.Errorf("%w: account %s no longer exists", models.ErrUnauthenticated, claims.Email)
	}

	return session.FromUser(users[idx]), claims, nil
}
