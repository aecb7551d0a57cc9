package registry

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
	"github.com/Houeta/logitrack/internal/repository"
	"github.com/Houeta/logitrack/internal/session"
)

// ClientInput holds the editable fields of a client.
// Password is optional; it only applies to the mirrored login account.
type ClientInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password,omitempty"`
}

func (in ClientInput) normalize() ClientInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)
	return in
}

// ClientService manages client records and their client-role accounts.
type ClientService struct {
	log     *slog.Logger
	store   Store
	ids     IDSource
	mirror  mirror
	metrics *metrics.Metrics
}

// NewClientService creates a client registry.
func NewClientService(
	log *slog.Logger,
	store Store,
	ids IDSource,
	hasher PasswordHasher,
	appMetrics *metrics.Metrics,
) *ClientService {
	return &ClientService{
		log:     log,
		store:   store,
		ids:     ids,
		mirror:  mirror{hasher: hasher, ids: ids, role: models.RoleClient, defaultPassword: DefaultClientPassword},
		metrics: appMetrics,
	}
}

// List returns the clients whose name, email or phone contains filter.
func (s *ClientService) List(ctx context.Context, actor *session.Actor, filter string) ([]models.Client, error) {
	if err := session.Require(actor, "list clients", session.IsStaff); err != nil {
		return nil, err
	}

	clients, err := s.store.GetClients(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load clients: %w", err)
	}

	result := make([]models.Client, 0, len(clients))
	for _, c := range clients {
		if matches(filter, c.Name, c.Email, c.Phone) {
			result = append(result, c)
		}
	}

	return result, nil
}

// Get returns a single client.
func (s *ClientService) Get(ctx context.Context, actor *session.Actor, id int64) (models.Client, error) {
	if err := session.Require(actor, "view client", session.IsStaff); err != nil {
		return models.Client{}, err
	}

	clients, err := s.store.GetClients(ctx)
	if err != nil {
		return models.Client{}, fmt.Errorf("failed to load clients: %w", err)
	}

	idx := slices.IndexFunc(clients, func(c models.Client) bool { return c.ID == id })
	if idx == -1 {
		return models.Client{}, notFound("client", id)
	}

	return clients[idx], nil
}

// Create adds a client and its login account in one write.
func (s *ClientService) Create(ctx context.Context, actor *session.Actor, in ClientInput) (models.Client, error) {
	client, err := s.create(ctx, actor, in.normalize())
	record(s.metrics, "client", "create", err)
	return client, err
}

func (s *ClientService) create(ctx context.Context, actor *session.Actor, in ClientInput) (models.Client, error) {
	if err := session.Require(actor, "create client", session.IsAdmin); err != nil {
		return models.Client{}, err
	}
	if err := required("name and email are required", in.Name, in.Email); err != nil {
		return models.Client{}, err
	}

	var client models.Client
	err := s.store.Update(ctx, func(c *repository.Collections) error {
		client = models.Client{ID: s.ids.Next(), Name: in.Name, Email: in.Email, Phone: in.Phone}
		c.Clients = append(c.Clients, client)
		return s.mirror.upsert(c, in.Name, in.Email, in.Password)
	})
	if err != nil {
		return models.Client{}, fmt.Errorf("failed to create client: %w", err)
	}

	s.log.InfoContext(ctx, "Client created", "id", client.ID, "email", client.Email, "by", actor.Email)

	return client, nil
}

// Update replaces the client's fields. An email change moves the login account to the new address.
func (s *ClientService) Update(
	ctx context.Context,
	actor *session.Actor,
	id int64,
	in ClientInput,
) (models.Client, error) {
	client, err := s.update(ctx, actor, id, in.normalize())
	record(s.metrics, "client", "update", err)
	return client, err
}

func (s *ClientService) update(
	ctx context.Context,
	actor *session.Actor,
	id int64,
	in ClientInput,
) (models.Client, error) {
	if err := session.Require(actor, "update client", session.IsAdmin); err != nil {
		return models.Client{}, err
	}
	if err := required("name and email are required", in.Name, in.Email); err != nil {
		return models.Client{}, err
	}

	var client models.Client
	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Clients, func(cl models.Client) bool { return cl.ID == id })
		if idx == -1 {
			return notFound("client", id)
		}

		oldEmail := c.Clients[idx].Email
		client = models.Client{ID: id, Name: in.Name, Email: in.Email, Phone: in.Phone}
		c.Clients[idx] = client

		if oldEmail != in.Email {
			s.mirror.remove(c, oldEmail)
		}
		return s.mirror.upsert(c, in.Name, in.Email, in.Password)
	})
	if err != nil {
		return models.Client{}, fmt.Errorf("failed to update client: %w", err)
	}

	s.log.InfoContext(ctx, "Client updated", "id", id, "email", client.Email, "by", actor.Email)

	return client, nil
}

// Delete removes the client together with its login account.
func (s *ClientService) Delete(ctx context.Context, actor *session.Actor, id int64) error {
	err := s.delete(ctx, actor, id)
	record(s.metrics, "client", "delete", err)
	return err
}

func (s *ClientService) delete(ctx context.Context, actor *session.Actor, id int64) error {
	if err := session.Require(actor, "delete client", session.IsAdmin); err != nil {
		return err
	}

	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Clients, func(cl models.Client) bool { return cl.ID == id })
		if idx == -1 {
			return notFound("client", id)
		}

		email := c.Clients[idx].Email
		c.Clients = slices.Delete(c.Clients, idx, idx+1)
		s.mirror.remove(c, email)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}

	s.log.InfoContext(ctx, "Client deleted", "id", id, "by", actor.Email)

	return nil
}
