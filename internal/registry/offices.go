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

// OfficeInput holds the editable fields of an office.
type OfficeInput struct {
	Name    string `json:"name"`
	City    string `json:"city"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (in OfficeInput) office(id int64) models.Office {
	return models.Office{
		ID:      id,
		Name:    strings.TrimSpace(in.Name),
		City:    strings.TrimSpace(in.City),
		Address: strings.TrimSpace(in.Address),
		Phone:   strings.TrimSpace(in.Phone),
	}
}

// OfficeService manages offices. Offices are reference data and have no login account.
type OfficeService struct {
	log     *slog.Logger
	store   Store
	ids     IDSource
	metrics *metrics.Metrics
}

func NewOfficeService(log *slog.Logger, store Store, ids IDSource, appMetrics *metrics.Metrics) *OfficeService {
	return &OfficeService{log: log, store: store, ids: ids, metrics: appMetrics}
}

// List returns the offices whose name, city or address contains filter.
func (s *OfficeService) List(ctx context.Context, actor *session.Actor, filter string) ([]models.Office, error) {
	if err := session.Require(actor, "list offices", session.IsStaff); err != nil {
		return nil, err
	}

	offices, err := s.store.GetOffices(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load offices: %w", err)
	}

	result := make([]models.Office, 0, len(offices))
	for _, o := range offices {
		if matches(filter, o.Name, o.City, o.Address) {
			result = append(result, o)
		}
	}

	return result, nil
}

func (s *OfficeService) Get(ctx context.Context, actor *session.Actor, id int64) (models.Office, error) {
	if err := session.Require(actor, "view office", session.IsStaff); err != nil {
		return models.Office{}, err
	}

	offices, err := s.store.GetOffices(ctx)
	if err != nil {
		return models.Office{}, fmt.Errorf("failed to load offices: %w", err)
	}

	idx := slices.IndexFunc(offices, func(o models.Office) bool { return o.ID == id })
	if idx == -1 {
		return models.Office{}, notFound("office", id)
	}

	return offices[idx], nil
}

func (s *OfficeService) Create(ctx context.Context, actor *session.Actor, in OfficeInput) (models.Office, error) {
	office, err := s.create(ctx, actor, in)
	record(s.metrics, "office", "create", err)
	return office, err
}

func (s *OfficeService) create(ctx context.Context, actor *session.Actor, in OfficeInput) (models.Office, error) {
	if err := session.Require(actor, "create office", session.IsAdmin); err != nil {
		return models.Office{}, err
	}

	office := in.office(0)
	if err := required("name, city and address are required", office.Name, office.City, office.Address); err != nil {
		return models.Office{}, err
	}

	err := s.store.Update(ctx, func(c *repository.Collections) error {
		office.ID = s.ids.Next()
		c.Offices = append(c.Offices, office)
		return nil
	})
	if err != nil {
		return models.Office{}, fmt.Errorf("failed to create office: %w", err)
	}

	s.log.InfoContext(ctx, "Office created", "id", office.ID, "name", office.Name, "by", actor.Email)

	return office, nil
}

func (s *OfficeService) Update(
	ctx context.Context,
	actor *session.Actor,
	id int64,
	in OfficeInput,
) (models.Office, error) {
	office, err := s.update(ctx, actor, id, in)
	record(s.metrics, "office", "update", err)
	return office, err
}

func (s *OfficeService) update(
	ctx context.Context,
	actor *session.Actor,
	id int64,
	in OfficeInput,
) (models.Office, error) {
	if err := session.Require(actor, "update office", session.IsAdmin); err != nil {
		return models.Office{}, err
	}

	office := in.office(id)
	if err := required("name, city and address are required", office.Name, office.City, office.Address); err != nil {
		return models.Office{}, err
	}

	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Offices, func(o models.Office) bool { return o.ID == id })
		if idx == -1 {
			return notFound("office", id)
		}
		c.Offices[idx] = office
		return nil
	})
	if err != nil {
		return models.Office{}, fmt.Errorf("failed to update office: %w", err)
	}

	s.log.InfoContext(ctx, "Office updated", "id", id, "by", actor.Email)

	return office, nil
}

func (s *OfficeService) Delete(ctx context.Context, actor *session.Actor, id int64) error {
	err := s.delete(ctx, actor, id)
	record(s.metrics, "office", "delete", err)
	return err
}

func (s *OfficeService) delete(ctx context.Context, actor *session.Actor, id int64) error {
	if err := session.Require(actor, "delete office", session.IsAdmin); err != nil {
		return err
	}

	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Offices, func(o models.Office) bool { return o.ID == id })
		if idx == -1 {
			return notFound("office", id)
		}
		c.Offices = slices.Delete(c.Offices, idx, idx+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete office: %w", err)
	}

	s.log.InfoContext(ctx, "Office deleted", "id", id, "by", actor.Email)

	return nil
}
