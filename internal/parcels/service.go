// Package parcels implements the parcel lifecycle: registration, edits with
// status history, deletion and role-scoped visibility.
package parcels

import (
	"context"
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

// Store is the part of the storage gateway the lifecycle controller needs.
type Store interface {
	GetParcels(ctx context.Context) ([]models.Parcel, error)
	Update(ctx context.Context, fn func(*repository.Collections) error) error
}

// IDSource hands out fresh record ids.
type IDSource interface {
	Next() int64
}

// Input holds the editable fields of a parcel.
type Input struct {
	Tracking       string              `json:"tracking"`
	Sender         string              `json:"sender"`
	Recipient      string              `json:"recipient"`
	RecipientEmail string              `json:"recipientEmail"`
	OwnerEmail     string              `json:"ownerEmail"`
	DeliveryType   models.DeliveryType `json:"deliveryType"`
	Weight         RawWeight           `json:"weight"`
	Status         models.Status       `json:"status"` // Ignored on create; empty keeps the current status on update
}

// checked is an Input that passed validation.
type checked struct {
	Input
	weight models.Weight
}

func (in Input) check() (checked, error) {
	in.Tracking = strings.TrimSpace(in.Tracking)
	in.Sender = strings.TrimSpace(in.Sender)
	in.Recipient = strings.TrimSpace(in.Recipient)
	in.RecipientEmail = strings.TrimSpace(in.RecipientEmail)
	in.OwnerEmail = strings.TrimSpace(in.OwnerEmail)

	if in.Tracking == "" || in.Sender == "" || in.Recipient == "" || in.DeliveryType == "" {
		return checked{}, fmt.Errorf("%w: tracking, sender, recipient and delivery type are required", models.ErrValidation)
	}
	if !in.DeliveryType.Valid() {
		return checked{}, fmt.Errorf("%w: unknown delivery type %q", models.ErrValidation, in.DeliveryType)
	}
	if in.Status != "" && !in.Status.Valid() {
		return checked{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, in.Status)
	}

	weight, err := models.ParseWeight(string(in.Weight))
	if err != nil {
		return checked{}, err
	}
	if weight <= 0 {
		return checked{}, fmt.Errorf("%w: weight must be positive", models.ErrValidation)
	}

	return checked{Input: in, weight: weight}, nil
}

func (c checked) owner() *string {
	if c.OwnerEmail == "" {
		return nil
	}
	owner := c.OwnerEmail
	return &owner
}

// Stats counts visible parcels per status for the dashboard.
type Stats struct {
	Total    int                   `json:"total"`
	ByStatus map[models.Status]int `json:"byStatus"`
}

// Service is the parcel lifecycle controller.
type Service struct {
	log     *slog.Logger
	store   Store
	ids     IDSource
	now     func() time.Time
	metrics *metrics.Metrics
}

// NewService creates a parcel lifecycle controller backed by the wall clock.
func NewService(log *slog.Logger, store Store, ids IDSource, appMetrics *metrics.Metrics) *Service {
	return &Service{log: log, store: store, ids: ids, now: time.Now, metrics: appMetrics}
}

// WithClock replaces the clock used for history timestamps.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Visible returns the parcels the actor may see, narrowed by a case-insensitive search
// over tracking code, sender and recipient. Without a session nothing is visible.
func (s *Service) Visible(ctx context.Context, actor *session.Actor, query string) ([]models.Parcel, error) {
	if actor == nil {
		return []models.Parcel{}, nil
	}

	all, err := s.store.GetParcels(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load parcels: %w", err)
	}

	query = strings.ToLower(strings.TrimSpace(query))
	result := make([]models.Parcel, 0, len(all))
	for _, p := range all {
		if !session.CanViewParcel(p, actor) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Tracking), query) &&
			!strings.Contains(strings.ToLower(p.Sender), query) &&
			!strings.Contains(strings.ToLower(p.Recipient), query) {
			continue
		}
		result = append(result, p)
	}

	return result, nil
}

// Stats summarizes the parcels visible to the actor.
func (s *Service) Stats(ctx context.Context, actor *session.Actor) (Stats, error) {
	visible, err := s.Visible(ctx, actor, "")
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Total: len(visible), ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, status := range models.Statuses {
		stats.ByStatus[status] = 0
	}
	for _, p := range visible {
		stats.ByStatus[p.Status]++
	}

	return stats, nil
}

// View returns one parcel with its full history.
func (s *Service) View(ctx context.Context, actor *session.Actor, id int64) (models.Parcel, error) {
	if actor == nil {
		return models.Parcel{}, fmt.Errorf("view parcel: %w", models.ErrUnauthenticated)
	}

	all, err := s.store.GetParcels(ctx)
	if err != nil {
		return models.Parcel{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	idx := slices.IndexFunc(all, func(p models.Parcel) bool { return p.ID == id })
	if idx == -1 {
		return models.Parcel{}, fmt.Errorf("%w: parcel %d", models.ErrNotFound, id)
	}
	if !session.CanViewParcel(all[idx], actor) {
		return models.Parcel{}, fmt.Errorf("view parcel %d as %s: %w", id, actor.Role, models.ErrForbidden)
	}

	return all[idx], nil
}

// Create registers a new parcel. The price is derived from the weight and the
// history starts with a single Registered entry.
func (s *Service) Create(ctx context.Context, actor *session.Actor, in Input) (models.Parcel, error) {
	parcel, err := s.create(ctx, actor, in)
	s.record("create", err)
	return parcel, err
}

func (s *Service) create(ctx context.Context, actor *session.Actor, in Input) (models.Parcel, error) {
	if err := session.Require(actor, "create parcel", session.CanManageParcels); err != nil {
		return models.Parcel{}, err
	}

	fields, err := in.check()
	if err != nil {
		return models.Parcel{}, err
	}

	now := s.now()
	var parcel models.Parcel
	err = s.store.Update(ctx, func(c *repository.Collections) error {
		if slices.ContainsFunc(c.Parcels, func(p models.Parcel) bool { return p.Tracking == fields.Tracking }) {
			return fmt.Errorf("%w: tracking code %s is already in use", models.ErrConflict, fields.Tracking)
		}

		parcel = models.Parcel{
			ID:             s.ids.Next(),
			Tracking:       fields.Tracking,
			Sender:         fields.Sender,
			Recipient:      fields.Recipient,
			RecipientEmail: fields.RecipientEmail,
			OwnerEmail:     fields.owner(),
			DeliveryType:   fields.DeliveryType,
			Weight:         fields.weight,
			Price:          priceOf(fields.weight),
			Status:         models.StatusRegistered,
			History:        []models.HistoryEntry{{Date: now, Status: models.StatusRegistered, By: actor.Email}},
			RegisteredBy:   actor.Email,
			CreatedAt:      &now,
		}
		c.Parcels = append(c.Parcels, parcel)
		return nil
	})
	if err != nil {
		return models.Parcel{}, fmt.Errorf("failed to create parcel: %w", err)
	}

	s.log.InfoContext(ctx, "Parcel registered", "tracking", parcel.Tracking, "price", parcel.Price, "by", actor.Email)

	return parcel, nil
}

// Update replaces the parcel's editable fields and recomputes its price.
// A history entry is appended only when the status changes.
func (s *Service) Update(ctx context.Context, actor *session.Actor, id int64, in Input) (models.Parcel, error) {
	parcel, err := s.update(ctx, actor, id, in)
	s.record("update", err)
	return parcel, err
}

func (s *Service) update(ctx context.Context, actor *session.Actor, id int64, in Input) (models.Parcel, error) {
	if err := session.Require(actor, "update parcel", session.CanManageParcels); err != nil {
		return models.Parcel{}, err
	}

	fields, err := in.check()
	if err != nil {
		return models.Parcel{}, err
	}

	var parcel models.Parcel
	err = s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Parcels, func(p models.Parcel) bool { return p.ID == id })
		if idx == -1 {
			return fmt.Errorf("%w: parcel %d", models.ErrNotFound, id)
		}
		if slices.ContainsFunc(c.Parcels, func(p models.Parcel) bool { return p.ID != id && p.Tracking == fields.Tracking }) {
			return fmt.Errorf("%w: tracking code %s is already in use", models.ErrConflict, fields.Tracking)
		}

		parcel = c.Parcels[idx]
		parcel.Tracking = fields.Tracking
		parcel.Sender = fields.Sender
		parcel.Recipient = fields.Recipient
		parcel.RecipientEmail = fields.RecipientEmail
		parcel.OwnerEmail = fields.owner()
		parcel.DeliveryType = fields.DeliveryType
		parcel.Weight = fields.weight
		parcel.Price = priceOf(fields.weight)

		if fields.Status != "" && fields.Status != parcel.Status {
			parcel.Status = fields.Status
			parcel.History = append(slices.Clone(parcel.History), models.HistoryEntry{
				Date:   s.now(),
				Status: fields.Status,
				By:     actor.Email,
			})
		}

		c.Parcels[idx] = parcel
		return nil
	})
	if err != nil {
		return models.Parcel{}, fmt.Errorf("failed to update parcel: %w", err)
	}

	s.log.InfoContext(ctx, "Parcel updated", "tracking", parcel.Tracking, "status", parcel.Status, "by", actor.Email)

	return parcel, nil
}

// Delete removes a parcel permanently.
func (s *Service) Delete(ctx context.Context, actor *session.Actor, id int64) error {
	err := s.delete(ctx, actor, id)
	s.record("delete", err)
	return err
}

func (s *Service) delete(ctx context.Context, actor *session.Actor, id int64) error {
	if err := session.Require(actor, "delete parcel", session.CanDeleteParcel); err != nil {
		return err
	}

	var tracking string
	err := s.store.Update(ctx, func(c *repository.Collections) error {
		idx := slices.IndexFunc(c.Parcels, func(p models.Parcel) bool { return p.ID == id })
		if idx == -1 {
			return fmt.Errorf("%w: parcel %d", models.ErrNotFound, id)
		}
		tracking = c.Parcels[idx].Tracking
		c.Parcels = slices.Delete(c.Parcels, idx, idx+1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete parcel: %w", err)
	}

	s.log.InfoContext(ctx, "Parcel deleted", "tracking", tracking, "by", actor.Email)

	return nil
}

func (s *Service) record(action string, err error) {
	s.metrics.RecordOperation("parcel", action, err)
}
