// Package tracking answers public tracking-code lookups. No session is needed:
// the tracking code itself is the credential.
package tracking

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/Houeta/logitrack/internal/metrics"
	"github.com/Houeta/logitrack/internal/models"
)

// Lookup sources for metrics.
const (
	SourceAPI = "api"
	SourceBot = "bot"
)

// ParcelReader reads the parcel collection.
type ParcelReader interface {
	GetParcels(ctx context.Context) ([]models.Parcel, error)
}

// Service performs tracking lookups.
type Service struct {
	parcels ParcelReader
	metrics *metrics.Metrics
}

func NewService(parcels ParcelReader, appMetrics *metrics.Metrics) *Service {
	return &Service{parcels: parcels, metrics: appMetrics}
}

// Lookup returns the parcel whose tracking code equals code exactly, history included.
// An empty code fails validation and a miss returns ErrNotFound.
func (s *Service) Lookup(ctx context.Context, source, code string) (models.Parcel, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return models.Parcel{}, fmt.Errorf("%w: tracking number is required", models.ErrValidation)
	}

	all, err := s.parcels.GetParcels(ctx)
	if err != nil {
		return models.Parcel{}, fmt.Errorf("failed to load parcels: %w", err)
	}

	idx := slices.IndexFunc(all, func(p models.Parcel) bool { return p.Tracking == code })
	if idx == -1 {
		s.metrics.TrackLookups.WithLabelValues(source, "not_found").Inc()
		return models.Parcel{}, fmt.Errorf("%w: no parcel with tracking number %s", models.ErrNotFound, code)
	}

	s.metrics.TrackLookups.WithLabelValues(source, "found").Inc()

	return all[idx], nil
}
