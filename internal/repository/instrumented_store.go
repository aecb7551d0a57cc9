package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Houeta/logitrack/internal/metrics"
)

// InstrumentedStore records the latency and failures of every call to the wrapped Store.
type InstrumentedStore struct {
	next    Store
	metrics *metrics.Metrics
}

// NewInstrumentedStore wraps next with Prometheus instrumentation.
func NewInstrumentedStore(next Store, m *metrics.Metrics) *InstrumentedStore {
	return &InstrumentedStore{next: next, metrics: m}
}

func (s *InstrumentedStore) observe(operation string, start time.Time, err error) {
	s.metrics.StoreDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrKeyNotFound) {
		s.metrics.StoreErrors.WithLabelValues(operation).Inc()
	}
}

func (s *InstrumentedStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	value, err := s.next.Get(ctx, key)
	s.observe("get", start, err)
	return value, err
}

func (s *InstrumentedStore) Exists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	ok, err := s.next.Exists(ctx, key)
	s.observe("exists", start, err)
	return ok, err
}

func (s *InstrumentedStore) Put(ctx context.Context, entries ...Entry) error {
	start := time.Now()
	err := s.next.Put(ctx, entries...)
	s.observe("put", start, err)
	return err
}

func (s *InstrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.next.Delete(ctx, key)
	s.observe("delete", start, err)
	return err
}
