package store

import (
	"context"
	"time"
)

// Test hooks for deterministic clocks and ticks.

func (s *Store) SetNowFunc(now func() time.Time) { s.now = now }

func (m *MetricsService) SetNowFunc(now func() time.Time) { m.now = now }

func (m *MetricsService) RollTrends(ctx context.Context) error {
	return m.rollTrends(ctx)
}
