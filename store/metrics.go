package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/storage"
)

const (
	trendsKey       = "errorTrends"
	trendHourLayout = "2006-01-02T15"
	trendRetention  = 30 * 24 * time.Hour
)

// Trend is the error volume for one clock hour.
type Trend struct {
	Timestamp string `json:"timestamp"` // YYYY-MM-DDTHH, UTC
	Count     int    `json:"count"`
}

// MetricsService owns the trend buckets: TrackError increments the current
// hour's bucket, and the periodic tick appends a fresh zero bucket and
// evicts buckets older than 30 days.
type MetricsService struct {
	kv       storage.KV
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
}

// MetricsOption configures a MetricsService.
type MetricsOption func(*MetricsService)

// WithTrendInterval overrides the bookkeeping tick. Ticking faster than
// hourly is safe; the rollover only appends a bucket when the hour changed.
func WithTrendInterval(d time.Duration) MetricsOption {
	return func(m *MetricsService) {
		if d > 0 {
			m.interval = d
		}
	}
}

func NewMetricsService(kv storage.KV, logger *slog.Logger, opts ...MetricsOption) *MetricsService {
	if logger == nil {
		logger = slog.Default()
	}
	m := &MetricsService{
		kv:       kv,
		logger:   logger,
		interval: time.Hour,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Trends returns the stored buckets. A missing key or corrupt payload is an
// empty history.
func (m *MetricsService) Trends(ctx context.Context) ([]Trend, error) {
	raw, err := m.kv.Get(ctx, trendsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load trends: %w", err)
	}

	var trends []Trend
	if err := json.Unmarshal(raw, &trends); err != nil {
		m.logger.Error("trend payload is corrupt", "error", err)
		return nil, nil
	}
	return trends, nil
}

// TrackError counts one error against the current clock hour, creating the
// bucket on first use. Persistence failures here are logged, not
// propagated: losing one trend increment must not fail the store mutation
// that triggered it.
func (m *MetricsService) TrackError(ctx context.Context, rec bankerr.Record) {
	trends, err := m.Trends(ctx)
	if err != nil {
		m.logger.Error("track error: load trends", "error", err)
		return
	}

	hourKey := m.now().UTC().Format(trendHourLayout)
	found := false
	for i := range trends {
		if trends[i].Timestamp == hourKey {
			trends[i].Count++
			found = true
			break
		}
	}
	if !found {
		trends = append(trends, Trend{Timestamp: hourKey, Count: 1})
	}

	if err := m.saveTrends(ctx, trends); err != nil {
		m.logger.Error("track error: save trends", "error", err)
	}
}

// Start runs the hourly bookkeeping tick until ctx is cancelled: append a
// zero bucket for the new hour and evict anything past the 30-day window.
func (m *MetricsService) Start(ctx context.Context) {
	m.logger.Info("metrics trend worker started", "interval", m.interval)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("metrics trend worker stopping")
			return
		case <-ticker.C:
			if err := m.rollTrends(ctx); err != nil {
				m.logger.Error("trend rollover failed", "error", err)
			}
		}
	}
}

func (m *MetricsService) rollTrends(ctx context.Context) error {
	trends, err := m.Trends(ctx)
	if err != nil {
		return err
	}

	now := m.now().UTC()
	hourKey := now.Format(trendHourLayout)

	exists := false
	for _, trend := range trends {
		if trend.Timestamp == hourKey {
			exists = true
			break
		}
	}
	if !exists {
		trends = append(trends, Trend{Timestamp: hourKey, Count: 0})
	}

	cutoff := now.Add(-trendRetention)
	kept := trends[:0]
	for _, trend := range trends {
		at, err := time.Parse(trendHourLayout, trend.Timestamp)
		if err != nil {
			continue
		}
		if !at.Before(cutoff) {
			kept = append(kept, trend)
		}
	}

	return m.saveTrends(ctx, kept)
}

func (m *MetricsService) saveTrends(ctx context.Context, trends []Trend) error {
	raw, err := json.Marshal(trends)
	if err != nil {
		return fmt.Errorf("encode trends: %w", err)
	}
	if err := m.kv.Set(ctx, trendsKey, raw); err != nil {
		return fmt.Errorf("persist trends: %w", err)
	}
	return nil
}

// Metrics derives the aggregate metrics for the supplied errors against the
// stored trend buckets.
func (m *MetricsService) Metrics(ctx context.Context, errs []StoredError) (ErrorMetrics, error) {
	trends, err := m.Trends(ctx)
	if err != nil {
		return ErrorMetrics{}, err
	}
	return ComputeMetrics(m.now(), errs, trends), nil
}
