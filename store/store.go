// Package store persists classified bank errors as a bounded, newest-first
// log and derives statistics, trend buckets and aggregate metrics from it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/notify"
	"github.com/corretorsys/bankcore/storage"
	"github.com/google/uuid"
)

const (
	errorsKey       = "bankErrors"
	maxStoredErrors = 100
)

// StoredError is a bank error record as kept in the persisted log, with the
// capture instant in unix milliseconds for ordering.
type StoredError struct {
	bankerr.Record
	CapturedAt int64 `json:"capturedAt"`
}

// Store owns the persisted error log. It is the single writer of its keys;
// adding an error also feeds the notification bridge and the trend buckets,
// so every stored error counts toward both user-visible alerting and
// aggregate trend data.
type Store struct {
	kv       storage.KV
	notifier *notify.Service
	metrics  *MetricsService
	logger   *slog.Logger
	now      func() time.Time
}

func New(kv storage.KV, notifier *notify.Service, metrics *MetricsService, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		kv:       kv,
		notifier: notifier,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
	}
}

// StoredErrors returns the persisted log, newest first. A missing key is an
// empty log; a corrupt payload is logged and treated as empty rather than
// poisoning every reader.
func (s *Store) StoredErrors(ctx context.Context) ([]StoredError, error) {
	raw, err := s.kv.Get(ctx, errorsKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load error log: %w", err)
	}

	var errs []StoredError
	if err := json.Unmarshal(raw, &errs); err != nil {
		s.logger.Error("error log payload is corrupt", "error", err)
		return nil, nil
	}

	sort.SliceStable(errs, func(i, j int) bool {
		return errs[i].CapturedAt > errs[j].CapturedAt
	})
	return errs, nil
}

// AddError captures a record into the log: assigns id and capture
// timestamp, prepends, trims to the most recent 100 and persists. On
// success it notifies the bridge and increments the trend bucket.
// Persistence failures propagate before any side effect runs.
func (s *Store) AddError(ctx context.Context, rec bankerr.Record) (StoredError, error) {
	errs, err := s.StoredErrors(ctx)
	if err != nil {
		return StoredError{}, err
	}

	stored := StoredError{Record: rec, CapturedAt: s.now().UnixMilli()}
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}

	errs = append([]StoredError{stored}, errs...)
	if len(errs) > maxStoredErrors {
		errs = errs[:maxStoredErrors]
	}

	if err := s.persist(ctx, errs); err != nil {
		return StoredError{}, err
	}

	if s.notifier != nil {
		s.notifier.NotifyBankError(stored.Record)
	}
	if s.metrics != nil {
		s.metrics.TrackError(ctx, stored.Record)
	}
	return stored, nil
}

// RemoveError drops one record by id. A failing persistence write
// propagates to the caller.
func (s *Store) RemoveError(ctx context.Context, id string) error {
	errs, err := s.StoredErrors(ctx)
	if err != nil {
		return err
	}

	kept := errs[:0]
	for _, e := range errs {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	return s.persist(ctx, kept)
}

// ClearErrors empties the persisted log.
func (s *Store) ClearErrors(ctx context.Context) error {
	if err := s.kv.Delete(ctx, errorsKey); err != nil {
		return fmt.Errorf("clear error log: %w", err)
	}
	return nil
}

// Resolve marks a record with a resolvedAt timestamp, feeding the
// resolution-time metrics.
func (s *Store) Resolve(ctx context.Context, id string) error {
	errs, err := s.StoredErrors(ctx)
	if err != nil {
		return err
	}

	for i := range errs {
		if errs[i].ID == id {
			resolvedAt := s.now()
			errs[i].ResolvedAt = &resolvedAt
			return s.persist(ctx, errs)
		}
	}
	return fmt.Errorf("resolve error %s: not found", id)
}

func (s *Store) persist(ctx context.Context, errs []StoredError) error {
	raw, err := json.Marshal(errs)
	if err != nil {
		return fmt.Errorf("encode error log: %w", err)
	}
	if err := s.kv.Set(ctx, errorsKey, raw); err != nil {
		return fmt.Errorf("persist error log: %w", err)
	}
	return nil
}

// Stats are the counts derived from the full current log.
type Stats struct {
	Total      int            `json:"total"`
	ByBank     map[string]int `json:"byBank"`
	ByCategory map[string]int `json:"byCategory"`
	BySeverity map[string]int `json:"bySeverity"`
	ByLevel    map[string]int `json:"byLevel"`
	FirstError int64          `json:"firstError"`
	LastError  int64          `json:"lastError"`
}

// Stats derives counts over the current log: by bank, by the code's family
// segment, by record severity and by display level. First/last are capture
// timestamps in unix milliseconds, zero on an empty log.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	errs, err := s.StoredErrors(ctx)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{
		Total:      len(errs),
		ByBank:     make(map[string]int),
		ByCategory: make(map[string]int),
		BySeverity: make(map[string]int),
		ByLevel:    make(map[string]int),
	}
	if len(errs) > 0 {
		stats.LastError = errs[0].CapturedAt
		stats.FirstError = errs[len(errs)-1].CapturedAt
	}

	for _, e := range errs {
		bank := e.BankName
		if bank == "" {
			bank = "unknown"
		}
		stats.ByBank[bank]++
		stats.ByCategory[codeFamily(e.ErrorCode)]++
		stats.BySeverity[string(e.Severity)]++
		stats.ByLevel[codeLevel(e.ErrorCode)]++
	}
	return stats, nil
}

// codeFamily extracts the second hyphen-delimited segment of a
// bank-specific code ("BB-AUTH-001" -> "AUTH"), "unknown" otherwise.
func codeFamily(code string) string {
	parts := strings.Split(code, "-")
	if len(parts) < 2 || parts[1] == "" {
		return "unknown"
	}
	return parts[1]
}

// codeLevel maps a code prefix to the display level used by the error list.
func codeLevel(code string) string {
	switch {
	case strings.HasPrefix(code, "ERR-GEN-") || strings.HasPrefix(code, "ERR-AUTH-"):
		return "error"
	case strings.HasPrefix(code, "ERR-ACC-") || strings.HasPrefix(code, "ERR-TRX-"):
		return "warning"
	default:
		return "info"
	}
}
