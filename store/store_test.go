package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/notify"
	"github.com/corretorsys/bankcore/storage"
	"github.com/corretorsys/bankcore/store"
	"github.com/corretorsys/bankcore/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// failingKV rejects writes to exercise persistence-failure propagation.
type failingKV struct {
	storage.KV
	setErr error
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	return f.KV.Set(ctx, key, value)
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(storage.NewMemory(), nil, nil, nil)
}

func record(bank string, severity taxonomy.Severity, code string) bankerr.Record {
	return bankerr.Record{
		Message:   "erro",
		BankName:  bank,
		Category:  taxonomy.CategoryConnection,
		Severity:  severity,
		Timestamp: time.Now(),
		ErrorCode: code,
	}
}

func TestAddError_AssignsIDAndCaptureTime(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.AddError(ctx, record("Itau", taxonomy.SeverityHigh, ""))
	require.NoError(t, err)

	assert.NotEmpty(t, stored.ID)
	assert.NotZero(t, stored.CapturedAt)
}

func TestAddError_BoundedAtHundredNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	base := time.Now()
	i := 0
	s.SetNowFunc(func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Millisecond)
	})

	for n := 0; n < 105; n++ {
		rec := record("Itau", taxonomy.SeverityLow, "")
		rec.Message = fmt.Sprintf("erro %d", n)
		_, err := s.AddError(ctx, rec)
		require.NoError(t, err)
	}

	errs, err := s.StoredErrors(ctx)
	require.NoError(t, err)
	require.Len(t, errs, 100)

	// Newest first, oldest five evicted.
	assert.Equal(t, "erro 104", errs[0].Message)
	assert.Equal(t, "erro 5", errs[99].Message)
}

func TestAddError_NotifiesAndTracks(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemory()
	notifier := notify.NewService(nil)
	metrics := store.NewMetricsService(kv, nil)
	s := store.New(kv, notifier, metrics, nil)

	var got []notify.Payload
	notifier.Subscribe(func(p notify.Payload) { got = append(got, p) })

	_, err := s.AddError(ctx, record("Banco do Brasil", taxonomy.SeverityHigh, ""))
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, "Crítico - Banco do Brasil: erro", got[0].Message)

	trends, err := metrics.Trends(ctx)
	require.NoError(t, err)
	require.Len(t, trends, 1)
	assert.Equal(t, 1, trends[0].Count)
}

func TestAddError_PersistenceFailurePropagates(t *testing.T) {
	ctx := context.Background()
	writeErr := errors.New("disk full")
	notifier := notify.NewService(nil)
	s := store.New(&failingKV{KV: storage.NewMemory(), setErr: writeErr}, notifier, nil, nil)

	notified := false
	notifier.Subscribe(func(notify.Payload) { notified = true })

	_, err := s.AddError(ctx, record("Itau", taxonomy.SeverityHigh, ""))

	require.ErrorIs(t, err, writeErr)
	assert.False(t, notified, "failed writes must not alert the user")
}

func TestRemoveError(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	first, err := s.AddError(ctx, record("Itau", taxonomy.SeverityHigh, ""))
	require.NoError(t, err)
	second, err := s.AddError(ctx, record("Bradesco", taxonomy.SeverityLow, ""))
	require.NoError(t, err)

	require.NoError(t, s.RemoveError(ctx, first.ID))

	errs, err := s.StoredErrors(ctx)
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, second.ID, errs[0].ID)

	// Removing an unknown id keeps the log intact.
	require.NoError(t, s.RemoveError(ctx, "nope"))
	errs, err = s.StoredErrors(ctx)
	require.NoError(t, err)
	assert.Len(t, errs, 1)
}

func TestRemoveError_PersistenceFailurePropagates(t *testing.T) {
	ctx := context.Background()
	kv := &failingKV{KV: storage.NewMemory()}
	s := store.New(kv, nil, nil, nil)

	stored, err := s.AddError(ctx, record("Itau", taxonomy.SeverityHigh, ""))
	require.NoError(t, err)

	writeErr := errors.New("disk full")
	kv.setErr = writeErr

	assert.ErrorIs(t, s.RemoveError(ctx, stored.ID), writeErr)
}

func TestClearErrors(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AddError(ctx, record("Itau", taxonomy.SeverityHigh, ""))
	require.NoError(t, err)

	require.NoError(t, s.ClearErrors(ctx))

	errs, err := s.StoredErrors(ctx)
	require.NoError(t, err)
	assert.Empty(t, errs)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stored, err := s.AddError(ctx, record("Itau", taxonomy.SeverityHigh, ""))
	require.NoError(t, err)

	require.NoError(t, s.Resolve(ctx, stored.ID))

	errs, err := s.StoredErrors(ctx)
	require.NoError(t, err)
	require.NotNil(t, errs[0].ResolvedAt)

	assert.Error(t, s.Resolve(ctx, "nope"))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	for _, rec := range []bankerr.Record{
		record("A", taxonomy.SeverityHigh, "ERR-AUTH-001"),
		record("A", taxonomy.SeverityMedium, "ERR-ACC-002"),
		record("B", taxonomy.SeverityHigh, ""),
	} {
		_, err := s.AddError(ctx, rec)
		require.NoError(t, err)
	}

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, map[string]int{"A": 2, "B": 1}, stats.ByBank)
	assert.Equal(t, map[string]int{"high": 2, "medium": 1}, stats.BySeverity)
	assert.Equal(t, map[string]int{"AUTH": 1, "ACC": 1, "unknown": 1}, stats.ByCategory)
	assert.Equal(t, map[string]int{"error": 1, "warning": 1, "info": 1}, stats.ByLevel)
	assert.GreaterOrEqual(t, stats.LastError, stats.FirstError)
}

func TestStats_Empty(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)

	assert.Zero(t, stats.Total)
	assert.Zero(t, stats.FirstError)
	assert.Zero(t, stats.LastError)
}
