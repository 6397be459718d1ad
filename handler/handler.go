// Package handler implements the global exception handler: the single
// place every classified bank failure is reported to. It keeps a bounded
// in-memory log, fans out to registered observers, persists records to the
// error store and drives the category-specific side effects (redirects,
// payment retries, rate-limit waits, security alerts).
package handler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/notify"
	"github.com/corretorsys/bankcore/store"
	"github.com/corretorsys/bankcore/taxonomy"
	"github.com/google/uuid"
)

const maxLogSize = 1000

// Callback observes handled error records for one category.
type Callback func(bankerr.Record)

// Token identifies a registered callback so it can be removed later. Go
// func values are not comparable, so registration hands out tokens instead
// of matching on the function itself.
type Token int

// Navigator is the UI hook for forced navigation (login, MFA).
type Navigator interface {
	NavigateTo(path string)
}

// RetryFunc re-attempts the failed operation behind a payment exception.
type RetryFunc func(ctx context.Context, exc *bankerr.Exception) error

// Handler receives classified exceptions and runs the handling pipeline.
// Construct with New; Default returns the lazily created process-wide
// instance. In a multi-tenant host, pass an explicit Handler instead of
// relying on Default.
type Handler struct {
	mu        sync.Mutex
	callbacks map[taxonomy.Category][]callbackEntry
	nextToken Token
	errorLog  []bankerr.Record

	notifier  *notify.Service
	errStore  *store.Store
	navigator Navigator
	logger    *slog.Logger

	retryPayment RetryFunc
	checkStatus  RetryFunc
	reconnect    func(ctx context.Context) error

	paymentRetryInterval time.Duration
	statusCheckInterval  time.Duration
	reconnectInterval    time.Duration

	tasks *taskGroup
}

type callbackEntry struct {
	token Token
	fn    Callback
}

// Option configures a Handler.
type Option func(*Handler)

func WithNotifier(n *notify.Service) Option {
	return func(h *Handler) { h.notifier = n }
}

func WithStore(s *store.Store) Option {
	return func(h *Handler) { h.errStore = s }
}

func WithNavigator(n Navigator) Option {
	return func(h *Handler) { h.navigator = n }
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) { h.logger = l }
}

// WithPaymentRetry installs the operation used by the bounded payment
// retry loop.
func WithPaymentRetry(fn RetryFunc) Option {
	return func(h *Handler) { h.retryPayment = fn }
}

// WithStatusCheck installs the operation the status-check poller runs.
func WithStatusCheck(fn RetryFunc) Option {
	return func(h *Handler) { h.checkStatus = fn }
}

// WithReconnect installs the probe the reconnection loop runs.
func WithReconnect(fn func(ctx context.Context) error) Option {
	return func(h *Handler) { h.reconnect = fn }
}

// WithIntervals overrides the fixed delays of the payment retry loop, the
// status-check poller and the reconnection loop.
func WithIntervals(paymentRetry, statusCheck, reconnect time.Duration) Option {
	return func(h *Handler) {
		h.paymentRetryInterval = paymentRetry
		h.statusCheckInterval = statusCheck
		h.reconnectInterval = reconnect
	}
}

func New(opts ...Option) *Handler {
	h := &Handler{
		callbacks:            make(map[taxonomy.Category][]callbackEntry),
		logger:               slog.Default(),
		paymentRetryInterval: 5 * time.Second,
		statusCheckInterval:  30 * time.Second,
		reconnectInterval:    3 * time.Second,
		tasks:                newTaskGroup(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

var (
	defaultOnce    sync.Once
	defaultHandler *Handler
)

// Default is the process-wide handler, created on first access with the
// default notification service and no store or navigator wired.
func Default() *Handler {
	defaultOnce.Do(func() {
		defaultHandler = New(WithNotifier(notify.Default()))
	})
	return defaultHandler
}

// RegisterCallback appends an observer for one category and returns its
// removal token.
func (h *Handler) RegisterCallback(category taxonomy.Category, fn Callback) Token {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextToken++
	token := h.nextToken
	h.callbacks[category] = append(h.callbacks[category], callbackEntry{token: token, fn: fn})
	return token
}

// UnregisterCallback removes a previously registered observer. Unknown
// tokens are a no-op.
func (h *Handler) UnregisterCallback(category taxonomy.Category, token Token) {
	h.mu.Lock()
	defer h.mu.Unlock()

	entries := h.callbacks[category]
	for i, entry := range entries {
		if entry.token == token {
			h.callbacks[category] = append(entries[:i], entries[i+1:]...)
			return
		}
	}
}

// ErrorLog returns a copy of the in-memory log, newest first.
func (h *Handler) ErrorLog() []bankerr.Record {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]bankerr.Record, len(h.errorLog))
	copy(out, h.errorLog)
	return out
}

// ClearErrorLog empties the in-memory log.
func (h *Handler) ClearErrorLog() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.errorLog = nil
}

// Handle runs the pipeline for one failure, in fixed order: normalize,
// append to the bounded log, persist, notify category observers
// concurrently, dispatch the category-specific handling, then emit the
// user-facing notification. It blocks for the duration of any handling
// waits (rate-limit backoff, reconnection attempts).
func (h *Handler) Handle(ctx context.Context, err error) {
	if err == nil {
		return
	}

	exc, rec := h.normalize(err)

	h.appendLog(rec)

	if h.errStore != nil {
		if _, storeErr := h.errStore.AddError(ctx, rec); storeErr != nil {
			h.logger.Error("failed to persist error record", "error", storeErr)
		}
	}

	h.notifyCallbacks(rec)

	switch rec.Category {
	case taxonomy.CategoryAuthentication:
		h.handleAuthentication(rec)
	case taxonomy.CategoryPayment:
		h.handlePayment(ctx, rec, exc)
	case taxonomy.CategoryConnection:
		h.handleConnection(ctx, rec, exc)
	case taxonomy.CategoryValidation:
		h.handleValidation(rec)
	case taxonomy.CategorySecurity:
		h.handleSecurity(rec)
	default:
		h.handleGeneric(rec)
	}

	h.showErrorNotification(rec)
}

// normalize projects any error into a Record; non-bank errors become
// UNKNOWN/high.
func (h *Handler) normalize(err error) (*bankerr.Exception, bankerr.Record) {
	if exc, ok := bankerr.AsException(err); ok {
		return exc, exc.ToRecord()
	}
	return nil, bankerr.Record{
		ID:        uuid.NewString(),
		Message:   err.Error(),
		Category:  taxonomy.CategoryUnknown,
		Severity:  taxonomy.SeverityHigh,
		Timestamp: time.Now(),
	}
}

func (h *Handler) appendLog(rec bankerr.Record) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.errorLog = append([]bankerr.Record{rec}, h.errorLog...)
	if len(h.errorLog) > maxLogSize {
		h.errorLog = h.errorLog[:maxLogSize]
	}
}

// notifyCallbacks runs every observer of the record's category
// concurrently and waits for all of them; no ordering is promised between
// observers and one panicking does not stop the others.
func (h *Handler) notifyCallbacks(rec bankerr.Record) {
	h.mu.Lock()
	entries := make([]callbackEntry, len(h.callbacks[rec.Category]))
	copy(entries, h.callbacks[rec.Category])
	h.mu.Unlock()

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func(fn Callback) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					h.logger.Error("error callback panicked", "panic", r, "category", rec.Category)
				}
			}()
			fn(rec)
		}(entry.fn)
	}
	wg.Wait()
}

// showErrorNotification emits the user-facing alert with severity-driven
// persistence: high stays until dismissed and survives click-away, medium
// auto-hides after 7s, everything else after 5s.
func (h *Handler) showErrorNotification(rec bankerr.Record) {
	if h.notifier == nil {
		return
	}

	opts := notify.Options{Variant: notify.VariantError, AutoHide: 5 * time.Second}
	switch rec.Severity {
	case taxonomy.SeverityHigh:
		opts.AutoHide = 0
		opts.Sticky = true
	case taxonomy.SeverityMedium:
		opts.AutoHide = 7 * time.Second
	}
	h.notifier.Notify(rec.Message, opts)
}

// Close cancels any scheduled tasks (status-check pollers) still running.
func (h *Handler) Close() {
	h.tasks.stopAll()
}
