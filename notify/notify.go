// Package notify is the bridge between the error pipeline and the UI layer:
// a single-list pub/sub that turns classified errors and other application
// events into transient user-facing alerts.
package notify

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/taxonomy"
)

// Variant selects the visual style of an alert.
type Variant string

const (
	VariantSuccess Variant = "success"
	VariantError   Variant = "error"
	VariantWarning Variant = "warning"
	VariantInfo    Variant = "info"
)

// Options controls how an alert is displayed. AutoHide zero means the alert
// stays until dismissed; Sticky additionally makes it survive click-away.
type Options struct {
	Variant  Variant
	AutoHide time.Duration
	Sticky   bool
}

// Payload is what every subscriber receives.
type Payload struct {
	Message string
	Options Options
}

// Listener receives alert payloads. Listeners run synchronously on the
// notifying goroutine, in subscription order.
type Listener func(Payload)

// Service is the subscriber registry. The zero value is not usable;
// construct with NewService or use Default.
type Service struct {
	mu      sync.Mutex
	nextID  int
	entries []subscription
	logger  *slog.Logger
}

type subscription struct {
	id int
	fn Listener
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

var (
	defaultOnce    sync.Once
	defaultService *Service
)

// Default is the process-wide service, created on first use. Hosts that
// serve more than one user session should construct and pass their own
// Service instead.
func Default() *Service {
	defaultOnce.Do(func() {
		defaultService = NewService(nil)
	})
	return defaultService
}

// Subscribe registers a listener and returns its unsubscribe func.
// Unsubscribing twice is a no-op.
func (s *Service) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, subscription{id: id, fn: fn})

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, entry := range s.entries {
			if entry.id == id {
				s.entries = append(s.entries[:i], s.entries[i+1:]...)
				return
			}
		}
	}
}

// Notify delivers the payload to every current subscriber, in subscription
// order. A panicking listener is isolated so its siblings still run.
func (s *Service) Notify(message string, opts Options) {
	s.mu.Lock()
	snapshot := make([]subscription, len(s.entries))
	copy(snapshot, s.entries)
	s.mu.Unlock()

	payload := Payload{Message: message, Options: opts}
	for _, entry := range snapshot {
		s.deliver(entry.fn, payload)
	}
}

func (s *Service) deliver(fn Listener, payload Payload) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("notification listener panicked", "panic", r)
		}
	}()
	fn(payload)
}

// NotifyBankError emits the fixed-format alert for a stored bank error:
// "<SeverityLabel> - <bankName>: <message>" with a 6s auto-hide.
func (s *Service) NotifyBankError(rec bankerr.Record) {
	var variant Variant
	var label string
	switch rec.Severity {
	case taxonomy.SeverityHigh:
		variant, label = VariantError, "Crítico"
	case taxonomy.SeverityMedium:
		variant, label = VariantWarning, "Atenção"
	default:
		variant, label = VariantInfo, "Informação"
	}

	s.Notify(
		fmt.Sprintf("%s - %s: %s", label, rec.BankName, rec.Message),
		Options{Variant: variant, AutoHide: 6 * time.Second},
	)
}

func (s *Service) NotifySuccess(message string, autoHide time.Duration) {
	s.Notify(message, Options{Variant: VariantSuccess, AutoHide: autoHide})
}

func (s *Service) NotifyError(message string, autoHide time.Duration) {
	s.Notify(message, Options{Variant: VariantError, AutoHide: autoHide})
}

func (s *Service) NotifyWarning(message string, autoHide time.Duration) {
	s.Notify(message, Options{Variant: VariantWarning, AutoHide: autoHide})
}

func (s *Service) NotifyInfo(message string, autoHide time.Duration) {
	s.Notify(message, Options{Variant: VariantInfo, AutoHide: autoHide})
}
