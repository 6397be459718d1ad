// Package bankerr defines the typed representation of classified bank
// failures. A single Exception struct with a Kind discriminant replaces a
// class hierarchy: category, severity and the default message are fixed per
// kind in a behavior table and never change after construction.
package bankerr

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/corretorsys/bankcore/taxonomy"
)

// Kind discriminates the exception variants.
type Kind string

const (
	KindConnection         Kind = "connection"
	KindAuthentication     Kind = "authentication"
	KindValidation         Kind = "validation"
	KindTimeout            Kind = "timeout"
	KindRateLimit          Kind = "rate_limit"
	KindData               Kind = "data"
	KindPermission         Kind = "permission"
	KindServiceUnavailable Kind = "service_unavailable"
	KindPayment            Kind = "payment"
)

// Details carries free-form structured context for an exception. Keys used
// by accessors: retryAfter, invalidFields, requiredPermissions,
// estimatedDowntime, transactionId, paymentStatus, failureReason.
type Details map[string]any

type kindSpec struct {
	category       taxonomy.Category
	severity       taxonomy.Severity
	defaultMessage string
}

// Category and severity per kind are construction-time constants.
// KindRateLimit keeps category TIMEOUT: the system it integrates with has
// always reported rate limits under TIMEOUT, and downstream dispatch relies
// on that.
var kindSpecs = map[Kind]kindSpec{
	KindConnection:         {taxonomy.CategoryConnection, taxonomy.SeverityHigh, "Erro de conexão com o banco"},
	KindAuthentication:     {taxonomy.CategoryAuthentication, taxonomy.SeverityHigh, "Erro de autenticação"},
	KindValidation:         {taxonomy.CategoryValidation, taxonomy.SeverityMedium, "Erro de validação"},
	KindTimeout:            {taxonomy.CategoryTimeout, taxonomy.SeverityHigh, "Operação excedeu o tempo limite"},
	KindRateLimit:          {taxonomy.CategoryTimeout, taxonomy.SeverityMedium, "Taxa de requisições excedida"},
	KindData:               {taxonomy.CategoryValidation, taxonomy.SeverityMedium, "Dados inválidos ou mal formatados"},
	KindPermission:         {taxonomy.CategoryAuthentication, taxonomy.SeverityHigh, "Permissão negada"},
	KindServiceUnavailable: {taxonomy.CategoryConnection, taxonomy.SeverityHigh, "Serviço temporariamente indisponível"},
	KindPayment:            {taxonomy.CategoryPayment, taxonomy.SeverityHigh, "Erro no processamento do pagamento"},
}

// Exception is a classified bank failure. Construct it through New or the
// per-kind constructors; the fields are treated as immutable afterwards.
type Exception struct {
	Kind       Kind
	BankName   string
	Message    string
	Category   taxonomy.Category
	Severity   taxonomy.Severity
	Timestamp  time.Time
	Details    Details
	ErrorCode  string
	CommonCode taxonomy.CommonCode
}

// Option configures construction of an Exception.
type Option func(*buildOptions)

type buildOptions struct {
	message string
	details Details
	code    string
}

// WithMessage supplies a caller message. A taxonomy entry resolved from the
// bank code still takes precedence over it.
func WithMessage(message string) Option {
	return func(o *buildOptions) { o.message = message }
}

// WithDetails attaches structured context to the exception.
func WithDetails(details Details) Option {
	return func(o *buildOptions) { o.details = details }
}

// WithCode supplies the bank-specific error code. When the code is known to
// the taxonomy, its message and common code override whatever the caller
// passed.
func WithCode(code string) Option {
	return func(o *buildOptions) { o.code = code }
}

// New builds an exception of the given kind. Message resolution order:
// taxonomy entry for the bank code, then the caller message, then the
// kind's default, then "Unknown bank error".
func New(kind Kind, bankName string, opts ...Option) *Exception {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}

	spec := kindSpecs[kind]

	message := o.message
	var common taxonomy.CommonCode
	if o.code != "" {
		if entry, ok := taxonomy.Lookup(bankName, o.code); ok {
			message = entry.Message
		}
		if cc, ok := taxonomy.CommonCodeFor(bankName, o.code); ok {
			common = cc
		}
	}
	if message == "" {
		message = spec.defaultMessage
	}
	if message == "" {
		message = "Unknown bank error"
	}

	return &Exception{
		Kind:       kind,
		BankName:   bankName,
		Message:    message,
		Category:   spec.category,
		Severity:   spec.severity,
		Timestamp:  time.Now(),
		Details:    o.details,
		ErrorCode:  o.code,
		CommonCode: common,
	}
}

func NewConnection(bankName string, opts ...Option) *Exception {
	return New(KindConnection, bankName, opts...)
}

func NewAuthentication(bankName string, opts ...Option) *Exception {
	return New(KindAuthentication, bankName, opts...)
}

func NewValidation(bankName string, opts ...Option) *Exception {
	return New(KindValidation, bankName, opts...)
}

func NewTimeout(bankName string, opts ...Option) *Exception {
	return New(KindTimeout, bankName, opts...)
}

func NewRateLimit(bankName string, opts ...Option) *Exception {
	return New(KindRateLimit, bankName, opts...)
}

func NewData(bankName string, opts ...Option) *Exception {
	return New(KindData, bankName, opts...)
}

func NewPermission(bankName string, opts ...Option) *Exception {
	return New(KindPermission, bankName, opts...)
}

func NewServiceUnavailable(bankName string, opts ...Option) *Exception {
	return New(KindServiceUnavailable, bankName, opts...)
}

func NewPayment(bankName string, opts ...Option) *Exception {
	return New(KindPayment, bankName, opts...)
}

func (e *Exception) Error() string {
	return e.Message
}

// String renders "[SEVERITY] bank - CATEGORY: message".
func (e *Exception) String() string {
	return fmt.Sprintf("[%s] %s - %s: %s",
		strings.ToUpper(string(e.Severity)), e.BankName, e.Category, e.Message)
}

// AsException unwraps err into an *Exception when one is in the chain.
func AsException(err error) (*Exception, bool) {
	var exc *Exception
	ok := errors.As(err, &exc)
	return exc, ok
}

// RetryAfter is the recommended wait before retrying a rate-limited call.
// Numeric detail values are interpreted as milliseconds. Defaults to one
// minute.
func (e *Exception) RetryAfter() time.Duration {
	if d, ok := e.detailDuration("retryAfter"); ok {
		return d
	}
	return time.Minute
}

// InvalidFields lists the fields rejected by the bank, empty when unknown.
func (e *Exception) InvalidFields() []string {
	return e.detailStrings("invalidFields")
}

// RequiredPermissions lists the permissions the caller is missing.
func (e *Exception) RequiredPermissions() []string {
	return e.detailStrings("requiredPermissions")
}

// EstimatedDowntime is how long the bank is expected to stay unavailable.
// Numeric detail values are interpreted as minutes. Defaults to 30 minutes.
func (e *Exception) EstimatedDowntime() time.Duration {
	if raw, ok := e.Details["estimatedDowntime"]; ok {
		if d, ok := raw.(time.Duration); ok {
			return d
		}
		if n, ok := toFloat(raw); ok {
			return time.Duration(n * float64(time.Minute))
		}
	}
	return 30 * time.Minute
}

func (e *Exception) detailDuration(key string) (time.Duration, bool) {
	raw, ok := e.Details[key]
	if !ok {
		return 0, false
	}
	if d, ok := raw.(time.Duration); ok {
		return d, true
	}
	if n, ok := toFloat(raw); ok {
		return time.Duration(n * float64(time.Millisecond)), true
	}
	return 0, false
}

func (e *Exception) detailString(key string) string {
	if s, ok := e.Details[key].(string); ok {
		return s
	}
	return ""
}

func (e *Exception) detailStrings(key string) []string {
	switch v := e.Details[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
