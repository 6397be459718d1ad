// Package integration is the outbound HTTP layer for bank APIs. Every failed
// request is classified into a bank exception and pushed through the
// configured sink before the client decides whether to retry.
package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/taxonomy"
)

// Config carries the per-bank connection settings.
type Config struct {
	BankName      string
	BaseURL       string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	Headers       map[string]string
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = 3
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = time.Second
	}
	return c
}

// ErrorAdapter extracts bank-specific error details from a failed response
// body. Each bank publishes its own envelope; the adapter knows where the
// code and the useful context live.
type ErrorAdapter interface {
	ExtractCode(body map[string]any) string
	ExtractDetails(body map[string]any) bankerr.Details
}

// ExceptionSink receives every classified failure, typically the global
// error handler. Handle is called once per failed attempt.
type ExceptionSink interface {
	Handle(ctx context.Context, err error)
}

// RequestSpec describes one bank API call.
type RequestSpec struct {
	Method  string
	Path    string
	Query   url.Values
	Body    any
	Headers map[string]string
}

// Client issues requests against one bank with retry and classification.
type Client struct {
	cfg     Config
	http    *http.Client
	adapter ErrorAdapter
	sink    ExceptionSink
	logger  *slog.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// ClientOption configures a Client.
type ClientOption func(*Client)

func WithAdapter(adapter ErrorAdapter) ClientOption {
	return func(c *Client) { c.adapter = adapter }
}

func WithSink(sink ExceptionSink) ClientOption {
	return func(c *Client) { c.sink = sink }
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) { c.http = httpClient }
}

func NewClient(cfg Config, opts ...ClientOption) *Client {
	cfg = cfg.withDefaults()
	c := &Client{
		cfg:     cfg,
		adapter: baseAdapter{},
		logger:  slog.Default(),
		sleep:   sleepCtx,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.http == nil {
		c.http = &http.Client{Timeout: cfg.Timeout}
	}
	return c
}

// terminalKinds are failures where repeating the same request cannot
// succeed without caller intervention.
var terminalKinds = map[bankerr.Kind]bool{
	bankerr.KindAuthentication: true,
	bankerr.KindValidation:     true,
	bankerr.KindPermission:     true,
}

// Do performs the request, decoding a 2xx JSON response into out (which may
// be nil). Failed attempts are classified, pushed to the sink, and retried
// with exponential backoff unless the failure is terminal.
func (c *Client) Do(ctx context.Context, spec RequestSpec, out any) error {
	var lastExc *bankerr.Exception

	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		exc := c.attempt(ctx, spec, out)
		if exc == nil {
			return nil
		}
		lastExc = exc

		c.logger.Warn("bank request failed",
			"bank", c.cfg.BankName,
			"path", spec.Path,
			"attempt", attempt,
			"error", exc.Message)

		if c.sink != nil {
			c.sink.Handle(ctx, exc)
		}
		if terminalKinds[exc.Kind] || attempt == c.cfg.RetryAttempts {
			break
		}

		delay := c.cfg.RetryDelay * time.Duration(1<<(attempt-1))
		if err := c.sleep(ctx, delay); err != nil {
			return err
		}
	}
	return lastExc
}

func (c *Client) attempt(ctx context.Context, spec RequestSpec, out any) *bankerr.Exception {
	req, err := c.buildRequest(ctx, spec)
	if err != nil {
		return bankerr.NewValidation(c.cfg.BankName,
			bankerr.WithMessage("Dados inválidos"),
			bankerr.WithDetails(bankerr.Details{"originalError": err.Error()}))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return bankerr.NewConnection(c.cfg.BankName,
			bankerr.WithMessage("Erro de conexão com o banco"),
			bankerr.WithDetails(bankerr.Details{"originalError": err.Error()}))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return bankerr.NewConnection(c.cfg.BankName,
			bankerr.WithMessage("Erro de conexão com o banco"),
			bankerr.WithDetails(bankerr.Details{"originalError": err.Error()}))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return bankerr.NewData(c.cfg.BankName,
				bankerr.WithMessage("Dados inválidos ou mal formatados"),
				bankerr.WithDetails(bankerr.Details{"originalError": err.Error()}))
		}
		return nil
	}

	return c.classify(resp, raw, spec)
}

func (c *Client) buildRequest(ctx context.Context, spec RequestSpec) (*http.Request, error) {
	target := strings.TrimRight(c.cfg.BaseURL, "/") + spec.Path
	if len(spec.Query) > 0 {
		target += "?" + spec.Query.Encode()
	}

	var body io.Reader
	if spec.Body != nil {
		encoded, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, spec.Method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range spec.Headers {
		req.Header.Set(k, v)
	}
	return req, nil
}

// classify turns a non-2xx response into a typed exception. A bank error
// code known to the registry wins over the status-based mapping.
func (c *Client) classify(resp *http.Response, raw []byte, spec RequestSpec) *bankerr.Exception {
	var body map[string]any
	if len(raw) > 0 {
		// A non-JSON error body still classifies by status below.
		_ = json.Unmarshal(raw, &body)
	}

	if code := c.adapter.ExtractCode(body); code != "" && taxonomy.HasCode(c.cfg.BankName, code) {
		return bankerr.NewConnection(c.cfg.BankName,
			bankerr.WithCode(code),
			bankerr.WithDetails(c.adapter.ExtractDetails(body)))
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return bankerr.NewAuthentication(c.cfg.BankName,
			bankerr.WithMessage("Erro de autenticação"),
			bankerr.WithDetails(bankerr.Details{"statusCode": resp.StatusCode}))
	case http.StatusNotFound:
		return bankerr.NewData(c.cfg.BankName,
			bankerr.WithMessage("Recurso não encontrado"),
			bankerr.WithDetails(bankerr.Details{"path": spec.Path}))
	case http.StatusUnprocessableEntity:
		details := bankerr.Details{}
		if body != nil {
			// Banks that use another key still get their payload surfaced.
			if v, ok := body["validationErrors"]; ok {
				details["validationErrors"] = v
			} else {
				details["validationErrors"] = body
			}
		}
		return bankerr.NewValidation(c.cfg.BankName,
			bankerr.WithMessage("Dados inválidos"),
			bankerr.WithDetails(details))
	case http.StatusTooManyRequests:
		details := bankerr.Details{}
		if ms, ok := retryAfterMillis(resp.Header.Get("Retry-After")); ok {
			details["retryAfter"] = ms
		}
		return bankerr.NewRateLimit(c.cfg.BankName,
			bankerr.WithMessage("Limite de requisições excedida"),
			bankerr.WithDetails(details))
	case http.StatusRequestTimeout:
		return bankerr.NewTimeout(c.cfg.BankName,
			bankerr.WithMessage("Tempo limite excedido"),
			bankerr.WithDetails(bankerr.Details{"timeout": c.cfg.Timeout.Milliseconds()}))
	case http.StatusServiceUnavailable:
		return bankerr.NewServiceUnavailable(c.cfg.BankName,
			bankerr.WithDetails(bankerr.Details{"statusCode": resp.StatusCode}))
	default:
		return bankerr.NewConnection(c.cfg.BankName,
			bankerr.WithMessage("Erro na comunicação com o banco"),
			bankerr.WithDetails(bankerr.Details{
				"statusCode": resp.StatusCode,
				"statusText": http.StatusText(resp.StatusCode),
			}))
	}
}

// retryAfterMillis parses a Retry-After header given in seconds into
// milliseconds, matching the unit the retryAfter detail is read in.
func retryAfterMillis(header string) (int64, bool) {
	if header == "" {
		return 0, false
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(header), 10, 64)
	if err != nil || secs < 0 {
		return 0, false
	}
	return secs * 1000, true
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// baseAdapter covers the common envelope shapes banks use when no
// bank-specific adapter is configured.
type baseAdapter struct{}

func (baseAdapter) ExtractCode(body map[string]any) string {
	for _, key := range []string{"errorCode", "code", "error_code"} {
		if v, ok := body[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (baseAdapter) ExtractDetails(body map[string]any) bankerr.Details {
	details := bankerr.Details{}
	for _, key := range []string{"details", "message", "timestamp"} {
		if v, ok := body[key]; ok {
			details[key] = v
		}
	}
	return details
}
