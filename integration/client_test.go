package integration_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/integration"
	"github.com/corretorsys/bankcore/taxonomy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSink struct {
	mu   sync.Mutex
	errs []error
}

func (s *recordingSink) Handle(_ context.Context, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errs = append(s.errs, err)
}

func (s *recordingSink) All() []error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]error(nil), s.errs...)
}

func newTestClient(t *testing.T, baseURL string, sink *recordingSink) (*integration.Client, *[]time.Duration) {
	t.Helper()

	opts := []integration.ClientOption{}
	if sink != nil {
		opts = append(opts, integration.WithSink(sink))
	}
	client := integration.NewClient(integration.Config{
		BankName:   "Banco do Brasil",
		BaseURL:    baseURL,
		RetryDelay: time.Second,
	}, opts...)

	var delays []time.Duration
	client.SetSleepFunc(func(_ context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	})
	return client, &delays
}

func TestDo_DecodesSuccessResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/contas/123/saldo", r.URL.Path)
		w.Write([]byte(`{"saldoDisponivel": 150.5}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	var out struct {
		Disponivel float64 `json:"saldoDisponivel"`
	}
	err := client.Do(context.Background(), integration.RequestSpec{
		Method: "GET",
		Path:   "/contas/123/saldo",
	}, &out)

	require.NoError(t, err)
	assert.Equal(t, 150.5, out.Disponivel)
}

func TestDo_ValidationFailureIsNotRetried(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"validationErrors": ["valor obrigatório"]}`))
	}))
	defer srv.Close()

	sink := &recordingSink{}
	client, delays := newTestClient(t, srv.URL, sink)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "POST", Path: "/transferencias"}, nil)

	require.Error(t, err)
	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindValidation, exc.Kind)
	assert.Equal(t, "Dados inválidos", exc.Message)
	assert.Equal(t, []any{"valor obrigatório"}, exc.Details["validationErrors"])

	assert.Equal(t, 1, hits)
	assert.Empty(t, *delays)
	assert.Len(t, sink.All(), 1)
}

func TestDo_ValidationKeepsForeignPayloadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"erros": [{"campo": "valor", "mensagem": "obrigatório"}]}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "POST", Path: "/transferencias"}, nil)

	require.Error(t, err)
	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindValidation, exc.Kind)
	assert.Equal(t, map[string]any{
		"erros": []any{map[string]any{"campo": "valor", "mensagem": "obrigatório"}},
	}, exc.Details["validationErrors"])
}

func TestDo_ConnectionFailureRetriesWithBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse all connections

	sink := &recordingSink{}
	client, delays := newTestClient(t, srv.URL, sink)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "GET", Path: "/saldo"}, nil)

	require.Error(t, err)
	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindConnection, exc.Kind)
	assert.Equal(t, "Erro de conexão com o banco", exc.Message)
	assert.NotEmpty(t, exc.Details["originalError"])

	// Three attempts, two backoffs doubling from the base delay.
	assert.Len(t, sink.All(), 3)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, *delays)
}

func TestDo_KnownBankCodeWinsOverStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errorCode": "BB-ACC-002", "details": "conta 123"}`))
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "POST", Path: "/transferencias"}, nil)

	require.Error(t, err)
	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, "BB-ACC-002", exc.ErrorCode)
	assert.Equal(t, "Saldo insuficiente", exc.Message)
	assert.Equal(t, taxonomy.CodeInsufficientFunds, exc.CommonCode)
	assert.Equal(t, "conta 123", exc.Details["details"])
}

func TestDo_UnauthorizedIsTerminal(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "GET", Path: "/saldo"}, nil)

	require.Error(t, err)
	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindAuthentication, exc.Kind)
	assert.Equal(t, "Erro de autenticação", exc.Message)
	assert.Equal(t, 1, hits)
}

func TestDo_RateLimitCarriesRetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "GET", Path: "/saldo"}, nil)

	require.Error(t, err)
	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindRateLimit, exc.Kind)
	assert.Equal(t, 2*time.Second, exc.RetryAfter())
}

func TestDo_ServiceUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "GET", Path: "/saldo"}, nil)

	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindServiceUnavailable, exc.Kind)
	assert.Equal(t, "Serviço temporariamente indisponível", exc.Message)
}

func TestDo_UnknownStatusMapsToConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client, _ := newTestClient(t, srv.URL, nil)

	err := client.Do(context.Background(), integration.RequestSpec{Method: "GET", Path: "/saldo"}, nil)

	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, bankerr.KindConnection, exc.Kind)
	assert.Equal(t, "Erro na comunicação com o banco", exc.Message)
	assert.Equal(t, http.StatusBadGateway, exc.Details["statusCode"])
	assert.Equal(t, "Bad Gateway", exc.Details["statusText"])
}

func TestBancoDoBrasil_SendsCredentialHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "chave-123", r.Header.Get("X-Chave-J"))
		assert.Equal(t, "cert-456", r.Header.Get("X-Certificado"))
		w.Write([]byte(`{"saldoDisponivel": 10}`))
	}))
	defer srv.Close()

	bb := integration.NewBancoDoBrasil(integration.Config{BaseURL: srv.URL},
		integration.BBCredentials{ChaveJ: "chave-123", Certificado: "cert-456"})

	saldo, err := bb.ConsultarSaldo(context.Background(), "0001")
	require.NoError(t, err)
	assert.Equal(t, 10.0, saldo.Disponivel)
}

func TestBancoDoBrasil_NestedErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"erro": {"codigo": "BB-AUTH-001"}, "origemErro": "gateway"}`))
	}))
	defer srv.Close()

	bb := integration.NewBancoDoBrasil(
		integration.Config{BaseURL: srv.URL, RetryAttempts: 1},
		integration.BBCredentials{ChaveJ: "c", Certificado: "c"})

	_, err := bb.VerificarStatus(context.Background(), "TX1")

	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, "BB-AUTH-001", exc.ErrorCode)
	assert.Equal(t, "Credenciais inválidas", exc.Message)
	assert.Equal(t, "gateway", exc.Details["origemErro"])
}

func TestItau_SendsBearerToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token-789", r.Header.Get("Authorization"))
		assert.Equal(t, "/pix/TX9", r.URL.Path)
		w.Write([]byte(`{"txid": "TX9", "status": "CONCLUIDO", "valor": 25.5}`))
	}))
	defer srv.Close()

	itau := integration.NewItau(integration.Config{BaseURL: srv.URL}, "token-789")

	pix, err := itau.ConsultarPix(context.Background(), "TX9")
	require.NoError(t, err)
	assert.Equal(t, "CONCLUIDO", pix.Status)
	assert.Equal(t, 25.5, pix.Valor)
}

func TestItau_ErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"codigo": "ITAU-SYS-001", "mensagem": "core bancário fora do ar", "area": "pix"}`))
	}))
	defer srv.Close()

	itau := integration.NewItau(
		integration.Config{BaseURL: srv.URL, RetryAttempts: 1},
		"token-789")

	_, err := itau.EnviarPix(context.Background(), integration.PixRequest{Chave: "a@b.com", Valor: 10})

	exc, ok := bankerr.AsException(err)
	require.True(t, ok)
	assert.Equal(t, "ITAU-SYS-001", exc.ErrorCode)
	assert.Equal(t, "Sistema indisponível", exc.Message)
	assert.Equal(t, taxonomy.CodeServiceUnavailable, exc.CommonCode)
	assert.Equal(t, "core bancário fora do ar", exc.Details["mensagem"])
	assert.Equal(t, "pix", exc.Details["area"])
}
