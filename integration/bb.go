package integration

import (
	"context"
	"net/url"

	"github.com/corretorsys/bankcore/bankerr"
)

// BancoDoBrasil wraps the Banco do Brasil open-banking API. Requests are
// authenticated with the chave-j and application certificate headers.
type BancoDoBrasil struct {
	client *Client
}

// BBCredentials carries the per-application credentials.
type BBCredentials struct {
	ChaveJ      string
	Certificado string
}

func NewBancoDoBrasil(cfg Config, creds BBCredentials, opts ...ClientOption) *BancoDoBrasil {
	cfg.BankName = "Banco do Brasil"
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	cfg.Headers["X-Chave-J"] = creds.ChaveJ
	cfg.Headers["X-Certificado"] = creds.Certificado

	opts = append([]ClientOption{WithAdapter(bbAdapter{})}, opts...)
	return &BancoDoBrasil{client: NewClient(cfg, opts...)}
}

// Saldo is the account balance response.
type Saldo struct {
	Agencia    string  `json:"agencia"`
	Conta      string  `json:"conta"`
	Disponivel float64 `json:"saldoDisponivel"`
	Bloqueado  float64 `json:"saldoBloqueado"`
}

// TransferenciaRequest describes an outbound transfer.
type TransferenciaRequest struct {
	ContaOrigem  string  `json:"contaOrigem"`
	ContaDestino string  `json:"contaDestino"`
	Valor        float64 `json:"valor"`
	Descricao    string  `json:"descricao,omitempty"`
}

// Transferencia is the bank's acknowledgement of a transfer.
type Transferencia struct {
	TransactionID string `json:"transactionId"`
	Status        string `json:"status"`
}

// Lancamento is one statement entry.
type Lancamento struct {
	Data      string  `json:"data"`
	Descricao string  `json:"descricao"`
	Valor     float64 `json:"valor"`
	Tipo      string  `json:"tipo"`
}

func (b *BancoDoBrasil) ConsultarSaldo(ctx context.Context, conta string) (Saldo, error) {
	var out Saldo
	err := b.client.Do(ctx, RequestSpec{
		Method: "GET",
		Path:   "/contas/" + conta + "/saldo",
	}, &out)
	return out, err
}

func (b *BancoDoBrasil) RealizarTransferencia(ctx context.Context, req TransferenciaRequest) (Transferencia, error) {
	var out Transferencia
	err := b.client.Do(ctx, RequestSpec{
		Method: "POST",
		Path:   "/transferencias",
		Body:   req,
	}, &out)
	return out, err
}

func (b *BancoDoBrasil) ConsultarExtrato(ctx context.Context, conta, inicio, fim string) ([]Lancamento, error) {
	var out []Lancamento
	err := b.client.Do(ctx, RequestSpec{
		Method: "GET",
		Path:   "/contas/" + conta + "/extrato",
		Query:  url.Values{"dataInicio": {inicio}, "dataFim": {fim}},
	}, &out)
	return out, err
}

func (b *BancoDoBrasil) VerificarStatus(ctx context.Context, transactionID string) (Transferencia, error) {
	var out Transferencia
	err := b.client.Do(ctx, RequestSpec{
		Method: "GET",
		Path:   "/transferencias/" + transactionID + "/status",
	}, &out)
	return out, err
}

// bbAdapter reads the Banco do Brasil error envelope. The code may arrive as
// codigoErro at the top level or nested under error.code or erro.codigo
// depending on the API generation.
type bbAdapter struct{}

func (bbAdapter) ExtractCode(body map[string]any) string {
	if v, ok := body["codigoErro"].(string); ok && v != "" {
		return v
	}
	if nested, ok := body["error"].(map[string]any); ok {
		if v, ok := nested["code"].(string); ok && v != "" {
			return v
		}
	}
	if nested, ok := body["erro"].(map[string]any); ok {
		if v, ok := nested["codigo"].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func (bbAdapter) ExtractDetails(body map[string]any) bankerr.Details {
	details := bankerr.Details{}
	for _, key := range []string{"detalhesErro", "origemErro", "timestampBanco"} {
		if v, ok := body[key]; ok {
			details[key] = v
		}
	}
	return details
}
