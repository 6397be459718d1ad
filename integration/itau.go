package integration

import (
	"context"

	"github.com/corretorsys/bankcore/bankerr"
)

// Itau wraps the Itaú API. Authentication is a bearer token issued by the
// bank's OAuth flow.
type Itau struct {
	client *Client
}

func NewItau(cfg Config, accessToken string, opts ...ClientOption) *Itau {
	cfg.BankName = "Itau"
	if cfg.Headers == nil {
		cfg.Headers = map[string]string{}
	}
	cfg.Headers["Authorization"] = "Bearer " + accessToken

	opts = append([]ClientOption{WithAdapter(itauAdapter{})}, opts...)
	return &Itau{client: NewClient(cfg, opts...)}
}

// Pix is the bank's view of an instant payment.
type Pix struct {
	TxID   string  `json:"txid"`
	Status string  `json:"status"`
	Valor  float64 `json:"valor"`
}

// PixRequest initiates an instant payment.
type PixRequest struct {
	Chave string  `json:"chave"`
	Valor float64 `json:"valor"`
	Info  string  `json:"infoPagador,omitempty"`
}

func (i *Itau) EnviarPix(ctx context.Context, req PixRequest) (Pix, error) {
	var out Pix
	err := i.client.Do(ctx, RequestSpec{
		Method: "POST",
		Path:   "/pix",
		Body:   req,
	}, &out)
	return out, err
}

func (i *Itau) ConsultarPix(ctx context.Context, txid string) (Pix, error) {
	var out Pix
	err := i.client.Do(ctx, RequestSpec{
		Method: "GET",
		Path:   "/pix/" + txid,
	}, &out)
	return out, err
}

// itauAdapter reads the Itaú error envelope: a codigo field at the top
// level, with context under mensagem and area.
type itauAdapter struct{}

func (itauAdapter) ExtractCode(body map[string]any) string {
	if v, ok := body["codigo"].(string); ok && v != "" {
		return v
	}
	return ""
}

func (itauAdapter) ExtractDetails(body map[string]any) bankerr.Details {
	details := bankerr.Details{}
	for _, key := range []string{"mensagem", "area"} {
		if v, ok := body[key]; ok {
			details[key] = v
		}
	}
	return details
}
