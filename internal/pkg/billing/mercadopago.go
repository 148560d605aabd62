package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LucasFarias/ZapLink/internal/pkg/env"
)

const defaultMercadoPagoAPIBaseURL = "https://api.mercadopago.com"

// MercadoPagoClient talks to the Mercado Pago REST API. All calls carry a
// bounded timeout via the underlying HTTP client; the webhook handler relies
// on provider redelivery instead of retrying locally.
type MercadoPagoClient struct {
	AccessToken string
	APIBaseURL  string

	HTTPClient *http.Client
}

func NewMercadoPagoClientFromEnv() *MercadoPagoClient {
	return &MercadoPagoClient{
		AccessToken: strings.TrimSpace(env.GetEnv("MP_ACCESS_TOKEN", "")),
		APIBaseURL:  strings.TrimRight(env.GetEnv("MP_API_BASE_URL", defaultMercadoPagoAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// mpPayment mirrors the fields of GET /v1/payments/{id} we rely on. The
// payment id is numeric in the API but handled as a string everywhere else.
type mpPayment struct {
	ID                json.Number `json:"id"`
	Status            string      `json:"status"`
	TransactionAmount float64     `json:"transaction_amount"`
	ExternalReference string      `json:"external_reference"`
}

// GetPayment fetches the authoritative payment object by provider id.
func (c *MercadoPagoClient) GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("MP_ACCESS_TOKEN is not configured")
	}
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, errors.New("payment id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.APIBaseURL+"/v1/payments/"+id, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago payment fetch failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out mpPayment
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if out.ID.String() == "" {
		return nil, errors.New("mercadopago payment response has no id")
	}
	return &PaymentInfo{
		ID:                out.ID.String(),
		Status:            strings.ToLower(strings.TrimSpace(out.Status)),
		TransactionAmount: out.TransactionAmount,
		ExternalReference: strings.TrimSpace(out.ExternalReference),
	}, nil
}

// CreatePreference creates a hosted checkout preference and returns it.
// An X-Idempotency-Key is attached so a retried call cannot create two
// preferences for the same click.
func (c *MercadoPagoClient) CreatePreference(ctx context.Context, pref PreferenceRequest) (*Preference, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("MP_ACCESS_TOKEN is not configured")
	}
	if len(pref.Items) == 0 {
		return nil, errors.New("preference needs at least one item")
	}

	payload, err := json.Marshal(pref)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.APIBaseURL+"/checkout/preferences", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Idempotency-Key", uuid.NewString())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("mercadopago preference create failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	var out Preference
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	if strings.TrimSpace(out.InitPoint) == "" {
		return nil, errors.New("mercadopago preference response has no init_point")
	}
	return &out, nil
}
