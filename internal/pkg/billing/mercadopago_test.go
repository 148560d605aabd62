package billing

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(baseURL string) *MercadoPagoClient {
	return &MercadoPagoClient{
		AccessToken: "test-token",
		APIBaseURL:  baseURL,
		HTTPClient:  &http.Client{Timeout: 2 * time.Second},
	}
}

func TestGetPayment(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payments/123" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": 123,
			"status": "Approved",
			"transaction_amount": 49.9,
			"external_reference": " 7 "
		}`))
	}))
	defer srv.Close()

	info, err := newTestClient(srv.URL).GetPayment(context.Background(), "123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.ID != "123" {
		t.Fatalf("id = %q", info.ID)
	}
	if info.Status != "approved" {
		t.Fatalf("status = %q, want normalized %q", info.Status, "approved")
	}
	if info.TransactionAmount != 49.9 {
		t.Fatalf("amount = %v", info.TransactionAmount)
	}
	if info.ExternalReference != "7" {
		t.Fatalf("reference = %q, want trimmed %q", info.ExternalReference, "7")
	}
}

func TestGetPaymentUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"message":"payment not found"}`))
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).GetPayment(context.Background(), "999"); err == nil {
		t.Fatalf("expected error on upstream 404")
	}
}

func TestGetPaymentRequiresConfiguration(t *testing.T) {
	c := &MercadoPagoClient{HTTPClient: http.DefaultClient}
	if _, err := c.GetPayment(context.Background(), "1"); err == nil {
		t.Fatalf("expected error without access token")
	}

	c = newTestClient("http://unused")
	if _, err := c.GetPayment(context.Background(), "  "); err == nil {
		t.Fatalf("expected error without payment id")
	}
}

func TestCreatePreference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/checkout/preferences" || r.Method != http.MethodPost {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("X-Idempotency-Key") == "" {
			t.Errorf("missing idempotency key")
		}

		var got PreferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad body: %v", err)
		}
		if got.ExternalReference != "7" {
			t.Errorf("external reference = %q", got.ExternalReference)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"pref-1","init_point":"https://mp.example/init"}`))
	}))
	defer srv.Close()

	pref, err := newTestClient(srv.URL).CreatePreference(context.Background(), PreferenceRequest{
		Items:             []PreferenceItem{{ID: "zaplink-pro", Title: "ZapLink Pro (3 meses)", Quantity: 1, UnitPrice: 49.90, CurrencyID: "BRL"}},
		Payer:             PreferencePayer{Email: "loja@example.com"},
		ExternalReference: "7",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pref.InitPoint != "https://mp.example/init" {
		t.Fatalf("init point = %q", pref.InitPoint)
	}
}

func TestCreatePreferenceRejectsEmptyItems(t *testing.T) {
	if _, err := newTestClient("http://unused").CreatePreference(context.Background(), PreferenceRequest{}); err == nil {
		t.Fatalf("expected error for empty items")
	}
}
