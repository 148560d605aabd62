package billing

// PaymentInfo is the authoritative payment object re-fetched from the
// provider. Webhook bodies are treated as bare pointers; amount, status and
// the account reference are only ever taken from this struct.
type PaymentInfo struct {
	ID                string
	Status            string
	TransactionAmount float64
	ExternalReference string
}

// PreferenceItem is a single line item of a checkout preference.
type PreferenceItem struct {
	ID         string  `json:"id"`
	Title      string  `json:"title"`
	Quantity   int     `json:"quantity"`
	UnitPrice  float64 `json:"unit_price"`
	CurrencyID string  `json:"currency_id"`
}

// PreferenceBackURLs are the redirect targets after checkout.
type PreferenceBackURLs struct {
	Success string `json:"success"`
	Failure string `json:"failure"`
	Pending string `json:"pending"`
}

// PreferenceRequest is the outbound checkout request sent to Mercado Pago.
// ExternalReference carries the local account id; the webhook ingestor reads
// it back from the fetched payment to correlate payment and account.
type PreferenceRequest struct {
	Items             []PreferenceItem   `json:"items"`
	Payer             PreferencePayer    `json:"payer"`
	ExternalReference string             `json:"external_reference"`
	Metadata          map[string]any     `json:"metadata,omitempty"`
	BackURLs          PreferenceBackURLs `json:"back_urls"`
	AutoReturn        string             `json:"auto_return,omitempty"`
	NotificationURL   string             `json:"notification_url,omitempty"`
}

type PreferencePayer struct {
	Email string `json:"email"`
}

// Preference is the provider response to a created checkout preference.
type Preference struct {
	ID               string `json:"id"`
	InitPoint        string `json:"init_point"`
	SandboxInitPoint string `json:"sandbox_init_point"`
}
