package controllers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/internal/pkg/entitlements"
	"github.com/LucasFarias/ZapLink/internal/pkg/quota"
)

func TestNormalizeWhatsApp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"+55 (11) 91234-5678", "5511912345678"},
		{"5511912345678", "5511912345678"},
		{"55 11 9 1234 5678", "5511912345678"},
		{"abc", ""},
		{"", ""},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, normalizeWhatsApp(tc.in), "input %q", tc.in)
	}
}

func TestNormalizeSlug(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "minha-loja", normalizeSlug("  Minha-Loja "))
	assert.Equal(t, "joao", normalizeSlug("JOAO"))
}

func TestQuotaMessage(t *testing.T) {
	t.Parallel()

	assert.Contains(t, quotaMessage(quota.ReasonLimitReached), "limite de 5 links")
	assert.Contains(t, quotaMessage(quota.ReasonPlanExpired), "expirou")
}

func TestProductWhatsAppURL(t *testing.T) {
	t.Parallel()

	got := productWhatsAppURL("5511912345678", "Bolo de pote")
	assert.Equal(t, "https://wa.me/5511912345678?text=Ol%C3%A1%21+Tenho+interesse+em%3A+Bolo+de+pote", got)
}

func TestBillingSummary(t *testing.T) {
	t.Parallel()

	paid := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)
	latest := &models.Payment{ID: 1, ExternalID: "mp-123", Amount: 49.90, Status: models.PAYMENT_STATUS_APPROVED, UserID: 7, CreatedAt: paid}
	history := []models.Payment{*latest}

	// Paid Pro: pro_until is the end of the 3-month window.
	got := billingSummary(models.PLAN_LIFETIME, latest, history)
	assert.Equal(t, entitlements.ExpiryOf(paid), got["pro_until"])
	assert.Equal(t, history, got["payments"])

	// Administrative grant: LIFETIME with no payment behind it never expires.
	got = billingSummary(models.PLAN_LIFETIME, nil, nil)
	assert.Nil(t, got["pro_until"])
	assert.Equal(t, []models.Payment{}, got["payments"])

	// Free account: no expiry even when old payments exist in the ledger.
	got = billingSummary(models.PLAN_FREE, nil, history)
	assert.Nil(t, got["pro_until"])
}
