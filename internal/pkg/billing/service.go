package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/internal/pkg/env"
)

const (
	proItemID    = "zaplink-pro"
	proItemTitle = "ZapLink Pro (3 meses)"
	proItemPrice = 49.90
	proCurrency  = "BRL"

	mpStatusApproved = "approved"
)

var (
	// ErrMissingPaymentID: the notification body carries no payment id in
	// either accepted shape. Client error, nothing was mutated.
	ErrMissingPaymentID = errors.New("notification has no payment id")
	// ErrPaymentFetch wraps failures of the authoritative provider re-fetch.
	// Surfaced as a server error so the provider redelivers.
	ErrPaymentFetch = errors.New("payment fetch failed")
	// ErrAccountNotFound: checkout requested for a user that does not exist.
	ErrAccountNotFound = errors.New("account not found")
)

// Provider is the outbound Mercado Pago surface the service depends on.
// *MercadoPagoClient implements it; tests substitute fakes.
type Provider interface {
	GetPayment(ctx context.Context, paymentID string) (*PaymentInfo, error)
	CreatePreference(ctx context.Context, pref PreferenceRequest) (*Preference, error)
}

// Outcome is the terminal state of one webhook ingestion.
type Outcome string

const (
	// OutcomeApplied: plan flag set and ledger row present for the payment.
	OutcomeApplied Outcome = "applied"
	// OutcomeIgnored: valid notification, no entitlement change. Covers
	// non-approved payments and references that match no local account.
	OutcomeIgnored Outcome = "ignored"
)

// Service ingests payment webhooks and initiates checkouts.
type Service struct {
	repo     Repository
	provider Provider
}

// NewService creates a billing service from injected collaborators.
func NewService(repo Repository, provider Provider) *Service {
	return &Service{repo: repo, provider: provider}
}

// NewServiceFromDB creates a billing service from a GORM DB handle with the
// env-configured Mercado Pago client.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewRepository(db), NewMercadoPagoClientFromEnv())
}

// notificationBody accepts the two payload shapes Mercado Pago sends:
// {"data":{"id":...}} and {"id":...}, with the id as string or number.
type notificationBody struct {
	Data struct {
		ID json.RawMessage `json:"id"`
	} `json:"data"`
	ID json.RawMessage `json:"id"`
}

// ExtractPaymentID pulls the provider payment id out of a raw webhook body.
// The body is only a pointer; everything else in it is untrusted and unused.
func ExtractPaymentID(body []byte) (string, error) {
	var n notificationBody
	if err := json.Unmarshal(body, &n); err != nil {
		return "", ErrMissingPaymentID
	}
	if id := decodeID(n.Data.ID); id != "" {
		return id, nil
	}
	if id := decodeID(n.ID); id != "" {
		return id, nil
	}
	return "", ErrMissingPaymentID
}

func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

// IngestNotification processes one webhook delivery for the given provider
// payment id. It re-fetches the payment, and for an approved one sets the
// user's plan flag and appends the ledger row atomically. Safe under
// at-least-once and concurrent delivery: the external_id unique index is the
// idempotency guard, not any check in this method.
func (s *Service) IngestNotification(ctx context.Context, paymentID string) (Outcome, error) {
	info, err := s.provider.GetPayment(ctx, paymentID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrPaymentFetch, err)
	}

	log.Infof("[Billing] webhook for payment %s: status=%s", info.ID, info.Status)

	if info.Status != mpStatusApproved {
		return OutcomeIgnored, nil
	}

	// The reference was set by our own checkout, but it travels through the
	// provider and is untrusted on the way back.
	userID, ok := parseUserReference(info.ExternalReference)
	if !ok {
		log.Warnf("[Billing] payment %s has no usable account reference %q", info.ID, info.ExternalReference)
		return OutcomeIgnored, nil
	}
	if _, err := s.repo.FindUserByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			log.Warnf("[Billing] payment %s references unknown account %d", info.ID, userID)
			return OutcomeIgnored, nil
		}
		return "", err
	}

	payment := &models.Payment{
		ExternalID: info.ID,
		Amount:     info.TransactionAmount,
		Status:     models.PAYMENT_STATUS_APPROVED,
		UserID:     userID,
	}
	if err := s.repo.ApplyApprovedPayment(userID, payment); err != nil {
		return "", err
	}

	log.Infof("[Billing] user %d upgraded to %s (payment %s)", userID, models.PLAN_LIFETIME, info.ID)
	return OutcomeApplied, nil
}

func parseUserReference(ref string) (uint, bool) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// CreateCheckout builds the Pro upgrade preference for a user and returns
// the hosted checkout URL.
func (s *Service) CreateCheckout(ctx context.Context, userID uint) (string, error) {
	user, err := s.repo.FindUserByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrAccountNotFound
		}
		return "", err
	}

	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	pref := PreferenceRequest{
		Items: []PreferenceItem{{
			ID:         proItemID,
			Title:      proItemTitle,
			Quantity:   1,
			UnitPrice:  proItemPrice,
			CurrencyID: proCurrency,
		}},
		Payer:             PreferencePayer{Email: user.Email},
		ExternalReference: strconv.FormatUint(uint64(user.ID), 10),
		Metadata:          map[string]any{"user_id": user.ID},
		BackURLs: PreferenceBackURLs{
			Success: base + "/dashboard?success=true",
			Failure: base + "/dashboard?canceled=true",
			Pending: base + "/dashboard?pending=true",
		},
		AutoReturn:      "approved",
		NotificationURL: base + "/api/webhooks/mercadopago",
	}

	created, err := s.provider.CreatePreference(ctx, pref)
	if err != nil {
		return "", err
	}
	return created.InitPoint, nil
}
