package billing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
)

type fakeRepository struct {
	mu       sync.Mutex
	users    map[uint]*models.User
	payments map[string]*models.Payment

	applyErr error
}

func newFakeRepository(users ...*models.User) *fakeRepository {
	r := &fakeRepository{
		users:    make(map[uint]*models.User),
		payments: make(map[string]*models.Payment),
	}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeRepository) FindUserByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

// ApplyApprovedPayment mirrors the production semantics: the plan write
// repeats freely, the ledger insert is keyed by external id.
func (r *fakeRepository) ApplyApprovedPayment(userID uint, payment *models.Payment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return r.applyErr
	}
	if u, ok := r.users[userID]; ok {
		u.PlanStatus = models.PLAN_LIFETIME
	}
	if _, exists := r.payments[payment.ExternalID]; !exists {
		p := *payment
		p.CreatedAt = time.Now()
		r.payments[p.ExternalID] = &p
	}
	return nil
}

type fakeProvider struct {
	payments map[string]*PaymentInfo
	fetchErr error

	preference *Preference
	prefErr    error
	lastPref   PreferenceRequest
}

func (p *fakeProvider) GetPayment(_ context.Context, id string) (*PaymentInfo, error) {
	if p.fetchErr != nil {
		return nil, p.fetchErr
	}
	info, ok := p.payments[id]
	if !ok {
		return nil, errors.New("unknown payment")
	}
	return info, nil
}

func (p *fakeProvider) CreatePreference(_ context.Context, pref PreferenceRequest) (*Preference, error) {
	p.lastPref = pref
	if p.prefErr != nil {
		return nil, p.prefErr
	}
	return p.preference, nil
}

func TestExtractPaymentID(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    string
		wantErr bool
	}{
		{name: "nested id", body: `{"data":{"id":"12345"}}`, want: "12345"},
		{name: "nested numeric id", body: `{"data":{"id":12345}}`, want: "12345"},
		{name: "top-level id", body: `{"id":"987"}`, want: "987"},
		{name: "top-level numeric id", body: `{"id":987}`, want: "987"},
		{name: "nested wins over top-level", body: `{"data":{"id":"1"},"id":"2"}`, want: "1"},
		{name: "empty body", body: `{}`, wantErr: true},
		{name: "empty strings", body: `{"data":{"id":""},"id":""}`, wantErr: true},
		{name: "not json", body: `garbage`, wantErr: true},
	}

	for _, tt := range tests {
		got, err := ExtractPaymentID([]byte(tt.body))
		if tt.wantErr {
			if !errors.Is(err, ErrMissingPaymentID) {
				t.Fatalf("%s: err = %v, want ErrMissingPaymentID", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if got != tt.want {
			t.Fatalf("%s: ExtractPaymentID = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestIngestNotificationAppliesApprovedPayment(t *testing.T) {
	user := &models.User{ID: 7, Email: "loja@example.com", PlanStatus: models.PLAN_FREE}
	repo := newFakeRepository(user)
	provider := &fakeProvider{payments: map[string]*PaymentInfo{
		"555": {ID: "555", Status: "approved", TransactionAmount: 49.90, ExternalReference: "7"},
	}}
	svc := NewService(repo, provider)

	outcome, err := svc.IngestNotification(context.Background(), "555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeApplied {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeApplied)
	}
	if user.PlanStatus != models.PLAN_LIFETIME {
		t.Fatalf("plan status = %q, want %q", user.PlanStatus, models.PLAN_LIFETIME)
	}
	p, ok := repo.payments["555"]
	if !ok {
		t.Fatalf("expected ledger row for payment 555")
	}
	if p.Amount != 49.90 || p.UserID != 7 || p.Status != models.PAYMENT_STATUS_APPROVED {
		t.Fatalf("unexpected ledger row: %+v", p)
	}
}

func TestIngestNotificationIsIdempotent(t *testing.T) {
	user := &models.User{ID: 7, Email: "loja@example.com", PlanStatus: models.PLAN_FREE}
	repo := newFakeRepository(user)
	provider := &fakeProvider{payments: map[string]*PaymentInfo{
		"555": {ID: "555", Status: "approved", TransactionAmount: 49.90, ExternalReference: "7"},
	}}
	svc := NewService(repo, provider)

	for i := 0; i < 5; i++ {
		outcome, err := svc.IngestNotification(context.Background(), "555")
		if err != nil {
			t.Fatalf("delivery %d: unexpected error: %v", i, err)
		}
		if outcome != OutcomeApplied {
			t.Fatalf("delivery %d: outcome = %q, want %q", i, outcome, OutcomeApplied)
		}
	}

	if len(repo.payments) != 1 {
		t.Fatalf("ledger has %d rows for one external id, want 1", len(repo.payments))
	}
	if user.PlanStatus != models.PLAN_LIFETIME {
		t.Fatalf("plan status = %q, want %q", user.PlanStatus, models.PLAN_LIFETIME)
	}
}

func TestIngestNotificationConcurrentDeliveries(t *testing.T) {
	user := &models.User{ID: 7, Email: "loja@example.com", PlanStatus: models.PLAN_FREE}
	repo := newFakeRepository(user)
	provider := &fakeProvider{payments: map[string]*PaymentInfo{
		"555": {ID: "555", Status: "approved", TransactionAmount: 49.90, ExternalReference: "7"},
	}}
	svc := NewService(repo, provider)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.IngestNotification(context.Background(), "555"); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if len(repo.payments) != 1 {
		t.Fatalf("ledger has %d rows for one external id, want 1", len(repo.payments))
	}
}

func TestIngestNotificationIgnoresNonApproved(t *testing.T) {
	user := &models.User{ID: 7, Email: "loja@example.com", PlanStatus: models.PLAN_FREE}
	repo := newFakeRepository(user)
	provider := &fakeProvider{payments: map[string]*PaymentInfo{
		"555": {ID: "555", Status: "pending", TransactionAmount: 49.90, ExternalReference: "7"},
	}}
	svc := NewService(repo, provider)

	outcome, err := svc.IngestNotification(context.Background(), "555")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeIgnored {
		t.Fatalf("outcome = %q, want %q", outcome, OutcomeIgnored)
	}
	if user.PlanStatus != models.PLAN_FREE {
		t.Fatalf("plan status mutated on non-approved payment: %q", user.PlanStatus)
	}
	if len(repo.payments) != 0 {
		t.Fatalf("ledger mutated on non-approved payment")
	}
}

func TestIngestNotificationIgnoresUnknownReference(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{payments: map[string]*PaymentInfo{
		"1": {ID: "1", Status: "approved", ExternalReference: "42"},
		"2": {ID: "2", Status: "approved", ExternalReference: "not-a-number"},
		"3": {ID: "3", Status: "approved", ExternalReference: ""},
	}}
	svc := NewService(repo, provider)

	for _, id := range []string{"1", "2", "3"} {
		outcome, err := svc.IngestNotification(context.Background(), id)
		if err != nil {
			t.Fatalf("payment %s: unexpected error: %v", id, err)
		}
		if outcome != OutcomeIgnored {
			t.Fatalf("payment %s: outcome = %q, want %q", id, outcome, OutcomeIgnored)
		}
	}
	if len(repo.payments) != 0 {
		t.Fatalf("ledger mutated for unresolvable references")
	}
}

func TestIngestNotificationFetchFailure(t *testing.T) {
	repo := newFakeRepository()
	provider := &fakeProvider{fetchErr: errors.New("connection refused")}
	svc := NewService(repo, provider)

	_, err := svc.IngestNotification(context.Background(), "555")
	if !errors.Is(err, ErrPaymentFetch) {
		t.Fatalf("err = %v, want ErrPaymentFetch", err)
	}
}

func TestCreateCheckout(t *testing.T) {
	user := &models.User{ID: 9, Email: "dona@example.com"}
	repo := newFakeRepository(user)
	provider := &fakeProvider{preference: &Preference{ID: "pref-1", InitPoint: "https://mp.example/init"}}
	svc := NewService(repo, provider)

	url, err := svc.CreateCheckout(context.Background(), 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://mp.example/init" {
		t.Fatalf("url = %q", url)
	}

	pref := provider.lastPref
	if pref.ExternalReference != "9" {
		t.Fatalf("external reference = %q, want %q", pref.ExternalReference, "9")
	}
	if pref.Payer.Email != "dona@example.com" {
		t.Fatalf("payer email = %q", pref.Payer.Email)
	}
	if len(pref.Items) != 1 || pref.Items[0].UnitPrice != 49.90 || pref.Items[0].CurrencyID == "" {
		t.Fatalf("unexpected items: %+v", pref.Items)
	}
}

func TestCreateCheckoutUnknownAccount(t *testing.T) {
	svc := NewService(newFakeRepository(), &fakeProvider{})

	_, err := svc.CreateCheckout(context.Background(), 404)
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("err = %v, want ErrAccountNotFound", err)
	}
}
