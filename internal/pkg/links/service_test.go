package links

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/internal/pkg/entitlements"
	"github.com/LucasFarias/ZapLink/internal/pkg/quota"
)

// memStore mimics the transactional semantics of the GORM store: the count
// check and insert of CreateLinkWithinLimit happen under one lock.
type memStore struct {
	mu           sync.Mutex
	user         *models.User
	page         *models.Page
	links        map[uint]*models.Link
	lastApproved *time.Time
	nextID       uint
	lastCtx      context.Context
}

func (s *memStore) sawCtx(ctx context.Context) {
	s.mu.Lock()
	s.lastCtx = ctx
	s.mu.Unlock()
}

func newMemStore(planStatus string, existingLinks int, lastApproved *time.Time) *memStore {
	s := &memStore{
		user:         &models.User{ID: 1, Email: "loja@example.com", PlanStatus: planStatus},
		page:         &models.Page{ID: 10, UserID: 1, Slug: "minha-loja"},
		links:        make(map[uint]*models.Link),
		lastApproved: lastApproved,
		nextID:       1,
	}
	for i := 0; i < existingLinks; i++ {
		s.links[s.nextID] = &models.Link{ID: s.nextID, PageID: 10, Title: "link", IsActive: true}
		s.nextID++
	}
	return s
}

func (s *memStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	s.sawCtx(ctx)
	if id != s.user.ID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.user, nil
}

func (s *memStore) FindPageByUserID(ctx context.Context, userID uint) (*models.Page, error) {
	s.sawCtx(ctx)
	if userID != s.page.UserID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.page, nil
}

func (s *memStore) LatestApprovedPaymentAt(ctx context.Context, _ uint) (*time.Time, error) {
	s.sawCtx(ctx)
	return s.lastApproved, nil
}

func (s *memStore) CountLinks(ctx context.Context, _ uint) (int64, error) {
	s.sawCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.links)), nil
}

func (s *memStore) CreateLinkWithinLimit(ctx context.Context, pageID uint, link *models.Link, maxLinks int) error {
	s.sawCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	count := int64(len(s.links))
	if maxLinks > 0 && count >= int64(maxLinks) {
		return ErrLinkLimitReached
	}
	link.ID = s.nextID
	link.PageID = pageID
	link.SortOrder = int(count)
	s.links[link.ID] = link
	s.nextID++
	return nil
}

func (s *memStore) FindLinkOwnedBy(ctx context.Context, linkID, userID uint) (*models.Link, error) {
	s.sawCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	link, ok := s.links[linkID]
	if !ok || userID != s.page.UserID {
		return nil, gorm.ErrRecordNotFound
	}
	return link, nil
}

func (s *memStore) DeleteLink(ctx context.Context, linkID uint) error {
	s.sawCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.links, linkID)
	return nil
}

func (s *memStore) SetLinkActive(ctx context.Context, linkID uint, active bool) error {
	s.sawCtx(ctx)
	s.mu.Lock()
	defer s.mu.Unlock()
	if link, ok := s.links[linkID]; ok {
		link.IsActive = active
	}
	return nil
}

func serviceAt(store *memStore, now time.Time) *Service {
	svc := NewService(store)
	svc.now = func() time.Time { return now }
	return svc
}

func TestCreateLinkFreeUnderQuota(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 4, nil)
	svc := serviceAt(store, time.Now())

	link, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "Promoções", URL: "https://example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.SortOrder != 4 {
		t.Fatalf("sort order = %d, want 4", link.SortOrder)
	}
	if n, _ := store.CountLinks(context.Background(), 10); n != 5 {
		t.Fatalf("link count = %d, want 5", n)
	}
}

func TestCreateLinkFreeAtQuota(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 5, nil)
	svc := serviceAt(store, time.Now())

	_, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "Sexto link"})
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
	if qe.Reason != quota.ReasonLimitReached {
		t.Fatalf("reason = %q, want %q", qe.Reason, quota.ReasonLimitReached)
	}
}

func TestCreateLinkExpiredProAtQuota(t *testing.T) {
	paid := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	now := paid.AddDate(0, 4, 0) // one month past the window
	store := newMemStore(models.PLAN_LIFETIME, 5, &paid)
	svc := serviceAt(store, now)

	_, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "Sexto link"})
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
	if qe.Reason != quota.ReasonPlanExpired {
		t.Fatalf("reason = %q, want %q", qe.Reason, quota.ReasonPlanExpired)
	}
}

func TestCreateLinkProIgnoresQuota(t *testing.T) {
	paid := time.Now().Add(-time.Hour)
	store := newMemStore(models.PLAN_LIFETIME, 20, &paid)
	svc := serviceAt(store, time.Now())

	if _, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "Mais um"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCreateLinkProductVariant(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 0, nil)
	svc := serviceAt(store, time.Now())

	price := 29.90
	link, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "Bolo de pote", Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if link.Type() != models.LINK_TYPE_PRODUCT {
		t.Fatalf("type = %q, want %q", link.Type(), models.LINK_TYPE_PRODUCT)
	}
	if link.URL != nil {
		t.Fatalf("product link should have no URL")
	}
}

// Two concurrent creates on a free page holding 4 links: the in-store count
// check must let exactly one through.
func TestCreateLinkConcurrentAtBoundary(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 4, nil)
	svc := serviceAt(store, time.Now())

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "corrida"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var denied int
	for err := range results {
		if err != nil {
			var qe *QuotaError
			if !errors.As(err, &qe) {
				t.Fatalf("unexpected error type: %v", err)
			}
			denied++
		}
	}
	if n, _ := store.CountLinks(context.Background(), 10); n != 5 {
		t.Fatalf("link count = %d, want 5", n)
	}
	if denied != 1 {
		t.Fatalf("denied = %d, want exactly 1", denied)
	}
}

// Both concurrent requests on a page already at the cap must be denied.
func TestCreateLinkConcurrentAtCap(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 5, nil)
	svc := serviceAt(store, time.Now())

	var wg sync.WaitGroup
	results := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "corrida"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	for err := range results {
		var qe *QuotaError
		if !errors.As(err, &qe) {
			t.Fatalf("expected QuotaError, got %v", err)
		}
	}
	if n, _ := store.CountLinks(context.Background(), 10); n != 5 {
		t.Fatalf("link count = %d, want 5", n)
	}
}

func TestDeleteLinkOwnership(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 2, nil)
	svc := serviceAt(store, time.Now())

	if err := svc.DeleteLink(context.Background(), 1, 1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.DeleteLink(context.Background(), 99, 2); !errors.Is(err, ErrLinkNotFound) {
		t.Fatalf("err = %v, want ErrLinkNotFound", err)
	}
	if n, _ := store.CountLinks(context.Background(), 10); n != 1 {
		t.Fatalf("link count = %d, want 1", n)
	}
}

func TestToggleLinkKeepsQuotaCount(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 5, nil)
	svc := serviceAt(store, time.Now())

	if err := svc.ToggleLink(context.Background(), 1, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Hiding a link frees no quota: existence counts, not visibility.
	_, err := svc.CreateLink(context.Background(), 1, CreateLinkInput{Title: "ainda cheio"})
	var qe *QuotaError
	if !errors.As(err, &qe) {
		t.Fatalf("err = %v, want QuotaError", err)
	}
}

func TestEntitlement(t *testing.T) {
	paid := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore(models.PLAN_LIFETIME, 0, &paid)

	svc := serviceAt(store, paid.AddDate(0, 1, 0))
	ent, err := svc.Entitlement(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ent != entitlements.Pro {
		t.Fatalf("entitlement = %q, want %q", ent, entitlements.Pro)
	}

	svc = serviceAt(store, paid.AddDate(0, 6, 0))
	ent, _ = svc.Entitlement(context.Background(), 1)
	if ent != entitlements.Free {
		t.Fatalf("entitlement = %q, want %q", ent, entitlements.Free)
	}
}

type ctxKey string

// The request context must reach the store so cancellation propagates into
// the queries.
func TestServiceForwardsContextToStore(t *testing.T) {
	store := newMemStore(models.PLAN_FREE, 0, nil)
	svc := serviceAt(store, time.Now())

	ctx := context.WithValue(context.Background(), ctxKey("req"), "abc123")
	if _, err := svc.CreateLink(ctx, 1, CreateLinkInput{Title: "Contato", URL: "https://example.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := store.lastCtx.Value(ctxKey("req")).(string); got != "abc123" {
		t.Fatalf("store context value = %q, want %q", got, "abc123")
	}

	ctx = context.WithValue(context.Background(), ctxKey("req"), "def456")
	if err := svc.ToggleLink(ctx, 1, 1, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, _ := store.lastCtx.Value(ctxKey("req")).(string); got != "def456" {
		t.Fatalf("store context value = %q, want %q", got, "def456")
	}
}
