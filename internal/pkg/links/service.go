package links

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/internal/pkg/entitlements"
	"github.com/LucasFarias/ZapLink/internal/pkg/quota"
)

var (
	ErrPageNotFound = errors.New("page not found")
	ErrLinkNotFound = errors.New("link not found")
	// ErrLinkLimitReached is returned by Store implementations when the
	// in-transaction count check hits the cap.
	ErrLinkLimitReached = errors.New("link limit reached")
)

// QuotaError is a denied creation. Not a failure: the caller turns it into a
// user-facing message picked by Reason.
type QuotaError struct {
	Reason quota.Reason
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("link creation denied: %s", e.Reason)
}

// Store provides the DB operations used by the link service. Every method
// takes the request context so cancellation propagates into the queries.
type Store interface {
	FindUserByID(ctx context.Context, id uint) (*models.User, error)
	FindPageByUserID(ctx context.Context, userID uint) (*models.Page, error)
	LatestApprovedPaymentAt(ctx context.Context, userID uint) (*time.Time, error)
	CountLinks(ctx context.Context, pageID uint) (int64, error)
	// CreateLinkWithinLimit inserts the link. When maxLinks > 0 the count
	// check runs inside the same transaction with the page row locked, so
	// two concurrent creates at the boundary cannot both pass. Returns
	// ErrLinkLimitReached when the cap is hit.
	CreateLinkWithinLimit(ctx context.Context, pageID uint, link *models.Link, maxLinks int) error
	FindLinkOwnedBy(ctx context.Context, linkID, userID uint) (*models.Link, error)
	DeleteLink(ctx context.Context, linkID uint) error
	SetLinkActive(ctx context.Context, linkID uint, active bool) error
}

// Service owns link creation (entitlement + quota) and the owner-only
// mutations of existing links.
type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// NewServiceFromDB creates a link service backed by GORM.
func NewServiceFromDB(db *gorm.DB) *Service {
	return NewService(NewStore(db))
}

type CreateLinkInput struct {
	Title string
	URL   string
	Price *float64
}

// CreateLink creates a link on the user's page, enforcing the free-tier
// quota. The quota check here picks the denial reason; the storage layer
// repeats the count inside the insert transaction so that concurrent
// requests at the boundary cannot overshoot the cap.
func (s *Service) CreateLink(ctx context.Context, userID uint, in CreateLinkInput) (*models.Link, error) {
	page, err := s.store.FindPageByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPageNotFound
		}
		return nil, err
	}

	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	lastApproved, err := s.store.LatestApprovedPaymentAt(ctx, userID)
	if err != nil {
		return nil, err
	}
	ent := entitlements.Resolve(user.PlanStatus, lastApproved, s.now())

	count, err := s.store.CountLinks(ctx, page.ID)
	if err != nil {
		return nil, err
	}
	if decision := quota.CanCreateLink(user.PlanStatus, ent, count); !decision.Allowed {
		return nil, &QuotaError{Reason: decision.Reason}
	}

	link := &models.Link{
		PageID:   page.ID,
		Title:    strings.TrimSpace(in.Title),
		IsActive: true,
	}
	if u := strings.TrimSpace(in.URL); u != "" {
		link.URL = &u
	}
	if in.Price != nil && *in.Price > 0 {
		price := *in.Price
		link.Price = &price
	}
	if err := link.Validate(); err != nil {
		return nil, err
	}

	maxLinks := 0
	if ent != entitlements.Pro {
		maxLinks = quota.MaxFreeLinks
	}
	if err := s.store.CreateLinkWithinLimit(ctx, page.ID, link, maxLinks); err != nil {
		if errors.Is(err, ErrLinkLimitReached) {
			// Lost the race against a concurrent create; same denial
			// reasons as the pre-check.
			if decision := quota.CanCreateLink(user.PlanStatus, ent, quota.MaxFreeLinks); !decision.Allowed {
				return nil, &QuotaError{Reason: decision.Reason}
			}
			return nil, &QuotaError{Reason: quota.ReasonLimitReached}
		}
		return nil, err
	}
	return link, nil
}

// DeleteLink removes a link after verifying ownership.
func (s *Service) DeleteLink(ctx context.Context, userID, linkID uint) error {
	link, err := s.store.FindLinkOwnedBy(ctx, linkID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return s.store.DeleteLink(ctx, link.ID)
}

// ToggleLink flips a link's visibility. Inactive links still count toward
// the quota; only what visitors see changes.
func (s *Service) ToggleLink(ctx context.Context, userID, linkID uint, active bool) error {
	link, err := s.store.FindLinkOwnedBy(ctx, linkID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return s.store.SetLinkActive(ctx, link.ID, active)
}

// Entitlement resolves the user's current entitlement; used by the
// dashboard and anywhere else that needs the computed Pro/Free status.
func (s *Service) Entitlement(ctx context.Context, userID uint) (entitlements.Entitlement, error) {
	user, err := s.store.FindUserByID(ctx, userID)
	if err != nil {
		return entitlements.Free, err
	}
	lastApproved, err := s.store.LatestApprovedPaymentAt(ctx, userID)
	if err != nil {
		return entitlements.Free, err
	}
	return entitlements.Resolve(user.PlanStatus, lastApproved, s.now()), nil
}
