package links

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LucasFarias/ZapLink/app/models"
)

type gormStore struct {
	db *gorm.DB
}

// NewStore creates a link store backed by GORM.
func NewStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func (s *gormStore) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	return models.FindUserByID(s.db.WithContext(ctx), id)
}

func (s *gormStore) FindPageByUserID(ctx context.Context, userID uint) (*models.Page, error) {
	return models.FindPageByUserID(s.db.WithContext(ctx), userID)
}

func (s *gormStore) LatestApprovedPaymentAt(ctx context.Context, userID uint) (*time.Time, error) {
	payment, err := models.LatestApprovedPayment(s.db.WithContext(ctx), userID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	t := payment.CreatedAt
	return &t, nil
}

func (s *gormStore) CountLinks(ctx context.Context, pageID uint) (int64, error) {
	return models.CountLinksByPageID(s.db.WithContext(ctx), pageID)
}

// CreateLinkWithinLimit locks the owning page row for the duration of the
// transaction, so the count below cannot be raced by a concurrent insert on
// the same page. This is what keeps two simultaneous requests on a page with
// 4 links from producing 6.
func (s *gormStore) CreateLinkWithinLimit(ctx context.Context, pageID uint, link *models.Link, maxLinks int) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var page models.Page
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&page, pageID).Error; err != nil {
			return err
		}

		var count int64
		if err := tx.Model(&models.Link{}).Where("page_id = ?", pageID).
			Count(&count).Error; err != nil {
			return err
		}
		if maxLinks > 0 && count >= int64(maxLinks) {
			return ErrLinkLimitReached
		}

		link.PageID = pageID
		link.SortOrder = int(count)
		return tx.Create(link).Error
	})
}

func (s *gormStore) FindLinkOwnedBy(ctx context.Context, linkID, userID uint) (*models.Link, error) {
	var link models.Link
	err := s.db.WithContext(ctx).
		Joins("JOIN pages ON pages.id = links.page_id").
		Where("links.id = ? AND pages.user_id = ?", linkID, userID).
		First(&link).Error
	if err != nil {
		return nil, err
	}
	return &link, nil
}

func (s *gormStore) DeleteLink(ctx context.Context, linkID uint) error {
	return s.db.WithContext(ctx).Delete(&models.Link{}, linkID).Error
}

func (s *gormStore) SetLinkActive(ctx context.Context, linkID uint, active bool) error {
	return s.db.WithContext(ctx).Model(&models.Link{}).Where("id = ?", linkID).
		Update("is_active", active).Error
}
