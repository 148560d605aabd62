package repository

import (
	"github.com/LucasFarias/ZapLink/app/models"
	"gorm.io/gorm"
)

// linkRepository implements the LinkRepository interface. Link creation is
// not exposed here: it goes through the links service, whose store enforces
// the free-tier cap inside the insert transaction.
type linkRepository struct {
	db *gorm.DB
}

// NewLinkRepository creates a new link repository instance
func NewLinkRepository(db *gorm.DB) LinkRepository {
	return &linkRepository{db: db}
}

// GetByID retrieves a link by its ID
func (r *linkRepository) GetByID(id uint) (*models.Link, error) {
	return models.FindLinkByID(r.db, id)
}

// GetActiveByPageID retrieves the visible links of a page in display order
func (r *linkRepository) GetActiveByPageID(pageID uint) ([]models.Link, error) {
	return models.GetActiveLinksByPageID(r.db, pageID)
}

// GetAllByPageID retrieves every link of a page, hidden ones included
func (r *linkRepository) GetAllByPageID(pageID uint) ([]models.Link, error) {
	var links []models.Link
	err := r.db.Where("page_id = ?", pageID).
		Order("sort_order ASC, id ASC").Find(&links).Error
	return links, err
}

// CountByPageID counts every link row of a page regardless of is_active
func (r *linkRepository) CountByPageID(pageID uint) (int64, error) {
	return models.CountLinksByPageID(r.db, pageID)
}
