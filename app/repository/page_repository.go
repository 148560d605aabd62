package repository

import (
	"errors"

	"github.com/LucasFarias/ZapLink/app/models"
	"gorm.io/gorm"
)

// pageRepository implements the PageRepository interface
type pageRepository struct {
	db *gorm.DB
}

// NewPageRepository creates a new page repository instance
func NewPageRepository(db *gorm.DB) PageRepository {
	return &pageRepository{db: db}
}

// Create creates a new page in the database
func (r *pageRepository) Create(page *models.Page) error {
	return r.db.Create(page).Error
}

// GetByID retrieves a page by its ID
func (r *pageRepository) GetByID(id uint) (*models.Page, error) {
	var page models.Page
	err := r.db.First(&page, id).Error
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// GetBySlug retrieves a page by its public slug
func (r *pageRepository) GetBySlug(slug string) (*models.Page, error) {
	return models.FindPageBySlug(r.db, slug)
}

// GetByUserID retrieves the page owned by a user
func (r *pageRepository) GetByUserID(userID uint) (*models.Page, error) {
	return models.FindPageByUserID(r.db, userID)
}

// SlugExists reports whether a slug is already taken
func (r *pageRepository) SlugExists(slug string) (bool, error) {
	_, err := models.FindPageBySlug(r.db, slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// UpdateProfile applies partial profile updates. The slug is immutable once
// set and must never appear in the updates map.
func (r *pageRepository) UpdateProfile(pageID uint, updates map[string]interface{}) error {
	delete(updates, "slug")
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&models.Page{}).Where("id = ?", pageID).Updates(updates).Error
}
