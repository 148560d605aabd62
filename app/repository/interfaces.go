package repository

import (
	"github.com/LucasFarias/ZapLink/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	TouchLastLogin(id uint) error
}

// PageRepository defines the interface for page-related database operations
type PageRepository interface {
	Create(page *models.Page) error
	GetByID(id uint) (*models.Page, error)
	GetBySlug(slug string) (*models.Page, error)
	GetByUserID(userID uint) (*models.Page, error)
	SlugExists(slug string) (bool, error)
	UpdateProfile(pageID uint, updates map[string]interface{}) error
}

// LinkRepository defines the interface for link-related database operations
type LinkRepository interface {
	GetByID(id uint) (*models.Link, error)
	GetActiveByPageID(pageID uint) ([]models.Link, error)
	GetAllByPageID(pageID uint) ([]models.Link, error)
	CountByPageID(pageID uint) (int64, error)
}

// PaymentRepository defines the read-side interface for the payment ledger.
// Writes go through the billing service only; nothing here can mutate rows.
type PaymentRepository interface {
	GetLatestApprovedByUserID(userID uint) (*models.Payment, error)
	ListByUserID(userID uint) ([]models.Payment, error)
}

// Repositories struct holds all repository instances
type Repositories struct {
	User    UserRepository
	Page    PageRepository
	Link    LinkRepository
	Payment PaymentRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Page:    NewPageRepository(db),
		Link:    NewLinkRepository(db),
		Payment: NewPaymentRepository(db),
	}
}
