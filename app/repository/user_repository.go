package repository

import (
	"time"

	"github.com/LucasFarias/ZapLink/app/models"
	"gorm.io/gorm"
)

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new user repository instance
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create creates a new user in the database
func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

// GetByID retrieves a user by its ID
func (r *userRepository) GetByID(id uint) (*models.User, error) {
	return models.FindUserByID(r.db, id)
}

// GetByEmail retrieves a user by email
func (r *userRepository) GetByEmail(email string) (*models.User, error) {
	return models.FindUserByEmail(r.db, email)
}

// Update updates an existing user in the database. Note: plan_status is owned
// by the billing service and is deliberately excluded here.
func (r *userRepository) Update(user *models.User) error {
	return r.db.Model(user).Omit("plan_status").Updates(user).Error
}

// TouchLastLogin records a successful login
func (r *userRepository) TouchLastLogin(id uint) error {
	now := time.Now()
	return r.db.Model(&models.User{}).Where("id = ?", id).
		Update("last_login_at", &now).Error
}
