package repository

import (
	"github.com/LucasFarias/ZapLink/app/models"
	"gorm.io/gorm"
)

// paymentRepository implements the PaymentRepository interface. It is
// read-only on purpose: payment rows are written exclusively by the billing
// service inside its apply-payment transaction.
type paymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository creates a new payment repository instance
func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

// GetLatestApprovedByUserID retrieves the newest approved payment of a user,
// or nil when the user never paid
func (r *paymentRepository) GetLatestApprovedByUserID(userID uint) (*models.Payment, error) {
	return models.LatestApprovedPayment(r.db, userID)
}

// ListByUserID retrieves the payment history of a user, newest first
func (r *paymentRepository) ListByUserID(userID uint) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").Find(&payments).Error
	return payments, err
}
