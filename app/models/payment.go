package models

import (
	"time"

	"gorm.io/gorm"
)

const PAYMENT_STATUS_APPROVED = "APPROVED"

// Payment is an append-only ledger entry for a confirmed provider payment.
// ExternalID is the provider-assigned payment id and acts as the idempotency
// key: the unique index guarantees that redelivered webhooks can never create
// a second row for the same payment.
type Payment struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ExternalID string    `gorm:"type:varchar(191);uniqueIndex;not null" json:"external_id"`
	Amount     float64   `gorm:"type:decimal(10,2);not null;default:0" json:"amount"`
	Status     string    `gorm:"type:varchar(20);not null" json:"status"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// LatestApprovedPayment returns the most recent APPROVED payment of a user,
// or gorm.ErrRecordNotFound when the user never paid.
func LatestApprovedPayment(db *gorm.DB, userID uint) (*Payment, error) {
	var payment Payment
	err := db.Where("user_id = ? AND status = ?", userID, PAYMENT_STATUS_APPROVED).
		Order("created_at DESC").First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
