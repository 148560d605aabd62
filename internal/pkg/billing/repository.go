package billing

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/LucasFarias/ZapLink/app/models"
)

// Repository provides the DB operations used by the billing service.
// Entitlement reads live in the links store; this interface only carries
// what the webhook and checkout flows need.
type Repository interface {
	FindUserByID(id uint) (*models.User, error)
	// ApplyApprovedPayment sets the plan flag to LIFETIME and appends the
	// payment to the ledger in one transaction. The ledger insert is
	// insert-if-absent on external_id: a redelivered webhook repeats the
	// plan write but never produces a second row.
	ApplyApprovedPayment(userID uint, payment *models.Payment) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) FindUserByID(id uint) (*models.User, error) {
	return models.FindUserByID(r.db, id)
}

func (r *gormRepository) ApplyApprovedPayment(userID uint, payment *models.Payment) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", userID).
			Update("plan_status", models.PLAN_LIFETIME).Error; err != nil {
			return err
		}

		// The unique index on external_id makes this safe under concurrent
		// delivery of the same notification; the conflict is swallowed.
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "external_id"}},
			DoNothing: true,
		}).Create(payment).Error
	})
}
