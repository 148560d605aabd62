package entitlements

import (
	"time"

	"github.com/LucasFarias/ZapLink/app/models"
)

// Entitlement is the computed Pro/Free status of an account at a given
// instant. It is derived from the stored plan flag plus payment history and
// must never be confused with models.User.PlanStatus: a LIFETIME flag whose
// paid window ran out resolves to Free.
type Entitlement string

const (
	Free Entitlement = "free"
	Pro  Entitlement = "pro"
)

// GracePeriodMonths is the paid window granted by one approved payment.
const GracePeriodMonths = 3

// Resolve computes the entitlement of an account.
//
// lastApproved is the creation time of the most recent APPROVED payment, or
// nil when the account has none. A LIFETIME flag without any backing payment
// is an administrative grant and never expires. The expiry instant itself is
// already Free: Pro holds only while now < lastApproved + 3 months.
func Resolve(planStatus string, lastApproved *time.Time, now time.Time) Entitlement {
	if planStatus != models.PLAN_LIFETIME {
		return Free
	}
	if lastApproved == nil {
		return Pro
	}
	expiry := ExpiryOf(*lastApproved)
	if now.Before(expiry) {
		return Pro
	}
	return Free
}

// ExpiryOf returns the instant at which a payment made at paidAt stops
// entitling the account to Pro.
func ExpiryOf(paidAt time.Time) time.Time {
	return paidAt.AddDate(0, GracePeriodMonths, 0)
}
