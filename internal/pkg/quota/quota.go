package quota

import (
	"github.com/LucasFarias/ZapLink/app/models"
	"github.com/LucasFarias/ZapLink/internal/pkg/entitlements"
)

// MaxFreeLinks is the hard cap of link rows a Free account may hold. The
// transactional enforcement in the link repository must use the same value.
const MaxFreeLinks = 5

type Reason string

const (
	ReasonNone Reason = ""
	// ReasonLimitReached: a plain free account hit the cap.
	ReasonLimitReached Reason = "limit_reached"
	// ReasonPlanExpired: the account holds a LIFETIME flag whose paid window
	// ran out, so it regressed to Free. Distinguished for user messaging.
	ReasonPlanExpired Reason = "plan_expired"
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

// CanCreateLink decides whether one more link may be created. Pure: the
// caller must pass a link count read immediately before, and the storage
// layer re-checks the cap inside the insert transaction.
func CanCreateLink(planStatus string, ent entitlements.Entitlement, currentLinkCount int64) Decision {
	if ent == entitlements.Pro {
		return Decision{Allowed: true}
	}
	if currentLinkCount < MaxFreeLinks {
		return Decision{Allowed: true}
	}
	if planStatus == models.PLAN_LIFETIME {
		return Decision{Allowed: false, Reason: ReasonPlanExpired}
	}
	return Decision{Allowed: false, Reason: ReasonLimitReached}
}
