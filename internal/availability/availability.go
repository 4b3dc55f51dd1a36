// Package availability derives whether a storefront is servable from the
// tenant's billing state. The derivation is pure and only re-evaluated when a
// settings snapshot changes; it deliberately fails open when billing fields
// are absent.
package availability

import (
	"math"
	"time"

	"github.com/aminasaas/storefront-backend/internal/entity"
)

// TrialDays is the number of whole elapsed days a trial store stays servable.
const TrialDays = 3

// Servable reports whether the store may serve shoppers at the given instant.
// Precedence is load-bearing: suspension beats payment, payment beats trial
// expiry, and a store with no billing signals at all stays open.
func Servable(b entity.Billing, now time.Time) bool {
	if b.Suspended {
		return false
	}
	if b.Paid {
		return true
	}
	if b.TrialStartedAt == nil {
		return true
	}
	elapsed := now.Sub(*b.TrialStartedAt)
	days := math.Ceil(math.Abs(elapsed.Hours()) / 24)
	return days <= TrialDays
}
