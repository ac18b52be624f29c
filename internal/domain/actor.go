// Package domain contains core domain types for the CV Optimizer application.
package domain

import (
	"time"
)

// Actor represents a registered or anonymous user together with the account
// flags the entitlement checks read.
type Actor struct {
	ID                string     `json:"id"`
	Username          string     `json:"username"`
	Email             string     `json:"email,omitempty"`
	PasswordHash      string     `json:"-"`
	DeveloperOverride bool       `json:"-"`
	PremiumUntil      *time.Time `json:"premium_until,omitempty"`
	StripeSessionID   string     `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// IsPremiumActive reports whether the actor has an unexpired premium
// subscription at the given instant. An expiry exactly equal to now counts
// as expired.
func (a *Actor) IsPremiumActive(now time.Time) bool {
	return a.PremiumUntil != nil && now.Before(*a.PremiumUntil)
}

// ActivatePremium extends the premium subscription by the given number of
// months, starting from now or from the current expiry, whichever is later.
func (a *Actor) ActivatePremium(now time.Time, months int) {
	start := now
	if a.PremiumUntil != nil && a.PremiumUntil.After(now) {
		start = *a.PremiumUntil
	}
	until := start.AddDate(0, months, 0)
	a.PremiumUntil = &until
}
