// Package entitlement decides whether an actor may invoke a CV processing
// operation. Evaluation is a pure function of its inputs and is repeated on
// every request: payment and premium state can change between calls, so a
// verdict is never cached.
package entitlement

import (
	"net/http"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/domain"
)

// Decision is the outcome tag of an entitlement check.
type Decision string

const (
	Allowed             Decision = "allowed"
	NeedsPayment        Decision = "needs_payment"
	NeedsPremium        Decision = "needs_premium"
	NeedsBuilderPayment Decision = "needs_builder_payment"
	Denied              Decision = "denied"
)

// Reasons surfaced to the caller alongside a non-allowed decision.
const (
	reasonPayment = "Ta funkcja wymaga płatności. Zapłać 9,99 PLN za jednorazowe CV lub 29,99 PLN za Premium."
	reasonPremium = "Ta funkcja jest dostępna tylko dla użytkowników Premium. Wykup subskrypcję za 29,99 PLN/miesiąc."
	reasonBuilder = "Funkcja STWÓRZ CV SAMEMU wymaga oddzielnej płatności."
	reasonInvalid = "Invalid option selected."
)

// Flags is the snapshot of per-session entitlement facts read at evaluation
// time.
type Flags struct {
	PaymentVerified bool
	CVBuilderPaid   bool
}

// Verdict is the result of an entitlement check.
type Verdict struct {
	Decision Decision
	Reason   string
}

// Allowed reports whether the operation may proceed.
func (v Verdict) Allowed() bool {
	return v.Decision == Allowed
}

// HTTPStatus maps the decision to the status code returned to the caller.
func (v Verdict) HTTPStatus() int {
	switch v.Decision {
	case Allowed:
		return http.StatusOK
	case NeedsPayment:
		return http.StatusPaymentRequired
	case NeedsPremium, NeedsBuilderPayment:
		return http.StatusForbidden
	default:
		return http.StatusBadRequest
	}
}

// Evaluate classifies the operation and decides whether the actor may invoke
// it. The developer override is absolute and checked before the catalog
// lookup, so it allows even unknown operation ids.
func Evaluate(op domain.Operation, actor *domain.Actor, flags Flags, now time.Time) Verdict {
	if actor != nil && actor.DeveloperOverride {
		return Verdict{Decision: Allowed}
	}

	tier, known := domain.TierOf(op)
	if !known {
		return Verdict{Decision: Denied, Reason: reasonInvalid}
	}

	premium := actor != nil && actor.IsPremiumActive(now)

	switch tier {
	case domain.TierPremium:
		if premium {
			return Verdict{Decision: Allowed}
		}
		return Verdict{Decision: NeedsPremium, Reason: reasonPremium}
	case domain.TierBasicPaid:
		if flags.PaymentVerified || premium {
			return Verdict{Decision: Allowed}
		}
		return Verdict{Decision: NeedsPayment, Reason: reasonPayment}
	case domain.TierBuilder:
		if flags.CVBuilderPaid {
			return Verdict{Decision: Allowed}
		}
		return Verdict{Decision: NeedsBuilderPayment, Reason: reasonBuilder}
	default:
		return Verdict{Decision: Allowed}
	}
}
