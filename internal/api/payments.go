package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/identity"
	"github.com/pwalczak/cv-optimizer/internal/payment"
)

func (h *Handler) createPaymentIntent(w http.ResponseWriter, r *http.Request) {
	intent, err := h.payments.CreateIntent(r.Context(), h.cfg.Stripe.PriceCVOptimization, "pln",
		map[string]string{"service": "cv_optimization"})
	if err != nil {
		slog.Error("failed to create payment intent", "error", err)
		failure(w, http.StatusInternalServerError, "Błąd podczas tworzenia płatności.", nil)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"client_secret": intent.ClientSecret,
		"amount":        intent.Amount,
	})
}

type verifyPayload struct {
	PaymentIntentID string `json:"payment_intent_id"`
}

func (h *Handler) verifyPayment(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	var payload verifyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PaymentIntentID == "" {
		failure(w, http.StatusBadRequest, "Brak ID płatności", nil)
		return
	}

	succeeded, err := h.payments.IsSucceeded(r.Context(), payload.PaymentIntentID)
	if err != nil {
		slog.Error("failed to verify payment", "intent_id", payload.PaymentIntentID, "error", err)
		failure(w, http.StatusInternalServerError, "Błąd podczas weryfikacji płatności.", nil)
		return
	}
	if !succeeded {
		failure(w, http.StatusBadRequest, "Płatność nie została zakończona", nil)
		return
	}

	state := h.loadState(r, actor.ID)
	state.PaymentVerified = true
	state.PaymentIntentID = payload.PaymentIntentID
	h.saveState(r, actor.ID, state)

	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Płatność zakończona sukcesem! Możesz teraz wygenerować CV.",
	})
}

func (h *Handler) createCVBuilderPayment(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	intent, err := h.payments.CreateIntent(r.Context(), h.cfg.Stripe.PriceCVBuilder, "pln",
		map[string]string{"service": "cv_builder", "user_id": actor.ID})
	if err != nil {
		slog.Error("failed to create CV builder payment", "error", err)
		Error(w, http.StatusBadRequest, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]string{"client_secret": intent.ClientSecret})
}

func (h *Handler) verifyCVBuilderPayment(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	var payload verifyPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.PaymentIntentID == "" {
		failure(w, http.StatusBadRequest, "Brak ID płatności", nil)
		return
	}

	succeeded, err := h.payments.IsSucceeded(r.Context(), payload.PaymentIntentID)
	if err != nil {
		slog.Error("failed to verify CV builder payment", "intent_id", payload.PaymentIntentID, "error", err)
		failure(w, http.StatusInternalServerError, "Błąd podczas weryfikacji płatności.", nil)
		return
	}
	if !succeeded {
		failure(w, http.StatusBadRequest, "Płatność nie została zakończona", nil)
		return
	}

	state := h.loadState(r, actor.ID)
	state.CVBuilderPaid = true
	h.saveState(r, actor.ID, state)

	JSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) createPremiumSubscription(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	base := h.cfg.FrontendURL
	url, err := h.payments.CreateSubscriptionCheckout(r.Context(), subscriptionCheckout(h, actor.Email, base))
	if err != nil {
		slog.Error("failed to create premium subscription", "user_id", actor.ID, "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]string{"url": url})
}

func subscriptionCheckout(h *Handler, email, baseURL string) payment.SubscriptionCheckout {
	if baseURL == "" {
		baseURL = "http://localhost:" + h.cfg.Port
	}
	return payment.SubscriptionCheckout{
		AmountMonthly:      h.cfg.Stripe.PricePremiumMonthly,
		Currency:           "pln",
		ProductName:        "CV Optimizer Pro Premium",
		ProductDescription: "Miesięczna subskrypcja Premium z pełnym dostępem do dashboardu i analiz AI",
		CustomerEmail:      email,
		SuccessURL:         baseURL + "/premium-success",
		CancelURL:          baseURL + "/payment-options",
		Metadata:           map[string]string{"subscription_type": "premium"},
	}
}

func (h *Handler) premiumSuccess(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	// Premium runs for exactly one month from activation.
	actor.ActivatePremium(time.Now(), 1)
	actor.StripeSessionID = r.URL.Query().Get("session_id")
	if err := h.repo.UpsertUser(r.Context(), actor); err != nil {
		slog.Error("failed to activate premium", "user_id", actor.ID, "error", err)
		failure(w, http.StatusInternalServerError,
			"Wystąpił błąd podczas aktywacji premium.", nil)
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Subskrypcja Premium została aktywowana na dokładnie 1 miesiąc!",
		"premium_until": actor.PremiumUntil,
	})
}
