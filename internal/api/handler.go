// Package api provides HTTP handlers for the CV Optimizer API.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pwalczak/cv-optimizer/internal/config"
	"github.com/pwalczak/cv-optimizer/internal/cvproc"
	"github.com/pwalczak/cv-optimizer/internal/middleware"
	"github.com/pwalczak/cv-optimizer/internal/payment"
	"github.com/pwalczak/cv-optimizer/internal/session"
	"github.com/pwalczak/cv-optimizer/internal/store"
)

// Handler bundles the CV endpoints and their dependencies.
type Handler struct {
	repo         store.Repository
	sessions     *session.Manager
	orchestrator *cvproc.Orchestrator
	payments     payment.Service
	cfg          *config.Config
}

// NewHandler creates a Handler with common dependencies.
func NewHandler(repo store.Repository, sessions *session.Manager, orchestrator *cvproc.Orchestrator, payments payment.Service, cfg *config.Config) *Handler {
	return &Handler{
		repo:         repo,
		sessions:     sessions,
		orchestrator: orchestrator,
		payments:     payments,
		cfg:          cfg,
	}
}

// RegisterRoutes mounts the CV endpoints. The upload and process endpoints
// sit behind the per-actor rate limiter.
func (h *Handler) RegisterRoutes(r chi.Router, rl *middleware.RateLimiter) {
	r.Group(func(r chi.Router) {
		r.Use(rl.Handler)
		r.Post("/api/upload-cv", h.uploadCV)
		r.Post("/api/process-cv", h.processCV)
	})

	r.Post("/api/create-payment-intent", h.createPaymentIntent)
	r.Post("/api/verify-payment", h.verifyPayment)
	r.Post("/api/create-cv-builder-payment", h.createCVBuilderPayment)
	r.Post("/api/verify-cv-builder-payment", h.verifyCVBuilderPayment)
	r.Post("/api/create-premium-subscription", h.createPremiumSubscription)
	r.Get("/api/premium-success", h.premiumSuccess)
	r.Get("/api/compare-cv-versions", h.compareCVVersions)
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// failure writes the original-style {"success":false,"message":…} payload
// with optional extra flags.
func failure(w http.ResponseWriter, status int, message string, extra map[string]any) {
	body := map[string]any{"success": false, "message": message}
	for k, v := range extra {
		body[k] = v
	}
	JSON(w, status, body)
}

// loadState fetches the actor's session state, logging and substituting an
// empty state on transport failure so the request can still proceed.
func (h *Handler) loadState(r *http.Request, userID string) *session.State {
	state, err := h.sessions.Load(r.Context(), userID)
	if err != nil {
		slog.Error("failed to load session state", "user_id", userID, "error", err)
		return &session.State{UserID: userID}
	}
	return state
}

// saveState writes the session state back, logging on failure. A session
// write failure never fails the caller's request.
func (h *Handler) saveState(r *http.Request, userID string, state *session.State) {
	if err := h.sessions.Save(r.Context(), userID, state); err != nil {
		slog.Error("failed to save session state", "user_id", userID, "error", err)
	}
}
