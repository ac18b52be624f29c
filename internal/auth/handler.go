package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pwalczak/cv-optimizer/internal/api"
	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/identity"
	"github.com/pwalczak/cv-optimizer/internal/store"
)

// developerUsername is the designated account that bypasses all entitlement
// checks, used for internal testing.
const developerUsername = "developer"

// Handler serves the account endpoints.
type Handler struct {
	repo  store.Repository
	isDev bool
}

// NewHandler creates an auth handler.
func NewHandler(repo store.Repository, isDev bool) *Handler {
	return &Handler{repo: repo, isDev: isDev}
}

// RegisterRoutes mounts the auth endpoints on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/api/register", h.register)
	r.Post("/api/login", h.login)
	r.Post("/api/logout", h.logout)
}

type credentialsPayload struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	username := strings.TrimSpace(payload.Username)
	if username == "" || len(payload.Password) < 8 {
		api.Error(w, http.StatusBadRequest, "username and a password of at least 8 characters are required")
		return
	}

	existing, err := h.repo.GetUserByUsername(r.Context(), username)
	if err != nil {
		slog.Error("failed to look up username", "error", err)
		api.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}
	if existing != nil {
		api.Error(w, http.StatusConflict, "username already taken")
		return
	}

	hash, err := HashPassword(payload.Password)
	if err != nil {
		slog.Error("failed to hash password", "error", err)
		api.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	now := time.Now()
	actor := &domain.Actor{
		ID:                uuid.NewString(),
		Username:          username,
		Email:             strings.TrimSpace(payload.Email),
		PasswordHash:      hash,
		DeveloperOverride: username == developerUsername,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.repo.UpsertUser(r.Context(), actor); err != nil {
		slog.Error("failed to create user", "error", err)
		api.Error(w, http.StatusInternalServerError, "registration failed")
		return
	}

	identity.SetCookie(w, actor.ID, h.isDev)
	api.JSON(w, http.StatusCreated, actor)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload credentialsPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	actor, err := h.repo.GetUserByUsername(r.Context(), strings.TrimSpace(payload.Username))
	if err != nil {
		slog.Error("failed to look up username", "error", err)
		api.Error(w, http.StatusInternalServerError, "login failed")
		return
	}
	if actor == nil || !CheckPasswordHash(payload.Password, actor.PasswordHash) {
		api.Error(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	identity.SetCookie(w, actor.ID, h.isDev)
	api.JSON(w, http.StatusOK, actor)
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if actor := identity.ActorFromContext(r.Context()); actor != nil {
		if err := h.repo.DeleteSessionBlob(r.Context(), actor.ID); err != nil {
			slog.Warn("failed to drop session on logout", "user_id", actor.ID, "error", err)
		}
	}
	identity.ClearCookie(w)
	api.JSON(w, http.StatusOK, map[string]bool{"success": true})
}
