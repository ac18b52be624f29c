// Package identity resolves the acting user for every request, minting an
// anonymous per-device identity when no account cookie is present.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"regexp"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/store"
)

const (
	// CookieName carries the user id, anonymous or registered.
	CookieName   = "cvopt_uid"
	cookieMaxAge = 30 * 24 * time.Hour
)

type contextKey int

const actorKey contextKey = iota

var userIDPattern = regexp.MustCompile(`^(anon_[a-f0-9]{32}|[A-Za-z0-9-]{1,64})$`)

// ActorFromContext extracts the acting user from the request context.
func ActorFromContext(ctx context.Context) *domain.Actor {
	if a, ok := ctx.Value(actorKey).(*domain.Actor); ok {
		return a
	}
	return nil
}

// WithActor returns a context carrying the actor. Exposed for handler tests.
func WithActor(ctx context.Context, actor *domain.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// SetCookie writes the identity cookie for the given user id. Called by the
// auth handlers after login and register.
func SetCookie(w http.ResponseWriter, userID string, isDev bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    userID,
		Path:     "/",
		MaxAge:   int(cookieMaxAge.Seconds()),
		Expires:  time.Now().Add(cookieMaxAge),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   !isDev,
	})
}

// ClearCookie expires the identity cookie.
func ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func generateAnonID() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate anonymous id: %w", err)
	}
	return "anon_" + hex.EncodeToString(buf), nil
}

func deriveUsername(userID string) string {
	if len(userID) > 13 {
		return "anon-" + userID[len(userID)-8:]
	}
	return "anon-user"
}

func ensureUser(ctx context.Context, repo store.Repository, userID string) (*domain.Actor, error) {
	actor, err := repo.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if actor != nil {
		return actor, nil
	}

	now := time.Now()
	actor = &domain.Actor{
		ID:        userID,
		Username:  deriveUsername(userID),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.UpsertUser(ctx, actor); err != nil {
		return nil, err
	}
	return actor, nil
}

// Middleware resolves the acting user from the identity cookie, minting an
// anonymous identity when none exists, and injects the actor into the
// request context.
func Middleware(repo store.Repository, isDev bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := ""
			if c, err := r.Cookie(CookieName); err == nil && userIDPattern.MatchString(c.Value) {
				userID = c.Value
			}

			if userID == "" {
				id, err := generateAnonID()
				if err != nil {
					http.Error(w, `{"error":"failed to establish identity"}`, http.StatusInternalServerError)
					return
				}
				userID = id
			}
			SetCookie(w, userID, isDev)

			actor, err := ensureUser(r.Context(), repo, userID)
			if err != nil {
				http.Error(w, `{"error":"failed to initialize user"}`, http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}
