package api

import (
	"net/http"

	"github.com/pwalczak/cv-optimizer/internal/identity"
)

// compareCVVersions returns the original upload and the most recent
// optimization side by side so the frontend can render a diff view.
func (h *Handler) compareCVVersions(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}
	state := h.loadState(r, actor.ID)

	original := state.OriginalCVText
	if original == "" {
		original = "Brak oryginalnego CV"
	}
	optimized := state.LastOptimizedCV
	if optimized == "" {
		optimized = "Brak zoptymalizowanego CV"
	}

	JSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"original_cv":       original,
		"optimized_cv":      optimized,
		"has_both_versions": state.OriginalCVText != "" && state.LastOptimizedCV != "",
	})
}
