package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/identity"
	"github.com/pwalczak/cv-optimizer/internal/session"
)

type memTransport struct {
	blobs map[string][]byte
}

func newMemTransport() *memTransport {
	return &memTransport{blobs: make(map[string][]byte)}
}

func (m *memTransport) GetSessionBlob(_ context.Context, userID string) ([]byte, error) {
	return m.blobs[userID], nil
}

func (m *memTransport) PutSessionBlob(_ context.Context, userID string, blob []byte) error {
	m.blobs[userID] = blob
	return nil
}

func (m *memTransport) DeleteSessionBlob(_ context.Context, userID string) error {
	delete(m.blobs, userID)
	return nil
}

func newCompareHandler(t *testing.T, state *session.State) *Handler {
	t.Helper()
	transport := newMemTransport()
	sessions := session.NewManager(transport, 9500, 10000)
	if state != nil {
		if err := sessions.Save(context.Background(), state.UserID, state); err != nil {
			t.Fatalf("Failed to seed session: %v", err)
		}
	}
	return &Handler{sessions: sessions}
}

func TestCompareCVVersionsWithoutIdentity(t *testing.T) {
	h := newCompareHandler(t, nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/compare-cv-versions", nil)

	h.compareCVVersions(w, r)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Result().StatusCode)
	}
}

func TestCompareCVVersionsFallbacks(t *testing.T) {
	h := newCompareHandler(t, nil)
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/compare-cv-versions", nil)
	r = r.WithContext(identity.WithActor(r.Context(), &domain.Actor{ID: "u1"}))

	h.compareCVVersions(w, r)

	var got map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["original_cv"] != "Brak oryginalnego CV" {
		t.Errorf("Expected original fallback, got %v", got["original_cv"])
	}
	if got["optimized_cv"] != "Brak zoptymalizowanego CV" {
		t.Errorf("Expected optimized fallback, got %v", got["optimized_cv"])
	}
	if got["has_both_versions"] != false {
		t.Errorf("Expected has_both_versions=false, got %v", got["has_both_versions"])
	}
}

func TestCompareCVVersionsBothPresent(t *testing.T) {
	state := &session.State{UserID: "u1"}
	state.SetOriginalCVText("oryginalne cv")
	state.SetLastOptimizedCV("zoptymalizowane cv")
	h := newCompareHandler(t, state)

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/compare-cv-versions", nil)
	r = r.WithContext(identity.WithActor(r.Context(), &domain.Actor{ID: "u1"}))

	h.compareCVVersions(w, r)

	var got map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["original_cv"] != "oryginalne cv" || got["optimized_cv"] != "zoptymalizowane cv" {
		t.Errorf("Expected stored versions, got %v / %v", got["original_cv"], got["optimized_cv"])
	}
	if got["has_both_versions"] != true {
		t.Errorf("Expected has_both_versions=true, got %v", got["has_both_versions"])
	}
}
