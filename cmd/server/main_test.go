package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/config"
	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/session"
)

type stubRepo struct {
	upserts int
}

func (s *stubRepo) GetUser(context.Context, string) (*domain.Actor, error) { return nil, nil }

func (s *stubRepo) GetUserByUsername(context.Context, string) (*domain.Actor, error) {
	return nil, nil
}

func (s *stubRepo) UpsertUser(context.Context, *domain.Actor) error {
	s.upserts++
	return nil
}

func (s *stubRepo) GetSessionBlob(context.Context, string) ([]byte, error) { return nil, nil }
func (s *stubRepo) PutSessionBlob(context.Context, string, []byte) error   { return nil }
func (s *stubRepo) DeleteSessionBlob(context.Context, string) error        { return nil }
func (s *stubRepo) SaveCVUpload(context.Context, *domain.CVUpload) error   { return nil }

func (s *stubRepo) SaveAnalysisResult(context.Context, *domain.AnalysisResult) error {
	return nil
}

func (s *stubRepo) CleanupExpiredSessions(context.Context, time.Duration) (int64, error) {
	return 0, nil
}

func (s *stubRepo) Ping(context.Context) error { return nil }
func (s *stubRepo) Close() error               { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Port: "8080",
		Session: config.SessionConfig{
			SoftLimitBytes: 9500,
			HardLimitBytes: 10000,
			TTL:            720 * time.Hour,
		},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 2, Burst: 5},
	}
}

func TestMetricsEndpointSkipsIdentity(t *testing.T) {
	repo := &stubRepo{}
	cfg := testConfig()
	sessions := session.NewManager(repo, cfg.Session.SoftLimitBytes, cfg.Session.HardLimitBytes)
	r := newRouter(cfg, repo, sessions, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200 from /metrics, got %d", resp.StatusCode)
	}
	if repo.upserts != 0 {
		t.Errorf("Expected no user minted for a metrics scrape, got %d upserts", repo.upserts)
	}
	if len(resp.Cookies()) != 0 {
		t.Errorf("Expected no identity cookie on /metrics, got %v", resp.Cookies())
	}
}

func TestAPIRoutesResolveIdentity(t *testing.T) {
	repo := &stubRepo{}
	cfg := testConfig()
	sessions := session.NewManager(repo, cfg.Session.SoftLimitBytes, cfg.Session.HardLimitBytes)
	r := newRouter(cfg, repo, sessions, nil, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/compare-cv-versions", nil))

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if repo.upserts != 1 {
		t.Errorf("Expected an anonymous user minted for an API request, got %d upserts", repo.upserts)
	}
	if len(resp.Cookies()) == 0 {
		t.Error("Expected identity cookie set on an API request")
	}
}
