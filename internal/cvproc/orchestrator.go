package cvproc

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pwalczak/cv-optimizer/internal/ai"
	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/entitlement"
	"github.com/pwalczak/cv-optimizer/internal/session"
)

// AuditStore persists best-effort analysis records. A save failure is logged
// and never fails the request.
type AuditStore interface {
	SaveAnalysisResult(ctx context.Context, rec *domain.AnalysisResult) error
}

// ProcessRequest is one inbound CV processing request with the actor and the
// already-loaded session state.
type ProcessRequest struct {
	Actor          *domain.Actor
	State          *session.State
	Operation      domain.Operation
	CVText         string
	JobDescription string
	JobTitle       string
	CompanyName    string
	Language       string
	Roles          []string
}

// Outcome is the terminal result of processing a request. When the verdict
// is not allowed, Result is empty and the caller maps the verdict to a
// status; otherwise Result carries the (possibly watermarked) value.
type Outcome struct {
	Verdict     entitlement.Verdict
	Result      ai.Result
	Watermarked bool
}

// Orchestrator runs the per-request pipeline: entitlement verdict, external
// AI dispatch, reply normalization, watermarking, session budgeting and the
// best-effort audit record.
type Orchestrator struct {
	ai       ai.Service
	sessions *session.Manager
	audit    AuditStore
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an orchestrator. audit may be nil when no persistent store is
// configured.
func New(aiSvc ai.Service, sessions *session.Manager, audit AuditStore, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		ai:       aiSvc,
		sessions: sessions,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Process runs one request through the pipeline. A non-allowed verdict is
// returned without error and without touching the AI collaborator; an AI
// failure is a terminal error for this request only.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest) (*Outcome, error) {
	now := o.now()
	flags := entitlement.Flags{
		PaymentVerified: req.State.PaymentVerified,
		CVBuilderPaid:   req.State.CVBuilderPaid,
	}

	verdict := entitlement.Evaluate(req.Operation, req.Actor, flags, now)
	demo := false
	switch {
	case verdict.Allowed():
	case verdict.Decision == entitlement.NeedsPayment && req.Operation == domain.OpOptimize:
		// Unpaid callers still get the basic optimization as a watermarked
		// demo preview instead of a hard rejection.
		demo = true
	case verdict.Decision == entitlement.NeedsBuilderPayment:
		// Stash the builder request so it can be generated right after the
		// payment is verified, without the user re-entering their data.
		o.stashBuilderRequest(req)
		o.sessions.EnforceBudget(req.State)
		return &Outcome{Verdict: verdict}, nil
	default:
		return &Outcome{Verdict: verdict}, nil
	}

	premium := req.Actor != nil && req.Actor.IsPremiumActive(now)
	entitled := (req.Actor != nil && req.Actor.DeveloperOverride) || premium || req.State.PaymentVerified

	raw, err := o.ai.Invoke(ctx, ai.Request{
		Operation:       req.Operation,
		CVText:          req.CVText,
		JobDescription:  req.JobDescription,
		JobTitle:        req.JobTitle,
		CompanyName:     req.CompanyName,
		Language:        req.Language,
		Roles:           req.Roles,
		Premium:         premium,
		PaymentVerified: entitled && !demo,
	})
	if err != nil {
		return nil, fmt.Errorf("AI operation %s: %w", req.Operation, err)
	}

	result := ai.Normalize(raw)

	watermarked := false
	if domain.IsOptimizeClass(req.Operation) && !entitled {
		result = ai.Result{
			Kind: ai.KindPlainText,
			Text: ApplyWatermark(result.Document(), false),
		}
		watermarked = true
	}

	if domain.IsOptimizeClass(req.Operation) {
		req.State.SetLastOptimizedCV(result.Document())
	}
	if req.Operation == domain.OpCVBuilder {
		req.State.SetAIGeneratedCV(result.Document())
		req.State.PendingAICVData = ""
	}
	o.sessions.EnforceBudget(req.State)

	o.saveAudit(ctx, req, result, now)

	return &Outcome{
		Verdict:     entitlement.Verdict{Decision: entitlement.Allowed},
		Result:      result,
		Watermarked: watermarked,
	}, nil
}

func (o *Orchestrator) stashBuilderRequest(req ProcessRequest) {
	payload, err := json.Marshal(map[string]any{
		"cv_text":         req.CVText,
		"job_title":       req.JobTitle,
		"job_description": req.JobDescription,
		"company_name":    req.CompanyName,
		"language":        req.Language,
		"roles":           req.Roles,
	})
	if err != nil {
		o.logger.Error("failed to encode pending builder request", "error", err)
		return
	}
	req.State.SetPendingAICVData(string(payload))
}

func (o *Orchestrator) saveAudit(ctx context.Context, req ProcessRequest, result ai.Result, now time.Time) {
	if o.audit == nil || req.State.CVUploadID == "" {
		return
	}

	payload, err := json.Marshal(map[string]any{
		"result":          result.Value(),
		"job_description": req.JobDescription,
		"timestamp":       now.UTC().Format(time.RFC3339),
	})
	if err != nil {
		o.logger.Error("failed to encode analysis result", "error", err)
		return
	}

	rec := &domain.AnalysisResult{
		ID:           uuid.NewString(),
		CVUploadID:   req.State.CVUploadID,
		AnalysisType: string(req.Operation),
		ResultJSON:   string(payload),
		CreatedAt:    now,
	}
	if err := o.audit.SaveAnalysisResult(ctx, rec); err != nil {
		o.logger.Error("failed to save analysis result",
			"cv_upload_id", req.State.CVUploadID, "operation", string(req.Operation), "error", err)
	}
}
