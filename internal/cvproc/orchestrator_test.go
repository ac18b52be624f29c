package cvproc

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pwalczak/cv-optimizer/internal/ai"
	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/entitlement"
	"github.com/pwalczak/cv-optimizer/internal/session"
)

type fakeAI struct {
	reply   string
	err     error
	calls   int
	lastReq ai.Request
}

func (f *fakeAI) Invoke(_ context.Context, req ai.Request) (string, error) {
	f.calls++
	f.lastReq = req
	return f.reply, f.err
}

type fakeAudit struct {
	records []*domain.AnalysisResult
	err     error
}

func (f *fakeAudit) SaveAnalysisResult(_ context.Context, rec *domain.AnalysisResult) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type nullTransport struct{}

func (nullTransport) GetSessionBlob(context.Context, string) ([]byte, error) { return nil, nil }
func (nullTransport) PutSessionBlob(context.Context, string, []byte) error   { return nil }
func (nullTransport) DeleteSessionBlob(context.Context, string) error        { return nil }

func newTestOrchestrator(aiSvc ai.Service, audit AuditStore) *Orchestrator {
	sessions := session.NewManager(nullTransport{}, 9500, 10000)
	return New(aiSvc, sessions, audit, nil)
}

func TestProcessUnpaidOptimizeIsWatermarkedDemo(t *testing.T) {
	fake := &fakeAI{reply: "Zoptymalizowane CV"}
	o := newTestOrchestrator(fake, nil)

	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     &session.State{UserID: "u1"},
		Operation: domain.OpOptimize,
		CVText:    "moje cv",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !out.Verdict.Allowed() {
		t.Fatalf("Expected demo path to proceed, got %s", out.Verdict.Decision)
	}
	if fake.calls != 1 {
		t.Errorf("Expected one AI call, got %d", fake.calls)
	}
	if !out.Watermarked {
		t.Error("Expected watermarked output for unpaid optimize")
	}
	if strings.Count(out.Result.Text, BannerHeading) != 2 {
		t.Error("Expected demo banner before and after the result")
	}
	if fake.lastReq.PaymentVerified {
		t.Error("Expected demo AI request not to claim verified payment")
	}
}

func TestProcessPaidOptimizeIsClean(t *testing.T) {
	fake := &fakeAI{reply: "Zoptymalizowane CV"}
	o := newTestOrchestrator(fake, nil)

	state := &session.State{UserID: "u1", PaymentVerified: true}
	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     state,
		Operation: domain.OpOptimize,
		CVText:    "moje cv",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Watermarked {
		t.Error("Expected no watermark for verified payment")
	}
	if strings.Contains(out.Result.Text, BannerHeading) {
		t.Error("Expected clean output for verified payment")
	}
	if state.LastOptimizedCV == "" {
		t.Error("Expected optimization result stored in the session")
	}
}

func TestProcessPremiumOperationRejectedWithoutAICall(t *testing.T) {
	fake := &fakeAI{reply: "irrelevant"}
	o := newTestOrchestrator(fake, nil)

	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     &session.State{UserID: "u1"},
		Operation: domain.OpCoverLetter,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Verdict.Decision != entitlement.NeedsPremium {
		t.Errorf("Expected needs_premium verdict, got %s", out.Verdict.Decision)
	}
	if fake.calls != 0 {
		t.Errorf("Expected no AI call for a rejected request, got %d", fake.calls)
	}
}

func TestProcessPremiumAdvancedOptimizationNotWatermarked(t *testing.T) {
	until := time.Now().Add(24 * time.Hour)
	fake := &fakeAI{reply: `{"optimized_cv": "CV premium"}`}
	o := newTestOrchestrator(fake, nil)

	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1", PremiumUntil: &until},
		State:     &session.State{UserID: "u1"},
		Operation: domain.OpAdvancedPositionOptimization,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Watermarked {
		t.Error("Expected no watermark for premium subscriber")
	}
	if out.Result.Text != "CV premium" {
		t.Errorf("Expected optimized_cv field extracted, got %q", out.Result.Text)
	}
}

func TestProcessBuilderUnpaidRejectedAndStashed(t *testing.T) {
	fake := &fakeAI{}
	o := newTestOrchestrator(fake, nil)

	state := &session.State{UserID: "u1"}
	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     state,
		Operation: domain.OpCVBuilder,
		CVText:    "dane do cv",
		JobTitle:  "Inżynier",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if out.Verdict.Decision != entitlement.NeedsBuilderPayment {
		t.Errorf("Expected needs_builder_payment, got %s", out.Verdict.Decision)
	}
	if fake.calls != 0 {
		t.Errorf("Expected no AI call, got %d", fake.calls)
	}
	if !strings.Contains(state.PendingAICVData, "dane do cv") ||
		!strings.Contains(state.PendingAICVData, "Inżynier") {
		t.Errorf("Expected builder request stashed for after payment, got %q", state.PendingAICVData)
	}
}

func TestProcessBuilderPaidStoresGeneratedCV(t *testing.T) {
	fake := &fakeAI{reply: `{"optimized_cv": "Wygenerowane CV"}`}
	o := newTestOrchestrator(fake, nil)

	state := &session.State{UserID: "u1", CVBuilderPaid: true, PendingAICVData: `{"cv_text":"dane"}`}
	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     state,
		Operation: domain.OpCVBuilder,
		CVText:    "dane do cv",
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if !out.Verdict.Allowed() {
		t.Fatalf("Expected builder to proceed once paid, got %s", out.Verdict.Decision)
	}
	if state.AIGeneratedCV != "Wygenerowane CV" {
		t.Errorf("Expected generated CV stored in the session, got %q", state.AIGeneratedCV)
	}
	if state.PendingAICVData != "" {
		t.Errorf("Expected pending builder request cleared after generation, got %q", state.PendingAICVData)
	}
}

func TestProcessAIFailureIsTerminal(t *testing.T) {
	fake := &fakeAI{err: errors.New("upstream down")}
	o := newTestOrchestrator(fake, nil)

	_, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "dev", DeveloperOverride: true},
		State:     &session.State{UserID: "dev"},
		Operation: domain.OpOptimize,
	})
	if err == nil {
		t.Fatal("Expected error when AI collaborator fails")
	}
	if !strings.Contains(err.Error(), "upstream down") {
		t.Errorf("Expected wrapped upstream error, got %v", err)
	}
}

func TestProcessSavesAuditRecord(t *testing.T) {
	fake := &fakeAI{reply: "wynik"}
	audit := &fakeAudit{}
	o := newTestOrchestrator(fake, audit)

	_, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     &session.State{UserID: "u1", CVUploadID: "up1"},
		Operation: domain.OpFeedback,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	if len(audit.records) != 1 {
		t.Fatalf("Expected one audit record, got %d", len(audit.records))
	}
	rec := audit.records[0]
	if rec.CVUploadID != "up1" || rec.AnalysisType != "feedback" {
		t.Errorf("Unexpected audit record: %+v", rec)
	}
	if rec.ID == "" {
		t.Error("Expected generated record id")
	}
}

func TestProcessAuditFailureDoesNotFailRequest(t *testing.T) {
	fake := &fakeAI{reply: "wynik"}
	audit := &fakeAudit{err: errors.New("disk full")}
	o := newTestOrchestrator(fake, audit)

	out, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     &session.State{UserID: "u1", CVUploadID: "up1"},
		Operation: domain.OpFeedback,
	})
	if err != nil {
		t.Fatalf("Expected audit failure swallowed, got %v", err)
	}
	if !out.Verdict.Allowed() {
		t.Errorf("Expected allowed outcome, got %s", out.Verdict.Decision)
	}
}

func TestProcessSkipsAuditWithoutUpload(t *testing.T) {
	fake := &fakeAI{reply: "wynik"}
	audit := &fakeAudit{}
	o := newTestOrchestrator(fake, audit)

	_, err := o.Process(context.Background(), ProcessRequest{
		Actor:     &domain.Actor{ID: "u1"},
		State:     &session.State{UserID: "u1"},
		Operation: domain.OpFeedback,
	})
	if err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if len(audit.records) != 0 {
		t.Errorf("Expected no audit record without an upload id, got %d", len(audit.records))
	}
}
