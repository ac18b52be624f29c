package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/pwalczak/cv-optimizer/internal/cvproc"
	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/entitlement"
	"github.com/pwalczak/cv-optimizer/internal/identity"
)

type processPayload struct {
	CVText         string   `json:"cv_text"`
	JobDescription string   `json:"job_description"`
	JobTitle       string   `json:"job_title"`
	CompanyName    string   `json:"company_name"`
	SelectedOption string   `json:"selected_option"`
	Roles          []string `json:"roles"`
	Language       string   `json:"language"`
}

// verdictExtras maps a rejection to the flag the frontend keys its payment
// prompts on.
func verdictExtras(d entitlement.Decision) map[string]any {
	switch d {
	case entitlement.NeedsPayment:
		return map[string]any{"payment_required": true}
	case entitlement.NeedsPremium:
		return map[string]any{"premium_required": true}
	case entitlement.NeedsBuilderPayment:
		return map[string]any{"cv_builder_payment_required": true}
	default:
		return nil
	}
}

func (h *Handler) processCV(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	var payload processPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		failure(w, http.StatusBadRequest, "Invalid request body.", nil)
		return
	}
	if payload.Language == "" {
		payload.Language = "pl"
	}

	state := h.loadState(r, actor.ID)

	cvText := payload.CVText
	if cvText == "" {
		cvText = state.CVText
	}
	if cvText == "" {
		failure(w, http.StatusBadRequest, "No CV text found. Please upload a CV first.", nil)
		return
	}
	jobTitle := payload.JobTitle
	if jobTitle == "" {
		jobTitle = state.JobTitle
	}
	jobDescription := payload.JobDescription
	if jobDescription == "" {
		jobDescription = state.JobDescription
	}

	outcome, err := h.orchestrator.Process(r.Context(), cvproc.ProcessRequest{
		Actor:          actor,
		State:          state,
		Operation:      domain.Operation(payload.SelectedOption),
		CVText:         cvText,
		JobDescription: jobDescription,
		JobTitle:       jobTitle,
		CompanyName:    payload.CompanyName,
		Language:       payload.Language,
		Roles:          payload.Roles,
	})
	if err != nil {
		slog.Error("CV processing failed",
			"user_id", actor.ID, "operation", payload.SelectedOption, "error", err)
		failure(w, http.StatusInternalServerError, "Error processing request: "+err.Error(), nil)
		return
	}

	if !outcome.Verdict.Allowed() {
		// A builder rejection stashes the pending request in the session, so
		// the state is written back even when the operation is refused.
		h.saveState(r, actor.ID, state)
		failure(w, outcome.Verdict.HTTPStatus(), outcome.Verdict.Reason,
			verdictExtras(outcome.Verdict.Decision))
		return
	}

	h.saveState(r, actor.ID, state)

	JSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"result":      outcome.Result.Value(),
		"watermarked": outcome.Watermarked,
	})
}
