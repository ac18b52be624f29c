// Package ai provides the external AI collaborator interface and the
// normalization of its replies into canonical result values.
package ai

import (
	"context"

	"github.com/pwalczak/cv-optimizer/internal/domain"
)

// Request carries everything an AI operation needs.
type Request struct {
	Operation      domain.Operation
	CVText         string
	JobDescription string
	JobTitle       string
	CompanyName    string
	Language       string
	Roles          []string

	// Premium and PaymentVerified select the depth of the optimization
	// prompt; they do not gate access, which is the evaluator's job.
	Premium         bool
	PaymentVerified bool
}

// Service is the external AI collaborator. A failed call is terminal for the
// current request; the core never retries it.
type Service interface {
	Invoke(ctx context.Context, req Request) (string, error)
}
