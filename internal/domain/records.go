package domain

import (
	"time"
)

// CVUpload is a persisted record of an uploaded CV.
type CVUpload struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Filename       string    `json:"filename"`
	OriginalText   string    `json:"-"`
	JobTitle       string    `json:"job_title,omitempty"`
	JobDescription string    `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

// AnalysisResult is the audit record written after a processing operation.
// Saving it is best-effort; a failed save never fails the request.
type AnalysisResult struct {
	ID           string    `json:"id"`
	CVUploadID   string    `json:"cv_upload_id"`
	AnalysisType string    `json:"analysis_type"`
	ResultJSON   string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
