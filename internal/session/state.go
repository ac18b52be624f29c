// Package session manages the ephemeral per-actor state blob and keeps it
// inside a hard byte budget.
//
// The state is an explicit fixed schema of named slots instead of a free-form
// map, so the set of slots that survives a clear is enforced by the type
// system rather than by hand-maintained key lists.
package session

import (
	"strings"
)

// Truncation markers appended when a slot is cut.
const (
	TruncMarker          = "...[skrócono]"
	lastOptimizedMarker  = "...[skrócono dla optymalizacji sesji]"
	capCVText            = 2000
	capOriginalCVText    = 1500
	capLastOptimizedCV   = 1500
	capContentSlot       = 1000
	capOriginalFilename  = 100
	capJobTitle          = 200
	capJobDescription    = 500
	capCardNameField     = 50
	capCardEmailField    = 100
	capCardPhoneField    = 20
	capCardJobTitleField = 100
)

// ContactCard is the reduced allow-list of CV builder fields kept in the
// session. Anything outside these fields is dropped before storage.
type ContactCard struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	JobTitle  string `json:"jobTitle,omitempty"`
}

// State is the per-actor session blob. Identity and entitlement slots
// survive every clear and eviction; content slots do not.
type State struct {
	// Identity and entitlement slots. Never removed by budget enforcement.
	UserID          string `json:"user_id,omitempty"`
	CVUploadID      string `json:"cv_upload_id,omitempty"`
	PaymentVerified bool   `json:"payment_verified,omitempty"`
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
	CVBuilderPaid   bool   `json:"cv_builder_paid,omitempty"`

	// Content slots, each with a per-slot cap.
	CVText          string       `json:"cv_text,omitempty"`
	OriginalCVText  string       `json:"original_cv_text,omitempty"`
	LastOptimizedCV string       `json:"last_optimized_cv,omitempty"`
	AIGeneratedCV   string       `json:"ai_generated_cv,omitempty"`
	PendingAICVData string       `json:"pending_ai_cv_data,omitempty"`
	CVData          *ContactCard `json:"cv_data,omitempty"`

	// Small metadata slots.
	OriginalFilename string `json:"original_filename,omitempty"`
	JobTitle         string `json:"job_title,omitempty"`
	JobDescription   string `json:"job_description,omitempty"`
}

// SetCVText stores the working CV text, truncated to its slot cap.
func (s *State) SetCVText(text string) {
	s.CVText = truncate(text, capCVText, TruncMarker)
}

// SetOriginalCVText stores the untouched upload text for later comparison.
func (s *State) SetOriginalCVText(text string) {
	s.OriginalCVText = truncate(text, capOriginalCVText, TruncMarker)
}

// SetLastOptimizedCV stores the most recent optimization result.
func (s *State) SetLastOptimizedCV(text string) {
	s.LastOptimizedCV = truncate(text, capLastOptimizedCV, lastOptimizedMarker)
}

// SetAIGeneratedCV stores a serialized AI-built CV document.
func (s *State) SetAIGeneratedCV(doc string) {
	s.AIGeneratedCV = truncate(doc, capCVText, TruncMarker)
}

// SetPendingAICVData stores a serialized CV request awaiting payment.
func (s *State) SetPendingAICVData(doc string) {
	s.PendingAICVData = truncate(doc, capCVText, TruncMarker)
}

// SetCVData stores the builder contact card with per-field caps applied.
func (s *State) SetCVData(card ContactCard) {
	s.CVData = &ContactCard{
		FirstName: truncate(card.FirstName, capCardNameField, ""),
		LastName:  truncate(card.LastName, capCardNameField, ""),
		Email:     truncate(card.Email, capCardEmailField, ""),
		Phone:     truncate(card.Phone, capCardPhoneField, ""),
		JobTitle:  truncate(card.JobTitle, capCardJobTitleField, ""),
	}
}

// SetUploadMeta stores the small per-upload metadata slots.
func (s *State) SetUploadMeta(filename, jobTitle, jobDescription string) {
	s.OriginalFilename = truncate(filename, capOriginalFilename, "")
	s.JobTitle = truncate(jobTitle, capJobTitle, "")
	s.JobDescription = truncate(jobDescription, capJobDescription, "")
}

// ClearBeforeNewLargeWrite removes the content slots ahead of a new large
// write. Identity, payment flags and the upload id are left untouched:
// entitlement state must survive any content churn.
func (s *State) ClearBeforeNewLargeWrite() {
	s.CVText = ""
	s.OriginalCVText = ""
	s.LastOptimizedCV = ""
	s.AIGeneratedCV = ""
	s.PendingAICVData = ""
	s.CVData = nil
}

// shrink applies the slot-by-slot reduction policy: long content slots are
// cut to the generic content cap and the contact card loses everything but
// its core fields.
func (s *State) shrink() {
	s.CVText = truncate(s.CVText, capContentSlot, TruncMarker)
	s.OriginalCVText = truncate(s.OriginalCVText, capContentSlot, TruncMarker)
	s.LastOptimizedCV = truncate(s.LastOptimizedCV, capContentSlot, TruncMarker)
	s.AIGeneratedCV = truncate(s.AIGeneratedCV, capContentSlot, TruncMarker)
	s.PendingAICVData = truncate(s.PendingAICVData, capContentSlot, TruncMarker)
	if s.CVData != nil {
		s.CVData = &ContactCard{
			FirstName: s.CVData.FirstName,
			LastName:  s.CVData.LastName,
			Email:     s.CVData.Email,
			JobTitle:  s.CVData.JobTitle,
		}
	}
}

// truncate cuts s to at most max runes and appends the marker. A value that
// already carries the marker and sits within max+marker runes is left alone
// so repeated passes are idempotent; anything longer is cut regardless of
// the marker, otherwise resubmitted truncated text would bypass the cap.
func truncate(s string, max int, marker string) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if marker != "" && strings.HasSuffix(s, marker) {
		markerLen := len([]rune(marker))
		if len(runes) <= max+markerLen {
			return s
		}
		runes = runes[:len(runes)-markerLen]
	}
	return string(runes[:max]) + marker
}
