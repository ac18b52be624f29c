package api

import (
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pwalczak/cv-optimizer/internal/domain"
	"github.com/pwalczak/cv-optimizer/internal/identity"
)

const (
	maxUploadBytes   = 16 << 20 // matches the transport-level body limit
	maxCVTextBytes   = 1 << 20  // cap on extracted CV text kept in the store
	pastedCVFilename = "wklejone_cv.txt"
)

func (h *Handler) uploadCV(w http.ResponseWriter, r *http.Request) {
	actor := identity.ActorFromContext(r.Context())
	if actor == nil {
		Error(w, http.StatusUnauthorized, "no identity")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		failure(w, http.StatusBadRequest, "Nieprawidłowe żądanie przesłania pliku.", nil)
		return
	}

	cvText := r.FormValue("cv_text")
	filename := pastedCVFilename

	if file, header, err := r.FormFile("cv_file"); err == nil {
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				slog.Warn("failed to close uploaded file", "error", closeErr)
			}
		}()

		if !allowedFile(header.Filename) {
			failure(w, http.StatusBadRequest,
				"Nieprawidłowy format pliku. Obsługiwane formaty: TXT", nil)
			return
		}

		raw, err := io.ReadAll(io.LimitReader(file, maxCVTextBytes))
		if err != nil {
			slog.Error("failed to read uploaded CV", "user_id", actor.ID, "error", err)
			failure(w, http.StatusInternalServerError, "Błąd podczas przetwarzania pliku.", nil)
			return
		}
		cvText = string(raw)
		filename = filepath.Base(header.Filename)
	}

	if strings.TrimSpace(cvText) == "" {
		failure(w, http.StatusBadRequest,
			"Nie wybrano pliku ani nie wprowadzono tekstu CV", nil)
		return
	}

	jobTitle := r.FormValue("job_title")
	jobDescription := r.FormValue("job_description")

	upload := &domain.CVUpload{
		ID:             uuid.NewString(),
		UserID:         actor.ID,
		Filename:       filename,
		OriginalText:   cvText,
		JobTitle:       jobTitle,
		JobDescription: jobDescription,
		CreatedAt:      time.Now(),
	}
	if err := h.repo.SaveCVUpload(r.Context(), upload); err != nil {
		slog.Error("failed to save CV upload", "user_id", actor.ID, "error", err)
		failure(w, http.StatusInternalServerError,
			"Wystąpił błąd podczas przesyłania pliku.", nil)
		return
	}

	state := h.loadState(r, actor.ID)
	// Content slots are cleared before the new large write; payment flags
	// and identity survive.
	state.ClearBeforeNewLargeWrite()
	state.SetCVText(cvText)
	state.SetOriginalCVText(cvText)
	state.SetUploadMeta(filename, jobTitle, jobDescription)
	state.CVUploadID = upload.ID
	h.saveState(r, actor.ID, state)

	JSON(w, http.StatusOK, map[string]any{
		"success": true,
		"cv_text": cvText,
		"message": "CV zostało pomyślnie przesłane i zapisane.",
	})
}

func allowedFile(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".txt")
}
