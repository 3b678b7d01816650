package handle

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"homework-check/api/internal/analyze"
	"homework-check/api/internal/correct"
	"homework-check/api/internal/store"
	"homework-check/api/internal/util"
)

type CorrectRequest struct {
	ImageB64   string `json:"image_b64"`
	Subject    string `json:"subject"`
	GradeLevel string `json:"grade_level"`
	StudentID  string `json:"student_id"`
	Preprocess *bool  `json:"preprocess,omitempty"`
}

// Correct grades one worksheet image. Identical (image, subject, grade)
// uploads inside the cache window are served from the store without
// re-running recognition.
func (h *Handle) Correct(w http.ResponseWriter, r *http.Request) {
	var req CorrectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json: "+err.Error(), http.StatusBadRequest)
		return
	}

	img, _, err := util.DecodeBase64MaybeDataURL(req.ImageB64)
	if err != nil || len(img) == 0 {
		http.Error(w, "bad image_b64", http.StatusBadRequest)
		return
	}

	subject := req.Subject
	if subject == "" {
		subject = h.DefaultSubject
	}
	grade := req.GradeLevel
	if grade == "" {
		grade = h.DefaultGrade
	}
	pre := h.Preprocess
	if req.Preprocess != nil {
		pre = *req.Preprocess
	}

	ctx, cancel := context.WithTimeout(r.Context(), 120*time.Second)
	defer cancel()

	hash := util.SHA256Hex(img)
	if h.repo != nil {
		row, err := h.repo.FindByHash(ctx, hash, subject, grade, cacheTTL)
		if err == nil {
			writeJSON(w, http.StatusOK, row.Result)
			return
		}
		if err != store.ErrNotFound {
			log.Printf("result cache lookup: %v", err)
		}
	}

	res, err := h.pipe.Correct(ctx, correct.Input{
		Image:      img,
		Subject:    subject,
		GradeLevel: grade,
		StudentID:  req.StudentID,
		Preprocess: pre,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	if h.repo != nil {
		if err := h.repo.Save(ctx, hash, subject, grade, res); err != nil {
			log.Printf("result cache save: %v", err)
		}
	}
	writeJSON(w, http.StatusOK, res)
}

// Subjects lists what the analyzer registry supports.
func (h *Handle) Subjects(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"subjects": analyze.Subjects()})
}
