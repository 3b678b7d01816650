// Package handle exposes the correction pipeline over HTTP.
package handle

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"homework-check/api/internal/analyze"
	"homework-check/api/internal/correct"
	"homework-check/api/internal/store"
)

// cacheTTL bounds how long a cached correction stays authoritative.
const cacheTTL = 24 * time.Hour

type Handle struct {
	pipe *correct.Pipeline
	repo *store.ResultRepo

	DefaultSubject string
	DefaultGrade   string
	Preprocess     bool
}

func New(pipe *correct.Pipeline, repo *store.ResultRepo) *Handle {
	return &Handle{
		pipe:           pipe,
		repo:           repo,
		DefaultSubject: "math",
		DefaultGrade:   "3",
		Preprocess:     true,
	}
}

// Router mounts the public API surface.
func (h *Handle) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	r.Post("/v1/correct", h.Correct)
	r.Get("/v1/subjects", h.Subjects)
	return r
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorPayload struct {
	Error   string `json:"error"`
	Kind    string `json:"kind"`
	RawText string `json:"raw_text,omitempty"`
}

// writeError maps pipeline errors onto HTTP statuses: caller mistakes are
// 4xx, engine failures are 502.
func writeError(w http.ResponseWriter, err error) {
	var unsup *analyze.UnsupportedSubjectError
	if errors.As(err, &unsup) {
		writeJSON(w, http.StatusBadRequest, errorPayload{Error: err.Error(), Kind: "unsupported_subject"})
		return
	}
	var noQ *correct.NoQuestionsError
	if errors.As(err, &noQ) {
		writeJSON(w, http.StatusUnprocessableEntity, errorPayload{
			Error:   err.Error(),
			Kind:    "no_questions",
			RawText: noQ.RawText,
		})
		return
	}
	var rec *correct.RecognitionError
	if errors.As(err, &rec) {
		writeJSON(w, http.StatusBadGateway, errorPayload{Error: err.Error(), Kind: "recognition_failed"})
		return
	}
	log.Printf("correct: %v", err)
	writeJSON(w, http.StatusInternalServerError, errorPayload{Error: "internal error", Kind: "internal"})
}
