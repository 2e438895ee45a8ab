// Package server exposes submission, classification and health endpoints
// over HTTP.
package server

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/txsubmit/internal/core/domain"
	"github.com/vietddude/txsubmit/internal/infra/storage"
	"github.com/vietddude/txsubmit/internal/submit"
	"github.com/vietddude/txsubmit/internal/submit/classify"
)

// Submissions is the application behind the HTTP surface.
type Submissions interface {
	Defaults() domain.SubmissionOptions
	SubmitRaw(ctx context.Context, raw []byte, opts domain.SubmissionOptions) (*domain.SubmissionRecord, error)
	Record(ctx context.Context, id string) (*domain.SubmissionRecord, error)
	PendingReview(ctx context.Context) ([]*domain.SubmissionRecord, error)
	Resolve(ctx context.Context, id string) error
	Health(ctx context.Context) error
}

// Server provides the HTTP endpoints.
type Server struct {
	app    Submissions
	server *http.Server
}

// New creates a new server listening on port.
func New(app Submissions, port int) *Server {
	s := &Server{app: app}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Handler returns the route multiplexer.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/transactions", s.handleSubmit)
	mux.HandleFunc("POST /v1/classify", s.handleClassify)
	mux.HandleFunc("GET /v1/submissions/{id}", s.handleGet)
	mux.HandleFunc("GET /v1/review", s.handleReviewList)
	mux.HandleFunc("DELETE /v1/review/{id}", s.handleReviewResolve)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	return mux
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	return s.server.ListenAndServe()
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type submitRequest struct {
	Transaction   string `json:"transaction"`
	MaxRetries    *int   `json:"max_retries,omitempty"`
	SkipPreflight bool   `json:"skip_preflight,omitempty"`
}

type submitResponse struct {
	ID        string           `json:"id"`
	Status    string           `json:"status"`
	Signature domain.Signature `json:"signature,omitempty"`
	Attempts  int              `json:"attempts,omitempty"`
	Verdict   string           `json:"verdict,omitempty"`
	Error     string           `json:"error,omitempty"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	raw, err := base64.StdEncoding.DecodeString(req.Transaction)
	if err != nil || len(raw) == 0 {
		writeError(w, http.StatusBadRequest, "transaction must be non-empty base64")
		return
	}

	opts := s.app.Defaults()
	if req.MaxRetries != nil {
		opts.MaxRetries = *req.MaxRetries
	}
	opts.SendOptions.SkipPreflight = req.SkipPreflight

	rec, err := s.app.SubmitRaw(r.Context(), raw, opts)
	if err != nil {
		if errors.Is(err, submit.ErrInvalidOptions) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := submitResponse{
		ID:        rec.ID,
		Status:    string(rec.Status),
		Signature: rec.Signature,
		Attempts:  rec.Attempts,
	}
	status := http.StatusOK
	if rec.Status == domain.SubmissionStatusFailed {
		status = http.StatusUnprocessableEntity
		resp.Verdict = rec.Verdict
		resp.Error = rec.Message
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"verdict": classify.ClassifyMessage(req.Error).String(),
		"message": classify.FormatMessage(req.Error),
	})
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	rec, err := s.app.Record(r.Context(), r.PathValue("id"))
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "submission not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleReviewList(w http.ResponseWriter, r *http.Request) {
	recs, err := s.app.PendingReview(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if recs == nil {
		recs = []*domain.SubmissionRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) handleReviewResolve(w http.ResponseWriter, r *http.Request) {
	if err := s.app.Resolve(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.app.Health(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status": "critical",
			"error":  err.Error(),
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
