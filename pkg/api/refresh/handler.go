// Package refresh exposes the orchestrator control surface over HTTP.
package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"filingsync/pkg/core/freshness"
	"filingsync/pkg/core/refresh"
	"filingsync/pkg/core/store"
)

// Runner is the slice of the orchestrator the handlers call.
type Runner interface {
	Run(ctx context.Context, mode refresh.Mode, forced []string) (*refresh.Result, error)
	GetProgress(ctx context.Context, sessionID uuid.UUID) (*refresh.Progress, error)
}

// Checker evaluates freshness for the status endpoint.
type Checker interface {
	Check(ctx context.Context) freshness.SystemReport
}

// SourceReader supplies per-source refresh outcomes for the status endpoint.
type SourceReader interface {
	SourceStatuses(ctx context.Context) (map[string]store.SourceStatus, error)
}

// StatusResponse is the GET /api/refresh/status body.
type StatusResponse struct {
	freshness.SystemReport
	Sources map[string]store.SourceStatus `json:"sources,omitempty"`
}

// RunRequest is the POST /api/refresh body.
type RunRequest struct {
	Mode         string   `json:"mode"`
	ForceSources []string `json:"force_sources,omitempty"`
}

// Handler holds dependencies for refresh endpoints.
type Handler struct {
	runner  Runner
	checker Checker
	sources SourceReader
	log     zerolog.Logger
}

func NewHandler(runner Runner, checker Checker, sources SourceReader, log zerolog.Logger) *Handler {
	return &Handler{runner: runner, checker: checker, sources: sources, log: log}
}

// Register attaches the refresh endpoints to a mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/refresh", h.HandleRefresh)
	mux.HandleFunc("/api/refresh/progress", h.HandleProgress)
	mux.HandleFunc("/api/refresh/status", h.HandleStatus)
}

// HandleRefresh runs a refresh session synchronously and returns its result.
func (h *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	mode, err := refresh.ParseMode(req.Mode)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ctx := h.log.WithContext(r.Context())
	result, err := h.runner.Run(ctx, mode, req.ForceSources)
	if err != nil {
		switch {
		case errors.Is(err, refresh.ErrPrerequisiteMissing):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			var crit *refresh.CriticalStepError
			if errors.As(err, &crit) && result != nil {
				// A critical abort still produced a partial result worth
				// returning alongside the error status.
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				json.NewEncoder(w).Encode(map[string]any{
					"error":  crit.Error(),
					"result": result,
				})
				return
			}
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// HandleProgress reports a session's completion percentage.
func (h *Handler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	id, err := uuid.Parse(r.URL.Query().Get("session"))
	if err != nil {
		http.Error(w, "Invalid or missing session id", http.StatusBadRequest)
		return
	}

	progress, err := h.runner.GetProgress(r.Context(), id)
	if err != nil {
		if errors.Is(err, refresh.ErrSessionNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(progress)
}

// HandleStatus returns the current freshness report plus the persisted
// outcome of each source's most recent refresh.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := h.log.WithContext(r.Context())
	resp := StatusResponse{SystemReport: h.checker.Check(ctx)}

	sources, err := h.sources.SourceStatuses(ctx)
	if err != nil {
		// Freshness alone is still a useful answer.
		h.log.Warn().Err(err).Msg("reading source statuses failed")
	} else {
		resp.Sources = sources
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
