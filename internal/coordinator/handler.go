package coordinator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	pkgerrors "github.com/woodway-ua/photoindex/pkg/errors"
	"github.com/woodway-ua/photoindex/pkg/logger"
)

// Handler exposes the coordinator over HTTP for the chat-transport layer.
type Handler struct {
	coord  *Coordinator
	logger *slog.Logger
}

// NewHandler creates a Handler.
func NewHandler(coord *Coordinator) *Handler {
	return &Handler{
		coord:  coord,
		logger: logger.WithComponent("http-handler"),
	}
}

type searchRequest struct {
	UserID   int64    `json:"user_id"`
	Message  string   `json:"message"`
	Keywords []string `json:"keywords,omitempty"`
}

// Search handles POST /api/v1/search.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Message == "" && len(req.Keywords) == 0 {
		h.writeError(w, http.StatusBadRequest, "message or keywords required")
		return
	}
	manifest, err := h.coord.HandleQuery(r.Context(), req.UserID, req.Message, req.Keywords)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNoKeywords) {
			// No actionable keyword is a normal outcome for the transport:
			// it answers the user with a "nothing found" message.
			h.writeJSON(w, http.StatusOK, &Manifest{Keywords: []KeywordItems{}})
			return
		}
		logger.FromContext(r.Context()).Error("search failed", "error", err)
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, manifest)
}

type feedbackRequest struct {
	UserID int64  `json:"user_id"`
	Query  string `json:"query"`
	Image  string `json:"image"`
	Liked  bool   `json:"liked"`
}

// Feedback handles POST /api/v1/feedback.
func (h *Handler) Feedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Image == "" {
		h.writeError(w, http.StatusBadRequest, "image is required")
		return
	}
	if err := h.coord.RecordFeedback(r.Context(), req.UserID, req.Query, req.Image, req.Liked); err != nil {
		logger.FromContext(r.Context()).Error("feedback failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "recording feedback failed")
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "recorded"})
}

type rebuildRequest struct {
	UserID int64 `json:"user_id"`
}

// Rebuild handles POST /api/v1/index/rebuild.
func (h *Handler) Rebuild(w http.ResponseWriter, r *http.Request) {
	var req rebuildRequest
	if r.Body != nil {
		// Body is optional; a bare trigger counts as user 0.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	if err := h.coord.TriggerRebuild(r.Context(), req.UserID); err != nil {
		h.writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// RecentQueries handles GET /api/v1/queries/recent.
func (h *Handler) RecentQueries(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			h.writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	records, err := h.coord.RecentQueries(r.Context(), limit)
	if err != nil {
		logger.FromContext(r.Context()).Error("listing recent queries failed", "error", err)
		h.writeError(w, http.StatusInternalServerError, "listing recent queries failed")
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"queries": records})
}

// Status handles GET /api/v1/index/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.coord.IndexStatus())
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("writing response failed", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
