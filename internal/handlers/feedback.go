package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Eyoab11/kuriftu/internal/api/middleware"
	"github.com/Eyoab11/kuriftu/internal/metrics"
)

// FeedbackRequest represents the one-time feedback request body.
type FeedbackRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"text"`
}

// SubmitFeedback handles the one-time feedback intent. The record is
// independent of any chat room.
func (h *Handler) SubmitFeedback(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req FeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Text) > 4096 {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return
	}

	if err := h.sessions.Get(user.ID).SubmitFeedback(r.Context(), req.Rating, req.Text); err != nil {
		h.SessionError(w, err)
		return
	}

	metrics.FeedbackSubmitted.Inc()
	h.JSON(w, http.StatusCreated, map[string]string{"status": "received"})
}
