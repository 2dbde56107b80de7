package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Eyoab11/kuriftu/internal/api/middleware"
	"github.com/Eyoab11/kuriftu/internal/metrics"
	"github.com/Eyoab11/kuriftu/internal/models"
)

// AdminReplyRequest represents the admin reply request body.
type AdminReplyRequest struct {
	Text string `json:"text"`
}

// ListRooms returns every guest room, most recently active first, for the
// admin triage view.
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms, err := h.store.ListRooms(r.Context())
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "database error")
		return
	}

	h.JSON(w, http.StatusOK, map[string]interface{}{"rooms": rooms})
}

// AdminReply posts an admin-authored message into a guest's room. The
// insert is persisted first and then published, so attached guests see it
// through the push channel and their waiting state clears.
func (h *Handler) AdminReply(w http.ResponseWriter, r *http.Request) {
	admin := middleware.GetUserFromContext(r.Context())
	if admin == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	roomID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.Error(w, http.StatusBadRequest, "invalid room ID format")
		return
	}

	room, err := h.store.GetRoom(r.Context(), roomID)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "database error")
		return
	}
	if room == nil {
		h.Error(w, http.StatusNotFound, "room not found")
		return
	}

	var req AdminReplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		h.Error(w, http.StatusBadRequest, "text is required")
		return
	}
	if len(req.Text) > 4096 {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return
	}

	msg := &models.Message{
		RoomID: roomID.String(),
		UserID: admin.ID.String(),
		Body:   req.Text,
		IsUser: false,
	}

	if err := h.store.InsertMessage(r.Context(), msg); err != nil {
		h.Error(w, http.StatusBadGateway, "failed to store message")
		return
	}

	if err := h.broker.Publish(r.Context(), msg); err != nil {
		h.logger.Warn().Err(err).Str("room_id", msg.RoomID).Msg("failed to publish admin reply")
	}

	metrics.MessagesSent.WithLabelValues("admin").Inc()
	h.JSON(w, http.StatusCreated, msg)
}
