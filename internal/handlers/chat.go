package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Eyoab11/kuriftu/internal/api/middleware"
	"github.com/Eyoab11/kuriftu/internal/metrics"
)

// SendMessageRequest represents the chat send request body. The rating is
// required on the first message of a conversation and optional afterwards;
// the first rating seen fixes the conversation priority.
type SendMessageRequest struct {
	Text   string `json:"text"`
	Rating int    `json:"rating,omitempty"`
}

// OpenChat handles the open-chat intent: resolves (or lazily creates) the
// guest's room and attaches the live message stream.
func (h *Handler) OpenChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	sess := h.sessions.Get(user.ID)
	state, err := sess.OpenChat(r.Context())
	if err != nil {
		h.SessionError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, state)
}

// ChatState returns the render inputs: ready/loading condition, the ordered
// message log and the notification flags.
func (h *Handler) ChatState(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	h.JSON(w, http.StatusOK, h.sessions.Get(user.ID).State())
}

// SendChatMessage handles a guest chat send.
func (h *Handler) SendChatMessage(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Text) > 4096 {
		h.Error(w, http.StatusUnprocessableEntity, "text too long (max 4096 bytes)")
		return
	}

	msg, err := h.sessions.Get(user.ID).SendMessage(r.Context(), req.Text, req.Rating)
	if err != nil {
		h.SessionError(w, err)
		return
	}

	metrics.MessagesSent.WithLabelValues("guest").Inc()
	h.JSON(w, http.StatusCreated, msg)
}

// CloseChat handles the close-chat intent: detaches the stream and clears
// the room state.
func (h *Handler) CloseChat(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	h.sessions.Get(user.ID).CloseChat()
	h.JSON(w, http.StatusOK, map[string]string{"status": "closed"})
}
