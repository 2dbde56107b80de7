package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Eyoab11/kuriftu/internal/api/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 50 * time.Second
)

// ChatEvents upgrades the connection to a websocket and streams session
// state snapshots: one immediately, then one per change signal. The client
// redraws from each snapshot, so a missed intermediate state is harmless.
func (h *Handler) ChatEvents(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	sess := h.sessions.Get(user.ID)

	// Read pump: the client sends nothing meaningful, but reading is how
	// we notice close frames and keep pong handling alive.
	done := make(chan struct{})
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	writeState := func() error {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(sess.State())
	}

	if err := writeState(); err != nil {
		return
	}

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-sess.Updates():
			if err := writeState(); err != nil {
				return
			}
		case <-ticker.C:
			// A live feed counts as activity for idle eviction.
			sess.Touch()
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
