package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog"

	"github.com/Eyoab11/kuriftu/internal/config"
	"github.com/Eyoab11/kuriftu/internal/push"
	"github.com/Eyoab11/kuriftu/internal/session"
	"github.com/Eyoab11/kuriftu/internal/store"
)

// emailRegex validates email addresses per RFC 5322 (simplified).
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	cfg      *config.Config
	store    store.DataStore
	tokens   store.TokenStore
	broker   push.Broker
	sessions *session.Manager
	redis    *store.RedisStore // nil when Redis is not configured
	logger   zerolog.Logger
}

// NewHandler creates a new Handler with the given dependencies.
// redis may be nil in development; health reporting accounts for it.
func NewHandler(cfg *config.Config, st store.DataStore, tokens store.TokenStore, broker push.Broker, sessions *session.Manager, redis *store.RedisStore, logger zerolog.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		store:    st,
		tokens:   tokens,
		broker:   broker,
		sessions: sessions,
		redis:    redis,
		logger:   logger,
	}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// SessionError maps the session error taxonomy to HTTP responses.
func (h *Handler) SessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrInvalidInput):
		h.Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotReady):
		h.Error(w, http.StatusConflict, "chat room is not ready yet")
	case errors.Is(err, session.ErrUnauthenticated):
		h.Error(w, http.StatusUnauthorized, "authentication required")
	case errors.Is(err, session.ErrStorageUnavailable):
		h.Error(w, http.StatusServiceUnavailable, "storage unavailable, try again")
	case errors.Is(err, session.ErrSendFailed):
		h.Error(w, http.StatusBadGateway, "send failed, try again")
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// sanitizeName trims and limits name to 100 characters, removing control characters.
func sanitizeName(name string) string {
	name = strings.TrimSpace(name)

	// Remove control characters
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, name)

	// Limit to 100 characters
	if len(name) > 100 {
		name = name[:100]
	}

	return name
}

// isValidEmail validates email addresses using RFC 5322 pattern.
func isValidEmail(email string) bool {
	if len(email) == 0 || len(email) > 254 {
		return false
	}
	return emailRegex.MatchString(email)
}
