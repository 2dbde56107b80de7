package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/Eyoab11/kuriftu/internal/api/middleware"
	"github.com/Eyoab11/kuriftu/internal/models"
)

const tokenTTL = 7 * 24 * time.Hour

// SignupRequest represents the account creation request body.
type SignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// AuthResponse carries the bearer token and the account it belongs to.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles account creation.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if !isValidEmail(req.Email) {
		h.Error(w, http.StatusBadRequest, "invalid email format")
		return
	}
	if len(req.Password) < 8 {
		h.Error(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	existing, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, sanitizeName(req.Name), string(hash), h.cfg.IsAdminEmail(req.Email))
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	token, err := h.issueToken(r, user)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "failed to create session")
		return
	}

	h.JSON(w, http.StatusCreated, AuthResponse{Token: token, User: user})
}

// Login handles credential verification and token issuance.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.Error(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := h.issueToken(r, user)
	if err != nil {
		h.Error(w, http.StatusServiceUnavailable, "failed to create session")
		return
	}

	h.JSON(w, http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout invalidates the presented bearer token and drops the session.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUserFromContext(r.Context())
	if user == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	auth := r.Header.Get("Authorization")
	token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
	if token != "" {
		if err := h.tokens.DeleteSession(r.Context(), token); err != nil {
			h.logger.Warn().Err(err).Msg("failed to delete session token")
		}
	}

	h.sessions.Release(user.ID)
	h.JSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

// issueToken mints a random bearer token and stores it with a TTL.
func (h *Handler) issueToken(r *http.Request, user *models.User) (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	token := hex.EncodeToString(buf)

	if err := h.tokens.SaveSession(r.Context(), token, user.ID, tokenTTL); err != nil {
		return "", err
	}
	return token, nil
}
