package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"streamhive/internal/database"
	"streamhive/internal/logging"
	"streamhive/internal/metrics"
)

// SessionCookieName is the name of the session cookie
const SessionCookieName = "streamhive_token"

type contextKey string

const userContextKey contextKey = "user"

// RegisterRequest is the body of POST /api/auth/register
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of POST /api/auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest is the body of POST /api/auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest is the body of PUT /api/auth/reset-password/{token}
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// Register creates a new account and logs it in.
func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Username == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "Please provide a username and email")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	user, err := h.db.CreateUser(ctx, uuid.NewString(), req.Username, req.Email, req.Password)
	if err != nil {
		logging.Warn("Registration failed for %s: %v", req.Email, err)
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}

	h.setSessionCookie(w, user.ID)
	writeJSON(w, http.StatusCreated, apiResponse{Success: true, Data: user})
}

// Login authenticates an email/password pair and sets the session
// cookie.
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	user, err := h.db.Authenticate(ctx, strings.ToLower(strings.TrimSpace(req.Email)), req.Password)
	if err != nil {
		metrics.AuthAttemptsTotal.WithLabelValues("failure").Inc()
		logging.Warn("Failed login attempt for %s", req.Email)
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	metrics.AuthAttemptsTotal.WithLabelValues("success").Inc()
	h.setSessionCookie(w, user.ID)
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: user})
}

// Logout clears the session cookie.
func (h *Handlers) Logout(w http.ResponseWriter, _ *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Logged out"})
}

// Me returns the authenticated account.
func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	user := UserFrom(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, apiResponse{Success: true, Data: user})
}

// ForgotPassword issues a password-reset token. The response is
// identical whether or not the email exists.
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.db.CreateResetToken(ctx, email); err != nil {
		if !errors.Is(err, database.ErrNotFound) {
			logging.Error("Failed to create reset token: %v", err)
		}
		// Fall through: do not reveal whether the account exists
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "If that email exists, a reset link has been sent"})
}

// ResetPassword redeems a reset token for a new password.
func (h *Handlers) ResetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	token := pathVar(r, "token")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Password) < 6 {
		writeError(w, http.StatusBadRequest, "Password must be at least 6 characters")
		return
	}

	if err := h.db.ResetPassword(ctx, token, req.Password); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			writeError(w, http.StatusBadRequest, "Invalid or expired token")
			return
		}
		logging.Error("Failed to reset password: %v", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, apiResponse{Success: true, Message: "Password updated"})
}

// RequireAuth wraps a handler, rejecting requests without a valid
// session and attaching the account to the request context.
func (h *Handlers) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookieName)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		userID, err := h.auth.Verify(cookie.Value)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		user, err := h.db.GetUser(r.Context(), userID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		next(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	}
}

// UserFrom extracts the authenticated account from a request context,
// or nil.
func UserFrom(ctx context.Context) *database.User {
	user, _ := ctx.Value(userContextKey).(*database.User)
	return user
}

func (h *Handlers) setSessionCookie(w http.ResponseWriter, userID string) {
	token, err := h.auth.Issue(userID)
	if err != nil {
		logging.Error("Failed to issue session token: %v", err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.auth.TTL()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}
