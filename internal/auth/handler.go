package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/jchevalier/auth-api/internal/httputil"
	"github.com/jchevalier/auth-api/internal/logging"
)

// RateLimiter is the advisory per-IP limiter consulted by the public
// endpoints. Implemented by ratelimit.Limiter.
type RateLimiter interface {
	CheckIPRateLimit(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequest(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for authentication endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
	logger      *logging.Logger
}

func NewHandler(service *Service, rateLimiter RateLimiter, logger *logging.Logger) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
		logger:      logger,
	}
}

// CredentialsRequest represents the signup/signin request body
type CredentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the password reset request
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents the password reset confirmation body
type ResetPasswordRequest struct {
	Password string `json:"password"`
}

// LogoutResponse represents the logout response
type LogoutResponse struct {
	Success bool `json:"success"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Signup handles user registration
// @Summary      Sign up
// @Description  Create an account with email and password and receive an access/refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Signup credentials"
// @Success      201 {object} TokenPair
// @Failure      400 {object} ErrorResponse "Malformed body or weak password"
// @Failure      409 {object} ErrorResponse "Email already registered"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/signup [post]
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "signup") {
		return
	}

	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tokens, err := h.service.Signup(r.Context(), req.Email, req.Password)
	if err != nil {
		var weak *WeakPasswordError
		switch {
		case errors.As(err, &weak):
			logger.Warn("signup failed: weak password")
			respondError(w, weak.Reason, httputil.CodeWeakPassword, http.StatusBadRequest)
		case errors.Is(err, ErrEmailTaken):
			logger.Warn("signup failed: email taken")
			respondError(w, "credentials taken", httputil.CodeEmailTaken, http.StatusConflict)
		default:
			logger.Error("signup failed: internal error", "error", err.Error())
			respondError(w, "failed to sign up", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed up successfully")
	respondJSON(w, tokens, http.StatusCreated)
}

// Signin handles user login
// @Summary      Sign in
// @Description  Authenticate with email and password and receive a fresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body CredentialsRequest true "Signin credentials"
// @Success      200 {object} TokenPair
// @Failure      400 {object} ErrorResponse "Malformed body"
// @Failure      403 {object} ErrorResponse "Wrong password"
// @Failure      404 {object} ErrorResponse "Unknown email"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/signin [post]
func (h *Handler) Signin(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "signin") {
		return
	}

	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	tokens, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			logger.Warn("signin failed: unknown email")
			respondError(w, "user doesn't exist", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrInvalidCredentials):
			logger.Warn("signin failed: invalid credentials")
			respondError(w, "credentials incorrect", httputil.CodeInvalidCredentials, http.StatusForbidden)
		default:
			logger.Error("signin failed: internal error", "error", err.Error())
			respondError(w, "failed to sign in", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("user signed in successfully")
	respondJSON(w, tokens, http.StatusOK)
}

// Logout handles user logout
// @Summary      Log out
// @Description  Invalidate the stored refresh token for the authenticated user
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} LogoutResponse
// @Failure      401 {object} ErrorResponse "Missing or invalid access token"
// @Router       /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	success, err := h.service.Logout(r.Context(), userID)
	if err != nil {
		logger.Error("logout failed: internal error", "error", err.Error())
		respondError(w, "failed to log out", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user logged out", "user_id", userID)
	respondJSON(w, LogoutResponse{Success: success}, http.StatusOK)
}

// Refresh handles token rotation
// @Summary      Refresh tokens
// @Description  Exchange a valid refresh token for a new token pair; the old refresh token becomes unusable
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} TokenPair
// @Failure      403 {object} ErrorResponse "Invalid, expired or rotated-out refresh token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	userID, ok := GetUserIDFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}
	refreshToken, ok := GetRefreshTokenFromContext(r.Context())
	if !ok {
		respondError(w, "missing authentication", httputil.CodeMissingAuth, http.StatusUnauthorized)
		return
	}

	tokens, err := h.service.Refresh(r.Context(), userID, refreshToken)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("refresh failed: invalid credentials", "user_id", userID)
			respondError(w, "credentials incorrect", httputil.CodeInvalidCredentials, http.StatusForbidden)
			return
		}
		logger.Error("refresh failed: internal error", "error", err.Error())
		respondError(w, "failed to refresh tokens", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("tokens refreshed", "user_id", userID)
	respondJSON(w, tokens, http.StatusOK)
}

// ForgotPassword handles password reset requests
// @Summary      Request password reset
// @Description  Generate a time-boxed single-use reset token and email a reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body ForgotPasswordRequest true "Account email"
// @Success      201 {object} PasswordResetRequest
// @Failure      400 {object} ErrorResponse "Malformed body or cooldown active"
// @Failure      404 {object} ErrorResponse "Unknown email"
// @Failure      429 {object} ErrorResponse "Too many requests from this IP"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/forgot [post]
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	if h.ipLimited(w, r, "forgot") {
		return
	}

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid forgot password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	result, err := h.service.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			logger.Warn("forgot password failed: unknown email")
			respondError(w, "user doesn't exist", httputil.CodeUserNotFound, http.StatusNotFound)
		case errors.Is(err, ErrCooldownActive):
			logger.Warn("forgot password failed: cooldown active")
			respondError(w, "please wait before requesting another password reset", httputil.CodeCooldownActive, http.StatusBadRequest)
		default:
			logger.Error("forgot password failed: internal error", "error", err.Error())
			respondError(w, "failed to request password reset", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset mail sent", "recipient", result.ResetMailRecipient)
	respondJSON(w, result, http.StatusCreated)
}

// CheckResetToken handles reset-token validity checks
// @Summary      Check reset token
// @Description  Report whether a reset token is known and unexpired; valid tokens reveal the account email
// @Tags         auth
// @Produce      json
// @Param        resetToken query string true "Reset token"
// @Success      200 {object} ResetTokenValidity
// @Failure      400 {object} ErrorResponse "Missing or unknown token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/reset [get]
func (h *Handler) CheckResetToken(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := r.URL.Query().Get("resetToken")
	if token == "" {
		respondError(w, "reset token required", httputil.CodeResetTokenRequired, http.StatusBadRequest)
		return
	}

	validity, err := h.service.CheckResetToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, ErrInvalidResetToken) {
			logger.Warn("reset token check failed: unknown token")
			respondError(w, "invalid reset token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
			return
		}
		logger.Error("reset token check failed: internal error", "error", err.Error())
		respondError(w, "failed to check reset token", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	respondJSON(w, validity, http.StatusOK)
}

// ResetPassword handles password reset with a token
// @Summary      Reset password
// @Description  Consume a reset token and set a new password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        resetToken query string true "Reset token"
// @Param        request body ResetPasswordRequest true "New password"
// @Success      200 {object} map[string]string
// @Failure      400 {object} ErrorResponse "Weak password, unknown or expired token"
// @Failure      500 {object} ErrorResponse "Internal server error"
// @Router       /auth/reset [put]
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	token := r.URL.Query().Get("resetToken")
	if token == "" {
		respondError(w, "reset token required", httputil.CodeResetTokenRequired, http.StatusBadRequest)
		return
	}

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid reset password request body", "error", err.Error())
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	err := h.service.ResetPassword(r.Context(), req.Password, token)
	if err != nil {
		var weak *WeakPasswordError
		switch {
		case errors.As(err, &weak):
			logger.Warn("password reset failed: weak password")
			respondError(w, weak.Reason, httputil.CodeWeakPassword, http.StatusBadRequest)
		case errors.Is(err, ErrInvalidResetToken):
			logger.Warn("password reset failed: unknown token")
			respondError(w, "invalid reset token", httputil.CodeInvalidResetToken, http.StatusBadRequest)
		case errors.Is(err, ErrResetTokenExpired):
			logger.Warn("password reset failed: token expired")
			respondError(w, "reset token has expired", httputil.CodeResetTokenExpired, http.StatusBadRequest)
		default:
			logger.Error("password reset failed: internal error", "error", err.Error())
			respondError(w, "failed to reset password", httputil.CodeInternalError, http.StatusInternalServerError)
		}
		return
	}

	logger.Info("password reset successfully")
	respondJSON(w, map[string]string{
		"message": "Password reset successfully. You can now sign in with your new password.",
	}, http.StatusOK)
}

// decodeCredentials parses and minimally validates a credentials body.
// Full email/password semantics belong to the service; the transport only
// rejects bodies it cannot use at all.
func decodeCredentials(w http.ResponseWriter, r *http.Request) (CredentialsRequest, bool) {
	var req CredentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return req, false
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, "email and password are required", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return req, false
	}
	return req, true
}

// ipLimited consults the advisory per-IP limiter. Limiter backend errors
// never block a request; they are logged and the request proceeds.
func (h *Handler) ipLimited(w http.ResponseWriter, r *http.Request, purpose string) bool {
	logger := logging.GetLoggerFromContext(r.Context())
	ip := getClientIP(r)

	exceeded, err := h.rateLimiter.CheckIPRateLimit(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded", "ip", ip, "purpose", purpose)
		respondError(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}

	if err := h.rateLimiter.RecordIPRequest(r.Context(), ip, purpose); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}
	return false
}

// getClientIP extracts the client IP address from the request
func getClientIP(r *http.Request) string {
	// Check X-Forwarded-For header first (behind proxy/load balancer)
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		// X-Forwarded-For can contain multiple IPs, take the first one
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// Check X-Real-IP header
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return strings.TrimSpace(xri)
	}

	// Fallback to RemoteAddr, which is "IP:port"
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, data any, statusCode int) {
	httputil.RespondJSON(w, data, statusCode)
}

// respondError sends an error response with a machine-readable code
func respondError(w http.ResponseWriter, message string, code string, statusCode int) {
	httputil.RespondErrorWithCode(w, message, code, statusCode)
}
