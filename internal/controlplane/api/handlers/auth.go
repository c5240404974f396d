package handlers

import (
	"errors"
	"net/http"

	"github.com/devkit-go/devkit/internal/controlplane/api/auth"
	"github.com/devkit-go/devkit/internal/controlplane/api/middleware"
	"github.com/devkit-go/devkit/internal/logger"
)

// AuthHandler handles authentication-related API endpoints.
type AuthHandler struct {
	credential auth.Credential
	jwtService *auth.JWTService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(credential auth.Credential, jwtService *auth.JWTService) *AuthHandler {
	return &AuthHandler{
		credential: credential,
		jwtService: jwtService,
	}
}

// LoginRequest is the request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// RefreshRequest is the request body for POST /api/v1/auth/refresh.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MeResponse is the response body for GET /api/v1/auth/me.
type MeResponse struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

// Login handles POST /api/v1/auth/login.
// Authenticates the admin credential and returns a JWT token pair.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.Username == "" || req.Password == "" {
		BadRequest(w, "Username and password are required")
		return
	}

	if err := h.credential.Verify(req.Username, req.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			logger.Warn("login attempt rejected", "username", req.Username)
			Unauthorized(w, "Invalid username or password")
			return
		}
		InternalServerError(w, "Authentication failed")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(req.Username, "admin")
	if err != nil {
		logger.Error("failed to generate token pair", "error", err)
		InternalServerError(w, "Failed to generate tokens")
		return
	}

	logger.Info("admin authenticated", "username", req.Username)
	WriteJSONOK(w, pair)
}

// Refresh handles POST /api/v1/auth/refresh.
// Exchanges a valid refresh token for a new token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if req.RefreshToken == "" {
		BadRequest(w, "Refresh token is required")
		return
	}

	claims, err := h.jwtService.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		Unauthorized(w, "Invalid or expired refresh token")
		return
	}

	pair, err := h.jwtService.GenerateTokenPair(claims.Username, claims.Role)
	if err != nil {
		logger.Error("failed to generate token pair", "error", err)
		InternalServerError(w, "Failed to generate tokens")
		return
	}

	WriteJSONOK(w, pair)
}

// Me handles GET /api/v1/auth/me.
// Returns the authenticated user's identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaimsFromContext(r.Context())
	if claims == nil {
		Unauthorized(w, "Authentication required")
		return
	}

	WriteJSONOK(w, MeResponse{
		Username: claims.Username,
		Role:     claims.Role,
	})
}
