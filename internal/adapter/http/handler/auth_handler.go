package handler

import (
	"encoding/json"
	"net/http"

	"github.com/iho/bookd/internal/adapter/http/dto"
	"github.com/iho/bookd/internal/infrastructure/auth"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	jwtManager  *auth.JWTManager
	credentials auth.Credentials
}

// NewAuthHandler creates a new AuthHandler backed by configured credentials.
func NewAuthHandler(jwtManager *auth.JWTManager, credentials auth.Credentials) *AuthHandler {
	return &AuthHandler{jwtManager: jwtManager, credentials: credentials}
}

// Login exchanges configured credentials for a signed token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	user, ok := h.credentials.Authenticate(req.Email, req.Password)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid credentials", "")
		return
	}

	token, expiresAt, err := h.jwtManager.Generate(user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to generate token", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User: dto.MeResponse{
			UserID: user.ID,
			Email:  user.Email,
			Role:   string(user.Role),
		},
	})
}

// Me returns the authenticated caller.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized", "")
		return
	}

	writeJSON(w, http.StatusOK, dto.MeResponse{
		UserID: user.ID,
		Email:  user.Email,
		Role:   string(user.Role),
	})
}
