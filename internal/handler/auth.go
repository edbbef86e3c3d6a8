package handler

import (
	"encoding/json"
	"net/http"

	"huanghe-analytics-api/internal/model"
	"huanghe-analytics-api/internal/repository"
	"huanghe-analytics-api/internal/service"
	"huanghe-analytics-api/pkg/apierror"
	"huanghe-analytics-api/pkg/response"
)

// AuthHandler handles authentication-related HTTP requests.
type AuthHandler struct {
	tokenService *service.TokenService
	accountRepo  repository.AccountRepository // Interface, not concrete type
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(tokenService *service.TokenService, accountRepo repository.AccountRepository) *AuthHandler {
	return &AuthHandler{
		tokenService: tokenService,
		accountRepo:  accountRepo,
	}
}

// TokenRequest represents the request body for token generation.
type TokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// TokenResponse represents the response for token generation.
type TokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

// GenerateToken handles POST /auth/token
func (h *AuthHandler) GenerateToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Username == "" {
		response.Error(w, apierror.BadRequest("username is required"))
		return
	}
	if req.Password == "" {
		response.Error(w, apierror.BadRequest("password is required"))
		return
	}

	validation, err := h.accountRepo.ValidateCredentials(r.Context(), req.Username, req.Password)
	if err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	tokenData := model.TokenData{
		AccountID: validation.AccountID,
		Username:  validation.Username,
		Role:      validation.Role,
	}

	token, err := h.tokenService.GenerateToken(r.Context(), tokenData)
	if err != nil {
		response.Error(w, apierror.InternalError("failed to generate token"))
		return
	}

	response.OK(w, TokenResponse{
		Token:     token,
		ExpiresIn: int(service.TokenTTL.Seconds()),
	})
}

// RevokeToken handles POST /auth/revoke
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RevokeToken(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to revoke token"))
		return
	}

	response.OK(w, map[string]string{"status": "revoked"})
}

// RefreshToken handles POST /auth/refresh
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("X-Token")
	if token == "" {
		response.Error(w, apierror.BadRequest("X-Token header required"))
		return
	}

	if err := h.tokenService.RefreshToken(r.Context(), token); err != nil {
		response.Error(w, apierror.Unauthorized(err.Error()))
		return
	}

	response.OK(w, map[string]interface{}{
		"status":     "refreshed",
		"expires_in": int(service.TokenTTL.Seconds()),
	})
}
