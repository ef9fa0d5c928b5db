package handler

import (
	"context"
	"net/http"

	"mindtracking/internal/model"
	"mindtracking/internal/platform/logger"
	"mindtracking/internal/transport/rest/middleware"
)

// AuthAPI is the account surface used by AuthHandler
type AuthAPI interface {
	Register(ctx context.Context, req *model.RegisterRequest) (*model.Profile, error)
	Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	DeleteAccount(ctx context.Context, userID string) error
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authSvc AuthAPI
	log     *logger.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authSvc AuthAPI, log *logger.Logger) *AuthHandler {
	return &AuthHandler{authSvc: authSvc, log: log}
}

// Register handles POST /v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	profile, err := h.authSvc.Register(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"message": "Conta criada com sucesso.",
		"user":    profile,
	})
}

// Login handles POST /v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	resp, err := h.authSvc.Login(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login realizado com sucesso.",
		"token":   resp.Token,
		"user":    resp.User,
	})
}

// DeleteAccount handles DELETE /v1/auth/account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if err := h.authSvc.DeleteAccount(r.Context(), userID); err != nil {
		writeServiceError(w, r, h.log, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Conta excluída com sucesso.",
	})
}
