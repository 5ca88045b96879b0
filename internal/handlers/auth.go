package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	pkghttp "github.com/dharmateja03/GoodTurkey/pkg/http"
)

// AuthServiceInterface defines the interface for auth business logic
type AuthServiceInterface interface {
	Login(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error)
	Register(ctx context.Context, email, password, name string, client services.ClientInfo) (*services.AuthResponse, error)
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	service  AuthServiceInterface
	ipConfig *pkghttp.IPConfig
}

func NewAuthHandler(service AuthServiceInterface, ipConfig *pkghttp.IPConfig) *AuthHandler {
	return &AuthHandler{service: service, ipConfig: ipConfig}
}

func (h *AuthHandler) client(r *http.Request) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: r.UserAgent(),
	}
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Login(r.Context(), req.Email, req.Password, h.client(r))
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteUnauthorized(w, "Invalid email or password")
			return
		}
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := h.service.Register(r.Context(), req.Email, req.Password, req.Name, h.client(r))
	if err != nil {
		if errors.Is(err, models.ErrConflict) {
			pkghttp.WriteConflict(w, "Email is already registered")
			return
		}
		writeServiceError(w, err)
		return
	}
	pkghttp.WriteJSON(w, http.StatusCreated, resp)
}
