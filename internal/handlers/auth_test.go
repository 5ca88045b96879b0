package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dharmateja03/GoodTurkey/internal/models"
	"github.com/dharmateja03/GoodTurkey/internal/services"
	pkgauth "github.com/dharmateja03/GoodTurkey/pkg/auth"
)

func authResponse() *services.AuthResponse {
	return &services.AuthResponse{
		Token:     "signed",
		ExpiresAt: time.Now().Add(time.Hour),
		User:      &services.UserResponse{ID: "user-1", Email: "a@example.com"},
	}
}

func TestAuthHandler_Register(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{
		RegisterFunc: func(ctx context.Context, email, password, name string, client services.ClientInfo) (*services.AuthResponse, error) {
			assert.Equal(t, "192.0.2.1", client.IPAddress)
			return authResponse(), nil
		},
	}, nil)

	w := httptest.NewRecorder()
	h.Register(w, NewTestRequest(t, http.MethodPost, "/api/auth/register", RegisterRequest{Email: "a@example.com", Password: "long enough"}))

	var out services.AuthResponse
	AssertJSONResponse(t, w, http.StatusCreated, &out)
	assert.Equal(t, "signed", out.Token)
	assert.Equal(t, "user-1", out.User.ID)
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   RegisterRequest
		err    error
		status int
		code   string
	}{
		{"short password", RegisterRequest{Email: "a@example.com", Password: "short"}, nil, http.StatusBadRequest, "validation_failed"},
		{"bad email", RegisterRequest{Email: "nope", Password: "long enough"}, nil, http.StatusBadRequest, "validation_failed"},
		{"taken", RegisterRequest{Email: "a@example.com", Password: "long enough"}, models.ErrConflict, http.StatusConflict, "conflict"},
		{"common password", RegisterRequest{Email: "a@example.com", Password: "password1"}, pkgauth.ErrInvalidPassword, http.StatusBadRequest, "validation_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewAuthHandler(&MockAuthService{
				RegisterFunc: func(ctx context.Context, email, password, name string, client services.ClientInfo) (*services.AuthResponse, error) {
					return nil, tt.err
				},
			}, nil)

			w := httptest.NewRecorder()
			h.Register(w, NewTestRequest(t, http.MethodPost, "/api/auth/register", tt.body))
			AssertErrorResponse(t, w, tt.status, tt.code)
		})
	}
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&MockAuthService{
		LoginFunc: func(ctx context.Context, email, password string, client services.ClientInfo) (*services.AuthResponse, error) {
			if password != "correct horse" {
				return nil, models.ErrUnauthorized
			}
			return authResponse(), nil
		},
	}, nil)

	w := httptest.NewRecorder()
	h.Login(w, NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "a@example.com", Password: "correct horse"}))
	AssertJSONResponse(t, w, http.StatusOK, nil)

	w = httptest.NewRecorder()
	h.Login(w, NewTestRequest(t, http.MethodPost, "/api/auth/login", LoginRequest{Email: "a@example.com", Password: "wrong"}))
	AssertErrorResponse(t, w, http.StatusUnauthorized, "unauthorized")
}
