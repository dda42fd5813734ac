package handler

import (
	"encoding/json"
	"net/http"

	"gamehub-api/internal/middleware"
	"gamehub-api/internal/model"
	"gamehub-api/internal/service"
	"gamehub-api/pkg/apierror"
	"gamehub-api/pkg/response"
)

// AuthHandler handles registration, login and logout.
type AuthHandler struct {
	userService *service.UserService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(userService *service.UserService) *AuthHandler {
	return &AuthHandler{userService: userService}
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionResponse represents the response for register and login.
type SessionResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, token, err := h.userService.Register(r.Context(), service.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IP:       middleware.ClientIP(r),
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, SessionResponse{Token: token, User: user})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	if req.Username == "" || req.Password == "" {
		response.Error(w, apierror.BadRequest("username and password are required"))
		return
	}

	user, token, err := h.userService.Login(r.Context(), req.Username, req.Password, middleware.ClientIP(r))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, SessionResponse{Token: token, User: user})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token := middleware.GetToken(r.Context())
	if token == "" {
		response.Error(w, apierror.Unauthorized("authentication required"))
		return
	}

	if err := h.userService.Logout(r.Context(), token); err != nil {
		response.Error(w, apierror.InternalError("failed to end session"))
		return
	}

	response.OK(w, map[string]string{"status": "logged out"})
}

// Profile handles GET /api/v1/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())

	profile, err := h.userService.Get(r.Context(), user, user.ID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, profile)
}
