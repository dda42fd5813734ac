package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"gamehub-api/internal/middleware"
	"gamehub-api/internal/model"
	"gamehub-api/internal/role"
	"gamehub-api/internal/service"
	"gamehub-api/pkg/apierror"
	"gamehub-api/pkg/response"

	"github.com/go-chi/chi/v5"
)

// UserHandler handles user management HTTP requests.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new user handler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// List handles GET /api/v1/users?search=&type=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	filter := model.UserFilter{Search: r.URL.Query().Get("search")}
	if typ := r.URL.Query().Get("type"); typ != "" {
		parsed, err := role.Parse(typ)
		if err != nil {
			response.Error(w, apierror.BadRequest("unknown user type"))
			return
		}
		filter.Role = &parsed
	}

	listing, err := h.userService.List(r.Context(), actor, filter)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, listing)
}

// CreateRequest represents the request body for admin-driven creation.
type CreateRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Bio      string `json:"bio,omitempty"`
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := h.userService.Create(r.Context(), actor, service.CreateInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Bio:      req.Bio,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, user)
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	profile, err := h.userService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, profile)
}

// Update handles PUT /api/v1/users/{id}. The body is multipart when an
// avatar is attached, JSON otherwise.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var in service.UpdateInput
	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxFormMemory); err != nil {
			response.Error(w, apierror.BadRequest("invalid multipart body"))
			return
		}
		in.Email = formValue(r, "email")
		in.Bio = formValue(r, "bio")
		in.Role = formValue(r, "role")
		if files := r.MultipartForm.File["avatar"]; len(files) > 0 {
			in.Avatar = files[0]
		}
	} else {
		var req struct {
			Email *string `json:"email"`
			Bio   *string `json:"bio"`
			Role  *string `json:"role"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierror.BadRequest("invalid request body"))
			return
		}
		defer r.Body.Close()
		in.Email, in.Bio, in.Role = req.Email, req.Bio, req.Role
	}

	user, err := h.userService.Update(r.Context(), actor, id, in)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, user)
}

// ToggleActive handles POST /api/v1/users/{id}/toggle-active
func (h *UserHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	user, err := h.userService.ToggleActive(r.Context(), actor, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, user)
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// pathID parses a numeric chi URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apierror.BadRequest("invalid " + name)
	}
	return id, nil
}

// formValue returns a pointer to a form value, nil when the field is
// absent so absent and empty stay distinguishable.
func formValue(r *http.Request, name string) *string {
	if values, ok := r.MultipartForm.Value[name]; ok && len(values) > 0 {
		return &values[0]
	}
	return nil
}
