package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"gamehub-api/internal/middleware"
	"gamehub-api/internal/service"
	"gamehub-api/pkg/apierror"
	"gamehub-api/pkg/response"
)

// maxFormMemory bounds how much of a multipart body is held in memory
// before spilling to temp files.
const maxFormMemory = 10 << 20

// GameHandler handles game catalog and moderation HTTP requests.
type GameHandler struct {
	gameService *service.GameService
}

// NewGameHandler creates a new game handler.
func NewGameHandler(gameService *service.GameService) *GameHandler {
	return &GameHandler{gameService: gameService}
}

// List handles GET /api/v1/games
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	games, err := h.gameService.List(r.Context(), actor)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.List(w, games, len(games))
}

// Popular handles GET /api/v1/games/popular?limit=
func (h *GameHandler) Popular(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.Popular(r.Context(), listLimit(r))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.List(w, games, len(games))
}

// BestRated handles GET /api/v1/games/best-rated?limit=
func (h *GameHandler) BestRated(w http.ResponseWriter, r *http.Request) {
	games, err := h.gameService.BestRated(r.Context(), listLimit(r))
	if err != nil {
		response.Error(w, err)
		return
	}

	response.List(w, games, len(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	view, err := h.gameService.Get(r.Context(), actor, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, view)
}

// Create handles POST /api/v1/games (multipart: title, description,
// html file, optional thumbnail).
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	in, err := gameInput(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	game, err := h.gameService.Create(r.Context(), actor, in)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, game)
}

// Update handles PUT /api/v1/games/{id}
func (h *GameHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	in, err := gameInput(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	game, err := h.gameService.Update(r.Context(), actor, id, in)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, game)
}

// Delete handles DELETE /api/v1/games/{id}
func (h *GameHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.gameService.Delete(r.Context(), actor, id); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// ModerationQueue handles GET /api/v1/moderation
func (h *GameHandler) ModerationQueue(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	games, err := h.gameService.ModerationQueue(r.Context(), actor)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.List(w, games, len(games))
}

// PendingCount handles GET /api/v1/moderation/count
func (h *GameHandler) PendingCount(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	count, err := h.gameService.PendingCount(r.Context(), actor)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]int64{"pending": count})
}

// ModerateRequest represents the body of a moderation decision.
type ModerateRequest struct {
	Action string `json:"action"`
}

// Moderate handles POST /api/v1/moderation/{id}
func (h *GameHandler) Moderate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	id, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var req ModerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	game, err := h.gameService.Moderate(r.Context(), actor, id, req.Action)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, game)
}

// gameInput reads a multipart game submission body.
func gameInput(r *http.Request) (service.GameInput, error) {
	if !isMultipart(r) {
		return service.GameInput{}, apierror.BadRequest("expected multipart form data")
	}
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		return service.GameInput{}, apierror.BadRequest("invalid multipart body")
	}

	in := service.GameInput{
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
	}
	in.HTML = formFile(r, "html_file")
	in.Thumbnail = formFile(r, "thumbnail")
	return in, nil
}

func formFile(r *http.Request, name string) *multipart.FileHeader {
	if files := r.MultipartForm.File[name]; len(files) > 0 {
		return files[0]
	}
	return nil
}

func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// listLimit parses the limit query parameter, capped to keep the
// ranking queries cheap.
func listLimit(r *http.Request) int {
	const (
		defaultLimit = 10
		maxLimit     = 50
	)
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		return defaultLimit
	}
	if limit > maxLimit {
		return maxLimit
	}
	return limit
}
