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

// SocialHandler handles comment, rating and engagement HTTP requests.
type SocialHandler struct {
	socialService *service.SocialService
}

// NewSocialHandler creates a new social handler.
func NewSocialHandler(socialService *service.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

// CommentRequest represents a comment create or edit body.
type CommentRequest struct {
	Text string `json:"text"`
}

// ListComments handles GET /api/v1/games/{id}/comments
func (h *SocialHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	gameID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	comments, err := h.socialService.ListComments(r.Context(), actor, gameID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.List(w, comments, len(comments))
}

// AddComment handles POST /api/v1/games/{id}/comments
func (h *SocialHandler) AddComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	gameID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	req, err := commentBody(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	comment, err := h.socialService.AddComment(r.Context(), actor, gameID, req.Text)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, comment)
}

// EditComment handles PUT /api/v1/comments/{id}
func (h *SocialHandler) EditComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	commentID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	req, err := commentBody(r)
	if err != nil {
		response.Error(w, err)
		return
	}

	comment, err := h.socialService.EditComment(r.Context(), actor, commentID, req.Text)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, comment)
}

// DeleteComment handles DELETE /api/v1/comments/{id}
func (h *SocialHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	commentID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	if err := h.socialService.DeleteComment(r.Context(), actor, commentID); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// RateRequest represents a rating submission body.
type RateRequest struct {
	Score int `json:"score"`
}

// Rate handles POST /api/v1/games/{id}/rate
func (h *SocialHandler) Rate(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	gameID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	summary, err := h.socialService.Rate(r.Context(), actor, gameID, req.Score)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, summary)
}

// VoteRequest represents a like or dislike body.
type VoteRequest struct {
	Action string `json:"action"`
}

// Vote handles POST /api/v1/games/{id}/like
func (h *SocialHandler) Vote(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	gameID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	var req VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierror.BadRequest("invalid request body"))
		return
	}
	defer r.Body.Close()

	result, err := h.socialService.Vote(r.Context(), actor, gameID, req.Action)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// Play handles POST /api/v1/games/{id}/play
func (h *SocialHandler) Play(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	gameID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	result, err := h.socialService.Play(r.Context(), actor, gameID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, result)
}

// Stats handles GET /api/v1/games/{id}/stats
func (h *SocialHandler) Stats(w http.ResponseWriter, r *http.Request) {
	actor := middleware.GetUser(r.Context())

	gameID, err := pathID(r, "id")
	if err != nil {
		response.Error(w, err)
		return
	}

	stats, rating, err := h.socialService.Stats(r.Context(), actor, gameID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, StatsResponse{Stats: stats, Rating: rating})
}

// StatsResponse combines engagement counters with the rating summary.
type StatsResponse struct {
	Stats  *model.GameStat      `json:"stats"`
	Rating *model.RatingSummary `json:"rating"`
}

func commentBody(r *http.Request) (CommentRequest, error) {
	var req CommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, apierror.BadRequest("invalid request body")
	}
	defer r.Body.Close()
	return req, nil
}
