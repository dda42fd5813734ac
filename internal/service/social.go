package service

import (
	"context"
	"strings"
	"time"

	"gamehub-api/internal/model"
	"gamehub-api/internal/repository"
	"gamehub-api/internal/role"
	"gamehub-api/pkg/apierror"

	log "github.com/sirupsen/logrus"
)

// SocialService handles comments, ratings and engagement counters.
type SocialService struct {
	games    repository.GameRepository
	stats    repository.StatRepository
	ratings  repository.RatingRepository
	comments repository.CommentRepository
	now      func() time.Time
}

// NewSocialService creates a new social service.
func NewSocialService(games repository.GameRepository, stats repository.StatRepository, ratings repository.RatingRepository, comments repository.CommentRepository) *SocialService {
	return &SocialService{
		games:    games,
		stats:    stats,
		ratings:  ratings,
		comments: comments,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddComment posts a comment on a game the actor can see.
func (s *SocialService) AddComment(ctx context.Context, actor *model.User, gameID int64, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierror.ValidationError("invalid comment",
			apierror.FieldError{Field: "text", Message: "text is required"})
	}

	g, err := s.visibleGame(ctx, actor, gameID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	c := &model.Comment{
		UserID:    actor.ID,
		Username:  actor.Username,
		GameID:    g.ID,
		Text:      text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// EditComment replaces a comment's text and marks it edited. Allowed for
// the author and admins.
func (s *SocialService) EditComment(ctx context.Context, actor *model.User, commentID int64, text string) (*model.Comment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apierror.ValidationError("invalid comment",
			apierror.FieldError{Field: "text", Message: "text is required"})
	}

	c, err := s.comments.GetByID(ctx, commentID)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("comment not found")
	}
	if err != nil {
		return nil, err
	}

	if c.UserID != actor.ID && !actor.Role.IsAdmin() {
		return nil, apierror.Forbidden("you may not edit this comment")
	}

	now := s.now()
	if err := s.comments.Update(ctx, c.ID, text, now); err != nil {
		return nil, err
	}
	c.Text = text
	c.IsEdited = true
	c.UpdatedAt = now
	return c, nil
}

// DeleteComment removes a comment. Allowed for the author, admins, and
// the developer owning the commented game.
func (s *SocialService) DeleteComment(ctx context.Context, actor *model.User, commentID int64) error {
	c, err := s.comments.GetByID(ctx, commentID)
	if err == repository.ErrNotFound {
		return apierror.NotFound("comment not found")
	}
	if err != nil {
		return err
	}

	allowed := c.UserID == actor.ID || actor.Role.IsAdmin()
	if !allowed {
		g, err := s.games.GetByID(ctx, c.GameID)
		if err == nil && g.DeveloperID == actor.ID {
			allowed = true
		}
	}
	if !allowed {
		return apierror.Forbidden("you may not delete this comment")
	}

	return s.comments.Delete(ctx, c.ID)
}

// ListComments returns a game's comments, newest first.
func (s *SocialService) ListComments(ctx context.Context, actor *model.User, gameID int64) ([]*model.Comment, error) {
	if _, err := s.visibleGame(ctx, actor, gameID); err != nil {
		return nil, err
	}
	return s.comments.ListByGame(ctx, gameID)
}

// Rate records the actor's score for a game. A repeated rating by the
// same actor overwrites the prior one; there is never more than one
// rating row per (actor, game) pair.
func (s *SocialService) Rate(ctx context.Context, actor *model.User, gameID int64, score int) (*model.RatingSummary, error) {
	if score < 1 || score > 5 {
		return nil, apierror.ValidationError("invalid rating",
			apierror.FieldError{Field: "score", Message: "score must be between 1 and 5"})
	}

	g, err := s.visibleGame(ctx, actor, gameID)
	if err != nil {
		return nil, err
	}

	if err := s.ratings.Upsert(ctx, actor.ID, g.ID, score, s.now()); err != nil {
		return nil, err
	}
	return s.ratings.Summary(ctx, g.ID)
}

// VoteResult carries updated like/dislike counts for the async client.
type VoteResult struct {
	Likes    int64 `json:"likes"`
	Dislikes int64 `json:"dislikes"`
}

// Vote bumps the like or dislike counter. Votes are plain counters with
// no per-user deduplication; repeated votes keep counting.
func (s *SocialService) Vote(ctx context.Context, actor *model.User, gameID int64, action string) (*VoteResult, error) {
	if action != "like" && action != "dislike" {
		return nil, apierror.BadRequest("action must be like or dislike")
	}

	g, err := s.visibleGame(ctx, actor, gameID)
	if err != nil {
		return nil, err
	}

	likes, dislikes, err := s.stats.AddVote(ctx, g.ID, action == "like")
	if err != nil {
		return nil, err
	}
	return &VoteResult{Likes: likes, Dislikes: dislikes}, nil
}

// PlayResult carries the updated play count for the async client.
type PlayResult struct {
	PlayCount int64 `json:"play_count"`
}

// Play counts a game launch and stamps the last-played time.
func (s *SocialService) Play(ctx context.Context, actor *model.User, gameID int64) (*PlayResult, error) {
	g, err := s.visibleGame(ctx, actor, gameID)
	if err != nil {
		return nil, err
	}

	count, err := s.stats.IncrementPlays(ctx, g.ID, s.now())
	if err != nil {
		return nil, err
	}
	return &PlayResult{PlayCount: count}, nil
}

// Stats returns a game's engagement counters and rating aggregate.
func (s *SocialService) Stats(ctx context.Context, actor *model.User, gameID int64) (*model.GameStat, *model.RatingSummary, error) {
	g, err := s.visibleGame(ctx, actor, gameID)
	if err != nil {
		return nil, nil, err
	}

	stats, err := s.stats.Get(ctx, g.ID)
	if err != nil {
		return nil, nil, err
	}
	rating, err := s.ratings.Summary(ctx, g.ID)
	if err != nil {
		return nil, nil, err
	}
	return stats, rating, nil
}

// visibleGame loads a game and applies the visibility rule; actor may be
// nil for anonymous viewers.
func (s *SocialService) visibleGame(ctx context.Context, actor *model.User, gameID int64) (*model.Game, error) {
	g, err := s.games.GetByID(ctx, gameID)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("game not found")
	}
	if err != nil {
		return nil, err
	}

	actorRole, actorID := viewerIdentity(actor)
	if !role.CanViewGame(actorRole, actorID, g.DeveloperID, g.IsApproved()) {
		log.Printf("[SocialService] Blocked access to unapproved game %d", g.ID)
		return nil, apierror.Forbidden("this game has not passed moderation yet")
	}
	return g, nil
}
