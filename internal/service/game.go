package service

import (
	"context"
	"mime/multipart"
	"strings"
	"time"

	"gamehub-api/internal/model"
	"gamehub-api/internal/repository"
	"gamehub-api/internal/role"
	"gamehub-api/internal/upload"
	"gamehub-api/pkg/apierror"

	log "github.com/sirupsen/logrus"
)

// BestRatedMinimum is the rating count a game needs before it can appear
// in the best-rated listing, keeping single-vote games off the top.
const BestRatedMinimum = 3

// GameService handles game lifecycle and moderation business logic.
type GameService struct {
	games   repository.GameRepository
	stats   repository.StatRepository
	ratings repository.RatingRepository
	saver   *upload.Saver
	now     func() time.Time
}

// NewGameService creates a new game service.
func NewGameService(games repository.GameRepository, stats repository.StatRepository, ratings repository.RatingRepository, saver *upload.Saver) *GameService {
	return &GameService{
		games:   games,
		stats:   stats,
		ratings: ratings,
		saver:   saver,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GameInput carries a game submission or edit. On edit, nil files keep
// the stored ones.
type GameInput struct {
	Title       string
	Description string
	HTML        *multipart.FileHeader
	Thumbnail   *multipart.FileHeader
}

// Create submits a new game. Developer-or-above only; the game always
// starts pending moderation.
func (s *GameService) Create(ctx context.Context, actor *model.User, in GameInput) (*model.Game, error) {
	if !actor.Role.IsDeveloper() {
		return nil, apierror.Forbidden("only developers can upload games")
	}

	var details []apierror.FieldError
	if strings.TrimSpace(in.Title) == "" {
		details = append(details, apierror.FieldError{Field: "title", Message: "title is required"})
	}
	if strings.TrimSpace(in.Description) == "" {
		details = append(details, apierror.FieldError{Field: "description", Message: "description is required"})
	}
	if in.HTML == nil {
		details = append(details, apierror.FieldError{Field: "html_file", Message: "game file is required"})
	}
	if len(details) > 0 {
		return nil, apierror.ValidationError("invalid game", details...)
	}

	htmlPath, err := s.saver.Save(in.HTML, upload.KindGame)
	if err != nil {
		return nil, uploadError("html_file", err)
	}

	var thumbPath string
	if in.Thumbnail != nil {
		thumbPath, err = s.saver.Save(in.Thumbnail, upload.KindThumbnail)
		if err != nil {
			s.saver.Remove(htmlPath)
			return nil, uploadError("thumbnail", err)
		}
	}

	now := s.now()
	g := &model.Game{
		Title:         strings.TrimSpace(in.Title),
		Description:   in.Description,
		DeveloperID:   actor.ID,
		DeveloperName: actor.Username,
		HTMLPath:      htmlPath,
		ThumbnailPath: thumbPath,
		Status:        model.StatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.games.Create(ctx, g); err != nil {
		s.saver.Remove(htmlPath)
		s.saver.Remove(thumbPath)
		return nil, err
	}

	log.Printf("[GameService] %q submitted game %q for moderation", actor.Username, g.Title)
	return g, nil
}

// GameView is the game detail payload.
type GameView struct {
	Game      *model.Game          `json:"game"`
	Stats     *model.GameStat      `json:"stats"`
	Rating    *model.RatingSummary `json:"rating"`
	UserScore int                  `json:"user_score,omitempty"`
}

// Get returns a game's detail view and counts the visit. Unapproved
// games are visible only to the owning developer and admins; actor may
// be nil for anonymous viewers.
func (s *GameService) Get(ctx context.Context, actor *model.User, id int64) (*GameView, error) {
	g, err := s.games.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("game not found")
	}
	if err != nil {
		return nil, err
	}

	actorRole, actorID := viewerIdentity(actor)
	if !role.CanViewGame(actorRole, actorID, g.DeveloperID, g.IsApproved()) {
		return nil, apierror.Forbidden("this game has not passed moderation yet")
	}

	if _, err := s.stats.IncrementViews(ctx, g.ID); err != nil {
		log.Printf("[GameService] Failed to count view for game %d: %v", g.ID, err)
	}

	stats, err := s.stats.Get(ctx, g.ID)
	if err != nil {
		return nil, err
	}
	rating, err := s.ratings.Summary(ctx, g.ID)
	if err != nil {
		return nil, err
	}

	view := &GameView{Game: g, Stats: stats, Rating: rating}
	if actor != nil {
		score, err := s.ratings.UserScore(ctx, actor.ID, g.ID)
		if err != nil {
			return nil, err
		}
		view.UserScore = score
	}
	return view, nil
}

// List returns games filtered by the viewer's capabilities: admins see
// everything, a developer sees approved games plus their own, everyone
// else only approved games. actor may be nil.
func (s *GameService) List(ctx context.Context, actor *model.User) ([]*model.Game, error) {
	switch {
	case actor != nil && actor.Role.IsAdmin():
		return s.games.ListAll(ctx)
	case actor != nil && actor.Role.IsDeveloper():
		return s.games.ListVisibleTo(ctx, actor.ID)
	default:
		return s.games.ListApproved(ctx)
	}
}

// Popular returns approved games ordered by view count.
func (s *GameService) Popular(ctx context.Context, limit int) ([]*model.Game, error) {
	return s.games.ListPopular(ctx, limit)
}

// BestRated returns approved games with at least BestRatedMinimum
// ratings, best average first.
func (s *GameService) BestRated(ctx context.Context, limit int) ([]*model.RatedGame, error) {
	return s.games.ListBestRated(ctx, BestRatedMinimum, limit)
}

// Update edits a game. Allowed for the owning developer and admins.
// When the owning developer edits an approved game it goes back to
// pending for re-moderation; the publish timestamp stays until the next
// approval.
func (s *GameService) Update(ctx context.Context, actor *model.User, id int64, in GameInput) (*model.Game, error) {
	g, err := s.games.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("game not found")
	}
	if err != nil {
		return nil, err
	}

	if !role.CanEditGame(actor.Role, actor.ID, g.DeveloperID) {
		return nil, apierror.Forbidden("you may not edit this game")
	}

	if strings.TrimSpace(in.Title) != "" {
		g.Title = strings.TrimSpace(in.Title)
	}
	if strings.TrimSpace(in.Description) != "" {
		g.Description = in.Description
	}

	if in.HTML != nil {
		path, err := s.saver.Save(in.HTML, upload.KindGame)
		if err != nil {
			return nil, uploadError("html_file", err)
		}
		s.saver.Remove(g.HTMLPath)
		g.HTMLPath = path
	}
	if in.Thumbnail != nil {
		path, err := s.saver.Save(in.Thumbnail, upload.KindThumbnail)
		if err != nil {
			return nil, uploadError("thumbnail", err)
		}
		s.saver.Remove(g.ThumbnailPath)
		g.ThumbnailPath = path
	}

	resubmitted := false
	if g.IsApproved() && actor.ID == g.DeveloperID {
		g.Status = model.StatusPending
		resubmitted = true
	}

	if err := s.games.Update(ctx, g); err != nil {
		return nil, err
	}

	if resubmitted {
		log.Printf("[GameService] Game %q edited by its developer, back to moderation", g.Title)
	}
	return g, nil
}

// Delete removes a game and its files. The owner may delete any game;
// an admin any game except their own (their own goes through the plain
// developer path); a developer only their own.
func (s *GameService) Delete(ctx context.Context, actor *model.User, id int64) error {
	g, err := s.games.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return apierror.NotFound("game not found")
	}
	if err != nil {
		return err
	}

	if !role.CanDeleteGame(actor.Role, actor.ID, g.DeveloperID) {
		return apierror.Forbidden("you may not delete this game")
	}

	if err := s.games.Delete(ctx, g.ID); err != nil {
		return err
	}

	s.saver.Remove(g.HTMLPath)
	s.saver.Remove(g.ThumbnailPath)

	log.Printf("[GameService] %q deleted game %q", actor.Username, g.Title)
	return nil
}

// ModerationQueue returns pending games, oldest first. Admin-or-above only.
func (s *GameService) ModerationQueue(ctx context.Context, actor *model.User) ([]*model.Game, error) {
	if !actor.Role.IsAdmin() {
		return nil, apierror.Forbidden("administrators only")
	}
	return s.games.ListPending(ctx)
}

// PendingCount returns the moderation queue size. Admin-or-above only.
func (s *GameService) PendingCount(ctx context.Context, actor *model.User) (int64, error) {
	if !actor.Role.IsAdmin() {
		return 0, apierror.Forbidden("administrators only")
	}
	return s.games.CountPending(ctx)
}

// Moderate applies an approve or reject action. Admin-or-above only.
// Approval sets the publish timestamp; rejection and later transitions
// leave any prior publish timestamp untouched.
func (s *GameService) Moderate(ctx context.Context, actor *model.User, id int64, action string) (*model.Game, error) {
	if !actor.Role.IsAdmin() {
		return nil, apierror.Forbidden("administrators only")
	}

	g, err := s.games.GetByID(ctx, id)
	if err == repository.ErrNotFound {
		return nil, apierror.NotFound("game not found")
	}
	if err != nil {
		return nil, err
	}

	switch action {
	case "approve":
		now := s.now()
		if err := s.games.UpdateStatus(ctx, g.ID, model.StatusApproved, &now); err != nil {
			return nil, err
		}
		g.Status = model.StatusApproved
		g.PublishedAt = &now
		log.Printf("[GameService] %q approved game %q", actor.Username, g.Title)
	case "reject":
		if err := s.games.UpdateStatus(ctx, g.ID, model.StatusRejected, nil); err != nil {
			return nil, err
		}
		g.Status = model.StatusRejected
		log.Printf("[GameService] %q rejected game %q", actor.Username, g.Title)
	default:
		return nil, apierror.BadRequest("action must be approve or reject")
	}

	return g, nil
}

// viewerIdentity maps an optional actor to the role predicate inputs;
// anonymous viewers carry id 0.
func viewerIdentity(actor *model.User) (role.Role, int64) {
	if actor == nil {
		return role.Player, 0
	}
	return actor.Role, actor.ID
}
