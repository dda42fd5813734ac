package repository

import (
	"context"
	"errors"
	"time"

	"gamehub-api/internal/model"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("not found")

// UserRepository defines user account data access methods.
type UserRepository interface {
	// Register inserts a new account with first-user bootstrap: inside a
	// single transaction the user count is checked and, if the store is
	// empty, the new account's role is promoted to owner before insert.
	Register(ctx context.Context, u *model.User) error

	// Create inserts a new account without bootstrap (admin-driven creation).
	Create(ctx context.Context, u *model.User) error

	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// List returns accounts matching the filter, newest first.
	List(ctx context.Context, f model.UserFilter) ([]*model.User, error)

	// Stats returns the aggregate counts shown on the admin user listing.
	Stats(ctx context.Context) (*model.UserStats, error)

	Update(ctx context.Context, u *model.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	UpdateLastLoginIP(ctx context.Context, id int64, ip string) error

	// Delete removes the account; dependent games, ratings and comments
	// are removed by foreign-key cascade.
	Delete(ctx context.Context, id int64) error
}

// GameRepository defines game data access methods.
type GameRepository interface {
	// Create inserts a new game and seeds its stat row in one transaction.
	Create(ctx context.Context, g *model.Game) error

	GetByID(ctx context.Context, id int64) (*model.Game, error)

	ListAll(ctx context.Context) ([]*model.Game, error)
	ListApproved(ctx context.Context) ([]*model.Game, error)
	// ListVisibleTo returns approved games plus the developer's own,
	// regardless of status.
	ListVisibleTo(ctx context.Context, developerID int64) ([]*model.Game, error)
	ListByDeveloper(ctx context.Context, developerID int64) ([]*model.Game, error)
	ListPending(ctx context.Context) ([]*model.Game, error)
	CountPending(ctx context.Context) (int64, error)
	ListPopular(ctx context.Context, limit int) ([]*model.Game, error)
	// ListBestRated returns approved games with at least minRatings
	// ratings, ordered by average score descending.
	ListBestRated(ctx context.Context, minRatings, limit int) ([]*model.RatedGame, error)

	Update(ctx context.Context, g *model.Game) error
	// UpdateStatus sets the moderation status. publishedAt is applied only
	// when non-nil; a nil value leaves any prior publish timestamp untouched.
	UpdateStatus(ctx context.Context, id int64, status model.GameStatus, publishedAt *time.Time) error

	Delete(ctx context.Context, id int64) error
}

// StatRepository defines engagement counter access. All increments are
// single statements after an atomic get-or-create, so the storage layer
// serializes concurrent updates to the same row.
type StatRepository interface {
	// Get returns the stat row, or a zero-valued stat if none exists yet.
	Get(ctx context.Context, gameID int64) (*model.GameStat, error)

	IncrementViews(ctx context.Context, gameID int64) (int64, error)
	IncrementPlays(ctx context.Context, gameID int64, playedAt time.Time) (int64, error)
	// AddVote bumps the like or dislike counter and returns both totals.
	AddVote(ctx context.Context, gameID int64, like bool) (likes, dislikes int64, err error)
}

// RatingRepository defines rating data access methods.
type RatingRepository interface {
	// Upsert inserts a rating or overwrites the score of an existing one
	// for the same (user, game) pair in a single statement.
	Upsert(ctx context.Context, userID, gameID int64, score int, now time.Time) error

	Summary(ctx context.Context, gameID int64) (*model.RatingSummary, error)
	// UserScore returns the actor's score for the game, 0 when unrated.
	UserScore(ctx context.Context, userID, gameID int64) (int, error)
}

// CommentRepository defines comment data access methods.
type CommentRepository interface {
	Create(ctx context.Context, c *model.Comment) error
	GetByID(ctx context.Context, id int64) (*model.Comment, error)
	// ListByGame returns comments newest first.
	ListByGame(ctx context.Context, gameID int64) ([]*model.Comment, error)
	// Update replaces the text and marks the comment edited.
	Update(ctx context.Context, id int64, text string, now time.Time) error
	Delete(ctx context.Context, id int64) error
}
