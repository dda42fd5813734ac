package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamehub-api/internal/model"
)

// SQLStatRepository implements StatRepository on database/sql.
//
// Increments are single UPDATE statements after an atomic get-or-create
// insert, so concurrent bumps to the same counter are serialized by the
// storage engine rather than racing through read-modify-write in Go.
type SQLStatRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStatRepository creates a new stat repository.
func NewSQLStatRepository(db *sql.DB, dialect Dialect) *SQLStatRepository {
	return &SQLStatRepository{db: db, dialect: dialect}
}

// Get returns the stat row, or a zero-valued stat when none exists yet.
func (r *SQLStatRepository) Get(ctx context.Context, gameID int64) (*model.GameStat, error) {
	s := &model.GameStat{GameID: gameID}
	err := r.db.QueryRowContext(ctx, `
		SELECT views, likes, dislikes, play_count, last_played
		FROM game_stats WHERE game_id = ?`, gameID).
		Scan(&s.Views, &s.Likes, &s.Dislikes, &s.PlayCount, &s.LastPlayed)
	if err == sql.ErrNoRows {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game stats: %w", err)
	}
	return s, nil
}

func (r *SQLStatRepository) IncrementViews(ctx context.Context, gameID int64) (int64, error) {
	if err := r.ensure(ctx, gameID); err != nil {
		return 0, err
	}

	_, err := r.db.ExecContext(ctx, `UPDATE game_stats SET views = views + 1 WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment views: %w", err)
	}

	var views int64
	if err := r.db.QueryRowContext(ctx, `SELECT views FROM game_stats WHERE game_id = ?`, gameID).Scan(&views); err != nil {
		return 0, fmt.Errorf("failed to read views: %w", err)
	}
	return views, nil
}

func (r *SQLStatRepository) IncrementPlays(ctx context.Context, gameID int64, playedAt time.Time) (int64, error) {
	if err := r.ensure(ctx, gameID); err != nil {
		return 0, err
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE game_stats SET play_count = play_count + 1, last_played = ? WHERE game_id = ?`,
		playedAt, gameID)
	if err != nil {
		return 0, fmt.Errorf("failed to increment play count: %w", err)
	}

	var plays int64
	if err := r.db.QueryRowContext(ctx, `SELECT play_count FROM game_stats WHERE game_id = ?`, gameID).Scan(&plays); err != nil {
		return 0, fmt.Errorf("failed to read play count: %w", err)
	}
	return plays, nil
}

// AddVote bumps the like or dislike counter. Votes are plain counters
// with no per-user ledger; the same user may vote repeatedly.
func (r *SQLStatRepository) AddVote(ctx context.Context, gameID int64, like bool) (int64, int64, error) {
	if err := r.ensure(ctx, gameID); err != nil {
		return 0, 0, err
	}

	column := "dislikes"
	if like {
		column = "likes"
	}
	_, err := r.db.ExecContext(ctx,
		`UPDATE game_stats SET `+column+` = `+column+` + 1 WHERE game_id = ?`, gameID)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to add vote: %w", err)
	}

	var likes, dislikes int64
	err = r.db.QueryRowContext(ctx, `SELECT likes, dislikes FROM game_stats WHERE game_id = ?`, gameID).
		Scan(&likes, &dislikes)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read vote counts: %w", err)
	}
	return likes, dislikes, nil
}

// ensure lazily creates the stat row. The IGNORE insert makes the
// existence check and the creation one atomic statement.
func (r *SQLStatRepository) ensure(ctx context.Context, gameID int64) error {
	_, err := r.db.ExecContext(ctx, insertIgnore(r.dialect, `INTO game_stats (game_id) VALUES (?)`), gameID)
	if err != nil {
		return fmt.Errorf("failed to ensure stat row: %w", err)
	}
	return nil
}

// Ensure SQLStatRepository implements StatRepository
var _ StatRepository = (*SQLStatRepository)(nil)
