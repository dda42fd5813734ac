package repository

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"time"

	"gamehub-api/internal/model"
)

// SQLRatingRepository implements RatingRepository on database/sql.
type SQLRatingRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRatingRepository creates a new rating repository.
func NewSQLRatingRepository(db *sql.DB, dialect Dialect) *SQLRatingRepository {
	return &SQLRatingRepository{db: db, dialect: dialect}
}

// Upsert inserts a rating or overwrites the prior score for the same
// (user, game) pair. The unique key plus the conflict clause keep this a
// single statement, so concurrent upserts by the same user cannot
// produce duplicate rows.
func (r *SQLRatingRepository) Upsert(ctx context.Context, userID, gameID int64, score int, now time.Time) error {
	var query string
	if r.dialect == DialectMySQL {
		query = `
			INSERT INTO ratings (user_id, game_id, score, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON DUPLICATE KEY UPDATE score = VALUES(score), updated_at = VALUES(updated_at)`
	} else {
		query = `
			INSERT INTO ratings (user_id, game_id, score, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(user_id, game_id) DO UPDATE SET
				score = excluded.score,
				updated_at = excluded.updated_at`
	}

	_, err := r.db.ExecContext(ctx, query, userID, gameID, score, now, now)
	if err != nil {
		return fmt.Errorf("failed to upsert rating: %w", err)
	}
	return nil
}

// Summary returns the rating aggregate for a game: arithmetic mean
// rounded to one decimal place, 0 when the game has no ratings.
func (r *SQLRatingRepository) Summary(ctx context.Context, gameID int64) (*model.RatingSummary, error) {
	var avg sql.NullFloat64
	var count int64
	err := r.db.QueryRowContext(ctx,
		`SELECT AVG(score), COUNT(*) FROM ratings WHERE game_id = ?`, gameID).
		Scan(&avg, &count)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize ratings: %w", err)
	}

	summary := &model.RatingSummary{Count: count}
	if avg.Valid {
		summary.Average = roundRating(avg.Float64)
	}
	return summary, nil
}

// UserScore returns the actor's score for the game, 0 when unrated.
func (r *SQLRatingRepository) UserScore(ctx context.Context, userID, gameID int64) (int, error) {
	var score int
	err := r.db.QueryRowContext(ctx,
		`SELECT score FROM ratings WHERE user_id = ? AND game_id = ?`, userID, gameID).
		Scan(&score)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get user rating: %w", err)
	}
	return score, nil
}

// roundRating rounds an average to one decimal place.
func roundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}

// Ensure SQLRatingRepository implements RatingRepository
var _ RatingRepository = (*SQLRatingRepository)(nil)
