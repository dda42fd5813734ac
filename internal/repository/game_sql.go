package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamehub-api/internal/model"
)

// SQLGameRepository implements GameRepository on database/sql.
type SQLGameRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLGameRepository creates a new game repository.
func NewSQLGameRepository(db *sql.DB, dialect Dialect) *SQLGameRepository {
	return &SQLGameRepository{db: db, dialect: dialect}
}

const gameColumns = `g.id, g.title, g.description, g.developer_id, u.username, g.html_path, g.thumbnail_path, g.status, g.created_at, g.updated_at, g.published_at`

const gameSelect = `SELECT ` + gameColumns + ` FROM games g JOIN users u ON u.id = g.developer_id`

// Create inserts the game and seeds its stat row in one transaction, so
// a stat row exists from the moment the game does. Lazy get-or-create in
// StatRepository remains the safety net for rows created before this
// scheme.
func (r *SQLGameRepository) Create(ctx context.Context, g *model.Game) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO games (title, description, developer_id, html_path, thumbnail_path, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		g.Title, g.Description, g.DeveloperID, g.HTMLPath, g.ThumbnailPath, string(g.Status), g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert game: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read game id: %w", err)
	}
	g.ID = id

	if _, err := tx.ExecContext(ctx, insertIgnore(r.dialect, `INTO game_stats (game_id) VALUES (?)`), id); err != nil {
		return fmt.Errorf("failed to seed game stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit game: %w", err)
	}
	return nil
}

func (r *SQLGameRepository) GetByID(ctx context.Context, id int64) (*model.Game, error) {
	row := r.db.QueryRowContext(ctx, gameSelect+` WHERE g.id = ?`, id)
	return scanGame(row)
}

func (r *SQLGameRepository) ListAll(ctx context.Context) ([]*model.Game, error) {
	return r.list(ctx, gameSelect+` ORDER BY g.created_at DESC, g.id DESC`)
}

func (r *SQLGameRepository) ListApproved(ctx context.Context) ([]*model.Game, error) {
	return r.list(ctx, gameSelect+` WHERE g.status = 'approved' ORDER BY g.created_at DESC, g.id DESC`)
}

func (r *SQLGameRepository) ListVisibleTo(ctx context.Context, developerID int64) ([]*model.Game, error) {
	return r.list(ctx, gameSelect+` WHERE g.status = 'approved' OR g.developer_id = ? ORDER BY g.created_at DESC, g.id DESC`, developerID)
}

func (r *SQLGameRepository) ListByDeveloper(ctx context.Context, developerID int64) ([]*model.Game, error) {
	return r.list(ctx, gameSelect+` WHERE g.developer_id = ? ORDER BY g.created_at DESC, g.id DESC`, developerID)
}

func (r *SQLGameRepository) ListPending(ctx context.Context) ([]*model.Game, error) {
	return r.list(ctx, gameSelect+` WHERE g.status = 'pending' ORDER BY g.created_at ASC, g.id ASC`)
}

func (r *SQLGameRepository) CountPending(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM games WHERE status = 'pending'`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending games: %w", err)
	}
	return count, nil
}

// ListPopular orders approved games by views, ties broken by play count.
func (r *SQLGameRepository) ListPopular(ctx context.Context, limit int) ([]*model.Game, error) {
	return r.list(ctx, `
		SELECT `+gameColumns+`
		FROM games g
		JOIN users u ON u.id = g.developer_id
		LEFT JOIN game_stats s ON s.game_id = g.id
		WHERE g.status = 'approved'
		ORDER BY COALESCE(s.views, 0) DESC, COALESCE(s.play_count, 0) DESC, g.id DESC
		LIMIT ?`, limit)
}

// ListBestRated returns approved games with at least minRatings ratings,
// best average first. The floor keeps single-vote games from topping the
// list.
func (r *SQLGameRepository) ListBestRated(ctx context.Context, minRatings, limit int) ([]*model.RatedGame, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+gameColumns+`, AVG(rt.score), COUNT(rt.id)
		FROM games g
		JOIN users u ON u.id = g.developer_id
		JOIN ratings rt ON rt.game_id = g.id
		WHERE g.status = 'approved'
		GROUP BY `+gameColumns+`
		HAVING COUNT(rt.id) >= ?
		ORDER BY AVG(rt.score) DESC, COUNT(rt.id) DESC, g.id DESC
		LIMIT ?`, minRatings, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list best rated games: %w", err)
	}
	defer rows.Close()

	var games []*model.RatedGame
	for rows.Next() {
		rg := &model.RatedGame{}
		var status string
		var avg float64
		err := rows.Scan(&rg.ID, &rg.Title, &rg.Description, &rg.DeveloperID, &rg.DeveloperName,
			&rg.HTMLPath, &rg.ThumbnailPath, &status, &rg.CreatedAt, &rg.UpdatedAt, &rg.PublishedAt,
			&avg, &rg.RatingCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rated game: %w", err)
		}
		rg.Status = model.GameStatus(status)
		rg.AverageRating = roundRating(avg)
		games = append(games, rg)
	}
	return games, rows.Err()
}

func (r *SQLGameRepository) Update(ctx context.Context, g *model.Game) error {
	g.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE games
		SET title = ?, description = ?, html_path = ?, thumbnail_path = ?, status = ?, updated_at = ?
		WHERE id = ?`,
		g.Title, g.Description, g.HTMLPath, g.ThumbnailPath, string(g.Status), g.UpdatedAt, g.ID)
	if err != nil {
		return fmt.Errorf("failed to update game: %w", err)
	}
	return requireAffected(res)
}

// UpdateStatus sets the moderation status. publishedAt is written only
// when non-nil; rejection and resubmission leave the prior publish
// timestamp untouched.
func (r *SQLGameRepository) UpdateStatus(ctx context.Context, id int64, status model.GameStatus, publishedAt *time.Time) error {
	now := time.Now().UTC()

	var res sql.Result
	var err error
	if publishedAt != nil {
		res, err = r.db.ExecContext(ctx,
			`UPDATE games SET status = ?, published_at = ?, updated_at = ? WHERE id = ?`,
			string(status), *publishedAt, now, id)
	} else {
		res, err = r.db.ExecContext(ctx,
			`UPDATE games SET status = ?, updated_at = ? WHERE id = ?`,
			string(status), now, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update game status: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLGameRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM games WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete game: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLGameRepository) list(ctx context.Context, query string, args ...interface{}) ([]*model.Game, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}
	defer rows.Close()

	var games []*model.Game
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

func scanGame(row scanner) (*model.Game, error) {
	g := &model.Game{}
	var status string
	err := row.Scan(&g.ID, &g.Title, &g.Description, &g.DeveloperID, &g.DeveloperName,
		&g.HTMLPath, &g.ThumbnailPath, &status, &g.CreatedAt, &g.UpdatedAt, &g.PublishedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan game: %w", err)
	}
	g.Status = model.GameStatus(status)
	return g, nil
}

// insertIgnore builds an insert that is a no-op when the row exists.
func insertIgnore(d Dialect, rest string) string {
	if d == DialectMySQL {
		return `INSERT IGNORE ` + rest
	}
	return `INSERT OR IGNORE ` + rest
}

// Ensure SQLGameRepository implements GameRepository
var _ GameRepository = (*SQLGameRepository)(nil)
