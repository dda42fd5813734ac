package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gamehub-api/internal/model"
)

// SQLCommentRepository implements CommentRepository on database/sql.
type SQLCommentRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLCommentRepository creates a new comment repository.
func NewSQLCommentRepository(db *sql.DB, dialect Dialect) *SQLCommentRepository {
	return &SQLCommentRepository{db: db, dialect: dialect}
}

func (r *SQLCommentRepository) Create(ctx context.Context, c *model.Comment) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (user_id, game_id, text, is_edited, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.UserID, c.GameID, c.Text, c.IsEdited, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read comment id: %w", err)
	}
	c.ID = id
	return nil
}

func (r *SQLCommentRepository) GetByID(ctx context.Context, id int64) (*model.Comment, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT c.id, c.user_id, u.username, c.game_id, c.text, c.is_edited, c.created_at, c.updated_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.id = ?`, id)

	c := &model.Comment{}
	err := row.Scan(&c.ID, &c.UserID, &c.Username, &c.GameID, &c.Text, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}
	return c, nil
}

// ListByGame returns comments newest first.
func (r *SQLCommentRepository) ListByGame(ctx context.Context, gameID int64) ([]*model.Comment, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.user_id, u.username, c.game_id, c.text, c.is_edited, c.created_at, c.updated_at
		FROM comments c JOIN users u ON u.id = c.user_id
		WHERE c.game_id = ?
		ORDER BY c.created_at DESC, c.id DESC`, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	var comments []*model.Comment
	for rows.Next() {
		c := &model.Comment{}
		err := rows.Scan(&c.ID, &c.UserID, &c.Username, &c.GameID, &c.Text, &c.IsEdited, &c.CreatedAt, &c.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Update replaces the text and marks the comment edited.
func (r *SQLCommentRepository) Update(ctx context.Context, id int64, text string, now time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE comments SET text = ?, is_edited = ?, updated_at = ? WHERE id = ?`,
		text, true, now, id)
	if err != nil {
		return fmt.Errorf("failed to update comment: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLCommentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return requireAffected(res)
}

// Ensure SQLCommentRepository implements CommentRepository
var _ CommentRepository = (*SQLCommentRepository)(nil)
