package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"gamehub-api/internal/model"
	"gamehub-api/internal/role"

	log "github.com/sirupsen/logrus"
)

// SQLUserRepository implements UserRepository on database/sql. The same
// implementation serves SQLite and MySQL; dialect only matters for
// statements that differ between the engines.
type SQLUserRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLUserRepository creates a new user repository.
func NewSQLUserRepository(db *sql.DB, dialect Dialect) *SQLUserRepository {
	return &SQLUserRepository{db: db, dialect: dialect}
}

const userColumns = `id, username, email, password_hash, role, bio, avatar_path, active, last_login_ip, created_at, updated_at`

// Register inserts a new account with first-user bootstrap. The count
// and the insert run in one transaction so two racing registrations
// against an empty store cannot both become owner.
func (r *SQLUserRepository) Register(ctx context.Context, u *model.User) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var count int64
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count users: %w", err)
	}
	if count == 0 {
		u.Role = role.Owner
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, bio, avatar_path, active, last_login_ip, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role.String(), u.Bio, u.AvatarPath, u.Active, u.LastLoginIP, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit registration: %w", err)
	}

	if count == 0 {
		log.Printf("[UserRepository] First account %q promoted to owner", u.Username)
	}
	return nil
}

// Create inserts a new account without bootstrap.
func (r *SQLUserRepository) Create(ctx context.Context, u *model.User) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, bio, avatar_path, active, last_login_ip, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.Username, u.Email, u.PasswordHash, u.Role.String(), u.Bio, u.AvatarPath, u.Active, u.LastLoginIP, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read user id: %w", err)
	}
	u.ID = id
	return nil
}

func (r *SQLUserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

func (r *SQLUserRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return scanUser(row)
}

func (r *SQLUserRepository) List(ctx context.Context, f model.UserFilter) ([]*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var conds []string
	var args []interface{}

	if f.Search != "" {
		conds = append(conds, `(LOWER(username) LIKE ? OR LOWER(email) LIKE ?)`)
		pattern := "%" + strings.ToLower(f.Search) + "%"
		args = append(args, pattern, pattern)
	}
	if f.Role != nil {
		conds = append(conds, `role = ?`)
		args = append(args, f.Role.String())
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *SQLUserRepository) Stats(ctx context.Context) (*model.UserStats, error) {
	stats := &model.UserStats{}
	row := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN active THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN role = 'developer' THEN 1 ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN role IN ('admin', 'owner') THEN 1 ELSE 0 END), 0)
		FROM users`)
	if err := row.Scan(&stats.Total, &stats.Active, &stats.Developers, &stats.Admins); err != nil {
		return nil, fmt.Errorf("failed to get user stats: %w", err)
	}
	return stats, nil
}

func (r *SQLUserRepository) Update(ctx context.Context, u *model.User) error {
	u.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		UPDATE users
		SET email = ?, role = ?, bio = ?, avatar_path = ?, updated_at = ?
		WHERE id = ?`,
		u.Email, u.Role.String(), u.Bio, u.AvatarPath, u.UpdatedAt, u.ID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLUserRepository) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET active = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to set active flag: %w", err)
	}
	return requireAffected(res)
}

func (r *SQLUserRepository) UpdateLastLoginIP(ctx context.Context, id int64, ip string) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_ip = ? WHERE id = ?`, ip, id)
	if err != nil {
		return fmt.Errorf("failed to record login ip: %w", err)
	}
	return nil
}

func (r *SQLUserRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	return requireAffected(res)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row scanner) (*model.User, error) {
	u := &model.User{}
	var roleName string
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &roleName,
		&u.Bio, &u.AvatarPath, &u.Active, &u.LastLoginIP, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}

	u.Role, err = role.Parse(roleName)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored role: %w", err)
	}
	return u, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Ensure SQLUserRepository implements UserRepository
var _ UserRepository = (*SQLUserRepository)(nil)
