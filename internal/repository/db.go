package repository

import (
	"database/sql"
	"fmt"
	"time"

	"gamehub-api/internal/config"

	_ "github.com/go-sql-driver/mysql"
	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Dialect identifies the SQL backend so queries that differ between
// engines (upserts, DDL) can pick the right form. All other SQL is
// shared and uses ? placeholders.
type Dialect string

const (
	DialectSQLite Dialect = "sqlite"
	DialectMySQL  Dialect = "mysql"
)

// Open connects to the configured database, applies connection pool
// settings and creates the schema if needed.
func Open(cfg config.DatabaseConfig) (*sql.DB, Dialect, error) {
	switch cfg.Driver {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN())
		if err != nil {
			return nil, "", fmt.Errorf("failed to open MySQL: %w", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("failed to ping MySQL: %w", err)
		}
		if err := migrate(db, DialectMySQL); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("failed to create tables: %w", err)
		}
		log.Printf("[Repository] MySQL initialized: %s/%s", cfg.Host, cfg.Name)
		return db, DialectMySQL, nil

	default: // sqlite
		dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", cfg.Path)

		db, err := sql.Open("sqlite", dsn)
		if err != nil {
			return nil, "", fmt.Errorf("failed to open SQLite: %w", err)
		}

		// SQLite only supports 1 writer
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)

		if err := migrate(db, DialectSQLite); err != nil {
			db.Close()
			return nil, "", fmt.Errorf("failed to create tables: %w", err)
		}
		log.Printf("[Repository] SQLite initialized: %s", cfg.Path)
		return db, DialectSQLite, nil
	}
}

// migrate creates the schema. Statements run one at a time because the
// MySQL driver rejects multi-statement Exec by default.
func migrate(db *sql.DB, dialect Dialect) error {
	var stmts []string
	if dialect == DialectMySQL {
		stmts = mysqlSchema
	} else {
		stmts = sqliteSchema
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		email TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL DEFAULT 'player',
		bio TEXT NOT NULL DEFAULT '',
		avatar_path TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		last_login_ip TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS games (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		developer_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		html_path TEXT NOT NULL,
		thumbnail_path TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		published_at DATETIME
	)`,
	`CREATE INDEX IF NOT EXISTS idx_games_status ON games(status)`,
	`CREATE INDEX IF NOT EXISTS idx_games_developer ON games(developer_id)`,
	`CREATE TABLE IF NOT EXISTS game_stats (
		game_id INTEGER PRIMARY KEY REFERENCES games(id) ON DELETE CASCADE,
		views INTEGER NOT NULL DEFAULT 0,
		likes INTEGER NOT NULL DEFAULT 0,
		dislikes INTEGER NOT NULL DEFAULT 0,
		play_count INTEGER NOT NULL DEFAULT 0,
		last_played DATETIME
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		score INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE(user_id, game_id)
	)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		text TEXT NOT NULL,
		is_edited INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_game ON comments(game_id)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		username VARCHAR(150) NOT NULL UNIQUE,
		email VARCHAR(254) NOT NULL,
		password_hash VARCHAR(128) NOT NULL,
		role VARCHAR(10) NOT NULL DEFAULT 'player',
		bio TEXT NOT NULL,
		avatar_path VARCHAR(255) NOT NULL DEFAULT '',
		active TINYINT(1) NOT NULL DEFAULT 1,
		last_login_ip VARCHAR(45) NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS games (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		title VARCHAR(200) NOT NULL,
		description TEXT NOT NULL,
		developer_id BIGINT NOT NULL,
		html_path VARCHAR(255) NOT NULL,
		thumbnail_path VARCHAR(255) NOT NULL DEFAULT '',
		status VARCHAR(10) NOT NULL DEFAULT 'pending',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		published_at DATETIME NULL,
		INDEX idx_games_status (status),
		INDEX idx_games_developer (developer_id),
		FOREIGN KEY (developer_id) REFERENCES users(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS game_stats (
		game_id BIGINT PRIMARY KEY,
		views BIGINT NOT NULL DEFAULT 0,
		likes BIGINT NOT NULL DEFAULT 0,
		dislikes BIGINT NOT NULL DEFAULT 0,
		play_count BIGINT NOT NULL DEFAULT 0,
		last_played DATETIME NULL,
		FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS ratings (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		user_id BIGINT NOT NULL,
		game_id BIGINT NOT NULL,
		score INT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		UNIQUE KEY uq_ratings_user_game (user_id, game_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
	`CREATE TABLE IF NOT EXISTS comments (
		id BIGINT PRIMARY KEY AUTO_INCREMENT,
		user_id BIGINT NOT NULL,
		game_id BIGINT NOT NULL,
		text TEXT NOT NULL,
		is_edited TINYINT(1) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		INDEX idx_comments_game (game_id),
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (game_id) REFERENCES games(id) ON DELETE CASCADE
	) ENGINE=InnoDB`,
}
