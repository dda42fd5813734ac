package model

import "time"

// GameStat represents the game_stats table: per-game engagement
// counters, keyed one-to-one with a game and created lazily on first
// access. Likes and dislikes are plain counters with no per-user
// deduplication, unlike ratings.
type GameStat struct {
	GameID     int64      `json:"game_id"`
	Views      int64      `json:"views"`
	Likes      int64      `json:"likes"`
	Dislikes   int64      `json:"dislikes"`
	PlayCount  int64      `json:"play_count"`
	LastPlayed *time.Time `json:"last_played,omitempty"`
}

// Rating represents the ratings table. At most one row exists per
// (user, game) pair; repeated ratings overwrite the prior score.
type Rating struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	GameID    int64     `json:"game_id"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RatingSummary aggregates a game's ratings. Average is the arithmetic
// mean rounded to one decimal place, 0 when no ratings exist.
type RatingSummary struct {
	Average float64 `json:"average"`
	Count   int64   `json:"count"`
}

// Comment represents the comments table.
type Comment struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Username  string    `json:"username,omitempty"`
	GameID    int64     `json:"game_id"`
	Text      string    `json:"text"`
	IsEdited  bool      `json:"is_edited"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
