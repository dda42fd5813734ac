package model

import "time"

// GameStatus is the moderation lifecycle state of a game.
type GameStatus string

const (
	StatusPending  GameStatus = "pending"
	StatusApproved GameStatus = "approved"
	StatusRejected GameStatus = "rejected"
)

// Valid reports whether s is a known moderation status.
func (s GameStatus) Valid() bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Game represents the games table. Every game starts pending and
// published_at is set only when it transitions into approved.
type Game struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	DeveloperID   int64      `json:"developer_id"`
	DeveloperName string     `json:"developer_name,omitempty"`
	HTMLPath      string     `json:"html_path"`
	ThumbnailPath string     `json:"thumbnail,omitempty"`
	Status        GameStatus `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
}

// IsApproved reports whether the game passed moderation.
func (g *Game) IsApproved() bool {
	return g.Status == StatusApproved
}

// RatedGame is a game joined with its rating aggregate for the
// best-rated listing.
type RatedGame struct {
	Game
	AverageRating float64 `json:"average_rating"`
	RatingCount   int64   `json:"rating_count"`
}
