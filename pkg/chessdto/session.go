package chessdto

import (
	"time"

	"github.com/park285/chesspal/internal/chess"
)

type Opening struct {
	Code  string `json:"code,omitempty"`
	Title string `json:"title,omitempty"`
}

// GameResponse is the full view of one game.
type GameResponse struct {
	ID       string           `json:"id"`
	State    *chess.GameState `json:"state"`
	FEN      string           `json:"fen"`
	Opening  *Opening         `json:"opening,omitempty"`
	ShareURL string           `json:"shareUrl,omitempty"`
}

// GameSummary is a list entry.
type GameSummary struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	Status      string     `json:"status"`
	CurrentTurn string     `json:"currentTurn"`
	Moves       int        `json:"moves"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty"`
}

type ListGamesResponse struct {
	Games []GameSummary `json:"games"`
}
