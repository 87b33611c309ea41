package chessdto

import "time"

type ProfileResponse struct {
	PlayerID    string         `json:"playerId"`
	Name        string         `json:"name"`
	GamesPlayed int            `json:"gamesPlayed"`
	Wins        int            `json:"wins"`
	Losses      int            `json:"losses"`
	Draws       int            `json:"draws"`
	History     []HistoryEntry `json:"history"`
	UpdatedAt   *time.Time     `json:"updatedAt,omitempty"`
}
