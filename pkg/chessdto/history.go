package chessdto

import "time"

type HistoryEntry struct {
	GameID      string    `json:"gameId"`
	Opponent    string    `json:"opponent"`
	PlayerColor string    `json:"playerColor"`
	Result      string    `json:"result"`
	Date        time.Time `json:"date"`
	Moves       int       `json:"moves"`
	ECOCode     string    `json:"ecoCode,omitempty"`
	ECOTitle    string    `json:"ecoTitle,omitempty"`
}
