package domain

import "time"

// MaxHistory caps the number of history entries kept per profile.
const MaxHistory = 50

const DefaultPlayerName = "Player"

type GameResult string

const (
	ResultWin  GameResult = "win"
	ResultLoss GameResult = "loss"
	ResultDraw GameResult = "draw"
)

// GameHistoryEntry is one finished game from the player's point of view.
type GameHistoryEntry struct {
	GameID      string     `json:"gameId"`
	Opponent    string     `json:"opponent"`
	PlayerColor string     `json:"playerColor"`
	Result      GameResult `json:"result"`
	Date        time.Time  `json:"date"`
	Moves       int        `json:"moves"`
	ECOCode     string     `json:"ecoCode,omitempty"`
	ECOTitle    string     `json:"ecoTitle,omitempty"`
	PGN         string     `json:"pgn,omitempty"`
}

type PlayerProfile struct {
	PlayerID    string             `json:"playerId"`
	Name        string             `json:"name"`
	GamesPlayed int                `json:"gamesPlayed"`
	Wins        int                `json:"wins"`
	Losses      int                `json:"losses"`
	Draws       int                `json:"draws"`
	History     []GameHistoryEntry `json:"history"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// NewProfile returns the zero profile handed out for unknown players.
func NewProfile(playerID string) *PlayerProfile {
	return &PlayerProfile{
		PlayerID: playerID,
		Name:     DefaultPlayerName,
		History:  []GameHistoryEntry{},
	}
}

// Record counts the result and prepends the entry, keeping at most
// MaxHistory entries newest first.
func (p *PlayerProfile) Record(entry GameHistoryEntry) {
	p.GamesPlayed++
	switch entry.Result {
	case ResultWin:
		p.Wins++
	case ResultLoss:
		p.Losses++
	default:
		p.Draws++
	}
	history := make([]GameHistoryEntry, 0, len(p.History)+1)
	history = append(history, entry)
	history = append(history, p.History...)
	if len(history) > MaxHistory {
		history = history[:MaxHistory]
	}
	p.History = history
}
