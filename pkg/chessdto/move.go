package chessdto

import "github.com/park285/chesspal/internal/chess"

// DestinationsResponse carries the highlighted board for a selection.
type DestinationsResponse struct {
	Square       string      `json:"square"`
	Destinations []string    `json:"destinations"`
	Board        chess.Board `json:"board"`
}

type PGNResponse struct {
	ID  string `json:"id"`
	PGN string `json:"pgn"`
}
