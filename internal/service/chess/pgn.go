package chess

import (
	"fmt"
	"strings"
	"time"

	corechess "github.com/park285/chesspal/internal/chess"
)

const (
	pgnWhiteWins = "1-0"
	pgnBlackWins = "0-1"
	pgnDraw      = "1/2-1/2"
	pgnOngoing   = "*"
)

type pgnHeader struct {
	GameID      string
	White       string
	Black       string
	Date        time.Time
	Result      string
	Termination string
	Opening     OpeningLabel
	TimeControl *corechess.GameTime
}

// buildPGN renders tag pairs and a numbered move list in the engine's own
// notation.
func buildPGN(h pgnHeader, moves []corechess.Move) string {
	var b strings.Builder
	date := h.Date
	if date.IsZero() {
		date = time.Now()
	}
	result := h.Result
	if result == "" {
		result = pgnOngoing
	}

	b.WriteString("[Event \"Chesspal\"]\n")
	fmt.Fprintf(&b, "[Site \"%s\"]\n", sanitizePGN(h.GameID))
	fmt.Fprintf(&b, "[Date \"%04d.%02d.%02d\"]\n", date.Year(), int(date.Month()), date.Day())
	fmt.Fprintf(&b, "[White \"%s\"]\n", sanitizePGN(h.White))
	fmt.Fprintf(&b, "[Black \"%s\"]\n", sanitizePGN(h.Black))
	fmt.Fprintf(&b, "[Result \"%s\"]\n", result)
	if tc := h.TimeControl; tc != nil {
		fmt.Fprintf(&b, "[TimeControl \"%d+%d\"]\n", tc.Minutes*60, tc.Increment)
	}
	if h.Opening.Code != "" {
		fmt.Fprintf(&b, "[ECO \"%s\"]\n", sanitizePGN(h.Opening.Code))
		fmt.Fprintf(&b, "[Opening \"%s\"]\n", sanitizePGN(h.Opening.Title))
	}
	if strings.TrimSpace(h.Termination) != "" {
		fmt.Fprintf(&b, "[Termination \"%s\"]\n", sanitizePGN(strings.ToLower(h.Termination)))
	}
	b.WriteString("\n")

	for i := 0; i < len(moves); i += 2 {
		fmt.Fprintf(&b, "%d. %s ", i/2+1, strings.TrimSpace(moves[i].Notation))
		if i+1 < len(moves) {
			b.WriteString(strings.TrimSpace(moves[i+1].Notation))
			b.WriteString(" ")
		}
	}
	b.WriteString(result)
	return b.String()
}

func pgnResultFor(status corechess.GameStatus, winner corechess.Color) string {
	switch {
	case status == corechess.StatusDraw || status == corechess.StatusStalemate:
		return pgnDraw
	case !status.Terminal():
		return pgnOngoing
	case winner == corechess.White:
		return pgnWhiteWins
	case winner == corechess.Black:
		return pgnBlackWins
	default:
		return pgnOngoing
	}
}

func sanitizePGN(s string) string {
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "\"", "'")
	return strings.TrimSpace(s)
}
