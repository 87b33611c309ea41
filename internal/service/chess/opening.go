package chess

import (
	"sync"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	corechess "github.com/park285/chesspal/internal/chess"
)

// OpeningLabel is the ECO classification of a move sequence.
type OpeningLabel struct {
	Code  string `json:"code,omitempty"`
	Title string `json:"title,omitempty"`
}

var ecoBook = sync.OnceValue(opening.NewBookECO)

// LabelOpening replays moves through the reference rules and looks the line up
// in the ECO book. Replay stops at the first move the reference rules reject,
// so the label describes the longest standard prefix.
func LabelOpening(moves []corechess.Move) OpeningLabel {
	game := nchess.NewGame()
	uci := nchess.UCINotation{}
	for _, mv := range moves {
		decoded, err := uci.Decode(game.Position(), mv.UCI())
		if err != nil {
			break
		}
		if err := game.Move(decoded, nil); err != nil {
			break
		}
	}
	if len(game.Moves()) == 0 {
		return OpeningLabel{}
	}
	book := ecoBook()
	if book == nil {
		return OpeningLabel{}
	}
	if eco := book.Find(game.Moves()); eco != nil {
		return OpeningLabel{Code: eco.Code(), Title: eco.Title()}
	}
	return OpeningLabel{}
}
