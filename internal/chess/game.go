package chess

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultClockMinutes applies when a game has no time control.
const DefaultClockMinutes = 10

// NewGame creates the initial state for opts.
func NewGame(opts GameOptions) *GameState {
	minutes := DefaultClockMinutes
	if opts.Time != nil {
		minutes = opts.Time.Minutes
		t := *opts.Time
		opts.Time = &t
	}
	clock := int64(minutes) * 60 * 1000

	status := StatusActive
	if opts.Type == GameOnline && opts.PlayerColor == Black {
		status = StatusWaiting
	}
	return &GameState{
		Board:       NewBoard(),
		Moves:       []Move{},
		CurrentTurn: White,
		Status:      status,
		Options:     opts,
		WhiteTimeMs: clock,
		BlackTimeMs: clock,
	}
}

// Undo removes the last move. The board is rebuilt by replaying the remaining
// moves from the initial position, the turn flips back and the game becomes
// active again. Clocks are not rewound.
func Undo(state *GameState) (*GameState, error) {
	if len(state.Moves) == 0 {
		return nil, ErrNothingToUndo
	}
	kept := state.Moves[:len(state.Moves)-1]

	board := NewBoard()
	for i, mv := range kept {
		src := &board[mv.From.Y][mv.From.X]
		if src.Piece == nil {
			return nil, fmt.Errorf("replay move %d (%s): %w", i+1, mv.UCI(), ErrEmptySquare)
		}
		moved := *src.Piece
		moved.HasMoved = true
		board[mv.To.Y][mv.To.X].Piece = &moved
		src.Piece = nil
	}

	next := state.Clone()
	next.Board = board
	next.Moves = next.Moves[:len(kept)]
	next.CurrentTurn = state.CurrentTurn.Opponent()
	next.Status = StatusActive
	next.Check = false
	return next, nil
}

// Finish forces a terminal status (resignation, agreed draw, flag fall).
func Finish(state *GameState, status GameStatus) *GameState {
	next := state.Clone()
	next.Status = status
	return next
}

var fenLetters = map[PieceType]byte{
	Pawn: 'p', Knight: 'n', Bishop: 'b', Rook: 'r', Queen: 'q', King: 'k',
}

// FEN renders the position in Forsyth-Edwards notation. Castling and en
// passant fields are always "-".
func FEN(state *GameState) string {
	var b strings.Builder
	for y := 0; y < BoardSize; y++ {
		empty := 0
		for x := 0; x < BoardSize; x++ {
			p := state.Board.piece(x, y)
			if p == nil {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			ch := fenLetters[p.Type]
			if p.Color == White {
				ch -= 'a' - 'A'
			}
			b.WriteByte(ch)
		}
		if empty > 0 {
			b.WriteString(strconv.Itoa(empty))
		}
		if y < BoardSize-1 {
			b.WriteByte('/')
		}
	}
	turn := "w"
	if state.CurrentTurn == Black {
		turn = "b"
	}
	fullmove := len(state.Moves)/2 + 1
	fmt.Fprintf(&b, " %s - - 0 %d", turn, fullmove)
	return b.String()
}
