package chess

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestApplyMoveRoundTrip(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})
	from, to := Position{X: 4, Y: 6}, Position{X: 4, Y: 4}

	next, err := ApplyMove(state, from, to)
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}

	if next.Board[from.Y][from.X].Piece != nil {
		t.Error("origin still occupied")
	}
	p := next.Board[to.Y][to.X].Piece
	if p == nil || p.Type != Pawn || p.Color != White || !p.HasMoved {
		t.Errorf("destination = %+v; want moved white pawn", p)
	}
	if next.CurrentTurn != Black {
		t.Errorf("turn = %s; want black", next.CurrentTurn)
	}
	last, ok := next.LastMove()
	if !ok {
		t.Fatal("no move recorded")
	}
	if last.From != from || last.To != to || last.Notation != "e4" {
		t.Errorf("recorded move = %+v", last)
	}
	if last.IsCheck || last.IsCheckmate || last.IsCastling || last.IsPromotion || last.IsEnPassant {
		t.Errorf("special flags set on %+v", last)
	}

	// input untouched
	if state.Board[from.Y][from.X].Piece == nil || len(state.Moves) != 0 || state.CurrentTurn != White {
		t.Error("ApplyMove mutated its input")
	}
}

func TestApplyMoveCapture(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})
	state.Board = boardWith(t, map[Position]Piece{
		{X: 2, Y: 7}: {Type: Bishop, Color: White},
		{X: 5, Y: 4}: {Type: Knight, Color: Black},
		{X: 4, Y: 0}: {Type: King, Color: Black},
	})
	next, err := ApplyMove(state, Position{X: 2, Y: 7}, Position{X: 5, Y: 4})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	white, black := next.Board.CountPieces()
	if white != 1 || black != 1 {
		t.Errorf("counts = %d, %d; want 1, 1", white, black)
	}
	last, _ := next.LastMove()
	want := &Piece{Type: Knight, Color: Black}
	if diff := cmp.Diff(want, last.CapturedPiece); diff != "" {
		t.Errorf("captured piece mismatch (-want +got):\n%s", diff)
	}
	if last.Notation != "Bxf4" {
		t.Errorf("notation = %q; want Bxf4", last.Notation)
	}
}

func TestApplyMoveClockIncrement(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal, Time: &GameTime{Minutes: 5, Increment: 3}})
	if state.WhiteTimeMs != 300000 || state.BlackTimeMs != 300000 {
		t.Fatalf("clocks = %d/%d; want 300000", state.WhiteTimeMs, state.BlackTimeMs)
	}

	s1, err := ApplyMove(state, Position{X: 4, Y: 6}, Position{X: 4, Y: 4})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if s1.WhiteTimeMs != 303000 || s1.BlackTimeMs != 300000 {
		t.Errorf("after white: %d/%d; want 303000/300000", s1.WhiteTimeMs, s1.BlackTimeMs)
	}

	s2, err := ApplyMove(s1, Position{X: 4, Y: 1}, Position{X: 4, Y: 3})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if s2.WhiteTimeMs != 303000 || s2.BlackTimeMs != 303000 {
		t.Errorf("after black: %d/%d; want 303000/303000", s2.WhiteTimeMs, s2.BlackTimeMs)
	}
}

func TestApplyMoveWithoutTimeControl(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})
	next, err := ApplyMove(state, Position{X: 6, Y: 7}, Position{X: 5, Y: 5})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if next.WhiteTimeMs != state.WhiteTimeMs || next.BlackTimeMs != state.BlackTimeMs {
		t.Error("clocks changed without a time control")
	}
	if last, _ := next.LastMove(); last.Notation != "Kf3" {
		t.Errorf("knight notation = %q; want Kf3", last.Notation)
	}
}

func TestApplyMoveEmptyOriginIsNoop(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})
	before := state.Clone()

	next, err := ApplyMove(state, Position{X: 3, Y: 3}, Position{X: 3, Y: 2})
	if err != nil {
		t.Fatalf("ApplyMove: %v", err)
	}
	if next != state {
		t.Error("expected the same state back")
	}
	if diff := cmp.Diff(before, next); diff != "" {
		t.Errorf("state changed (-before +after):\n%s", diff)
	}
}

func TestApplyMoveOutOfBounds(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})
	if _, err := ApplyMove(state, Position{X: 8, Y: 0}, Position{X: 0, Y: 0}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("from off-board: err = %v", err)
	}
	if _, err := ApplyMove(state, Position{X: 0, Y: 6}, Position{X: 0, Y: -1}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("to off-board: err = %v", err)
	}
}

func TestApplyMoveClearsAnnotations(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})
	hl, err := Highlight(&state.Board, Position{X: 4, Y: 6})
	if err != nil {
		t.Fatal(err)
	}
	state.Board = hl
	next, err := ApplyMove(state, Position{X: 4, Y: 6}, Position{X: 4, Y: 5})
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			if next.Board[y][x].IsSelected || next.Board[y][x].IsValidMove {
				t.Fatalf("annotation left on %s", next.Board[y][x].Position)
			}
		}
	}
}

func TestApplyMoveStrict(t *testing.T) {
	state := NewGame(GameOptions{Type: GameLocal})

	if _, err := ApplyMoveStrict(state, Position{X: 4, Y: 6}, Position{X: 4, Y: 3}); !errors.Is(err, ErrIllegalMove) {
		t.Errorf("triple pawn push: err = %v; want ErrIllegalMove", err)
	}
	if _, err := ApplyMoveStrict(state, Position{X: 4, Y: 4}, Position{X: 4, Y: 3}); !errors.Is(err, ErrEmptySquare) {
		t.Errorf("empty origin: err = %v; want ErrEmptySquare", err)
	}
	if _, err := ApplyMoveStrict(state, Position{X: 4, Y: 6}, Position{X: 4, Y: 9}); !errors.Is(err, ErrOutOfBounds) {
		t.Errorf("off-board: err = %v; want ErrOutOfBounds", err)
	}
	next, err := ApplyMoveStrict(state, Position{X: 1, Y: 7}, Position{X: 2, Y: 5})
	if err != nil {
		t.Fatalf("legal knight move: %v", err)
	}
	if len(next.Moves) != 1 {
		t.Errorf("moves = %d; want 1", len(next.Moves))
	}
}
