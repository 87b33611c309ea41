package chess

import "fmt"

// ApplyMove executes from->to and returns the next state; state itself is not
// modified.
//
// The caller must only pass a destination previously returned by
// PseudoLegalMoves. ApplyMove does not re-check legality: any destination is
// executed as given. An empty origin returns state unchanged. Check, mate and
// stalemate are not evaluated, so Status is carried over as-is.
func ApplyMove(state *GameState, from, to Position) (*GameState, error) {
	if !from.Valid() {
		return nil, fmt.Errorf("from %s: %w", from, ErrOutOfBounds)
	}
	if !to.Valid() {
		return nil, fmt.Errorf("to %s: %w", to, ErrOutOfBounds)
	}
	if state.Board[from.Y][from.X].Piece == nil {
		return state, nil
	}

	next := state.Clone()
	board := &next.Board
	fromSq, toSq := &board[from.Y][from.X], &board[to.Y][to.X]

	captured := toSq.Piece
	moved := *fromSq.Piece
	moved.HasMoved = true
	toSq.Piece = &moved
	fromSq.Piece = nil
	board.clearAnnotations()

	next.Moves = append(next.Moves, Move{
		From:          from,
		To:            to,
		Piece:         moved,
		CapturedPiece: captured,
		Notation:      Notation(from, to, moved, captured, false, false),
	})

	mover := state.CurrentTurn
	next.CurrentTurn = mover.Opponent()

	// increment goes to the side that just moved
	if tc := state.Options.Time; tc != nil {
		inc := int64(tc.Increment) * 1000
		if mover == White {
			next.WhiteTimeMs += inc
		} else {
			next.BlackTimeMs += inc
		}
	}
	return next, nil
}

// ApplyMoveStrict is ApplyMove with the legality precondition enforced: the
// origin must hold a piece and to must be one of its pseudo-legal
// destinations.
func ApplyMoveStrict(state *GameState, from, to Position) (*GameState, error) {
	dests, err := PseudoLegalMoves(&state.Board, from)
	if err != nil {
		return nil, err
	}
	if !to.Valid() {
		return nil, fmt.Errorf("to %s: %w", to, ErrOutOfBounds)
	}
	if state.Board[from.Y][from.X].Piece == nil {
		return nil, fmt.Errorf("move %s%s: %w", from, to, ErrEmptySquare)
	}
	for _, d := range dests {
		if d == to {
			return ApplyMove(state, from, to)
		}
	}
	return nil, fmt.Errorf("move %s%s: %w", from, to, ErrIllegalMove)
}
