package chess

import "errors"

var (
	ErrOutOfBounds   = errors.New("position out of bounds")
	ErrEmptySquare   = errors.New("no piece on origin square")
	ErrIllegalMove   = errors.New("destination is not a legal move")
	ErrNothingToUndo = errors.New("no moves to undo")
)
