package chess

import "fmt"

type offset struct{ dx, dy int }

var (
	knightOffsets = []offset{
		{1, 2}, {2, 1}, {2, -1}, {1, -2},
		{-1, -2}, {-2, -1}, {-2, 1}, {-1, 2},
	}
	bishopRays = []offset{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookRays   = []offset{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	queenRays  = append(append([]offset{}, rookRays...), bishopRays...)
	kingSteps  = queenRays
)

// PseudoLegalMoves lists the destinations reachable from origin by piece
// movement and capture rules alone. King safety is not considered. An empty
// origin yields no moves. Order is deterministic: direction order, then
// distance along a ray.
func PseudoLegalMoves(b *Board, origin Position) ([]Position, error) {
	if !origin.Valid() {
		return nil, fmt.Errorf("origin %s: %w", origin, ErrOutOfBounds)
	}
	return pseudoLegalMoves(b, origin), nil
}

func pseudoLegalMoves(b *Board, origin Position) []Position {
	p := b.piece(origin.X, origin.Y)
	if p == nil {
		return []Position{}
	}
	switch p.Type {
	case Pawn:
		return pawnMoves(b, origin, p.Color)
	case Knight:
		return stepMoves(b, origin, p.Color, knightOffsets)
	case Bishop:
		return rayMoves(b, origin, p.Color, bishopRays)
	case Rook:
		return rayMoves(b, origin, p.Color, rookRays)
	case Queen:
		return rayMoves(b, origin, p.Color, queenRays)
	case King:
		return stepMoves(b, origin, p.Color, kingSteps)
	default:
		return []Position{}
	}
}

func inBounds(x, y int) bool { return x >= 0 && x < BoardSize && y >= 0 && y < BoardSize }

func pawnMoves(b *Board, from Position, c Color) []Position {
	dir, startRank := -1, 6
	if c == Black {
		dir, startRank = 1, 1
	}
	moves := make([]Position, 0, 4)
	x, y := from.X, from.Y
	if one := y + dir; inBounds(x, one) && b.piece(x, one) == nil {
		moves = append(moves, Position{X: x, Y: one})
		if two := y + 2*dir; y == startRank && inBounds(x, two) && b.piece(x, two) == nil {
			moves = append(moves, Position{X: x, Y: two})
		}
	}
	for _, dx := range [2]int{-1, 1} {
		tx, ty := x+dx, y+dir
		if !inBounds(tx, ty) {
			continue
		}
		if t := b.piece(tx, ty); t != nil && t.Color != c {
			moves = append(moves, Position{X: tx, Y: ty})
		}
	}
	return moves
}

func stepMoves(b *Board, from Position, c Color, steps []offset) []Position {
	moves := make([]Position, 0, len(steps))
	for _, s := range steps {
		tx, ty := from.X+s.dx, from.Y+s.dy
		if !inBounds(tx, ty) {
			continue
		}
		if t := b.piece(tx, ty); t == nil || t.Color != c {
			moves = append(moves, Position{X: tx, Y: ty})
		}
	}
	return moves
}

// rayMoves walks each ray until the edge or the first occupied square, which
// is included only when it holds an opposing piece.
func rayMoves(b *Board, from Position, c Color, rays []offset) []Position {
	moves := make([]Position, 0, 14)
	for _, r := range rays {
		for tx, ty := from.X+r.dx, from.Y+r.dy; inBounds(tx, ty); tx, ty = tx+r.dx, ty+r.dy {
			t := b.piece(tx, ty)
			if t == nil {
				moves = append(moves, Position{X: tx, Y: ty})
				continue
			}
			if t.Color != c {
				moves = append(moves, Position{X: tx, Y: ty})
			}
			break
		}
	}
	return moves
}

// CandidateMove is an (origin, destination) pair for the side to move.
type CandidateMove struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Candidates enumerates every pseudo-legal move for color, scanning the board
// rank by rank.
func Candidates(b *Board, color Color) []CandidateMove {
	var out []CandidateMove
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			p := b.piece(x, y)
			if p == nil || p.Color != color {
				continue
			}
			from := Position{X: x, Y: y}
			for _, to := range pseudoLegalMoves(b, from) {
				out = append(out, CandidateMove{From: from, To: to})
			}
		}
	}
	return out
}
