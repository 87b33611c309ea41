package chess

var backRank = [BoardSize]PieceType{Rook, Knight, Bishop, Queen, King, Bishop, Knight, Rook}

// NewBoard returns the standard initial arrangement. Black occupies ranks 0-1,
// White ranks 6-7.
func NewBoard() Board {
	var b Board
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			b[y][x] = Square{Position: Position{X: x, Y: y}}
		}
	}
	for x := 0; x < BoardSize; x++ {
		b[0][x].Piece = &Piece{Type: backRank[x], Color: Black}
		b[1][x].Piece = &Piece{Type: Pawn, Color: Black}
		b[6][x].Piece = &Piece{Type: Pawn, Color: White}
		b[7][x].Piece = &Piece{Type: backRank[x], Color: White}
	}
	return b
}

// EmptyBoard returns a fully populated grid with no pieces.
func EmptyBoard() Board {
	var b Board
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			b[y][x] = Square{Position: Position{X: x, Y: y}}
		}
	}
	return b
}

// Place puts p on pos, replacing whatever was there. Intended for setting up
// positions; moves go through ApplyMove.
func (b *Board) Place(pos Position, p *Piece) error {
	if !pos.Valid() {
		return ErrOutOfBounds
	}
	b[pos.Y][pos.X].Piece = p.clone()
	return nil
}

// CountPieces returns the number of pieces of each color.
func (b *Board) CountPieces() (white, black int) {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			p := b.piece(x, y)
			switch {
			case p == nil:
			case p.Color == White:
				white++
			default:
				black++
			}
		}
	}
	return white, black
}

func (b *Board) clearAnnotations() {
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			b[y][x].IsSelected = false
			b[y][x].IsValidMove = false
		}
	}
}

// Highlight returns a copy of b annotated for a selection of origin: the origin
// square is selected and each pseudo-legal destination is marked. Annotations
// from any previous selection are cleared.
func Highlight(b *Board, origin Position) (Board, error) {
	dests, err := PseudoLegalMoves(b, origin)
	if err != nil {
		return Board{}, err
	}
	out := b.Clone()
	out.clearAnnotations()
	out[origin.Y][origin.X].IsSelected = true
	for _, d := range dests {
		out[d.Y][d.X].IsValidMove = true
	}
	return out, nil
}
