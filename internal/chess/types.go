package chess

import (
	"fmt"
	"strings"
	"time"
)

// BoardSize is the number of files and ranks on the board.
const BoardSize = 8

// Color identifies a side.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

func (c Color) Valid() bool { return c == White || c == Black }

type PieceType string

const (
	Pawn   PieceType = "pawn"
	Knight PieceType = "knight"
	Bishop PieceType = "bishop"
	Rook   PieceType = "rook"
	Queen  PieceType = "queen"
	King   PieceType = "king"
)

// Piece is a single chessman. HasMoved is set once the piece completes a move.
type Piece struct {
	Type     PieceType `json:"type"`
	Color    Color     `json:"color"`
	HasMoved bool      `json:"hasMoved,omitempty"`
}

func (p *Piece) clone() *Piece {
	if p == nil {
		return nil
	}
	cp := *p
	return &cp
}

// Position is a (file, rank) pair. Rank 0 is Black's back rank.
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

func (p Position) Valid() bool {
	return p.X >= 0 && p.X < BoardSize && p.Y >= 0 && p.Y < BoardSize
}

// String renders the square in algebraic form, e.g. {4,6} -> "e2".
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	return string(rune('a'+p.X)) + string(rune('8'-p.Y))
}

// ParseSquare parses an algebraic square such as "e2".
func ParseSquare(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Position{}, fmt.Errorf("parse square %q: %w", s, ErrOutOfBounds)
	}
	pos := Position{X: int(s[0] - 'a'), Y: int('8' - s[1])}
	if !pos.Valid() {
		return Position{}, fmt.Errorf("parse square %q: %w", s, ErrOutOfBounds)
	}
	return pos, nil
}

// Square is one cell of the board. IsSelected and IsValidMove are display
// annotations only.
type Square struct {
	Position    Position `json:"position"`
	Piece       *Piece   `json:"piece"`
	IsSelected  bool     `json:"isSelected"`
	IsValidMove bool     `json:"isValidMove"`
}

// Board is indexed [rank][file].
type Board [BoardSize][BoardSize]Square

// Clone returns a deep copy; pieces are not shared with the receiver.
func (b *Board) Clone() Board {
	var out Board
	for y := 0; y < BoardSize; y++ {
		for x := 0; x < BoardSize; x++ {
			sq := b[y][x]
			sq.Piece = sq.Piece.clone()
			out[y][x] = sq
		}
	}
	return out
}

// At returns the piece on pos, or nil for an empty square.
func (b *Board) At(pos Position) (*Piece, error) {
	if !pos.Valid() {
		return nil, fmt.Errorf("square %s: %w", pos, ErrOutOfBounds)
	}
	return b[pos.Y][pos.X].Piece, nil
}

func (b *Board) piece(x, y int) *Piece { return b[y][x].Piece }

// Move is an immutable record of an executed move. The check/castling/promotion
// flags are part of the persisted schema and are currently never set.
type Move struct {
	From          Position `json:"from"`
	To            Position `json:"to"`
	Piece         Piece    `json:"piece"`
	CapturedPiece *Piece   `json:"capturedPiece,omitempty"`
	IsCheck       bool     `json:"isCheck"`
	IsCheckmate   bool     `json:"isCheckmate"`
	IsPromotion   bool     `json:"isPromotion"`
	IsCastling    bool     `json:"isCastling"`
	IsEnPassant   bool     `json:"isEnPassant"`
	Notation      string   `json:"notation"`
}

// UCI renders the move in coordinate form, e.g. "e2e4".
func (m Move) UCI() string { return m.From.String() + m.To.String() }

type GameType string

const (
	GameLocal  GameType = "local"
	GameAI     GameType = "ai"
	GameOnline GameType = "online"
)

func (t GameType) Valid() bool { return t == GameLocal || t == GameAI || t == GameOnline }

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// GameTime is a time control. Increment is in seconds.
type GameTime struct {
	Minutes   int `json:"minutes"`
	Increment int `json:"increment"`
}

// GameOptions is fixed at game creation. Empty Difficulty/PlayerColor and a
// nil Time mean "absent".
type GameOptions struct {
	Type        GameType   `json:"type"`
	Difficulty  Difficulty `json:"difficulty,omitempty"`
	Time        *GameTime  `json:"time,omitempty"`
	PlayerColor Color      `json:"playerColor,omitempty"`
}

type GameStatus string

const (
	StatusWaiting   GameStatus = "waiting"
	StatusActive    GameStatus = "active"
	StatusCheck     GameStatus = "check"
	StatusCheckmate GameStatus = "checkmate"
	StatusStalemate GameStatus = "stalemate"
	StatusDraw      GameStatus = "draw"
)

// Terminal reports whether no further moves may be played.
func (s GameStatus) Terminal() bool {
	return s == StatusCheckmate || s == StatusStalemate || s == StatusDraw
}

// GameState is the unit of persistence. Clock values are milliseconds.
type GameState struct {
	Board       Board       `json:"board"`
	Moves       []Move      `json:"moves"`
	CurrentTurn Color       `json:"currentTurn"`
	Status      GameStatus  `json:"status"`
	Check       bool        `json:"check"`
	Options     GameOptions `json:"options"`
	WhiteTimeMs int64       `json:"whiteTime"`
	BlackTimeMs int64       `json:"blackTime"`
	JoinedAt    *time.Time  `json:"joinedAt,omitempty"`
	LastUpdated *time.Time  `json:"lastUpdated,omitempty"`
}

// Clone deep-copies the state so the result shares nothing mutable with s.
func (s *GameState) Clone() *GameState {
	if s == nil {
		return nil
	}
	out := *s
	out.Board = s.Board.Clone()
	out.Moves = make([]Move, len(s.Moves))
	for i, mv := range s.Moves {
		mv.CapturedPiece = mv.CapturedPiece.clone()
		out.Moves[i] = mv
	}
	if s.Options.Time != nil {
		t := *s.Options.Time
		out.Options.Time = &t
	}
	if s.JoinedAt != nil {
		t := *s.JoinedAt
		out.JoinedAt = &t
	}
	if s.LastUpdated != nil {
		t := *s.LastUpdated
		out.LastUpdated = &t
	}
	return &out
}

// LastMove returns the most recent move, if any.
func (s *GameState) LastMove() (Move, bool) {
	if s == nil || len(s.Moves) == 0 {
		return Move{}, false
	}
	return s.Moves[len(s.Moves)-1], true
}
