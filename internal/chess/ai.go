package chess

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"
)

// RandSource supplies uniform values in [0,1). *rand.Rand satisfies it.
type RandSource interface {
	Float64() float64
}

// PieceValues weights captures in tactical scoring.
var PieceValues = map[PieceType]float64{
	Pawn:   1,
	Knight: 3,
	Bishop: 3,
	Rook:   5,
	Queen:  9,
	King:   100,
}

// MoveChoice is the selector's answer.
type MoveChoice struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// ScoredMove is a candidate together with its heuristic score.
type ScoredMove struct {
	CandidateMove
	Score float64
}

// Selector picks moves for the computer side. It is safe for concurrent use.
// Each selector owns its preset table.
type Selector struct {
	mu      sync.Mutex
	src     RandSource
	presets map[Difficulty]DifficultyPreset
}

// NewSelector returns a selector drawing from src. A nil src seeds a private
// generator from the clock.
func NewSelector(src RandSource) *Selector {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Selector{src: src, presets: copyPresets(DefaultPresets)}
}

// Preset returns this selector's preset for name.
func (s *Selector) Preset(name Difficulty) (DifficultyPreset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lookupPreset(s.presets, name)
}

// SetDifficultyFactor overrides the factor of one of this selector's presets.
// Tactical scoring follows the new factor. Other selectors are unaffected.
func (s *Selector) SetDifficultyFactor(name Difficulty, factor float64) error {
	name = canonicalDifficulty(name)
	p := DifficultyPreset{Name: name, Factor: factor, Tactical: factor > tacticalThreshold}
	if err := ValidatePreset(p); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.presets[name]; !ok {
		return fmt.Errorf("unknown difficulty: %q", name)
	}
	s.presets[name] = p
	return nil
}

// SetRandomSeed replaces the random source with a seeded generator.
func (s *Selector) SetRandomSeed(seed int64) {
	s.mu.Lock()
	s.src = rand.New(rand.NewSource(seed))
	s.mu.Unlock()
}

// Select returns the computer's move. It reports false when it is not the
// computer's turn (black in an AI game), when the game has no difficulty, or
// when black has no pseudo-legal move.
func (s *Selector) Select(state *GameState) (MoveChoice, bool) {
	if state == nil || state.CurrentTurn != Black || state.Options.Type != GameAI {
		return MoveChoice{}, false
	}
	if state.Options.Difficulty == "" {
		return MoveChoice{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	preset, err := lookupPreset(s.presets, state.Options.Difficulty)
	if err != nil {
		return MoveChoice{}, false
	}

	ranked := rankCandidates(&state.Board, state.CurrentTurn, preset, s.src)
	if len(ranked) == 0 {
		return MoveChoice{}, false
	}
	idx := pickIndex(len(ranked), preset.Factor, s.src)
	best := ranked[idx]
	return MoveChoice{From: best.From, To: best.To}, true
}

// rankCandidates scores every candidate and sorts by descending score. One
// random draw is consumed per candidate in board-scan order.
func rankCandidates(b *Board, color Color, preset DifficultyPreset, src RandSource) []ScoredMove {
	cands := Candidates(b, color)
	scored := make([]ScoredMove, 0, len(cands))
	for _, c := range cands {
		score := src.Float64()
		if preset.Tactical {
			score += tacticalScore(b, c)
		}
		scored = append(scored, ScoredMove{CandidateMove: c, Score: score})
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].Score > scored[j].Score })
	return scored
}

func tacticalScore(b *Board, c CandidateMove) float64 {
	score := 0.0
	if target := b.piece(c.To.X, c.To.Y); target != nil {
		score += PieceValues[target.Type] * 2
	}
	switch b.piece(c.From.X, c.From.Y).Type {
	case Pawn, Knight, Bishop:
		dx := math.Abs(float64(c.To.X) - 3.5)
		dy := math.Abs(float64(c.To.Y) - 3.5)
		score += (4 - (dx + dy)) * 0.2
	}
	return score
}

func pickIndex(count int, factor float64, src RandSource) int {
	idx := int(math.Floor(src.Float64() * float64(count) * (1 - factor)))
	if idx > count-1 {
		idx = count - 1
	}
	if idx < 0 {
		idx = 0
	}
	return idx
}
