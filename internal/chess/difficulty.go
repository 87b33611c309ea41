package chess

import (
	"fmt"
	"strings"
)

// DifficultyPreset tunes the AI selector.
//
// Factor biases the final draw toward the top of the ranked candidate list:
// the draw spans the best (1-Factor) share of candidates. Tactical enables the
// capture and centralisation terms in the score.
type DifficultyPreset struct {
	Name     Difficulty
	Factor   float64
	Tactical bool
}

// tacticalThreshold is the factor above which tactical scoring kicks in.
const tacticalThreshold = 0.7

// DefaultPresets is the read-only baseline table. Per-selector overrides go
// through Selector.SetDifficultyFactor.
var DefaultPresets = map[Difficulty]DifficultyPreset{
	DifficultyEasy:   {Name: DifficultyEasy, Factor: 0.3},
	DifficultyMedium: {Name: DifficultyMedium, Factor: 0.6},
	DifficultyHard:   {Name: DifficultyHard, Factor: 0.9, Tactical: true},
}

// canonicalDifficulty folds case, whitespace and the
// "beginner"/"intermediate"/"expert" aliases.
func canonicalDifficulty(name Difficulty) Difficulty {
	switch n := Difficulty(strings.ToLower(strings.TrimSpace(string(name)))); n {
	case "beginner", DifficultyEasy:
		return DifficultyEasy
	case "intermediate", DifficultyMedium:
		return DifficultyMedium
	case "expert", DifficultyHard:
		return DifficultyHard
	default:
		return n
	}
}

// GetDifficulty resolves a baseline preset by name or alias.
func GetDifficulty(name Difficulty) (DifficultyPreset, error) {
	return lookupPreset(DefaultPresets, name)
}

func lookupPreset(table map[Difficulty]DifficultyPreset, name Difficulty) (DifficultyPreset, error) {
	p, ok := table[canonicalDifficulty(name)]
	if !ok {
		return DifficultyPreset{}, fmt.Errorf("unknown difficulty: %q", name)
	}
	return p, nil
}

func copyPresets(src map[Difficulty]DifficultyPreset) map[Difficulty]DifficultyPreset {
	out := make(map[Difficulty]DifficultyPreset, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}

func ValidatePreset(p DifficultyPreset) error {
	switch {
	case p.Name == "":
		return fmt.Errorf("preset name required")
	case p.Factor <= 0 || p.Factor > 1:
		return fmt.Errorf("difficulty factor %.2f out of range (0,1]", p.Factor)
	case p.Tactical != (p.Factor > tacticalThreshold):
		return fmt.Errorf("preset %s: tactical scoring must match factor %.2f", p.Name, p.Factor)
	}
	return nil
}
