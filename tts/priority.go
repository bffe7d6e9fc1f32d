package tts

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is a symbolic priority.
type Level string

const (
	LevelCritical Level = "critical"
	LevelHigh     Level = "high"
	LevelNormal   Level = "normal"
	LevelLow      Level = "low"
)

// DefaultPriorityScores maps each level to its score.
var DefaultPriorityScores = map[Level]int{
	LevelCritical: 300,
	LevelHigh:     200,
	LevelNormal:   100,
	LevelLow:      0,
}

// Priority is either a symbolic level or a raw score. The zero value is unset
// and resolves to the normal level.
type Priority struct {
	level    Level
	score    int
	hasScore bool
}

// PriorityLevel returns a priority for the given level.
func PriorityLevel(l Level) Priority {
	return Priority{level: l}
}

// PriorityScore returns a priority that resolves to n unchanged.
func PriorityScore(n int) Priority {
	return Priority{score: n, hasScore: true}
}

// ParsePriority accepts a level name or an integer score.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return Priority{}, nil
	}
	if _, ok := DefaultPriorityScores[Level(s)]; ok {
		return PriorityLevel(Level(s)), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Priority{}, fmt.Errorf("invalid priority %q: want critical, high, normal, low or an integer", s)
	}
	return PriorityScore(n), nil
}

// IsSet reports whether p carries a level or a score.
func (p Priority) IsSet() bool {
	return p.hasScore || p.level != ""
}

// String returns the level name or the score.
func (p Priority) String() string {
	if p.hasScore {
		return strconv.Itoa(p.score)
	}
	if p.level == "" {
		return string(LevelNormal)
	}
	return string(p.level)
}

// PriorityResolver maps priorities to numeric scores.
type PriorityResolver struct {
	scores map[Level]int
}

// NewPriorityResolver returns a resolver using the default scores with the
// given per-level overrides applied.
func NewPriorityResolver(overrides map[Level]int) PriorityResolver {
	scores := make(map[Level]int, len(DefaultPriorityScores))
	for l, s := range DefaultPriorityScores {
		scores[l] = s
	}
	for l, s := range overrides {
		scores[l] = s
	}
	return PriorityResolver{scores: scores}
}

// Resolve returns the numeric score for p. Unknown levels resolve like an unset priority.
func (r PriorityResolver) Resolve(p Priority) int {
	if p.hasScore {
		return p.score
	}
	scores := r.scores
	if scores == nil {
		scores = DefaultPriorityScores
	}
	if s, ok := scores[p.level]; ok {
		return s
	}
	return scores[LevelNormal]
}

// ResolvePriority resolves p against the default scores.
func ResolvePriority(p Priority) int {
	return PriorityResolver{}.Resolve(p)
}
