package search

import (
	"strings"
	"time"

	"github.com/pkg/errors"

	"quarto_go/internal/eval"
)

// Difficulty 难度档位，映射到 (深度上限, 时间预算)
type Difficulty int8

const (
	Easy Difficulty = iota
	Medium
	Hard
	VeryHard
	Impossible
)

var difficultyNames = [...]string{"easy", "medium", "hard", "very-hard", "impossible"}

func (d Difficulty) String() string {
	if d < 0 || int(d) >= len(difficultyNames) {
		return "unknown"
	}
	return difficultyNames[d]
}

// ParseDifficulty 接受 "hard"、"very-hard"、"veryhard"、"very_hard"
func ParseDifficulty(s string) (Difficulty, error) {
	norm := strings.ReplaceAll(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-"), " ", "-")
	for i, name := range difficultyNames {
		if norm == name || norm == strings.ReplaceAll(name, "-", "") {
			return Difficulty(i), nil
		}
	}
	return Easy, errors.Errorf("unknown difficulty %q, want one of %v", s, Difficulties())
}

// Difficulties 全部档位，从易到难
func Difficulties() []Difficulty {
	return []Difficulty{Easy, Medium, Hard, VeryHard, Impossible}
}

// Limits 一次搜索的上限。Budget == 0 表示不限时；深度 1 总会跑完
type Limits struct {
	Depth  int
	Budget time.Duration
}

// Impossible 会搜完整棵剩余博弈树，开局时耗时可能很长，这是已知行为
var defaultLimits = map[Difficulty]Limits{
	Easy:       {Depth: 1, Budget: 250 * time.Millisecond},
	Medium:     {Depth: 2, Budget: time.Second},
	Hard:       {Depth: 4, Budget: 3 * time.Second},
	VeryHard:   {Depth: 8, Budget: 10 * time.Second},
	Impossible: {Depth: eval.MaxPly, Budget: 0},
}

// DefaultLimits 内置的难度表
func DefaultLimits(d Difficulty) Limits {
	if l, ok := defaultLimits[d]; ok {
		return l
	}
	return defaultLimits[Easy]
}
