package markov

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
)

// MaxWalkTokens caps a single random walk. Longer walks count as failed attempts.
const MaxWalkTokens = 100

// Source is the randomness used by the generator. *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

type globalSource struct{}

func (globalSource) IntN(n int) int { return rand.IntN(n) }

// Generator samples novel fragments from a corpus by rejection sampling.
type Generator struct {
	src Source
}

// NewGenerator returns a generator drawing from src. A nil src selects the
// process-wide math/rand/v2 source, which is safe for concurrent use; other
// sources are only as safe as their own implementation.
func NewGenerator(src Source) *Generator {
	if src == nil {
		src = globalSource{}
	}
	return &Generator{src: src}
}

// Result describes one Generate call.
type Result struct {
	Text     string
	OK       bool
	Attempts int
}

// Generate makes up to maxAttempts random walks over the corpus transition table and
// returns the first one that is not already in the corpus and fits size.
// An exhausted budget or an empty corpus yields OK == false, not an error.
func (g *Generator) Generate(samples []string, maxAttempts int, size model.GenSize) (Result, error) {
	if !size.Valid() {
		return Result{}, fmt.Errorf("generate: size %d: %w", size, domain.ErrInvalidArgument)
	}
	if len(samples) == 0 {
		return Result{}, nil
	}

	m := BuildModel(samples)
	if m.Empty() {
		return Result{}, nil
	}

	known := make(map[string]struct{}, len(samples))
	for _, s := range samples {
		known[s] = struct{}{}
	}

	var res Result
	for res.Attempts < maxAttempts {
		res.Attempts++
		tokens, ok := g.walk(m)
		if !ok || !size.Accepts(len(tokens)) {
			continue
		}
		text := strings.Join(tokens, " ")
		if _, dup := known[text]; dup {
			continue
		}
		res.Text = text
		res.OK = true
		return res, nil
	}
	return res, nil
}

// walk follows the chain from a random start token until END.
// It reports false when the walk would exceed MaxWalkTokens.
func (g *Generator) walk(m *Model) ([]string, bool) {
	cur := m.starts[g.src.IntN(len(m.starts))]
	tokens := []string{cur}
	for {
		next := m.next(g.src, cur)
		if next == endToken {
			return tokens, true
		}
		if len(tokens) == MaxWalkTokens {
			return nil, false
		}
		tokens = append(tokens, next)
		cur = next
	}
}
