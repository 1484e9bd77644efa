// Package markov builds word-transition tables from a chat corpus and samples
// new fragments from them.
package markov

import "strings"

// Sentinels contain whitespace, so strings.Fields can never yield them as tokens.
const (
	startToken = " <start> "
	endToken   = " <end> "
)

// Model is a frequency-weighted transition table. Successor lists keep one entry per
// observed occurrence, so duplicates raise a token's chance of being drawn.
type Model struct {
	successors map[string][]string
	starts     []string
}

// BuildModel frames every sample as START w1 .. wk END and records each adjacent pair.
// Samples without tokens are skipped.
func BuildModel(samples []string) *Model {
	m := &Model{successors: make(map[string][]string)}
	for _, sample := range samples {
		words := strings.Fields(sample)
		if len(words) == 0 {
			continue
		}
		cur := startToken
		for _, w := range words {
			m.add(cur, w)
			cur = w
		}
		m.add(cur, endToken)
	}
	return m
}

func (m *Model) add(cur, next string) {
	m.successors[cur] = append(m.successors[cur], next)
	if cur == startToken {
		m.starts = append(m.starts, next)
	}
}

// StartTokens returns the multiset of tokens that open a sample.
func (m *Model) StartTokens() []string {
	return m.starts
}

// Successors returns the tokens observed right after token, END excluded.
func (m *Model) Successors(token string) []string {
	var out []string
	for _, s := range m.successors[token] {
		if s != endToken {
			out = append(out, s)
		}
	}
	return out
}

// Ends reports how many times token closed a sample.
func (m *Model) Ends(token string) int {
	n := 0
	for _, s := range m.successors[token] {
		if s == endToken {
			n++
		}
	}
	return n
}

// Empty reports whether no walk can start.
func (m *Model) Empty() bool {
	return len(m.starts) == 0
}

// next draws a weighted successor; tokens without successors end the walk.
func (m *Model) next(src Source, token string) string {
	succ := m.successors[token]
	if len(succ) == 0 {
		return endToken
	}
	return succ[src.IntN(len(succ))]
}
