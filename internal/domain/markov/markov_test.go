package markov

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-markov-bot/internal/domain"
	"telegram-markov-bot/internal/domain/model"
)

type zeroSource struct{}

func (zeroSource) IntN(int) int { return 0 }

func seeded(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

var chatCorpus = []string{
	"я сегодня иду в кино с друзьями",
	"сегодня вечером иду гулять по парку",
	"в кино показывают новый фильм про космос",
	"друзья зовут гулять по набережной вечером",
	"новый фильм про космос очень длинный",
	"иду домой",
	"очень длинный день",
	"привет всем",
	"всем привет",
}

func TestBuildModel(t *testing.T) {
	t.Run("start tokens and successors keep multiplicity", func(t *testing.T) {
		m := BuildModel([]string{"привет мир", "привет снова"})
		assert.Equal(t, []string{"привет", "привет"}, m.StartTokens())
		assert.ElementsMatch(t, []string{"мир", "снова"}, m.Successors("привет"))
		assert.Equal(t, 1, m.Ends("мир"))
		assert.Equal(t, 1, m.Ends("снова"))
	})

	t.Run("duplicates increase weight", func(t *testing.T) {
		m := BuildModel([]string{"a b", "a b", "a c"})
		assert.Equal(t, []string{"b", "b", "c"}, m.Successors("a"))
		assert.Len(t, m.StartTokens(), 3)
	})

	t.Run("blank samples are skipped", func(t *testing.T) {
		m := BuildModel([]string{"", "   ", "\t"})
		assert.True(t, m.Empty())
	})

	t.Run("sentinels never leak as tokens", func(t *testing.T) {
		m := BuildModel([]string{"<start> <end>", "START END"})
		assert.Equal(t, []string{"<start>", "START"}, m.StartTokens())
		assert.Equal(t, []string{"<end>"}, m.Successors("<start>"))
	})
}

func TestGenerateEmptyCorpus(t *testing.T) {
	g := NewGenerator(seeded(1))
	for _, n := range []int{-1, 0, 1, 300} {
		res, err := g.Generate(nil, n, model.GenSizeAny)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Zero(t, res.Attempts)
	}

	res, err := g.Generate([]string{" ", ""}, 10, model.GenSizeAny)
	require.NoError(t, err)
	assert.False(t, res.OK)
}

func TestGenerateInvalidSize(t *testing.T) {
	g := NewGenerator(seeded(1))
	for _, size := range []model.GenSize{-1, 4, 42} {
		_, err := g.Generate(chatCorpus, 10, size)
		require.ErrorIs(t, err, domain.ErrInvalidArgument)
	}
}

func TestGenerateNovelty(t *testing.T) {
	t.Run("only known sentences possible", func(t *testing.T) {
		g := NewGenerator(seeded(7))
		res, err := g.Generate([]string{"a b", "a b"}, 50, model.GenSizeAny)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, 50, res.Attempts)
	})

	t.Run("results never repeat the corpus", func(t *testing.T) {
		known := map[string]bool{}
		for _, s := range chatCorpus {
			known[s] = true
		}
		for seed := uint64(0); seed < 200; seed++ {
			res, err := NewGenerator(seeded(seed)).Generate(chatCorpus, 300, model.GenSizeAny)
			require.NoError(t, err)
			if res.OK {
				assert.False(t, known[res.Text], "generated a corpus line: %q", res.Text)
			}
		}
	})
}

func TestGenerateSizeClasses(t *testing.T) {
	bounds := map[model.GenSize][2]int{
		model.GenSizeAny:    {1, 100},
		model.GenSizeSmall:  {2, 3},
		model.GenSizeMedium: {4, 7},
		model.GenSizeLarge:  {8, 100},
	}
	for size, b := range bounds {
		t.Run(size.String(), func(t *testing.T) {
			hits := 0
			for seed := uint64(0); seed < 100; seed++ {
				res, err := NewGenerator(seeded(seed)).Generate(chatCorpus, 300, size)
				require.NoError(t, err)
				if !res.OK {
					continue
				}
				hits++
				n := len(strings.Fields(res.Text))
				assert.GreaterOrEqual(t, n, b[0])
				assert.LessOrEqual(t, n, b[1])
				assert.Equal(t, strings.Join(strings.Fields(res.Text), " "), res.Text)
			}
			assert.Positive(t, hits, "expected at least one success for %s", size)
		})
	}
}

func TestGenerateWalkCap(t *testing.T) {
	// "a" follows itself first, and zeroSource always takes the first successor.
	g := NewGenerator(zeroSource{})
	res, err := g.Generate([]string{"a a"}, 5, model.GenSizeAny)
	require.NoError(t, err)
	assert.False(t, res.OK)
	assert.Equal(t, 5, res.Attempts)
}

// loopThenEnd walks "a" -> "a" for loops steps and then takes END.
// Over the corpus {"a a"} the successors of "a" are [a, END].
type loopThenEnd struct{ loops, nexts int }

func (s *loopThenEnd) IntN(n int) int {
	if n == 1 {
		return 0
	}
	s.nexts++
	if s.nexts > s.loops {
		return n - 1
	}
	return 0
}

func TestGenerateWalkLimitBoundary(t *testing.T) {
	t.Run("walk of exactly the limit succeeds", func(t *testing.T) {
		g := NewGenerator(&loopThenEnd{loops: MaxWalkTokens - 1})
		res, err := g.Generate([]string{"a a"}, 1, model.GenSizeAny)
		require.NoError(t, err)
		require.True(t, res.OK)
		assert.Len(t, strings.Fields(res.Text), MaxWalkTokens)
	})

	t.Run("walk needing one more token fails", func(t *testing.T) {
		g := NewGenerator(&loopThenEnd{loops: MaxWalkTokens})
		res, err := g.Generate([]string{"a a"}, 1, model.GenSizeAny)
		require.NoError(t, err)
		assert.False(t, res.OK)
		assert.Equal(t, 1, res.Attempts)
	})
}

func TestGenerateDeterministicWithSeed(t *testing.T) {
	a, err := NewGenerator(seeded(42)).Generate(chatCorpus, 300, model.GenSizeMedium)
	require.NoError(t, err)
	b, err := NewGenerator(seeded(42)).Generate(chatCorpus, 300, model.GenSizeMedium)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateDefaultSource(t *testing.T) {
	res, err := NewGenerator(nil).Generate([]string{"раз два", "два три"}, 100, model.GenSizeAny)
	require.NoError(t, err)
	if res.OK {
		assert.NotContains(t, []string{"раз два", "два три"}, res.Text)
	}
}
