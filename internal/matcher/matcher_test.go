package matcher_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owlmap/internal/matcher"
	"owlmap/internal/terms"
	"owlmap/internal/vocab"
)

func buildIndex(t *testing.T, lines ...string) *vocab.Index {
	t.Helper()
	ix, err := vocab.Build(strings.NewReader(strings.Join(lines, "\n")), vocab.FormatText, "test")
	require.NoError(t, err)
	return ix
}

func TestMatchTiers(t *testing.T) {
	ix := buildIndex(t,
		"Chapter 1", "Senate", "Huns", "Hadrian's Wall",
		"Chapter 2", "empire", "Praetorian Guard",
	)
	m := matcher.New(matcher.Options{})

	tests := []struct {
		name       string
		term       string
		tier       matcher.Tier
		confidence float64
		vocabTerm  string
		chapter    string
	}{
		{"verbatim", "Senate", matcher.TierExact, 1.0, "Senate", "1"},
		{"case differs", "EMPIRE", matcher.TierExact, 1.0, "empire", "2"},
		{"extra whitespace", "  Praetorian   guard ", matcher.TierExact, 1.0, "Praetorian Guard", "2"},
		{"trailing punctuation", "Empire.", matcher.TierNormalized, 0.95, "empire", "2"},
		{"trailing punctuation and case", "SENATE!", matcher.TierNormalized, 0.95, "Senate", "1"},
		{"bracketed", "(Huns)", matcher.TierNormalized, 0.95, "Huns", "1"},
		{"quoted", "\"Huns\"", matcher.TierNormalized, 0.95, "Huns", "1"},
		{"apostrophe dropped", "Hadrians Wall", matcher.TierNormalized, 0.95, "Hadrian's Wall", "1"},
		{"misspelled", "Pretorian Guard", matcher.TierFuzzy, 0.8, "Praetorian Guard", "2"},
		{"unrelated", "Carthage", matcher.TierNone, 0, "", ""},
		{"blank", "   ", matcher.TierNone, 0, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.Match(tt.term, ix)
			assert.Equal(t, tt.tier, got.Tier)
			assert.Equal(t, tt.tier != matcher.TierNone, got.Matched)
			assert.InDelta(t, tt.confidence, got.Confidence, 1e-9)
			assert.Equal(t, tt.vocabTerm, got.VocabTerm)
			assert.Equal(t, tt.chapter, got.Chapter)
		})
	}
}

func TestMatchNilIndex(t *testing.T) {
	got := matcher.New(matcher.Options{}).Match("Senate", nil)
	assert.False(t, got.Matched)
	assert.Equal(t, matcher.TierNone, got.Tier)
}

func TestFuzzyNeverFiresBelowThreshold(t *testing.T) {
	pairs := [][2]string{
		{"Rome", "Home"},
		{"Carthago", "Cartagena"},
		{"Reason 1", "Reason 2"},
		{"Gaul", "Gauls"},
	}
	m := matcher.New(matcher.Options{FuzzyThreshold: 0.90})
	for _, p := range pairs {
		require.Less(t, terms.Similarity(p[0], p[1]), 0.90, p)
		got := m.Match(p[0], buildIndex(t, "Chapter 1", p[1]))
		assert.False(t, got.Matched, "%q vs %q", p[0], p[1])
		assert.Equal(t, matcher.TierNone, got.Tier)
	}
}

func TestFuzzyCatchesSingleLetterTypos(t *testing.T) {
	ix := buildIndex(t, "Chapter 1", "Colosseum", "Chapter 2", "amphitheater")
	m := matcher.New(matcher.Options{})

	tests := []struct {
		term       string
		vocabTerm  string
		chapter    string
		similarity float64
	}{
		{"Coloseum", "Colosseum", "1", 16.0 / 17.0},
		{"amphitheatre", "amphitheater", "2", 22.0 / 24.0},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := m.Match(tt.term, ix)
			require.Equal(t, matcher.TierFuzzy, got.Tier)
			assert.True(t, got.Matched)
			assert.Equal(t, tt.vocabTerm, got.VocabTerm)
			assert.Equal(t, tt.chapter, got.Chapter)
			assert.InDelta(t, tt.similarity, got.Similarity, 1e-9)
			assert.InDelta(t, matcher.DefaultFuzzyConfidence, got.Confidence, 1e-9)
		})
	}
}

func TestFuzzyThresholdIsConfigurable(t *testing.T) {
	ix := buildIndex(t, "Chapter 1", "Gauls")
	assert.False(t, matcher.New(matcher.Options{}).Match("Gaul", ix).Matched)

	loose := matcher.New(matcher.Options{FuzzyThreshold: 0.85, FuzzyConfidence: 0.7})
	got := loose.Match("Gaul", ix)
	assert.Equal(t, matcher.TierFuzzy, got.Tier)
	assert.InDelta(t, 0.7, got.Confidence, 1e-9)
}

func TestFuzzyTieBreaksOnShortestThenOrder(t *testing.T) {
	// A prefix of 25 runes and a 36-rune extension of a 30-rune term both
	// score 10/11.
	long := "abcdefghijklmnopqrstuvwxyz0123"
	ix := buildIndex(t, "Chapter 1",
		long+"456789",
		long[:25],
	)
	got := matcher.New(matcher.Options{}).Match(long, ix)
	require.Equal(t, matcher.TierFuzzy, got.Tier)
	assert.Equal(t, long[:25], got.VocabTerm)
	assert.InDelta(t, 10.0/11.0, got.Similarity, 1e-9)

	term := "abcdefghijklmnopqrst"
	ix = buildIndex(t, "Chapter 1",
		"abcdefghijklmnopqrsx",
		"abcdefghijklmnopqrsy",
	)
	got = matcher.New(matcher.Options{}).Match(term, ix)
	assert.Equal(t, "abcdefghijklmnopqrsx", got.VocabTerm)
}

func TestExactWinsOverNormalized(t *testing.T) {
	ix := buildIndex(t, "Chapter 1", "Huns", "(Huns)")
	got := matcher.New(matcher.Options{}).Match("(Huns)", ix)
	assert.Equal(t, matcher.TierExact, got.Tier)
	assert.Equal(t, "(Huns)", got.VocabTerm)
}
