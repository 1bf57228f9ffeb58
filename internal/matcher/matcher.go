// Package matcher compares extracted terms against a vocabulary index using
// exact, normalized and fuzzy tiers.
package matcher

import (
	"strings"
	"unicode/utf8"

	"owlmap/internal/terms"
	"owlmap/internal/vocab"
)

// Tier names the rule that matched a term.
type Tier string

const (
	TierExact      Tier = "exact"
	TierNormalized Tier = "normalized"
	TierFuzzy      Tier = "fuzzy"
	TierNone       Tier = "none"
	// TierManualAdd marks occurrences inserted by a reviewer decision.
	TierManualAdd Tier = "manual_add"
)

const (
	ExactConfidence      = 1.0
	NormalizedConfidence = 0.95

	DefaultFuzzyThreshold  = 0.90
	DefaultFuzzyConfidence = 0.8

	// epsilon absorbs float rounding in the similarity ratio.
	epsilon = 1e-9
)

// Result describes the outcome of matching one term.
type Result struct {
	Matched    bool
	Tier       Tier
	Confidence float64
	VocabTerm  string
	// Chapter is the vocabulary chapter of VocabTerm.
	Chapter string
	// Similarity is the fuzzy ratio of the best candidate, set for fuzzy
	// matches and for near misses.
	Similarity float64
}

// Options tunes the fuzzy tier.
type Options struct {
	FuzzyThreshold  float64
	FuzzyConfidence float64
}

// Matcher applies the tiers in order; the first hit wins.
type Matcher struct {
	threshold  float64
	confidence float64
}

// New returns a Matcher. Zero options fall back to the defaults.
func New(opts Options) *Matcher {
	m := &Matcher{threshold: opts.FuzzyThreshold, confidence: opts.FuzzyConfidence}
	if m.threshold <= 0 {
		m.threshold = DefaultFuzzyThreshold
	}
	if m.confidence <= 0 {
		m.confidence = DefaultFuzzyConfidence
	}
	return m
}

// Match classifies term against ix. A nil index never matches.
func (m *Matcher) Match(term string, ix *vocab.Index) Result {
	none := Result{Tier: TierNone}
	if ix == nil || strings.TrimSpace(term) == "" {
		return none
	}
	if e, ok := ix.Lookup(term); ok {
		return hit(TierExact, ExactConfidence, e)
	}
	if e, ok := ix.LookupLoose(term); ok {
		return hit(TierNormalized, NormalizedConfidence, e)
	}

	best, sim, found := m.bestFuzzy(term, ix)
	if !found {
		return none
	}
	if sim+epsilon < m.threshold {
		none.Similarity = sim
		return none
	}
	r := hit(TierFuzzy, m.confidence, best)
	r.Similarity = sim
	return r
}

// bestFuzzy returns the most similar entry. Ties go to the shortest vocabulary
// term and then to document order.
func (m *Matcher) bestFuzzy(term string, ix *vocab.Index) (vocab.Entry, float64, bool) {
	var (
		best    vocab.Entry
		bestSim = -1.0
		bestLen int
	)
	for _, e := range ix.Entries() {
		sim := terms.Similarity(term, e.Term)
		length := utf8.RuneCountInString(terms.Canonical(e.Term))
		switch {
		case sim > bestSim+epsilon:
		case sim > bestSim-epsilon && length < bestLen:
		default:
			continue
		}
		best, bestSim, bestLen = e, sim, length
	}
	return best, bestSim, bestSim >= 0
}

func hit(tier Tier, confidence float64, e vocab.Entry) Result {
	return Result{
		Matched:    true,
		Tier:       tier,
		Confidence: confidence,
		VocabTerm:  e.Term,
		Chapter:    e.Chapter,
	}
}
