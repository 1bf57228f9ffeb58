package classify

import (
	"regexp"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"owlmap/internal/matcher"
)

// Flag reasons produced by DetectFlags.
const (
	ReasonShortTerm    = "short_term"
	ReasonAllCaps      = "all_caps"
	ReasonHeadingLike  = "heading_like"
	ReasonShortContext = "short_context"
)

// numberedLabel matches headings such as "Reason 1" or "Source 12".
var numberedLabel = regexp.MustCompile(`^\p{Lu}\p{Ll}+\s+\d+$`)

// Flags carries the extraction-time structural suspicion for a candidate.
type Flags struct {
	Flagged bool
	Reason  string
}

// Merge combines two flag sets, keeping reasons unique and ordered.
func (f Flags) Merge(other Flags) Flags {
	out := Flags{Flagged: f.Flagged || other.Flagged}
	var reasons []string
	for _, src := range []string{f.Reason, other.Reason} {
		for _, r := range strings.Split(src, ",") {
			r = strings.TrimSpace(r)
			if r != "" && !slices.Contains(reasons, r) {
				reasons = append(reasons, r)
			}
		}
	}
	out.Reason = strings.Join(reasons, ",")
	if out.Reason != "" {
		out.Flagged = true
	}
	return out
}

// FlagOptions sets the length thresholds for DetectFlags.
type FlagOptions struct {
	ShortTermLength    int
	ShortContextLength int
}

// DetectFlags applies the structural heuristics to a raw term and its
// surrounding text. A zero threshold disables that check.
func DetectFlags(rawTerm, context string, opts FlagOptions) Flags {
	term := strings.TrimSpace(rawTerm)
	var reasons []string
	if opts.ShortTermLength > 0 && utf8.RuneCountInString(strings.TrimRight(term, ".,;:!?")) < opts.ShortTermLength {
		reasons = append(reasons, ReasonShortTerm)
	}
	if isAllCapsToken(term) {
		reasons = append(reasons, ReasonAllCaps)
	}
	if strings.HasSuffix(term, ":") || numberedLabel.MatchString(term) {
		reasons = append(reasons, ReasonHeadingLike)
	}
	if opts.ShortContextLength > 0 && utf8.RuneCountInString(strings.TrimSpace(context)) < opts.ShortContextLength {
		reasons = append(reasons, ReasonShortContext)
	}
	return Flags{Flagged: len(reasons) > 0, Reason: strings.Join(reasons, ",")}
}

func isAllCapsToken(term string) bool {
	if term == "" || strings.ContainsFunc(term, unicode.IsSpace) {
		return false
	}
	letters := 0
	for _, r := range term {
		if unicode.IsLower(r) {
			return false
		}
		if unicode.IsLetter(r) {
			letters++
		}
	}
	return letters >= 2
}

// Classify applies the decision table:
//
//	in vocabulary | flagged | status
//	yes           | no      | confirmed
//	yes           | yes     | confirmed_with_flag
//	no            | no      | potential_noise
//	no            | yes     | high_priority_review
func Classify(flags Flags, result matcher.Result) Status {
	switch {
	case result.Matched && !flags.Flagged:
		return StatusConfirmed
	case result.Matched:
		return StatusConfirmedWithFlag
	case !flags.Flagged:
		return StatusPotentialNoise
	default:
		return StatusHighPriorityReview
	}
}
