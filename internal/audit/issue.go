package audit

import (
	"fmt"

	"owlmap/internal/store"
)

// IssueType names the disagreement an issue describes.
type IssueType string

const (
	IssueMissed       IssueType = "missed_from_extraction"
	IssueNoise        IssueType = "potential_noise"
	IssueHighPriority IssueType = "high_priority_review"
)

// rank orders issue types within a unit.
func (t IssueType) rank() int {
	switch t {
	case IssueMissed:
		return 0
	case IssueNoise:
		return 1
	case IssueHighPriority:
		return 2
	default:
		return 3
	}
}

// ParseIssueType validates a CSV issue_type cell.
func ParseIssueType(value string) (IssueType, error) {
	switch t := IssueType(value); t {
	case IssueMissed, IssueNoise, IssueHighPriority:
		return t, nil
	default:
		return "", fmt.Errorf("unknown issue type %q", value)
	}
}

// Presence is the full-text search outcome for a missed term.
type Presence string

const (
	PresenceFound    Presence = "true"
	PresenceAbsent   Presence = "false"
	PresenceNoSource Presence = "no_source"
)

// Issue is one row of the audit.
type Issue struct {
	Type         IssueType
	Unit         store.Unit
	Chapter      string
	Term         string
	Location     int
	Context      string
	FlagReason   string
	VocabSource  string
	Notes        string
	OccurrenceID int64

	AppearsUnbolded   Presence
	UnboldedLocations []int
	UnboldedContext   string

	// Decision is the reviewer's raw cell value.
	Decision string
	// Line is the CSV line the issue was read from, 0 when built.
	Line int
}

// Reference returns the occurrence the issue points at.
func (i Issue) Reference() store.Reference {
	return store.Reference{ID: i.OccurrenceID, Unit: i.Unit, Term: i.Term, Location: i.Location}
}

// UnitNote explains why part of a unit's audit was not produced.
type UnitNote struct {
	Unit   store.Unit
	Reason string
}

// Report is the result of one audit build.
type Report struct {
	Issues       []Issue
	SkippedUnits []UnitNote
	Warnings     []string
}

// Counts tallies issues by type.
func (r Report) Counts() map[IssueType]int {
	counts := make(map[IssueType]int, 3)
	for _, issue := range r.Issues {
		counts[issue.Type]++
	}
	return counts
}
