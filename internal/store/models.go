package store

import (
	"fmt"

	"owlmap/internal/classify"
	"owlmap/internal/matcher"
)

// Unit identifies one curriculum unit. Year and TermPeriod come from the
// corpus folder layout.
type Unit struct {
	Subject    string
	Year       int
	TermPeriod string
	Name       string
}

func (u Unit) String() string {
	return fmt.Sprintf("%s Y%d %s %s", u.Subject, u.Year, u.TermPeriod, u.Name)
}

// UnitInfo is a unit with its booklet and vocabulary provenance.
type UnitInfo struct {
	Unit
	SourcePath  string
	VocabSource string
	Occurrences int
}

// Concept is an abstract vocabulary item identified by its term text.
type Concept struct {
	ID          int64
	Term        string
	SubjectArea string
}

// Occurrence is one location-specific appearance of a concept.
type Occurrence struct {
	ID             int64
	ConceptID      int64
	Term           string
	Unit           Unit
	Chapter        string
	Location       int
	IsIntroduction bool
	Context        string
	SourcePath     string
	FlagReason     string
	Status         classify.Status
	Confidence     float64
	Tier           matcher.Tier
	VocabSource    string
}

// Flagged reports whether the occurrence carried an extraction-time flag.
func (o Occurrence) Flagged() bool { return o.FlagReason != "" }

// Edge links two occurrences. Edges are created outside this module.
type Edge struct {
	ID             int64
	FromOccurrence int64
	ToOccurrence   int64
	EdgeType       string
	EdgeNature     string
}

// Reference names an occurrence the way an audit row does.
type Reference struct {
	ID       int64
	Unit     Unit
	Term     string
	Location int
}
