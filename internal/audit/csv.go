package audit

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"owlmap/internal/store"
)

// Columns is the audit CSV header.
var Columns = []string{
	"issue_type", "subject", "year", "term_period", "unit", "chapter", "term",
	"location", "context", "flag_reason", "vocab_source", "notes", "occurrence_id",
	"appears_unbolded", "unbolded_locations", "unbolded_context", "decision",
}

const locationSeparator = ";"

// ErrHeader indicates a CSV whose header is not the audit header.
var ErrHeader = errors.New("audit csv header mismatch")

// RowError reports a CSV row that could not be interpreted.
type RowError struct {
	Line int
	Term string
	Err  error
}

func (e RowError) Error() string {
	if e.Term != "" {
		return fmt.Sprintf("line %d (%q): %v", e.Line, e.Term, e.Err)
	}
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// Write renders issues as CSV.
func Write(w io.Writer, issues []Issue) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write audit header: %w", err)
	}
	for _, issue := range issues {
		if err := cw.Write(record(issue)); err != nil {
			return fmt.Errorf("write audit row %q: %w", issue.Term, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(i Issue) []string {
	return []string{
		string(i.Type),
		i.Unit.Subject,
		strconv.Itoa(i.Unit.Year),
		i.Unit.TermPeriod,
		i.Unit.Name,
		i.Chapter,
		i.Term,
		optionalInt(int64(i.Location)),
		i.Context,
		i.FlagReason,
		i.VocabSource,
		i.Notes,
		optionalInt(i.OccurrenceID),
		string(i.AppearsUnbolded),
		joinLocations(i.UnboldedLocations),
		i.UnboldedContext,
		i.Decision,
	}
}

// Read parses an audit CSV. Header problems fail the whole read; rows with
// invalid fields are returned as RowErrors so the rest can still be applied.
func Read(r io.Reader) ([]Issue, []RowError, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, fmt.Errorf("%w: file is empty", ErrHeader)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read audit header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	if !slices.Equal(header, Columns) {
		return nil, nil, fmt.Errorf("%w: got %s", ErrHeader, strings.Join(header, ","))
	}

	var (
		issues  []Issue
		invalid []RowError
	)
	for {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				invalid = append(invalid, RowError{Line: parseErr.StartLine, Err: parseErr.Err})
				continue
			}
			return nil, nil, fmt.Errorf("read audit: %w", err)
		}
		if blank(fields) {
			continue
		}
		line, _ := cr.FieldPos(0)
		issue, err := parseRecord(fields)
		if err != nil {
			row := RowError{Line: line, Err: err}
			if len(fields) > 6 {
				row.Term = fields[6]
			}
			invalid = append(invalid, row)
			continue
		}
		issue.Line = line
		issues = append(issues, issue)
	}
	return issues, invalid, nil
}

func parseRecord(fields []string) (Issue, error) {
	if len(fields) != len(Columns) {
		return Issue{}, fmt.Errorf("expected %d fields, got %d", len(Columns), len(fields))
	}
	for _, i := range []int{0, 2, 6, 7, 12, 13, 14, 16} {
		fields[i] = strings.TrimSpace(fields[i])
	}

	issueType, err := ParseIssueType(fields[0])
	if err != nil {
		return Issue{}, err
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return Issue{}, fmt.Errorf("invalid year %q", fields[2])
	}
	location, err := parseOptionalInt(fields[7])
	if err != nil {
		return Issue{}, fmt.Errorf("invalid location %q", fields[7])
	}
	occurrenceID, err := parseOptionalInt(fields[12])
	if err != nil {
		return Issue{}, fmt.Errorf("invalid occurrence_id %q", fields[12])
	}
	presence, err := parsePresence(fields[13])
	if err != nil {
		return Issue{}, err
	}
	locations, err := splitLocations(fields[14])
	if err != nil {
		return Issue{}, err
	}
	if fields[6] == "" {
		return Issue{}, errors.New("term is empty")
	}

	return Issue{
		Type: issueType,
		Unit: store.Unit{
			Subject:    fields[1],
			Year:       year,
			TermPeriod: fields[3],
			Name:       fields[4],
		},
		Chapter:           fields[5],
		Term:              fields[6],
		Location:          int(location),
		Context:           fields[8],
		FlagReason:        fields[9],
		VocabSource:       fields[10],
		Notes:             fields[11],
		OccurrenceID:      occurrenceID,
		AppearsUnbolded:   presence,
		UnboldedLocations: locations,
		UnboldedContext:   fields[15],
		Decision:          fields[16],
	}, nil
}

func parsePresence(value string) (Presence, error) {
	switch p := Presence(strings.ToLower(value)); p {
	case "", PresenceFound, PresenceAbsent, PresenceNoSource:
		return p, nil
	default:
		return "", fmt.Errorf("invalid appears_unbolded %q", value)
	}
}

func optionalInt(v int64) string {
	if v == 0 {
		return ""
	}
	return strconv.FormatInt(v, 10)
}

func parseOptionalInt(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New("not a non-negative integer")
	}
	return n, nil
}

func joinLocations(locations []int) string {
	parts := make([]string, len(locations))
	for i, l := range locations {
		parts[i] = strconv.Itoa(l)
	}
	return strings.Join(parts, locationSeparator)
}

func splitLocations(value string) ([]int, error) {
	if value == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(value, locationSeparator) {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("invalid unbolded_locations %q", value)
		}
		out = append(out, n)
	}
	return out, nil
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
