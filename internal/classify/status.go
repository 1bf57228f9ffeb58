package classify

import (
	"database/sql/driver"
	"fmt"
)

// Status is the validation state of an occurrence.
type Status uint8

const (
	// StatusUnset marks occurrences whose unit had no usable vocabulary.
	StatusUnset Status = iota
	StatusConfirmed
	StatusConfirmedWithFlag
	StatusPotentialNoise
	StatusHighPriorityReview

	statusCount
)

var statusNames = [statusCount]string{
	StatusUnset:              "",
	StatusConfirmed:          "confirmed",
	StatusConfirmedWithFlag:  "confirmed_with_flag",
	StatusPotentialNoise:     "potential_noise",
	StatusHighPriorityReview: "high_priority_review",
}

// transitions[from][to] reports whether a stored status may change. Deletion
// is always allowed and is not a status.
var transitions = [statusCount][statusCount]bool{
	StatusUnset:              {StatusUnset: true, StatusConfirmed: true},
	StatusConfirmed:          {StatusConfirmed: true},
	StatusConfirmedWithFlag:  {StatusConfirmedWithFlag: true, StatusConfirmed: true},
	StatusPotentialNoise:     {StatusPotentialNoise: true, StatusConfirmed: true},
	StatusHighPriorityReview: {StatusHighPriorityReview: true, StatusConfirmed: true},
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []Status {
	out := make([]Status, 0, statusCount)
	for s := StatusUnset; s < statusCount; s++ {
		out = append(out, s)
	}
	return out
}

func (s Status) String() string {
	if s >= statusCount {
		return fmt.Sprintf("status(%d)", uint8(s))
	}
	if s == StatusUnset {
		return "unset"
	}
	return statusNames[s]
}

// Valid reports whether s is a declared status.
func (s Status) Valid() bool { return s < statusCount }

// NeedsReview reports whether occurrences in s appear in the audit.
func (s Status) NeedsReview() bool {
	return s == StatusPotentialNoise || s == StatusHighPriorityReview
}

// VocabBacked reports whether s was assigned because the term is in the vocabulary.
func (s Status) VocabBacked() bool {
	return s == StatusConfirmed || s == StatusConfirmedWithFlag
}

// ParseStatus maps a stored value onto a Status. Empty means unset.
func ParseStatus(value string) (Status, error) {
	for i, name := range statusNames {
		if value == name {
			return Status(i), nil
		}
	}
	return StatusUnset, fmt.Errorf("unknown validation status %q", value)
}

// CanTransition reports whether a stored status may move from one value to another.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	return transitions[from][to]
}

// Value stores unset as NULL and other statuses by name.
func (s Status) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	if s == StatusUnset {
		return nil, nil
	}
	return statusNames[s], nil
}

// Scan reads a stored status.
func (s *Status) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*s = StatusUnset
		return nil
	case string:
		parsed, err := ParseStatus(v)
		if err != nil {
			return err
		}
		*s = parsed
		return nil
	case []byte:
		return s.Scan(string(v))
	default:
		return fmt.Errorf("scan status: unsupported type %T", src)
	}
}

// MarshalText renders the status name, empty for unset.
func (s Status) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid status %d", uint8(s))
	}
	return []byte(statusNames[s]), nil
}
