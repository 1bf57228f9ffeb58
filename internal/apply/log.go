package apply

import (
	"encoding/csv"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"owlmap/internal/logging"
)

// ErrUnlogged indicates committed changes whose decision log entries could not
// be written. Reruns treat those rows as no-ops, so the entries must be added
// by hand.
var ErrUnlogged = errors.New("changes committed but decision log not written")

// LogColumns is the decision log header.
var LogColumns = []string{"timestamp", "run_id", "action", "issue_type", "term", "unit", "occurrence_id", "result", "notes"}

// LogEntry is one effective state change.
type LogEntry struct {
	Timestamp    time.Time
	RunID        string
	Action       string
	IssueType    string
	Term         string
	Unit         string
	OccurrenceID int64
	Result       string
	Notes        string
}

// DecisionLog appends entries to a CSV file. Existing lines are never
// rewritten.
type DecisionLog struct {
	path string
}

// NewDecisionLog returns a log writing to path.
func NewDecisionLog(path string) *DecisionLog {
	return &DecisionLog{path: path}
}

// Path returns the log file path.
func (l *DecisionLog) Path() string { return l.path }

// Append writes entries, adding the header when the file is new.
func (l *DecisionLog) Append(entries []LogEntry) error {
	if l == nil || len(entries) == 0 {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create decision log dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open decision log: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat decision log: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(LogColumns); err != nil {
			return fmt.Errorf("write decision log header: %w", err)
		}
	}
	for _, e := range entries {
		id := ""
		if e.OccurrenceID > 0 {
			id = strconv.FormatInt(e.OccurrenceID, 10)
		}
		record := []string{
			e.Timestamp.UTC().Format(time.RFC3339),
			e.RunID,
			e.Action,
			e.IssueType,
			e.Term,
			e.Unit,
			id,
			e.Result,
			e.Notes,
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write decision log: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush decision log: %w", err)
	}
	return f.Sync()
}

// AppendCommitted appends entries for changes already committed under runID.
// When the write fails every entry is copied to logger, which should carry the
// run id, so the log can be repaired from the application log.
func (l *DecisionLog) AppendCommitted(runID string, entries []LogEntry, logger *slog.Logger) error {
	err := l.Append(entries)
	if err == nil {
		return nil
	}
	for _, e := range entries {
		logging.ErrorWithContext(logger, "decision not logged", "decision_log_gap",
			logging.String("action", e.Action),
			logging.String("issue_type", e.IssueType),
			logging.String(logging.FieldTerm, e.Term),
			logging.String(logging.FieldUnit, e.Unit),
			logging.Int64(logging.FieldOccurrenceID, e.OccurrenceID),
			logging.String("result", e.Result),
			logging.String("notes", e.Notes),
			logging.String(logging.FieldErrorHint, "append these entries to "+l.path),
		)
	}
	return fmt.Errorf("%w: run %s committed %d changes; append them to %s by hand: %w", ErrUnlogged, runID, len(entries), l.path, err)
}
