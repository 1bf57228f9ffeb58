package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// field is one labelled value of a command summary.
type field struct {
	Label string
	Value string
}

func intField(label string, v int) field {
	return field{Label: label, Value: strconv.Itoa(v)}
}

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeSummary prints fields as a table on a terminal and as "label: value"
// lines otherwise.
func writeSummary(cmd *cobra.Command, title string, fields []field) {
	out := cmd.OutOrStdout()
	if isTerminal(out) {
		rows := make([][]string, 0, len(fields))
		for _, f := range fields {
			rows = append(rows, []string{f.Label, f.Value})
		}
		fmt.Fprintln(out, renderTable(title, []string{"Item", "Value"}, rows, []columnAlignment{alignLeft, alignRight}))
		return
	}
	for _, f := range fields {
		fmt.Fprintf(out, "%s: %s\n", f.Label, f.Value)
	}
}

// writeRows prints a table on a terminal and one "key=value" line per row
// otherwise.
func writeRows(cmd *cobra.Command, title string, headers []string, rows [][]string, aligns []columnAlignment) {
	if len(rows) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	if isTerminal(out) {
		fmt.Fprintln(out, renderTable(title, headers, rows, aligns))
		return
	}
	for _, row := range rows {
		parts := make([]string, 0, len(headers))
		for i, h := range headers {
			value := ""
			if i < len(row) {
				value = row[i]
			}
			parts = append(parts, plainKey(h)+"="+plainValue(value))
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
	}
}

func plainKey(header string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(header)), " ", "_")
}

func plainValue(value string) string {
	if value == "" || strings.ContainsAny(value, " \t\"=") {
		return strconv.Quote(value)
	}
	return value
}

// writeLines prints a titled bullet list, or nothing when lines is empty.
func writeLines(cmd *cobra.Command, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s:\n", title)
	for _, line := range lines {
		fmt.Fprintf(out, "  - %s\n", line)
	}
}
