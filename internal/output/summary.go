package output

import (
	"fmt"
	"sort"
	"strings"

	"trigmap/internal/diff"
	"trigmap/internal/migration"
)

type summaryFormatter struct{}

// FormatDiff formats a trigger diff as a compact summary.
// Example output:
//
//	Trigger Diff Summary
//	====================
//
//	Missing in database: 2
//	Missing in mapping:  0
//	Mismatched:          1 (timing: 1)
func (summaryFormatter) FormatDiff(d *diff.TriggerDiff) (string, error) {
	var sb strings.Builder
	sb.WriteString("Trigger Diff Summary\n")
	sb.WriteString("====================\n\n")

	if d == nil {
		d = &diff.TriggerDiff{}
	}
	fmt.Fprintf(&sb, "Missing in database: %d\n", len(d.MissingInDB))
	fmt.Fprintf(&sb, "Missing in mapping:  %d\n", len(d.MissingInMapping))
	fmt.Fprintf(&sb, "Mismatched:          %d%s\n", len(d.Mismatches), fieldBreakdown(d))

	if d.IsEmpty() {
		sb.WriteString("\nIn sync.\n")
	}
	return sb.String(), nil
}

// fieldBreakdown counts mismatches per field, e.g. " (events: 1, timing: 2)".
func fieldBreakdown(d *diff.TriggerDiff) string {
	perField := make(map[string]int)
	for _, fields := range d.Mismatches {
		for f := range fields {
			perField[f]++
		}
	}
	if len(perField) == 0 {
		return ""
	}
	names := make([]string, 0, len(perField))
	for f := range perField {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, fmt.Sprintf("%s: %d", f, perField[f]))
	}
	return " (" + strings.Join(parts, ", ") + ")"
}

// FormatMigration formats a migration as a compact summary.
func (summaryFormatter) FormatMigration(m *migration.Migration) (string, error) {
	var sb strings.Builder
	sb.WriteString("Trigger Migration Summary\n")
	sb.WriteString("=========================\n\n")

	if m == nil {
		m = &migration.Migration{}
	}
	fmt.Fprintf(&sb, "Triggers:   %d\n", len(m.Triggers()))
	fmt.Fprintf(&sb, "Statements: %d\n", len(m.SQLStatements()))
	fmt.Fprintf(&sb, "Rollback:   %d\n", len(m.RollbackStatements()))
	if w := m.Warnings(); len(w) > 0 {
		fmt.Fprintf(&sb, "Warnings:   %d\n", len(w))
	}
	return sb.String(), nil
}
