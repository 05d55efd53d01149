package diff

import (
	"fmt"
	"sort"
	"strings"
)

// String returns a plain-text rendering of the reconciliation report.
func (d *TriggerDiff) String() string {
	if d.IsEmpty() {
		return "Mapping and database triggers are in sync."
	}

	var sb strings.Builder
	sb.WriteString("Trigger differences:\n")

	if len(d.MissingInDB) > 0 {
		sb.WriteString("\nMissing in database:\n")
		for _, name := range d.MissingInDB {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	if len(d.MissingInMapping) > 0 {
		sb.WriteString("\nMissing in mapping:\n")
		for _, name := range d.MissingInMapping {
			sb.WriteString(fmt.Sprintf("  - %s\n", name))
		}
	}

	if len(d.Mismatches) > 0 {
		sb.WriteString("\nMismatched parameters:\n")
		for _, name := range d.MismatchedNames() {
			sb.WriteString(fmt.Sprintf("  - %s:\n", name))
			for _, field := range SortedFields(d.Mismatches[name]) {
				fc := d.Mismatches[name][field]
				sb.WriteString(fmt.Sprintf("    - %s: expected %q, got %q\n", field, fc.Expected, fc.Actual))
			}
		}
	}

	return sb.String()
}

// SortedFields returns the field names of one mismatch entry in a stable order.
func SortedFields(changes map[string]FieldChange) []string {
	fields := make([]string, 0, len(changes))
	for f := range changes {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
