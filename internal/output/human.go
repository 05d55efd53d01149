package output

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"trigmap/internal/diff"
	"trigmap/internal/migration"
)

// humanFormatter honours color.NoColor, which the CLI sets for --no-color and non-TTY output.
type humanFormatter struct {
	ok      func(a ...any) string
	bad     func(a ...any) string
	warn    func(a ...any) string
	heading func(a ...any) string
}

func newHumanFormatter() humanFormatter {
	return humanFormatter{
		ok:      color.New(color.FgGreen).SprintFunc(),
		bad:     color.New(color.FgRed).SprintFunc(),
		warn:    color.New(color.FgYellow).SprintFunc(),
		heading: color.New(color.Bold).SprintFunc(),
	}
}

// FormatDiff formats a trigger diff in human-readable format.
func (h humanFormatter) FormatDiff(d *diff.TriggerDiff) (string, error) {
	if d == nil || d.IsEmpty() {
		return h.ok("[OK] Mapping and database triggers are in sync.") + "\n", nil
	}

	var sb strings.Builder
	if len(d.MissingInDB) > 0 {
		sb.WriteString(h.heading("Triggers missing in the database") + "\n")
		for _, name := range d.MissingInDB {
			fmt.Fprintf(&sb, "  %s %s\n", h.bad("-"), name)
		}
		sb.WriteString("\n")
	}

	if len(d.MissingInMapping) > 0 {
		sb.WriteString(h.heading("Triggers missing in the mapping") + "\n")
		for _, name := range d.MissingInMapping {
			fmt.Fprintf(&sb, "  %s %s\n", h.bad("-"), name)
		}
		sb.WriteString("\n")
	}

	if len(d.Mismatches) > 0 {
		sb.WriteString(h.heading("Triggers with mismatched parameters") + "\n")
		for _, name := range d.MismatchedNames() {
			fmt.Fprintf(&sb, "  %s %s\n", h.warn("~"), name)
			for _, field := range diff.SortedFields(d.Mismatches[name]) {
				fc := d.Mismatches[name][field]
				fmt.Fprintf(&sb, "      %-9s expected %s, got %s\n", field+":", h.ok(quote(fc.Expected)), h.bad(quote(fc.Actual)))
			}
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "%s %d difference(s) found.\n", h.bad("[ERROR]"), d.Count())
	return sb.String(), nil
}

// FormatMigration formats a migration in human-readable format.
func (h humanFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil || m.IsEmpty() {
		return h.ok("Nothing to do.") + "\n", nil
	}

	var sb strings.Builder
	for _, w := range m.Warnings() {
		fmt.Fprintf(&sb, "%s %s\n", h.warn("[WARNING]"), w)
	}
	for _, n := range m.Notes() {
		fmt.Fprintf(&sb, "%s %s\n", h.heading("[NOTE]"), n)
	}

	sb.WriteString(h.heading("Statements") + "\n")
	for i, stmt := range m.SQLStatements() {
		fmt.Fprintf(&sb, "%d. %s\n\n", i+1, stmt)
	}
	return sb.String(), nil
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}
