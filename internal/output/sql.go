package output

import (
	"strings"

	"trigmap/internal/diff"
	"trigmap/internal/migration"
)

type sqlFormatter struct{}

// FormatDiff renders the diff as SQL comments.
func (sqlFormatter) FormatDiff(d *diff.TriggerDiff) (string, error) {
	if d == nil {
		return "", nil
	}
	return writeCommentLines(d.String()), nil
}

// FormatMigration formats a migration as a runnable script followed by its rollback.
func (sqlFormatter) FormatMigration(m *migration.Migration) (string, error) {
	if m == nil {
		return "", nil
	}

	var sb strings.Builder
	sb.WriteString("-- trigmap migration\n")
	sb.WriteString("-- Review before running in production.\n")

	writeCommentSection(&sb, "WARNINGS", m.Warnings())
	writeCommentSection(&sb, "NOTES", m.Notes())

	if sql := migration.RenderUp(m); sql != "" {
		sb.WriteString("\n-- SQL\n")
		sb.WriteString(sql)
	} else {
		sb.WriteString("\n-- No SQL statements generated.\n")
	}

	if rb := m.RollbackStatements(); len(rb) > 0 {
		sb.WriteString("\n-- ROLLBACK SQL (run separately)\n")
		for _, stmt := range rb {
			sb.WriteString(writeCommentLines(stmt))
		}
	}
	return sb.String(), nil
}

func writeCommentSection(sb *strings.Builder, title string, lines []string) {
	if len(lines) == 0 {
		return
	}
	sb.WriteString("\n-- " + title + "\n")
	for _, l := range lines {
		sb.WriteString("-- - " + l + "\n")
	}
}

func writeCommentLines(text string) string {
	var sb strings.Builder
	for line := range strings.SplitSeq(strings.TrimRight(text, "\n"), "\n") {
		sb.WriteString("-- " + line + "\n")
	}
	return sb.String()
}
