// Package output renders reconciliation reports and trigger migrations. Formats: human
// (colorized), JSON, summary and SQL.
package output

import (
	"fmt"
	"strings"

	"trigmap/internal/diff"
	"trigmap/internal/migration"
)

// Format is an enum type representing the available output formats.
type Format string

const (
	FormatHuman   Format = "human"
	FormatJSON    Format = "json"
	FormatSummary Format = "summary"
	FormatSQL     Format = "sql"
)

// Formatter is an interface for formatting trigger diffs and migrations.
type Formatter interface {
	FormatDiff(*diff.TriggerDiff) (string, error)
	FormatMigration(*migration.Migration) (string, error)
}

// NewFormatter creates a new Formatter instance based on the given name.
// If no format is specified, defaults to human format.
func NewFormatter(name string) (Formatter, error) {
	format := Format(strings.ToLower(strings.TrimSpace(name)))
	switch format {
	case "", FormatHuman:
		return newHumanFormatter(), nil
	case FormatJSON:
		return jsonFormatter{}, nil
	case FormatSummary:
		return summaryFormatter{}, nil
	case FormatSQL:
		return sqlFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s; use 'human', 'json', 'summary' or 'sql'", name)
	}
}

func normalizeStatements(stmts []string) []string {
	var out []string
	for _, stmt := range stmts {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if !strings.HasSuffix(stmt, ";") {
			stmt += ";"
		}
		out = append(out, stmt)
	}
	return out
}
