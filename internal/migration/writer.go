package migration

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"trigmap/internal/core"
)

const versionLayout = "20060102150405"

// BatchSeparator ends a SQL Server batch. Other delimiters are MySQL client delimiters.
const BatchSeparator = "GO"

// Writer emits a migration as an up/down pair of SQL files named
// <version>_<name>.up.sql and <version>_<name>.down.sql.
type Writer struct {
	fs   afero.Fs
	dir  string
	name string
	now  func() time.Time
}

// NewWriter creates a Writer placing files under dir.
func NewWriter(fs afero.Fs, dir string) *Writer {
	return &Writer{fs: fs, dir: dir, name: "triggers", now: time.Now}
}

// WithClock overrides the clock used to compute the version.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Files holds the paths of a written migration.
type Files struct {
	Version string
	Up      string
	Down    string
}

// Write stores m and returns the written paths. Existing files are never overwritten.
func (w *Writer) Write(m *Migration) (Files, error) {
	if m == nil || m.IsEmpty() {
		return Files{}, fmt.Errorf("migration: nothing to write")
	}

	version := w.now().UTC().Format(versionLayout)
	files := Files{
		Version: version,
		Up:      filepath.Join(w.dir, fmt.Sprintf("%s_%s.up.sql", version, w.name)),
		Down:    filepath.Join(w.dir, fmt.Sprintf("%s_%s.down.sql", version, w.name)),
	}
	for _, p := range []string{files.Up, files.Down} {
		exists, err := afero.Exists(w.fs, p)
		if err != nil {
			return Files{}, fmt.Errorf("migration: stat %q: %w", p, err)
		}
		if exists {
			return Files{}, &core.ConflictError{Path: p}
		}
	}

	if err := w.fs.MkdirAll(w.dir, 0o755); err != nil {
		return Files{}, fmt.Errorf("migration: create directory %q: %w", w.dir, err)
	}
	if err := afero.WriteFile(w.fs, files.Up, []byte(RenderUp(m)), 0o644); err != nil {
		return Files{}, fmt.Errorf("migration: write %q: %w", files.Up, err)
	}
	if err := afero.WriteFile(w.fs, files.Down, []byte(RenderDown(m)), 0o644); err != nil {
		return Files{}, fmt.Errorf("migration: write %q: %w", files.Down, err)
	}
	return files, nil
}

// RenderUp renders the forward statements, each preceded by a comment naming its trigger.
func RenderUp(m *Migration) string {
	var sb strings.Builder
	for _, op := range m.Operations {
		if op.Kind != core.OperationSQL || strings.TrimSpace(op.SQL) == "" {
			continue
		}
		fmt.Fprintf(&sb, "-- trigger %q\n%s\n", op.Trigger, RenderStatement(op))
	}
	return sb.String()
}

// RenderStatement renders one operation as it must appear in a script run by a client
// that splits on semicolons.
func RenderStatement(op core.Operation) string {
	sql := strings.TrimSpace(op.SQL)
	switch op.Delimiter {
	case "":
		if !strings.HasSuffix(sql, ";") {
			sql += ";"
		}
		return sql
	case BatchSeparator:
		return sql + "\n" + BatchSeparator
	default:
		return fmt.Sprintf("DELIMITER %s\n%s\n%s\nDELIMITER ;", op.Delimiter, sql, op.Delimiter)
	}
}

// RenderDown renders the reverting statements in reverse order.
func RenderDown(m *Migration) string {
	var sb strings.Builder
	for i := len(m.Operations) - 1; i >= 0; i-- {
		op := m.Operations[i]
		if op.Kind != core.OperationSQL || strings.TrimSpace(op.RollbackSQL) == "" {
			continue
		}
		fmt.Fprintf(&sb, "-- reverse: trigger %q\n%s\n", op.Trigger, strings.TrimSpace(op.RollbackSQL))
	}
	return sb.String()
}
