// Package generate persists trigger artifacts to their storage target and reads them back.
// SQL-file storages hold plain .sql files; generated-class storages hold Go source files
// declaring one type per trigger whose methods return the DDL.
package generate

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/go-openapi/inflect"
	"github.com/spf13/afero"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/storage"
)

// Store reads and writes artifacts of one dialect.
type Store struct {
	fs       afero.Fs
	resolver *storage.Resolver
	dialect  core.Dialect
}

// NewStore creates a Store on fs.
func NewStore(fs afero.Fs, resolver *storage.Resolver, d core.Dialect) *Store {
	return &Store{fs: fs, resolver: resolver, dialect: d}
}

// Loaded is an artifact read back from storage. Warnings carry recoverable problems
// such as a missing function file.
type Loaded struct {
	Artifact dialect.Artifact
	Warnings []error
}

// Write stores artifact a for trigger t and returns the written paths. An existing
// trigger artifact is a *core.ConflictError; an existing PostgreSQL function file is
// kept as is.
func (s *Store) Write(t *core.ResolvedTrigger, a dialect.Artifact) ([]string, error) {
	target, err := s.resolver.Resolve(t.Storage)
	if err != nil {
		return nil, err
	}
	switch target.Kind {
	case storage.KindSQLFiles:
		return s.writeSQLFiles(t, a)
	case storage.KindGeneratedClasses:
		return s.writeClass(target, t, a)
	default:
		return nil, fmt.Errorf("%w: %q", core.ErrInvalidStorage, target.Kind)
	}
}

// Read loads the artifact of trigger t from its storage.
func (s *Store) Read(t *core.ResolvedTrigger) (Loaded, error) {
	target, err := s.resolver.Resolve(t.Storage)
	if err != nil {
		return Loaded{}, err
	}
	switch target.Kind {
	case storage.KindSQLFiles:
		return s.readSQLFiles(t)
	case storage.KindGeneratedClasses:
		return s.readClass(t)
	default:
		return Loaded{}, fmt.Errorf("%w: %q", core.ErrInvalidStorage, target.Kind)
	}
}

func (s *Store) writeSQLFiles(t *core.ResolvedTrigger, a dialect.Artifact) ([]string, error) {
	triggerPath, err := s.resolver.TriggerPath(t.Storage, s.dialect, t.Name)
	if err != nil {
		return nil, err
	}
	if err := s.ensureAbsent(triggerPath); err != nil {
		return nil, err
	}

	var written []string
	if a.HasFunction() && s.dialect == core.DialectPostgreSQL {
		fnPath, err := s.resolver.FunctionPath(t.Storage, s.dialect, t.FunctionName())
		if err != nil {
			return nil, err
		}
		exists, err := afero.Exists(s.fs, fnPath)
		if err != nil {
			return nil, fmt.Errorf("generate: stat %q: %w", fnPath, err)
		}
		if !exists {
			if err := s.writeFile(fnPath, a.FunctionSQL); err != nil {
				return nil, err
			}
			written = append(written, fnPath)
		}
	}

	if err := s.writeFile(triggerPath, a.TriggerSQL); err != nil {
		return written, err
	}
	return append(written, triggerPath), nil
}

func (s *Store) readSQLFiles(t *core.ResolvedTrigger) (Loaded, error) {
	var out Loaded

	if fn := t.FunctionName(); fn != "" && s.dialect == core.DialectPostgreSQL {
		fnPath, err := s.resolver.FunctionPath(t.Storage, s.dialect, fn)
		if err != nil {
			return Loaded{}, err
		}
		body, err := afero.ReadFile(s.fs, fnPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			// The function may exist in the database without a file.
			out.Warnings = append(out.Warnings, &core.ReferenceError{Trigger: t.Name, Ref: fnPath, Err: err})
		case err != nil:
			return Loaded{}, fmt.Errorf("generate: read %q: %w", fnPath, err)
		default:
			out.Artifact.FunctionSQL = string(body)
		}
	}

	triggerPath, err := s.resolver.TriggerPath(t.Storage, s.dialect, t.Name)
	if err != nil {
		return Loaded{}, err
	}
	body, err := afero.ReadFile(s.fs, triggerPath)
	if errors.Is(err, fs.ErrNotExist) {
		return Loaded{}, fmt.Errorf("%w for trigger %q at %s", core.ErrSQLFileNotFound, t.Name, triggerPath)
	}
	if err != nil {
		return Loaded{}, fmt.Errorf("generate: read %q: %w", triggerPath, err)
	}
	out.Artifact.TriggerSQL = string(body)
	return out, nil
}

func (s *Store) ensureAbsent(p string) error {
	exists, err := afero.Exists(s.fs, p)
	if err != nil {
		return fmt.Errorf("generate: stat %q: %w", p, err)
	}
	if exists {
		return &core.ConflictError{Path: p}
	}
	return nil
}

func (s *Store) writeFile(p, content string) error {
	if err := s.fs.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return fmt.Errorf("generate: create directory for %q: %w", p, err)
	}
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if err := afero.WriteFile(s.fs, p, []byte(content), 0o644); err != nil {
		return fmt.Errorf("generate: write %q: %w", p, err)
	}
	return nil
}

// ClassName returns the Go type name holding the trigger. The declared class name wins;
// a namespace-qualified name keeps only its last segment.
func ClassName(t *core.ResolvedTrigger) string {
	if name := strings.TrimSpace(core.Deref(t.ClassName)); name != "" {
		if i := strings.LastIndexAny(name, `\/.`); i >= 0 {
			name = name[i+1:]
		}
		return inflect.Camelize(name)
	}
	return inflect.Camelize(t.Name)
}

// FileName returns the file holding the generated class.
func FileName(className string) string {
	return inflect.Underscore(className) + ".go"
}
