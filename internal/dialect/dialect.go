// Package dialect turns resolved triggers into dialect-specific DDL. Each dialect
// sub-package registers a Generator; callers go through Get or the package-level helpers
// so dialect branching stays in one place.
package dialect

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"trigmap/internal/core"
	"trigmap/internal/migration"
)

// Artifact is the SQL text of one trigger. FunctionSQL is empty for dialects without a
// separate trigger function.
type Artifact struct {
	TriggerSQL  string
	FunctionSQL string
}

// HasFunction reports whether the artifact carries a function definition.
func (a Artifact) HasFunction() bool {
	return strings.TrimSpace(a.FunctionSQL) != ""
}

// Generator builds and validates trigger DDL for one dialect.
type Generator interface {
	Dialect() core.Dialect
	// Validate rejects trigger shapes the dialect cannot express.
	Validate(t *core.ResolvedTrigger) error
	// Build synthesizes the artifact. It assumes Validate passed.
	Build(t *core.ResolvedTrigger) Artifact
	// UpdateStatements returns statements that (re)create the trigger on a database
	// that may already contain it.
	UpdateStatements(t *core.ResolvedTrigger, a Artifact) []string
	// DropStatements returns statements removing the trigger and anything it owns.
	DropStatements(t *core.ResolvedTrigger) []string
}

// ScriptDelimiter is implemented by generators whose compound statements cannot be
// terminated by a plain semicolon in a script.
type ScriptDelimiter interface {
	// Delimiter returns the delimiter for stmt, or "" when a semicolon is enough.
	Delimiter(stmt string) string
}

var (
	registryMu sync.RWMutex
	registry   = map[core.Dialect]func() Generator{}
)

// Register makes a generator available for d.
func Register(d core.Dialect, ctor func() Generator) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[d] = ctor
}

// Get returns the generator registered for d.
func Get(d core.Dialect) (Generator, error) {
	registryMu.RLock()
	ctor, ok := registry[d]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: no artifact generator for %q", core.ErrUnsupportedDialect, d)
	}
	return ctor(), nil
}

// Build validates t against d and returns its artifact.
func Build(d core.Dialect, t *core.ResolvedTrigger) (Artifact, error) {
	g, err := Get(d)
	if err != nil {
		return Artifact{}, err
	}
	if err := g.Validate(t); err != nil {
		return Artifact{}, err
	}
	return g.Build(t), nil
}

// GenerateMigration builds the up/down statements for triggers, sorted by name. Triggers
// that fail validation abort the whole migration.
func GenerateMigration(d core.Dialect, triggers []core.ResolvedTrigger) (*migration.Migration, error) {
	g, err := Get(d)
	if err != nil {
		return nil, err
	}

	sorted := make([]core.ResolvedTrigger, len(triggers))
	copy(sorted, triggers)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	m := &migration.Migration{}
	for i := range sorted {
		t := &sorted[i]
		if err := g.Validate(t); err != nil {
			return nil, err
		}
		AppendTrigger(m, g, t, g.Build(t))
	}
	if n := len(m.Triggers()); n > 0 {
		m.AddNote(fmt.Sprintf("%d trigger(s) for %s", n, d))
	}
	m.Dedupe()
	return m, nil
}

// AppendTrigger adds the update statements of one trigger to m. The last statement is
// paired with the drop statements so the down migration removes what the up created.
func AppendTrigger(m *migration.Migration, g Generator, t *core.ResolvedTrigger, a Artifact) {
	up := g.UpdateStatements(t, a)
	down := g.DropStatements(t)
	if len(up) == 0 {
		return
	}
	sd, _ := g.(ScriptDelimiter)
	// Functions are created first and dropped last.
	for i, stmt := range up {
		var rollback string
		switch {
		case a.HasFunction() && i == 0 && len(down) > 1:
			rollback = down[1]
		case i == len(up)-1 && len(down) > 0:
			rollback = down[0]
		}
		var delimiter string
		if sd != nil {
			delimiter = sd.Delimiter(stmt)
		}
		switch {
		case delimiter != "":
			m.AddCompoundStatement(t.Name, stmt, rollback, delimiter)
		case rollback == "":
			m.AddStatement(t.Name, stmt)
		default:
			m.AddStatementWithRollback(t.Name, stmt, rollback)
		}
	}
}

// Terminate appends a statement terminator unless one is already present.
func Terminate(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" || strings.HasSuffix(stmt, ";") {
		return stmt
	}
	return stmt + ";"
}

// Indent prefixes every non-empty line of body with prefix.
func Indent(body, prefix string) string {
	lines := strings.Split(strings.TrimSpace(body), "\n")
	for i, l := range lines {
		if strings.TrimSpace(l) != "" {
			lines[i] = prefix + strings.TrimRight(l, " \t")
		}
	}
	return strings.Join(lines, "\n")
}

// SingleEvent enforces the single-event restriction shared by MySQL and SQL Server.
func SingleEvent(d core.Dialect, t *core.ResolvedTrigger) error {
	if len(t.Events) > 1 {
		return &core.ValidationError{
			Entity:  "trigger",
			Name:    t.Name,
			Field:   "events",
			Message: fmt.Sprintf("%s triggers bind to exactly one event, got %v", d, t.UpperEvents()),
			Err:     core.ErrMultipleEvents,
		}
	}
	return nil
}
