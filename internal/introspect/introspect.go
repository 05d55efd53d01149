// Package introspect contains a main introspecter interface which lets you list the triggers
// currently present in a database. Every dialect lives in its own sub-package, registers itself
// in init(), and maps raw catalog rows into the canonical core.TriggerRecord.
package introspect

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"trigmap/internal/core"
)

// Queryer is the part of *sql.DB (and *sql.Tx) the introspecters need.
type Queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Introspecter lists every trigger of the current database, keyed by trigger name.
type Introspecter interface {
	ListTriggers(ctx context.Context, db Queryer) (map[string]core.TriggerRecord, error)
}

var (
	registry = make(map[core.Dialect]func() Introspecter)
	mu       sync.RWMutex
)

func Register(dialect core.Dialect, fn func() Introspecter) {
	mu.Lock()
	defer mu.Unlock()
	registry[dialect] = fn
}

func NewIntrospecter(dialect core.Dialect) (Introspecter, error) {
	mu.RLock()
	fn, ok := registry[dialect]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %q", core.ErrUnsupportedDialect, dialect)
	}

	return fn(), nil
}

// ListTriggers introspects db with the introspecter registered for dialect and removes
// every trigger listed in excluded from the result.
func ListTriggers(ctx context.Context, dialect core.Dialect, db Queryer, excluded []string) (map[string]core.TriggerRecord, error) {
	i, err := NewIntrospecter(dialect)
	if err != nil {
		return nil, err
	}

	triggers, err := i.ListTriggers(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("list %s triggers: %w", dialect, err)
	}

	for _, name := range excluded {
		delete(triggers, name)
	}
	return triggers, nil
}

// FilterByTables keeps only the triggers attached to one of the given tables.
func FilterByTables(triggers map[string]core.TriggerRecord, tables ...string) map[string]core.TriggerRecord {
	keep := make(map[string]bool, len(tables))
	for _, t := range tables {
		keep[t] = true
	}
	out := make(map[string]core.TriggerRecord, len(triggers))
	for name, tr := range triggers {
		if keep[tr.Table] {
			out[name] = tr
		}
	}
	return out
}

// Merge folds rec into triggers. Catalogs that return one row per (trigger, event) pair
// yield several rows with the same name; their events are unioned into a single record.
func Merge(triggers map[string]core.TriggerRecord, rec core.TriggerRecord) {
	existing, ok := triggers[rec.Name]
	if !ok {
		triggers[rec.Name] = rec
		return
	}
	for _, e := range rec.Events {
		existing.AddEvent(e)
	}
	triggers[rec.Name] = existing
}
