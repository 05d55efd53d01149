// Package mssql builds SQL Server trigger DDL.
package mssql

import (
	"fmt"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/migration"
)

func init() {
	dialect.Register(core.DialectSQLServer, func() dialect.Generator {
		return NewGenerator()
	})
}

const placeholderBody = "-- trigger logic goes here\nSET NOCOUNT ON;"

// Generator is a stateless SQL Server artifact builder.
type Generator struct{}

// NewGenerator initializes a new SQL Server generator.
func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Dialect() core.Dialect {
	return core.DialectSQLServer
}

// Validate rejects multi-event and BEFORE triggers. Only AFTER triggers are generated.
func (g *Generator) Validate(t *core.ResolvedTrigger) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := dialect.SingleEvent(core.DialectSQLServer, t); err != nil {
		return err
	}
	if timing, _ := core.ParseTiming(t.Timing); timing == core.TimingBefore {
		return &core.ValidationError{
			Entity:  "trigger",
			Name:    t.Name,
			Field:   "timing",
			Message: "sqlserver has no BEFORE triggers; use AFTER",
			Err:     core.ErrBeforeNotSupported,
		}
	}
	return nil
}

func (g *Generator) Build(t *core.ResolvedTrigger) dialect.Artifact {
	body := strings.TrimSpace(core.Deref(t.Content))
	if body == "" {
		body = placeholderBody
	}
	event := ""
	if events := t.UpperEvents(); len(events) > 0 {
		event = events[0]
	}
	return dialect.Artifact{
		TriggerSQL: fmt.Sprintf("CREATE OR ALTER TRIGGER %s ON %s AFTER %s AS\nBEGIN\n%s\nEND",
			t.Name, t.EffectiveTable(), event, dialect.Indent(body, "    ")),
	}
}

// UpdateStatements returns the artifact as is: CREATE OR ALTER is already idempotent.
func (g *Generator) UpdateStatements(_ *core.ResolvedTrigger, a dialect.Artifact) []string {
	sql := strings.TrimSpace(a.TriggerSQL)
	if sql == "" {
		return nil
	}
	return []string{sql}
}

func (g *Generator) DropStatements(t *core.ResolvedTrigger) []string {
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", t.Name)}
}

// Delimiter ends every statement with a batch separator: CREATE TRIGGER must be the only
// statement of its batch.
func (g *Generator) Delimiter(string) string {
	return migration.BatchSeparator
}
