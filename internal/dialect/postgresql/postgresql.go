// Package postgresql builds PostgreSQL trigger and trigger-function DDL.
package postgresql

import (
	"fmt"
	"regexp"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
)

func init() {
	dialect.Register(core.DialectPostgreSQL, func() dialect.Generator {
		return NewGenerator()
	})
}

var (
	createTriggerRe  = regexp.MustCompile(`(?i)\bCREATE\s+(CONSTRAINT\s+)?TRIGGER\b`)
	createFunctionRe = regexp.MustCompile(`(?i)\bCREATE\s+FUNCTION\b`)
)

// Generator is a stateless PostgreSQL artifact builder.
type Generator struct{}

// NewGenerator initializes a new PostgreSQL generator.
func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Dialect() core.Dialect {
	return core.DialectPostgreSQL
}

// Validate accepts any event combination. A trigger must name its function unless the
// full definition was recovered from the database.
func (g *Generator) Validate(t *core.ResolvedTrigger) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if t.Definition == nil && t.FunctionName() == "" {
		return &core.ValidationError{
			Entity:  "trigger",
			Name:    t.Name,
			Field:   "function",
			Message: "postgresql triggers execute a function; declare one",
		}
	}
	return nil
}

func (g *Generator) Build(t *core.ResolvedTrigger) dialect.Artifact {
	a := dialect.Artifact{TriggerSQL: g.triggerSQL(t)}
	if fn := t.FunctionName(); fn != "" {
		a.FunctionSQL = g.functionSQL(fn, t)
	}
	return a
}

func (g *Generator) triggerSQL(t *core.ResolvedTrigger) string {
	if t.Definition != nil && strings.TrimSpace(*t.Definition) != "" {
		return dialect.Terminate(*t.Definition)
	}
	return fmt.Sprintf("CREATE OR REPLACE TRIGGER %s %s %s ON %s\nFOR EACH %s\nEXECUTE FUNCTION %s();",
		t.Name,
		strings.ToUpper(t.Timing),
		strings.Join(t.UpperEvents(), " OR "),
		t.EffectiveTable(),
		strings.ToUpper(t.Scope),
		t.FunctionName(),
	)
}

func (g *Generator) functionSQL(fn string, t *core.ResolvedTrigger) string {
	body := strings.TrimSpace(core.Deref(t.Content))
	if body == "" {
		body = fmt.Sprintf("BEGIN\n    -- trigger logic goes here\n    RETURN %s;\nEND;", placeholderReturn(t.Timing))
	}
	return fmt.Sprintf("CREATE OR REPLACE FUNCTION %s()\nRETURNS trigger AS $$\n%s\n$$ LANGUAGE plpgsql;", fn, body)
}

// placeholderReturn is NULL for AFTER triggers, whose result is ignored, and NEW otherwise.
func placeholderReturn(timing string) string {
	if strings.EqualFold(strings.TrimSpace(timing), string(core.TimingAfter)) {
		return "NULL"
	}
	return "NEW"
}

// UpdateStatements rewrites CREATE into CREATE OR REPLACE so re-applying is idempotent.
// The function comes first since the trigger references it.
func (g *Generator) UpdateStatements(_ *core.ResolvedTrigger, a dialect.Artifact) []string {
	var out []string
	if a.HasFunction() {
		out = append(out, dialect.Terminate(ReplaceFunction(a.FunctionSQL)))
	}
	if sql := strings.TrimSpace(a.TriggerSQL); sql != "" {
		out = append(out, dialect.Terminate(ReplaceTrigger(sql)))
	}
	return out
}

func (g *Generator) DropStatements(t *core.ResolvedTrigger) []string {
	out := []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s ON %s;", t.Name, t.EffectiveTable())}
	if fn := t.FunctionName(); fn != "" {
		out = append(out, fmt.Sprintf("DROP FUNCTION IF EXISTS %s();", fn))
	}
	return out
}

// ReplaceTrigger turns a plain CREATE TRIGGER into CREATE OR REPLACE TRIGGER. Constraint
// triggers cannot be replaced and are left alone.
func ReplaceTrigger(sql string) string {
	return createTriggerRe.ReplaceAllStringFunc(sql, func(m string) string {
		if strings.Contains(strings.ToUpper(m), "CONSTRAINT") {
			return m
		}
		return "CREATE OR REPLACE TRIGGER"
	})
}

// ReplaceFunction turns a plain CREATE FUNCTION into CREATE OR REPLACE FUNCTION.
func ReplaceFunction(sql string) string {
	return createFunctionRe.ReplaceAllString(sql, "CREATE OR REPLACE FUNCTION")
}
