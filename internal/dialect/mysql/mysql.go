// Package mysql builds MySQL/MariaDB trigger DDL.
package mysql

import (
	"fmt"
	"regexp"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
)

func init() {
	dialect.Register(core.DialectMySQL, func() dialect.Generator {
		return NewGenerator()
	})
}

// ClientDelimiter wraps CREATE TRIGGER statements in scripts run by the mysql client.
const ClientDelimiter = "//"

var createTriggerRe = regexp.MustCompile(`(?i)^CREATE\s+(DEFINER\s*=\s*\S+\s+)?TRIGGER\b`)

const placeholderBody = "BEGIN\n    -- trigger logic goes here\nEND"

// Generator is a stateless MySQL artifact builder.
type Generator struct{}

// NewGenerator initializes a new MySQL generator.
func NewGenerator() *Generator {
	return &Generator{}
}

func (g *Generator) Dialect() core.Dialect {
	return core.DialectMySQL
}

// Validate rejects multi-event and INSTEAD OF triggers: a MySQL trigger binds to a single
// event and fires BEFORE or AFTER it.
func (g *Generator) Validate(t *core.ResolvedTrigger) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := dialect.SingleEvent(core.DialectMySQL, t); err != nil {
		return err
	}
	if timing, _ := core.ParseTiming(t.Timing); timing == core.TimingInsteadOf {
		return &core.ValidationError{
			Entity:  "trigger",
			Name:    t.Name,
			Field:   "timing",
			Message: "mysql has no INSTEAD OF triggers; use BEFORE or AFTER",
			Err:     core.ErrInsteadOfNotSupported,
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
		TriggerSQL: fmt.Sprintf("CREATE TRIGGER %s %s %s ON %s FOR EACH ROW\n%s",
			t.Name, strings.ToUpper(t.Timing), event, t.EffectiveTable(), body),
	}
}

// UpdateStatements drops the trigger first since MySQL has no CREATE OR REPLACE TRIGGER.
// The CREATE statement is not terminated: compound bodies contain their own semicolons and
// are sent as a single statement. Scripts wrap it with ClientDelimiter.
func (g *Generator) UpdateStatements(t *core.ResolvedTrigger, a dialect.Artifact) []string {
	sql := strings.TrimSpace(a.TriggerSQL)
	if sql == "" {
		return nil
	}
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", t.Name), sql}
}

func (g *Generator) DropStatements(t *core.ResolvedTrigger) []string {
	return []string{fmt.Sprintf("DROP TRIGGER IF EXISTS %s;", t.Name)}
}

// Delimiter returns ClientDelimiter for CREATE TRIGGER statements.
func (g *Generator) Delimiter(stmt string) string {
	if createTriggerRe.MatchString(strings.TrimSpace(stmt)) {
		return ClientDelimiter
	}
	return ""
}
