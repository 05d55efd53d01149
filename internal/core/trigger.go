// Package core contains the canonical trigger model shared by every other package.
// Triggers observed in a live database and triggers declared in the mapping are both
// expressed with the types below, so they can be compared field by field.
package core

import (
	"fmt"
	"slices"
	"strings"
)

// Dialect identifies a supported SQL dialect.
type Dialect string

const (
	DialectMySQL      Dialect = "mysql"
	DialectPostgreSQL Dialect = "postgresql"
	DialectSQLServer  Dialect = "sqlserver"
)

var dialectAliases = map[string]Dialect{
	"mysql":      DialectMySQL,
	"mariadb":    DialectMySQL,
	"postgresql": DialectPostgreSQL,
	"postgres":   DialectPostgreSQL,
	"pg":         DialectPostgreSQL,
	"pgsql":      DialectPostgreSQL,
	"sqlserver":  DialectSQLServer,
	"mssql":      DialectSQLServer,
}

// SupportedDialects returns a slice of all supported dialect values.
func SupportedDialects() []Dialect {
	return []Dialect{DialectMySQL, DialectPostgreSQL, DialectSQLServer}
}

// ParseDialect resolves a platform name (or one of its aliases) into a Dialect.
func ParseDialect(raw string) (Dialect, error) {
	d, ok := dialectAliases[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q; supported: %v", ErrUnsupportedDialect, raw, SupportedDialects())
	}
	return d, nil
}

// Timing tells whether a trigger fires before or after the triggering event.
type Timing string

const (
	TimingBefore    Timing = "BEFORE"
	TimingAfter     Timing = "AFTER"
	TimingInsteadOf Timing = "INSTEAD OF"
	TimingUnknown   Timing = "UNKNOWN"
)

// Scope tells whether a trigger fires once per row or once per statement.
type Scope string

const (
	ScopeRow       Scope = "ROW"
	ScopeStatement Scope = "STATEMENT"
	ScopeUnknown   Scope = "UNKNOWN"
)

// Event is a DML event a trigger can be bound to.
type Event string

const (
	EventInsert Event = "INSERT"
	EventUpdate Event = "UPDATE"
	EventDelete Event = "DELETE"
)

// AllEvents returns the events in their canonical order.
func AllEvents() []Event {
	return []Event{EventInsert, EventUpdate, EventDelete}
}

// TriggerRecord is a trigger as observed in a live database.
type TriggerRecord struct {
	Name       string  `json:"name"`
	Table      string  `json:"table"`
	Events     []Event `json:"events"`
	Timing     Timing  `json:"timing"`
	Scope      Scope   `json:"scope"`
	Content    string  `json:"content,omitempty"`
	Definition *string `json:"definition,omitempty"`
	Function   *string `json:"function,omitempty"`
}

// HasEvent reports whether the record is bound to e.
func (r *TriggerRecord) HasEvent(e Event) bool {
	return slices.Contains(r.Events, e)
}

// AddEvent adds e to the record's events unless it is already present.
func (r *TriggerRecord) AddEvent(e Event) {
	if !r.HasEvent(e) {
		r.Events = append(r.Events, e)
	}
}

// ResolvedTrigger is a trigger as declared in the mapping, with its storage resolved.
// Name is the join key between declared and observed triggers.
type ResolvedTrigger struct {
	Name        string   `json:"name"`
	Table       string   `json:"table"`
	Events      []string `json:"events"`
	Timing      string   `json:"timing"`
	Scope       string   `json:"scope"`
	Storage     string   `json:"storage"`
	StorageKind string   `json:"storageKind"`
	Function    *string  `json:"function,omitempty"`
	Definition  *string  `json:"definition,omitempty"`
	Content     *string  `json:"content,omitempty"`
	OnTable     *string  `json:"onTable,omitempty"`
	ClassName   *string  `json:"className,omitempty"`
}

// EffectiveTable returns the table the trigger is physically attached to.
func (t *ResolvedTrigger) EffectiveTable() string {
	if t.OnTable != nil && *t.OnTable != "" {
		return *t.OnTable
	}
	return t.Table
}

// FunctionName returns the associated function name, or "" when there is none.
func (t *ResolvedTrigger) FunctionName() string {
	return Deref(t.Function)
}

// UpperEvents returns the declared events upper-cased, in declaration order.
func (t *ResolvedTrigger) UpperEvents() []string {
	out := make([]string, 0, len(t.Events))
	for _, e := range t.Events {
		out = append(out, strings.ToUpper(strings.TrimSpace(e)))
	}
	return out
}

// FromRecord builds a ResolvedTrigger out of an observed record, backfilling the
// definition and content so artifacts can be regenerated from the database.
func FromRecord(r TriggerRecord, storage, storageKind string) ResolvedTrigger {
	events := make([]string, 0, len(r.Events))
	for _, e := range r.Events {
		events = append(events, string(e))
	}
	t := ResolvedTrigger{
		Name:        r.Name,
		Table:       r.Table,
		Events:      events,
		Timing:      string(r.Timing),
		Scope:       string(r.Scope),
		Storage:     storage,
		StorageKind: storageKind,
		Function:    r.Function,
		Definition:  r.Definition,
	}
	if r.Content != "" {
		content := r.Content
		t.Content = &content
	}
	return t
}

// Ptr returns a pointer to s, or nil for an empty string.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Deref returns the pointed string or "".
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// PtrEqual compares two nullable strings; nil equals nil.
func PtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
