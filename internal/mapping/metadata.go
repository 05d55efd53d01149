// Package mapping turns the trigger declarations attached to entities into canonical
// core.ResolvedTrigger values. Declarations come from an explicit registry (see
// internal/parser/toml) instead of runtime annotation lookup.
package mapping

import "strings"

// Declaration defaults, applied when a field is left empty.
const (
	DefaultEvent  = "insert"
	DefaultTiming = "AFTER"
	DefaultScope  = "ROW"
)

// TriggerDeclaration is a single trigger declared on an entity. An entity may carry
// any number of them.
type TriggerDeclaration struct {
	Name      string   `toml:"name"`
	Function  string   `toml:"function,omitempty"`
	On        []string `toml:"on,omitempty"`
	When      string   `toml:"when,omitempty"`
	Scope     string   `toml:"scope,omitempty"`
	Storage   string   `toml:"storage,omitempty"`
	ClassName string   `toml:"class_name,omitempty"`
	OnTable   string   `toml:"on_table,omitempty"`
}

// WithDefaults returns a copy of d with empty fields filled in.
func (d TriggerDeclaration) WithDefaults() TriggerDeclaration {
	if len(d.On) == 0 {
		d.On = []string{DefaultEvent}
	}
	if strings.TrimSpace(d.When) == "" {
		d.When = DefaultTiming
	}
	if strings.TrimSpace(d.Scope) == "" {
		d.Scope = DefaultScope
	}
	return d
}

// EntityMetadata is what the mapping needs to know about one entity type.
type EntityMetadata struct {
	ClassName  string               `toml:"class"`
	Namespace  string               `toml:"namespace"`
	TableName  string               `toml:"table"`
	JoinTables []string             `toml:"join_tables,omitempty"`
	Triggers   []TriggerDeclaration `toml:"triggers,omitempty"`
}

// Matches reports whether name designates this entity, either by its bare class name or
// qualified with its namespace.
func (e *EntityMetadata) Matches(name string) bool {
	name = strings.TrimSpace(name)
	if name == e.ClassName {
		return true
	}
	ns := strings.Trim(e.Namespace, `\/`)
	return name == ns+`\`+e.ClassName || name == ns+"."+e.ClassName || name == ns+"/"+e.ClassName
}

// Tables returns the entity's table followed by its join tables.
func (e *EntityMetadata) Tables() []string {
	return append([]string{e.TableName}, e.JoinTables...)
}

// Source supplies every known entity.
type Source interface {
	AllMetadata() []EntityMetadata
}

// Writer persists a new trigger declaration on an entity.
type Writer interface {
	AddTrigger(entityClass string, decl TriggerDeclaration) error
}
