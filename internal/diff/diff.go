// Package diff reconciles the triggers declared in the mapping against the triggers
// observed in a live database.
package diff

import (
	"sort"
	"strings"

	"trigmap/internal/core"
)

// Field names reported in TriggerDiff.Mismatches.
const (
	FieldTable    = "table"
	FieldEvents   = "events"
	FieldTiming   = "timing"
	FieldScope    = "scope"
	FieldFunction = "function"
)

// FieldChange holds the declared and observed values of one differing field.
type FieldChange struct {
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// TriggerDiff is the reconciliation report. Names are sorted.
type TriggerDiff struct {
	MissingInDB      []string                          `json:"missing_in_db"`
	MissingInMapping []string                          `json:"missing_in_mapping"`
	Mismatches       map[string]map[string]FieldChange `json:"mismatches"`
}

// Diff compares mapped against observed, correlating them by trigger name only.
func Diff(mapped map[string]core.ResolvedTrigger, observed map[string]core.TriggerRecord) *TriggerDiff {
	d := &TriggerDiff{
		MissingInDB:      []string{},
		MissingInMapping: []string{},
		Mismatches:       make(map[string]map[string]FieldChange),
	}

	for name, m := range mapped {
		o, ok := observed[name]
		if !ok {
			d.MissingInDB = append(d.MissingInDB, name)
			continue
		}
		if changes := compareTrigger(&m, &o); len(changes) > 0 {
			d.Mismatches[name] = changes
		}
	}

	for name := range observed {
		if _, ok := mapped[name]; !ok {
			d.MissingInMapping = append(d.MissingInMapping, name)
		}
	}

	sort.Strings(d.MissingInDB)
	sort.Strings(d.MissingInMapping)

	return d
}

// IsEmpty reports whether mapping and database agree.
func (d *TriggerDiff) IsEmpty() bool {
	return len(d.MissingInDB) == 0 && len(d.MissingInMapping) == 0 && len(d.Mismatches) == 0
}

// MismatchedNames returns the names present in Mismatches, sorted.
func (d *TriggerDiff) MismatchedNames() []string {
	names := make([]string, 0, len(d.Mismatches))
	for name := range d.Mismatches {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of findings.
func (d *TriggerDiff) Count() int {
	return len(d.MissingInDB) + len(d.MissingInMapping) + len(d.Mismatches)
}

func compareTrigger(m *core.ResolvedTrigger, o *core.TriggerRecord) map[string]FieldChange {
	c := fieldChangeCollector{changes: make(map[string]FieldChange)}

	if m.Table != o.Table && (m.OnTable == nil || *m.OnTable != o.Table) {
		c.add(FieldTable, m.EffectiveTable(), o.Table)
	}

	observedEvents := make([]string, len(o.Events))
	for i, e := range o.Events {
		observedEvents[i] = string(e)
	}
	if !equalEventSets(m.Events, observedEvents) {
		c.add(FieldEvents, strings.Join(m.Events, ", "), strings.Join(observedEvents, ", "))
	}

	if m.Timing != string(o.Timing) {
		c.add(FieldTiming, m.Timing, string(o.Timing))
	}
	if m.Scope != string(o.Scope) {
		c.add(FieldScope, m.Scope, string(o.Scope))
	}
	if !core.PtrEqual(m.Function, o.Function) {
		c.add(FieldFunction, nullable(m.Function), nullable(o.Function))
	}

	return c.changes
}

type fieldChangeCollector struct {
	changes map[string]FieldChange
}

func (c *fieldChangeCollector) add(field, expected, actual string) {
	c.changes[field] = FieldChange{Expected: expected, Actual: actual}
}

// equalEventSets compares two event lists as lower-cased sorted sequences.
func equalEventSets(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	na, nb := normalizeEvents(a), normalizeEvents(b)
	for i := range na {
		if na[i] != nb[i] {
			return false
		}
	}
	return true
}

func normalizeEvents(events []string) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = strings.ToLower(strings.TrimSpace(e))
	}
	sort.Strings(out)
	return out
}

func nullable(p *string) string {
	if p == nil {
		return "NULL"
	}
	return *p
}
