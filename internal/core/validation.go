package core

import (
	"fmt"
	"strings"
)

// ValidationError represents an invalid trigger declaration or combination.
type ValidationError struct {
	Entity  string
	Name    string
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error in %s %q field %q: %s", e.Entity, e.Name, e.Field, e.Message)
	}
	return fmt.Sprintf("validation error in %s %q: %s", e.Entity, e.Name, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ParseEvent validates an event name case-insensitively.
func ParseEvent(raw string) (Event, error) {
	e := Event(strings.ToUpper(strings.TrimSpace(raw)))
	switch e {
	case EventInsert, EventUpdate, EventDelete:
		return e, nil
	default:
		return "", fmt.Errorf("invalid event %q; expected one of %v", raw, AllEvents())
	}
}

// ParseTiming validates a timing value case-insensitively.
func ParseTiming(raw string) (Timing, error) {
	t := Timing(strings.ToUpper(strings.Join(strings.Fields(raw), " ")))
	switch t {
	case TimingBefore, TimingAfter, TimingInsteadOf:
		return t, nil
	default:
		return "", fmt.Errorf("invalid timing %q; expected BEFORE, AFTER or INSTEAD OF", raw)
	}
}

// ParseScope validates a scope value case-insensitively.
func ParseScope(raw string) (Scope, error) {
	s := Scope(strings.ToUpper(strings.TrimSpace(raw)))
	switch s {
	case ScopeRow, ScopeStatement:
		return s, nil
	default:
		return "", fmt.Errorf("invalid scope %q; expected ROW or STATEMENT", raw)
	}
}

// Validate checks the declared fields of a trigger. It does not apply
// dialect-specific rules; those live with the artifact builders.
func (t *ResolvedTrigger) Validate() error {
	if t == nil {
		return &ValidationError{Entity: "trigger", Message: "trigger is nil"}
	}
	if strings.TrimSpace(t.Name) == "" {
		return &ValidationError{Entity: "trigger", Name: "(empty)", Message: "trigger name is empty"}
	}
	if strings.TrimSpace(t.Table) == "" && t.OnTable == nil {
		return &ValidationError{Entity: "trigger", Name: t.Name, Field: "table", Message: "table is empty"}
	}
	if len(t.Events) == 0 {
		return &ValidationError{Entity: "trigger", Name: t.Name, Field: "events", Message: "at least one event is required"}
	}
	seen := make(map[Event]bool, len(t.Events))
	for _, raw := range t.Events {
		e, err := ParseEvent(raw)
		if err != nil {
			return &ValidationError{Entity: "trigger", Name: t.Name, Field: "events", Message: err.Error()}
		}
		if seen[e] {
			return &ValidationError{Entity: "trigger", Name: t.Name, Field: "events", Message: fmt.Sprintf("duplicate event %q", raw)}
		}
		seen[e] = true
	}
	if _, err := ParseTiming(t.Timing); err != nil {
		return &ValidationError{Entity: "trigger", Name: t.Name, Field: "timing", Message: err.Error()}
	}
	if _, err := ParseScope(t.Scope); err != nil {
		return &ValidationError{Entity: "trigger", Name: t.Name, Field: "scope", Message: err.Error()}
	}
	return nil
}
