// Package migration provides an ordered builder of trigger DDL statements, each paired
// with the statement that reverts it.
package migration

import (
	"slices"
	"strings"

	"trigmap/internal/core"
)

// Migration struct contains all operations that need to be performed
// to bring the database triggers in line with the mapping.
type Migration struct {
	Operations []core.Operation
}

// Plan returns the list of operations that needs to be performed.
func (m *Migration) Plan() []core.Operation {
	return m.Operations
}

// IsEmpty reports whether the migration carries no SQL at all.
func (m *Migration) IsEmpty() bool {
	return len(m.SQLStatements()) == 0 && len(m.RollbackStatements()) == 0
}

// SQLStatements returns the forward statements in application order.
func (m *Migration) SQLStatements() []string {
	return m.filterByKind(core.OperationSQL, func(op core.Operation) string { return op.SQL })
}

// RollbackStatements returns the reverting statements in reverse application order, so a
// trigger is dropped before the function it depends on.
func (m *Migration) RollbackStatements() []string {
	out := m.filterByKind(core.OperationSQL, func(op core.Operation) string { return op.RollbackSQL })
	slices.Reverse(out)
	return out
}

// Notes returns informational notes.
func (m *Migration) Notes() []string {
	return m.filterByKind(core.OperationNote, func(op core.Operation) string { return op.SQL })
}

// Warnings returns the items that were skipped or need attention.
func (m *Migration) Warnings() []string {
	return m.filterByKind(core.OperationWarning, func(op core.Operation) string { return op.SQL })
}

// Triggers returns the distinct trigger names touched by SQL operations, in order.
func (m *Migration) Triggers() []string {
	var out []string
	seen := make(map[string]bool)
	for _, op := range m.Operations {
		if op.Kind != core.OperationSQL || op.Trigger == "" || seen[op.Trigger] {
			continue
		}
		seen[op.Trigger] = true
		out = append(out, op.Trigger)
	}
	return out
}

func (m *Migration) AddStatement(trigger, stmt string) {
	if stmt = strings.TrimSpace(stmt); stmt == "" {
		return
	}
	m.Operations = append(m.Operations, core.Operation{Kind: core.OperationSQL, Trigger: trigger, SQL: stmt})
}

func (m *Migration) AddStatementWithRollback(trigger, up, down string) {
	up = strings.TrimSpace(up)
	down = strings.TrimSpace(down)
	if up == "" && down == "" {
		return
	}
	m.Operations = append(m.Operations, core.Operation{Kind: core.OperationSQL, Trigger: trigger, SQL: up, RollbackSQL: down})
}

// AddCompoundStatement adds a statement whose body holds its own semicolons. Scripts
// render it with delimiter instead of a plain terminator.
func (m *Migration) AddCompoundStatement(trigger, up, down, delimiter string) {
	up = strings.TrimSpace(up)
	if up == "" {
		return
	}
	m.Operations = append(m.Operations, core.Operation{
		Kind:        core.OperationSQL,
		Trigger:     trigger,
		SQL:         up,
		RollbackSQL: strings.TrimSpace(down),
		Delimiter:   delimiter,
	})
}

func (m *Migration) AddNote(msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	m.Operations = append(m.Operations, core.Operation{Kind: core.OperationNote, SQL: msg})
}

func (m *Migration) AddWarning(trigger, msg string) {
	if msg = strings.TrimSpace(msg); msg == "" {
		return
	}
	m.Operations = append(m.Operations, core.Operation{Kind: core.OperationWarning, Trigger: trigger, SQL: msg})
}

// Dedupe drops repeated notes and warnings, and clears rollback statements that
// already appeared earlier in the plan.
func (m *Migration) Dedupe() {
	n := len(m.Operations)
	if n == 0 {
		return
	}
	seenMessage := make(map[core.OperationKind]map[string]struct{}, 2)
	seenRollback := make(map[string]struct{}, n)
	out := make([]core.Operation, 0, n)
	for i := range m.Operations {
		op := m.Operations[i]
		op.SQL = strings.TrimSpace(op.SQL)
		op.RollbackSQL = strings.TrimSpace(op.RollbackSQL)

		switch op.Kind {
		case core.OperationSQL:
			if op.SQL == "" && op.RollbackSQL == "" {
				continue
			}
			if op.RollbackSQL != "" {
				if _, ok := seenRollback[op.RollbackSQL]; ok {
					op.RollbackSQL = ""
				} else {
					seenRollback[op.RollbackSQL] = struct{}{}
				}
			}
		default:
			if op.SQL == "" {
				continue
			}
			seen := seenMessage[op.Kind]
			if seen == nil {
				seen = make(map[string]struct{})
				seenMessage[op.Kind] = seen
			}
			if _, ok := seen[op.SQL]; ok {
				continue
			}
			seen[op.SQL] = struct{}{}
		}
		out = append(out, op)
	}
	m.Operations = out
}

func (m *Migration) filterByKind(kind core.OperationKind, fieldFn func(core.Operation) string) []string {
	out := make([]string, 0, len(m.Operations)/2+1)
	for i := range m.Operations {
		op := &m.Operations[i]
		if op.Kind != kind {
			continue
		}
		val := strings.TrimSpace(fieldFn(*op))
		if val == "" {
			continue
		}
		out = append(out, val)
	}
	return out
}
