// Package apply executes a trigger migration against a live database. Statements run one
// by one without a transaction wrapper: trigger DDL commits implicitly on MySQL, so the
// run stops at the first failure and earlier statements stay applied.
package apply

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/migration"
)

// Execer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Options struct contains all settings available to the user during an update.
type Options struct {
	DryRun bool
	Out    io.Writer
}

// Result summarizes an apply run.
type Result struct {
	Executed int
	Triggers []string
}

// Applier runs the SQL operations of a migration.
type Applier struct {
	db      Execer
	options Options
	out     io.Writer
}

// NewApplier returns an Applier writing progress to options.Out.
func NewApplier(db Execer, options Options) *Applier {
	out := options.Out
	if out == nil {
		out = io.Discard
	}
	return &Applier{db: db, options: options, out: out}
}

// We use custom printf to format and print messages to the output writer.
func (a *Applier) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(a.out, format, args...)
}

func (a *Applier) println(args ...any) {
	_, _ = fmt.Fprintln(a.out, args...)
}

// Apply prints the plan in dry-run mode, otherwise executes every SQL operation of m in
// order. The first failing statement aborts the run with a *core.ExecutionError.
func (a *Applier) Apply(ctx context.Context, m *migration.Migration) (Result, error) {
	ops := sqlOperations(m)
	if a.options.DryRun {
		a.dryRun(m, ops)
		return Result{Triggers: m.Triggers()}, nil
	}

	var res Result
	seen := make(map[string]bool)
	for i, op := range ops {
		a.printf("Executing statement %d/%d for trigger %s: %s\n", i+1, len(ops), op.Trigger, TruncateSQL(op.SQL))
		if _, err := a.db.ExecContext(ctx, op.SQL); err != nil {
			a.printf("%d statement(s) were already applied and are not rolled back\n", res.Executed)
			return res, &core.ExecutionError{Trigger: op.Trigger, Statement: op.SQL, Err: err}
		}
		res.Executed++
		if !seen[op.Trigger] {
			seen[op.Trigger] = true
			res.Triggers = append(res.Triggers, op.Trigger)
		}
	}

	a.printf("Successfully applied %d statements\n", res.Executed)
	return res, nil
}

func (a *Applier) dryRun(m *migration.Migration, ops []core.Operation) {
	a.println("=== DRY RUN MODE ===")

	if warnings := m.Warnings(); len(warnings) > 0 {
		a.println("--- Warnings ---")
		for _, w := range warnings {
			a.printf("  - %s\n", w)
		}
	}

	a.println("--- Statements to Execute ---")
	if len(ops) == 0 {
		a.println("Nothing to execute")
	}
	for i, op := range ops {
		a.printf("%d. [%s] %s\n\n", i+1, op.Trigger, op.SQL)
	}

	a.println("=== DRY RUN COMPLETE ===")
	a.println("Run with --force to apply.")
}

func sqlOperations(m *migration.Migration) []core.Operation {
	if m == nil {
		return nil
	}
	var out []core.Operation
	for _, op := range m.Plan() {
		if op.Kind == core.OperationSQL && strings.TrimSpace(op.SQL) != "" {
			out = append(out, op)
		}
	}
	return out
}

// TruncateSQL shortens a statement for one-line display.
func TruncateSQL(stmt string) string {
	stmt = strings.Join(strings.Fields(stmt), " ")
	if len(stmt) > 80 {
		return stmt[:77] + "..."
	}
	return stmt
}
