// Package postgresql lists user triggers of the public schema together with the function
// each one executes. Timing, scope and events are recovered from the trigger definition
// reconstructed by pg_get_triggerdef.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/introspect"
)

func init() {
	introspect.Register(core.DialectPostgreSQL, New)
}

const listTriggersQuery = `SELECT
    tg.tgname AS trigger_name,
    tbl.relname AS table_name,
    p.proname AS function_name,
    pg_get_triggerdef(tg.oid) AS definition,
    p.prosrc AS content
FROM pg_trigger tg
JOIN pg_class tbl ON tg.tgrelid = tbl.oid
JOIN pg_proc p ON tg.tgfoid = p.oid
JOIN pg_namespace ns ON tbl.relnamespace = ns.oid
WHERE NOT tg.tgisinternal AND ns.nspname = 'public'
ORDER BY tg.tgname`

type postgresqlIntrospecter struct{}

func New() introspect.Introspecter {
	return &postgresqlIntrospecter{}
}

func (i *postgresqlIntrospecter) ListTriggers(ctx context.Context, db introspect.Queryer) (map[string]core.TriggerRecord, error) {
	rows, err := db.QueryContext(ctx, listTriggersQuery)
	if err != nil {
		return nil, fmt.Errorf("query pg_trigger: %w", err)
	}
	defer rows.Close()

	triggers := make(map[string]core.TriggerRecord)
	for rows.Next() {
		var name, table, function, definition string
		var content sql.NullString
		if err := rows.Scan(&name, &table, &function, &definition, &content); err != nil {
			return nil, fmt.Errorf("scan trigger row: %w", err)
		}

		rec := ParseDefinition(definition)
		rec.Name = name
		rec.Table = table
		rec.Content = content.String
		rec.Function = core.Ptr(function)
		def := definition
		rec.Definition = &def

		introspect.Merge(triggers, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return triggers, nil
}

// ParseDefinition derives timing, scope and events from a CREATE TRIGGER statement by
// keyword search. Keywords are matched as whole space-separated tokens, and events are
// only looked for before the ON clause so table or function names cannot leak into them.
func ParseDefinition(definition string) core.TriggerRecord {
	upper := " " + strings.Join(strings.Fields(strings.ToUpper(definition)), " ") + " "
	header := upper
	if idx := strings.Index(header, " EXECUTE "); idx >= 0 {
		header = header[:idx+1]
	}
	if idx := strings.Index(header, " WHEN ("); idx >= 0 {
		header = header[:idx+1]
	}
	events := header
	if idx := strings.Index(events, " ON "); idx >= 0 {
		events = events[:idx+1]
	}

	rec := core.TriggerRecord{Timing: core.TimingUnknown, Scope: core.ScopeUnknown}

	switch {
	case strings.Contains(events, " BEFORE "):
		rec.Timing = core.TimingBefore
	case strings.Contains(events, " AFTER "):
		rec.Timing = core.TimingAfter
	case strings.Contains(events, " INSTEAD OF "):
		rec.Timing = core.TimingInsteadOf
	}

	switch {
	case strings.Contains(header, " FOR EACH ROW "):
		rec.Scope = core.ScopeRow
	case strings.Contains(header, " FOR EACH STATEMENT "):
		rec.Scope = core.ScopeStatement
	case strings.Contains(header, " ROW "):
		rec.Scope = core.ScopeRow
	case strings.Contains(header, " STATEMENT "):
		rec.Scope = core.ScopeStatement
	}

	for _, e := range core.AllEvents() {
		if strings.Contains(events, " "+string(e)+" ") {
			rec.AddEvent(e)
		}
	}

	return rec
}
