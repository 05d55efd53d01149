// Package mssql lists DML triggers of a SQL Server database. The catalog yields one row per
// (trigger, event) pair, which are merged into multi-event records. Trigger bodies are not
// recovered here: that would need a separate OBJECT_DEFINITION call per trigger.
package mssql

import (
	"context"
	"fmt"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/introspect"
)

func init() {
	introspect.Register(core.DialectSQLServer, New)
}

const listTriggersQuery = `SELECT
    t.name AS trigger_name,
    o.name AS table_name,
    te.type_desc AS event_type
FROM sys.triggers t
JOIN sys.trigger_events te ON t.object_id = te.object_id
JOIN sys.objects o ON t.parent_id = o.object_id
WHERE t.parent_class = 1
ORDER BY t.name`

type mssqlIntrospecter struct{}

func New() introspect.Introspecter {
	return &mssqlIntrospecter{}
}

func (i *mssqlIntrospecter) ListTriggers(ctx context.Context, db introspect.Queryer) (map[string]core.TriggerRecord, error) {
	rows, err := db.QueryContext(ctx, listTriggersQuery)
	if err != nil {
		return nil, fmt.Errorf("query sys.triggers: %w", err)
	}
	defer rows.Close()

	triggers := make(map[string]core.TriggerRecord)
	for rows.Next() {
		var name, table, event string
		if err := rows.Scan(&name, &table, &event); err != nil {
			return nil, fmt.Errorf("scan trigger row: %w", err)
		}

		introspect.Merge(triggers, core.TriggerRecord{
			Name:   name,
			Table:  table,
			Events: []core.Event{core.Event(strings.ToUpper(strings.TrimSpace(event)))},
			Timing: core.TimingAfter,
			Scope:  core.ScopeRow,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return triggers, nil
}
