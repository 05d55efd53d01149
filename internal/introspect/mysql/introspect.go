// Package mysql contains the trigger introspect implementation for MySQL and MariaDB,
// since they share the same information_schema layout.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"trigmap/internal/core"
	"trigmap/internal/introspect"
)

func init() {
	introspect.Register(core.DialectMySQL, New)
}

const listTriggersQuery = `SELECT
    TRIGGER_NAME,
    EVENT_OBJECT_TABLE,
    EVENT_MANIPULATION,
    ACTION_TIMING,
    ACTION_STATEMENT
FROM information_schema.TRIGGERS
WHERE TRIGGER_SCHEMA = DATABASE()
ORDER BY TRIGGER_NAME, ACTION_ORDER`

type introspecter struct{}

func New() introspect.Introspecter {
	return &introspecter{}
}

// ListTriggers maps every information_schema row onto a single-event record. MySQL
// triggers are always row-level and never backed by a separate function.
func (i *introspecter) ListTriggers(ctx context.Context, db introspect.Queryer) (map[string]core.TriggerRecord, error) {
	rows, err := db.QueryContext(ctx, listTriggersQuery)
	if err != nil {
		return nil, fmt.Errorf("query information_schema.TRIGGERS: %w", err)
	}
	defer rows.Close()

	triggers := make(map[string]core.TriggerRecord)
	for rows.Next() {
		var name, table, event, timing string
		var statement sql.NullString
		if err := rows.Scan(&name, &table, &event, &timing, &statement); err != nil {
			return nil, fmt.Errorf("scan trigger row: %w", err)
		}

		introspect.Merge(triggers, core.TriggerRecord{
			Name:    name,
			Table:   table,
			Events:  []core.Event{core.Event(strings.ToUpper(event))},
			Timing:  core.Timing(strings.ToUpper(timing)),
			Scope:   core.ScopeRow,
			Content: statement.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return triggers, nil
}
