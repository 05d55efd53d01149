package introspect_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigmap/internal/core"
	"trigmap/internal/introspect"
	_ "trigmap/internal/introspect/mssql"
	_ "trigmap/internal/introspect/mysql"
	_ "trigmap/internal/introspect/postgresql"
)

var mysqlColumns = []string{"TRIGGER_NAME", "EVENT_OBJECT_TABLE", "EVENT_MANIPULATION", "ACTION_TIMING", "ACTION_STATEMENT"}

func TestListTriggersUnsupportedDialect(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = introspect.ListTriggers(context.Background(), core.Dialect("oracle"), db, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnsupportedDialect)
	assert.Contains(t, err.Error(), "oracle")
}

func TestListTriggersMySQLMergesEvents(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.TRIGGERS").WillReturnRows(
		sqlmock.NewRows(mysqlColumns).
			AddRow("t1", "orders", "INSERT", "AFTER", "BEGIN END").
			AddRow("t1", "orders", "UPDATE", "AFTER", "BEGIN END").
			AddRow("t2", "users", "DELETE", "BEFORE", "SET @x = 1"),
	)

	triggers, err := introspect.ListTriggers(context.Background(), core.DialectMySQL, db, nil)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
	require.Len(t, triggers, 2)

	t1 := triggers["t1"]
	assert.Equal(t, "orders", t1.Table)
	assert.Equal(t, []core.Event{core.EventInsert, core.EventUpdate}, t1.Events)
	assert.Equal(t, core.TimingAfter, t1.Timing)
	assert.Equal(t, core.ScopeRow, t1.Scope)
	assert.Nil(t, t1.Function)
	assert.Nil(t, t1.Definition)

	t2 := triggers["t2"]
	assert.Equal(t, []core.Event{core.EventDelete}, t2.Events)
	assert.Equal(t, core.TimingBefore, t2.Timing)
	assert.Equal(t, "SET @x = 1", t2.Content)
}

func TestListTriggersExclusion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM information_schema.TRIGGERS").WillReturnRows(
		sqlmock.NewRows(mysqlColumns).
			AddRow("keep_me", "orders", "INSERT", "AFTER", "").
			AddRow("legacy_audit", "orders", "INSERT", "AFTER", ""),
	)

	triggers, err := introspect.ListTriggers(context.Background(), core.DialectMySQL, db, []string{"legacy_audit"})
	require.NoError(t, err)
	assert.Contains(t, triggers, "keep_me")
	assert.NotContains(t, triggers, "legacy_audit")
}

func TestListTriggersQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM sys.triggers").WillReturnError(errors.New("login failed"))

	_, err = introspect.ListTriggers(context.Background(), core.DialectSQLServer, db, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "login failed")
}

func TestListTriggersPostgreSQL(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM pg_trigger").WillReturnRows(
		sqlmock.NewRows([]string{"trigger_name", "table_name", "function_name", "definition", "content"}).
			AddRow("trg_orders", "orders", "fn_orders",
				"CREATE TRIGGER trg_orders AFTER INSERT OR UPDATE ON public.orders FOR EACH ROW EXECUTE FUNCTION fn_orders()",
				"BEGIN RETURN NULL; END;"),
	)

	triggers, err := introspect.ListTriggers(context.Background(), core.DialectPostgreSQL, db, nil)
	require.NoError(t, err)
	require.Contains(t, triggers, "trg_orders")

	tr := triggers["trg_orders"]
	assert.Equal(t, "orders", tr.Table)
	assert.Equal(t, []core.Event{core.EventInsert, core.EventUpdate}, tr.Events)
	assert.Equal(t, core.TimingAfter, tr.Timing)
	assert.Equal(t, core.ScopeRow, tr.Scope)
	assert.Equal(t, "fn_orders", core.Deref(tr.Function))
	assert.Equal(t, "BEGIN RETURN NULL; END;", tr.Content)
	require.NotNil(t, tr.Definition)
}

func TestListTriggersSQLServer(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM sys.triggers").WillReturnRows(
		sqlmock.NewRows([]string{"trigger_name", "table_name", "event_type"}).
			AddRow("trg_audit", "orders", "INSERT").
			AddRow("trg_audit", "orders", "DELETE"),
	)

	triggers, err := introspect.ListTriggers(context.Background(), core.DialectSQLServer, db, nil)
	require.NoError(t, err)
	tr := triggers["trg_audit"]
	assert.Equal(t, []core.Event{core.EventInsert, core.EventDelete}, tr.Events)
	assert.Equal(t, core.TimingAfter, tr.Timing)
	assert.Equal(t, core.ScopeRow, tr.Scope)
	assert.Empty(t, tr.Content)
	assert.Nil(t, tr.Function)
}

func TestFilterByTables(t *testing.T) {
	triggers := map[string]core.TriggerRecord{
		"a": {Name: "a", Table: "orders"},
		"b": {Name: "b", Table: "orders_tags"},
		"c": {Name: "c", Table: "users"},
	}

	got := introspect.FilterByTables(triggers, "orders", "orders_tags")
	assert.Len(t, got, 2)
	assert.NotContains(t, got, "c")
}
