package dialect_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
	"trigmap/internal/migration"
	_ "trigmap/internal/dialect/mssql"
	_ "trigmap/internal/dialect/mysql"
	_ "trigmap/internal/dialect/postgresql"
)

func trigger(events ...string) *core.ResolvedTrigger {
	return &core.ResolvedTrigger{
		Name:     "trg_orders",
		Table:    "orders",
		Events:   events,
		Timing:   "AFTER",
		Scope:    "ROW",
		Function: core.Ptr("fn_orders"),
	}
}

func TestGetUnsupported(t *testing.T) {
	_, err := dialect.Get(core.Dialect("oracle"))
	assert.ErrorIs(t, err, core.ErrUnsupportedDialect)
}

func TestMultiEventLegality(t *testing.T) {
	tr := trigger("INSERT", "UPDATE")

	_, err := dialect.Build(core.DialectMySQL, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMultipleEvents)

	_, err = dialect.Build(core.DialectSQLServer, tr)
	assert.ErrorIs(t, err, core.ErrMultipleEvents)

	a, err := dialect.Build(core.DialectPostgreSQL, tr)
	require.NoError(t, err)
	assert.Contains(t, a.TriggerSQL, "AFTER INSERT OR UPDATE ON orders")
}

func TestSQLServerTimingLegality(t *testing.T) {
	tr := trigger("insert")
	tr.Timing = "BEFORE"

	_, err := dialect.Build(core.DialectSQLServer, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrBeforeNotSupported)
	var ve *core.ValidationError
	assert.True(t, errors.As(err, &ve))

	tr.Timing = "AFTER"
	a, err := dialect.Build(core.DialectSQLServer, tr)
	require.NoError(t, err)
	assert.Contains(t, a.TriggerSQL, "CREATE OR ALTER TRIGGER trg_orders ON orders AFTER INSERT AS")
	assert.False(t, a.HasFunction())
}

func TestBuildRejectsInvalidTrigger(t *testing.T) {
	tr := trigger("truncate")
	_, err := dialect.Build(core.DialectPostgreSQL, tr)
	var ve *core.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "events", ve.Field)
}

func TestGenerateMigrationPostgreSQL(t *testing.T) {
	triggers := []core.ResolvedTrigger{*trigger("insert")}
	second := trigger("delete")
	second.Name = "trg_archive"
	second.Function = core.Ptr("fn_archive")
	triggers = append(triggers, *second)

	m, err := dialect.GenerateMigration(core.DialectPostgreSQL, triggers)
	require.NoError(t, err)

	assert.Equal(t, []string{"trg_archive", "trg_orders"}, m.Triggers())
	stmts := m.SQLStatements()
	require.Len(t, stmts, 4)
	assert.Contains(t, stmts[0], "CREATE OR REPLACE FUNCTION fn_archive()")
	assert.Contains(t, stmts[1], "CREATE OR REPLACE TRIGGER trg_archive")

	assert.Equal(t, []string{
		"DROP TRIGGER IF EXISTS trg_orders ON orders;",
		"DROP FUNCTION IF EXISTS fn_orders();",
		"DROP TRIGGER IF EXISTS trg_archive ON orders;",
		"DROP FUNCTION IF EXISTS fn_archive();",
	}, m.RollbackStatements())
	assert.Equal(t, []string{"2 trigger(s) for postgresql"}, m.Notes())
}

func TestGenerateMigrationMySQL(t *testing.T) {
	m, err := dialect.GenerateMigration(core.DialectMySQL, []core.ResolvedTrigger{*trigger("insert")})
	require.NoError(t, err)

	stmts := m.SQLStatements()
	require.Len(t, stmts, 2)
	assert.Equal(t, "DROP TRIGGER IF EXISTS trg_orders;", stmts[0])
	assert.Contains(t, stmts[1], "CREATE TRIGGER trg_orders AFTER INSERT ON orders FOR EACH ROW")
	assert.Equal(t, []string{"DROP TRIGGER IF EXISTS trg_orders;"}, m.RollbackStatements())
}

func TestGenerateMigrationMySQLScriptDelimitsCompoundBodies(t *testing.T) {
	body := "BEGIN\n    SET NEW.total = 1;\nEND"
	first := trigger("insert")
	first.Name = "trg_a"
	first.Content = &body
	second := trigger("update")
	second.Name = "trg_b"
	second.Timing = "BEFORE"
	second.Content = &body

	m, err := dialect.GenerateMigration(core.DialectMySQL, []core.ResolvedTrigger{*second, *first})
	require.NoError(t, err)

	// Statements sent through the driver stay undelimited.
	assert.Equal(t, "CREATE TRIGGER trg_a AFTER INSERT ON orders FOR EACH ROW\n"+body, m.SQLStatements()[1])

	assert.Equal(t,
		"-- trigger \"trg_a\"\nDROP TRIGGER IF EXISTS trg_a;\n"+
			"-- trigger \"trg_a\"\nDELIMITER //\nCREATE TRIGGER trg_a AFTER INSERT ON orders FOR EACH ROW\n"+body+"\n//\nDELIMITER ;\n"+
			"-- trigger \"trg_b\"\nDROP TRIGGER IF EXISTS trg_b;\n"+
			"-- trigger \"trg_b\"\nDELIMITER //\nCREATE TRIGGER trg_b BEFORE UPDATE ON orders FOR EACH ROW\n"+body+"\n//\nDELIMITER ;\n",
		migration.RenderUp(m))
}

func TestGenerateMigrationSQLServerScriptSeparatesBatches(t *testing.T) {
	m, err := dialect.GenerateMigration(core.DialectSQLServer, []core.ResolvedTrigger{*trigger("insert")})
	require.NoError(t, err)

	up := migration.RenderUp(m)
	assert.Contains(t, up, "CREATE OR ALTER TRIGGER trg_orders ON orders AFTER INSERT AS")
	assert.True(t, strings.HasSuffix(up, "END\nGO\n"), up)
}

func TestMySQLTimingLegality(t *testing.T) {
	tr := trigger("insert")
	tr.Timing = "instead of"

	_, err := dialect.Build(core.DialectMySQL, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsteadOfNotSupported)
}

func TestGenerateMigrationStopsOnInvalid(t *testing.T) {
	_, err := dialect.GenerateMigration(core.DialectMySQL, []core.ResolvedTrigger{*trigger("insert", "delete")})
	assert.ErrorIs(t, err, core.ErrMultipleEvents)
}

func TestTerminateAndIndent(t *testing.T) {
	assert.Equal(t, "SELECT 1;", dialect.Terminate("SELECT 1"))
	assert.Equal(t, "SELECT 1;", dialect.Terminate(" SELECT 1; "))
	assert.Equal(t, "", dialect.Terminate("  "))
	assert.Equal(t, "  a\n\n  b", dialect.Indent("a\n\nb\n", "  "))
}
