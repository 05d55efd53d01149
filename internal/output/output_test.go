package output

import (
	"encoding/json"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigmap/internal/diff"
	"trigmap/internal/migration"
)

func init() {
	color.NoColor = true
}

func sampleDiff() *diff.TriggerDiff {
	return &diff.TriggerDiff{
		MissingInDB:      []string{"trg_audit"},
		MissingInMapping: []string{"trg_legacy"},
		Mismatches: map[string]map[string]diff.FieldChange{
			"trg_orders": {
				diff.FieldTiming: {Expected: "AFTER", Actual: "BEFORE"},
				diff.FieldEvents: {Expected: "insert", Actual: "update"},
			},
		},
	}
}

func sampleMigration() *migration.Migration {
	m := &migration.Migration{}
	m.AddNote("1 trigger(s) for postgresql")
	m.AddStatementWithRollback("trg_audit", "CREATE OR REPLACE FUNCTION fn_audit()", "DROP FUNCTION IF EXISTS fn_audit();")
	m.AddStatementWithRollback("trg_audit", "CREATE OR REPLACE TRIGGER trg_audit", "DROP TRIGGER IF EXISTS trg_audit ON orders;")
	m.AddWarning("trg_x", "trg_x skipped: no storage")
	return m
}

func TestNewFormatter(t *testing.T) {
	for _, name := range []string{"", "human", "JSON", " summary ", "sql"} {
		f, err := NewFormatter(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f)
	}

	_, err := NewFormatter("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestHumanFormatDiff(t *testing.T) {
	f, err := NewFormatter("human")
	require.NoError(t, err)

	out, err := f.FormatDiff(&diff.TriggerDiff{})
	require.NoError(t, err)
	assert.Contains(t, out, "in sync")

	out, err = f.FormatDiff(sampleDiff())
	require.NoError(t, err)
	assert.Contains(t, out, "Triggers missing in the database")
	assert.Contains(t, out, "trg_audit")
	assert.Contains(t, out, "Triggers missing in the mapping")
	assert.Contains(t, out, "trg_legacy")
	assert.Contains(t, out, `timing:   expected "AFTER", got "BEFORE"`)
	assert.Contains(t, out, "3 difference(s) found.")
	assert.NotContains(t, out, "\x1b[")
}

func TestHumanFormatMigration(t *testing.T) {
	f := newHumanFormatter()

	out, err := f.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Equal(t, "Nothing to do.\n", out)

	out, err = f.FormatMigration(sampleMigration())
	require.NoError(t, err)
	assert.Contains(t, out, "[WARNING] trg_x skipped: no storage")
	assert.Contains(t, out, "[NOTE] 1 trigger(s) for postgresql")
	assert.Contains(t, out, "1. CREATE OR REPLACE FUNCTION fn_audit()")
	assert.Contains(t, out, "2. CREATE OR REPLACE TRIGGER trg_audit")
}

func TestJSONFormatDiff(t *testing.T) {
	out, err := jsonFormatter{}.FormatDiff(sampleDiff())
	require.NoError(t, err)

	var payload diffPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, "json", payload.Format)
	assert.False(t, payload.Summary.InSync)
	assert.Equal(t, 1, payload.Summary.MissingInDB)
	assert.Equal(t, 1, payload.Summary.MissingInMapping)
	assert.Equal(t, 1, payload.Summary.Mismatches)
	assert.Equal(t, "BEFORE", payload.Mismatches["trg_orders"]["timing"].Actual)
}

func TestJSONFormatDiffEmptyUsesArrays(t *testing.T) {
	out, err := jsonFormatter{}.FormatDiff(nil)
	require.NoError(t, err)
	assert.Contains(t, out, `"missingInDb": []`)
	assert.Contains(t, out, `"inSync": true`)
}

func TestJSONFormatMigration(t *testing.T) {
	out, err := jsonFormatter{}.FormatMigration(sampleMigration())
	require.NoError(t, err)

	var payload migrationPayload
	require.NoError(t, json.Unmarshal([]byte(out), &payload))
	assert.Equal(t, []string{"trg_audit"}, payload.Triggers)
	assert.Equal(t, 2, payload.Summary.SQLStatements)
	assert.Equal(t, "CREATE OR REPLACE FUNCTION fn_audit();", payload.SQL[0])
	assert.Equal(t, []string{
		"DROP TRIGGER IF EXISTS trg_audit ON orders;",
		"DROP FUNCTION IF EXISTS fn_audit();",
	}, payload.Rollback)
}

func TestSummaryFormatDiff(t *testing.T) {
	out, err := summaryFormatter{}.FormatDiff(sampleDiff())
	require.NoError(t, err)
	assert.Contains(t, out, "Missing in database: 1")
	assert.Contains(t, out, "Mismatched:          1 (events: 1, timing: 1)")
	assert.NotContains(t, out, "In sync.")

	out, err = summaryFormatter{}.FormatDiff(nil)
	require.NoError(t, err)
	assert.Contains(t, out, "In sync.")
}

func TestSummaryFormatMigration(t *testing.T) {
	out, err := summaryFormatter{}.FormatMigration(sampleMigration())
	require.NoError(t, err)
	assert.Contains(t, out, "Triggers:   1")
	assert.Contains(t, out, "Statements: 2")
	assert.Contains(t, out, "Warnings:   1")
}

func TestSQLFormatMigration(t *testing.T) {
	out, err := sqlFormatter{}.FormatMigration(sampleMigration())
	require.NoError(t, err)
	assert.Contains(t, out, "-- trigmap migration")
	assert.Contains(t, out, "-- WARNINGS\n-- - trg_x skipped: no storage")
	assert.Contains(t, out, "-- trigger \"trg_audit\"\nCREATE OR REPLACE TRIGGER trg_audit")
	assert.Contains(t, out, "-- ROLLBACK SQL (run separately)\n-- DROP TRIGGER IF EXISTS trg_audit ON orders;")

	out, err = sqlFormatter{}.FormatMigration(&migration.Migration{})
	require.NoError(t, err)
	assert.Contains(t, out, "-- No SQL statements generated.")
}

func TestSQLFormatDiff(t *testing.T) {
	out, err := sqlFormatter{}.FormatDiff(&diff.TriggerDiff{})
	require.NoError(t, err)
	assert.Equal(t, "-- Mapping and database triggers are in sync.\n", out)
}
