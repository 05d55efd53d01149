package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTrigger() *ResolvedTrigger {
	return &ResolvedTrigger{
		Name:   "orders_audit",
		Table:  "orders",
		Events: []string{"insert"},
		Timing: "AFTER",
		Scope:  "ROW",
	}
}

func TestParseDialect(t *testing.T) {
	tests := []struct {
		in   string
		want Dialect
	}{
		{"mysql", DialectMySQL},
		{"MariaDB", DialectMySQL},
		{"postgres", DialectPostgreSQL},
		{" pg ", DialectPostgreSQL},
		{"postgresql", DialectPostgreSQL},
		{"mssql", DialectSQLServer},
		{"sqlserver", DialectSQLServer},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDialect(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDialectUnsupported(t *testing.T) {
	_, err := ParseDialect("oracle")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedDialect)
	assert.Contains(t, err.Error(), "oracle")
}

func TestParseEvent(t *testing.T) {
	e, err := ParseEvent(" update ")
	require.NoError(t, err)
	assert.Equal(t, EventUpdate, e)

	_, err = ParseEvent("truncate")
	assert.Error(t, err)
}

func TestParseTiming(t *testing.T) {
	tm, err := ParseTiming("instead   of")
	require.NoError(t, err)
	assert.Equal(t, TimingInsteadOf, tm)

	_, err = ParseTiming("DURING")
	assert.Error(t, err)
}

func TestResolvedTriggerValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validTrigger().Validate())
	})

	tests := []struct {
		name   string
		mutate func(*ResolvedTrigger)
		field  string
	}{
		{"no events", func(tr *ResolvedTrigger) { tr.Events = nil }, "events"},
		{"invalid event", func(tr *ResolvedTrigger) { tr.Events = []string{"select"} }, "events"},
		{"duplicate event", func(tr *ResolvedTrigger) { tr.Events = []string{"insert", "INSERT"} }, "events"},
		{"invalid timing", func(tr *ResolvedTrigger) { tr.Timing = "LATER" }, "timing"},
		{"invalid scope", func(tr *ResolvedTrigger) { tr.Scope = "TABLE" }, "scope"},
		{"empty table", func(tr *ResolvedTrigger) { tr.Table = "" }, "table"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := validTrigger()
			tt.mutate(tr)
			err := tr.Validate()
			require.Error(t, err)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, "orders_audit", ve.Name)
		})
	}
}

func TestEffectiveTable(t *testing.T) {
	tr := validTrigger()
	assert.Equal(t, "orders", tr.EffectiveTable())
	tr.OnTable = Ptr("orders_tags")
	assert.Equal(t, "orders_tags", tr.EffectiveTable())
}

func TestFromRecord(t *testing.T) {
	def := "CREATE TRIGGER t1 AFTER INSERT ON orders FOR EACH ROW EXECUTE FUNCTION f1()"
	rec := TriggerRecord{
		Name:       "t1",
		Table:      "orders",
		Events:     []Event{EventInsert, EventUpdate},
		Timing:     TimingAfter,
		Scope:      ScopeRow,
		Content:    "BEGIN RETURN NULL; END;",
		Definition: &def,
		Function:   Ptr("f1"),
	}

	tr := FromRecord(rec, "default", "sql")
	assert.Equal(t, []string{"INSERT", "UPDATE"}, tr.Events)
	assert.Equal(t, "AFTER", tr.Timing)
	assert.Equal(t, "default", tr.Storage)
	assert.Equal(t, "f1", tr.FunctionName())
	require.NotNil(t, tr.Content)
	assert.Equal(t, rec.Content, *tr.Content)
	assert.Equal(t, def, Deref(tr.Definition))
}

func TestRecordAddEvent(t *testing.T) {
	rec := TriggerRecord{Name: "t1"}
	rec.AddEvent(EventInsert)
	rec.AddEvent(EventInsert)
	rec.AddEvent(EventDelete)
	assert.Equal(t, []Event{EventInsert, EventDelete}, rec.Events)
}

func TestExecutionErrorUnwrap(t *testing.T) {
	cause := errors.New("syntax error")
	err := &ExecutionError{Trigger: "t1", Statement: "CREATE ...", Err: cause}
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), `"t1"`)
	assert.False(t, IsRecoverable(err))
	assert.True(t, IsRecoverable(&ReferenceError{Trigger: "t1", Ref: "function file", Err: ErrSQLFileNotFound}))
}
