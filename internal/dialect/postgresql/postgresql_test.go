package postgresql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
)

func TestBuildSynthesized(t *testing.T) {
	tr := &core.ResolvedTrigger{
		Name:     "trg_orders",
		Table:    "orders",
		Events:   []string{"insert", "update"},
		Timing:   "before",
		Scope:    "row",
		Function: core.Ptr("fn_orders"),
	}

	a := NewGenerator().Build(tr)
	assert.Equal(t,
		"CREATE OR REPLACE TRIGGER trg_orders BEFORE INSERT OR UPDATE ON orders\nFOR EACH ROW\nEXECUTE FUNCTION fn_orders();",
		a.TriggerSQL)
	assert.Contains(t, a.FunctionSQL, "CREATE OR REPLACE FUNCTION fn_orders()\nRETURNS trigger AS $$")
	assert.Contains(t, a.FunctionSQL, "RETURN NEW;")
	assert.Contains(t, a.FunctionSQL, "$$ LANGUAGE plpgsql;")
}

func TestBuildPlaceholderReturn(t *testing.T) {
	tr := &core.ResolvedTrigger{Name: "t", Table: "x", Events: []string{"delete"}, Timing: "AFTER", Scope: "STATEMENT", Function: core.Ptr("fn")}
	assert.Contains(t, NewGenerator().Build(tr).FunctionSQL, "RETURN NULL;")

	tr.Timing = "INSTEAD OF"
	assert.Contains(t, NewGenerator().Build(tr).FunctionSQL, "RETURN NEW;")
}

func TestBuildFromDefinitionAndContent(t *testing.T) {
	def := "CREATE TRIGGER trg_orders AFTER INSERT ON public.orders FOR EACH ROW EXECUTE FUNCTION fn_orders()"
	body := "BEGIN\n  INSERT INTO audit VALUES (NEW.id);\n  RETURN NULL;\nEND;"
	tr := &core.ResolvedTrigger{
		Name:       "trg_orders",
		Table:      "orders",
		Events:     []string{"INSERT"},
		Timing:     "AFTER",
		Scope:      "ROW",
		Function:   core.Ptr("fn_orders"),
		Definition: &def,
		Content:    &body,
	}

	a := NewGenerator().Build(tr)
	assert.Equal(t, def+";", a.TriggerSQL)
	assert.Contains(t, a.FunctionSQL, "INSERT INTO audit VALUES (NEW.id);")
	assert.NotContains(t, a.FunctionSQL, "trigger logic goes here")
}

func TestValidateRequiresFunction(t *testing.T) {
	tr := &core.ResolvedTrigger{Name: "t", Table: "x", Events: []string{"insert"}, Timing: "AFTER", Scope: "ROW"}
	require.Error(t, NewGenerator().Validate(tr))

	def := "CREATE TRIGGER t AFTER INSERT ON x FOR EACH ROW EXECUTE FUNCTION f()"
	tr.Definition = &def
	assert.NoError(t, NewGenerator().Validate(tr))
}

func TestUpdateStatementsRewriteCreate(t *testing.T) {
	tr := &core.ResolvedTrigger{Name: "t", Table: "x", Function: core.Ptr("f")}
	stmts := NewGenerator().UpdateStatements(tr, dialect.Artifact{
		TriggerSQL:  "CREATE TRIGGER t AFTER INSERT ON x FOR EACH ROW EXECUTE FUNCTION f()",
		FunctionSQL: "create function f() RETURNS trigger AS $$ BEGIN RETURN NULL; END; $$ LANGUAGE plpgsql;",
	})
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE OR REPLACE FUNCTION f() RETURNS trigger AS $$ BEGIN RETURN NULL; END; $$ LANGUAGE plpgsql;", stmts[0])
	assert.Equal(t, "CREATE OR REPLACE TRIGGER t AFTER INSERT ON x FOR EACH ROW EXECUTE FUNCTION f();", stmts[1])
}

func TestReplaceTrigger(t *testing.T) {
	assert.Equal(t, "CREATE OR REPLACE TRIGGER t", ReplaceTrigger("CREATE   TRIGGER t"))
	assert.Equal(t, "CREATE OR REPLACE TRIGGER t", ReplaceTrigger("CREATE OR REPLACE TRIGGER t"))
	assert.Equal(t, "CREATE CONSTRAINT TRIGGER t", ReplaceTrigger("CREATE CONSTRAINT TRIGGER t"))
}

func TestDropStatements(t *testing.T) {
	tr := &core.ResolvedTrigger{Name: "t", Table: "orders", OnTable: core.Ptr("orders_tags"), Function: core.Ptr("f")}
	assert.Equal(t, []string{
		"DROP TRIGGER IF EXISTS t ON orders_tags;",
		"DROP FUNCTION IF EXISTS f();",
	}, NewGenerator().DropStatements(tr))

	tr.Function = nil
	assert.Len(t, NewGenerator().DropStatements(tr), 1)
}
