package generate

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trigmap/internal/core"
	"trigmap/internal/dialect"
)

func TestRenderClass(t *testing.T) {
	src, err := RenderClass("dbtriggers", "OrderAudit", pgTrigger("classes"), pgArtifact)
	require.NoError(t, err)

	out := string(src)
	assert.Contains(t, out, "package dbtriggers")
	assert.Contains(t, out, "type OrderAudit struct{}")
	assert.Contains(t, out, "func (OrderAudit) TriggerSQL() string")
	assert.Contains(t, out, "func (OrderAudit) FunctionSQL() string")

	methods, err := ExtractMethods(src, "OrderAudit")
	require.NoError(t, err)
	assert.Equal(t, "trg_orders_audit", methods["Name"])
	assert.Equal(t, pgArtifact.TriggerSQL, methods["TriggerSQL"])
	assert.Equal(t, pgArtifact.FunctionSQL, methods["FunctionSQL"])
}

func TestRenderClassWithBackticks(t *testing.T) {
	a := dialect.Artifact{TriggerSQL: "CREATE TRIGGER `t` AFTER INSERT ON `orders` FOR EACH ROW\nBEGIN\nEND"}
	src, err := RenderClass("triggers", "T", pgTrigger("classes"), a)
	require.NoError(t, err)
	assert.NotContains(t, string(src), "FunctionSQL")

	methods, err := ExtractMethods(src, "T")
	require.NoError(t, err)
	assert.Equal(t, a.TriggerSQL, methods["TriggerSQL"])
}

func TestExtractMethodsErrors(t *testing.T) {
	_, err := ExtractMethods([]byte("package x\nfunc {"), "T")
	assert.ErrorIs(t, err, core.ErrInvalidTriggerClass)

	_, err = ExtractMethods([]byte("package x\ntype Other struct{}\n"), "T")
	assert.ErrorIs(t, err, core.ErrInvalidTriggerClass)

	methods, err := ExtractMethods([]byte(`package x
type T struct{}
func (*T) TriggerSQL() string { return "a" }
func (T) Computed() string { s := "b"; return s }
func (Other) FunctionSQL() string { return "c" }
`), "T")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"TriggerSQL": "a"}, methods)
}

func TestWriteAndReadClass(t *testing.T) {
	s, fs := newStore(t, core.DialectPostgreSQL)
	tr := pgTrigger("classes")
	tr.ClassName = core.Ptr("OrderAudit")

	written, err := s.Write(tr, pgArtifact)
	require.NoError(t, err)
	p := filepath.Join("/app/internal/dbtriggers", "order_audit.go")
	assert.Equal(t, []string{p}, written)

	src, err := afero.ReadFile(fs, p)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package dbtriggers")

	loaded, err := s.Read(tr)
	require.NoError(t, err)
	assert.Equal(t, pgArtifact, loaded.Artifact)

	_, err = s.Write(tr, pgArtifact)
	assert.ErrorIs(t, err, core.ErrAlreadyExists)
}

func TestReadClassWithoutClassName(t *testing.T) {
	s, _ := newStore(t, core.DialectPostgreSQL)

	_, err := s.Read(pgTrigger("classes"))
	require.Error(t, err)
	assert.True(t, core.IsRecoverable(err))
	assert.True(t, errors.Is(err, core.ErrInvalidTriggerClass))
}

func TestReadClassMissingFile(t *testing.T) {
	s, _ := newStore(t, core.DialectMySQL)
	tr := pgTrigger("classes")
	tr.ClassName = core.Ptr("Missing")

	_, err := s.Read(tr)
	assert.ErrorIs(t, err, core.ErrInvalidTriggerClass)
	assert.False(t, core.IsRecoverable(err))
}
