package core

// OperationKind is used to identify what kind of operation is being performed by migration.
type OperationKind string

const (
	OperationSQL     OperationKind = "SQL"
	OperationNote    OperationKind = "NOTE"
	OperationWarning OperationKind = "WARNING"
)

// Operation struct contains all information about a single operation of migration.
// Trigger names the trigger the statement belongs to, so failures can be reported against it.
// Delimiter is set on compound statements that a script must wrap or separate explicitly.
type Operation struct {
	Kind    OperationKind `json:"kind"`
	Trigger string        `json:"trigger,omitempty"`

	SQL         string `json:"sql,omitempty"`
	RollbackSQL string `json:"rollbackSql,omitempty"`
	Delimiter   string `json:"delimiter,omitempty"`
}
