package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedDialect    = errors.New("unsupported database platform")
	ErrNotAnEntity           = errors.New("not a mapped entity")
	ErrInvalidStorage        = errors.New("invalid storage")
	ErrNoCommonNamespace     = errors.New("cannot determine a common namespace")
	ErrMissingNamespace      = errors.New("storage has no namespace configured")
	ErrUnknownStorage        = errors.New("unknown storage")
	ErrMultipleEvents        = errors.New("multiple events are not supported for a single trigger")
	ErrBeforeNotSupported    = errors.New("BEFORE triggers are not supported")
	ErrInsteadOfNotSupported = errors.New("INSTEAD OF triggers are not supported")
	ErrDuplicateTrigger      = errors.New("duplicate trigger name")
	ErrAlreadyExists         = errors.New("artifact already exists")
	ErrSQLFileNotFound       = errors.New("could not find trigger sql file")
	ErrFunctionNotSupported  = errors.New("dialect has no separate trigger function")
	ErrInvalidTriggerClass   = errors.New("not a valid trigger class")
)

// ConfigError reports a fatal, non-retryable configuration problem.
type ConfigError struct {
	Key string
	Err error
}

func (e *ConfigError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("config error in %q: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("config error: %v", e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ReferenceError is recoverable at the item level: callers warn and move on.
type ReferenceError struct {
	Trigger string
	Ref     string
	Err     error
}

func (e *ReferenceError) Error() string {
	return fmt.Sprintf("trigger %q: %s: %v", e.Trigger, e.Ref, e.Err)
}

func (e *ReferenceError) Unwrap() error { return e.Err }

// ConflictError is returned when an artifact to be generated already exists.
type ConflictError struct {
	Path string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrAlreadyExists, e.Path)
}

func (e *ConflictError) Unwrap() error { return ErrAlreadyExists }

// ExecutionError wraps a failed DDL statement together with the trigger it belongs to.
type ExecutionError struct {
	Trigger   string
	Statement string
	Err       error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("an error occurred while executing the query for trigger %q: %v", e.Trigger, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }

// IsRecoverable reports whether err only concerns a single item and processing may continue.
func IsRecoverable(err error) bool {
	var ref *ReferenceError
	return errors.As(err, &ref)
}
