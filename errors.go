package nextconfig

import (
	"errors"
	"fmt"
)

// Errors returned by registry and store operations.
var (
	// ErrAlreadyRegistered indicates an attempt to register a duplicate
	// schema, file name, or migration step.
	ErrAlreadyRegistered = errors.New("config already registered")

	// ErrUnregistered indicates an operation on a schema that was never
	// registered.
	ErrUnregistered = errors.New("config not registered")

	// ErrFutureVersion indicates a record whose version is newer than the
	// schema's current version. Migration is forward-only.
	ErrFutureVersion = errors.New("record version is newer than the schema version")
)

// UnregisteredError reports an operation requested for a schema that was
// never registered. FileName is the schema's declared file name.
type UnregisteredError struct {
	FileName string
}

// Error implements the error interface.
func (e *UnregisteredError) Error() string {
	return fmt.Sprintf("config not registered: %s", e.FileName)
}

// Is reports a match against ErrUnregistered.
func (e *UnregisteredError) Is(target error) bool {
	return target == ErrUnregistered
}

// DecodeError reports a record that could not be parsed from disk or
// could not be decoded into its schema type.
type DecodeError struct {
	// FileName is the schema's file name.
	FileName string
	// Reason describes what failed.
	Reason string
	// Err is the underlying error, if any.
	Err error
}

// Error implements the error interface.
func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decoding %s: %s: %v", e.FileName, e.Reason, e.Err)
	}
	return fmt.Sprintf("decoding %s: %s", e.FileName, e.Reason)
}

// Unwrap returns the underlying error.
func (e *DecodeError) Unwrap() error { return e.Err }

// EncodeError reports a typed value that could not be converted to its
// on-disk form.
type EncodeError struct {
	// FileName is the schema's file name.
	FileName string
	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.FileName, e.Err)
}

// Unwrap returns the underlying error.
func (e *EncodeError) Unwrap() error { return e.Err }

// MigrationError reports a migration that could not run: either a
// registered step failed or the record's version is ahead of the schema.
type MigrationError struct {
	// FileName is the schema's file name.
	FileName string
	// From is the record version the failure occurred at.
	From uint32
	// Err is the step's error, or ErrFutureVersion.
	Err error
}

// Error implements the error interface.
func (e *MigrationError) Error() string {
	return fmt.Sprintf("migrating %s from version %d: %v", e.FileName, e.From, e.Err)
}

// Unwrap returns the underlying error.
func (e *MigrationError) Unwrap() error { return e.Err }
