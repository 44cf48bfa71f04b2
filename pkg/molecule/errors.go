package molecule

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching. Concrete failures are reported as
// *SchemaViolationError or *MalformedEncodingError, usually wrapped in one or
// more *PathError values naming the field or item that failed.
var (
	ErrSchemaViolation   = errors.New("molecule: schema violation")
	ErrMalformedEncoding = errors.New("molecule: malformed encoding")
)

// SchemaViolationError is returned when a value cannot be encoded under the
// declared shape (wrong-length byte block, value out of range, wrong Go type
// in a record), or when a schema itself is invalid (non-fixed-size item in a
// struct or array).
type SchemaViolationError struct {
	Message string
}

func (e *SchemaViolationError) Error() string { return e.Message }

// Is reports whether target is ErrSchemaViolation.
func (e *SchemaViolationError) Is(target error) bool { return target == ErrSchemaViolation }

// MalformedEncodingError is returned when a buffer's declared lengths or
// offsets are inconsistent with the schema.
type MalformedEncodingError struct {
	Message string
}

func (e *MalformedEncodingError) Error() string { return e.Message }

// Is reports whether target is ErrMalformedEncoding.
func (e *MalformedEncodingError) Is(target error) bool { return target == ErrMalformedEncoding }

// PathError prefixes an error with the container position it came from.
// Nested containers produce messages such as
// "table.lock(table.args(byteVec: too short buffer ...))".
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string { return fmt.Sprintf("%s(%v)", e.Path, e.Err) }

func (e *PathError) Unwrap() error { return e.Err }

func schemaViolation(format string, args ...any) error {
	return &SchemaViolationError{Message: fmt.Sprintf(format, args...)}
}

func malformed(format string, args ...any) error {
	return &MalformedEncodingError{Message: fmt.Sprintf(format, args...)}
}

func withPath(path string, err error) error {
	if err == nil {
		return nil
	}
	return &PathError{Path: path, Err: err}
}
