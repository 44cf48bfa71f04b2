package api

import "fmt"

// ParseError is returned when bytes do not decode as a transaction.
type ParseError struct {
	Message string
	Cause   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
}

func (e *ParseError) Unwrap() error { return e.Cause }
