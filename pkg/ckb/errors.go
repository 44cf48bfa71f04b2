package ckb

import (
	"errors"
	"fmt"

	"github.com/suffix-labs/ckb-molecule/pkg/molecule"
)

// Sentinel errors for errors.Is matching.
var (
	ErrValidation = errors.New("ckb: validation failed")
	ErrResolution = errors.New("ckb: input not resolved")
)

// ValidationError is returned when plain data cannot be converted into a
// typed value: an unknown hash type or dep type, or a fixed-size byte block
// of the wrong length.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is reports whether target is ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// ResolutionError is returned by signing-hash operations when an input has
// not been resolved to the output it spends.
type ResolutionError struct {
	InputIndex int
	Message    string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("input %d: %s", e.InputIndex, e.Message)
}

// Is reports whether target is ErrResolution.
func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func unresolved(index int) error {
	return &ResolutionError{InputIndex: index, Message: "previous output is not resolved"}
}

// malformed reports an out-of-range value met while decoding.
func malformed(format string, args ...any) error {
	return &molecule.MalformedEncodingError{Message: fmt.Sprintf(format, args...)}
}
