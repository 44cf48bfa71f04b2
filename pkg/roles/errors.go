package roles

import "fmt"

// Error codes carried by FinalizationError.
const (
	ErrCodeNoInputs             = "no_inputs"
	ErrCodeUnresolvedInput      = "unresolved_input"
	ErrCodeOutputsDataMismatch  = "outputs_data_mismatch"
	ErrCodeInsufficientCapacity = "insufficient_capacity"
	ErrCodeUnsignedInput        = "unsigned_input"
	ErrCodeEncoding             = "encoding"
)

// ProposalError is returned when a transaction cannot be assembled from a
// proposal, for example when inputs do not cover outputs and fee.
type ProposalError struct {
	Message string
	Cause   error
}

func (e *ProposalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("proposal error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("proposal error: %s", e.Message)
}

func (e *ProposalError) Unwrap() error { return e.Cause }

// SignError is returned when a lock group cannot be signed or verified.
// InputIndex is the group's first input, or -1 when no input matched.
type SignError struct {
	InputIndex int
	Message    string
	Cause      error
}

func (e *SignError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sign error at input %d: %s: %v", e.InputIndex, e.Message, e.Cause)
	}
	return fmt.Sprintf("sign error at input %d: %s", e.InputIndex, e.Message)
}

func (e *SignError) Unwrap() error { return e.Cause }

// CombineError is returned when partially signed transactions cannot be
// merged.
type CombineError struct {
	Message string
	Cause   error
}

func (e *CombineError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("combine error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("combine error: %s", e.Message)
}

func (e *CombineError) Unwrap() error { return e.Cause }

// FinalizationError is returned when a transaction is not ready to be
// extracted.
type FinalizationError struct {
	Code    string
	Message string
	Cause   error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalization error [%s]: %s", e.Code, e.Message)
}

func (e *FinalizationError) Unwrap() error { return e.Cause }
