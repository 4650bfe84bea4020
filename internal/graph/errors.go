package graph

import (
	"errors"
	"fmt"
)

// ErrPartialTransaction matches any *PartialTransactionError.
var ErrPartialTransaction = errors.New("partial graph replacement")

// Step names a stage of a graph replacement.
type Step string

const (
	StepClearEdges   Step = "clear_edges"
	StepDeleteNodes  Step = "delete_nodes"
	StepDeleteNotes  Step = "delete_notes"
	StepCreateNodes  Step = "create_nodes"
	StepReplaceEdges Step = "replace_edges"
	StepCreateNotes  Step = "create_notes"
)

// PartialTransactionError reports a replacement that failed after earlier
// steps had already written. The live graph may be inconsistent.
type PartialTransactionError struct {
	Step      Step
	Completed int
	Err       error
}

func (e *PartialTransactionError) Error() string {
	return fmt.Sprintf("graph replacement failed at %s after %d completed steps: %v", e.Step, e.Completed, e.Err)
}

// Unwrap exposes both ErrPartialTransaction and the cause, so callers can
// still match domain.ErrNotFound or domain.ErrTransport.
func (e *PartialTransactionError) Unwrap() []error {
	return []error{ErrPartialTransaction, e.Err}
}
