package builder

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

var (
	// ErrDuplicateStage is wrapped by DuplicateStageError.
	ErrDuplicateStage = errors.New("duplicate stage")
	// ErrRecursiveComposite is wrapped by RecursiveCompositeError.
	ErrRecursiveComposite = errors.New("recursive composite component")
)

// DuplicateStageError reports a second declaration of a stage key that
// tries to configure the stage again.
type DuplicateStageError struct {
	Key    string
	Range  hcl.Range
	First  hcl.Range
	Reason string
}

func (e *DuplicateStageError) Error() string {
	return fmt.Sprintf("%s:%d,%d: stage %q was already declared at line %d: %s",
		e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Key, e.First.Start.Line, e.Reason)
}

func (e *DuplicateStageError) Unwrap() error { return ErrDuplicateStage }

// RecursiveCompositeError reports a composite component that expands into
// itself. Chain lists the composites being expanded, outermost first.
type RecursiveCompositeError struct {
	Chain []string
	Range hcl.Range
}

func (e *RecursiveCompositeError) Error() string {
	return fmt.Sprintf("%s:%d,%d: composite component expands into itself: %s",
		e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, strings.Join(e.Chain, " -> "))
}

func (e *RecursiveCompositeError) Unwrap() error { return ErrRecursiveComposite }
