package flow

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/hcl/v2"
)

var (
	// ErrIncompatibleLink is wrapped by IncompatibleLinkError.
	ErrIncompatibleLink = errors.New("incompatible link")
	// ErrCyclicFlow is wrapped by CycleError.
	ErrCyclicFlow = errors.New("cyclic flow")
	// ErrAlreadyStarted is returned when Start is called more than once.
	ErrAlreadyStarted = errors.New("flow already started")
)

// IncompatibleLinkError reports a pipe between two stages that cannot be
// connected. From and To describe the stages as "key (type)".
type IncompatibleLinkError struct {
	From   string
	To     string
	Range  hcl.Range
	Reason string
}

func (e *IncompatibleLinkError) Error() string {
	return fmt.Sprintf("%s:%d,%d: cannot link %s to %s: %s",
		e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.From, e.To, e.Reason)
}

func (e *IncompatibleLinkError) Unwrap() error { return ErrIncompatibleLink }

// CycleError lists the stage keys along a cycle, starting and ending with
// the same stage.
type CycleError struct {
	Path  []string
	Range hcl.Range
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s:%d,%d: cycle detected: %s",
		e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCyclicFlow }

// StageError is a failure raised by a stage while the flow runs.
type StageError struct {
	Key   string
	Type  string
	Range hcl.Range
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s:%d,%d: stage %s (%s) failed: %v",
		e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Key, e.Type, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }
