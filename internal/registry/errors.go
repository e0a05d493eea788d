package registry

import (
	"errors"
	"fmt"

	"github.com/agext/levenshtein"
	"github.com/hashicorp/hcl/v2"
)

var (
	// ErrUnknownComponent is wrapped by UnknownComponentError.
	ErrUnknownComponent = errors.New("unknown component")
	// ErrInvalidArguments is wrapped by ArgumentError.
	ErrInvalidArguments = errors.New("invalid arguments")

	errCompositeInstantiate = errors.New("composite components are expanded, not instantiated")
	errNotComposite         = errors.New("component is not a composite")
)

// UnknownComponentError reports a command naming no known component.
type UnknownComponentError struct {
	Name       string
	Range      hcl.Range
	Suggestion string
}

func (e *UnknownComponentError) Error() string {
	msg := fmt.Sprintf("%s:%d,%d: unknown component %q", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Name)
	if e.Suggestion != "" {
		msg += fmt.Sprintf("; did you mean %q?", e.Suggestion)
	}
	return msg
}

func (e *UnknownComponentError) Unwrap() error { return ErrUnknownComponent }

// ArgumentError reports arguments a component rejected.
type ArgumentError struct {
	Component string
	Range     hcl.Range
	Err       error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("%s:%d,%d: invalid arguments for %q: %v", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Component, e.Err)
}

// Unwrap exposes both the sentinel and the component's own error.
func (e *ArgumentError) Unwrap() []error { return []error{ErrInvalidArguments, e.Err} }

func errTooManyArgs(want, got int) error {
	return fmt.Errorf("takes at most %d argument(s), got %d", want, got)
}

func errMissingInput(name string) error {
	return fmt.Errorf("missing value for input %q", name)
}

// suggest returns the closest known name when it is near enough to be a
// plausible typo.
func (r *Registry) suggest(name string) string {
	best, bestDist := "", 3
	for _, c := range r.Components() {
		if d := levenshtein.Distance(name, c.Name, nil); d < bestDist {
			best, bestDist = c.Name, d
		}
	}
	return best
}
