package parser

import (
	"errors"
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// ErrSyntax is the sentinel wrapped by every SyntaxError.
var ErrSyntax = errors.New("syntax error")

// SyntaxError reports malformed script text at a specific location.
type SyntaxError struct {
	Range   hcl.Range
	Message string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d,%d: %s", e.Range.Filename, e.Range.Start.Line, e.Range.Start.Column, e.Message)
}

func (e *SyntaxError) Unwrap() error { return ErrSyntax }
