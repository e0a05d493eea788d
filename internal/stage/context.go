package stage

import (
	"context"
	"io"
	"os"
)

type stdoutKey struct{}

// WithStdout sets the writer stages use in place of the process stdout.
func WithStdout(ctx context.Context, w io.Writer) context.Context {
	return context.WithValue(ctx, stdoutKey{}, w)
}

// Stdout returns the writer set by WithStdout, or os.Stdout.
func Stdout(ctx context.Context) io.Writer {
	if w, ok := ctx.Value(stdoutKey{}).(io.Writer); ok {
		return w
	}
	return os.Stdout
}
