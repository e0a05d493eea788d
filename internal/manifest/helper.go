package manifest

import (
	"bytes"
	"context"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/ctxlog"
)

// isExprDefined checks if an HCL expression was actually present in the
// source. The decoder fills omitted optional attributes with zero-width
// placeholder expressions, so a nil check is not enough.
func isExprDefined(ctx context.Context, expr hcl.Expression, attrName string) bool {
	if expr == nil {
		return false
	}
	rng := expr.Range()
	defined := rng.End.Byte > rng.Start.Byte
	ctxlog.FromContext(ctx).Debug("Checking if HCL attribute was explicitly defined.",
		"attribute", attrName,
		"hcl_range", rng.String(),
		"is_defined", defined,
	)
	return defined
}

// contentStart returns the position of the first character of a string
// expression's content: after the opening quote, or on the line after a
// heredoc marker. Locations inside the fragment are approximate when the
// string contains escapes.
func contentStart(rng hcl.Range, src []byte) hcl.Pos {
	pos := rng.Start
	if pos.Byte >= len(src) {
		return pos
	}
	rest := src[pos.Byte:]
	switch {
	case rest[0] == '"':
		pos.Byte++
		pos.Column++
	case bytes.HasPrefix(rest, []byte("<<")):
		if nl := bytes.IndexByte(rest, '\n'); nl >= 0 {
			pos.Byte += nl + 1
			pos.Line++
			pos.Column = 1
		}
	}
	return pos
}
