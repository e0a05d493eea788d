package registry

import (
	"context"
	"errors"
	"fmt"

	"github.com/vk/fluxflow/internal/ast"
	"github.com/vk/fluxflow/internal/ctxlog"
)

// Validate checks that every component named inside a composite pipeline
// resolves. It reports all problems at once so a broken modules directory
// can be fixed in one pass.
func (r *Registry) Validate(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)
	var errs []error

	for _, c := range r.externals {
		if c.Composite == nil {
			continue
		}
		tree := c.Composite.Pipeline
		_ = tree.Walk(tree.Root, func(_ ast.NodeID, n *ast.Node) error {
			if n.Kind != ast.KindCommand {
				return nil
			}
			if _, ok := r.Lookup(n.Value); !ok {
				errs = append(errs, fmt.Errorf("component %q (%s): %w",
					c.Name, c.Origin, &UnknownComponentError{Name: n.Value, Range: n.Range, Suggestion: r.suggest(n.Value)}))
			}
			return nil
		})
	}

	if len(errs) > 0 {
		logger.Error("Registry validation failed.", "errors", len(errs))
		return errors.Join(errs...)
	}
	logger.Debug("Registry validation passed.", "builtins", len(r.builtins), "externals", len(r.externals))
	return nil
}
