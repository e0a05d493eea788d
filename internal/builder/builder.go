package builder

import (
	"context"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/ast"
	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/flow"
	"github.com/vk/fluxflow/internal/registry"
	"github.com/vk/fluxflow/internal/stage"
	"github.com/vk/fluxflow/internal/vars"
)

// Build constructs a validated flow from a tree whose expressions have been
// resolved by vars.Resolve.
func Build(ctx context.Context, tree *ast.Tree, reg *registry.Registry) (*flow.Flow, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Build: Starting flow construction.", "file", tree.Filename)

	b := &builder{
		reg:   reg,
		graph: flow.NewGraph(),
		known: make(map[string]*entry),
	}

	for _, stmt := range tree.Statements() {
		if tree.Node(stmt).Kind != ast.KindPipeline {
			continue
		}
		if _, err := b.pipeline(ctx, tree, stmt, nil); err != nil {
			return nil, err
		}
	}
	logger.Debug("Build: Stages and links created.", "stages", len(b.known))

	f, err := b.graph.Freeze()
	if err != nil {
		return nil, fmt.Errorf("error validating flow graph: %w", err)
	}
	logger.Debug("Build: Cycle detection passed.", "roots", len(f.Roots()))
	return f, nil
}

// entry is what a command contributes to a pipeline: the stage upstream
// values flow into, and the stages whose output feeds what comes next. The
// two differ only for composite components.
type entry struct {
	component string
	rng       hcl.Range
	head      *flow.Node
	tails     []*flow.Node
}

type builder struct {
	reg   *registry.Registry
	graph *flow.Graph
	known map[string]*entry

	// prefix namespaces the keys of stages inside a composite expansion.
	prefix string
	// expanding is the chain of composites currently being expanded.
	expanding []string
}

// pipeline links the elements of a pipeline node in order, starting from
// upstream, and returns the head and the final tails.
func (b *builder) pipeline(ctx context.Context, tree *ast.Tree, id ast.NodeID, upstream []*flow.Node) (*entry, error) {
	var first *entry
	tails := upstream
	for _, el := range tree.Node(id).Children {
		e, err := b.element(ctx, tree, el, tails)
		if err != nil {
			return nil, err
		}
		if first == nil {
			first = e
		}
		tails = e.tails
	}
	return &entry{head: first.head, tails: tails}, nil
}

// element builds one pipeline element and links upstream into it.
func (b *builder) element(ctx context.Context, tree *ast.Tree, id ast.NodeID, upstream []*flow.Node) (*entry, error) {
	n := tree.Node(id)
	switch n.Kind {
	case ast.KindLiteral:
		return b.literal(ctx, n)
	case ast.KindCommand:
		e, err := b.command(ctx, tree, n)
		if err != nil {
			return nil, err
		}
		if err := b.link(ctx, upstream, e.head, n.Range); err != nil {
			return nil, err
		}
		return e, nil
	case ast.KindTee:
		return b.tee(ctx, tree, n, upstream)
	default:
		return nil, fmt.Errorf("%s:%d,%d: unexpected %s in pipeline; expressions must be resolved before building",
			n.Range.Filename, n.Range.Start.Line, n.Range.Start.Column, n.Kind)
	}
}

func (b *builder) link(ctx context.Context, upstream []*flow.Node, to *flow.Node, rng hcl.Range) error {
	for _, from := range upstream {
		if _, err := b.graph.Connect(from, "", to, "", rng); err != nil {
			return err
		}
		ctxlog.FromContext(ctx).Debug("Build: Linked stages.", "from", from.Key, "to", to.Key)
	}
	return nil
}

func (b *builder) literal(ctx context.Context, n *ast.Node) (*entry, error) {
	key := b.synthKey("literal", n.Range)
	node, err := b.graph.Add(key, "literal", n.Range, stage.NewLiteral(n.Value))
	if err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Build: Created literal source.", "key", key)
	return &entry{component: "literal", rng: n.Range, head: node, tails: []*flow.Node{node}}, nil
}

// tee forks upstream into every branch. The tee stage carries the type of
// the first upstream output.
func (b *builder) tee(ctx context.Context, tree *ast.Tree, n *ast.Node, upstream []*flow.Node) (*entry, error) {
	ty := stage.Any
	if len(upstream) > 0 {
		if out, ok := upstream[0].Ports().Output(""); ok {
			ty = out.Type
		}
	}

	key := b.synthKey("tee", n.Range)
	node, err := b.graph.Add(key, "tee", n.Range, stage.NewTee(ty))
	if err != nil {
		return nil, err
	}
	if err := b.link(ctx, upstream, node, n.Range); err != nil {
		return nil, err
	}

	var tails []*flow.Node
	for _, branch := range n.Children {
		e, err := b.pipeline(ctx, tree, branch, []*flow.Node{node})
		if err != nil {
			return nil, err
		}
		tails = append(tails, e.tails...)
	}
	ctxlog.FromContext(ctx).Debug("Build: Created tee.", "key", key, "branches", len(n.Children), "type", stage.TypeName(ty))
	return &entry{component: "tee", rng: n.Range, head: node, tails: tails}, nil
}

// command returns the stage a command refers to, creating it on first use.
// A bare name may refer back to a labelled stage; a labelled command must
// name the same component as the stage it refers to.
func (b *builder) command(ctx context.Context, tree *ast.Tree, n *ast.Node) (*entry, error) {
	logger := ctxlog.FromContext(ctx)
	key := n.Value
	if n.Label != "" {
		key = n.Label
	}
	key = b.prefix + key

	if prev, ok := b.known[key]; ok {
		if n.Label != "" && prev.component != n.Value {
			return nil, &DuplicateStageError{Key: key, Range: n.Range, First: prev.rng,
				Reason: fmt.Sprintf("it is a %s, not a %s", prev.component, n.Value)}
		}
		if len(n.Children) > 0 {
			reason := "later references must not repeat arguments"
			if n.Label == "" {
				reason += fmt.Sprintf("; to declare another %s stage, give it a label (name:%s(...))", n.Value, n.Value)
			}
			return nil, &DuplicateStageError{Key: key, Range: n.Range, First: prev.rng, Reason: reason}
		}
		logger.Debug("Build: Reusing stage.", "key", key)
		return prev, nil
	}

	args, err := commandArgs(tree, n)
	if err != nil {
		return nil, err
	}
	desc, err := b.reg.Resolve(n.Value, args, n.Range)
	if err != nil {
		return nil, err
	}

	var e *entry
	if desc.IsComposite() {
		e, err = b.expand(ctx, desc, key)
		if err != nil {
			return nil, err
		}
	} else {
		s, err := desc.Instantiate()
		if err != nil {
			return nil, err
		}
		node, err := b.graph.Add(key, desc.Name(), n.Range, s)
		if err != nil {
			return nil, err
		}
		e = &entry{head: node, tails: []*flow.Node{node}}
		logger.Debug("Build: Created stage.", "key", key, "component", desc.Name(), "origin", desc.Component.Origin)
	}
	e.component, e.rng = n.Value, n.Range
	b.known[key] = e
	return e, nil
}

// expand builds a composite component inline. Its pipeline is resolved with
// the call's arguments and its stages are keyed under the caller's key.
func (b *builder) expand(ctx context.Context, desc *registry.Descriptor, key string) (*entry, error) {
	name := desc.Name()
	if slices.Contains(b.expanding, name) {
		return nil, &RecursiveCompositeError{Chain: append(slices.Clone(b.expanding), name), Range: desc.Range}
	}

	bindings, err := desc.Bindings()
	if err != nil {
		return nil, err
	}
	resolved, _, err := vars.Resolve(desc.Component.Composite.Pipeline, bindings)
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", name, err)
	}

	prefix := b.prefix
	b.prefix = key + "/"
	b.expanding = append(b.expanding, name)
	defer func() {
		b.prefix = prefix
		b.expanding = b.expanding[:len(b.expanding)-1]
	}()

	ctxlog.FromContext(ctx).Debug("Build: Expanding composite.", "key", key, "component", name, "origin", desc.Component.Origin)
	return b.pipeline(ctx, resolved, resolved.Statements()[0], nil)
}

// synthKey names stages that have no script identity of their own.
func (b *builder) synthKey(kind string, rng hcl.Range) string {
	return fmt.Sprintf("%s%s@%d:%d", b.prefix, kind, rng.Start.Line, rng.Start.Column)
}

// commandArgs collects the resolved arguments of a command node.
func commandArgs(tree *ast.Tree, n *ast.Node) (stage.Args, error) {
	var args stage.Args
	for _, id := range n.Children {
		arg := tree.Node(id)
		value := tree.Node(arg.Children[0])
		if value.Kind != ast.KindLiteral {
			return stage.Args{}, fmt.Errorf("%s:%d,%d: argument is not resolved", value.Range.Filename, value.Range.Start.Line, value.Range.Start.Column)
		}
		if arg.Value == "" {
			args.Positional = append(args.Positional, value.Value)
			continue
		}
		if args.Named == nil {
			args.Named = make(map[string]string)
		}
		if _, dup := args.Named[arg.Value]; dup {
			return stage.Args{}, &registry.ArgumentError{Component: n.Value, Range: arg.Range,
				Err: fmt.Errorf("option %q given twice", arg.Value)}
		}
		args.Named[arg.Value] = value.Value
	}
	return args, nil
}
