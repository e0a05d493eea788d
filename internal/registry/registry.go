package registry

import (
	"context"
	"fmt"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/fluxflow/internal/ast"
	"github.com/vk/fluxflow/internal/ctxlog"
	"github.com/vk/fluxflow/internal/stage"
)

// OriginBuiltin marks components compiled into the binary.
const OriginBuiltin = "builtin"

// Module is the interface that every built-in component set implements to
// be registered.
type Module interface {
	Register(r *Registry)
}

// Component is a resolvable name. Exactly one of New and Composite is set.
type Component struct {
	Name        string
	Description string
	New         stage.Factory
	Composite   *Composite
	// Origin is OriginBuiltin or the manifest file that declared the
	// component.
	Origin string
}

// Input is a declared parameter of a composite component.
type Input struct {
	Name        string
	Description string
	Default     *string
}

// Composite is a component defined as a pipeline of other components.
type Composite struct {
	Inputs []Input
	// Pipeline is a parsed script holding exactly one pipeline statement.
	Pipeline *ast.Tree
	// Dir is the directory of the declaring manifest.
	Dir string
}

// Registry holds the components known to one compilation environment.
type Registry struct {
	builtins  map[string]*Component
	externals []*Component
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{builtins: make(map[string]*Component)}
}

// Register adds a built-in component. Registering a name twice is a
// programming error and panics.
func (r *Registry) Register(c *Component) {
	if c.New == nil {
		panic(fmt.Sprintf("built-in component '%s' has no factory", c.Name))
	}
	if _, exists := r.builtins[c.Name]; exists {
		panic(fmt.Sprintf("component with name '%s' already registered", c.Name))
	}
	if c.Origin == "" {
		c.Origin = OriginBuiltin
	}
	r.builtins[c.Name] = c
}

// RegisterStage is a convenience wrapper around Register for Go stages.
func (r *Registry) RegisterStage(name, description string, factory stage.Factory) {
	r.Register(&Component{Name: name, Description: description, New: factory})
}

// AddExternal appends a manifest component. Names that are already taken
// stay resolvable to the earlier component; the shadowed one is kept only
// for listing and a warning is logged.
func (r *Registry) AddExternal(ctx context.Context, c *Component) {
	logger := ctxlog.FromContext(ctx)
	if prev, ok := r.Lookup(c.Name); ok {
		logger.Warn("Component is shadowed and will never be resolved.",
			"name", c.Name, "origin", c.Origin, "shadowed_by", prev.Origin)
	}
	r.externals = append(r.externals, c)
	logger.Debug("Registered external component.", "name", c.Name, "origin", c.Origin)
}

// Lookup finds the component a name resolves to.
func (r *Registry) Lookup(name string) (*Component, bool) {
	if c, ok := r.builtins[name]; ok {
		return c, true
	}
	for _, c := range r.externals {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Resolve turns a script command into a Descriptor.
func (r *Registry) Resolve(name string, args stage.Args, rng hcl.Range) (*Descriptor, error) {
	c, ok := r.Lookup(name)
	if !ok {
		return nil, &UnknownComponentError{Name: name, Range: rng, Suggestion: r.suggest(name)}
	}
	return &Descriptor{Component: c, Args: args, Range: rng}, nil
}

// Components lists every component in resolution order: built-ins sorted by
// name, then externals in load order.
func (r *Registry) Components() []*Component {
	out := make([]*Component, 0, len(r.builtins)+len(r.externals))
	for _, c := range r.builtins {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return append(out, r.externals...)
}
