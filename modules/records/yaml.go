package records

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/vk/fluxflow/internal/stage"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"
)

type decodeYAML struct{}

func newDecodeYAML(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &decodeYAML{}, nil
}

func (d *decodeYAML) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", cty.String),
		Outputs: stage.Out("out", stage.Record),
	}
}

// Process emits one record per document in the incoming text.
func (d *decodeYAML) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	s, err := stage.AsString(v)
	if err != nil {
		return err
	}
	dec := yaml.NewDecoder(strings.NewReader(s))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("invalid YAML: %w", err)
		}
		rec, err := yamlRecord(&doc)
		if err != nil {
			return err
		}
		if err := out.Emit(ctx, "", stage.RecordVal(rec)); err != nil {
			return err
		}
	}
}

// yamlRecord reads a mapping of scalars, keeping each value's source text.
func yamlRecord(doc *yaml.Node) (map[string]string, error) {
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) == 1 {
		n = n.Content[0]
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a YAML mapping", n.Line)
	}
	rec := make(map[string]string, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if key.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", key.Line)
		}
		if val.Kind == yaml.AliasNode {
			val = val.Alias
		}
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: field %q must hold a scalar value", val.Line, key.Value)
		}
		if val.ShortTag() == "!!null" {
			continue
		}
		rec[key.Value] = val.Value
	}
	return rec, nil
}

type encodeYAML struct{}

func newEncodeYAML(args stage.Args) (stage.Stage, error) {
	if err := args.Allow(0); err != nil {
		return nil, err
	}
	return &encodeYAML{}, nil
}

func (e *encodeYAML) Ports() stage.Ports {
	return stage.Ports{
		Inputs:  stage.In("in", stage.Record),
		Outputs: stage.Out("out", cty.String),
	}
}

func (e *encodeYAML) Process(ctx context.Context, _ string, v cty.Value, out stage.Emitter) error {
	rec, err := stage.AsRecord(v)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range keys {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: rec[k]},
		)
	}
	b, err := yaml.Marshal(node)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}
	return out.Emit(ctx, "", cty.StringVal("---\n"+strings.TrimSuffix(string(b), "\n")))
}
