package stage

import (
	"fmt"
	"slices"
	"time"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// Args are the resolved arguments of a script command. Every value is a
// plain string; stages convert them as needed.
type Args struct {
	Positional []string
	Named      map[string]string
}

// Allow rejects positional arguments beyond maxPositional and named arguments not in
// names.
func (a Args) Allow(maxPositional int, names ...string) error {
	if len(a.Positional) > maxPositional {
		return fmt.Errorf("takes at most %d positional argument(s), got %d", maxPositional, len(a.Positional))
	}
	for name := range a.Named {
		if !slices.Contains(names, name) {
			return fmt.Errorf("unknown option %q", name)
		}
	}
	return nil
}

// Lookup returns the named argument, falling back to the positional one at
// index pos. A negative pos disables the fallback.
func (a Args) Lookup(name string, pos int) (string, bool) {
	if v, ok := a.Named[name]; ok {
		return v, true
	}
	if pos >= 0 && pos < len(a.Positional) {
		return a.Positional[pos], true
	}
	return "", false
}

// String returns the argument or def when it is absent.
func (a Args) String(name string, pos int, def string) string {
	if v, ok := a.Lookup(name, pos); ok {
		return v
	}
	return def
}

// Required returns the argument or an error naming it.
func (a Args) Required(name string, pos int) (string, error) {
	v, ok := a.Lookup(name, pos)
	if !ok {
		return "", fmt.Errorf("missing required argument %q", name)
	}
	return v, nil
}

// Bool parses the argument as a boolean using cty's string conversion
// rules ("true" or "false").
func (a Args) Bool(name string, pos int, def bool) (bool, error) {
	raw, ok := a.Lookup(name, pos)
	if !ok {
		return def, nil
	}
	v, err := convert.Convert(cty.StringVal(raw), cty.Bool)
	if err != nil {
		return false, fmt.Errorf("argument %q: %w", name, err)
	}
	var b bool
	if err := gocty.FromCtyValue(v, &b); err != nil {
		return false, fmt.Errorf("argument %q: %w", name, err)
	}
	return b, nil
}

// Duration parses the argument with time.ParseDuration.
func (a Args) Duration(name string, pos int, def time.Duration) (time.Duration, error) {
	raw, ok := a.Lookup(name, pos)
	if !ok {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("argument %q: %w", name, err)
	}
	return d, nil
}
