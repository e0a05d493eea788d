package stage

import (
	"fmt"
	"io"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

var (
	// Reader carries an open byte stream between stages.
	Reader = cty.Capsule("reader", reflect.TypeOf((*io.Reader)(nil)).Elem())

	// Record is a flat string-keyed record.
	Record = cty.Map(cty.String)

	// Any accepts values of every type.
	Any = cty.DynamicPseudoType
)

// ReaderVal wraps r for transport through a Reader port.
func ReaderVal(r io.Reader) cty.Value {
	return cty.CapsuleVal(Reader, &r)
}

// AsReader unwraps a value produced by ReaderVal.
func AsReader(v cty.Value) (io.Reader, error) {
	if !v.Type().Equals(Reader) || v.IsNull() || !v.IsKnown() {
		return nil, fmt.Errorf("expected %s, got %s", TypeName(Reader), TypeName(v.Type()))
	}
	return *(v.EncapsulatedValue().(*io.Reader)), nil
}

// RecordVal builds a Record value. An empty map yields an empty record
// rather than a null.
func RecordVal(m map[string]string) cty.Value {
	if len(m) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	vals := make(map[string]cty.Value, len(m))
	for k, v := range m {
		vals[k] = cty.StringVal(v)
	}
	return cty.MapVal(vals)
}

// AsRecord converts a Record value back to a Go map.
func AsRecord(v cty.Value) (map[string]string, error) {
	var out map[string]string
	if err := gocty.FromCtyValue(v, &out); err != nil {
		return nil, fmt.Errorf("expected %s: %w", TypeName(Record), err)
	}
	if out == nil {
		out = map[string]string{}
	}
	return out, nil
}

// AsString extracts a Go string from a String value.
func AsString(v cty.Value) (string, error) {
	var s string
	if err := gocty.FromCtyValue(v, &s); err != nil {
		return "", fmt.Errorf("expected %s: %w", TypeName(cty.String), err)
	}
	return s, nil
}

// TypeName renders a port type for messages.
func TypeName(ty cty.Type) string {
	if ty == cty.NilType {
		return "nothing"
	}
	return ty.FriendlyName()
}

// Conversion returns the function applied to values crossing a link from an
// output of type from to an input of type to, or nil when no safe
// conversion exists. Links involving Any are checked per value at run time.
func Conversion(from, to cty.Type) convert.Conversion {
	if from.Equals(to) {
		return func(v cty.Value) (cty.Value, error) { return v, nil }
	}
	return convert.GetConversion(from, to)
}
