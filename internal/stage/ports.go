package stage

import (
	"github.com/zclconf/go-cty/cty"
)

// Port is a named, typed slot on a stage. Multi on an input allows several
// incoming links; on an output it allows several outgoing ones.
type Port struct {
	Name  string
	Type  cty.Type
	Multi bool
}

// Ports lists a stage's inputs and outputs. The first entry of each list is
// the default port used by plain pipes.
type Ports struct {
	Inputs  []Port
	Outputs []Port
}

// In is shorthand for a single-input port list.
func In(name string, ty cty.Type) []Port {
	return []Port{{Name: name, Type: ty}}
}

// Out is shorthand for a single-output port list.
func Out(name string, ty cty.Type) []Port {
	return []Port{{Name: name, Type: ty}}
}

// Input finds an input port by name. The empty name selects the default.
func (p Ports) Input(name string) (Port, bool) {
	return find(p.Inputs, name)
}

// Output finds an output port by name. The empty name selects the default.
func (p Ports) Output(name string) (Port, bool) {
	return find(p.Outputs, name)
}

func find(ports []Port, name string) (Port, bool) {
	if len(ports) == 0 {
		return Port{}, false
	}
	if name == "" {
		return ports[0], true
	}
	for _, port := range ports {
		if port.Name == name {
			return port, true
		}
	}
	return Port{}, false
}
