// Package registry maps component names used in flow scripts to the code
// that implements them.
//
// Two kinds of components live in a Registry. Built-ins are compiled Go
// stages contributed by a Module during startup. Externals come from HCL
// manifests in the modules directory and describe composite stages: a named
// pipeline fragment with declared inputs. Resolution always checks built-ins
// first, then externals in the order they were loaded, and the first match
// wins.
package registry
