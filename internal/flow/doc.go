// Package flow holds the compiled stage graph and the runtime that drives it.
//
// A Graph is assembled by the builder one stage and one link at a time; each
// link is validated as it is added. Freeze checks the finished graph for
// cycles and returns an immutable Flow, whose only operation besides the
// read accessors is Start.
//
// Execution is push based and synchronous. Root stages run one after the
// other in the order they were declared. Every value a stage emits is
// converted to the receiving port's type and handed to the receiving stage
// before Emit returns. When a stage has finished and every stage feeding it
// has finished, its Finish hook runs and the signal moves downstream.
package flow
