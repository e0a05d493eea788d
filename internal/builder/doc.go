/*
Package builder turns a resolved parse tree into a flow.

Construction is a single pass over the script's pipelines in document order:

 1. Stage creation: every command is resolved against the registry and
    instantiated, or, for a composite component, expanded inline from its
    manifest pipeline. A command's key is its label or, without one, its
    component name. Repeating a key refers to the stage created first, which
    is how one pipeline can feed into a stage declared by another.

 2. Linking: each element of a pipeline is linked from the tails of the
    element before it. A tee block forks one upstream into several branches;
    a component after the tee receives the tail of every branch.

 3. Validation: links are checked as they are added, and the finished graph
    is checked for cycles before the flow is frozen.

Any failure aborts the build; no partial flow is ever returned.
*/
package builder
