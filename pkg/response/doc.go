// Package response defines the enhanced response value type returned by
// every glam tool, plus the risk-level scale and the success/error/warning/
// info factories.
//
// An EnhancedResponse accumulates an operation's outcome together with the
// annotations enhancers attach to it: contextual key/values, metadata,
// suggestions, risks, and team activity. Mutators return the same instance
// so call sites can chain them. All mutators and readers are guarded by an
// internal mutex, which makes a single response safe to mutate from the
// concurrent waves of a parallel pipeline run.
//
// The Data payload is opaque to this package: it is carried and serialized
// as-is, and a payload that cannot be marshaled (for example, a cyclic
// structure) is the caller's problem.
package response
