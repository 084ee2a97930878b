// Package enhance implements the response-enhancement subsystem: the
// Enhancer contract, the Pipeline scheduler, and the Registry catalog.
//
// An Enhancer is a named, prioritized, possibly-dependent unit that
// transforms an EnhancedResponse given an operation context. A Pipeline
// resolves a dependency-respecting execution order over a set of enhancers
// and runs them against one response+context pair, either strictly
// sequentially or in dependency waves. The Registry owns named enhancer
// instances, builds named pipelines from subsets, and supports discovery,
// stats, and export/import of enhancer state.
//
// Configuration problems (duplicate names, dependency cycles, dependencies
// on absent enhancers) surface synchronously as *ConfigError at
// registration or pipeline-construction time, never during Process.
// Runtime enhancer failures surface as *EnhancementError, either recorded
// on the response (ContinueOnError) or returned from Process.
package enhance
