package enhance

import "sort"

// entry pairs an enhancer with its registration sequence number, which is
// the final tie-breaker for deterministic ordering.
type entry struct {
	enhancer Enhancer
	seq      int
}

// resolveOrder computes a stable topological order over the entries. An
// edge A→B exists whenever B declares A as a dependency. Among nodes with
// no unresolved ordering constraint relative to each other, ties break by
// descending priority, then by registration order.
//
// When strict is true, a dependency naming an enhancer not present in the
// set is a *ConfigError. When strict is false (removal paths), such
// dependencies are pruned: removing an enhancer relaxes its dependents'
// constraints rather than wedging the pipeline.
//
// A dependency cycle is always a *ConfigError.
func resolveOrder(op string, entries []entry, strict bool) ([]entry, error) {
	byName := make(map[string]entry, len(entries))
	for _, e := range entries {
		byName[e.enhancer.Info().Name] = e
	}

	// indegree counts unsatisfied dependencies; dependents maps a name to
	// the entries waiting on it.
	indegree := make(map[string]int, len(entries))
	dependents := make(map[string][]string, len(entries))
	for _, e := range entries {
		name := e.enhancer.Info().Name
		indegree[name] = 0
	}
	for _, e := range entries {
		name := e.enhancer.Info().Name
		for _, dep := range e.enhancer.Info().Dependencies {
			if dep == name {
				return nil, configErrorf(op, name, "enhancer depends on itself")
			}
			if _, ok := byName[dep]; !ok {
				if strict {
					return nil, configErrorf(op, name, "dependency %q is not registered", dep)
				}
				continue
			}
			indegree[name]++
			dependents[dep] = append(dependents[dep], name)
		}
	}

	// Kahn's algorithm with a deterministically sorted ready set.
	ready := make([]entry, 0, len(entries))
	for _, e := range entries {
		if indegree[e.enhancer.Info().Name] == 0 {
			ready = append(ready, e)
		}
	}
	sortReady(ready)

	order := make([]entry, 0, len(entries))
	for len(ready) > 0 {
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, dep := range dependents[next.enhancer.Info().Name] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, byName[dep])
			}
		}
		sortReady(ready)
	}

	if len(order) != len(entries) {
		// Remaining nodes all have unsatisfied dependencies: a cycle.
		var stuck []string
		for _, e := range entries {
			if indegree[e.enhancer.Info().Name] > 0 {
				stuck = append(stuck, e.enhancer.Info().Name)
			}
		}
		sort.Strings(stuck)
		return nil, configErrorf(op, "", "dependency cycle among %v", stuck)
	}

	return order, nil
}

// sortReady orders the ready set by descending priority, then by
// registration sequence.
func sortReady(ready []entry) {
	sort.SliceStable(ready, func(i, j int) bool {
		pi, pj := ready[i].enhancer.Info().Priority, ready[j].enhancer.Info().Priority
		if pi != pj {
			return pi > pj
		}
		return ready[i].seq < ready[j].seq
	})
}

// resolveWaves partitions a resolved order into dependency waves: each
// wave is the maximal set of not-yet-run enhancers whose dependencies are
// all satisfied by prior waves. Dependencies outside the set are treated
// as satisfied (they were validated or pruned during order resolution).
func resolveWaves(order []entry) [][]entry {
	present := make(map[string]bool, len(order))
	for _, e := range order {
		present[e.enhancer.Info().Name] = true
	}

	satisfied := make(map[string]bool, len(order))
	remaining := append([]entry(nil), order...)
	var waves [][]entry

	for len(remaining) > 0 {
		var wave, rest []entry
		for _, e := range remaining {
			runnable := true
			for _, dep := range e.enhancer.Info().Dependencies {
				if present[dep] && !satisfied[dep] {
					runnable = false
					break
				}
			}
			if runnable {
				wave = append(wave, e)
			} else {
				rest = append(rest, e)
			}
		}
		if len(wave) == 0 {
			// Unreachable after resolveOrder succeeded; guard anyway.
			wave, rest = remaining[:1], remaining[1:]
		}
		for _, e := range wave {
			satisfied[e.enhancer.Info().Name] = true
		}
		waves = append(waves, wave)
		remaining = rest
	}

	return waves
}
