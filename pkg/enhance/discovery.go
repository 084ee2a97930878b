package enhance

import (
	"log/slog"
	"sort"
)

// Factory constructs an enhancer from its configuration options. Catalogs
// of factories replace filesystem scanning: the enhancer set is closed per
// deployment, so discovery walks an explicit registration table.
type Factory func(config map[string]any) (Enhancer, error)

// Discover walks the catalog in name order and registers every enhancer
// it can build, with per-name options taken from configs. Discovery is
// best-effort: a failing factory or a name that is already registered is
// logged through the given logger and the scan continues. It never
// returns an error.
//
// Returns the number of enhancers registered.
func (r *Registry) Discover(catalog map[string]Factory, configs map[string]map[string]any, logger *slog.Logger) int {
	if logger == nil {
		logger = slog.Default()
	}

	names := make([]string, 0, len(catalog))
	for name := range catalog {
		names = append(names, name)
	}
	sort.Strings(names)

	registered := 0
	for _, name := range names {
		e, err := catalog[name](configs[name])
		if err != nil {
			logger.Warn("enhancer discovery failed for candidate",
				"enhancer", name,
				"error", err.Error(),
			)
			continue
		}
		if e.Info().Name != name {
			logger.Warn("enhancer factory returned mismatched name",
				"candidate", name,
				"returned", e.Info().Name,
			)
			continue
		}
		if err := r.registerAs(e, SourceDiscovery); err != nil {
			logger.Warn("enhancer discovery could not register candidate",
				"enhancer", name,
				"error", err.Error(),
			)
			continue
		}
		logger.Debug("discovered enhancer", "enhancer", name)
		registered++
	}
	return registered
}
