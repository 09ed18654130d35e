package config

import (
	"cmp"
	"slices"

	"github.com/flemzord/mercury/internal/core"
)

// loadOrder ranks namespaces so that modules publishing services load
// before the modules consuming them. Unlisted namespaces load last.
var loadOrder = map[string]int{
	"channel": 0,
	"store":   1,
	"gateway": 2,
}

// Resolve returns the configured module IDs in load order: by namespace
// rank, then by ID. The App stops them in reverse.
func Resolve(cfg *Config) []string {
	ids := make([]string, 0, len(cfg.Modules))
	for id := range cfg.Modules {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int {
		return cmp.Or(
			cmp.Compare(rank(a), rank(b)),
			cmp.Compare(a, b),
		)
	})
	return ids
}

func rank(id string) int {
	if r, ok := loadOrder[core.ModuleID(id).Namespace()]; ok {
		return r
	}
	return len(loadOrder)
}
