package platformfilter

import (
	"context"
	"slices"

	"github.com/gamehub/gamehub/internal/filter"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
)

// Filter keeps games that are released on the exact platform.
type Filter struct {
	platform string
}

var _ filter.Filterer = (*Filter)(nil)

// New creates a new platform Filter. An empty platform keeps every game.
func New(platform string) *Filter {
	return &Filter{
		platform: platform,
	}
}

// String returns the name of the filter.
func (f *Filter) String() string { return "Platform Filter" }

// Apply filters games by platform.
func (f *Filter) Apply(_ context.Context, games []gamehub.Game) ([]gamehub.Game, error) {
	if f.platform == "" {
		return games, nil
	}
	return lo.Filter(games, func(g gamehub.Game, _ int) bool {
		return slices.Contains(g.Platforms, f.platform)
	}), nil
}

// Platforms returns the sorted set of platforms found on the games.
func Platforms(games []gamehub.Game) []string {
	platforms := lo.Uniq(lo.FlatMap(games, func(g gamehub.Game, _ int) []string {
		return g.Platforms
	}))
	slices.Sort(platforms)
	return platforms
}
