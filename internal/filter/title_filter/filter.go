package titlefilter

import (
	"context"
	"strings"

	"github.com/gamehub/gamehub/internal/filter"
	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
)

// Filter keeps games whose title contains the needle, ignoring case.
type Filter struct {
	needle string
}

var _ filter.Filterer = (*Filter)(nil)

// New creates a new title Filter. An empty needle keeps every game.
func New(needle string) *Filter {
	return &Filter{
		needle: strings.ToLower(strings.TrimSpace(needle)),
	}
}

// String returns the name of the filter.
func (f *Filter) String() string { return "Title Filter" }

// Apply filters games by title.
func (f *Filter) Apply(_ context.Context, games []gamehub.Game) ([]gamehub.Game, error) {
	if f.needle == "" {
		return games, nil
	}
	return lo.Filter(games, func(g gamehub.Game, _ int) bool {
		return strings.Contains(strings.ToLower(g.Title), f.needle)
	}), nil
}
