package filter

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/gamehub/gamehub/pkg/gamehub"
)

// Filterer defines the interface for catalog filters.
type Filterer interface {
	fmt.Stringer
	// Apply filters games based on specific criteria and returns the filtered list.
	Apply(context.Context, []gamehub.Game) ([]gamehub.Game, error)
}

// Filter applies all provided filters sequentially to a page of games.
type Filter struct {
	filters []Filterer
}

// New creates a new Filter instance with the given filters.
func New(filters ...Filterer) *Filter {
	return &Filter{
		filters: filters,
	}
}

// ApplyAll applies all filters sequentially to the provided games.
// Filters only ever see the games of the fetched page.
func (f *Filter) ApplyAll(ctx context.Context, games []gamehub.Game) ([]gamehub.Game, error) {
	var err error
	filtered := games

	for _, filter := range f.filters {
		preFilterCount := len(filtered)
		filtered, err = filter.Apply(ctx, filtered)
		if err != nil {
			log.Error("Failed to apply filter.", "filter", filter.String(), "error", err)
			return nil, err
		}
		log.Debug("Filter applied.", "filter", filter.String(), "remaining_games", len(filtered), "filtered_out", preFilterCount-len(filtered))
	}

	return filtered, nil
}
