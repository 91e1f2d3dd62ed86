package platformfilter

import (
	"context"
	"testing"

	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var games = []gamehub.Game{
	{ID: "1", Title: "Halo", Platforms: []string{"Xbox One", "PC"}},
	{ID: "2", Title: "Uncharted", Platforms: []string{"PlayStation 4"}},
	{ID: "3", Title: "Portal", Platforms: []string{"PC", "Linux"}},
	{ID: "4", Title: "Unknown"},
}

func TestFilter_Apply(t *testing.T) {
	tests := []struct {
		name     string
		platform string
		want     []string
	}{
		{name: "empty platform keeps all", platform: "", want: []string{"1", "2", "3", "4"}},
		{name: "exact match", platform: "PC", want: []string{"1", "3"}},
		{name: "no partial match", platform: "PlayStation", want: []string{}},
		{name: "match is case sensitive", platform: "pc", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.platform).Apply(context.Background(), games)
			require.NoError(t, err)
			ids := lo.Map(got, func(g gamehub.Game, _ int) string { return g.ID })
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestPlatforms(t *testing.T) {
	assert.Equal(t, []string{"Linux", "PC", "PlayStation 4", "Xbox One"}, Platforms(games))
	assert.Empty(t, Platforms(nil))
}
