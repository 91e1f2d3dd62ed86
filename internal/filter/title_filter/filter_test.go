package titlefilter

import (
	"context"
	"testing"

	"github.com/gamehub/gamehub/pkg/gamehub"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilter_Apply(t *testing.T) {
	games := []gamehub.Game{
		{ID: "1", Title: "The Legend of Zelda"},
		{ID: "2", Title: "Zelda II: The Adventure of Link"},
		{ID: "3", Title: "Portal 2"},
	}

	tests := []struct {
		name   string
		needle string
		want   []string
	}{
		{name: "empty needle keeps all", needle: "", want: []string{"1", "2", "3"}},
		{name: "case insensitive", needle: "zELDA", want: []string{"1", "2"}},
		{name: "substring in the middle", needle: "adventure", want: []string{"2"}},
		{name: "surrounding whitespace ignored", needle: "  portal ", want: []string{"3"}},
		{name: "no match", needle: "doom", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.needle).Apply(context.Background(), games)
			require.NoError(t, err)
			ids := lo.Map(got, func(g gamehub.Game, _ int) string { return g.ID })
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestFilter_String(t *testing.T) {
	assert.Equal(t, "Title Filter", New("x").String())
}
