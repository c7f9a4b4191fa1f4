package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
)

func gameItem(id int64, name string, rating float64, hasRating bool, users int64) *core.Item {
	return core.NewGameItem(&core.Game{ID: id, Name: name, Rating: rating, HasRating: hasRating, UsersRated: users})
}

func TestCompletenessFilter(t *testing.T) {
	tests := []struct {
		name string
		item *core.Item
		want bool
	}{
		{"complete", gameItem(1, "Catan", 7.1, true, 100), false},
		{"blank name", gameItem(2, "  ", 7.1, true, 100), true},
		{"missing rating", gameItem(3, "Azul", 0, false, 100), true},
		{"no game", core.NewItem(4), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompletenessFilter{}.ShouldFilter(context.Background(), nil, tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExcludeFilter(t *testing.T) {
	f := NewExcludeFilter(1, 2)
	rctx := &core.RecommendContext{Params: map[string]any{core.ParamExcludeIDs: []int64{3}}}

	for id, want := range map[int64]bool{1: true, 2: true, 3: true, 4: false} {
		got, err := f.ShouldFilter(context.Background(), rctx, core.NewItem(id))
		require.NoError(t, err)
		assert.Equal(t, want, got, "id %d", id)
	}
	got, err := f.ShouldFilter(context.Background(), nil, core.NewItem(3))
	require.NoError(t, err)
	assert.False(t, got, "no request params")
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter("item.has_rating && item.rating >= 7.5 && item.users_rated >= 1000")
	require.NoError(t, err)
	assert.Equal(t, "item.has_rating && item.rating >= 7.5 && item.users_rated >= 1000", f.Expr())

	tests := []struct {
		name string
		item *core.Item
		want bool
	}{
		{"passes", gameItem(1, "A", 8, true, 2000), false},
		{"low rating", gameItem(2, "B", 7, true, 2000), true},
		{"few users", gameItem(3, "C", 8, true, 999), true},
		{"missing rating", gameItem(4, "D", 0, false, 2000), true},
		{"no game fails evaluation", core.NewItem(5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.ShouldFilter(context.Background(), nil, tt.item)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = NewExprFilter("item.rating >=")
	assert.Error(t, err)
}

func TestFilterNode(t *testing.T) {
	items := []*core.Item{
		gameItem(1, "A", 8, true, 10),
		nil,
		gameItem(2, "", 8, true, 10),
		gameItem(3, "C", 8, true, 10),
	}
	node := &FilterNode{Filters: []Filter{CompletenessFilter{}, NewExcludeFilter(3)}}
	out, err := node.Process(context.Background(), nil, items)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, int64(1), out[0].ID)

	assert.Equal(t, "filter.completeness", items[2].Labels["filtered"].Source)
	assert.Equal(t, "filter.exclude", items[3].Labels["filtered"].Source)
}
