package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pkg/utils"
)

func TestPredicateMatch(t *testing.T) {
	it := core.NewGameItem(&core.Game{
		ID: 13, Name: "Catan",
		Rating: 7.1, HasRating: true, UsersRated: 100000,
		Year: 2018, HasYear: true,
	})
	it.Score = 0.8
	it.SetFeature(core.FeatureCollaborative, 0.25)
	it.PutLabel("recall_source", utils.L("content", "recall"))
	rctx := &core.RecommendContext{
		Scene:  "main",
		Params: map[string]any{core.ParamCurrentYear: 2024},
		Labels: map[string]utils.Label{"collaborative": utils.L("degraded", "rank")},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"", true},
		{"item.users_rated >= 500", true},
		{"item.has_rating && item.rating >= 7.5", false},
		{"item.year >= rctx.current_year - 10", true},
		{"item.year >= rctx.current_year - 5", false},
		{`label.recall_source == "content"`, true},
		{`rctx.scene == "main" && item.name == "Catan"`, true},
		{"item.features.collaborative > 0.2 && item.score > 0.5", true},
		{`"collaborative" in rctx.labels`, true},
		{`rctx.labels.collaborative == "degraded"`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			p, err := Compile(tt.expr)
			require.NoError(t, err)
			got, err := p.Match(it, rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicateErrors(t *testing.T) {
	_, err := Compile("item.rating >=")
	assert.Error(t, err)

	p := MustCompile("item.rating")
	_, err = p.Match(core.NewGameItem(&core.Game{Rating: 7}), nil)
	assert.Error(t, err, "non-boolean result")

	_, err = Eval("item.rating > 1", core.NewItem(1), nil)
	assert.Error(t, err, "item without game has no rating")

	assert.Panics(t, func() { MustCompile("((") })
}

func TestPredicateNil(t *testing.T) {
	var p *Predicate
	ok, err := p.Match(nil, nil)
	require.NoError(t, err)
	assert.True(t, ok)
}
