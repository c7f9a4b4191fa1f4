package recall

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/catalog"
	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/store"
)

const catalogCSV = "ID,Name,Year Published,Min Players,Max Players,Play Time,Min Age,Users Rated,Rating Average,Complexity,Mechanics,Domains\n" +
	`1,Alpha,2020,2,4,60,10,2000,8.0,2.5,Dice Rolling,Strategy Games` + "\n" +
	`4,Delta,2022,2,5,30,8,300,7.6,1.8,"Dice Rolling, Push Your Luck",Family Games` + "\n" +
	`5,Epsilon,2016,1,4,120,14,1500,7.8,3.2,"Worker Placement, Dice Rolling",Strategy Games` + "\n" +
	`7,Eta,2000,3,5,60,10,1200,7.0,2.0,Card Drafting,Strategy Games` + "\n"

func loadIndex(t *testing.T) *catalog.Index {
	t.Helper()
	idx, err := catalog.Load(strings.NewReader(catalogCSV))
	require.NoError(t, err)
	return idx
}

func itemIDs(items []*core.Item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestCosineScores(t *testing.T) {
	idx := loadIndex(t)

	zero := CosineScores(make([]float64, idx.Space().Dim()), idx)
	assert.Equal(t, make([]float64, idx.Len()), zero)

	self := CosineScores(idx.Row(0), idx)
	assert.InDelta(t, 1.0, self[0], 1e-9)
	for _, s := range self {
		assert.LessOrEqual(t, s, 1.0+1e-9)
	}
}

func TestTopWeighted(t *testing.T) {
	assert.Equal(t, []int{1, 0, 3}, TopWeighted([]float64{0.5, 0.9, 0.1, 0.5}, 3), "ties keep catalog order")
	assert.Equal(t, []int{1, 0, 3, 2}, TopWeighted([]float64{0.5, 0.9, 0.1, 0.5}, 10))
}

func TestContentScorer(t *testing.T) {
	idx := loadIndex(t)
	s := NewContentScorer()

	_, err := s.Score(context.Background(), nil, &core.Preferences{})
	require.Error(t, err)
	assert.True(t, core.IsEncoding(err))

	prefs := &core.Preferences{SelectedGames: []string{"alpha", "  ", "Nope"}}
	scores, err := s.Score(context.Background(), idx, prefs)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, scores.References)
	assert.Equal(t, []int64{1}, scores.ReferenceIDs)
	require.Len(t, scores.Weighted, idx.Len())
	for _, w := range scores.Weighted {
		assert.GreaterOrEqual(t, w, 0.0)
		assert.LessOrEqual(t, w, 1.0+1e-9)
	}

	again, err := s.Score(context.Background(), idx, prefs)
	require.NoError(t, err)
	assert.Equal(t, scores.Weighted, again.Weighted, "deterministic")
}

func TestContentRecall(t *testing.T) {
	idx := loadIndex(t)
	r := &ContentRecall{Index: func() *catalog.Index { return idx }}
	rctx := &core.RecommendContext{
		Preferences: &core.Preferences{SelectedGames: []string{"Alpha"}},
		Params:      map[string]any{core.ParamPoolSize: 3},
	}

	items, err := r.Recall(context.Background(), rctx)
	require.NoError(t, err)
	require.Len(t, items, 3)
	for i, it := range items {
		assert.Equal(t, float64(i), it.Features[core.FeaturePoolRank])
		assert.Equal(t, it.Score, it.Features[core.FeatureWeighted])
		assert.Equal(t, "content", it.Labels["recall_source"].Value)
		if i > 0 {
			assert.GreaterOrEqual(t, items[i-1].Score, it.Score)
		}
	}
	assert.Equal(t, []int64{1}, core.ParamIDs(rctx, core.ParamReferenceIDs))

	_, err = (&ContentRecall{}).Recall(context.Background(), rctx)
	assert.True(t, core.IsEncoding(err), "no index")
}

type failingSource struct{}

func (failingSource) Name() string { return "failing" }
func (failingSource) Recall(context.Context, *core.RecommendContext) ([]*core.Item, error) {
	return nil, errors.New("boom")
}

func TestFanout(t *testing.T) {
	idx := loadIndex(t)
	index := func() *catalog.Index { return idx }
	logger := zerolog.Nop()

	f := &Fanout{
		Sources: []Source{
			&Fixed{IDs: []int64{7, 999, 1}, Index: index, Label: "classic"},
			failingSource{},
			&Fixed{IDs: []int64{1, 4, 4}, Index: index},
		},
		Dedup:         true,
		MergeStrategy: "priority",
		Logger:        &logger,
	}
	items, err := f.Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 1, 4}, itemIDs(items))
	assert.Equal(t, "0", items[1].Labels["recall_priority"].Value, "first source wins")
	assert.True(t, strings.HasPrefix(items[1].Labels["recall_source"].Value, "classic|"), items[1].Labels["recall_source"].Value)

	f.MergeStrategy = "union"
	items, err = f.Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 1, 1, 4}, itemIDs(items))
}

func TestCatalogScan(t *testing.T) {
	idx := loadIndex(t)
	items, err := (&CatalogScan{Index: func() *catalog.Index { return idx }}).Recall(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4, 5, 7}, itemIDs(items))

	items, err = (&CatalogScan{Index: func() *catalog.Index { return nil }}).Recall(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestHot(t *testing.T) {
	idx := loadIndex(t)
	index := func() *catalog.Index { return idx }
	mem := store.NewMemoryStore()
	defer mem.Close()
	ctx := context.Background()

	h := &Hot{Store: mem, Key: "cf:popular", Index: index, Fallback: func() []int64 { return []int64{5, 1} }}
	items, err := h.Recall(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 1}, itemIDs(items), "empty zset falls back")

	require.NoError(t, mem.ZAdd(ctx, "cf:popular", 10, "4"))
	require.NoError(t, mem.ZAdd(ctx, "cf:popular", 30, "7"))
	require.NoError(t, mem.ZAdd(ctx, "cf:popular", 20, "12345"))
	items, err = h.Recall(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{7, 4}, itemIDs(items), "unknown ids are dropped")
	assert.Equal(t, "hot", items[0].Labels["recall_source"].Value)
}
