package recall

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/store"
)

const ratingsCSV = "Username,BGGId,Rating\n" +
	"u1,1,8\nu1,4,7\n" +
	"u2,1,9\nu2,4,8\n" +
	"u3,5,7\nu3,7,6\n" +
	"u4,1,6\nu4,5,5\n"

func newTestCF(t *testing.T, minUser, minItem int, opts ...CFOption) *ItemCF {
	t.Helper()
	cfg := DefaultCFConfig()
	cfg.MinUserRatings = minUser
	cfg.MinItemRatings = minItem
	cfg.ChunkSize = 2
	cfg.Workers = 2
	return NewItemCF(cfg, opts...)
}

func TestReadRatings(t *testing.T) {
	csvText := "Rating,BGGId,Username,Extra\n" +
		"8,1,alice,x\n" +
		"0,2,alice,x\n" + // 非正评分
		"-1,3,bob,x\n" +
		"abc,4,bob,x\n" + // 无法解析
		"7,,bob,x\n" + // 缺游戏
		"6.5,5,,x\n" + // 缺用户
		"7.5,6,bob,x\n"
	ratings, err := ReadRatings(context.Background(), strings.NewReader(csvText), 2)
	require.NoError(t, err)
	assert.Equal(t, []Rating{
		{User: "alice", Item: 1, Value: 8},
		{User: "bob", Item: 6, Value: 7.5},
	}, ratings)

	_, err = ReadRatings(context.Background(), strings.NewReader("User,Game\nu,1\n"), 10)
	require.Error(t, err)
	assert.True(t, core.IsDataLoad(err))

	ratings, err = ReadRatings(context.Background(), strings.NewReader(""), 10)
	require.NoError(t, err)
	assert.Empty(t, ratings)
}

func TestItemCF_Similarity(t *testing.T) {
	cf := newTestCF(t, 1, 1)
	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))
	require.True(t, cf.IsLoaded())
	assert.Equal(t, []int64{1, 4, 5, 7}, cf.ItemIDs())
	assert.Equal(t, 4, cf.NumUsers())

	want := 128 / (math.Sqrt(181) * math.Sqrt(113))
	got, ok := cf.Similarity(1, 4)
	require.True(t, ok)
	assert.InDelta(t, want, got, 1e-9)

	ids := cf.ItemIDs()
	for _, a := range ids {
		self, _ := cf.Similarity(a, a)
		assert.Zero(t, self, "diagonal is zero")
		for _, b := range ids {
			ab, _ := cf.Similarity(a, b)
			ba, _ := cf.Similarity(b, a)
			assert.InDelta(t, ab, ba, 1e-5, "symmetric")
		}
	}

	none, _ := cf.Similarity(4, 7)
	assert.Zero(t, none, "no co-raters")
	_, ok = cf.Similarity(1, 999)
	assert.False(t, ok)

	row, ok := cf.SimilarityRow(1)
	require.True(t, ok)
	assert.Len(t, row, 4)

	stats, ok := cf.Stats(1)
	require.True(t, ok)
	assert.Equal(t, ItemStats{MeanRating: 23.0 / 3, Count: 3}, stats)
	assert.Equal(t, []int64{1, 4, 5, 7}, cf.Popular())
}

func TestItemCF_Recommend(t *testing.T) {
	cf := newTestCF(t, 1, 1)
	assert.Empty(t, cf.Recommend([]int64{1}, 10), "not loaded")
	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))

	got := cf.Recommend([]int64{1}, 10)
	require.Len(t, got, 2)
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, int64(5), got[1].ID)
	assert.Equal(t, 1, got[0].Samples)

	got = cf.Recommend([]int64{1, 5}, 10)
	require.Len(t, got, 4, "inputs are not excluded")
	assert.Equal(t, int64(4), got[0].ID)
	assert.Equal(t, int64(7), got[1].ID)

	assert.Len(t, cf.Recommend([]int64{1, 5}, 1), 1)
	assert.Empty(t, cf.Recommend([]int64{999}, 10))
	assert.Empty(t, cf.Recommend([]int64{1}, 0))
}

func TestItemCF_Thresholds(t *testing.T) {
	cf := newTestCF(t, 1, 2)
	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))
	assert.Equal(t, []int64{1, 4, 5}, cf.ItemIDs(), "item 7 has a single rating")

	cf = newTestCF(t, 5, 1)
	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))
	assert.False(t, cf.IsLoaded(), "no user has five ratings")
	assert.Zero(t, cf.NumItems())
}

func TestItemCF_LoadKeepsPreviousOnError(t *testing.T) {
	cf := newTestCF(t, 1, 1)
	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))

	err := cf.Load(context.Background(), strings.NewReader("Foo,Bar\n1,2\n"))
	require.Error(t, err)
	assert.True(t, cf.IsLoaded())
	assert.Equal(t, 4, cf.NumItems())

	err = cf.LoadFile(context.Background(), "/nonexistent/ratings.csv")
	assert.True(t, core.IsDataLoad(err))
}

func TestItemCF_PublishesPopular(t *testing.T) {
	mem := store.NewMemoryStore()
	defer mem.Close()
	cf := newTestCF(t, 1, 1, WithCFStore(mem))
	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))

	members, err := mem.ZRange(context.Background(), cf.Config().PopularKey, 0, -1)
	require.NoError(t, err)
	require.Len(t, members, 4)
	assert.Equal(t, "1", members[0])
	assert.Equal(t, "7", members[3])
}

func TestItemCFRecall(t *testing.T) {
	cf := newTestCF(t, 1, 1)
	r := &ItemCFRecall{CF: cf, Factor: 2}
	rctx := &core.RecommendContext{Params: map[string]any{
		core.ParamN:            1,
		core.ParamReferenceIDs: []int64{1},
	}}

	items, err := r.Recall(context.Background(), rctx)
	require.NoError(t, err)
	assert.Empty(t, items, "not loaded")

	require.NoError(t, cf.Load(context.Background(), strings.NewReader(ratingsCSV)))
	items, err = r.Recall(context.Background(), rctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(4), items[0].ID)
	assert.Equal(t, items[0].Score, items[0].Features[core.FeatureCollaborative])
	assert.Equal(t, "i2i", items[0].Labels["recall_source"].Value)

	items, err = r.Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Empty(t, items, "no references")
}
