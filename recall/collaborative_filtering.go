package recall

import (
	"context"
	"io"
	"os"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
)

// CFConfig 是物品协同过滤的配置。
type CFConfig struct {
	MinUserRatings  int     `koanf:"min_user_ratings" yaml:"min_user_ratings" validate:"gte=1"`
	MinItemRatings  int     `koanf:"min_item_ratings" yaml:"min_item_ratings" validate:"gte=1"`
	ChunkSize       int     `koanf:"chunk_size" yaml:"chunk_size" validate:"gte=1"`
	SimilarityFloor float64 `koanf:"similarity_floor" yaml:"similarity_floor" validate:"gte=0,lte=1"`
	PopularSize     int     `koanf:"popular_size" yaml:"popular_size" validate:"gte=0"`
	ReadChunkRows   int     `koanf:"read_chunk_rows" yaml:"read_chunk_rows" validate:"gte=1"`
	Workers         int     `koanf:"workers" yaml:"workers" validate:"gte=0"`
	PopularKey      string  `koanf:"popular_key" yaml:"popular_key"`
}

// DefaultCFConfig 返回默认配置。
func DefaultCFConfig() CFConfig {
	return CFConfig{
		MinUserRatings:  10,
		MinItemRatings:  20,
		ChunkSize:       1000,
		SimilarityFloor: 0.1,
		PopularSize:     100,
		ReadChunkRows:   50000,
		Workers:         runtime.NumCPU(),
		PopularKey:      "cf:popular",
	}
}

// ScoredID 是一条协同过滤候选。
type ScoredID struct {
	ID      int64
	Score   float64 // 所有超过阈值的相似度样本的均值
	Samples int
}

// ItemStats 是一个物品在保留评分中的统计。
type ItemStats struct {
	MeanRating float64
	Count      int
}

// cfModel 是一次加载产出的完整只读模型。
type cfModel struct {
	itemIDs   []int64
	itemIndex map[int64]int
	numUsers  int
	sim       *mat.Dense
	stats     []ItemStats
	popular   []int64
	ratings   int
}

// ItemCF 是物品-物品协同过滤索引。
//
// Load 在后台构建完整的新模型后原子发布；构建失败时保留旧模型。
// 查询无锁，只读取当前已发布的模型。
type ItemCF struct {
	cfg    CFConfig
	logger zerolog.Logger
	store  core.KeyValueStore

	mu    sync.Mutex // 单写者
	model atomic.Pointer[cfModel]
}

// CFOption 配置 ItemCF。
type CFOption func(*ItemCF)

// WithCFLogger 设置日志。
func WithCFLogger(l zerolog.Logger) CFOption {
	return func(c *ItemCF) { c.logger = l }
}

// WithCFStore 设置热门列表的存储；加载成功后写入 zset。
func WithCFStore(s core.KeyValueStore) CFOption {
	return func(c *ItemCF) { c.store = s }
}

// NewItemCF 创建索引；零值配置项回退到默认值。
func NewItemCF(cfg CFConfig, opts ...CFOption) *ItemCF {
	def := DefaultCFConfig()
	if cfg.MinUserRatings <= 0 {
		cfg.MinUserRatings = def.MinUserRatings
	}
	if cfg.MinItemRatings <= 0 {
		cfg.MinItemRatings = def.MinItemRatings
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ReadChunkRows <= 0 {
		cfg.ReadChunkRows = def.ReadChunkRows
	}
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.PopularKey == "" {
		cfg.PopularKey = def.PopularKey
	}
	c := &ItemCF{cfg: cfg, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Config 返回生效的配置。
func (c *ItemCF) Config() CFConfig { return c.cfg }

// LoadFile 从文件加载评分。
func (c *ItemCF) LoadFile(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return core.NewDataLoadError(core.ModuleCF, "cf: open "+path, err)
	}
	defer f.Close()
	return c.Load(ctx, f)
}

// Load 读取评分并重建整个模型。
//
// 过滤条件是一次性的组合掩码：原始计数下用户评分数 >= MinUserRatings 且物品评分数 >= MinItemRatings。
// 过滤后可能有用户或物品低于阈值，这里不做迭代收敛。
// 没有保留下来的评分时不发布模型，IsLoaded 返回 false。
func (c *ItemCF) Load(ctx context.Context, r io.Reader) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	start := time.Now()
	ratings, readStats, err := readRatings(ctx, r, c.cfg.ReadChunkRows)
	if err != nil {
		return err
	}
	model, err := c.build(ctx, ratings)
	if err != nil {
		return err
	}
	if model == nil {
		c.model.Store(nil)
		c.logger.Warn().
			Int("rows", readStats.Rows).
			Int("dropped", readStats.Dropped).
			Msg("no ratings retained after filtering, collaborative filtering disabled")
		return nil
	}
	c.model.Store(model)
	c.logger.Info().
		Int("rows", readStats.Rows).
		Int("dropped", readStats.Dropped).
		Int("chunks", readStats.Chunks).
		Int("retained", model.ratings).
		Int("users", model.numUsers).
		Int("items", len(model.itemIDs)).
		Dur("elapsed", time.Since(start)).
		Msg("item similarity built")

	c.publishPopular(ctx, model)
	return nil
}

func (c *ItemCF) build(ctx context.Context, ratings []Rating) (*cfModel, error) {
	userCount := make(map[string]int)
	itemCount := make(map[int64]int)
	for _, r := range ratings {
		userCount[r.User]++
		itemCount[r.Item]++
	}

	var (
		userIndex = make(map[string]int)
		itemIndex = make(map[int64]int)
		itemIDs   []int64
		rows      []int
		cols      []int
		values    []float64
		sums      []float64
		counts    []int
	)
	for _, r := range ratings {
		if userCount[r.User] < c.cfg.MinUserRatings || itemCount[r.Item] < c.cfg.MinItemRatings {
			continue
		}
		u, ok := userIndex[r.User]
		if !ok {
			u = len(userIndex)
			userIndex[r.User] = u
		}
		i, ok := itemIndex[r.Item]
		if !ok {
			i = len(itemIDs)
			itemIndex[r.Item] = i
			itemIDs = append(itemIDs, r.Item)
			sums = append(sums, 0)
			counts = append(counts, 0)
		}
		rows = append(rows, u)
		cols = append(cols, i)
		values = append(values, r.Value)
		sums[i] += r.Value
		counts[i]++
	}
	if len(rows) == 0 {
		return nil, nil
	}

	matrix := newUserItemMatrix(len(userIndex), len(itemIDs), rows, cols, values)
	sim, err := itemSimilarity(ctx, matrix, c.cfg.ChunkSize, c.cfg.Workers)
	if err != nil {
		return nil, err
	}

	stats := make([]ItemStats, len(itemIDs))
	for i := range stats {
		stats[i] = ItemStats{MeanRating: sums[i] / float64(counts[i]), Count: counts[i]}
	}
	order := make([]int, len(itemIDs))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return counts[order[a]] > counts[order[b]] })
	if len(order) > c.cfg.PopularSize {
		order = order[:c.cfg.PopularSize]
	}
	popular := make([]int64, len(order))
	for k, i := range order {
		popular[k] = itemIDs[i]
	}

	return &cfModel{
		itemIDs:   itemIDs,
		itemIndex: itemIndex,
		numUsers:  len(userIndex),
		sim:       sim,
		stats:     stats,
		popular:   popular,
		ratings:   len(rows),
	}, nil
}

func (c *ItemCF) publishPopular(ctx context.Context, m *cfModel) {
	if c.store == nil || len(m.popular) == 0 {
		return
	}
	if err := c.store.Delete(ctx, c.cfg.PopularKey); err != nil {
		c.logger.Warn().Err(err).Str("key", c.cfg.PopularKey).Msg("reset popular list failed")
	}
	for _, id := range m.popular {
		i := m.itemIndex[id]
		if err := c.store.ZAdd(ctx, c.cfg.PopularKey, float64(m.stats[i].Count), strconv.FormatInt(id, 10)); err != nil {
			c.logger.Warn().Err(err).Str("key", c.cfg.PopularKey).Msg("publish popular list failed")
			return
		}
	}
}

// IsLoaded 表示当前是否有可用模型。
func (c *ItemCF) IsLoaded() bool { return c.model.Load() != nil }

// NumItems 返回模型中的物品数。
func (c *ItemCF) NumItems() int {
	if m := c.model.Load(); m != nil {
		return len(m.itemIDs)
	}
	return 0
}

// NumUsers 返回模型中的用户数。
func (c *ItemCF) NumUsers() int {
	if m := c.model.Load(); m != nil {
		return m.numUsers
	}
	return 0
}

// ItemIDs 返回按列顺序（首次出现顺序）排列的物品 ID。
func (c *ItemCF) ItemIDs() []int64 {
	if m := c.model.Load(); m != nil {
		return append([]int64(nil), m.itemIDs...)
	}
	return nil
}

// Stats 返回物品统计。
func (c *ItemCF) Stats(id int64) (ItemStats, bool) {
	m := c.model.Load()
	if m == nil {
		return ItemStats{}, false
	}
	i, ok := m.itemIndex[id]
	if !ok {
		return ItemStats{}, false
	}
	return m.stats[i], true
}

// Popular 返回按评分数降序的热门物品 ID。
func (c *ItemCF) Popular() []int64 {
	if m := c.model.Load(); m != nil {
		return append([]int64(nil), m.popular...)
	}
	return nil
}

// Similarity 返回两个物品的相似度；任一不在模型中返回 (0, false)。
func (c *ItemCF) Similarity(a, b int64) (float64, bool) {
	m := c.model.Load()
	if m == nil {
		return 0, false
	}
	i, ok := m.itemIndex[a]
	if !ok {
		return 0, false
	}
	j, ok := m.itemIndex[b]
	if !ok {
		return 0, false
	}
	return m.sim.At(i, j), true
}

// SimilarityRow 返回物品的相似度行（拷贝），列顺序同 ItemIDs。
func (c *ItemCF) SimilarityRow(id int64) ([]float64, bool) {
	m := c.model.Load()
	if m == nil {
		return nil, false
	}
	i, ok := m.itemIndex[id]
	if !ok {
		return nil, false
	}
	return append([]float64(nil), m.sim.RawRowView(i)...), true
}

// Recommend 基于输入物品返回至多 n 个候选。
//
// 每个在模型中的输入物品取其相似度行，按相似度降序保留超过阈值的列，
// 候选得分为所有样本的均值。结果按得分降序，同分保持首次累积顺序。
// 未加载或无命中时返回空。输入物品本身不会被排除。
func (c *ItemCF) Recommend(itemIDs []int64, n int) []ScoredID {
	m := c.model.Load()
	if m == nil || n <= 0 {
		return nil
	}

	var (
		order   []int
		sums    = make(map[int]float64)
		samples = make(map[int]int)
	)
	for _, id := range itemIDs {
		i, ok := m.itemIndex[id]
		if !ok {
			continue
		}
		row := m.sim.RawRowView(i)
		cols := make([]int, len(row))
		for j := range cols {
			cols[j] = j
		}
		sort.SliceStable(cols, func(a, b int) bool { return row[cols[a]] > row[cols[b]] })
		for _, j := range cols {
			if row[j] <= c.cfg.SimilarityFloor {
				break
			}
			if _, seen := samples[j]; !seen {
				order = append(order, j)
			}
			sums[j] += row[j]
			samples[j]++
		}
	}

	out := make([]ScoredID, 0, len(order))
	for _, j := range order {
		out = append(out, ScoredID{
			ID:      m.itemIDs[j],
			Score:   sums[j] / float64(samples[j]),
			Samples: samples[j],
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// ItemCFRecall 把协同过滤索引暴露为召回源：输入为 rctx.Params["reference_ids"]，
// 取回 rctx.Params["n"] * Factor 个候选，Score 为协同分。
type ItemCFRecall struct {
	CF     *ItemCF
	Factor int
}

func (r *ItemCFRecall) Name() string        { return "recall.i2i" }
func (r *ItemCFRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ItemCFRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ItemCFRecall) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.CF == nil || !r.CF.IsLoaded() {
		return nil, nil
	}
	refs := core.ParamIDs(rctx, core.ParamReferenceIDs)
	if len(refs) == 0 {
		return nil, nil
	}
	factor := r.Factor
	if factor <= 0 {
		factor = core.DefaultCollaborativeFactor
	}
	n := core.ParamInt(rctx, core.ParamN, core.DefaultTopN) * factor

	scored := r.CF.Recommend(refs, n)
	out := make([]*core.Item, 0, len(scored))
	for _, s := range scored {
		it := core.NewItem(s.ID)
		it.Score = s.Score
		it.SetFeature(core.FeatureCollaborative, s.Score)
		it.PutLabel("recall_source", utils.L("i2i", "recall"))
		out = append(out, it)
	}
	return out, nil
}
