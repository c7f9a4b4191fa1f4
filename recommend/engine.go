// Package recommend 编排整个推荐流程：持有目录索引与协同过滤索引的句柄，
// 把内容召回、协同打分、线性融合、分层选择组装成 Pipeline，并提供榜单、推荐包与快照。
package recommend

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/gameark/catalog"
	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/filter"
	"github.com/rushteam/gameark/logging"
	"github.com/rushteam/gameark/metrics"
	"github.com/rushteam/gameark/model"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/rank"
	"github.com/rushteam/gameark/recall"
	"github.com/rushteam/gameark/rerank"
	"github.com/rushteam/gameark/store"
)

// Engine 是推荐引擎句柄。索引构建完成后原子发布，请求期间只读。
type Engine struct {
	cfg    Config
	logger zerolog.Logger
	store  core.KeyValueStore
	now    func() time.Time

	catalog     atomic.Pointer[catalog.Index]
	catalogOpts []catalog.Option
	cf          *recall.ItemCF

	// loadMu 保证同一时刻只有一个写者在构建索引
	loadMu      sync.Mutex
	catalogPath string
	ratingsPath string

	main  *pipeline.Pipeline
	lists map[string]*pipeline.Pipeline
}

// Option 配置 Engine。
type Option func(*Engine)

func WithLogger(l zerolog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithStore 设置快照与热门列表使用的存储，默认内存存储。
func WithStore(s core.KeyValueStore) Option {
	return func(e *Engine) { e.store = s }
}

// WithClock 注入时钟（榜单的年份窗口与快照过期使用）。
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithCF 使用外部构建的协同过滤索引。
func WithCF(cf *recall.ItemCF) Option {
	return func(e *Engine) { e.cf = cf }
}

// WithCatalogOptions 设置目录加载选项（编码回退、分隔符）。
func WithCatalogOptions(opts ...catalog.Option) Option {
	return func(e *Engine) { e.catalogOpts = append(e.catalogOpts, opts...) }
}

// New 创建引擎。索引需要随后通过 LoadCatalog / LoadRatings 加载。
func New(cfg Config, opts ...Option) (*Engine, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:    cfg,
		logger: logging.With("recommend"),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.store == nil {
		e.store = store.NewMemoryStore()
	}
	if e.cf == nil {
		cfLogger := e.logger.With().Str("component", "cf").Logger()
		e.cf = recall.NewItemCF(recall.DefaultCFConfig(), recall.WithCFLogger(cfLogger), recall.WithCFStore(e.store))
	}
	e.catalogOpts = append([]catalog.Option{catalog.WithLogger(e.logger.With().Str("component", "catalog").Logger())}, e.catalogOpts...)

	tiers, err := rerank.CompileTiers(cfg.Tiers)
	if err != nil {
		return nil, err
	}
	e.main = &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.ContentRecall{
				Scorer: &recall.ContentScorer{
					RatingWeight:     cfg.RatingWeight,
					PopularityWeight: cfg.PopularityWeight,
					ReferenceBlend:   cfg.ReferenceBlend,
				},
				Index: e.Catalog,
			},
			&rank.CollaborativeNode{
				Source: &recall.ItemCFRecall{CF: e.cf, Factor: cfg.CollaborativeFactor},
				Logger: &e.logger,
			},
			&rank.ModelNode{Model: model.NewBlendModel(cfg.ContentWeight, cfg.CollaborativeWeight)},
			&rerank.TieredSelect{Tiers: tiers, Filters: []filter.Filter{filter.CompletenessFilter{}}},
			&rerank.OrderBy{Keys: []rerank.SortKey{{Field: "score", Desc: true}}},
		},
		Hook: nodeHook,
	}

	if e.lists, err = e.buildLists(); err != nil {
		return nil, err
	}
	return e, nil
}

func nodeHook(node pipeline.Node, _, out int) {
	metrics.PipelineNodeItems.WithLabelValues(node.Name()).Observe(float64(out))
}

// Config 返回生效的配置。
func (e *Engine) Config() Config { return e.cfg }

// Catalog 返回当前发布的目录索引，未加载时为 nil。
func (e *Engine) Catalog() *catalog.Index { return e.catalog.Load() }

// CF 返回协同过滤索引句柄。
func (e *Engine) CF() *recall.ItemCF { return e.cf }

// Store 返回引擎使用的存储。
func (e *Engine) Store() core.KeyValueStore { return e.store }

// LoadCatalog 加载目录并替换已发布的索引；失败时保留旧索引。
func (e *Engine) LoadCatalog(_ context.Context, path string) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	start := time.Now()
	idx, err := catalog.LoadFile(path, e.catalogOpts...)
	if err != nil {
		metrics.RecordIndexLoad("catalog", time.Since(start), 0, err)
		return err
	}
	e.catalog.Store(idx)
	e.catalogPath = path
	metrics.RecordIndexLoad("catalog", time.Since(start), idx.Len(), nil)
	return nil
}

// SetCatalog 直接发布一个已构建的目录索引。
func (e *Engine) SetCatalog(idx *catalog.Index) {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()
	e.catalog.Store(idx)
}

// LoadRatings 加载评分并重建协同过滤索引；失败时保留旧模型。
func (e *Engine) LoadRatings(ctx context.Context, path string) error {
	e.loadMu.Lock()
	defer e.loadMu.Unlock()

	start := time.Now()
	if err := e.cf.LoadFile(ctx, path); err != nil {
		metrics.RecordIndexLoad("cf", time.Since(start), 0, err)
		return err
	}
	e.ratingsPath = path
	metrics.RecordIndexLoad("cf", time.Since(start), e.cf.NumItems(), nil)
	metrics.IndexSize.WithLabelValues("cf_users").Set(float64(e.cf.NumUsers()))
	return nil
}

// Ready 表示目录索引已加载，可以提供推荐。
func (e *Engine) Ready() bool { return e.Catalog() != nil }

func (e *Engine) newContext(ctx context.Context, scene string, n int) *core.RecommendContext {
	reqID := logging.RequestIDFromContext(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	return &core.RecommendContext{
		RequestID: reqID,
		Scene:     scene,
		Params: map[string]any{
			core.ParamN:           n,
			core.ParamCurrentYear: e.now().Year(),
		},
	}
}

// Recommend 返回最多 n 条推荐，按最终分降序。
// 内部错误或 panic 只记 warn 日志并返回空列表。
func (e *Engine) Recommend(ctx context.Context, prefs *core.Preferences, n int) []core.Recommendation {
	items := e.recommendItems(ctx, "main", prefs, n)
	return toRecommendations(items)
}

// recommendItems 执行主 Pipeline，失败时返回 nil。
func (e *Engine) recommendItems(ctx context.Context, scene string, prefs *core.Preferences, n int) (items []*core.Item) {
	start := time.Now()
	log := e.logger.With().Str("scene", scene).Logger()
	defer func() {
		if r := recover(); r != nil {
			log.Warn().
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("recommendation failed, returning empty result")
			metrics.RecommendEmpty.WithLabelValues(scene, "panic").Inc()
			items = nil
		}
		metrics.RecordRecommend(scene, time.Since(start), len(items))
	}()

	if n <= 0 {
		return nil
	}
	if e.Catalog() == nil {
		log.Warn().Msg("catalog not loaded, returning empty result")
		metrics.RecommendEmpty.WithLabelValues(scene, "not_loaded").Inc()
		return nil
	}

	rctx := e.newContext(ctx, scene, n)
	rctx.Preferences = prefs
	rctx.SetParam(core.ParamPoolSize, n*e.cfg.Overfetch)

	out, err := e.main.Run(ctx, rctx, nil)
	if err != nil {
		log.Warn().Err(err).Str("request_id", rctx.RequestID).Msg("recommendation failed, returning empty result")
		metrics.RecommendEmpty.WithLabelValues(scene, "error").Inc()
		return nil
	}
	if len(out) == 0 {
		metrics.RecommendEmpty.WithLabelValues(scene, "no_candidates").Inc()
	}
	for _, it := range out {
		if lbl, ok := it.Labels["tier"]; ok {
			metrics.TierSelected.WithLabelValues(lbl.Value).Inc()
		}
	}
	log.Debug().
		Str("request_id", rctx.RequestID).
		Int("n", n).
		Int("returned", len(out)).
		Int("references", len(core.ParamIDs(rctx, core.ParamReferenceIDs))).
		Dur("elapsed", time.Since(start)).
		Msg("recommend done")
	return out
}

func toRecommendations(items []*core.Item) []core.Recommendation {
	out := make([]core.Recommendation, 0, len(items))
	for _, it := range items {
		if g := it.Game(); g != nil {
			out = append(out, core.NewRecommendation(g, it))
		}
	}
	return out
}

func toSummaries(items []*core.Item) []core.GameSummary {
	out := make([]core.GameSummary, 0, len(items))
	for _, it := range items {
		if g := it.Game(); g != nil {
			out = append(out, g.Summary())
		}
	}
	return out
}

// runList 执行一个榜单 Pipeline。
func (e *Engine) runList(ctx context.Context, name string, n int, params map[string]any) ([]*core.Item, error) {
	p, ok := e.lists[name]
	if !ok {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "recommend: unknown list "+name)
	}
	rctx := e.newContext(ctx, name, n)
	for k, v := range params {
		rctx.SetParam(k, v)
	}
	return p.Run(ctx, rctx, nil)
}

// listSummaries 执行榜单并降级错误为空列表。
func (e *Engine) listSummaries(ctx context.Context, name string, n int) []core.GameSummary {
	start := time.Now()
	if n <= 0 {
		return []core.GameSummary{}
	}
	items, err := e.runList(ctx, name, n, nil)
	if err != nil {
		e.logger.Warn().Err(err).Str("list", name).Msg("list failed, returning empty result")
		metrics.RecommendEmpty.WithLabelValues(name, "error").Inc()
		items = nil
	}
	metrics.RecordRecommend(name, time.Since(start), len(items))
	return toSummaries(items)
}

// TopRated 返回高分榜：评分 >= 7.5 且评分人数 >= 1000，按评分降序。
func (e *Engine) TopRated(ctx context.Context, n int) []core.GameSummary {
	return e.listSummaries(ctx, ListTopRated, n)
}

// Newest 返回新游榜：近 10 年出版，按年份降序、评分降序。
func (e *Engine) Newest(ctx context.Context, n int) []core.GameSummary {
	return e.listSummaries(ctx, ListNewest, n)
}

// Classic 返回经典游戏：固定列表中存在于目录的游戏优先，不足时用高分高人气游戏补齐，
// 截断后按评分降序。
func (e *Engine) Classic(ctx context.Context, n int) []core.GameSummary {
	if n <= 0 {
		n = e.cfg.ClassicSize
	}
	p := &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.Fanout{
				Sources: []recall.Source{
					&recall.Fixed{IDs: e.cfg.ClassicIDs, Index: e.Catalog, Label: "classic"},
					&recall.PipelineSource{SourceName: ListClassicPad, Pipeline: e.lists[ListClassicPad]},
				},
				Dedup:         true,
				MergeStrategy: "priority",
				Logger:        &e.logger,
			},
			&rerank.TopNNode{N: n},
			&rerank.OrderBy{Keys: []rerank.SortKey{{Field: "rating", Desc: true}}},
		},
		Hook: nodeHook,
	}
	rctx := e.newContext(ctx, "classic", n)
	rctx.SetParam(core.ParamExcludeIDs, e.cfg.ClassicIDs)
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		e.logger.Warn().Err(err).Msg("classic list failed, returning empty result")
		return []core.GameSummary{}
	}
	return toSummaries(items)
}
