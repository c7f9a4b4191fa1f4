package recall

import (
	"context"
	"strconv"

	"github.com/rushteam/gameark/catalog"
	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
)

// Hot 是热门召回源：优先从 KeyValueStore 的有序集合读取热门 ID（按分数降序），
// 读不到时回退到 Fallback（例如协同过滤模型内存中的热门列表）。
// 只保留目录中存在的游戏。
type Hot struct {
	Store    core.KeyValueStore
	Key      string // 例如 "cf:popular"
	Limit    int64  // 读取前 Limit 个，默认 100
	Fallback func() []int64
	Index    func() *catalog.Index
}

func (r *Hot) Name() string        { return "recall.hot" }
func (r *Hot) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Hot) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Hot) Recall(
	ctx context.Context,
	_ *core.RecommendContext,
) ([]*core.Item, error) {
	var ids []int64

	if r.Store != nil && r.Key != "" {
		limit := r.Limit
		if limit <= 0 {
			limit = 100
		}
		members, err := r.Store.ZRange(ctx, r.Key, 0, limit-1)
		if err == nil && len(members) > 0 {
			ids = make([]int64, 0, len(members))
			for _, m := range members {
				if id, err := strconv.ParseInt(m, 10, 64); err == nil {
					ids = append(ids, id)
				}
			}
		}
	}

	if len(ids) == 0 && r.Fallback != nil {
		ids = r.Fallback()
	}
	return itemsFromIDs(r.Index, ids, "hot"), nil
}

// Fixed 是固定 ID 列表召回源（例如经典游戏展示位），只保留目录中存在的游戏，保持列表顺序。
type Fixed struct {
	IDs   []int64
	Index func() *catalog.Index
	Label string
}

func (r *Fixed) Name() string        { return "recall.fixed" }
func (r *Fixed) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Fixed) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Fixed) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	label := r.Label
	if label == "" {
		label = "fixed"
	}
	return itemsFromIDs(r.Index, r.IDs, label), nil
}

// CatalogScan 把整个目录作为候选（按目录顺序），通常后接 Filter 与排序节点构成榜单。
type CatalogScan struct {
	Index func() *catalog.Index
}

func (r *CatalogScan) Name() string        { return "recall.catalog" }
func (r *CatalogScan) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *CatalogScan) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *CatalogScan) Recall(_ context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if r.Index == nil {
		return nil, nil
	}
	idx := r.Index()
	if idx == nil {
		return nil, nil
	}
	out := make([]*core.Item, 0, idx.Len())
	for _, g := range idx.Games() {
		it := core.NewGameItem(g)
		it.PutLabel("recall_source", utils.L("catalog", "recall"))
		out = append(out, it)
	}
	return out, nil
}

func itemsFromIDs(index func() *catalog.Index, ids []int64, source string) []*core.Item {
	if index == nil || len(ids) == 0 {
		return nil
	}
	idx := index()
	if idx == nil {
		return nil
	}
	out := make([]*core.Item, 0, len(ids))
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		g, ok := idx.Game(id)
		if !ok {
			continue
		}
		seen[id] = struct{}{}
		it := core.NewGameItem(g)
		it.PutLabel("recall_source", utils.L(source, "recall"))
		out = append(out, it)
	}
	return out
}
