package recommend

import (
	"fmt"

	"github.com/rushteam/gameark/filter"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/conv"
	"github.com/rushteam/gameark/recall"
	"github.com/rushteam/gameark/rerank"
)

// 榜单 Pipeline 可用的 Node 类型。
const (
	NodeCatalog      = "recall.catalog"      // 全目录扫描（目录顺序）
	NodeHot          = "recall.hot"          // 协同过滤热门列表，存储不可用时回退到内存
	NodeExpr         = "filter.expr"         // config: expr，保留表达式为 true 的条目
	NodeCompleteness = "filter.completeness" // 剔除缺少名称或评分的条目
	NodeExclude      = "filter.exclude"      // 剔除 rctx.Params["exclude_ids"]
	NodeOrder        = "rerank.order"        // config: by，例如 "rating desc, users_rated desc"
	NodeTopN         = "rerank.topn"         // config: n，缺省时读取 rctx.Params["n"]
)

// newNodeFactory 注册榜单可用的 Node；召回类 Node 通过引擎句柄读取当前发布的索引。
func (e *Engine) newNodeFactory() *pipeline.NodeFactory {
	f := pipeline.NewNodeFactory()

	f.Register(NodeCatalog, func(map[string]any) (pipeline.Node, error) {
		return &recall.CatalogScan{Index: e.Catalog}, nil
	})
	f.Register(NodeHot, func(config map[string]any) (pipeline.Node, error) {
		limit, _ := conv.ToInt(config["limit"])
		return &recall.Hot{
			Store:    e.store,
			Key:      e.cf.Config().PopularKey,
			Limit:    int64(limit),
			Fallback: e.cf.Popular,
			Index:    e.Catalog,
		}, nil
	})
	f.Register(NodeExpr, func(config map[string]any) (pipeline.Node, error) {
		expr, _ := conv.ToString(config["expr"])
		if expr == "" {
			return nil, fmt.Errorf("%s: expr is required", NodeExpr)
		}
		flt, err := filter.NewExprFilter(expr)
		if err != nil {
			return nil, err
		}
		return &filter.FilterNode{Filters: []filter.Filter{flt}}, nil
	})
	f.Register(NodeCompleteness, func(map[string]any) (pipeline.Node, error) {
		return &filter.FilterNode{Filters: []filter.Filter{filter.CompletenessFilter{}}}, nil
	})
	f.Register(NodeExclude, func(config map[string]any) (pipeline.Node, error) {
		ids := conv.SliceAnyToInt64(config["ids"])
		return &filter.FilterNode{Filters: []filter.Filter{filter.NewExcludeFilter(ids...)}}, nil
	})
	f.Register(NodeOrder, func(config map[string]any) (pipeline.Node, error) {
		by, _ := conv.ToString(config["by"])
		keys, err := rerank.ParseSortKeys(by)
		if err != nil {
			return nil, err
		}
		return &rerank.OrderBy{Keys: keys}, nil
	})
	f.Register(NodeTopN, func(config map[string]any) (pipeline.Node, error) {
		n, _ := conv.ToInt(config["n"])
		return &rerank.TopNNode{N: n}, nil
	})
	return f
}

// buildLists 按配置构建全部榜单 Pipeline。
func (e *Engine) buildLists() (map[string]*pipeline.Pipeline, error) {
	factory := e.newNodeFactory()
	out := make(map[string]*pipeline.Pipeline, len(e.cfg.Lists))
	for name, lc := range e.cfg.Lists {
		if lc.Name == "" {
			lc.Name = name
		}
		p, err := lc.BuildPipeline(factory)
		if err != nil {
			return nil, err
		}
		p.Hook = nodeHook
		out[name] = p
	}
	return out, nil
}
