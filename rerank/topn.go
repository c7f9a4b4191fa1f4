package rerank

import (
	"context"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在排序后截取前 N 个物品。
//
// 示例（高分榜）：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.CatalogScan{...},                  // 全目录
//	        &filter.FilterNode{...},                   // rating >= 7.5 && users_rated >= 1000
//	        &rerank.OrderBy{Keys: ...},                // 评分降序
//	        &rerank.TopNNode{N: 4},                    // 截取 Top 4
//	    },
//	}
type TopNNode struct {
	// N 要保留的物品数量（Top N）
	// 如果 N <= 0，则读取 rctx.Params["n"]；仍未设置时返回所有物品
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 {
		limit = core.ParamInt(rctx, core.ParamN, 0)
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
