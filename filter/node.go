package filter

import (
	"context"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该物品就会被过滤掉。过滤器错误时记录但不中断流程。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if hit, reason := Any(ctx, rctx, item, n.Filters); hit {
			// 记录过滤原因，用于调试/观测
			item.PutLabel("filtered", utils.L("true", reason))
			continue
		}
		out = append(out, item)
	}
	return out, nil
}
