package pipeline

import (
	"context"
	"fmt"

	"github.com/rushteam/gameark/core"
)

// Pipeline 把推荐逻辑拆成可组合的 Node 链：召回 -> 过滤 -> 排序 -> 重排。
type Pipeline struct {
	Nodes []Node

	// Hook 在每个 Node 执行后调用，可用于打点；为空时忽略
	Hook func(node Node, in, out int)
}

func (p *Pipeline) Run(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	cur := items
	for _, node := range p.Nodes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := node.Process(ctx, rctx, cur)
		if err != nil {
			return nil, fmt.Errorf("pipeline: %s: %w", node.Name(), err)
		}
		if p.Hook != nil {
			p.Hook(node, len(cur), len(next))
		}
		cur = next
	}
	return cur, nil
}
