package filter

import (
	"context"

	"github.com/rushteam/gameark/core"
)

// Filter 是过滤器的抽象接口，用于判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Any 判断 item 是否被任一过滤器拒绝，返回命中的过滤器名称。
// 过滤器出错时视为未命中。
func Any(ctx context.Context, rctx *core.RecommendContext, item *core.Item, filters []Filter) (bool, string) {
	for _, f := range filters {
		hit, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			continue
		}
		if hit {
			return true, f.Name()
		}
	}
	return false, ""
}
