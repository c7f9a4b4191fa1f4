package filter

import (
	"context"

	"github.com/rushteam/gameark/core"
)

// ExcludeFilter 过滤掉指定 ID 的游戏：静态 IDs 加上 rctx.Params["exclude_ids"]。
type ExcludeFilter struct {
	IDs []int64
}

// NewExcludeFilter 创建一个排除过滤器。
func NewExcludeFilter(ids ...int64) *ExcludeFilter {
	return &ExcludeFilter{IDs: ids}
}

func (f *ExcludeFilter) Name() string {
	return "filter.exclude"
}

func (f *ExcludeFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	for _, id := range f.IDs {
		if item.ID == id {
			return true, nil
		}
	}
	for _, id := range core.ParamIDs(rctx, core.ParamExcludeIDs) {
		if item.ID == id {
			return true, nil
		}
	}
	return false, nil
}
