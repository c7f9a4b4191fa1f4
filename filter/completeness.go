package filter

import (
	"context"
	"strings"

	"github.com/rushteam/gameark/core"
)

// CompletenessFilter 过滤掉缺少名称或评分的游戏，以及没有关联目录记录的 Item。
type CompletenessFilter struct{}

func (CompletenessFilter) Name() string { return "filter.completeness" }

func (CompletenessFilter) ShouldFilter(
	_ context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	g := item.Game()
	if g == nil {
		return true, nil
	}
	return strings.TrimSpace(g.Name) == "" || !g.HasRating, nil
}
