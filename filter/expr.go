package filter

import (
	"context"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pkg/dsl"
)

// ExprFilter 用 CEL 表达式筛选：表达式为 true 的 Item 保留，其余过滤。
// 求值出错（例如 Item 没有关联游戏）的 Item 同样被过滤。
// 例如 `item.has_rating && item.rating >= 7.5 && item.users_rated >= 1000`。
type ExprFilter struct {
	pred *dsl.Predicate
}

// NewExprFilter 编译表达式。
func NewExprFilter(expr string) (*ExprFilter, error) {
	p, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &ExprFilter{pred: p}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr" }

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string { return f.pred.String() }

func (f *ExprFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	keep, err := f.pred.Match(item, rctx)
	if err != nil {
		return true, nil
	}
	return !keep, nil
}
