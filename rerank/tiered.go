package rerank

import (
	"context"
	"strconv"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/filter"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/dsl"
	"github.com/rushteam/gameark/pkg/utils"
)

// Tier 是分层选择中的一层：名称与准入谓词。
type Tier struct {
	Name      string
	Predicate *dsl.Predicate
}

// CompileTiers 按顺序编译分层谓词，层名为 tier_1、tier_2 ...
func CompileTiers(exprs []string) ([]Tier, error) {
	tiers := make([]Tier, 0, len(exprs))
	for i, expr := range exprs {
		p, err := dsl.Compile(expr)
		if err != nil {
			return nil, err
		}
		tiers = append(tiers, Tier{Name: tierName(i), Predicate: p})
	}
	return tiers, nil
}

func tierName(i int) string {
	return "tier_" + strconv.Itoa(i+1)
}

// TieredSelect 按层依次扫描候选池，直到凑满 N 个：
// 第一层按池顺序收取满足谓词的条目；不足时下一层再扫一遍池，跳过已收取的条目。
// 每层都先经过 Filters（例如缺少名称或评分的条目一律跳过）。
// 输出顺序为收取顺序，条目带 tier 标签。
type TieredSelect struct {
	N       int // <= 0 时读取 rctx.Params["n"]
	Tiers   []Tier
	Filters []filter.Filter
}

func (n *TieredSelect) Name() string        { return "rerank.tiered" }
func (n *TieredSelect) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *TieredSelect) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 {
		limit = core.ParamInt(rctx, core.ParamN, 0)
	}
	if limit <= 0 || len(items) == 0 {
		return nil, nil
	}

	out := make([]*core.Item, 0, limit)
	accepted := make(map[int64]struct{}, limit)
	for _, tier := range n.Tiers {
		if len(out) >= limit {
			break
		}
		for _, it := range items {
			if len(out) >= limit {
				break
			}
			if it == nil {
				continue
			}
			if _, ok := accepted[it.ID]; ok {
				continue
			}
			if hit, _ := filter.Any(ctx, rctx, it, n.Filters); hit {
				continue
			}
			ok, err := tier.Predicate.Match(it, rctx)
			if err != nil || !ok {
				continue
			}
			it.PutLabel("tier", utils.L(tier.Name, "rerank"))
			accepted[it.ID] = struct{}{}
			out = append(out, it)
		}
	}
	return out, nil
}
