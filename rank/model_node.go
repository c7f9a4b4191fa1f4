package rank

import (
	"context"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/model"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
)

// ModelNode 用 RankModel 给每个条目打分。
// - 写入特征 final 与 item.Score
// - 写入 labels：rank_model
// 不改变顺序，排序交给后续的重排节点。
type ModelNode struct {
	Model model.RankModel
}

func (n *ModelNode) Name() string        { return "rank.model" }
func (n *ModelNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *ModelNode) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.Model == nil || len(items) == 0 {
		return items, nil
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		score, err := n.Model.Predict(it.Features)
		if err != nil {
			return nil, err
		}
		it.Score = score
		it.SetFeature(core.FeatureFinal, score)
		it.PutLabel("rank_model", utils.L(n.Model.Name(), "rank"))
	}
	return items, nil
}
