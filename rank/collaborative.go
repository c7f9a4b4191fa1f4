package rank

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
	"github.com/rushteam/gameark/recall"
)

// CollaborativeNode 向召回源查询协同分并回填到已有条目上：
// 命中的条目写入 collaborative 特征，未命中的条目该特征为 0。
// 召回源失败时只记日志并打上请求级 label collaborative=degraded，所有条目协同分为 0。
type CollaborativeNode struct {
	Source recall.Source
	Logger *zerolog.Logger
}

func (n *CollaborativeNode) Name() string        { return "rank.collaborative" }
func (n *CollaborativeNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *CollaborativeNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	scores := make(map[int64]float64)
	if n.Source != nil && len(items) > 0 {
		got, err := n.Source.Recall(ctx, rctx)
		if err != nil {
			if n.Logger != nil {
				n.Logger.Warn().Err(err).Str("source", n.Source.Name()).Msg("collaborative lookup failed")
			}
			if rctx != nil {
				rctx.PutLabel("collaborative", utils.L("degraded", "rank"))
			}
		}
		for _, it := range got {
			if it == nil {
				continue
			}
			if _, ok := scores[it.ID]; !ok {
				scores[it.ID] = it.Features[core.FeatureCollaborative]
			}
		}
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		s, ok := scores[it.ID]
		it.SetFeature(core.FeatureCollaborative, s)
		if ok {
			it.PutLabel("collaborative_hit", utils.L("1", "rank"))
		}
	}
	return items, nil
}
