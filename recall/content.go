package recall

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/gameark/catalog"
	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/feature"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
)

// CosineScores 计算 vec 与目录每一行的余弦相似度。零范数一侧的相似度为 0。
func CosineScores(vec []float64, idx *catalog.Index) []float64 {
	out := make([]float64, idx.Len())
	vnorm := floats.Norm(vec, 2)
	if vnorm == 0 {
		return out
	}
	for i := range out {
		n := idx.Norm(i)
		if n == 0 {
			continue
		}
		out[i] = floats.Dot(vec, idx.Row(i)) / (vnorm * n)
	}
	return out
}

// Weighted 把相似度与质量先验融合为加权分：
// (1-rw-pw)*norm(sim) + rw*norm(rating) + pw*norm(users_rated)。
func Weighted(sim []float64, idx *catalog.Index, ratingWeight, popularityWeight float64) []float64 {
	simNorm := catalog.MinMaxNormalize(sim)
	simWeight := 1.0 - ratingWeight - popularityWeight
	out := make([]float64, len(sim))
	for i := range out {
		out[i] = simWeight*simNorm[i] +
			ratingWeight*idx.RatingPrior(i) +
			popularityWeight*idx.PopularityPrior(i)
	}
	return out
}

// ContentScores 是一次内容打分的结果，按目录行对齐。
type ContentScores struct {
	Similarity []float64
	Weighted   []float64

	// References 是解析成功的参考游戏行号与 ID，按请求顺序
	References   []int
	ReferenceIDs []int64
}

// ContentScorer 基于偏好向量与参考游戏给目录打分。零值可用，权重取默认值。
type ContentScorer struct {
	RatingWeight     float64
	PopularityWeight float64
	ReferenceBlend   float64
}

// NewContentScorer 使用默认权重。
func NewContentScorer() *ContentScorer {
	return &ContentScorer{
		RatingWeight:     core.DefaultRatingWeight,
		PopularityWeight: core.DefaultPopularityWeight,
		ReferenceBlend:   core.DefaultReferenceBlend,
	}
}

// ResolveReferences 把参考游戏名解析为目录行号；空白与无法匹配的名字被跳过。
func ResolveReferences(idx *catalog.Index, names []string) []int {
	var out []int
	for _, name := range names {
		if pos, ok := idx.FindByName(name); ok {
			out = append(out, pos)
		}
	}
	return out
}

// Score 对整个目录打分。每个解析到的参考游戏依次把相似度向其自身的相似度行拉近：
// sim = (1-b)*sim + b*refSim。
func (s *ContentScorer) Score(_ context.Context, idx *catalog.Index, prefs *core.Preferences) (*ContentScores, error) {
	if idx == nil {
		return nil, core.NewEncodingError("recall: catalog index is not loaded", nil)
	}
	vec, err := feature.EncodePreferences(prefs, idx.Space())
	if err != nil {
		return nil, err
	}

	sim := CosineScores(vec, idx)
	refs := ResolveReferences(idx, prefs.ReferenceGames())
	b := s.ReferenceBlend
	for _, pos := range refs {
		refSim := CosineScores(idx.Row(pos), idx)
		for i := range sim {
			sim[i] = (1-b)*sim[i] + b*refSim[i]
		}
	}

	out := &ContentScores{
		Similarity: sim,
		Weighted:   Weighted(sim, idx, s.RatingWeight, s.PopularityWeight),
		References: refs,
	}
	for _, pos := range refs {
		out.ReferenceIDs = append(out.ReferenceIDs, idx.GameAt(pos).ID)
	}
	return out, nil
}

// TopWeighted 返回加权分最高的 k 个行号，同分保持目录顺序。
func TopWeighted(weighted []float64, k int) []int {
	order := make([]int, len(weighted))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return weighted[order[a]] > weighted[order[b]]
	})
	if k >= 0 && k < len(order) {
		order = order[:k]
	}
	return order
}

// ContentRecall 是基于内容的召回源：按偏好给目录打分，取加权分 TopK 作为候选池。
//
// 写入 item.Features：similarity / weighted / pool_rank；
// 写入 rctx.Params["reference_ids"]：解析到的参考游戏 ID，供协同过滤使用。
type ContentRecall struct {
	Scorer *ContentScorer
	Index  func() *catalog.Index

	// TopK 为 0 时读取 rctx.Params["pool_size"]
	TopK int
}

func (r *ContentRecall) Name() string        { return "recall.content" }
func (r *ContentRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *ContentRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *ContentRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	var idx *catalog.Index
	if r.Index != nil {
		idx = r.Index()
	}
	scorer := r.Scorer
	if scorer == nil {
		scorer = NewContentScorer()
	}
	var prefs *core.Preferences
	if rctx != nil {
		prefs = rctx.Preferences
	}

	scores, err := scorer.Score(ctx, idx, prefs)
	if err != nil {
		return nil, err
	}

	k := r.TopK
	if k == 0 {
		k = core.ParamInt(rctx, core.ParamPoolSize, idx.Len())
	}
	top := TopWeighted(scores.Weighted, k)
	out := make([]*core.Item, 0, len(top))
	for rank, pos := range top {
		it := core.NewGameItem(idx.GameAt(pos))
		it.Score = scores.Weighted[pos]
		it.SetFeature(core.FeatureSimilarity, scores.Similarity[pos])
		it.SetFeature(core.FeatureWeighted, scores.Weighted[pos])
		it.SetFeature(core.FeaturePoolRank, float64(rank))
		it.PutLabel("recall_source", utils.L("content", "recall"))
		out = append(out, it)
	}
	if rctx != nil {
		rctx.SetParam(core.ParamReferenceIDs, scores.ReferenceIDs)
	}
	return out, nil
}
