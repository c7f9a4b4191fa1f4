package core

// 打分与选择的默认参数，各模块的 Config 以此为零值回退。
const (
	// DefaultRatingWeight / DefaultPopularityWeight 是加权分中评分与热度的权重，
	// 相似度权重为 1 - rating - popularity。
	DefaultRatingWeight     = 0.3
	DefaultPopularityWeight = 0.2

	// DefaultReferenceBlend 是参考游戏相似度混入的比例：sim = (1-b)*sim + b*ref。
	DefaultReferenceBlend = 0.3

	// DefaultContentWeight / DefaultCollaborativeWeight 是最终分的线性融合权重。
	DefaultContentWeight       = 0.6
	DefaultCollaborativeWeight = 0.4

	// DefaultOverfetch 是候选池相对 N 的倍数，DefaultCollaborativeFactor 是 CF 查询相对 N 的倍数。
	DefaultOverfetch           = 4
	DefaultCollaborativeFactor = 2

	// DefaultTopN 是主推荐列表的默认长度。
	DefaultTopN = 12

	// NormEpsilon 是 min-max 归一化分母上的平滑项。
	NormEpsilon = 1e-8
)

// DefaultTiers 是分层选择的默认谓词（CEL 表达式），按顺序尝试。
var DefaultTiers = []string{
	"item.users_rated >= 500",
	"item.users_rated >= 100",
}
