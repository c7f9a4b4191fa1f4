package core

// Game 是目录中的一条桌游记录（加载后不可变）。
// 数值字段在加载时已经用列中位数补齐；评分与年份可能缺失，分别由 HasRating / HasYear 标记。
type Game struct {
	ID   int64
	Name string

	MinPlayers float64
	MaxPlayers float64
	PlayTime   float64
	MinAge     float64
	Complexity float64

	Rating     float64
	HasRating  bool
	UsersRated int64
	Year       int
	HasYear    bool

	Mechanics           []string
	Domains             []string
	MechanismCategories []string
}

// Recommendation 是一条带分数拆解的推荐结果。
type Recommendation struct {
	ID         int64    `json:"id"`
	Name       string   `json:"name"`
	Rating     float64  `json:"rating"`
	Year       int      `json:"year"`
	MinPlayers int      `json:"min_players"`
	MaxPlayers int      `json:"max_players"`
	PlayTime   int      `json:"play_time"`
	MinAge     int      `json:"min_age"`
	Complexity float64  `json:"complexity"`
	Mechanics  []string `json:"mechanics"`
	Domains    []string `json:"domains"`
	UsersRated int64    `json:"users_rated"`

	SimilarityScore    float64 `json:"similarity_score"`
	WeightedScore      float64 `json:"weighted_score"`
	CollaborativeScore float64 `json:"collaborative_score"`
	FinalScore         float64 `json:"final_score"`
	MatchScore         int     `json:"match_score"`
	Tier               string  `json:"tier,omitempty"`
}

// GameSummary 是榜单类列表（高分、最新、经典）使用的精简记录。
type GameSummary struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	Year       int     `json:"year"`
	UsersRated int64   `json:"users_rated"`
	MinPlayers int     `json:"min_players"`
	MaxPlayers int     `json:"max_players"`
	PlayTime   int     `json:"play_time"`
	Complexity float64 `json:"complexity"`
}

// Summary 生成榜单记录；缺失的评分与年份输出为 0。
func (g *Game) Summary() GameSummary {
	return GameSummary{
		ID:         g.ID,
		Name:       g.Name,
		Rating:     g.RatingOrZero(),
		Year:       g.YearOrZero(),
		UsersRated: g.UsersRated,
		MinPlayers: int(g.MinPlayers),
		MaxPlayers: int(g.MaxPlayers),
		PlayTime:   int(g.PlayTime),
		Complexity: g.Complexity,
	}
}

// RatingOrZero 返回评分，缺失时为 0。
func (g *Game) RatingOrZero() float64 {
	if !g.HasRating {
		return 0
	}
	return g.Rating
}

// YearOrZero 返回出版年份，缺失时为 0。
func (g *Game) YearOrZero() int {
	if !g.HasYear {
		return 0
	}
	return g.Year
}

// MatchScore 把加权分映射到 0~100 的整数（向零截断后夹紧）。
func MatchScore(weighted float64) int {
	v := int(weighted * 100)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// NewRecommendation 由目录游戏与分数拆解构造推荐结果。
func NewRecommendation(g *Game, it *Item) Recommendation {
	rec := Recommendation{
		ID:         g.ID,
		Name:       g.Name,
		Rating:     g.RatingOrZero(),
		Year:       g.YearOrZero(),
		MinPlayers: int(g.MinPlayers),
		MaxPlayers: int(g.MaxPlayers),
		PlayTime:   int(g.PlayTime),
		MinAge:     int(g.MinAge),
		Complexity: g.Complexity,
		Mechanics:  append([]string(nil), g.Mechanics...),
		Domains:    append([]string(nil), g.Domains...),
		UsersRated: g.UsersRated,
	}
	if rec.Mechanics == nil {
		rec.Mechanics = []string{}
	}
	if rec.Domains == nil {
		rec.Domains = []string{}
	}
	if it != nil {
		rec.SimilarityScore = it.Features[FeatureSimilarity]
		rec.WeightedScore = it.Features[FeatureWeighted]
		rec.CollaborativeScore = it.Features[FeatureCollaborative]
		rec.FinalScore = it.Features[FeatureFinal]
		rec.MatchScore = MatchScore(rec.WeightedScore)
		if lbl, ok := it.Labels["tier"]; ok {
			rec.Tier = lbl.Value
		}
	}
	return rec
}
