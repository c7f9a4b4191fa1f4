// Package catalog 加载桌游目录并构建只读的特征索引。
package catalog

import (
	"math"
	"strings"
	"unicode/utf8"

	"gonum.org/v1/gonum/floats"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/feature"
)

// Index 是目录特征索引：游戏记录、特征矩阵、行范数以及拟合好的特征空间。
// 构建完成后只读，可被多个请求并发使用。
type Index struct {
	games []*core.Game
	byID  map[int64]int
	names []string // 小写名称，用于参考游戏匹配

	space *feature.Space
	rows  [][]float64
	norms []float64

	// 质量先验，min-max 归一化后的评分与评分人数（缺失视为 0）
	ratingNorm     []float64
	popularityNorm []float64

	encoding string
}

type rawRow struct {
	game    *core.Game
	numeric []float64
	present []bool
}

func build(rows []rawRow, encoding string) (*Index, error) {
	if len(rows) == 0 {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: no usable rows", nil)
	}

	mechSamples := make([][]string, len(rows))
	domSamples := make([][]string, len(rows))
	numeric := make([][]float64, len(rows))
	present := make([][]bool, len(rows))
	for i, r := range rows {
		mechSamples[i] = r.game.Mechanics
		domSamples[i] = r.game.Domains
		numeric[i] = r.numeric
		present[i] = r.present
	}

	imputer := feature.FitMedianImputer(numeric, present, feature.NumericWidth)
	for i, r := range rows {
		imputer.Fill(numeric[i], present[i])
		g := r.game
		g.MinPlayers, g.MaxPlayers, g.PlayTime, g.MinAge, g.Complexity =
			numeric[i][0], numeric[i][1], numeric[i][2], numeric[i][3], numeric[i][4]
	}

	scaler, err := feature.FitMinMaxScaler(numeric)
	if err != nil {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: fit scaler", err)
	}
	space, err := feature.NewSpace(
		feature.FitMultiHotEncoder(mechSamples),
		feature.FitMultiHotEncoder(domSamples),
		scaler,
	)
	if err != nil {
		return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: build feature space", err)
	}

	idx := &Index{
		games:    make([]*core.Game, len(rows)),
		byID:     make(map[int64]int, len(rows)),
		names:    make([]string, len(rows)),
		space:    space,
		rows:     make([][]float64, len(rows)),
		norms:    make([]float64, len(rows)),
		encoding: encoding,
	}
	ratings := make([]float64, len(rows))
	users := make([]float64, len(rows))
	for i, r := range rows {
		g := r.game
		vec, err := space.Vector(g.Mechanics, g.Domains, numeric[i])
		if err != nil {
			return nil, core.NewDataLoadError(core.ModuleCatalog, "catalog: encode row", err)
		}
		idx.games[i] = g
		idx.byID[g.ID] = i
		idx.names[i] = strings.ToLower(g.Name)
		idx.rows[i] = vec
		idx.norms[i] = floats.Norm(vec, 2)
		ratings[i] = g.RatingOrZero()
		users[i] = float64(g.UsersRated)
	}
	idx.ratingNorm = MinMaxNormalize(ratings)
	idx.popularityNorm = MinMaxNormalize(users)
	return idx, nil
}

// MinMaxNormalize 返回 (x - min) / (max - min + 1e-8)。空输入返回空切片。
func MinMaxNormalize(values []float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	lo, hi := floats.Min(values), floats.Max(values)
	den := hi - lo + core.NormEpsilon
	for i, v := range values {
		out[i] = (v - lo) / den
	}
	return out
}

// Len 返回游戏数量。
func (x *Index) Len() int { return len(x.games) }

// Games 返回按目录顺序排列的游戏（调用方不得修改）。
func (x *Index) Games() []*core.Game { return x.games }

// GameAt 返回第 i 行的游戏。
func (x *Index) GameAt(i int) *core.Game { return x.games[i] }

// Game 按 ID 查找游戏。
func (x *Index) Game(id int64) (*core.Game, bool) {
	i, ok := x.byID[id]
	if !ok {
		return nil, false
	}
	return x.games[i], true
}

// Position 返回 ID 对应的行号。
func (x *Index) Position(id int64) (int, bool) {
	i, ok := x.byID[id]
	return i, ok
}

// Row 返回第 i 行特征向量（只读）。
func (x *Index) Row(i int) []float64 { return x.rows[i] }

// Norm 返回第 i 行的 L2 范数。
func (x *Index) Norm(i int) float64 { return x.norms[i] }

// Space 返回拟合好的特征空间。
func (x *Index) Space() *feature.Space { return x.space }

// RatingPrior 返回归一化评分。
func (x *Index) RatingPrior(i int) float64 { return x.ratingNorm[i] }

// PopularityPrior 返回归一化评分人数。
func (x *Index) PopularityPrior(i int) float64 { return x.popularityNorm[i] }

// Encoding 返回加载时实际使用的文本编码。
func (x *Index) Encoding() string { return x.encoding }

// FindByName 按名称模糊匹配游戏：大小写不敏感的子串匹配，名称最短者胜出，
// 长度相同取目录中靠前者。空查询或无匹配返回 (-1, false)。
func (x *Index) FindByName(query string) (int, bool) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return -1, false
	}
	best, bestLen := -1, math.MaxInt
	for i, name := range x.names {
		if !strings.Contains(name, q) {
			continue
		}
		if n := utf8.RuneCountInString(x.games[i].Name); n < bestLen {
			best, bestLen = i, n
		}
	}
	return best, best >= 0
}
