package core

import "github.com/rushteam/gameark/pkg/utils"

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Features 存放分数拆解（similarity / weighted / collaborative / final），
// Meta["game"] 存放 *Game，Labels 用于解释与策略驱动。
type Item struct {
	ID       int64
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

// 常用 Feature key
const (
	FeatureSimilarity    = "similarity"
	FeatureWeighted      = "weighted"
	FeatureCollaborative = "collaborative"
	FeatureFinal         = "final"
	FeaturePoolRank      = "pool_rank"
)

// MetaGame 是 Item.Meta 中保存目录游戏的 key。
const MetaGame = "game"

func NewItem(id int64) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewGameItem 用目录游戏构造 Item。
func NewGameItem(g *Game) *Item {
	it := NewItem(g.ID)
	it.Meta[MetaGame] = g
	return it
}

// Game 返回 Item 关联的目录游戏，没有时返回 nil。
func (it *Item) Game() *Game {
	if it == nil || it.Meta == nil {
		return nil
	}
	g, _ := it.Meta[MetaGame].(*Game)
	return g
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SetFeature 写入一个分数特征。
func (it *Item) SetFeature(key string, v float64) {
	if it.Features == nil {
		it.Features = make(map[string]float64)
	}
	it.Features[key] = v
}
