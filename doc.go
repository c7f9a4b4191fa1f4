// Package gameark 是一个桌游推荐服务。
//
// 推荐由两路信号组成：
//   - 内容相似度：偏好编码成与目录同一特征空间的向量，与每个游戏做余弦相似度，
//     再与评分、热度先验加权（recall.ContentRecall）
//   - 协同过滤：由用户评分构建 item-item 相似度矩阵，对参考游戏求平均相似度（recall.ItemCF）
//
// 两路信号在 Pipeline 中串联：召回 → 协同打分 → 线性融合 → 分层筛选 → 排序。
// 榜单（高分、最新、经典、更多游戏）同样是声明式配置的 Pipeline。
package gameark

import (
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/recommend"
)

// 轻量 facade：便于直接 import "gameark" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind
type Engine = recommend.Engine

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// New 创建推荐引擎，见 recommend.New。
func New(cfg recommend.Config, opts ...recommend.Option) (*Engine, error) {
	return recommend.New(cfg, opts...)
}
