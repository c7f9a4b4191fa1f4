package model

import (
	"os"

	"github.com/goccy/go-json"

	"github.com/rushteam/gameark/core"
)

// LinearModel 是线性加权模型：score = Bias + sum(Weight_i * Feature_i)。
// 缺失的特征按 0 计。
type LinearModel struct {
	Bias    float64            `json:"bias" koanf:"bias" yaml:"bias"`
	Weights map[string]float64 `json:"weights" koanf:"weights" yaml:"weights"`
}

// NewBlendModel 返回内容分与协同分的融合模型。
func NewBlendModel(contentWeight, collaborativeWeight float64) *LinearModel {
	return &LinearModel{
		Weights: map[string]float64{
			core.FeatureWeighted:      contentWeight,
			core.FeatureCollaborative: collaborativeWeight,
		},
	}
}

func LoadLinearModel(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m LinearModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *LinearModel) Name() string { return "linear" }

func (m *LinearModel) Predict(features map[string]float64) (float64, error) {
	score := m.Bias
	for k, w := range m.Weights {
		score += w * features[k]
	}
	return score, nil
}
