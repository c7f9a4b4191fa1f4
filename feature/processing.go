package feature

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// MinMaxScaler 对定长数值块逐列做 min-max 缩放到 [0,1]。
// 拟合后列的 min/max 固定，偏好向量必须用同一个 scaler 变换才能与目录同空间。
// 零跨度的列变换结果为 0。
type MinMaxScaler struct {
	Min []float64 // 每列最小值
	Max []float64 // 每列最大值
}

// FitMinMaxScaler 在行矩阵上拟合列 min/max。所有行长度必须一致且不少于一行。
func FitMinMaxScaler(rows [][]float64) (*MinMaxScaler, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("feature: min-max scaler needs at least one row")
	}
	width := len(rows[0])
	s := &MinMaxScaler{Min: make([]float64, width), Max: make([]float64, width)}
	col := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, r := range rows {
			if len(r) != width {
				return nil, fmt.Errorf("feature: row %d has %d columns, want %d", i, len(r), width)
			}
			col[i] = r[j]
		}
		s.Min[j] = floats.Min(col)
		s.Max[j] = floats.Max(col)
	}
	return s, nil
}

// Width 返回列数。
func (s *MinMaxScaler) Width() int { return len(s.Min) }

// NormalizeValueAt 缩放第 j 列的一个值；不截断到 [0,1]，越界值按同一线性映射输出。
func (s *MinMaxScaler) NormalizeValueAt(j int, value float64) float64 {
	span := s.Max[j] - s.Min[j]
	if span == 0 {
		return 0
	}
	return (value - s.Min[j]) / span
}

// TransformInto 把一行缩放后写入 dst（len(dst) >= Width）。
func (s *MinMaxScaler) TransformInto(dst, row []float64) error {
	if len(row) != s.Width() || len(dst) < s.Width() {
		return fmt.Errorf("feature: scaler width %d, got row %d dst %d", s.Width(), len(row), len(dst))
	}
	for j, v := range row {
		dst[j] = s.NormalizeValueAt(j, v)
	}
	return nil
}

// MedianImputer 用列中位数填补缺失值。中位数只基于存在的值计算；整列缺失时为 0。
type MedianImputer struct {
	Medians []float64
}

// FitMedianImputer 拟合每列中位数。present[i][j] 为 false 表示该格缺失。
func FitMedianImputer(values [][]float64, present [][]bool, width int) *MedianImputer {
	imp := &MedianImputer{Medians: make([]float64, width)}
	col := make([]float64, 0, len(values))
	for j := 0; j < width; j++ {
		col = col[:0]
		for i := range values {
			if present[i][j] {
				col = append(col, values[i][j])
			}
		}
		imp.Medians[j] = ComputeStatistics(col).Median
	}
	return imp
}

// Fill 就地填补一行中的缺失格。
func (imp *MedianImputer) Fill(row []float64, present []bool) {
	for j := range row {
		if !present[j] {
			row[j] = imp.Medians[j]
		}
	}
}

// FeatureStatistics 是一列数值的描述统计。
type FeatureStatistics struct {
	Count  int
	Mean   float64
	Std    float64
	Min    float64
	Max    float64
	Median float64
	P25    float64
	P75    float64
}

// ComputeStatistics 计算描述统计；空输入返回零值。
// 分位数使用线性插值，偶数个样本的中位数是中间两个值的平均。
func ComputeStatistics(values []float64) *FeatureStatistics {
	if len(values) == 0 {
		return &FeatureStatistics{}
	}

	// 复制并排序
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	stats := &FeatureStatistics{
		Count: len(values),
		Min:   sorted[0],
		Max:   sorted[len(sorted)-1],
	}

	stats.Mean = floats.Sum(values) / float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - stats.Mean) * (v - stats.Mean)
	}
	stats.Std = math.Sqrt(variance / float64(len(values)))

	stats.Median = computePercentile(sorted, 0.5)
	stats.P25 = computePercentile(sorted, 0.25)
	stats.P75 = computePercentile(sorted, 0.75)

	return stats
}

func computePercentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	index := p * float64(len(sorted)-1)
	lower := int(index)
	upper := lower + 1
	if upper >= len(sorted) {
		return sorted[len(sorted)-1]
	}
	weight := index - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}
