package feature

import "fmt"

// NumericColumns 是数值块的固定列顺序。
var NumericColumns = []string{"Min Players", "Max Players", "Play Time", "Min Age", "Complexity"}

// NumericWidth 是数值块维度。
const NumericWidth = 5

// Space 是拟合好的特征空间：[机制 multi-hot | 领域 multi-hot | 缩放后的数值块]。
// 目录行与偏好向量都通过同一个 Space 构造，保证同维同序。
type Space struct {
	Mechanics *MultiHotEncoder
	Domains   *MultiHotEncoder
	Scaler    *MinMaxScaler
}

// NewSpace 组装特征空间，三个组件都必须存在。
func NewSpace(mechanics, domains *MultiHotEncoder, scaler *MinMaxScaler) (*Space, error) {
	if mechanics == nil || domains == nil || scaler == nil {
		return nil, fmt.Errorf("feature: space requires mechanics, domains and scaler")
	}
	if scaler.Width() != NumericWidth {
		return nil, fmt.Errorf("feature: scaler width %d, want %d", scaler.Width(), NumericWidth)
	}
	return &Space{Mechanics: mechanics, Domains: domains, Scaler: scaler}, nil
}

func (s *Space) MechanicsOffset() int { return 0 }
func (s *Space) DomainsOffset() int   { return s.Mechanics.Width() }
func (s *Space) NumericOffset() int   { return s.Mechanics.Width() + s.Domains.Width() }

// Dim 返回向量总维度。
func (s *Space) Dim() int { return s.NumericOffset() + NumericWidth }

// Vector 构造一行向量。numeric 是未缩放的 5 元组。
func (s *Space) Vector(mechanics, domains []string, numeric []float64) ([]float64, error) {
	if len(numeric) != NumericWidth {
		return nil, fmt.Errorf("feature: numeric block has %d values, want %d", len(numeric), NumericWidth)
	}
	vec := make([]float64, s.Dim())
	s.Mechanics.EncodeInto(vec[s.MechanicsOffset():s.DomainsOffset()], mechanics)
	s.Domains.EncodeInto(vec[s.DomainsOffset():s.NumericOffset()], domains)
	if err := s.Scaler.TransformInto(vec[s.NumericOffset():], numeric); err != nil {
		return nil, err
	}
	return vec, nil
}
