package feature

import "sort"

// Encoder 把一组类别值编码为稠密向量片段。
type Encoder interface {
	// Width 返回输出维度
	Width() int
	// EncodeInto 把 values 编码写入 dst（长度至少为 Width），未知类别忽略
	EncodeInto(dst []float64, values []string)
}

// MultiHotEncoder 是多标签 one-hot 编码器（一个游戏可以同时有多个机制/领域）。
// 类别表在拟合时按字典序固定，之后只读。
type MultiHotEncoder struct {
	classes []string
	index   map[string]int
}

// FitMultiHotEncoder 从所有样本的标签集合拟合类别表。空串被忽略。
func FitMultiHotEncoder(samples [][]string) *MultiHotEncoder {
	seen := make(map[string]struct{})
	for _, s := range samples {
		for _, v := range s {
			if v == "" {
				continue
			}
			seen[v] = struct{}{}
		}
	}
	classes := make([]string, 0, len(seen))
	for v := range seen {
		classes = append(classes, v)
	}
	sort.Strings(classes)

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		index[c] = i
	}
	return &MultiHotEncoder{classes: classes, index: index}
}

func (e *MultiHotEncoder) Width() int { return len(e.classes) }

// Classes 返回类别表的副本。
func (e *MultiHotEncoder) Classes() []string {
	return append([]string(nil), e.classes...)
}

// Index 查询类别列号；未知类别返回 (-1, false)。
func (e *MultiHotEncoder) Index(class string) (int, bool) {
	i, ok := e.index[class]
	if !ok {
		return -1, false
	}
	return i, true
}

func (e *MultiHotEncoder) EncodeInto(dst []float64, values []string) {
	for _, v := range values {
		if i, ok := e.index[v]; ok {
			dst[i] = 1.0
		}
	}
}

var _ Encoder = (*MultiHotEncoder)(nil)
