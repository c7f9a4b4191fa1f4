package feature

import (
	"strings"

	"github.com/rushteam/gameark/core"
)

// 设置项的默认值：无法识别的取值一律回退到这些值。
const (
	DefaultMinPlayers = 2
	DefaultMaxPlayers = 4
	DefaultPlayTime   = 90
	DefaultMinAge     = 12
	DefaultComplexity = 2.5
)

var (
	playersTable = map[string][2]float64{
		"1":   {1, 1},
		"2-4": {2, 4},
		"5-8": {5, 8},
		"8+":  {8, 12},
	}
	timeTable       = map[string]float64{"30": 30, "90": 90, "180": 180, "240": 240}
	ageTable        = map[string]float64{"6": 6, "10": 10, "12": 12, "14": 14}
	complexityTable = map[string]float64{"1.5": 1.5, "2.5": 2.5, "3.5": 3.5, "4.5": 4.5}
)

// ParsePlayers 解析人数档位，返回 (min, max)。
func ParsePlayers(v string) (float64, float64) {
	if p, ok := playersTable[strings.TrimSpace(v)]; ok {
		return p[0], p[1]
	}
	return DefaultMinPlayers, DefaultMaxPlayers
}

// ParseTime 解析游戏时长（分钟）。
func ParseTime(v string) float64 {
	if t, ok := timeTable[strings.TrimSpace(v)]; ok {
		return t
	}
	return DefaultPlayTime
}

// ParseAge 解析最低年龄。
func ParseAge(v string) float64 {
	if a, ok := ageTable[strings.TrimSpace(v)]; ok {
		return a
	}
	return DefaultMinAge
}

// ParseComplexity 解析复杂度档位。
func ParseComplexity(v string) float64 {
	if c, ok := complexityTable[strings.TrimSpace(v)]; ok {
		return c
	}
	return DefaultComplexity
}

// SettingsTuple 把四个设置解析为未缩放的数值 5 元组，列顺序同 NumericColumns。
func SettingsTuple(s core.GameSettings) []float64 {
	minP, maxP := ParsePlayers(s.Players)
	return []float64{minP, maxP, ParseTime(s.Time), ParseAge(s.Age), ParseComplexity(s.Complexity)}
}

// EncodePreferences 把偏好载荷编码到目录的特征空间。
//
// 选中的机制大类展开为原始机制后写入机制块；选中的领域写入领域块；
// 未知大类、机制、领域都被忽略。设置项按固定表解析后用目录的 scaler 缩放。
// 相同载荷与相同 Space 产出逐位相同的向量。
func EncodePreferences(p *core.Preferences, space *Space) ([]float64, error) {
	if space == nil || space.Mechanics == nil || space.Domains == nil || space.Scaler == nil {
		return nil, core.NewEncodingError("encoder: catalog feature space is not loaded", nil)
	}
	if p == nil {
		p = &core.Preferences{}
	}

	var mechanics []string
	for _, category := range p.SelectedMechanics {
		if list, ok := core.CategoryMechanics(category); ok {
			mechanics = append(mechanics, list...)
		}
	}

	vec, err := space.Vector(mechanics, p.SelectedDomains, SettingsTuple(p.GameSettings))
	if err != nil {
		return nil, core.NewEncodingError("encoder: build preference vector", err)
	}
	return vec, nil
}
