package core

import (
	"strings"

	"github.com/goccy/go-json"

	"github.com/rushteam/gameark/pkg/conv"
)

// Preferences 是一次推荐请求的偏好载荷。
// 所有字段都可为空；未知的机制大类、领域、游戏名都会被静默忽略。
type Preferences struct {
	SelectedMechanics []string     `json:"selectedMechanics" validate:"max=50,dive,max=200"`
	SelectedDomains   []string     `json:"selectedDomains" validate:"max=50,dive,max=200"`
	SelectedGames     []string     `json:"selectedGames" validate:"max=50,dive,max=200"`
	GameSettings      GameSettings `json:"gameSettings"`
}

// GameSettings 是四个离散偏好设置，值为前端下拉框的字符串（例如 "2-4"、"90"、"2.5"）。
type GameSettings struct {
	Players    string `json:"players" validate:"max=200"`
	Time       string `json:"time" validate:"max=200"`
	Age        string `json:"age" validate:"max=200"`
	Complexity string `json:"complexity" validate:"max=200"`
}

// UnmarshalJSON 兼容数字形式的设置值（例如 "time": 90）。
func (s *GameSettings) UnmarshalJSON(data []byte) error {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	get := func(key string) string {
		v, ok := conv.ToString(raw[key])
		if !ok {
			return ""
		}
		return strings.TrimSpace(v)
	}
	s.Players = get("players")
	s.Time = get("time")
	s.Age = get("age")
	s.Complexity = get("complexity")
	return nil
}

// ReferenceGames 返回去掉空白项后的参考游戏名，保持原顺序。
func (p *Preferences) ReferenceGames() []string {
	if p == nil {
		return nil
	}
	out := make([]string, 0, len(p.SelectedGames))
	for _, g := range p.SelectedGames {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
