package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/gameark/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Predicate 是编译好的布尔表达式，可并发复用。
//
// 表达式语法（CEL）：
//   - 数值：item.users_rated >= 500 / item.rating >= 7.5
//   - 缺失：item.has_rating && item.has_year
//   - 标签：label.recall_source == "content"
//   - 请求：rctx.scene == "main" / item.year >= rctx.current_year - 10
//   - 请求标签："collaborative" in rctx.labels
type Predicate struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；空表达式恒为 true。
func Compile(expr string) (*Predicate, error) {
	if expr == "" {
		return &Predicate{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program %q: %w", expr, err)
	}
	return &Predicate{expr: expr, prg: prg}, nil
}

// MustCompile 同 Compile，失败时 panic；只用于编译期已知的常量表达式。
func MustCompile(expr string) *Predicate {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// String 返回原始表达式。
func (p *Predicate) String() string { return p.expr }

// Match 对 item 求值。表达式必须返回 bool。
func (p *Predicate) Match(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil || p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("dsl: eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

// Eval 编译并执行一次表达式，适合一次性调用；热路径请用 Compile + Match。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Match(item, rctx)
}

// buildInput 构建 CEL 表达式的输入数据。只放基础类型，避免 CEL 适配自定义结构体。
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := make(map[string]any)
	item := map[string]any{}
	if it != nil {
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		features := make(map[string]float64, len(it.Features))
		for k, v := range it.Features {
			features[k] = v
		}
		item["id"] = it.ID
		item["score"] = it.Score
		item["features"] = features
		if g := it.Game(); g != nil {
			item["name"] = g.Name
			item["rating"] = g.Rating
			item["has_rating"] = g.HasRating
			item["users_rated"] = g.UsersRated
			item["year"] = int64(g.Year)
			item["has_year"] = g.HasYear
			item["min_players"] = g.MinPlayers
			item["max_players"] = g.MaxPlayers
			item["play_time"] = g.PlayTime
			item["min_age"] = g.MinAge
			item["complexity"] = g.Complexity
		}
	}

	r := map[string]any{}
	if rctx != nil {
		r["request_id"] = rctx.RequestID
		r["session_id"] = rctx.SessionID
		r["scene"] = rctx.Scene
		r["current_year"] = int64(core.ParamInt(rctx, core.ParamCurrentYear, 0))
		reqLabels := make(map[string]any, len(rctx.Labels))
		for k, v := range rctx.Labels {
			reqLabels[k] = v.Value
		}
		r["labels"] = reqLabels
	}

	return map[string]any{
		"item":  item,
		"label": labels,
		"rctx":  r,
	}
}
