package core

import (
	"github.com/rushteam/gameark/pkg/conv"
	"github.com/rushteam/gameark/pkg/utils"
)

// RecommendContext 承载请求/会话/偏好信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	RequestID string
	SessionID string
	Scene     string // main / top_rated / newest / more_matches ...

	// Preferences 是本次请求的偏好载荷，可为空（榜单类场景）
	Preferences *Preferences

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	Labels map[string]utils.Label

	// Params 请求级参数，例如 "n"、"exclude_ids"
	Params map[string]any
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// Param 读取请求级参数。
func (rctx *RecommendContext) Param(key string) (any, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	v, ok := rctx.Params[key]
	return v, ok
}

// SetParam 写入请求级参数。
func (rctx *RecommendContext) SetParam(key string, v any) {
	if rctx.Params == nil {
		rctx.Params = make(map[string]any)
	}
	rctx.Params[key] = v
}

// 常用请求级参数 key
const (
	ParamN            = "n"             // 期望结果数
	ParamPoolSize     = "pool_size"     // 候选池大小
	ParamReferenceIDs = "reference_ids" // 解析到的参考游戏 ID（[]int64）
	ParamExcludeIDs   = "exclude_ids"   // 需要排除的游戏 ID（[]int64）
	ParamCurrentYear  = "current_year"  // 当前年份，榜单时间窗使用
)

// ParamInt 读取整数参数，缺失或类型不符时返回 def。
func ParamInt(rctx *RecommendContext, key string, def int) int {
	v, ok := rctx.Param(key)
	if !ok {
		return def
	}
	if n, ok := conv.ToInt(v); ok {
		return n
	}
	return def
}

// ParamIDs 读取 []int64 参数。
func ParamIDs(rctx *RecommendContext, key string) []int64 {
	v, ok := rctx.Param(key)
	if !ok {
		return nil
	}
	ids, _ := v.([]int64)
	return ids
}
