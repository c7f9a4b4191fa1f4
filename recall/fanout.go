package recall

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/pkg/utils"
)

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 支持超时、限流与合并策略。单个召回源失败或超时只记日志，不中断其他召回源。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy string        // 合并策略：first / union / priority（优先级按 Sources 顺序）
	Logger        *zerolog.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return n.Recall(ctx, rctx)
}

// Recall 让 Fanout 本身也可以作为召回源嵌套使用。
func (n *Fanout) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	var (
		mu      sync.Mutex
		results = make([][]*core.Item, len(n.Sources))
		eg, _   = errgroup.WithContext(ctx)
	)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		priority := i // 优先级（索引越小优先级越高）
		eg.Go(func() error {
			recallCtx := ctx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(ctx, n.Timeout)
				defer cancel()
			}

			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				if n.Logger != nil {
					n.Logger.Warn().Err(err).Str("source", src.Name()).Msg("recall source failed")
				}
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel("recall_source", utils.L(src.Name(), "recall"))
				it.PutLabel("recall_priority", utils.L(strconv.Itoa(priority), "recall"))
			}

			mu.Lock()
			results[priority] = items
			mu.Unlock()
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// 按 Sources 顺序拼接，结果与调度顺序无关
	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}

	switch n.MergeStrategy {
	case "union":
		return all, nil
	default: // "first" / "priority"：拼接顺序即优先级顺序，保留先出现的
		return n.mergeFirst(all), nil
	}
}

// mergeFirst 按 ID 去重，保留第一个出现的，并把后来者的 labels 合并进去。
func (n *Fanout) mergeFirst(all []*core.Item) []*core.Item {
	if !n.Dedup {
		return all
	}
	seen := make(map[int64]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				if k == "recall_priority" {
					continue
				}
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// PipelineSource 把一条 Pipeline 包装成召回源，例如“目录扫描 -> 过滤 -> 排序”组成的榜单。
type PipelineSource struct {
	SourceName string
	Pipeline   *pipeline.Pipeline
}

func (s *PipelineSource) Name() string { return s.SourceName }

func (s *PipelineSource) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if s.Pipeline == nil {
		return nil, nil
	}
	return s.Pipeline.Run(ctx, rctx, nil)
}
