package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/filter"
)

// Bundle 是一次完整的推荐结果：主推荐、高分榜、新游榜与更多匹配。
type Bundle struct {
	Main        []core.Recommendation `json:"main_recommendations"`
	TopRated    []core.GameSummary    `json:"top_rated_games"`
	Newest      []core.GameSummary    `json:"newest_games"`
	MoreMatches []core.Recommendation `json:"more_matches"`
	Preferences *core.Preferences     `json:"preferences,omitempty"`
	Timestamp   time.Time             `json:"timestamp"`
}

// Bundle 并发计算推荐包的四个部分。sessionID 非空时把结果保存为该会话的上次推荐。
// 更多匹配取 MoreMatchesDepth 长度推荐中主推荐位置之后、且不在主推荐里的条目。
func (e *Engine) Bundle(ctx context.Context, sessionID string, prefs *core.Preferences) *Bundle {
	b := &Bundle{Preferences: prefs, Timestamp: e.now()}

	var deeper []*core.Item
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b.Main = e.Recommend(gctx, prefs, e.cfg.MainSize)
		return nil
	})
	g.Go(func() error {
		b.TopRated = e.TopRated(gctx, e.cfg.TopRatedSize)
		return nil
	})
	g.Go(func() error {
		b.Newest = e.Newest(gctx, e.cfg.NewestSize)
		return nil
	})
	g.Go(func() error {
		if e.cfg.MoreMatchesSize > 0 && e.cfg.MoreMatchesDepth > e.cfg.MainSize {
			deeper = e.recommendItems(gctx, "more_matches", prefs, e.cfg.MoreMatchesDepth)
		}
		return nil
	})
	_ = g.Wait()

	b.MoreMatches = e.moreMatches(ctx, b.Main, deeper)

	if sessionID != "" {
		if err := e.saveSnapshot(ctx, sessionID, b); err != nil {
			e.logger.Warn().Err(err).Str("session_id", sessionID).Msg("save last bundle failed")
		}
	}
	return b
}

func (e *Engine) moreMatches(ctx context.Context, main []core.Recommendation, deeper []*core.Item) []core.Recommendation {
	if len(deeper) <= e.cfg.MainSize {
		return []core.Recommendation{}
	}
	ids := make([]int64, 0, len(main))
	for _, r := range main {
		ids = append(ids, r.ID)
	}
	node := &filter.FilterNode{Filters: []filter.Filter{filter.NewExcludeFilter(ids...)}}
	rest, err := node.Process(ctx, nil, deeper[e.cfg.MainSize:])
	if err != nil {
		return []core.Recommendation{}
	}
	if len(rest) > e.cfg.MoreMatchesSize {
		rest = rest[:e.cfg.MoreMatchesSize]
	}
	return toRecommendations(rest)
}

func (e *Engine) snapshotKey(sessionID string) string {
	return e.cfg.SnapshotPrefix + sessionID
}

func (e *Engine) saveSnapshot(ctx context.Context, sessionID string, b *Bundle) error {
	data, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return e.store.Set(ctx, e.snapshotKey(sessionID), data, int(e.cfg.SnapshotTTL/time.Second))
}

// LastBundle 返回会话的上次推荐包；不存在或已过期时返回 NOT_FOUND。
func (e *Engine) LastBundle(ctx context.Context, sessionID string) (*Bundle, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "recommend: no session")
	}
	data, err := e.store.Get(ctx, e.snapshotKey(sessionID))
	if err != nil {
		if core.IsNotFound(err) {
			return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "recommend: no last bundle")
		}
		return nil, err
	}
	var b Bundle
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, core.WrapDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "recommend: decode last bundle", err)
	}
	if e.cfg.SnapshotTTL > 0 && e.now().Sub(b.Timestamp) > e.cfg.SnapshotTTL {
		return nil, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeNotFound, "recommend: last bundle expired")
	}
	return &b, nil
}

// 更多游戏的类型。
const (
	MoreRating  = "rating"
	MoreNewest  = "newest"
	MoreMatches = "matches"
	MorePopular = "popular"
)

// MoreGames 返回“更多游戏”列表。limit 缺省为 MoreDefaultLimit，上限 MoreMaxLimit。
//   - rating：评分 >= 7.0 且评分人数 >= 1000，按评分、人数降序
//   - newest：近 5 年出版且评分人数 >= 100，按年份、评分降序
//   - matches：用会话上次的偏好取 limit+MainSize 条推荐，跳过前 MainSize 条；没有上次推荐时退回 rating
//   - popular：协同过滤评分人数最多的游戏
func (e *Engine) MoreGames(ctx context.Context, sessionID, kind string, limit int) ([]core.Recommendation, string, error) {
	if limit <= 0 {
		limit = e.cfg.MoreDefaultLimit
	}
	if limit > e.cfg.MoreMaxLimit {
		limit = e.cfg.MoreMaxLimit
	}
	if kind == "" {
		kind = MoreRating
	}

	var list string
	switch kind {
	case MoreRating:
		list = ListMoreRating
	case MoreNewest:
		list = ListMoreNewest
	case MorePopular:
		list = ListPopular
	case MoreMatches:
		last, err := e.LastBundle(ctx, sessionID)
		if err != nil {
			return e.MoreGames(ctx, sessionID, MoreRating, limit)
		}
		items := e.recommendItems(ctx, "more_games", last.Preferences, limit+e.cfg.MainSize)
		if len(items) <= e.cfg.MainSize {
			return []core.Recommendation{}, kind, nil
		}
		return toRecommendations(items[e.cfg.MainSize:]), kind, nil
	default:
		return nil, kind, core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInvalidInput, "recommend: unknown type "+kind)
	}

	items, err := e.runList(ctx, list, limit, nil)
	if err != nil {
		return nil, kind, err
	}
	return toRecommendations(items), kind, nil
}
