package rerank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
)

// SortKey 是一个排序键。Field 取值：
// score / rating / users_rated / year / feature.<name>（例如 feature.pool_rank）。
type SortKey struct {
	Field string `koanf:"field" yaml:"field"`
	Desc  bool   `koanf:"desc" yaml:"desc"`
}

// ParseSortKeys 解析 "rating desc, users_rated desc" 形式的排序说明。
func ParseSortKeys(by string) ([]SortKey, error) {
	var keys []SortKey
	for _, part := range strings.Split(by, ",") {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		k := SortKey{Field: fields[0]}
		if len(fields) > 1 {
			switch strings.ToLower(fields[1]) {
			case "desc":
				k.Desc = true
			case "asc":
			default:
				return nil, fmt.Errorf("rerank: bad sort direction %q", fields[1])
			}
		}
		if _, err := fieldValue(nil, k.Field); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, nil
}

func fieldValue(it *core.Item, field string) (float64, error) {
	if name, ok := strings.CutPrefix(field, "feature."); ok {
		if it == nil {
			return 0, nil
		}
		return it.Features[name], nil
	}
	switch field {
	case "score", "rating", "users_rated", "year":
	default:
		return 0, fmt.Errorf("rerank: unknown sort field %q", field)
	}
	if it == nil {
		return 0, nil
	}
	if field == "score" {
		return it.Score, nil
	}
	g := it.Game()
	if g == nil {
		return 0, nil
	}
	switch field {
	case "rating":
		return g.RatingOrZero(), nil
	case "users_rated":
		return float64(g.UsersRated), nil
	default:
		return float64(g.YearOrZero()), nil
	}
}

// OrderBy 按多个键稳定排序；所有键都相等时保持输入顺序。
type OrderBy struct {
	Keys []SortKey
}

func (n *OrderBy) Name() string        { return "rerank.order" }
func (n *OrderBy) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *OrderBy) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Keys) == 0 || len(items) < 2 {
		return items, nil
	}
	sort.SliceStable(items, func(i, j int) bool {
		for _, k := range n.Keys {
			a, _ := fieldValue(items[i], k.Field)
			b, _ := fieldValue(items[j], k.Field)
			if a == b {
				continue
			}
			if k.Desc {
				return a > b
			}
			return a < b
		}
		return false
	})
	return items, nil
}
