package recommend

import (
	"fmt"
	"time"

	"github.com/rushteam/gameark/core"
	"github.com/rushteam/gameark/pipeline"
	"github.com/rushteam/gameark/rerank"
)

// 榜单名称，对应 Config.Lists 的 key。
const (
	ListTopRated   = "top_rated"
	ListNewest     = "newest"
	ListMoreRating = "more_rating"
	ListMoreNewest = "more_newest"
	ListClassicPad = "classic_pad"
	ListPopular    = "popular"
)

// Config 是推荐编排的配置。
type Config struct {
	// 打分
	RatingWeight        float64 `koanf:"rating_weight" yaml:"rating_weight" validate:"gte=0,lte=1"`
	PopularityWeight    float64 `koanf:"popularity_weight" yaml:"popularity_weight" validate:"gte=0,lte=1"`
	ReferenceBlend      float64 `koanf:"reference_blend" yaml:"reference_blend" validate:"gte=0,lte=1"`
	ContentWeight       float64 `koanf:"content_weight" yaml:"content_weight" validate:"gte=0"`
	CollaborativeWeight float64 `koanf:"collaborative_weight" yaml:"collaborative_weight" validate:"gte=0"`

	// 候选池与分层
	Overfetch           int      `koanf:"overfetch" yaml:"overfetch" validate:"gte=1"`
	CollaborativeFactor int      `koanf:"collaborative_factor" yaml:"collaborative_factor" validate:"gte=1"`
	Tiers               []string `koanf:"tiers" yaml:"tiers" validate:"min=1,dive,required"`

	// 推荐包各部分的长度
	MainSize        int `koanf:"main_size" yaml:"main_size" validate:"gte=1,lte=100"`
	TopRatedSize    int `koanf:"top_rated_size" yaml:"top_rated_size" validate:"gte=0,lte=100"`
	NewestSize      int `koanf:"newest_size" yaml:"newest_size" validate:"gte=0,lte=100"`
	MoreMatchesSize int `koanf:"more_matches_size" yaml:"more_matches_size" validate:"gte=0,lte=100"`
	// MoreMatchesDepth 是“更多匹配”所用推荐列表的长度，取其中主推荐之后的部分
	MoreMatchesDepth int `koanf:"more_matches_depth" yaml:"more_matches_depth" validate:"gte=0,lte=200"`

	// 经典游戏
	ClassicSize int     `koanf:"classic_size" yaml:"classic_size" validate:"gte=1,lte=100"`
	ClassicIDs  []int64 `koanf:"classic_ids" yaml:"classic_ids"`

	// 更多游戏
	MoreDefaultLimit int `koanf:"more_default_limit" yaml:"more_default_limit" validate:"gte=1"`
	MoreMaxLimit     int `koanf:"more_max_limit" yaml:"more_max_limit" validate:"gte=1"`

	// 上次推荐快照
	SnapshotTTL    time.Duration `koanf:"snapshot_ttl" yaml:"snapshot_ttl" validate:"gte=0"`
	SnapshotPrefix string        `koanf:"snapshot_prefix" yaml:"snapshot_prefix"`

	// 数据文件变化后的重载防抖
	WatchDebounce time.Duration `koanf:"watch_debounce" yaml:"watch_debounce" validate:"gte=0"`

	// Lists 是榜单的声明式 Pipeline，可在配置文件中覆盖
	Lists map[string]pipeline.Config `koanf:"lists" yaml:"lists" validate:"dive"`
}

// DefaultClassicIDs 是经典游戏展示位的固定列表（BGG id）。
var DefaultClassicIDs = []int64{
	174430, // Gloomhaven
	167791, // Terraforming Mars
	161936, // Pandemic Legacy: Season 1
	169786, // Scythe
	120677, // Terra Mystica
	31260,  // Agricola
	68448,  // Carcassonne
	178900, // Codenames
	6249,   // 7 Wonders
	521,    // Ticket to Ride
	13,     // Catan
	36218,  // Dominion
	224517, // Azul
	266192, // Wingspan
	170216, // Splendor
	220308, // Brass: Birmingham
	295947, // Dune: Imperium
	316554, // Everdell
	295770, // Root
	30549,  // Pandemic
	148228, // Love Letter
	39856,  // Dixit
	230802, // Kingdomino
	182028, // Through the Ages
}

func DefaultConfig() Config {
	return Config{
		RatingWeight:        core.DefaultRatingWeight,
		PopularityWeight:    core.DefaultPopularityWeight,
		ReferenceBlend:      core.DefaultReferenceBlend,
		ContentWeight:       core.DefaultContentWeight,
		CollaborativeWeight: core.DefaultCollaborativeWeight,
		Overfetch:           core.DefaultOverfetch,
		CollaborativeFactor: core.DefaultCollaborativeFactor,
		Tiers:               append([]string(nil), core.DefaultTiers...),
		MainSize:            core.DefaultTopN,
		TopRatedSize:        4,
		NewestSize:          4,
		MoreMatchesSize:     4,
		MoreMatchesDepth:    20,
		ClassicSize:         24,
		ClassicIDs:          append([]int64(nil), DefaultClassicIDs...),
		MoreDefaultLimit:    20,
		MoreMaxLimit:        50,
		SnapshotTTL:         time.Hour,
		SnapshotPrefix:      "bundle:",
		WatchDebounce:       2 * time.Second,
		Lists:               DefaultLists(),
	}
}

// DefaultLists 返回内置榜单。rctx.current_year 由引擎按注入的时钟写入。
func DefaultLists() map[string]pipeline.Config {
	list := func(name, expr, order string) pipeline.Config {
		return pipeline.Config{
			Name: name,
			Nodes: []pipeline.NodeConfig{
				{Type: NodeCatalog},
				{Type: NodeExpr, Config: map[string]any{"expr": expr}},
				{Type: NodeOrder, Config: map[string]any{"by": order}},
				{Type: NodeTopN},
			},
		}
	}
	return map[string]pipeline.Config{
		ListTopRated: list(ListTopRated,
			"item.has_rating && item.rating >= 7.5 && item.users_rated >= 1000",
			"rating desc"),
		ListNewest: list(ListNewest,
			"item.has_year && item.year >= rctx.current_year - 10",
			"year desc, rating desc"),
		ListMoreRating: list(ListMoreRating,
			"item.has_rating && item.rating >= 7.0 && item.users_rated >= 1000",
			"rating desc, users_rated desc"),
		ListMoreNewest: list(ListMoreNewest,
			"item.has_year && item.year >= rctx.current_year - 5 && item.users_rated >= 100",
			"year desc, rating desc"),
		ListClassicPad: {
			Name: ListClassicPad,
			Nodes: []pipeline.NodeConfig{
				{Type: NodeCatalog},
				{Type: NodeExclude},
				{Type: NodeExpr, Config: map[string]any{"expr": "item.has_rating && item.rating >= 7.5 && item.users_rated >= 1000"}},
				{Type: NodeOrder, Config: map[string]any{"by": "rating desc, users_rated desc"}},
			},
		},
		ListPopular: {
			Name: ListPopular,
			Nodes: []pipeline.NodeConfig{
				{Type: NodeHot},
				{Type: NodeCompleteness},
				{Type: NodeTopN},
			},
		},
	}
}

// Validate 检查结构体校验之外的约束：分层表达式可编译。
func (c *Config) Validate() error {
	if _, err := rerank.CompileTiers(c.Tiers); err != nil {
		return fmt.Errorf("recommend: tiers: %w", err)
	}
	return nil
}

func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.ContentWeight == 0 && c.CollaborativeWeight == 0 {
		c.RatingWeight, c.PopularityWeight, c.ReferenceBlend = d.RatingWeight, d.PopularityWeight, d.ReferenceBlend
		c.ContentWeight, c.CollaborativeWeight = d.ContentWeight, d.CollaborativeWeight
	}
	if c.Overfetch <= 0 {
		c.Overfetch = d.Overfetch
	}
	if c.CollaborativeFactor <= 0 {
		c.CollaborativeFactor = d.CollaborativeFactor
	}
	if len(c.Tiers) == 0 {
		c.Tiers = d.Tiers
	}
	if c.MainSize <= 0 {
		c.MainSize = d.MainSize
	}
	if c.ClassicSize <= 0 {
		c.ClassicSize = d.ClassicSize
	}
	if c.MoreDefaultLimit <= 0 {
		c.MoreDefaultLimit = d.MoreDefaultLimit
	}
	if c.MoreMaxLimit <= 0 {
		c.MoreMaxLimit = d.MoreMaxLimit
	}
	if c.SnapshotPrefix == "" {
		c.SnapshotPrefix = d.SnapshotPrefix
	}
	if c.WatchDebounce <= 0 {
		c.WatchDebounce = d.WatchDebounce
	}
	if c.Lists == nil {
		c.Lists = map[string]pipeline.Config{}
	}
	for name, l := range d.Lists {
		if _, ok := c.Lists[name]; !ok {
			c.Lists[name] = l
		}
	}
}
