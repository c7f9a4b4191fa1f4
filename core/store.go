package core

import "context"

// Store 是存储的领域接口，定义在 core，由 store 包实现。
//
// 使用场景：
//   - 最近一次推荐快照（按会话 ID，带 TTL）
//   - 协同过滤产出的热门列表
//
// 实现：store.MemoryStore、store.RedisStore。
type Store interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// Get 读取单个 key 的值，不存在时返回 ErrStoreNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set 写入单个 key-value，ttl 单位为秒
	Set(ctx context.Context, key string, value []byte, ttl ...int) error

	// Delete 删除单个 key
	Delete(ctx context.Context, key string) error

	// Close 关闭连接/释放资源
	Close() error
}

// KeyValueStore 是 Store 的扩展接口，支持有序集合。
// 热门列表以 count 为分数写入 zset，召回时按分数降序读取。
type KeyValueStore interface {
	Store

	// ZAdd 向有序集合添加成员
	ZAdd(ctx context.Context, key string, score float64, member string) error

	// ZRange 按分数降序获取 [start, stop] 区间成员
	ZRange(ctx context.Context, key string, start, stop int64) ([]string, error)

	// ZScore 获取成员的分数
	ZScore(ctx context.Context, key string, member string) (float64, error)
}

// Store 错误定义（使用统一的 DomainError）
var (
	// ErrStoreNotFound 表示 key 不存在
	ErrStoreNotFound = NewDomainError(ModuleStore, ErrorCodeNotFound, "store: key not found")

	// ErrStoreNotSupported 表示操作不支持
	ErrStoreNotSupported = NewDomainError(ModuleStore, ErrorCodeNotSupported, "store: operation not supported")
)
