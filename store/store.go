// Package store 提供 core.KeyValueStore 的实现：进程内存与 Redis。
//
// 接口定义在 core 包：
//
//	var kv core.KeyValueStore = store.NewMemoryStore()
//	kv, err := store.New(ctx, store.Config{Backend: "redis", Addr: "127.0.0.1:6379"})
package store

import (
	"context"
	"fmt"

	"github.com/rushteam/gameark/core"
)

// Config 选择存储后端。
type Config struct {
	Backend   string `koanf:"backend" yaml:"backend" validate:"oneof=memory redis"`
	Addr      string `koanf:"addr" yaml:"addr" validate:"required_if=Backend redis"`
	Password  string `koanf:"password" yaml:"password"`
	DB        int    `koanf:"db" yaml:"db" validate:"gte=0"`
	KeyPrefix string `koanf:"key_prefix" yaml:"key_prefix"`
}

// New 按配置创建存储。Backend 为空时使用内存存储。
func New(ctx context.Context, cfg Config) (core.KeyValueStore, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "redis":
		return NewRedisStore(ctx, RedisOptions{
			Addr:      cfg.Addr,
			Password:  cfg.Password,
			DB:        cfg.DB,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeInvalidInput,
			fmt.Sprintf("store: unknown backend %q", cfg.Backend))
	}
}
