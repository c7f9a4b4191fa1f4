package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rushteam/gameark/core"
)

// MemoryStore 是内存实现的 KeyValueStore，用于单机部署与测试。
// 支持 TTL（过期时间），但进程重启后数据丢失。
type MemoryStore struct {
	mu    sync.RWMutex
	data  map[string]*entry
	zsets map[string]map[string]float64 // zset key -> member -> score
	clean *time.Ticker
	done  chan struct{}
	once  sync.Once
	now   func() time.Time
}

type entry struct {
	value  []byte
	expire time.Time // 零值表示不过期
}

func (e *entry) expired(now time.Time) bool {
	return !e.expire.IsZero() && now.After(e.expire)
}

func NewMemoryStore() *MemoryStore {
	ms := &MemoryStore{
		data:  make(map[string]*entry),
		zsets: make(map[string]map[string]float64),
		clean: time.NewTicker(10 * time.Second),
		done:  make(chan struct{}),
		now:   time.Now,
	}
	go ms.cleanup()
	return ms
}

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.data[key]
	if !ok || e.expired(m.now()) {
		return nil, core.ErrStoreNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

func (m *MemoryStore) Set(_ context.Context, key string, value []byte, ttl ...int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := &entry{value: append([]byte(nil), value...)}
	if len(ttl) > 0 && ttl[0] > 0 {
		e.expire = m.now().Add(time.Duration(ttl[0]) * time.Second)
	}
	m.data[key] = e
	return nil
}

// Delete 删除 key，同名的有序集合一并删除（与 Redis DEL 一致）。
func (m *MemoryStore) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	delete(m.zsets, key)
	return nil
}

func (m *MemoryStore) Close() error {
	m.once.Do(func() {
		m.clean.Stop()
		close(m.done)
	})
	return nil
}

func (m *MemoryStore) cleanup() {
	for {
		select {
		case <-m.done:
			return
		case <-m.clean.C:
			m.mu.Lock()
			now := m.now()
			for k, e := range m.data {
				if e.expired(now) {
					delete(m.data, k)
				}
			}
			m.mu.Unlock()
		}
	}
}

var _ core.KeyValueStore = (*MemoryStore)(nil)

func (m *MemoryStore) ZAdd(_ context.Context, key string, score float64, member string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.zsets[key] == nil {
		m.zsets[key] = make(map[string]float64)
	}
	m.zsets[key][member] = score
	return nil
}

// ZRange 按分数降序返回 [start, stop]；分数相同时按成员字典序降序，与 Redis ZREVRANGE 一致。
// 负下标表示从末尾计数。
func (m *MemoryStore) ZRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	zset := m.zsets[key]
	if len(zset) == 0 {
		return nil, nil
	}

	type pair struct {
		member string
		score  float64
	}
	pairs := make([]pair, 0, len(zset))
	for mem, s := range zset {
		pairs = append(pairs, pair{member: mem, score: s})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].score != pairs[j].score {
			return pairs[i].score > pairs[j].score
		}
		return pairs[i].member > pairs[j].member
	})

	n := int64(len(pairs))
	if start < 0 {
		start += n
	}
	if stop < 0 {
		stop += n
	}
	if start < 0 {
		start = 0
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop {
		return nil, nil
	}

	result := make([]string, 0, stop-start+1)
	for i := start; i <= stop; i++ {
		result = append(result, pairs[i].member)
	}
	return result, nil
}

func (m *MemoryStore) ZScore(_ context.Context, key string, member string) (float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	score, ok := m.zsets[key][member]
	if !ok {
		return 0, core.ErrStoreNotFound
	}
	return score, nil
}
