package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
)

func TestMemoryStoreGetSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)

	buf := []byte("v1")
	require.NoError(t, s.Set(ctx, "k", buf))
	buf[0] = 'x'
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), got)

	require.NoError(t, s.Delete(ctx, "k"))
	_, err = s.Get(ctx, "k")
	assert.True(t, core.IsNotFound(err))
}

func TestMemoryStoreTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	require.NoError(t, s.Set(ctx, "snap", []byte("x"), 3600))
	_, err := s.Get(ctx, "snap")
	require.NoError(t, err)

	now = now.Add(time.Hour + time.Second)
	_, err = s.Get(ctx, "snap")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)
}

func TestMemoryStoreZSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.ZAdd(ctx, "pop", 3, "10"))
	require.NoError(t, s.ZAdd(ctx, "pop", 5, "20"))
	require.NoError(t, s.ZAdd(ctx, "pop", 1, "30"))

	all, err := s.ZRange(ctx, "pop", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"20", "10", "30"}, all)

	top, err := s.ZRange(ctx, "pop", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"20", "10"}, top)

	score, err := s.ZScore(ctx, "pop", "10")
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)

	_, err = s.ZScore(ctx, "pop", "99")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)

	require.NoError(t, s.Delete(ctx, "pop"))
	all, err = s.ZRange(ctx, "pop", 0, -1)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestNewBackend(t *testing.T) {
	ctx := context.Background()
	s, err := New(ctx, Config{})
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Name())
	require.NoError(t, s.Close())

	_, err = New(ctx, Config{Backend: "etcd"})
	assert.True(t, core.IsInvalidInput(err))
}
