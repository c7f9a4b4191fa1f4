package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/gameark/core"
)

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	ctx := context.Background()
	s, err := NewRedisStore(ctx, RedisOptions{Addr: addr, KeyPrefix: "gameark-test:" + uuid.NewString() + ":"})
	require.NoError(t, err)
	defer s.Close()

	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, core.ErrStoreNotFound)

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 60))
	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, s.ZAdd(ctx, "pop", 2, "a"))
	require.NoError(t, s.ZAdd(ctx, "pop", 7, "b"))
	members, err := s.ZRange(ctx, "pop", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, members)

	require.NoError(t, s.Delete(ctx, "k"))
	require.NoError(t, s.Delete(ctx, "pop"))
}
