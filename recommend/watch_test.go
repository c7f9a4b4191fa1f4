package recommend

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchReloadsCatalog(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "games.csv")
	require.NoError(t, os.WriteFile(path, []byte(catalogCSV), 0o600))

	cfg := DefaultConfig()
	cfg.WatchDebounce = 20 * time.Millisecond
	e, err := New(cfg)
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, e.LoadCatalog(ctx, path))
	require.Equal(t, 8, e.Catalog().Len())

	done := make(chan error, 1)
	go func() { done <- e.Watch(ctx) }()
	time.Sleep(100 * time.Millisecond)

	smaller := catalogHeader + `1,Alpha,2020,2,4,60,10,2000,8.0,2.5,Dice Rolling,Strategy Games` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(smaller), 0o600))

	assert.Eventually(t, func() bool {
		idx := e.Catalog()
		return idx != nil && idx.Len() == 1
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestWatchWithoutFiles(t *testing.T) {
	e, err := New(DefaultConfig())
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, e.Watch(ctx))
}
