package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(ConfigPathEnvVar, "")
	cfg, err := Load(filepath.Join(t.TempDir(), "absent-is-not-searched.yaml"))
	require.Error(t, err, "an explicit path must exist")
	assert.Nil(t, cfg)

	cfg, err = loadIn(t, "")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 10, cfg.CF.MinUserRatings)
	assert.Equal(t, 20, cfg.CF.MinItemRatings)
	assert.Equal(t, 12, cfg.Recommend.MainSize)
	assert.Equal(t, []string{"item.users_rated >= 500", "item.users_rated >= 100"}, cfg.Recommend.Tiers)
	assert.Equal(t, time.Hour, cfg.Recommend.SnapshotTTL)
	assert.Len(t, cfg.Recommend.ClassicIDs, 24)
	assert.Equal(t, "memory", cfg.Store.Backend)
	assert.Equal(t, 20, cfg.Images.MaxBatch)
	assert.Equal(t, 20*time.Second, cfg.API.RequestTimeout)
}

// loadIn 在空目录里加载，避免读到工作目录下的配置文件。
func loadIn(t *testing.T, file string) (*Config, error) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	return Load(file)
}

func TestLoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gameark.yaml")
	yamlText := `
server:
  addr: ":9090"
cf:
  min_user_ratings: 3
recommend:
  main_size: 8
  snapshot_ttl: 30m
data:
  catalog_path: /data/games.csv
`
	require.NoError(t, os.WriteFile(path, []byte(yamlText), 0o600))

	t.Setenv("GAMEARK_CF__SIMILARITY_FLOOR", "0.25")
	t.Setenv("GAMEARK_RECOMMEND__TIERS", "item.users_rated >= 1000; item.users_rated >= 10")
	t.Setenv("GAMEARK_RECOMMEND__CLASSIC_IDS", "13, 822")
	t.Setenv("GAMEARK_LOG__LEVEL", "debug")
	t.Setenv("GAMEARK_API__CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := loadIn(t, path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 3, cfg.CF.MinUserRatings)
	assert.Equal(t, 20, cfg.CF.MinItemRatings, "untouched keys keep defaults")
	assert.Equal(t, 0.25, cfg.CF.SimilarityFloor)
	assert.Equal(t, 8, cfg.Recommend.MainSize)
	assert.Equal(t, 30*time.Minute, cfg.Recommend.SnapshotTTL)
	assert.Equal(t, []string{"item.users_rated >= 1000", "item.users_rated >= 10"}, cfg.Recommend.Tiers)
	assert.Equal(t, []int64{13, 822}, cfg.Recommend.ClassicIDs)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/data/games.csv", cfg.Data.CatalogPath)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.API.CORSAllowedOrigins)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad store backend", func(c *Config) { c.Store.Backend = "etcd" }},
		{"redis without addr", func(c *Config) { c.Store.Backend = "redis"; c.Store.Addr = "" }},
		{"negative weight", func(c *Config) { c.Recommend.RatingWeight = -1 }},
		{"no tiers", func(c *Config) { c.Recommend.Tiers = nil }},
		{"bad tier expr", func(c *Config) { c.Recommend.Tiers = []string{"item.users_rated >="} }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
		{"zero image batch", func(c *Config) { c.Images.MaxBatch = 0 }},
		{"bad image base url", func(c *Config) { c.Images.BaseURL = "not a url" }},
		{"negative rate limit", func(c *Config) { c.API.RateLimitRequests = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
	assert.NoError(t, Default().Validate())
}

func TestDump(t *testing.T) {
	cfg := Default()
	cfg.Store.Password = "secret"
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, cfg))
	out := buf.String()
	assert.Contains(t, out, "min_user_ratings: 10")
	assert.Contains(t, out, "snapshot_ttl: 1h0m0s")
	assert.NotContains(t, out, "secret")
	assert.Equal(t, "secret", cfg.Store.Password, "dump does not modify the input")
}

func TestCommaRune(t *testing.T) {
	assert.Equal(t, ';', DataConfig{Comma: ";"}.CommaRune())
	assert.Equal(t, ',', DataConfig{}.CommaRune())
}
