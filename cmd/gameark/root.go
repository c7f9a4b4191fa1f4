package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rushteam/gameark/catalog"
	"github.com/rushteam/gameark/config"
	"github.com/rushteam/gameark/logging"
	"github.com/rushteam/gameark/recall"
	"github.com/rushteam/gameark/recommend"
	"github.com/rushteam/gameark/store"
)

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "gameark",
		Short:         "gameark - board game recommender",
		Long:          `gameark recommends board games from a BGG catalog using content similarity and item-based collaborative filtering.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to YAML config file (default: $GAMEARK_CONFIG or ./gameark.yaml)")

	load := func() (*config.Config, error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, err
		}
		logging.Init(cfg.Log)
		return cfg, nil
	}

	root.AddCommand(
		newServeCmd(load),
		newRecommendCmd(load),
		newConfigCmd(load),
	)
	return root
}

type loadConfigFunc func() (*config.Config, error)

// buildEngine 按配置创建存储、协同过滤索引与推荐引擎，并加载数据文件。
// 评分文件加载失败只记 warn，推荐退化为纯内容打分。
func buildEngine(ctx context.Context, cfg *config.Config) (*recommend.Engine, func(), error) {
	kv, err := store.New(ctx, cfg.Store)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() { _ = kv.Close() }

	logger := logging.With("recommend")
	cf := recall.NewItemCF(cfg.CF, recall.WithCFStore(kv), recall.WithCFLogger(logging.With("cf")))
	engine, err := recommend.New(cfg.Recommend,
		recommend.WithLogger(logger),
		recommend.WithStore(kv),
		recommend.WithCF(cf),
		recommend.WithCatalogOptions(
			catalog.WithEncodings(cfg.Data.Encodings...),
			catalog.WithComma(cfg.Data.CommaRune()),
			catalog.WithLogger(logging.With("catalog")),
		),
	)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	if err := engine.LoadCatalog(ctx, cfg.Data.CatalogPath); err != nil {
		cleanup()
		return nil, nil, fmt.Errorf("load catalog %s: %w", cfg.Data.CatalogPath, err)
	}
	logger.Info().Str("path", cfg.Data.CatalogPath).Int("games", engine.Catalog().Len()).Msg("catalog loaded")

	if cfg.Data.RatingsPath != "" {
		if err := engine.LoadRatings(ctx, cfg.Data.RatingsPath); err != nil {
			logger.Warn().Err(err).Str("path", cfg.Data.RatingsPath).Msg("ratings not loaded, collaborative filtering disabled")
		} else {
			logger.Info().Str("path", cfg.Data.RatingsPath).Int("items", cf.NumItems()).Int("users", cf.NumUsers()).Msg("ratings loaded")
		}
	}
	return engine, cleanup, nil
}
