package main

import (
	"context"
	"fmt"
	"strings"

	"ChainKit/internal/config"
	chainerrors "ChainKit/internal/errors"
	"ChainKit/internal/multicall"
	"ChainKit/internal/multicall/cache"
	"ChainKit/internal/web3/accounts"
	"ChainKit/internal/web3/networks"
	"ChainKit/internal/web3/provider"
	"ChainKit/pkg/logger"
)

// app 持有一次命令执行所需的全部组件。
type app struct {
	cfg        *config.Config
	registry   *networks.Registry
	factory    *provider.Factory
	cache      cache.Cache
	aggregator *multicall.Aggregator
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	var (
		registry *networks.Registry
		err      error
	)
	if cfg.Web3.ChainConfig != "" {
		registry, err = networks.Load(cfg.Web3.ChainConfig)
	} else {
		registry, err = networks.NewRegistry()
	}
	if err != nil {
		return nil, fmt.Errorf("加载链配置失败: %w", err)
	}

	keyring := accounts.FromEnv(cfg.Web3.Accounts, nil)
	factory := provider.NewFactory(registry, keyring, provider.WithLogger(logger.Named("provider")))

	resultCache, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		factory.Close()
		return nil, fmt.Errorf("初始化结果缓存失败: %w", err)
	}

	opts := []multicall.Option{multicall.WithLogger(logger.Named("multicall"))}
	if resultCache != nil {
		opts = append(opts, multicall.WithCache(resultCache))
	}

	return &app{
		cfg:        cfg,
		registry:   registry,
		factory:    factory,
		cache:      resultCache,
		aggregator: multicall.New(factory, opts...),
	}, nil
}

func (a *app) close() {
	a.factory.Close()
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			logger.L().Warn("关闭结果缓存失败", "error", err)
		}
	}
}

// chain 解析 --chain 参数，支持 key 与数字 id。
func (a *app) chain(name string) (networks.ChainID, error) {
	id, ok := networks.ParseChainID(strings.ToLower(strings.TrimSpace(name)))
	if !ok {
		return 0, chainerrors.Newf(chainerrors.CodeConfigNotFound, "unknown network %q", name)
	}
	return id, nil
}

// cli 在命令之间共享配置路径与懒加载的 app。
type cli struct {
	configPath string
	app        *app
}

func (c *cli) load(ctx context.Context) (*app, error) {
	if c.app != nil {
		return c.app, nil
	}

	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.Load(c.configPath)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		return nil, err
	}
	if err := logger.Init(cfg.Log); err != nil {
		return nil, err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *cli) close() {
	if c.app != nil {
		c.app.close()
		c.app = nil
	}
	_ = logger.Sync()
}
