package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"ChainKit/internal/multicall/cache"
	"ChainKit/internal/web3/accounts"
	"ChainKit/pkg/logger"
)

// EnvPath 指定配置文件路径的环境变量。
const EnvPath = "CHAINKIT_CONFIG"

// Config 描述了 ChainKit 在启动阶段需要加载的核心配置。
type Config struct {
	Server  ServerConfig  `json:"server"`
	Web3    Web3Config    `json:"web3"`
	Cache   cache.Config  `json:"cache"`
	Log     logger.Config `json:"log"`
	Metrics MetricsConfig `json:"metrics"`
}

// ServerConfig 控制 API 服务的监听地址等参数。
type ServerConfig struct {
	Address               string `json:"address"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	MaxBodyBytes          int64  `json:"max_body_bytes"`
}

// Web3Config 描述链配置覆盖文件与签名账户。
type Web3Config struct {
	// ChainConfig 为 YAML 覆盖文件，留空时只使用内置链表。
	ChainConfig string `json:"chain_config"`
	// Accounts 将账户名映射到保存私钥的环境变量。
	Accounts map[string]string `json:"accounts"`
}

// MetricsConfig 控制 Prometheus 指标的暴露方式。
type MetricsConfig struct {
	Enabled bool `json:"enabled"`
	// Address 非空时在独立端口上暴露 /metrics，否则挂在 API 服务上。
	Address string `json:"address"`
}

// Load 负责解析指定路径的 JSON 配置文件。
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("配置文件路径为空")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("打开配置文件失败: %w", err)
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	var cfg Config
	dec := json.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	cfg.applyDefaults(filepath.Dir(path))

	return &cfg, nil
}

// LoadFromEnv 读取 CHAINKIT_CONFIG 指向的文件；未设置时返回默认配置。
func LoadFromEnv() (*Config, error) {
	if path := strings.TrimSpace(os.Getenv(EnvPath)); path != "" {
		return Load(path)
	}
	return Default(), nil
}

// Default 返回不依赖配置文件的默认配置。
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults("")
	return cfg
}

// applyDefaults 在用户未填写部分字段时设置合理的默认值。
func (c *Config) applyDefaults(baseDir string) {
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}

	if c.Server.RequestTimeoutSeconds <= 0 {
		c.Server.RequestTimeoutSeconds = 30
	}

	if c.Server.MaxBodyBytes <= 0 {
		c.Server.MaxBodyBytes = 1 << 20
	}

	if c.Web3.ChainConfig != "" && !filepath.IsAbs(c.Web3.ChainConfig) && baseDir != "" {
		c.Web3.ChainConfig = filepath.Join(baseDir, c.Web3.ChainConfig)
	}

	if len(c.Web3.Accounts) == 0 {
		c.Web3.Accounts = make(map[string]string, len(accounts.DefaultVariables))
		for name, variable := range accounts.DefaultVariables {
			c.Web3.Accounts[name] = variable
		}
	}

	if c.Cache.Driver == "" {
		c.Cache.Driver = "none"
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}

	if c.Log.Format == "" {
		c.Log.Format = "json"
	}

	if c.Log.Audit.Enabled && c.Log.Audit.Path != "" && !filepath.IsAbs(c.Log.Audit.Path) && baseDir != "" {
		c.Log.Audit.Path = filepath.Join(baseDir, c.Log.Audit.Path)
	}
}
