package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"trading-system-go/catalog"
	"trading-system-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Env         string             `yaml:"env"`
	Server      ServerConfig       `yaml:"server"`
	Logging     logger.Config      `yaml:"logging"`
	Stream      StreamConfig       `yaml:"stream"`
	Instruments []InstrumentConfig `yaml:"instruments"`
	HotReload   HotReloadConfig    `yaml:"hotReload"`
}

type ServerConfig struct {
	Addr           string `yaml:"addr"`
	MetricsAddr    string `yaml:"metricsAddr"` // 为空时不单独启动指标服务
	ReadTimeoutMs  int    `yaml:"readTimeoutMs"`
	WriteTimeoutMs int    `yaml:"writeTimeoutMs"`
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutMs) * time.Millisecond
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutMs) * time.Millisecond
}

// StreamConfig 控制 websocket 事件推送。
type StreamConfig struct {
	Enabled    bool `yaml:"enabled"`
	BufferSize int  `yaml:"bufferSize"` // 每个连接的事件缓冲
}

// InstrumentConfig 可交易品种，lastTradedPrice 在进程生命周期内不变。
type InstrumentConfig struct {
	Symbol          string  `yaml:"symbol"`
	Exchange        string  `yaml:"exchange"`
	InstrumentType  string  `yaml:"instrumentType"`
	LastTradedPrice float64 `yaml:"lastTradedPrice"`
}

type HotReloadConfig struct {
	Enabled    bool `yaml:"enabled"`
	CooldownMs int  `yaml:"cooldownMs"`
}

func (h HotReloadConfig) Cooldown() time.Duration {
	return time.Duration(h.CooldownMs) * time.Millisecond
}

// Default 返回可直接运行的本地配置。
func Default() AppConfig {
	return AppConfig{
		Env: "dev",
		Server: ServerConfig{
			Addr:           ":8080",
			MetricsAddr:    ":9100",
			ReadTimeoutMs:  5000,
			WriteTimeoutMs: 10000,
		},
		Logging: logger.DefaultConfig(),
		Stream:  StreamConfig{Enabled: true, BufferSize: 64},
		HotReload: HotReloadConfig{
			Enabled:    false,
			CooldownMs: 1000,
		},
	}
}

// Catalog 构建品种目录；未配置品种时使用默认品种。
func (c AppConfig) Catalog() (*catalog.Catalog, error) {
	if len(c.Instruments) == 0 {
		return catalog.New(catalog.Defaults())
	}
	items := make([]catalog.Instrument, 0, len(c.Instruments))
	for _, ic := range c.Instruments {
		items = append(items, catalog.Instrument{
			Symbol:          ic.Symbol,
			Exchange:        ic.Exchange,
			InstrumentType:  ic.InstrumentType,
			LastTradedPrice: ic.LastTradedPrice,
		})
	}
	return catalog.New(items)
}

// Load reads YAML config from path on top of Default() and applies validation.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides deployment fields from env vars if present.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	ApplyEnv(&cfg)
	return cfg, Validate(cfg)
}

// ApplyEnv 用环境变量覆盖部署相关字段。
func ApplyEnv(cfg *AppConfig) {
	if v := os.Getenv("TRADER_ENV"); v != "" {
		cfg.Env = v
	}
	if v := os.Getenv("TRADER_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TRADER_METRICS_ADDR"); v != "" {
		cfg.Server.MetricsAddr = v
	}
	if v := os.Getenv("TRADER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}
