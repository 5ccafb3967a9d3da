package container

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"trading-system-go/api"
	"trading-system-go/config"
	"trading-system-go/event"
	"trading-system-go/infrastructure/logger"
	"trading-system-go/infrastructure/monitor"
	internalcfg "trading-system-go/internal/config"
	"trading-system-go/internal/engine"
	"trading-system-go/internal/store"
	"trading-system-go/inventory"
	"trading-system-go/order"
	"trading-system-go/sim"
)

// Container 依赖注入容器，管理所有组件的生命周期
type Container struct {
	// 配置
	cfg        *config.AppConfig
	configPath string

	// 基础设施
	logger  *logger.Logger
	monitor *monitor.Monitor

	// 核心服务
	publisher *event.Publisher
	engine    *engine.TradingEngine

	// 接口
	hub           *api.Hub
	apiServer     *httpServerComponent
	metricsServer *httpServerComponent
	reloader      *internalcfg.HotReloader

	// 生命周期管理
	lifecycle *LifecycleManager
}

// New 从配置文件创建Container；configPath 为空时使用默认配置（仍应用环境变量覆盖）
func New(configPath string) (*Container, error) {
	if configPath == "" {
		cfg := config.Default()
		config.ApplyEnv(&cfg)
		if err := config.Validate(cfg); err != nil {
			return nil, fmt.Errorf("default config invalid: %w", err)
		}
		return NewWithConfig(cfg), nil
	}
	cfg, err := config.LoadWithEnvOverrides(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}
	c := NewWithConfig(cfg)
	c.configPath = configPath
	return c, nil
}

// NewWithConfig 使用给定配置创建Container，不监听配置文件
func NewWithConfig(cfg config.AppConfig) *Container {
	return &Container{
		cfg:       &cfg,
		lifecycle: NewLifecycleManager(),
	}
}

// Config 返回可在 Build 之前修改的配置（例如命令行覆盖监听地址）
func (c *Container) Config() *config.AppConfig {
	return c.cfg
}

// Build 构建所有组件
func (c *Container) Build() error {
	if err := c.buildInfrastructure(); err != nil {
		return fmt.Errorf("build infrastructure failed: %w", err)
	}

	if err := c.buildCoreServices(); err != nil {
		return fmt.Errorf("build core services failed: %w", err)
	}

	if err := c.buildReloader(); err != nil {
		return fmt.Errorf("build config reloader failed: %w", err)
	}

	c.registerLifecycleComponents()
	c.logger.Info("container built", zap.String("env", c.cfg.Env), zap.Strings("components", c.lifecycle.Names()))
	return nil
}

func (c *Container) buildInfrastructure() error {
	var err error
	c.logger, err = logger.New(c.cfg.Logging)
	if err != nil {
		return fmt.Errorf("create logger failed: %w", err)
	}

	c.monitor = monitor.New(monitor.DefaultConfig())
	return nil
}

func (c *Container) buildCoreServices() error {
	cat, err := c.cfg.Catalog()
	if err != nil {
		return fmt.Errorf("build catalog failed: %w", err)
	}

	c.publisher = event.NewPublisher()
	ids := order.UUIDGenerator{}
	c.engine, err = engine.New(engine.Components{
		Catalog:   cat,
		Orders:    store.NewOrders(),
		Trades:    store.NewTrades(),
		Ledger:    inventory.NewLedger(),
		Executor:  sim.NewExecutor(sim.NowUTC, ids),
		Clock:     sim.NowUTC,
		IDs:       ids,
		Logger:    c.logger,
		Monitor:   c.monitor,
		Publisher: c.publisher,
	})
	if err != nil {
		return fmt.Errorf("create engine failed: %w", err)
	}

	opts := api.Options{Logger: c.logger, Monitor: c.monitor}
	if c.cfg.Stream.Enabled {
		c.hub = api.NewHub(c.publisher, c.cfg.Stream.BufferSize, c.logger, c.monitor)
		opts.Hub = c.hub
	}
	c.apiServer = &httpServerComponent{
		name:         "api_server",
		handler:      api.NewServer(c.engine, opts).Handler(),
		addr:         c.cfg.Server.Addr,
		readTimeout:  c.cfg.Server.ReadTimeout(),
		writeTimeout: c.cfg.Server.WriteTimeout(),
		logger:       c.logger,
	}
	if c.cfg.Server.MetricsAddr != "" {
		c.metricsServer = &httpServerComponent{
			name:    "metrics_server",
			handler: c.monitor.Handler(),
			addr:    c.cfg.Server.MetricsAddr,
			logger:  c.logger,
		}
	}
	return nil
}

func (c *Container) buildReloader() error {
	if !c.cfg.HotReload.Enabled || c.configPath == "" {
		return nil
	}
	r, err := internalcfg.NewHotReloader(c.configPath, internalcfg.HotReloadConfig{
		Enabled:      true,
		CooldownTime: c.cfg.HotReload.Cooldown(),
	}, c.logger)
	if err != nil {
		return err
	}
	r.SetReloadHandler(internalcfg.LevelApplier(c.logger))
	c.reloader = r
	return nil
}

func (c *Container) registerLifecycleComponents() {
	if c.hub != nil {
		c.lifecycle.Register("stream_hub", c.hub)
	}
	c.lifecycle.Register("api_server", c.apiServer)
	if c.metricsServer != nil {
		c.lifecycle.Register("metrics_server", c.metricsServer)
	}
	if c.reloader != nil {
		c.lifecycle.Register("config_reloader", c.reloader)
	}
}

func (c *Container) Start(ctx context.Context) error {
	c.logger.Info("starting container...")

	if err := c.lifecycle.StartAll(ctx); err != nil {
		return fmt.Errorf("start failed: %w", err)
	}

	c.logger.Info("container started", zap.String("api_addr", c.APIAddr()))
	return nil
}

func (c *Container) Stop() error {
	c.logger.Info("stopping container...")

	err := c.lifecycle.StopAll()
	if err != nil {
		c.logger.LogError(err, map[string]interface{}{"action": "stop"})
	}

	c.logger.Info("container stopped",
		zap.Int("orders", len(c.engine.ListOrders())),
		zap.Int("trades", len(c.engine.ListTrades())),
	)
	_ = c.logger.Close()
	return err
}

func (c *Container) HealthCheck() error {
	return c.lifecycle.CheckHealth()
}

// Engine 返回交易门面
func (c *Container) Engine() *engine.TradingEngine {
	return c.engine
}

// APIAddr 返回 API 实际监听地址
func (c *Container) APIAddr() string {
	if c.apiServer == nil {
		return ""
	}
	return c.apiServer.Addr()
}

// MetricsAddr 返回指标服务实际监听地址，未启用时为空
func (c *Container) MetricsAddr() string {
	if c.metricsServer == nil {
		return ""
	}
	return c.metricsServer.Addr()
}
