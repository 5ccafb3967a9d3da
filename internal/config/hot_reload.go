package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	appcfg "trading-system-go/config"
	"trading-system-go/infrastructure/logger"
)

// HotReloadConfig 热更新配置
type HotReloadConfig struct {
	Enabled      bool          // 是否启用热更新
	CooldownTime time.Duration // 冷却时间，避免频繁更新
}

// DefaultHotReloadConfig 默认热更新配置
func DefaultHotReloadConfig() HotReloadConfig {
	return HotReloadConfig{
		Enabled:      true,
		CooldownTime: time.Second,
	}
}

// ReloadHandler 处理重新加载后的配置。
type ReloadHandler func(cfg appcfg.AppConfig) error

// HotReloader 配置热更新器，监听配置文件所在目录（兼容编辑器的替换式保存）。
type HotReloader struct {
	config        HotReloadConfig
	configPath    string
	watcher       *fsnotify.Watcher
	logger        *logger.Logger
	lastReload    time.Time
	reloads       int
	mu            sync.Mutex
	stopOnce      sync.Once
	stopChan      chan struct{}
	doneChan      chan struct{}
	stopped       atomic.Bool // 因 Stop 或 ctx 取消而正常退出
	reloadHandler ReloadHandler
}

// NewHotReloader 创建热更新器
func NewHotReloader(configPath string, cfg HotReloadConfig, log *logger.Logger) (*HotReloader, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &HotReloader{
		config:     cfg,
		configPath: filepath.Clean(configPath),
		watcher:    watcher,
		logger:     log,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}, nil
}

// SetReloadHandler 设置重载处理函数
func (h *HotReloader) SetReloadHandler(handler ReloadHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reloadHandler = handler
}

// LevelApplier 将新配置中的日志级别应用到 log。
func LevelApplier(log *logger.Logger) ReloadHandler {
	return func(cfg appcfg.AppConfig) error {
		return log.SetLevel(cfg.Logging.Level)
	}
}

// Start 启动热更新监听
func (h *HotReloader) Start(ctx context.Context) error {
	if !h.config.Enabled {
		close(h.doneChan)
		return nil
	}

	if err := h.watcher.Add(filepath.Dir(h.configPath)); err != nil {
		close(h.doneChan)
		return fmt.Errorf("failed to watch config dir: %w", err)
	}

	go h.watch(ctx)
	return nil
}

// Stop 停止热更新
func (h *HotReloader) Stop() error {
	var err error
	h.stopOnce.Do(func() {
		close(h.stopChan)
		err = h.watcher.Close()
		select {
		case <-h.doneChan:
		case <-time.After(time.Second):
			// watch goroutine 未启动
		}
	})
	return err
}

// Health 监听协程退出后视为不健康。
func (h *HotReloader) Health() error {
	if !h.config.Enabled {
		return nil
	}
	select {
	case <-h.doneChan:
		if h.stopped.Load() {
			return nil
		}
		select {
		case <-h.stopChan:
			return nil
		default:
			return fmt.Errorf("config watcher stopped")
		}
	default:
		return nil
	}
}

// Reloads 成功应用的重载次数。
func (h *HotReloader) Reloads() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.reloads
}

// watch 监听文件变化
func (h *HotReloader) watch(ctx context.Context) {
	defer close(h.doneChan)

	for {
		select {
		case <-ctx.Done():
			h.stopped.Store(true)
			return
		case <-h.stopChan:
			h.stopped.Store(true)
			return
		case ev, ok := <-h.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != h.configPath {
				continue
			}
			// 只处理写入和创建事件
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if err := h.Reload(); err != nil {
					h.logger.LogError(err, map[string]interface{}{"action": "config_reload", "path": h.configPath})
				}
			}
		case err, ok := <-h.watcher.Errors:
			if !ok {
				return
			}
			// 记录错误但继续监听
			h.logger.Warn("config watcher error", zap.Error(err))
		}
	}
}

// Reload 重新加载配置并交给处理函数；冷却期内的重复触发被忽略。
func (h *HotReloader) Reload() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.lastReload.IsZero() && time.Since(h.lastReload) < h.config.CooldownTime {
		return nil
	}

	cfg, err := appcfg.LoadWithEnvOverrides(h.configPath)
	if err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	if h.reloadHandler != nil {
		if err := h.reloadHandler(cfg); err != nil {
			return fmt.Errorf("apply config: %w", err)
		}
	}

	h.lastReload = time.Now()
	h.reloads++
	h.logger.Info("config reloaded", zap.String("path", h.configPath), zap.String("log_level", cfg.Logging.Level))
	return nil
}
