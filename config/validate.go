package config

import (
	"fmt"
	"math"

	"go.uber.org/zap/zapcore"
)

// ErrInvalid 用于参数验证错误。
type ErrInvalid string

func (e ErrInvalid) Error() string { return string(e) }

// Validate ensures required fields are present.
func Validate(cfg AppConfig) error {
	if cfg.Env == "" {
		return ErrInvalid("env is required")
	}
	if cfg.Server.Addr == "" {
		return ErrInvalid("server.addr is required")
	}
	if cfg.Server.ReadTimeoutMs < 0 || cfg.Server.WriteTimeoutMs < 0 {
		return ErrInvalid("server timeouts must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.Logging.Level); err != nil {
		return ErrInvalid(fmt.Sprintf("logging.level %q is invalid", cfg.Logging.Level))
	}
	if cfg.Stream.BufferSize < 0 {
		return ErrInvalid("stream.bufferSize must be >= 0")
	}
	if cfg.HotReload.CooldownMs < 0 {
		return ErrInvalid("hotReload.cooldownMs must be >= 0")
	}
	seen := make(map[string]bool, len(cfg.Instruments))
	for i, ic := range cfg.Instruments {
		if ic.Symbol == "" {
			return ErrInvalid(fmt.Sprintf("instruments[%d].symbol is required", i))
		}
		if !(ic.LastTradedPrice > 0) || math.IsInf(ic.LastTradedPrice, 0) {
			return ErrInvalid(fmt.Sprintf("instrument %s lastTradedPrice must be a finite number > 0", ic.Symbol))
		}
		if seen[ic.Symbol] {
			return ErrInvalid(fmt.Sprintf("instrument %s is duplicated", ic.Symbol))
		}
		seen[ic.Symbol] = true
	}
	return nil
}
