package container

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trading-system-go/config"
)

func testConfig() config.AppConfig {
	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Server.MetricsAddr = "127.0.0.1:0"
	cfg.Logging.Level = "error"
	return cfg
}

func TestContainerStartStop(t *testing.T) {
	c := NewWithConfig(testConfig())
	require.NoError(t, c.Build())
	require.NoError(t, c.Start(context.Background()))

	require.NoError(t, c.HealthCheck())
	assert.Equal(t, []string{"stream_hub", "api_server", "metrics_server"}, c.lifecycle.Names())

	resp, err := http.Post("http://"+c.APIAddr()+"/api/v1/orders", "application/json",
		strings.NewReader(`{"orderType":"BUY","orderStyle":"MARKET","symbol":"AAPL","quantity":2}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, c.Engine().ListTrades(), 1)

	resp, err = http.Get("http://" + c.MetricsAddr() + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), "trader_sim_orders_executed_total 1")

	require.NoError(t, c.Stop())
	assert.Error(t, c.HealthCheck())
}

func TestContainerFromFileWithReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trader.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: test
server:
  addr: "127.0.0.1:0"
  metricsAddr: ""
logging:
  level: error
  outputs: [stdout]
stream:
  enabled: false
hotReload:
  enabled: true
  cooldownMs: 0
`), 0o644))

	c, err := New(path)
	require.NoError(t, err)
	require.NoError(t, c.Build())
	assert.Equal(t, []string{"api_server", "config_reloader"}, c.lifecycle.Names())
	assert.Empty(t, c.MetricsAddr())

	require.NoError(t, c.Start(context.Background()))
	defer c.Stop()
	require.NoError(t, c.reloader.Reload())
	assert.Equal(t, "error", c.logger.Level())
}

func TestContainerMissingConfig(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

type failing struct{ stopped bool }

func (f *failing) Start(context.Context) error { return errors.New("boom") }
func (f *failing) Stop() error { f.stopped = true; return nil }
func (f *failing) Health() error { return nil }

type okComponent struct{ stopped bool }

func (o *okComponent) Start(context.Context) error { return nil }
func (o *okComponent) Stop() error { o.stopped = true; return nil }
func (o *okComponent) Health() error { return nil }

func TestLifecycleRollback(t *testing.T) {
	m := NewLifecycleManager()
	first := &okComponent{}
	m.Register("first", first)
	m.Register("second", &failing{})

	err := m.StartAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start second failed")
	assert.True(t, first.stopped)
}
