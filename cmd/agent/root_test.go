package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-monitor/pkg/config"
)

func TestRootFlagsMapToConfig(t *testing.T) {
	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--log.path", t.TempDir(),
		"--server.addr", "127.0.0.1:9100",
		"--monitor.interval", "5s",
		"--monitor.collectors.host.enable",
		"--exposition.path", "/scrape",
		"--dashboard.grafana_url", "http://grafana:3000/d/x",
		"--log.max_age", "3",
	}))

	cfg, err := config.LoadConfigWithCli(cmd)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Monitor.Interval)
	assert.True(t, cfg.Monitor.Collectors.Host.Enable)
	assert.True(t, cfg.Monitor.Collectors.Process.Enable)
	assert.Equal(t, "/scrape", cfg.Exposition.Path)
	assert.Equal(t, "http://grafana:3000/d/x", cfg.Dashboard.GrafanaURL)
	assert.Equal(t, 3, cfg.Log.MaxAge)
}

func TestRootRejectsReservedMetricsPath(t *testing.T) {
	cmd := NewRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--log.path", t.TempDir(),
		"--exposition.path", "/connect-api",
	}))

	_, err := config.LoadConfigWithCli(cmd)
	assert.Error(t, err)
}

func TestEveryConfigKeyHasAFlag(t *testing.T) {
	cmd := NewRootCmd()
	for _, name := range []string{
		"config",
		"server.addr", "server.read_timeout", "server.write_timeout", "server.idle_timeout",
		"monitor.interval", "monitor.collectors.process.enable", "monitor.collectors.runtime.enable",
		"monitor.collectors.host.enable", "monitor.collectors.host.collect_per_core",
		"exposition.path", "exposition.enable_compression",
		"dashboard.grafana_url", "dashboard.static_dir", "dashboard.title",
		"log.level", "log.format", "log.path", "log.max_size", "log.max_backup", "log.max_age", "log.compress",
	} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(name), name)
	}
	assert.Equal(t, "c", cmd.PersistentFlags().Lookup("config").Shorthand)
}
