package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultsIn(t *testing.T) *Config {
	t.Helper()
	cfg := NewDefaultConfig()
	cfg.Log.Path = t.TempDir()
	return cfg
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := defaultsIn(t)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, "/metrics", cfg.Exposition.Path)
	assert.Equal(t, "http://localhost:3000/", cfg.Dashboard.GrafanaURL)
	assert.True(t, cfg.Monitor.Collectors.Process.Enable)
	assert.True(t, cfg.Monitor.Collectors.Runtime.Enable)
	assert.False(t, cfg.Monitor.Collectors.Host.Enable)
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(c *Config){
		"interval too short": func(c *Config) { c.Monitor.Interval = 100 * time.Millisecond },
		"interval too long":  func(c *Config) { c.Monitor.Interval = 2 * time.Hour },
		"bad addr":           func(c *Config) { c.Server.Addr = "not an address" },
		"relative path":      func(c *Config) { c.Exposition.Path = "metrics" },
		"reserved path":      func(c *Config) { c.Exposition.Path = "/dashboard" },
		"wildcard path":      func(c *Config) { c.Exposition.Path = "/m/{name}" },
		"bad grafana url":    func(c *Config) { c.Dashboard.GrafanaURL = "::" },
		"bad log level":      func(c *Config) { c.Log.Level = "verbose" },
		"bad log format":     func(c *Config) { c.Log.Format = "xml" },
		"zero read timeout":  func(c *Config) { c.Server.ReadTimeout = 0 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := defaultsIn(t)
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
server:
  addr: "127.0.0.1:9100"
monitor:
  interval: 30s
  collectors:
    host:
      enable: true
      collect_per_core: true
exposition:
  path: /probe/metrics
  enable_compression: false
log:
  path: ` + filepath.Join(dir, "logs") + `
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9100", cfg.Server.Addr)
	assert.Equal(t, 30*time.Second, cfg.Monitor.Interval)
	assert.True(t, cfg.Monitor.Collectors.Host.Enable)
	assert.True(t, cfg.Monitor.Collectors.Host.CollectPerCore)
	assert.True(t, cfg.Monitor.Collectors.Process.Enable)
	assert.Equal(t, "/probe/metrics", cfg.Exposition.Path)
	assert.False(t, cfg.Exposition.EnableCompression)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "Monitoring Dashboard", cfg.Dashboard.Title)
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func newTestCommand(t *testing.T) *cobra.Command {
	t.Helper()
	def := NewDefaultConfig()
	cmd := &cobra.Command{Use: "test", RunE: func(*cobra.Command, []string) error { return nil }}
	f := cmd.Flags()
	f.StringP("config", "c", "", "config file")
	f.String("server.addr", def.Server.Addr, "")
	f.Duration("monitor.interval", def.Monitor.Interval, "")
	f.String("log.path", t.TempDir(), "")
	return cmd
}

func TestLoadConfigWithCliPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  addr: \"127.0.0.1:7000\"\nmonitor:\n  interval: 20s\n"), 0o644))

	t.Setenv("HEALTH_MONITOR_MONITOR_INTERVAL", "45s")

	cmd := newTestCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"-c", path, "--server.addr", "127.0.0.1:7001"}))

	cfg, err := LoadConfigWithCli(cmd)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:7001", cfg.Server.Addr, "flag wins over file")
	assert.Equal(t, 45*time.Second, cfg.Monitor.Interval, "env wins over file")
}

func TestLoadConfigWithCliDefaults(t *testing.T) {
	cmd := newTestCommand(t)
	require.NoError(t, cmd.ParseFlags(nil))

	cfg, err := LoadConfigWithCli(cmd)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Addr)
	assert.Equal(t, 10*time.Second, cfg.Monitor.Interval)
}

func TestLoadConfigWithCliExplicitMissingFile(t *testing.T) {
	cmd := newTestCommand(t)
	require.NoError(t, cmd.ParseFlags([]string{"--config", filepath.Join(t.TempDir(), "missing.yaml")}))
	_, err := LoadConfigWithCli(cmd)
	assert.Error(t, err)
}
