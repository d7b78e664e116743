package registers

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/metrics"
	"github.com/health-monitor/pkg/monitor"
	"github.com/health-monitor/pkg/registry"
)

type fakeProbe struct {
	name     string
	initErr  error
	collects atomic.Int32
	closed   atomic.Bool
	fail     bool
}

func (p *fakeProbe) Name() string { return p.name }
func (p *fakeProbe) Init() error  { return p.initErr }
func (p *fakeProbe) Collect(context.Context) error {
	p.collects.Add(1)
	if p.fail {
		return errors.New("collect failed")
	}
	return nil
}
func (p *fakeProbe) Close() error {
	p.closed.Store(true)
	return nil
}

func TestAgentCollectsUntilShutdown(t *testing.T) {
	agent := NewAgent(10 * time.Millisecond)
	p := &fakeProbe{name: "fake"}
	agent.Register(p)

	require.NoError(t, agent.Start(context.Background()))
	assert.ErrorIs(t, agent.Start(context.Background()), ErrAgentStarted)

	assert.Eventually(t, func() bool { return p.collects.Load() >= 3 }, time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, agent.Shutdown(ctx))
	assert.True(t, p.closed.Load())

	n := p.collects.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, n, p.collects.Load())
}

func TestAgentStopsWithParentContext(t *testing.T) {
	agent := NewAgent(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, agent.Start(ctx))
	cancel()

	select {
	case <-agent.done:
	case <-time.After(time.Second):
		t.Fatal("agent loop did not exit")
	}
}

func TestAgentInitFailure(t *testing.T) {
	agent := NewAgent(time.Second)
	agent.Register(&fakeProbe{name: "bad", initErr: errors.New("no device")})

	err := agent.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad")
	require.NoError(t, agent.Shutdown(context.Background()))
}

func TestCollectAllJoinsErrors(t *testing.T) {
	agent := NewAgent(time.Second)
	ok := &fakeProbe{name: "ok"}
	agent.Register(&fakeProbe{name: "a", fail: true})
	agent.Register(ok)
	agent.Register(&fakeProbe{name: "b", fail: true})

	err := agent.CollectAll(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a: collect failed")
	assert.Contains(t, err.Error(), "b: collect failed")
	assert.EqualValues(t, 1, ok.collects.Load())
}

func TestShutdownWithoutStart(t *testing.T) {
	agent := NewAgent(time.Second)
	p := &fakeProbe{name: "idle"}
	agent.Register(p)
	require.NoError(t, agent.Shutdown(context.Background()))
	assert.True(t, p.closed.Load())
}

func TestNewHTTPMetrics(t *testing.T) {
	reg := registry.New(nil)
	m, err := NewHTTPMetrics(reg)
	require.NoError(t, err)
	assert.Equal(t, []string{"http_requests_total", "http_request_duration_seconds"}, reg.Names())

	m.Requests.With(prometheus.Labels{"handler": "metrics", "code": "200", "method": "get"}).Inc()
	m.Duration.With(prometheus.Labels{"handler": "metrics", "method": "get"}).Observe(0.01)

	fams, errs := reg.Gather()
	require.Empty(t, errs)
	require.Len(t, fams, 2)
	assert.Equal(t, metrics.CounterType, fams[0].Type)
	require.Len(t, fams[0].Samples, 1)
	assert.Equal(t, 1.0, fams[0].Samples[0].Value)
	assert.Equal(t, metrics.HistogramType, fams[1].Type)
}

func TestInitRegistry(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.Log.Path = t.TempDir()
	cfg.Monitor.Interval = time.Hour

	rt, err := InitRegistry(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = rt.Agent.Shutdown(context.Background()) })

	names := rt.Registry.Names()
	assert.Contains(t, names, "process_cpu_seconds_total")
	assert.Contains(t, names, "go_goroutines")
	assert.Contains(t, names, "health_monitor_scrape_collector_failures_total")
	assert.Contains(t, names, "health_monitor_target_registrations_total")
	assert.Contains(t, names, "http_requests_total")
	assert.NotContains(t, names, "system_cpu_usage_ratio")

	require.NotNil(t, rt.Registrar)
	require.NotNil(t, rt.HTTP.Requests)
	require.NotNil(t, rt.Scrape.SerializationErrors)
}

func TestRegisterProbesFollowsConfig(t *testing.T) {
	cfg := config.NewDefaultConfig()
	f := metrics.NewMetricFactory(registry.New(nil))

	am := monitor.AgentMetrics{
		CollectErrors:   f.NewAgentCollectErrorsTotal(),
		CollectDuration: f.NewAgentCollectDurationSeconds(),
	}

	agent := NewAgent(time.Second)
	assert.Empty(t, RegisterProbes(agent, cfg, f, am))

	cfg.Monitor.Collectors.Host.Enable = true
	probes := RegisterProbes(agent, cfg, f, am)
	require.Len(t, probes, 1)
	assert.Equal(t, "host-cpu", probes[0].Name())
	assert.Len(t, agent.Probes(), 1)
}
