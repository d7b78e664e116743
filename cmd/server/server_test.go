package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/exposition"
	"github.com/health-monitor/pkg/metrics"
	"github.com/health-monitor/pkg/monitor"
	"github.com/health-monitor/pkg/registers"
	"github.com/health-monitor/pkg/registry"
	"github.com/health-monitor/pkg/target"
)

func newTestServer(t *testing.T, staticDir string) (*Server, *registers.Runtime) {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Server.Addr = "127.0.0.1:0"
	cfg.Dashboard.StaticDir = staticDir
	cfg.Dashboard.GrafanaURL = "http://grafana.local:3000/d/abc"

	reg := registry.New(nil)
	f := metrics.NewMetricFactory(reg)
	httpMetrics, err := registers.NewHTTPMetrics(reg)
	require.NoError(t, err)
	rt := &registers.Runtime{
		Registry:  reg,
		Registrar: target.NewRegistrar(target.NewStore(), f, nil),
		HTTP:      httpMetrics,
		Scrape: monitor.ScrapeMetrics{
			CollectorFailures:   f.NewScrapeCollectorFailuresTotal(),
			SerializationErrors: f.NewScrapeSerializationErrorsTotal(),
		},
	}
	f.NewGauge(metrics.GaugeOpts{Name: "test_up", Help: "Always one."}).Set(1)
	return NewHTTPServer(cfg, nil, rt), rt
}

func do(t *testing.T, h http.Handler, method, url, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, url, r))
	return rec
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir()+"/missing")
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, exposition.ContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "# TYPE test_up gauge\ntest_up 1\n")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	for _, m := range []string{http.MethodPost, http.MethodOptions, http.MethodDelete} {
		rec = do(t, h, m, "/metrics", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code, m)
		assert.Equal(t, "GET, HEAD", rec.Header().Get("Allow"), m)
	}
}

func TestConnectAPIEndpoint(t *testing.T) {
	s, rt := newTestServer(t, t.TempDir()+"/missing")
	h := s.Handler()

	rec := do(t, h, http.MethodPost, "/connect-api", `{"apiUrl":"http://example.com/metrics"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp target.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, target.Response{Success: true, Message: "API connected"}, resp)

	rec = do(t, h, http.MethodPost, "/connect-api", `{}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, target.Response{Success: false, Message: "API URL is required"}, resp)

	assert.Len(t, rt.Registrar.Targets(), 1)

	rec = do(t, h, http.MethodGet, "/targets", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http://example.com/metrics")
}

func TestDashboardEndpoint(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir()+"/missing")

	rec := do(t, s.Handler(), http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `<iframe src="http://grafana.local:3000/d/abc"`)
	assert.Contains(t, rec.Body.String(), "<title>Monitoring Dashboard</title>")
}

func TestHealthAndPreflight(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir()+"/missing")
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())

	rec = do(t, h, http.MethodOptions, "/connect-api", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestPanicBecomesJSON500(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir()+"/missing")
	s.handle("boom", "GET /boom", http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("kaboom")
	}))
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/boom", "")
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"success":false,"message":"Internal server error"}`, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLandingPageWithoutStaticDir(t *testing.T) {
	s, _ := newTestServer(t, filepath.Join(t.TempDir(), "missing"))
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `href="/metrics"`)

	rec = do(t, h, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodDelete, "/", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSPAFallback(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>spa</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	s, _ := newTestServer(t, dir)
	h := s.Handler()

	rec := do(t, h, http.MethodGet, "/app.js", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "console.log(1)", rec.Body.String())

	for _, p := range []string{"/", "/settings/profile", "/assets/missing.js"} {
		rec = do(t, h, http.MethodGet, p, "")
		require.Equal(t, http.StatusOK, rec.Code, p)
		assert.Equal(t, "<html>spa</html>", rec.Body.String(), p)
	}
}

func TestRequestsAreInstrumented(t *testing.T) {
	s, rt := newTestServer(t, t.TempDir()+"/missing")
	h := s.Handler()
	do(t, h, http.MethodGet, "/health", "")
	do(t, h, http.MethodGet, "/health", "")

	var found bool
	for _, fam := range rt.Registry.Snapshot() {
		if fam.Name != "http_requests_total" {
			continue
		}
		for _, sm := range fam.Samples {
			if sm.Labels.Key() == (metrics.Labels{
				{Name: "code", Value: "200"},
				{Name: "handler", Value: "health"},
				{Name: "method", Value: "get"},
			}).Key() {
				found = true
				assert.Equal(t, 2.0, sm.Value)
			}
		}
	}
	assert.True(t, found)
}

func TestStartAndShutdown(t *testing.T) {
	s, _ := newTestServer(t, t.TempDir()+"/missing")
	require.NoError(t, s.Start())
	assert.Contains(t, s.Routes(), "/connect-api")

	resp, err := http.Get("http://" + s.Addr() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "OK", string(body))

	require.NoError(t, s.Shutdown())
	_, err = http.Get("http://" + s.Addr() + "/health")
	assert.Error(t, err)
}
