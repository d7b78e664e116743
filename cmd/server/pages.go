package server

import (
	"html/template"
	"net/http"
	"os"
	"path"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/health-monitor/pkg/config"
)

var dashboardTmpl = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>{{.Title}}</title>
	<style>
		body, html { margin: 0; padding: 0; width: 100%; height: 100%; overflow: hidden; }
		iframe { width: 100%; height: 100%; border: none; }
	</style>
</head>
<body>
	<iframe src="{{.GrafanaURL}}" title="Grafana Dashboard"></iframe>
</body>
</html>
`))

var landingTmpl = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html lang="zh-CN">
<head>
	<meta charset="UTF-8">
	<title>Health Monitor</title>
	<style>
		body { font-family: Arial, sans-serif; margin: 40px; }
		h1 { color: #333; }
		a { display: block; margin: 8px 0; font-size: 18px; }
	</style>
</head>
<body>
	<h1>Health Monitor Service</h1>
	<p>Service is running.</p>
	<h2>Available Endpoints:</h2>
	<a href="{{.MetricsPath}}">{{.MetricsPath}} - Prometheus 指标暴露</a>
	<a href="/dashboard">/dashboard - Grafana 面板</a>
	<a href="/targets">/targets - 已注册的 API</a>
	<a href="/health">/health - 健康检查</a>
</body>
</html>
`))

// dashboardHandler 渲染嵌入 Grafana 的 iframe 页面
func dashboardHandler(cfg config.DashboardConfig, logger *zap.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := dashboardTmpl.Execute(w, cfg); err != nil {
			logger.Error("render dashboard failed", zap.Error(err))
		}
	})
}

// rootHandler static_dir 存在时按 SPA 方式托管，找不到的路径回退到 index.html
func (s *Server) rootHandler() http.Handler {
	return getOnly(s.staticHandler())
}

func getOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) staticHandler() http.Handler {
	dir := s.cfg.Dashboard.StaticDir
	if fi, err := os.Stat(dir); err != nil || !fi.IsDir() {
		s.logger.Info("static dir not found, serving landing page", zap.String("static_dir", dir))
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			data := struct{ MetricsPath string }{s.cfg.Exposition.Path}
			if err := landingTmpl.Execute(w, data); err != nil {
				s.logger.Error("render landing page failed", zap.Error(err))
			}
		})
	}

	files := http.FileServer(http.Dir(dir))
	index := filepath.Join(dir, "index.html")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+r.URL.Path)))
		if fi, err := os.Stat(name); err == nil && !fi.IsDir() || r.URL.Path == "/" {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, index)
	})
}
