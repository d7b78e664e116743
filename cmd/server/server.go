package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/exposition"
	"github.com/health-monitor/pkg/registers"
	"github.com/health-monitor/pkg/target"
)

// Server HTTP服务实例，封装核心依赖和配置
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	rt     *registers.Runtime
	server *http.Server
	mux    *customMux

	mu       sync.Mutex
	listener net.Listener
}

// statusWriter 包装ResponseWriter，捕获状态码
type statusWriter struct {
	http.ResponseWriter
	status int
}

// customMux 自定义Mux，兼容原生用法并记录路由
type customMux struct {
	http.ServeMux
	routes []string
	mu     sync.Mutex
}

const defaultShutdownTimeout = 5 * time.Second

// Handle 重写Handle，注册路由时记录路径
func (m *customMux) Handle(pattern string, handler http.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes = append(m.routes, pattern)
	m.ServeMux.Handle(pattern, handler)
}

// HandleFunc 重写HandleFunc
func (m *customMux) HandleFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	m.Handle(pattern, http.HandlerFunc(handler))
}

// Routes 已注册的路由（按注册顺序）
func (m *customMux) Routes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.routes))
	copy(out, m.routes)
	return out
}

// NewHTTPServer 创建HTTP服务实例
func NewHTTPServer(cfg *config.Config, logger *zap.Logger, rt *registers.Runtime) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	srv := &Server{
		cfg:    cfg,
		logger: logger,
		rt:     rt,
		mux:    &customMux{},
	}

	// 注册核心端点
	srv.registerEndpoints()

	srv.server = &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		ErrorLog:     zap.NewStdLog(logger),
	}
	return srv
}

// Handler 完整的中间件链：日志 → panic 恢复 → CORS → 路由
func (s *Server) Handler() http.Handler {
	return s.logMiddleware(s.recoverMiddleware(corsMiddleware(s.mux, s.cfg.Exposition.Path)))
}

// Routes 返回已注册路由
func (s *Server) Routes() []string { return s.mux.Routes() }

// registerEndpoints 注册核心路由
func (s *Server) registerEndpoints() {
	s.handle("metrics", s.cfg.Exposition.Path, exposition.Handler(s.rt.Registry, exposition.HandlerOpts{
		EnableCompression:   s.cfg.Exposition.EnableCompression,
		Logger:              s.logger,
		CollectorFailures:   s.rt.Scrape.CollectorFailures,
		SerializationErrors: s.rt.Scrape.SerializationErrors,
	}))
	s.handle("connect-api", "/connect-api", target.ConnectHandler(s.rt.Registrar, s.logger))
	s.handle("targets", "GET /targets", target.ListHandler(s.rt.Registrar))
	s.handle("dashboard", "GET /dashboard", dashboardHandler(s.cfg.Dashboard, s.logger))

	// /health 端点
	s.handle("health", "GET /health", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}))

	// 根路径：有前端构建产物时走 SPA，否则显示落地页。
	// 不带方法，避免与 /connect-api 等无方法路由冲突
	s.handle("root", "/", s.rootHandler())
}

// handle 注册路由并挂上 promhttp 请求计数/耗时
func (s *Server) handle(name, pattern string, h http.Handler) {
	if s.rt.HTTP.Requests != nil && s.rt.HTTP.Duration != nil {
		labels := prometheus.Labels{"handler": name}
		h = promhttp.InstrumentHandlerDuration(s.rt.HTTP.Duration.MustCurryWith(labels),
			promhttp.InstrumentHandlerCounter(s.rt.HTTP.Requests.MustCurryWith(labels), h))
	}
	s.mux.Handle(pattern, h)
}

// logMiddleware 统一日志记录
func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(sw, r)

		s.logger.Info(
			"HTTP request",
			zap.String("method", r.Method),
			zap.String("url", r.URL.String()),
			zap.String("remote", r.RemoteAddr),
			zap.Int("status", sw.status),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

// recoverMiddleware handler panic 转成 500 JSON，进程继续服务
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			v := recover()
			if v == nil {
				return
			}
			if v == http.ErrAbortHandler {
				panic(v)
			}
			s.logger.Error("handler panicked",
				zap.String("url", r.URL.String()),
				zap.Any("panic", v),
				zap.Stack("stack"))
			target.WriteJSON(w, http.StatusInternalServerError,
				target.Response{Message: "Internal server error"})
		}()
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware 允许任意来源，预检请求直接 204。
// exposition 路径只接受 GET/HEAD，OPTIONS 交给它自己返回 405
func corsMiddleware(next http.Handler, metricsPath string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Accept-Encoding")
		if r.Method == http.MethodOptions && r.URL.Path != metricsPath {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// WriteHeader 捕获状态码
func (w *statusWriter) WriteHeader(statusCode int) {
	w.status = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

// Start 启动HTTP服务（非阻塞）。监听失败同步返回。
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	s.logger.Info(
		"starting HTTP server",
		zap.String("listen_addr", ln.Addr().String()),
		zap.Strings("handle_funcs", s.Routes()),
	)
	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("HTTP server failed", zap.Error(err))
		}
	}()
	return nil
}

// Addr 实际监听地址，Start 之前为空
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown 优雅关闭HTTP服务
func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			s.logger.Warn("shutdown timeout exceeded")
			return nil
		}
		s.logger.Error("HTTP server shutdown failed", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server shutdown successfully")
	return nil
}
