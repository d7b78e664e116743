package registers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/health-monitor/pkg/logger"
)

// ErrAgentStarted Start 被重复调用
var ErrAgentStarted = errors.New("agent already started")

// AgentImpl 实现 Agent 接口：按固定间隔依次调用已注册的探针
type AgentImpl struct {
	probes   []Probe
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	mu       sync.Mutex
	started  bool
	done     chan struct{}
}

// NewAgent 创建周期采集器（初始化内部上下文）
func NewAgent(interval time.Duration) *AgentImpl {
	ctx, cancel := context.WithCancel(context.Background())
	return &AgentImpl{
		interval: interval,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Register 注册探针
func (r *AgentImpl) Register(p Probe) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.probes = append(r.probes, p)
}

// Probes 返回已注册探针的副本
func (r *AgentImpl) Probes() []Probe {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Probe, len(r.probes))
	copy(out, r.probes)
	return out
}

// InitAll 初始化所有探针，任意一个失败即返回
func (r *AgentImpl) InitAll() error {
	for _, p := range r.Probes() {
		if err := p.Init(); err != nil {
			return fmt.Errorf("probe %s init failed: %w", p.Name(), err)
		}
		logger.Debug("probe initialized successfully", zap.String("name", p.Name()))
	}
	return nil
}

// Start 初始化探针并启动采集循环（非阻塞）。外部 ctx 或 Shutdown 都能终止循环。
func (r *AgentImpl) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.started {
		r.mu.Unlock()
		return ErrAgentStarted
	}
	r.started = true
	r.mu.Unlock()

	if err := r.InitAll(); err != nil {
		close(r.done)
		return err
	}

	ticker := time.NewTicker(r.interval)
	logger.Debug("agent started",
		zap.Duration("interval", r.interval),
		zap.Int("registered-probes-count", len(r.Probes())))

	go func() {
		defer close(r.done)
		defer ticker.Stop()

		// 首次采集（失败仅警告）
		if err := r.CollectAll(ctx); err != nil {
			logger.Warn("first collection failed", zap.Error(err))
		}
		for {
			select {
			case <-ticker.C:
				_ = r.CollectAll(ctx) // 单探针失败不影响整体
			case <-ctx.Done(): // 外部关闭信号
				logger.Info("agent stopped by external context", zap.Error(ctx.Err()))
				return
			case <-r.ctx.Done(): // Shutdown
				logger.Info("agent stopped by shutdown")
				return
			}
		}
	}()
	return nil
}

// Shutdown 停止采集循环并关闭所有探针。ctx 到期前循环未退出则返回 ctx 的错误。
func (r *AgentImpl) Shutdown(ctx context.Context) error {
	logger.Info("starting to shutdown agent")
	r.cancel()

	r.mu.Lock()
	started := r.started
	r.mu.Unlock()
	if started {
		select {
		case <-r.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return r.CloseAll()
}

// CollectAll 依次采集，返回所有失败探针的错误
func (r *AgentImpl) CollectAll(ctx context.Context) error {
	var errs []error
	for _, p := range r.Probes() {
		if err := p.Collect(ctx); err != nil {
			logger.Warn("collection failed", zap.String("name", p.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))
		}
	}
	return errors.Join(errs...)
}

// CloseAll 关闭所有探针，返回最后一个错误，不阻断整体关闭
func (r *AgentImpl) CloseAll() error {
	var lastErr error
	for _, p := range r.Probes() {
		if err := p.Close(); err != nil {
			logger.Error("failed to close probe", zap.String("name", p.Name()), zap.Error(err))
			lastErr = err
			continue
		}
		logger.Debug("probe closed successfully", zap.String("name", p.Name()))
	}
	return lastErr
}
