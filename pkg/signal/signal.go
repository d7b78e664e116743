package signal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// WaitForShutdown 阻塞直到收到 SIGINT/SIGTERM 或 ctx 结束，然后在 timeout 内执行 shutdownFunc。
// shutdownFunc 拿到的 ctx 在超时后取消。
func WaitForShutdown(ctx context.Context, logger *zap.Logger, timeout time.Duration, shutdownFunc func(context.Context) error) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	logger.Info("service running, waiting for SIGINT/SIGTERM...")
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logger.Info("context done, shutting down", zap.Error(ctx.Err()))
	}

	// 超时控制关闭逻辑
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	errCh := make(chan error, 1)
	go func() { errCh <- shutdownFunc(shutdownCtx) }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("graceful shutdown failed", zap.Error(err))
			return err
		}
		logger.Info("graceful shutdown completed successfully")
		return nil
	case <-shutdownCtx.Done():
		logger.Warn("shutdown timeout exceeded", zap.Duration("timeout", timeout))
		return fmt.Errorf("shutdown did not finish within %s: %w", timeout, shutdownCtx.Err())
	}
}
