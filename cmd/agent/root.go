package agent

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/health-monitor/cmd/server"
	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/logger"
	"github.com/health-monitor/pkg/registers"
	"github.com/health-monitor/pkg/signal"
	"github.com/health-monitor/pkg/util"
)

// Version 构建时通过 -ldflags "-X github.com/health-monitor/cmd/agent.Version=..." 注入
var Version = "dev"

const shutdownTimeout = 10 * time.Second

var defaultCfg = config.NewDefaultConfig()

// NewRootCmd 构建根命令，flag 按模块分组注册
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "health-monitor",
		Short:         "Metrics registry and Prometheus exposition service with a target registration API",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfigWithCli(cmd)
			if err != nil {
				return fmt.Errorf("%w\n请检查配置文件路径或使用 -c 参数指定", err)
			}
			return runServer(cmd.Context(), cfg)
		},
	}

	cmd.PersistentFlags().StringP("config", "c", "configs/config.yaml", "配置文件路径")
	// 注册分组 flag
	initServerFlags(cmd)
	initMonitorFlags(cmd)
	initExpositionFlags(cmd)
	initDashboardFlags(cmd)
	initLogFlags(cmd)
	return cmd
}

// Execute 程序入口
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		// 统一输出错误到 stderr
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServer(ctx context.Context, cfg *config.Config) error {
	//初始化日志
	l, err := logger.InitLogger(&cfg.Log)
	if err != nil {
		return fmt.Errorf("日志初始化失败: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	util.PrintBanner("health-monitor", "ColorBlue", Version)
	logger.Info("log initialization successful",
		zap.String("path", cfg.Log.Path),
		zap.String("level", cfg.Log.Level),
		zap.String("format", cfg.Log.Format),
		zap.String("version", Version))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	rt, err := registers.InitRegistry(ctx, cfg, l)
	if err != nil {
		return fmt.Errorf("初始化指标注册中心失败: %w", err)
	}

	httpServer := server.NewHTTPServer(cfg, l, rt)
	if err := httpServer.Start(); err != nil {
		_ = rt.Agent.Shutdown(context.Background())
		return fmt.Errorf("start HTTP server failed: %w", err)
	}

	// 关闭顺序：HTTP服务 → 采集器
	return signal.WaitForShutdown(ctx, l, shutdownTimeout, func(ctx context.Context) error {
		var errs []error
		if err := httpServer.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("shutdown HTTP server failed: %w", err))
		}
		if err := rt.Agent.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown agent failed: %w", err))
		}
		if len(errs) == 0 {
			logger.Info("all services shutdown successfully")
		}
		return errors.Join(errs...)
	})
}
