package agent

import (
	"github.com/spf13/cobra"
)

func initMonitorFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.Duration("monitor.interval", defaultCfg.Monitor.Interval, "采集间隔")

	f.Bool("monitor.collectors.process.enable", defaultCfg.Monitor.Collectors.Process.Enable, "启用进程指标")
	f.Bool("monitor.collectors.runtime.enable", defaultCfg.Monitor.Collectors.Runtime.Enable, "启用 Go 运行时指标")
	f.Bool("monitor.collectors.host.enable", defaultCfg.Monitor.Collectors.Host.Enable, "启用主机 CPU 采集")
	f.Bool("monitor.collectors.host.collect_per_core", defaultCfg.Monitor.Collectors.Host.CollectPerCore, "按核心采集 CPU")
}
