package agent

import (
	"github.com/spf13/cobra"
)

func initServerFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("server.addr", defaultCfg.Server.Addr, "-> HTTP listening address (HTTP监听地址)")
	f.Duration("server.read_timeout", defaultCfg.Server.ReadTimeout, "-> Read timeout duration (读取超时时间)")
	f.Duration("server.write_timeout", defaultCfg.Server.WriteTimeout, "-> Write timeout duration (写入超时时间)")
	f.Duration("server.idle_timeout", defaultCfg.Server.IdleTimeout, "-> Idle connection timeout duration (空闲连接超时时间)")
}

func initExpositionFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("exposition.path", defaultCfg.Exposition.Path, "-> Metrics endpoint path (指标暴露路径)")
	f.Bool("exposition.enable_compression", defaultCfg.Exposition.EnableCompression, "-> Gzip the response when accepted (客户端支持时压缩)")
}

func initDashboardFlags(root *cobra.Command) {
	f := root.PersistentFlags()

	f.String("dashboard.grafana_url", defaultCfg.Dashboard.GrafanaURL, "-> Grafana URL embedded by /dashboard (嵌入的 Grafana 地址)")
	f.String("dashboard.static_dir", defaultCfg.Dashboard.StaticDir, "-> Frontend build directory (前端静态文件目录)")
	f.String("dashboard.title", defaultCfg.Dashboard.Title, "-> Dashboard page title (仪表盘标题)")
}
