package registers

import "context"

// Agent 周期采集器管理接口（封装所有探针的生命周期）
// 后续扩展探针仅需实现 Probe 接口，通过 Agent 注册即可
type Agent interface {
	Register(p Probe)                   // 注册探针
	Start(ctx context.Context) error    // 初始化并启动定时采集
	Shutdown(ctx context.Context) error // 优雅停止
}

// Probe 需要周期刷新的数据源（例如 CPU 使用率需要两次采样的差值）。
// 探针在 Collect 中更新自己注册的指标，scrape 时只读取当前值。
type Probe interface {
	Name() string                      // 探针名称（唯一标识）
	Init() error                       // 初始化（预检查资源）
	Collect(ctx context.Context) error // 采集数据（更新指标）
	Close() error                      // 关闭（释放资源）
}
