package metrics

// Registerer 接口隔离了具体的 Registry 实现，业务代码只依赖注册能力，适合单测 mock。
type Registerer interface {
	Register(c Collector) error
	MustRegister(cs ...Collector)
}
