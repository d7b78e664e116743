package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var valid = validator.New()

// EnvPrefix 环境变量前缀，例如 HEALTH_MONITOR_SERVER_ADDR -> server.addr
const EnvPrefix = "HEALTH_MONITOR"

// Config 全局配置结构体（聚合所有核心模块）
type Config struct {
	Server     ServerConfig     `yaml:"server" mapstructure:"server" comment:"HTTP服务配置"`
	Monitor    MonitorConfig    `yaml:"monitor" mapstructure:"monitor" comment:"监控采集配置"`
	Exposition ExpositionConfig `yaml:"exposition" mapstructure:"exposition" comment:"指标暴露配置"`
	Dashboard  DashboardConfig  `yaml:"dashboard" mapstructure:"dashboard" comment:"仪表盘与前端配置"`
	Log        ZapLogConfig     `yaml:"log" mapstructure:"log" comment:"日志配置"`
}

// ServerConfig HTTP服务配置（超时统一为time.Duration，支持"30s"解析）
type ServerConfig struct {
	Addr         string        `yaml:"addr" mapstructure:"addr" validate:"required,hostname_port" comment:"HTTP监听地址（格式：ip:port）"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout" validate:"required,gt=0" comment:"读取超时时间（如30s）"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout" validate:"required,gt=0" comment:"写入超时时间（如30s）"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout" validate:"required,gt=0" comment:"空闲连接超时时间（如60s）"`
}

// MonitorConfig 监控采集全局配置
type MonitorConfig struct {
	Interval   time.Duration   `yaml:"interval" mapstructure:"interval" validate:"required,gt=0" comment:"周期采集间隔（如10s）"`
	Collectors CollectorConfig `yaml:"collectors" mapstructure:"collectors" comment:"各类采集器配置"`
}

// CollectorConfig 采集器开关
type CollectorConfig struct {
	Process ToggleConfig        `yaml:"process" mapstructure:"process" comment:"进程指标（CPU时间/内存/fd/线程/启动时间）"`
	Runtime ToggleConfig        `yaml:"runtime" mapstructure:"runtime" comment:"Go 运行时指标（GC/调度器/goroutine）"`
	Host    HostCollectorConfig `yaml:"host" mapstructure:"host" comment:"主机 CPU 使用率与负载（周期采集）"`
}

// ToggleConfig 只有开关的采集器
type ToggleConfig struct {
	Enable bool `yaml:"enable" mapstructure:"enable"`
}

// HostCollectorConfig 主机 CPU 采集器配置
type HostCollectorConfig struct {
	Enable         bool `yaml:"enable" mapstructure:"enable" comment:"是否启用主机CPU采集"`
	CollectPerCore bool `yaml:"collect_per_core" mapstructure:"collect_per_core" comment:"是否按每核心采集CPU指标"`
}

// ExpositionConfig /metrics 暴露配置
type ExpositionConfig struct {
	Path              string `yaml:"path" mapstructure:"path" validate:"required,startswith=/" comment:"指标路径"`
	EnableCompression bool   `yaml:"enable_compression" mapstructure:"enable_compression" comment:"客户端支持时启用gzip"`
}

// DashboardConfig 仪表盘配置
type DashboardConfig struct {
	GrafanaURL string `yaml:"grafana_url" mapstructure:"grafana_url" validate:"required,url" comment:"嵌入的 Grafana 地址"`
	StaticDir  string `yaml:"static_dir" mapstructure:"static_dir" comment:"前端静态文件目录，不存在时使用内置首页"`
	Title      string `yaml:"title" mapstructure:"title" validate:"required" comment:"仪表盘页面标题"`
}

// ZapLogConfig 日志配置
type ZapLogConfig struct {
	Level     string `yaml:"level" mapstructure:"level" validate:"required,oneof=debug info warn error dpanic panic fatal" comment:"日志级别"`
	Format    string `yaml:"format" mapstructure:"format" validate:"required,oneof=json console" comment:"日志格式（json/console）"`
	Path      string `yaml:"path" mapstructure:"path" validate:"required" comment:"日志存储路径"`
	MaxSize   int    `yaml:"max_size" mapstructure:"max_size" validate:"required,gt=0" comment:"单个日志文件最大大小（MB）"`
	MaxBackup int    `yaml:"max_backup" mapstructure:"max_backup" validate:"gte=0" comment:"日志文件最大备份数"`
	MaxAge    int    `yaml:"max_age" mapstructure:"max_age" validate:"gte=0" comment:"日志文件最大保存天数"`
	Compress  bool   `yaml:"compress" mapstructure:"compress" comment:"是否压缩过期日志"`
}

// NewDefaultConfig 创建默认配置（所有字段兜底，避免空指针/非法值）
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:         "0.0.0.0:5000",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Monitor: MonitorConfig{
			Interval: 10 * time.Second,
			Collectors: CollectorConfig{
				Process: ToggleConfig{Enable: true},
				Runtime: ToggleConfig{Enable: true},
				Host: HostCollectorConfig{
					Enable:         false,
					CollectPerCore: false,
				},
			},
		},
		Exposition: ExpositionConfig{
			Path:              "/metrics",
			EnableCompression: true,
		},
		Dashboard: DashboardConfig{
			GrafanaURL: "http://localhost:3000/",
			StaticDir:  "./dist",
			Title:      "Monitoring Dashboard",
		},
		Log: ZapLogConfig{
			Level:     "info",
			Format:    "json",
			Path:      "./logs",
			MaxSize:   100,
			MaxBackup: 30,
			MaxAge:    7,
			Compress:  true,
		},
	}
}

// LoadConfigWithCli 加载配置，优先级 Flags > ENV > YAML > 默认值
func LoadConfigWithCli(cmd *cobra.Command) (*Config, error) {
	v := viper.New()

	// 1. 绑定 Cobra Flags → Viper
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	// 2. 解析配置文件 (--config)，默认路径不存在时忽略
	configFile, _ := cmd.Flags().GetString("config")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			if cmd.Flags().Changed("config") {
				return nil, fmt.Errorf("read config file %s: %w", configFile, err)
			}
		}
	}

	// 3. 绑定环境变量 HEALTH_MONITOR_SERVER_ADDR -> server.addr
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return decode(v)
}

// LoadFile 只从 YAML 文件加载（测试与工具使用），缺省字段取默认值
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config file %s: %w", path, err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := NewDefaultConfig()

	// 解码反序列化到结构体（支持 time.Duration）
	decoderConfig := &mapstructure.DecoderConfig{
		Metadata:         nil,
		Result:           cfg,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	}
	decoder, err := mapstructure.NewDecoder(decoderConfig)
	if err != nil {
		return nil, fmt.Errorf("new decoder: %w", err)
	}
	if err := decoder.Decode(v.AllSettings()); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate 配置校验
func (c *Config) Validate() error {
	if err := valid.Struct(c); err != nil {
		return err
	}
	// 	1,校验Server服务配置
	if err := c.Server.Validate(); err != nil {
		return err
	}
	// 	2，校验采集配置
	if err := c.Monitor.Validate(); err != nil {
		return err
	}
	// 	3，校验暴露与仪表盘配置
	if err := c.Exposition.Validate(); err != nil {
		return err
	}
	// 	4，校验日志配置
	if err := c.Log.Validate(); err != nil {
		return err
	}
	return nil
}
