package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

// Validate HTTP服务配置校验
func (h *ServerConfig) Validate() error {
	if err := valid.Struct(h); err != nil {
		return err
	}
	if h.Addr == "" {
		return errors.New("server.addr cannot be empty")
	}
	// 	用net包解析地址，验证格式合法性
	if _, err := net.ResolveTCPAddr("tcp", h.Addr); err != nil {
		return fmt.Errorf("server.addr format invalid (expected: :port or ip:port), got %s: %w", h.Addr, err)
	}
	return nil
}

// Validate 采集配置校验
func (m *MonitorConfig) Validate() error {
	if err := valid.Struct(m); err != nil {
		return err
	}
	if m.Interval < time.Second || m.Interval > 3600*time.Second {
		return fmt.Errorf("monitor.interval must be between 1 and 3600 seconds, got %s", m.Interval)
	}
	return nil
}

// reservedPaths 服务端固定路由，指标路径不能与之冲突
var reservedPaths = map[string]bool{
	"/":            true,
	"/connect-api": true,
	"/dashboard":   true,
	"/health":      true,
	"/targets":     true,
}

// Validate 指标暴露配置校验
func (e *ExpositionConfig) Validate() error {
	if err := valid.Struct(e); err != nil {
		return err
	}
	// 路径直接作为 ServeMux pattern 注册
	if strings.ContainsAny(e.Path, "{} \t") {
		return fmt.Errorf("exposition.path %q must be a literal path", e.Path)
	}
	if reservedPaths[e.Path] {
		return fmt.Errorf("exposition.path %s collides with a built-in route", e.Path)
	}
	return nil
}
