package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/health-monitor/pkg/config"
	"github.com/health-monitor/pkg/goid"
)

type Logger = zap.Logger

var (
	mu         sync.RWMutex
	baseLogger = zap.NewNop() // InitLogger 之前为 no-op，库代码和测试不会 panic
)

// ParseLevel 日志级别字符串转 zapcore.Level，未知级别按 info 处理
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel
	case "inf", "info":
		return zapcore.InfoLevel
	case "war", "warn":
		return zapcore.WarnLevel
	case "err", "error":
		return zapcore.ErrorLevel
	case "dpanic":
		return zapcore.DPanicLevel
	case "pan", "panic":
		return zapcore.PanicLevel
	case "fat", "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// InitLogger 初始化全局日志：控制台彩色输出 + 按天切割的文件输出
func InitLogger(cfg *config.ZapLogConfig, opts ...zap.Option) (*zap.Logger, error) {
	level := ParseLevel(cfg.Level)

	if err := os.MkdirAll(cfg.Path, 0755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", cfg.Path, err)
	}

	rotateOpts := []rotatelogs.Option{
		rotatelogs.WithRotationTime(24 * time.Hour),
	}
	if cfg.MaxAge > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
	} else if cfg.MaxBackup > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithMaxAge(-1), rotatelogs.WithRotationCount(uint(cfg.MaxBackup)))
	}
	if cfg.MaxSize > 0 {
		rotateOpts = append(rotateOpts, rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024))
	}
	if cfg.Compress {
		rotateOpts = append(rotateOpts, rotatelogs.WithHandler(
			compressHandler(cfg.Path, time.Duration(cfg.MaxAge)*24*time.Hour, cfg.MaxBackup)))
	}
	writer, err := rotatelogs.New(filepath.Join(cfg.Path, "health-monitor-%Y%m%d.log"), rotateOpts...)
	if err != nil {
		return nil, fmt.Errorf("open rotate log: %w", err)
	}

	// 控制台彩色时间
	customTimeEncoderConsole := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(fmt.Sprintf("\033[34m%s\033[0m", t.Format("2006-01-02 15:04:05.000 -07:00")))
	}

	// JSON 日志纯文本时间
	customTimeEncoderJSON := func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000 -07:00"))
	}

	consoleEncoderCfg := zap.NewDevelopmentEncoderConfig()
	consoleEncoderCfg.ConsoleSeparator = " "
	consoleEncoderCfg.EncodeLevel = coloredLevelEncoder
	consoleEncoderCfg.EncodeTime = customTimeEncoderConsole
	// Caller 两级路径
	consoleEncoderCfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(c.File)), filepath.Base(c.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, c.Line))
	}

	jsonCfg := zap.NewProductionEncoderConfig()
	jsonCfg.TimeKey = "timestamp"
	jsonCfg.EncodeTime = customTimeEncoderJSON
	jsonCfg.EncodeLevel = zapcore.LowercaseLevelEncoder

	// format=console 时文件也写纯文本
	var fileEncoder zapcore.Encoder = zapcore.NewJSONEncoder(jsonCfg)
	if cfg.Format == "console" {
		plain := jsonCfg
		plain.EncodeLevel = zapcore.CapitalLevelEncoder
		fileEncoder = zapcore.NewConsoleEncoder(plain)
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(fileEncoder, zapcore.AddSync(writer), level),
	)

	opts = append([]zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}, opts...)
	l := zap.New(core, opts...)

	mu.Lock()
	baseLogger = l
	mu.Unlock()
	return l, nil
}

func coloredLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var levelStr string
	switch level {
	case zapcore.DebugLevel:
		levelStr = "\033[36mDEBUG\033[0m"
	case zapcore.InfoLevel:
		levelStr = "\033[32mINFO \033[0m"
	case zapcore.WarnLevel:
		levelStr = "\033[33mWARN \033[0m"
	case zapcore.ErrorLevel:
		levelStr = "\033[31mERROR\033[0m"
	case zapcore.DPanicLevel:
		levelStr = "\033[35mDPANIC\033[0m"
	case zapcore.PanicLevel:
		levelStr = "\033[35mPANIC\033[0m"
	case zapcore.FatalLevel:
		levelStr = "\033[35mFATAL\033[0m"
	default:
		levelStr = "UNK  "
	}
	enc.AppendString(levelStr)
}

// SetGlobalLogger 替换全局日志（测试注入 observer 使用）
func SetGlobalLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	baseLogger = l
	mu.Unlock()
}

// GetGlobalLogger 返回全局日志，未初始化时为 no-op
func GetGlobalLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

func log(level zapcore.Level, msg string, fields ...zapcore.Field) {
	l := GetGlobalLogger().WithOptions(zap.AddCallerSkip(2))
	if ce := l.Check(level, msg); ce != nil {
		ce.Write(append(fields, zap.Uint64("goid", goid.GetGID()))...)
	}
}

func Debug(msg string, fields ...zapcore.Field) { log(zap.DebugLevel, msg, fields...) }
func Info(msg string, fields ...zapcore.Field)  { log(zap.InfoLevel, msg, fields...) }
func Warn(msg string, fields ...zapcore.Field)  { log(zap.WarnLevel, msg, fields...) }
func Error(msg string, fields ...zapcore.Field) { log(zap.ErrorLevel, msg, fields...) }
func Panic(msg string, fields ...zapcore.Field) { log(zap.PanicLevel, msg, fields...) }
func Fatal(msg string, fields ...zapcore.Field) { log(zap.FatalLevel, msg, fields...) }

// Sync 刷盘，忽略 stdout 不支持 fsync 的错误
func Sync() error {
	err := GetGlobalLogger().Sync()
	if err != nil && strings.Contains(err.Error(), os.Stdout.Name()) {
		return nil
	}
	return err
}
