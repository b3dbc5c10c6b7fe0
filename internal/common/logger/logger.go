// Package logger 提供基于 zap 的结构化日志与领域字段
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dumeirei/grocy-backend/internal/common/config"
)

const timeLayout = "2006-01-02 15:04:05.000"

var (
	mu  sync.RWMutex
	log *zap.Logger
)

// Init 按配置初始化全局日志器
// output 为 stdout 时只写标准输出，为 file 时只写文件，其余值两者都写
func Init(cfg *config.LoggerConfig) error {
	core := zapcore.NewCore(newEncoder(cfg.Format), newWriter(cfg), getLogLevel(cfg.Level))

	opts := []zap.Option{zap.AddStacktrace(zapcore.ErrorLevel)}
	if cfg.Caller {
		opts = append(opts, zap.AddCaller(), zap.AddCallerSkip(1))
	}

	SetLogger(zap.New(core, opts...))
	return nil
}

func newEncoder(format string) zapcore.Encoder {
	ec := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.TimeEncoderOfLayout(timeLayout),
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	if format == "json" {
		return zapcore.NewJSONEncoder(ec)
	}
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(ec)
}

func newWriter(cfg *config.LoggerConfig) zapcore.WriteSyncer {
	var writers []zapcore.WriteSyncer
	if cfg.Output != "file" || cfg.FilePath == "" {
		writers = append(writers, zapcore.Lock(os.Stdout))
	}
	if cfg.Output != "stdout" && cfg.FilePath != "" {
		writers = append(writers, zapcore.AddSync(&lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   cfg.Compress,
			LocalTime:  true,
		}))
	}
	return zapcore.NewMultiWriteSyncer(writers...)
}

// getLogLevel 解析日志级别，无法识别时为 info
func getLogLevel(level string) zapcore.Level {
	l, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l < zapcore.DebugLevel || l > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return l
}

// GetLogger 获取全局日志器，未初始化时使用开发配置
func GetLogger() *zap.Logger {
	mu.RLock()
	l := log
	mu.RUnlock()
	if l != nil {
		return l
	}

	mu.Lock()
	defer mu.Unlock()
	if log == nil {
		log, _ = zap.NewDevelopment()
	}
	return log
}

// SetLogger 替换全局日志器，测试中可注入 zap.NewNop()
func SetLogger(l *zap.Logger) {
	mu.Lock()
	log = l
	mu.Unlock()
}

// Sync 刷新缓冲
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()
	if log == nil {
		return nil
	}
	return log.Sync()
}

// Debug 调试日志
func Debug(msg string, fields ...zap.Field) { GetLogger().Debug(msg, fields...) }

// Info 信息日志
func Info(msg string, fields ...zap.Field) { GetLogger().Info(msg, fields...) }

// Warn 警告日志
func Warn(msg string, fields ...zap.Field) { GetLogger().Warn(msg, fields...) }

// Error 错误日志
func Error(msg string, fields ...zap.Field) { GetLogger().Error(msg, fields...) }

// Fatal 致命错误日志，记录后退出进程
func Fatal(msg string, fields ...zap.Field) { GetLogger().Fatal(msg, fields...) }

// With 返回带有字段的日志器
func With(fields ...zap.Field) *zap.Logger {
	return GetLogger().With(fields...)
}

// Named 返回命名日志器
func Named(name string) *zap.Logger {
	return GetLogger().Named(name)
}

// ForModule 返回带 module 字段的命名日志器
func ForModule(name string) *zap.Logger {
	return GetLogger().Named(name).With(Module(name))
}

// Err 错误字段
var Err = zap.Error

// ==================== 领域字段 ====================

// RequestID 请求ID
func RequestID(id string) zap.Field { return zap.String("request_id", id) }

// UserID 用户ID
func UserID(id int64) zap.Field { return zap.Int64("user_id", id) }

// AdminID 管理员ID
func AdminID(id int64) zap.Field { return zap.Int64("admin_id", id) }

// ProductID 商品ID
func ProductID(id int64) zap.Field { return zap.Int64("product_id", id) }

// ReviewID 评价ID
func ReviewID(id int64) zap.Field { return zap.Int64("review_id", id) }

// ChatID Telegram 会话ID
func ChatID(id int64) zap.Field { return zap.Int64("chat_id", id) }

// Channel 通知通道
func Channel(name string) zap.Field { return zap.String("channel", name) }

// OrderNo 订单号
func OrderNo(no string) zap.Field { return zap.String("order_no", no) }

// Module 模块
func Module(name string) zap.Field { return zap.String("module", name) }

// Action 操作
func Action(name string) zap.Field { return zap.String("action", name) }

// ==================== HTTP 字段 ====================

// Latency 耗时
func Latency(d time.Duration) zap.Field { return zap.Duration("latency", d) }

// StatusCode HTTP 状态码
func StatusCode(code int) zap.Field { return zap.Int("status_code", code) }

// Method HTTP 方法
func Method(method string) zap.Field { return zap.String("method", method) }

// Path 请求路径
func Path(path string) zap.Field { return zap.String("path", path) }

// IP 客户端地址
func IP(ip string) zap.Field { return zap.String("ip", ip) }
