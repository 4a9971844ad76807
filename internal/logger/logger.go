package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel 日志级别
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

var levelNames = map[LogLevel]string{
	DEBUG: "DEBUG",
	INFO:  "INFO",
	WARN:  "WARN",
	ERROR: "ERROR",
}

var zapLevels = map[LogLevel]zapcore.Level{
	DEBUG: zapcore.DebugLevel,
	INFO:  zapcore.InfoLevel,
	WARN:  zapcore.WarnLevel,
	ERROR: zapcore.ErrorLevel,
}

// Logger 日志接口
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warn(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel

	// With 返回附加了固定字段的子日志（键值对形式）
	With(keysAndValues ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error
}

// loggerImpl 日志实现
type loggerImpl struct {
	level  LogLevel
	atomic zap.AtomicLevel
	sugar  *zap.SugaredLogger
}

var defaultLogger Logger

// InitLogger 初始化日志系统
func InitLogger(config *Config) (Logger, error) {
	atomic := zap.NewAtomicLevelAt(zapLevels[config.Level])
	encoder := zapcore.NewConsoleEncoder(encoderConfig())

	var cores []zapcore.Core

	// 控制台输出
	if config.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), atomic))
	}

	// 文件输出
	if config.EnableFile {
		logDir := config.LogDir
		if logDir == "" {
			logDir = "logs"
		}

		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("创建日志目录失败: %w", err)
		}

		var logFile string
		if config.LogFile != "" {
			logFile = filepath.Join(logDir, config.LogFile)
		} else {
			logFile = filepath.Join(logDir, fmt.Sprintf("jobstatus-%s.log", time.Now().Format("2006-01-02")))
		}

		// 追加模式
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("打开日志文件失败: %w", err)
		}
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(file), atomic))
	}

	core := zapcore.NewTee(cores...)
	l := &loggerImpl{
		level:  config.Level,
		atomic: atomic,
		sugar:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1)).Sugar(),
	}

	defaultLogger = l
	return l, nil
}

// NewNop 返回丢弃所有输出的日志实例，供测试使用
func NewNop() Logger {
	return &loggerImpl{
		level:  ERROR,
		atomic: zap.NewAtomicLevelAt(zapcore.ErrorLevel),
		sugar:  zap.NewNop().Sugar(),
	}
}

// GetLogger 获取默认日志实例
func GetLogger() Logger {
	if defaultLogger == nil {
		// 未初始化时只输出到控制台
		config := &Config{
			Level:         INFO,
			EnableConsole: true,
			EnableFile:    false,
		}
		l, _ := InitLogger(config)
		return l
	}
	return defaultLogger
}

func encoderConfig() zapcore.EncoderConfig {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	cfg.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05.000")
	cfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + l.CapitalString() + "]")
	}
	cfg.EncodeCaller = func(c zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("[" + c.TrimmedPath() + "]")
	}
	cfg.ConsoleSeparator = " "
	return cfg
}

// SetLevel 设置日志级别
func (l *loggerImpl) SetLevel(level LogLevel) {
	l.level = level
	l.atomic.SetLevel(zapLevels[level])
}

// GetLevel 获取日志级别
func (l *loggerImpl) GetLevel() LogLevel {
	return l.level
}

// With 附加字段
func (l *loggerImpl) With(keysAndValues ...interface{}) Logger {
	return &loggerImpl{
		level:  l.level,
		atomic: l.atomic,
		sugar:  l.sugar.With(keysAndValues...),
	}
}

// Sync 刷新缓冲区
func (l *loggerImpl) Sync() error {
	return l.sugar.Sync()
}

// Debug 调试日志
func (l *loggerImpl) Debug(format string, args ...interface{}) {
	l.sugar.Debugf(format, args...)
}

// Info 信息日志
func (l *loggerImpl) Info(format string, args ...interface{}) {
	l.sugar.Infof(format, args...)
}

// Warn 警告日志
func (l *loggerImpl) Warn(format string, args ...interface{}) {
	l.sugar.Warnf(format, args...)
}

// Error 错误日志
func (l *loggerImpl) Error(format string, args ...interface{}) {
	l.sugar.Errorf(format, args...)
}

// ParseLevel 解析日志级别字符串
func ParseLevel(levelStr string) LogLevel {
	levelStr = strings.ToUpper(strings.TrimSpace(levelStr))
	switch levelStr {
	case "DEBUG":
		return DEBUG
	case "INFO":
		return INFO
	case "WARN", "WARNING":
		return WARN
	case "ERROR":
		return ERROR
	default:
		return INFO
	}
}

// String 返回日志级别的字符串表示
func (l LogLevel) String() string {
	return levelNames[l]
}
