// Package log 封装了基于 zap 的全局日志记录器。
package log

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// 在 Init 之前使用 nop logger，保证测试和工具代码可以直接调用日志函数。
var sugar = zap.NewNop().Sugar()

// Init 初始化 zap logger
func Init(level, format, outputPath string) {
	var zapConfig zap.Config

	// 根据配置设置日志级别
	logLevel := zap.NewAtomicLevel()
	if err := logLevel.UnmarshalText([]byte(level)); err != nil {
		logLevel.SetLevel(zap.InfoLevel)
	}

	// 开发环境使用 console 编码，其余情况使用 json
	if format == "console" {
		zapConfig = zap.NewDevelopmentConfig()
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapConfig.Encoding = "console"
	} else {
		zapConfig = zap.NewProductionConfig()
		zapConfig.Encoding = "json"
	}

	zapConfig.Level = logLevel
	zapConfig.OutputPaths = []string{"stdout"}
	if outputPath != "" {
		// 同时输出到文件和 stdout
		_ = os.MkdirAll(outputPath, os.ModePerm)
		zapConfig.OutputPaths = append(zapConfig.OutputPaths, outputPath+"/app.log")
	}

	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	sugar = logger.Sugar()
}

// Debugf 使用格式化字符串记录一条 debug 级别的日志
func Debugf(template string, args ...interface{}) {
	sugar.Debugf(template, args...)
}

// Info 记录一条 info 级别的日志
func Info(msg string) {
	sugar.Info(msg)
}

// Infof 使用格式化字符串记录一条 info 级别的日志
func Infof(template string, args ...interface{}) {
	sugar.Infof(template, args...)
}

// Infow 使用键值对记录一条 info 级别的结构化日志。
// 这是记录复杂上下文信息的首选方法。
func Infow(msg string, keysAndValues ...interface{}) {
	sugar.Infow(msg, keysAndValues...)
}

// Warnf 使用格式化字符串记录一条 warn 级别的日志
func Warnf(template string, args ...interface{}) {
	sugar.Warnf(template, args...)
}

// Warnw 使用键值对记录一条 warn 级别的结构化日志
func Warnw(msg string, keysAndValues ...interface{}) {
	sugar.Warnw(msg, keysAndValues...)
}

// Error 记录一条 error 级别的日志，并附带 error 信息
func Error(msg string, err error) {
	sugar.Errorw(msg, "error", err)
}

func Errorf(template string, args ...interface{}) {
	sugar.Errorf(template, args...)
}

// Errorw 使用键值对记录一条 error 级别的结构化日志
func Errorw(msg string, keysAndValues ...interface{}) {
	sugar.Errorw(msg, keysAndValues...)
}

// Fatal 记录一条 fatal 级别的日志，并附带 error 信息，然后退出程序
func Fatal(msg string, err error) {
	sugar.Fatalw(msg, "error", err)
}

func Fatalf(template string, args ...interface{}) {
	sugar.Fatalf(template, args...)
}

// Sync 将缓冲区中的任何日志刷新（写入）到底层 Writer。
// 在程序退出前调用它是个好习惯。
func Sync() {
	_ = sugar.Sync()
}
