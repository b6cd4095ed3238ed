// Package logger はアプリケーション全体で使う zap ロガーを保持する
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const serviceName = "theatre-booking"

var log *zap.Logger

func init() {
	log = NewLogger("development")
}

// NewLogger は環境に応じたロガーを作成する
// production は JSON、それ以外はカラー付きコンソール出力。LOG_LEVEL でレベルを上書きできる
func NewLogger(env string) *zap.Logger {
	config := configFor(env)
	if level, ok := levelFromEnv(); ok {
		config.Level = zap.NewAtomicLevelAt(level)
	}

	l, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l.With(zap.String("service", serviceName), zap.String("env", env))
}

func configFor(env string) zap.Config {
	if env == "production" {
		config := zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		// 予約の状態遷移ログは間引かない
		config.Sampling = nil
		return config
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.DisableStacktrace = true
	return config
}

func levelFromEnv() (zapcore.Level, bool) {
	raw := os.Getenv("LOG_LEVEL")
	if raw == "" {
		return 0, false
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, false
	}
	return level, true
}

func Get() *zap.Logger {
	return log
}

func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	log = l
}

// Named はコンポーネント名付きのロガーを返す（khalti, sweeper など）
func Named(component string) *zap.Logger {
	return log.Named(component)
}

func With(fields ...zap.Field) *zap.Logger {
	return log.With(fields...)
}

func Info(msg string, fields ...zap.Field)  { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }
func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { log.Fatal(msg, fields...) }

func Sync() error {
	return log.Sync()
}
