package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger

func init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	var err error
	L, err = config.Build(zap.AddCallerSkip(1))
	if err != nil {
		panic(err)
	}
}

// SetDevelopment lowers the level to debug for local runs.
func SetDevelopment(dev bool) {
	if !dev {
		return
	}
	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := config.Build(zap.AddCallerSkip(1))
	if err != nil {
		L.Warn("development logger build failed", zap.Error(err))
		return
	}
	L = l
}

// WithComponent returns a logger tagged with the component field (handler, service, mq, ...).
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}

// Sync flushes buffered entries; called on shutdown.
func Sync() {
	_ = L.Sync()
}
