package telemetry

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// BridgeLogger tees logger into the OTLP log pipeline when log export is
// enabled. Entries below minLevel are not exported.
func BridgeLogger(logger *zap.Logger, p *Providers, serviceName string, minLevel zapcore.Level) *zap.Logger {
	lp := p.LoggerProvider()
	if lp == nil {
		return logger
	}
	otelCore := otelzap.NewCore(serviceName, otelzap.WithLoggerProvider(lp))
	filtered := &levelCore{Core: otelCore, min: minLevel}
	return logger.WithOptions(zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, filtered)
	}))
}

type levelCore struct {
	zapcore.Core
	min zapcore.Level
}

func (c *levelCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= c.min && c.Core.Enabled(lvl)
}

func (c *levelCore) Check(e zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(e.Level) {
		return ce
	}
	return c.Core.Check(e, ce)
}

func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{Core: c.Core.With(fields), min: c.min}
}
