package logger

import (
	"github.com/schoolworks/feeledger/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Module = fx.Module("logger",
	fx.Provide(New),
)

// New builds the process logger: JSON in production, console elsewhere.
func New(cfg config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		zc := zap.NewProductionConfig()
		zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder
		return zc.Build()
	}
	zc := zap.NewDevelopmentConfig()
	zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zc.Build()
}
