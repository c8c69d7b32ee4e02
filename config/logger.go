package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the application logger. Development mode switches to a
// console encoder with debug level regardless of LoggerConfig.
func NewLogger(appEnv string, cfg LoggerConfig) (*zap.SugaredLogger, error) {
	zapCfg := zap.NewProductionConfig()
	if appEnv == "development" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		level, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			level = zapcore.InfoLevel
		}
		zapCfg.Level = zap.NewAtomicLevelAt(level)
		if cfg.Encoding != "" {
			zapCfg.Encoding = cfg.Encoding
		}
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}
