package logger

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Valores aceitos em ENV
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Option ajusta a configuração do zap antes do Build.
type Option func(*zap.Config) error

// WithLevel sobrescreve o nível padrão do ambiente ("debug", "info", "warn", "error").
// Vazio mantém o padrão.
func WithLevel(level string) Option {
	return func(c *zap.Config) error {
		if level == "" {
			return nil
		}
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return fmt.Errorf("log level %q: %w", level, err)
		}
		c.Level = lvl
		return nil
	}
}

// WithOutput troca o destino dos logs (padrão: stderr).
func WithOutput(paths ...string) Option {
	return func(c *zap.Config) error {
		if len(paths) > 0 {
			c.OutputPaths = paths
		}
		return nil
	}
}

// New monta o logger do serviço conforme o ambiente:
// local usa console colorido em debug, dev usa JSON em debug, prod usa JSON em info.
func New(serviceName, env string, opts ...Option) (*zap.Logger, error) {
	if serviceName == "" {
		return nil, errors.New("logger: service name is required")
	}

	var cfg zap.Config
	switch env {
	case EnvLocal:
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case EnvDev:
		cfg = zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case EnvProd:
		cfg = zap.NewProductionConfig()
	default:
		return nil, fmt.Errorf("logger: unknown env %q (want %s, %s or %s)", env, EnvLocal, EnvDev, EnvProd)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, fmt.Errorf("logger: %w", err)
		}
	}

	// serviço e env entram em toda linha
	return cfg.Build(
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", env),
		),
	)
}
