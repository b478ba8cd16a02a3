package config

import (
	"strings"

	"go.uber.org/zap"
)

// NewLogger debug 级别使用开发配置，其余使用生产配置
func NewLogger(level string) (*zap.Logger, error) {
	if strings.EqualFold(level, "debug") {
		return zap.NewDevelopment()
	}

	cfg := zap.NewProductionConfig()
	lvl, err := zap.ParseAtomicLevel(strings.ToLower(level))
	if err == nil {
		cfg.Level = lvl
	}
	return cfg.Build()
}
