// Package providers contains dependency injection providers for TubeVault.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/tubevault/tubevault/internal/config"
	"github.com/tubevault/tubevault/internal/logger"
	"github.com/tubevault/tubevault/internal/validation"
)

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		File:        cfg.Logger.File,
		AddSource:   cfg.App.Environment == "development",
		Environment: cfg.App.Environment,
	})

	log.Debug("Starting TubeVault",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"log_file", cfg.Logger.File,
		"storage_backend", cfg.Storage.Backend,
		"data_path", cfg.Storage.Path,
	)

	return log, nil
}

// ProvideValidator provides the state document validator.
func ProvideValidator(_ do.Injector) (*validation.Validator, error) {
	return validation.New(), nil
}
