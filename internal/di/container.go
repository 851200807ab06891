// Package di provides dependency injection configuration for TubeVault.
package di

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/tubevault/tubevault/internal/config"
	"github.com/tubevault/tubevault/internal/di/providers"
	"github.com/tubevault/tubevault/internal/logger"
	"github.com/tubevault/tubevault/internal/store"
	"github.com/tubevault/tubevault/internal/validation"
)

// NewContainer creates and configures the DI container with all providers.
// The configuration is loaded by the caller so command-line arguments stay with main.
func NewContainer(cfg *config.Config) *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.ProvideValue(injector, cfg)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideValidator)

	// Storage layer
	do.Provide(injector, providers.ProvideMedium)
	do.Provide(injector, providers.ProvideStore)

	return injector
}

// Bootstrap initializes the storage stack so open failures surface before any command runs.
func Bootstrap(injector *do.RootScope) error {
	if _, err := do.Invoke[*logger.Logger](injector); err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	if _, err := do.Invoke[*validation.Validator](injector); err != nil {
		return fmt.Errorf("validator: %w", err)
	}
	if _, err := do.Invoke[*providers.MediumHandle](injector); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if _, err := do.Invoke[*store.Store](injector); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return nil
}
