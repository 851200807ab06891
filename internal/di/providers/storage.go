package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/tubevault/tubevault/internal/config"
	"github.com/tubevault/tubevault/internal/kv"
	"github.com/tubevault/tubevault/internal/logger"
	"github.com/tubevault/tubevault/internal/store"
	"github.com/tubevault/tubevault/internal/validation"
)

// MediumHandle wraps the key-value medium with shutdown capability.
type MediumHandle struct {
	kv.ClosableMedium
}

// Shutdown implements do.Shutdownable.
func (h *MediumHandle) Shutdown() error {
	return h.Close()
}

// ProvideMedium opens the configured key-value medium.
func ProvideMedium(i do.Injector) (*MediumHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	medium, err := kv.Open(cfg.MediumConfig())
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage.Backend, err)
	}

	log.Debug("Storage opened",
		"backend", cfg.Storage.Backend,
		"path", cfg.Storage.Path,
		"origin", cfg.Storage.Origin,
		"quota", cfg.Storage.Quota,
	)

	return &MediumHandle{ClosableMedium: medium}, nil
}

// ProvideStore provides the state store on top of the medium.
func ProvideStore(i do.Injector) (*store.Store, error) {
	mediumHandle := do.MustInvoke[*MediumHandle](i)
	validator := do.MustInvoke[*validation.Validator](i)
	log := do.MustInvoke[*logger.Logger](i)

	return store.New(mediumHandle, log.Component("store"), store.WithValidator(validator)), nil
}
