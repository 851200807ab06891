// Package kv provides synchronous key-value media for the state store.
//
// A Medium behaves like browser local storage: string keys and values scoped to an
// origin, with an optional byte quota. Writes that would exceed the quota fail with
// errors.ErrQuotaExceeded and leave the previous value in place.
package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tubevault/tubevault/internal/errors"
)

// DefaultQuota is the usual per-origin local storage budget in browsers.
const DefaultQuota = 5 * 1024 * 1024

// DefaultOrigin scopes keys when no origin is configured.
const DefaultOrigin = "tubevault"

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendBadger = "badger"
	BackendSQLite = "sqlite"
)

// Medium is a synchronous key-value store.
type Medium interface {
	// GetItem returns the value stored under key. ok is false when the key is absent.
	GetItem(ctx context.Context, key string) (value string, ok bool, err error)
	// SetItem stores value under key, replacing any previous value.
	SetItem(ctx context.Context, key, value string) error
	// RemoveItem deletes key. Removing an absent key is not an error.
	RemoveItem(ctx context.Context, key string) error
}

// ClosableMedium is a Medium holding resources that must be released.
type ClosableMedium interface {
	Medium
	Close() error
}

// options holds settings shared by all media.
type options struct {
	quota  int64
	origin string
}

// Option configures a medium.
type Option func(*options)

// WithQuota limits the total size of keys and values in the origin.
// Zero or a negative value disables the limit.
func WithQuota(bytes int64) Option {
	return func(o *options) {
		o.quota = bytes
	}
}

// WithOrigin scopes keys to the named origin.
func WithOrigin(origin string) Option {
	return func(o *options) {
		if origin != "" {
			o.origin = origin
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{origin: DefaultOrigin}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// checkQuota returns ErrQuotaExceeded when replacing key's value would push usage past quota.
// used must exclude the current entry for key.
func (o options) checkQuota(used int64, key, value string) error {
	if o.quota <= 0 {
		return nil
	}
	need := used + int64(len(key)+len(value))
	if need > o.quota {
		return errors.ErrQuotaExceeded.WithDetails(map[string]int64{
			"quota":    o.quota,
			"required": need,
		})
	}
	return nil
}

// Config selects and configures a medium for Open.
type Config struct {
	Backend string
	Path    string // Data directory for persistent backends
	Origin  string
	Quota   int64
}

// Open creates the medium described by cfg.
func Open(cfg Config) (ClosableMedium, error) {
	opts := []Option{WithQuota(cfg.Quota), WithOrigin(cfg.Origin)}

	var path string
	switch cfg.Backend {
	case BackendMemory:
		return NewMemory(opts...), nil
	case BackendBadger:
		path = filepath.Join(cfg.Path, "badger")
	case BackendSQLite:
		path = filepath.Join(cfg.Path, "tubevault.db")
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	var (
		m   ClosableMedium
		err error
	)
	if cfg.Backend == BackendBadger {
		m, err = OpenBadger(path, opts...)
	} else {
		m, err = OpenSQLite(path, opts...)
	}
	if err != nil {
		return nil, err
	}
	return m, nil
}
