// Package store persists the TubeVault application state in a single key-value slot.
//
// Every operation is total: reads fall back to the empty default state and writes
// report success as a bool. Failures are logged, never returned. Each CRUD helper
// reads the whole document, mutates it and writes it back with no isolation between
// the read and the write, so concurrent writers on the same medium lose updates
// (last write wins for the whole document).
package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/errors"
	"github.com/tubevault/tubevault/internal/kv"
	"github.com/tubevault/tubevault/internal/validation"
)

// StorageKey is the slot holding the serialized AppState.
const StorageKey = "tubevault_data"

// Store owns the persisted AppState slot on a key-value medium.
type Store struct {
	medium    kv.Medium
	logger    *slog.Logger
	validator *validation.Validator
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithValidator replaces the default schema validator.
func WithValidator(v *validation.Validator) Option {
	return func(s *Store) {
		s.validator = v
	}
}

// WithClock sets the time source used by Seed.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store on medium. A nil logger discards diagnostics.
func New(medium kv.Medium, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Store{
		medium: medium,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.validator == nil {
		s.validator = validation.New()
	}
	return s
}

// GetState reads and validates the persisted state.
// A missing slot, malformed text, a schema violation or a medium failure all yield
// the empty default state; nothing valid is salvaged from a rejected document.
func (s *Store) GetState(ctx context.Context) domain.AppState {
	raw, ok, err := s.medium.GetItem(ctx, StorageKey)
	if err != nil {
		s.logger.Error("failed to load state from storage",
			"key", StorageKey,
			"error", err,
		)
		return domain.NewAppState()
	}
	if !ok || raw == "" {
		return domain.NewAppState()
	}

	state, err := s.validator.ParseAppState([]byte(raw))
	if err != nil {
		s.logParseFailure(err, len(raw))
		return domain.NewAppState()
	}
	return state
}

func (s *Store) logParseFailure(err error, size int) {
	switch errors.CodeOf(err) {
	case errors.CodeValidation:
		s.logger.Error("invalid storage schema detected, resetting to default",
			"key", StorageKey,
			"bytes", size,
			"violations", validation.Violations(err),
		)
	case errors.CodeMalformed:
		s.logger.Error("malformed state document, resetting to default",
			"key", StorageKey,
			"bytes", size,
			"error", err,
		)
	default:
		s.logger.Error("failed to load state from storage",
			"key", StorageKey,
			"error", err,
		)
	}
}

// SaveState serializes state and writes it to the slot.
// It returns false when the medium rejects the write; the previous content is kept.
func (s *Store) SaveState(ctx context.Context, state domain.AppState) bool {
	state = state.Clone()
	state.Normalize()

	data, err := json.Marshal(state)
	if err != nil {
		s.logger.Error("failed to marshal state", "error", err)
		return false
	}

	if err := s.medium.SetItem(ctx, StorageKey, string(data)); err != nil {
		if errors.Is(err, errors.ErrQuotaExceeded) {
			s.logger.Error("storage quota exceeded",
				"key", StorageKey,
				"bytes", len(data),
				"error", err,
			)
		} else {
			s.logger.Error("failed to save state to storage",
				"key", StorageKey,
				"error", err,
			)
		}
		return false
	}

	s.logger.Debug("state saved",
		"videos", len(state.Videos),
		"tags", len(state.Tags),
		"notes", len(state.Notes),
		"bytes", len(data),
	)
	return true
}

// Clear removes the persisted slot. The next GetState returns the default state.
func (s *Store) Clear(ctx context.Context) {
	if err := s.medium.RemoveItem(ctx, StorageKey); err != nil {
		s.logger.Error("failed to clear storage",
			"key", StorageKey,
			"error", err,
		)
	}
}

// update runs the read-modify-write cycle shared by the CRUD helpers.
func (s *Store) update(ctx context.Context, mutate func(*domain.AppState)) bool {
	state := s.GetState(ctx)
	mutate(&state)
	return s.SaveState(ctx, state)
}
