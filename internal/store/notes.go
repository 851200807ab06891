package store

import (
	"context"
	"slices"

	"github.com/tubevault/tubevault/internal/domain"
)

// GetNotes returns the persisted notes.
func (s *Store) GetNotes(ctx context.Context) []domain.Note {
	return s.GetState(ctx).Notes
}

// SaveNote replaces the note with the same ID, or appends it.
// VideoID is not checked against existing videos.
func (s *Store) SaveNote(ctx context.Context, note domain.Note) bool {
	return s.update(ctx, func(state *domain.AppState) {
		if i := state.FindNote(note.ID); i >= 0 {
			state.Notes[i] = note
			return
		}
		state.Notes = append(state.Notes, note)
	})
}

// DeleteNote removes the note with the given ID.
func (s *Store) DeleteNote(ctx context.Context, id string) bool {
	return s.update(ctx, func(state *domain.AppState) {
		state.Notes = slices.DeleteFunc(state.Notes, func(n domain.Note) bool {
			return n.ID == id
		})
	})
}
