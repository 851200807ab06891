package store

import (
	"context"
	"slices"

	"github.com/tubevault/tubevault/internal/domain"
)

// GetTags returns the persisted tags.
func (s *Store) GetTags(ctx context.Context) []domain.Tag {
	return s.GetState(ctx).Tags
}

// SaveTag replaces the tag with the same ID, or appends it.
func (s *Store) SaveTag(ctx context.Context, tag domain.Tag) bool {
	return s.update(ctx, func(state *domain.AppState) {
		if i := state.FindTag(tag.ID); i >= 0 {
			state.Tags[i] = tag
			return
		}
		state.Tags = append(state.Tags, tag)
	})
}

// DeleteTag removes the tag and strips its ID from every video's TagIDs.
// Videos are rebuilt rather than edited in place; none are deleted.
func (s *Store) DeleteTag(ctx context.Context, id string) bool {
	return s.update(ctx, func(state *domain.AppState) {
		state.Tags = slices.DeleteFunc(state.Tags, func(t domain.Tag) bool {
			return t.ID == id
		})

		videos := make([]domain.Video, 0, len(state.Videos))
		for _, v := range state.Videos {
			videos = append(videos, v.WithoutTag(id))
		}
		state.Videos = videos
	})
}
