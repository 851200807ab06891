package store

import (
	"context"
	"slices"

	"github.com/tubevault/tubevault/internal/domain"
)

// GetVideos returns the persisted videos.
func (s *Store) GetVideos(ctx context.Context) []domain.Video {
	return s.GetState(ctx).Videos
}

// SaveVideo replaces the video with the same ID, or appends it.
func (s *Store) SaveVideo(ctx context.Context, video domain.Video) bool {
	video.TagIDs = slices.Clone(video.TagIDs)
	return s.update(ctx, func(state *domain.AppState) {
		if i := state.FindVideo(video.ID); i >= 0 {
			state.Videos[i] = video
			return
		}
		state.Videos = append(state.Videos, video)
	})
}

// DeleteVideo removes the video and every note attached to it.
func (s *Store) DeleteVideo(ctx context.Context, id string) bool {
	return s.update(ctx, func(state *domain.AppState) {
		state.Videos = slices.DeleteFunc(state.Videos, func(v domain.Video) bool {
			return v.ID == id
		})
		state.Notes = slices.DeleteFunc(state.Notes, func(n domain.Note) bool {
			return n.VideoID == id
		})
	})
}
