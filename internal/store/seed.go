package store

import (
	"context"

	"github.com/tubevault/tubevault/internal/domain"
)

// Fixed IDs of the sample records written by Seed.
const (
	SeedVideoID = "00000000-0000-4000-a000-000000000001"
	SeedTagID   = "00000000-0000-4000-a000-000000000002"
	SeedNoteID  = "00000000-0000-4000-a000-000000000003"
)

const seedYouTubeID = "dQw4w9WgXcQ"

// SeedState returns the sample document: one video, one tag and one note wired together.
func SeedState(createdAt int64) domain.AppState {
	return domain.AppState{
		Videos: []domain.Video{
			{
				ID:        SeedVideoID,
				YouTubeID: seedYouTubeID,
				Title:     "Rick Astley - Never Gonna Give You Up",
				URL:       domain.WatchURL(seedYouTubeID),
				Thumbnail: domain.ThumbnailURL(seedYouTubeID),
				CreatedAt: createdAt,
				TagIDs:    []string{SeedTagID},
			},
		},
		Tags: []domain.Tag{
			{ID: SeedTagID, Label: "Music", Color: domain.DefaultTagColor},
		},
		Notes: []domain.Note{
			{ID: SeedNoteID, VideoID: SeedVideoID, Content: "Classic rickroll.", Timestamp: 0},
		},
	}
}

// Seed overwrites the slot with the sample document, whatever it held before.
func (s *Store) Seed(ctx context.Context) bool {
	return s.SaveState(ctx, SeedState(s.now().UnixMilli()))
}
