package domain

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Video is a bookmarked YouTube video.
// ID is immutable once created; TagIDs may reference tags that no longer exist.
type Video struct {
	ID        string   `json:"id" yaml:"id"`
	YouTubeID string   `json:"youtubeId" yaml:"youtubeId"`
	Title     string   `json:"title" yaml:"title"`
	URL       string   `json:"url" yaml:"url"`
	Thumbnail string   `json:"thumbnail" yaml:"thumbnail"`
	CreatedAt int64    `json:"createdAt" yaml:"createdAt"` // Unix milliseconds
	TagIDs    []string `json:"tagIds" yaml:"tagIds"`
}

// NewVideo builds a video for the given YouTube id with a fresh UUID.
// The watch and thumbnail URLs are derived from youtubeID.
func NewVideo(youtubeID, title string, now time.Time) Video {
	return Video{
		ID:        uuid.NewString(),
		YouTubeID: youtubeID,
		Title:     title,
		URL:       WatchURL(youtubeID),
		Thumbnail: ThumbnailURL(youtubeID),
		CreatedAt: now.UnixMilli(),
		TagIDs:    []string{},
	}
}

// HasTag reports whether the video references tagID.
func (v *Video) HasTag(tagID string) bool {
	return slices.Contains(v.TagIDs, tagID)
}

// WithoutTag returns a copy of the video with tagID removed from TagIDs.
// The receiver is left untouched.
func (v Video) WithoutTag(tagID string) Video {
	kept := make([]string, 0, len(v.TagIDs))
	for _, id := range v.TagIDs {
		if id != tagID {
			kept = append(kept, id)
		}
	}
	v.TagIDs = kept
	return v
}

// CreatedTime returns CreatedAt as a time.Time.
func (v *Video) CreatedTime() time.Time {
	return time.UnixMilli(v.CreatedAt)
}
