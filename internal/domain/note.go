package domain

import "github.com/google/uuid"

// Note is free-form text attached to a video.
// Timestamp is the position in the video, in seconds.
type Note struct {
	ID        string  `json:"id" yaml:"id"`
	VideoID   string  `json:"videoId" yaml:"videoId"`
	Content   string  `json:"content" yaml:"content"`
	Timestamp float64 `json:"timestamp" yaml:"timestamp"`
}

// NewNote creates a note on videoID with a fresh UUID.
func NewNote(videoID, content string, timestamp float64) Note {
	return Note{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		Content:   content,
		Timestamp: timestamp,
	}
}
