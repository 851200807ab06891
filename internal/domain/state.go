package domain

import "slices"

// AppState is the aggregate document persisted as a single unit.
type AppState struct {
	Videos []Video `json:"videos" yaml:"videos"`
	Tags   []Tag   `json:"tags" yaml:"tags"`
	Notes  []Note  `json:"notes" yaml:"notes"`
}

// NewAppState returns the default empty state.
// Each call returns fresh slices so callers can mutate the result freely.
func NewAppState() AppState {
	return AppState{
		Videos: []Video{},
		Tags:   []Tag{},
		Notes:  []Note{},
	}
}

// Normalize replaces nil collections, including each video's TagIDs, with empty ones
// so the serialized document carries [] instead of null. Tags without a color get
// DefaultTagColor.
func (s *AppState) Normalize() {
	if s.Videos == nil {
		s.Videos = []Video{}
	}
	if s.Tags == nil {
		s.Tags = []Tag{}
	}
	if s.Notes == nil {
		s.Notes = []Note{}
	}
	for i := range s.Videos {
		if s.Videos[i].TagIDs == nil {
			s.Videos[i].TagIDs = []string{}
		}
	}
	for i := range s.Tags {
		if s.Tags[i].Color == "" {
			s.Tags[i].Color = DefaultTagColor
		}
	}
}

// Clone returns a deep copy of the state.
func (s AppState) Clone() AppState {
	out := AppState{
		Videos: make([]Video, len(s.Videos)),
		Tags:   slices.Clone(s.Tags),
		Notes:  slices.Clone(s.Notes),
	}
	for i, v := range s.Videos {
		v.TagIDs = slices.Clone(v.TagIDs)
		out.Videos[i] = v
	}
	if out.Tags == nil {
		out.Tags = []Tag{}
	}
	if out.Notes == nil {
		out.Notes = []Note{}
	}
	return out
}

// IsEmpty reports whether all three collections are empty.
func (s *AppState) IsEmpty() bool {
	return len(s.Videos) == 0 && len(s.Tags) == 0 && len(s.Notes) == 0
}

// FindVideo returns the index of the video with id, or -1.
func (s *AppState) FindVideo(id string) int {
	return slices.IndexFunc(s.Videos, func(v Video) bool { return v.ID == id })
}

// FindTag returns the index of the tag with id, or -1.
func (s *AppState) FindTag(id string) int {
	return slices.IndexFunc(s.Tags, func(t Tag) bool { return t.ID == id })
}

// FindNote returns the index of the note with id, or -1.
func (s *AppState) FindNote(id string) int {
	return slices.IndexFunc(s.Notes, func(n Note) bool { return n.ID == id })
}

// NotesForVideo returns the notes attached to videoID, in stored order.
func (s *AppState) NotesForVideo(videoID string) []Note {
	out := []Note{}
	for _, n := range s.Notes {
		if n.VideoID == videoID {
			out = append(out, n)
		}
	}
	return out
}
