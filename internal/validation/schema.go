package validation

import (
	"encoding/json"

	"github.com/tubevault/tubevault/internal/domain"
	domainerrors "github.com/tubevault/tubevault/internal/errors"
)

// The document types mirror the persisted JSON. Scalars are pointers so a missing
// field can be told apart from an empty or zero one; rules live in the struct tags.

type stateDocument struct {
	Videos []videoDocument `json:"videos" validate:"required,dive"`
	Tags   []tagDocument   `json:"tags" validate:"required,dive"`
	Notes  []noteDocument  `json:"notes" validate:"required,dive"`
}

type videoDocument struct {
	ID        *string  `json:"id" validate:"required,entityid"`
	YouTubeID *string  `json:"youtubeId" validate:"required,min=1"`
	Title     *string  `json:"title" validate:"required,min=1"`
	URL       *string  `json:"url" validate:"required,url"`
	Thumbnail *string  `json:"thumbnail" validate:"required,url"`
	CreatedAt *float64 `json:"createdAt" validate:"present,epochms"` // truncated to whole ms
	TagIDs    []string `json:"tagIds" validate:"omitempty,dive,entityid"`
}

type tagDocument struct {
	ID    *string `json:"id" validate:"required,entityid"`
	Label *string `json:"label" validate:"required,min=1"`
	Color *string `json:"color" validate:"omitnil,rgbhex"`
}

type noteDocument struct {
	ID        *string  `json:"id" validate:"required,entityid"`
	VideoID   *string  `json:"videoId" validate:"required,entityid"`
	Content   *string  `json:"content" validate:"present"`
	Timestamp *float64 `json:"timestamp" validate:"present"`
}

// ParseAppState decodes and validates a persisted state document.
// Malformed text yields a CodeMalformed error; a document that decodes but breaks a
// rule yields a CodeValidation error whose details are []Violation. Defaults are
// applied to absent optional fields. data is never modified.
func (v *Validator) ParseAppState(data []byte) (domain.AppState, error) {
	var doc stateDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return domain.AppState{}, domainerrors.Malformed(err, "decode state document")
	}

	if err := v.Validate(&doc); err != nil {
		return domain.AppState{}, err
	}

	return doc.toDomain(), nil
}

// ValidateVideo checks a video against the stored-document rules.
func (v *Validator) ValidateVideo(video domain.Video) error {
	return v.Validate(videoDocumentFrom(video))
}

// ValidateTag checks a tag against the stored-document rules.
func (v *Validator) ValidateTag(tag domain.Tag) error {
	return v.Validate(tagDocumentFrom(tag))
}

// ValidateNote checks a note against the stored-document rules.
func (v *Validator) ValidateNote(note domain.Note) error {
	return v.Validate(noteDocumentFrom(note))
}

// ValidateState checks every entity of an in-memory state.
func (v *Validator) ValidateState(state domain.AppState) error {
	state.Normalize()
	doc := stateDocument{
		Videos: make([]videoDocument, 0, len(state.Videos)),
		Tags:   make([]tagDocument, 0, len(state.Tags)),
		Notes:  make([]noteDocument, 0, len(state.Notes)),
	}
	for _, video := range state.Videos {
		doc.Videos = append(doc.Videos, videoDocumentFrom(video))
	}
	for _, tag := range state.Tags {
		doc.Tags = append(doc.Tags, tagDocumentFrom(tag))
	}
	for _, note := range state.Notes {
		doc.Notes = append(doc.Notes, noteDocumentFrom(note))
	}
	return v.Validate(&doc)
}

func (d *stateDocument) toDomain() domain.AppState {
	state := domain.AppState{
		Videos: make([]domain.Video, 0, len(d.Videos)),
		Tags:   make([]domain.Tag, 0, len(d.Tags)),
		Notes:  make([]domain.Note, 0, len(d.Notes)),
	}

	for _, vd := range d.Videos {
		tagIDs := vd.TagIDs
		if tagIDs == nil {
			tagIDs = []string{}
		}
		state.Videos = append(state.Videos, domain.Video{
			ID:        *vd.ID,
			YouTubeID: *vd.YouTubeID,
			Title:     *vd.Title,
			URL:       *vd.URL,
			Thumbnail: *vd.Thumbnail,
			CreatedAt: int64(*vd.CreatedAt),
			TagIDs:    tagIDs,
		})
	}

	for _, td := range d.Tags {
		color := domain.DefaultTagColor
		if td.Color != nil {
			color = *td.Color
		}
		state.Tags = append(state.Tags, domain.Tag{
			ID:    *td.ID,
			Label: *td.Label,
			Color: color,
		})
	}

	for _, nd := range d.Notes {
		state.Notes = append(state.Notes, domain.Note{
			ID:        *nd.ID,
			VideoID:   *nd.VideoID,
			Content:   *nd.Content,
			Timestamp: *nd.Timestamp,
		})
	}

	return state
}

func videoDocumentFrom(v domain.Video) videoDocument {
	createdAt := float64(v.CreatedAt)
	return videoDocument{
		ID:        &v.ID,
		YouTubeID: &v.YouTubeID,
		Title:     &v.Title,
		URL:       &v.URL,
		Thumbnail: &v.Thumbnail,
		CreatedAt: &createdAt,
		TagIDs:    v.TagIDs,
	}
}

func tagDocumentFrom(t domain.Tag) tagDocument {
	doc := tagDocument{ID: &t.ID, Label: &t.Label}
	if t.Color != "" {
		doc.Color = &t.Color
	}
	return doc
}

func noteDocumentFrom(n domain.Note) noteDocument {
	return noteDocument{
		ID:        &n.ID,
		VideoID:   &n.VideoID,
		Content:   &n.Content,
		Timestamp: &n.Timestamp,
	}
}
