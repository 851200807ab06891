package domain

import "github.com/google/uuid"

// DefaultTagColor is applied when a tag is stored without a color.
const DefaultTagColor = "#3b82f6"

// Tag categorizes videos. Color is a #RRGGBB hex string.
type Tag struct {
	ID    string `json:"id" yaml:"id"`
	Label string `json:"label" yaml:"label"`
	Color string `json:"color" yaml:"color"`
}

// NewTag creates a tag with a fresh UUID. An empty color falls back to DefaultTagColor.
func NewTag(label, color string) Tag {
	if color == "" {
		color = DefaultTagColor
	}
	return Tag{
		ID:    uuid.NewString(),
		Label: label,
		Color: color,
	}
}
