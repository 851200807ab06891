// Package query filters stored entities with expr-lang boolean expressions.
//
// Expressions see one entity at a time through a flat environment, for example:
//
//	"Music" in tags && title contains "Rick"
//	videoId == "00000000-0000-4000-a000-000000000001" && timestamp > 60
package query

import (
	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/errors"
)

// Filter is a compiled boolean expression. A nil Filter matches everything.
type Filter struct {
	expression string
	program    *exprvm.Program
}

// CompileVideoFilter compiles expression against the video environment.
// An empty expression returns a nil Filter.
func CompileVideoFilter(expression string) (*Filter, error) {
	return compile(expression, VideoEnv(domain.Video{}, nil, 0))
}

// CompileNoteFilter compiles expression against the note environment.
// An empty expression returns a nil Filter.
func CompileNoteFilter(expression string) (*Filter, error) {
	return compile(expression, NoteEnv(domain.Note{}, ""))
}

func compile(expression string, sample map[string]any) (*Filter, error) {
	if expression == "" {
		return nil, nil
	}
	program, err := exprlang.Compile(expression, exprlang.Env(sample), exprlang.AsBool())
	if err != nil {
		return nil, errors.Wrapf(err, errors.CodeValidation, "invalid filter %q", expression)
	}
	return &Filter{expression: expression, program: program}, nil
}

// Match evaluates the filter against env.
func (f *Filter) Match(env map[string]any) (bool, error) {
	if f == nil {
		return true, nil
	}
	out, err := exprlang.Run(f.program, env)
	if err != nil {
		return false, errors.Wrapf(err, errors.CodeValidation, "evaluate filter %q", f.expression)
	}
	matched, _ := out.(bool)
	return matched, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expression
}

// VideoEnv exposes a video to expressions. tags holds the labels of the tags it
// references; noteCount is the number of notes attached to it.
func VideoEnv(v domain.Video, tags []string, noteCount int) map[string]any {
	if tags == nil {
		tags = []string{}
	}
	tagIDs := v.TagIDs
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return map[string]any{
		"id":        v.ID,
		"youtubeId": v.YouTubeID,
		"title":     v.Title,
		"url":       v.URL,
		"thumbnail": v.Thumbnail,
		"createdAt": int(v.CreatedAt),
		"tagIds":    tagIDs,
		"tags":      tags,
		"notes":     noteCount,
	}
}

// NoteEnv exposes a note to expressions. video is the title of the note's video,
// empty when the video no longer exists.
func NoteEnv(n domain.Note, video string) map[string]any {
	return map[string]any{
		"id":        n.ID,
		"videoId":   n.VideoID,
		"content":   n.Content,
		"timestamp": n.Timestamp,
		"video":     video,
	}
}

// FilterVideos returns the videos of state matching f, in stored order.
func FilterVideos(f *Filter, state domain.AppState) ([]domain.Video, error) {
	labels := make(map[string]string, len(state.Tags))
	for _, t := range state.Tags {
		labels[t.ID] = t.Label
	}

	out := make([]domain.Video, 0, len(state.Videos))
	for _, v := range state.Videos {
		tags := make([]string, 0, len(v.TagIDs))
		for _, id := range v.TagIDs {
			if label, ok := labels[id]; ok {
				tags = append(tags, label)
			}
		}
		ok, err := f.Match(VideoEnv(v, tags, len(state.NotesForVideo(v.ID))))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// FilterNotes returns the notes of state matching f, in stored order.
func FilterNotes(f *Filter, state domain.AppState) ([]domain.Note, error) {
	titles := make(map[string]string, len(state.Videos))
	for _, v := range state.Videos {
		titles[v.ID] = v.Title
	}

	out := make([]domain.Note, 0, len(state.Notes))
	for _, n := range state.Notes {
		ok, err := f.Match(NoteEnv(n, titles[n.VideoID]))
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, n)
		}
	}
	return out, nil
}
