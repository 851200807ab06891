package main

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/errors"
	"github.com/tubevault/tubevault/internal/query"
	"github.com/tubevault/tubevault/internal/store"
	"github.com/tubevault/tubevault/internal/validation"
)

var errUsage = stderrors.New("invalid usage")

// Output formats accepted by dump.
const (
	formatJSON = "json"
	formatYAML = "yaml"
)

// app carries what every command needs.
type app struct {
	store     *store.Store
	validator *validation.Validator
	out       io.Writer
	now       func() time.Time
}

type command struct {
	name    string
	args    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands = []command{
	{"seed", "", "Replace stored data with the sample video, tag and note", runSeed},
	{"clear", "", "Remove all stored data", runClear},
	{"dump", "[-format json|yaml]", "Print the stored document", runDump},
	{"import", "file", "Replace stored data with a JSON or YAML document", runImport},
	{"videos", "[-where expr]", "List videos", runVideos},
	{"tags", "", "List tags", runTags},
	{"notes", "[-video id] [-where expr]", "List notes", runNotes},
	{"add-video", "-url url|-youtube-id id -title title [-tag id]...", "Bookmark a YouTube video", runAddVideo},
	{"add-tag", "-label label [-color #rrggbb]", "Create a tag", runAddTag},
	{"add-note", "-video id -content text [-at seconds]", "Attach a note to a video", runAddNote},
	{"tag-video", "-video id -tag id", "Apply a tag to a video", runTagVideo},
	{"delete-video", "id", "Delete a video and its notes", runDeleteVideo},
	{"delete-tag", "id", "Delete a tag and remove it from videos", runDeleteTag},
	{"delete-note", "id", "Delete a note", runDeleteNote},
}

func usage() string {
	var b strings.Builder
	b.WriteString("Usage: tubevault [global flags] <command> [args]\n\nCommands:\n")
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	for _, c := range commands {
		fmt.Fprintf(w, "  %s %s\t%s\n", c.name, c.args, c.summary)
	}
	_ = w.Flush()
	return b.String()
}

// run dispatches args to the named command.
func run(ctx context.Context, a *app, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: missing command", errUsage)
	}
	for _, c := range commands {
		if c.name == args[0] {
			return c.run(ctx, a, args[1:])
		}
	}
	return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
}

// stringList collects a repeatable string flag.
type stringList []string

func (l *stringList) String() string { return strings.Join(*l, ",") }

func (l *stringList) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %s: %v", errUsage, fs.Name(), err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: %s: unexpected argument %q", errUsage, fs.Name(), fs.Arg(0))
	}
	return nil
}

// singleArg returns the lone positional argument of a command.
func singleArg(name, what string, args []string) (string, error) {
	if len(args) != 1 || args[0] == "" {
		return "", fmt.Errorf("%w: %s takes exactly one %s", errUsage, name, what)
	}
	return args[0], nil
}

func saveFailed(what string) error {
	return errors.Storage(nil, "failed to save "+what)
}

func runSeed(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(newFlagSet("seed"), args); err != nil {
		return err
	}
	if !a.store.Seed(ctx) {
		return saveFailed("sample data")
	}
	fmt.Fprintln(a.out, "Seeded sample video, tag and note")
	return nil
}

func runClear(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(newFlagSet("clear"), args); err != nil {
		return err
	}
	a.store.Clear(ctx)
	fmt.Fprintln(a.out, "Storage cleared")
	return nil
}

func runDump(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("dump")
	format := fs.String("format", formatJSON, "Output format (json, yaml)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	state := a.store.GetState(ctx)

	var (
		data []byte
		err  error
	)
	switch *format {
	case formatJSON:
		data, err = json.MarshalIndent(state, "", "  ")
	case formatYAML:
		data, err = yaml.Marshal(state)
	default:
		return fmt.Errorf("%w: dump: unknown format %q", errUsage, *format)
	}
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "encode state")
	}

	_, err = fmt.Fprintln(a.out, strings.TrimRight(string(data), "\n"))
	return err
}

// runImport replaces the stored document with a JSON or YAML file.
// The file must pass the same rules applied when the store reads the slot.
func runImport(ctx context.Context, a *app, args []string) error {
	path, err := singleArg("import", "file", args)
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path) //#nosec G304 -- import path is supplied by the user
	if err != nil {
		return errors.Wrapf(err, errors.CodeNotFound, "read %s", path)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return errors.Malformed(err, "decode yaml")
		}
		if data, err = json.Marshal(doc); err != nil {
			return errors.Malformed(err, "convert yaml")
		}
	}

	state, err := a.validator.ParseAppState(data)
	if err != nil {
		return err
	}

	if !a.store.SaveState(ctx, state) {
		return saveFailed("imported state")
	}
	fmt.Fprintf(a.out, "Imported %d videos, %d tags, %d notes\n", len(state.Videos), len(state.Tags), len(state.Notes))
	return nil
}

func runVideos(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("videos")
	where := fs.String("where", "", "Only list videos matching this expression")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	filter, err := query.CompileVideoFilter(*where)
	if err != nil {
		return err
	}

	state := a.store.GetState(ctx)
	videos, err := query.FilterVideos(filter, state)
	if err != nil {
		return err
	}

	labels := make(map[string]string, len(state.Tags))
	for _, t := range state.Tags {
		labels[t.ID] = t.Label
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tYOUTUBE ID\tTITLE\tTAGS\tNOTES\tADDED")
	for _, v := range videos {
		tags := make([]string, 0, len(v.TagIDs))
		for _, id := range v.TagIDs {
			// Dangling tag ids are kept on the video; show the raw id.
			if label, ok := labels[id]; ok {
				tags = append(tags, label)
			} else {
				tags = append(tags, id)
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
			v.ID, v.YouTubeID, v.Title, strings.Join(tags, ","),
			len(state.NotesForVideo(v.ID)), v.CreatedTime().Format(time.DateOnly))
	}
	return w.Flush()
}

func runTags(ctx context.Context, a *app, args []string) error {
	if err := parseFlags(newFlagSet("tags"), args); err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tCOLOR")
	for _, t := range a.store.GetTags(ctx) {
		fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Label, t.Color)
	}
	return w.Flush()
}

func runNotes(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("notes")
	videoID := fs.String("video", "", "Only list notes for this video id")
	where := fs.String("where", "", "Only list notes matching this expression")
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	filter, err := query.CompileNoteFilter(*where)
	if err != nil {
		return err
	}

	notes, err := query.FilterNotes(filter, a.store.GetState(ctx))
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tVIDEO\tAT\tCONTENT")
	for _, n := range notes {
		if *videoID != "" && n.VideoID != *videoID {
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.VideoID, formatTimestamp(n.Timestamp), n.Content)
	}
	return w.Flush()
}

func runAddVideo(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add-video")
	rawURL := fs.String("url", "", "YouTube watch, share or embed URL")
	youtubeID := fs.String("youtube-id", "", "Bare 11-character YouTube id")
	title := fs.String("title", "", "Video title")
	var tagIDs stringList
	fs.Var(&tagIDs, "tag", "Tag id to apply (repeatable)")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	source := *youtubeID
	if source == "" {
		source = *rawURL
	}
	if source == "" {
		return fmt.Errorf("%w: add-video needs -url or -youtube-id", errUsage)
	}
	id, ok := domain.ParseYouTubeID(source)
	if !ok {
		return errors.Validationf("not a YouTube video: %s", source)
	}

	video := domain.NewVideo(id, strings.TrimSpace(*title), a.now())
	if len(tagIDs) > 0 {
		video.TagIDs = []string(tagIDs)
	}
	if err := a.validator.ValidateVideo(video); err != nil {
		return err
	}

	if !a.store.SaveVideo(ctx, video) {
		return saveFailed("video")
	}
	fmt.Fprintln(a.out, video.ID)
	return nil
}

func runAddTag(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add-tag")
	label := fs.String("label", "", "Tag label")
	color := fs.String("color", domain.DefaultTagColor, "Tag color as #rrggbb")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	tag := domain.NewTag(strings.TrimSpace(*label), *color)
	if err := a.validator.ValidateTag(tag); err != nil {
		return err
	}

	if !a.store.SaveTag(ctx, tag) {
		return saveFailed("tag")
	}
	fmt.Fprintln(a.out, tag.ID)
	return nil
}

func runAddNote(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("add-note")
	videoID := fs.String("video", "", "Video id")
	content := fs.String("content", "", "Note text")
	at := fs.Float64("at", 0, "Position in the video, in seconds")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	// The schema only checks that videoId is a UUID; the reference is checked here.
	state := a.store.GetState(ctx)
	if state.FindVideo(*videoID) < 0 {
		return errors.NotFoundf("video %q not found", *videoID)
	}

	note := domain.NewNote(*videoID, *content, *at)
	if err := a.validator.ValidateNote(note); err != nil {
		return err
	}

	if !a.store.SaveNote(ctx, note) {
		return saveFailed("note")
	}
	fmt.Fprintln(a.out, note.ID)
	return nil
}

func runTagVideo(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("tag-video")
	videoID := fs.String("video", "", "Video id")
	tagID := fs.String("tag", "", "Tag id")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	state := a.store.GetState(ctx)
	idx := state.FindVideo(*videoID)
	if idx < 0 {
		return errors.NotFoundf("video %q not found", *videoID)
	}
	if state.FindTag(*tagID) < 0 {
		return errors.NotFoundf("tag %q not found", *tagID)
	}

	video := state.Videos[idx]
	if video.HasTag(*tagID) {
		fmt.Fprintln(a.out, "Video already tagged")
		return nil
	}
	video.TagIDs = append(video.TagIDs, *tagID)

	if !a.store.SaveVideo(ctx, video) {
		return saveFailed("video")
	}
	fmt.Fprintln(a.out, "Video tagged")
	return nil
}

func runDeleteVideo(ctx context.Context, a *app, args []string) error {
	id, err := singleArg("delete-video", "id", args)
	if err != nil {
		return err
	}
	state := a.store.GetState(ctx)
	if state.FindVideo(id) < 0 {
		return errors.NotFoundf("video %q not found", id)
	}
	if !a.store.DeleteVideo(ctx, id) {
		return saveFailed("deletion")
	}
	fmt.Fprintln(a.out, "Video deleted")
	return nil
}

func runDeleteTag(ctx context.Context, a *app, args []string) error {
	id, err := singleArg("delete-tag", "id", args)
	if err != nil {
		return err
	}
	state := a.store.GetState(ctx)
	if state.FindTag(id) < 0 {
		return errors.NotFoundf("tag %q not found", id)
	}
	if !a.store.DeleteTag(ctx, id) {
		return saveFailed("deletion")
	}
	fmt.Fprintln(a.out, "Tag deleted")
	return nil
}

func runDeleteNote(ctx context.Context, a *app, args []string) error {
	id, err := singleArg("delete-note", "id", args)
	if err != nil {
		return err
	}
	state := a.store.GetState(ctx)
	if state.FindNote(id) < 0 {
		return errors.NotFoundf("note %q not found", id)
	}
	if !a.store.DeleteNote(ctx, id) {
		return saveFailed("deletion")
	}
	fmt.Fprintln(a.out, "Note deleted")
	return nil
}

// formatTimestamp renders seconds as m:ss or h:mm:ss.
func formatTimestamp(seconds float64) string {
	total := int(seconds)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}
