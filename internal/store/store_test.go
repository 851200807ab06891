package store_test

import (
	"bytes"
	"context"
	stderrors "errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubevault/tubevault/internal/domain"
	"github.com/tubevault/tubevault/internal/errors"
	"github.com/tubevault/tubevault/internal/kv"
	"github.com/tubevault/tubevault/internal/store"
)

const (
	videoID1 = "11111111-1111-4111-a111-111111111111"
	videoID2 = "22222222-2222-4222-a222-222222222222"
	tagID1   = "33333333-3333-4333-a333-333333333333"
	tagID2   = "44444444-4444-4444-a444-444444444444"
	noteID1  = "55555555-5555-4555-a555-555555555555"
	noteID2  = "66666666-6666-4666-a666-666666666666"
)

// setupTestStore creates a store on an in-memory medium and captures its logs.
func setupTestStore(t *testing.T, opts ...kv.Option) (*store.Store, *kv.Memory, *bytes.Buffer) {
	t.Helper()

	medium := kv.NewMemory(opts...)
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	return store.New(medium, logger), medium, &logs
}

func createTestVideo(id string, tagIDs ...string) domain.Video {
	if tagIDs == nil {
		tagIDs = []string{}
	}
	return domain.Video{
		ID:        id,
		YouTubeID: "dQw4w9WgXcQ",
		Title:     "Video " + id[:4],
		URL:       domain.WatchURL("dQw4w9WgXcQ"),
		Thumbnail: domain.ThumbnailURL("dQw4w9WgXcQ"),
		CreatedAt: 1700000000000,
		TagIDs:    tagIDs,
	}
}

func rawSlot(t *testing.T, m kv.Medium) (string, bool) {
	t.Helper()
	value, ok, err := m.GetItem(context.Background(), store.StorageKey)
	require.NoError(t, err)
	return value, ok
}

// failingMedium returns the configured errors from every call.
type failingMedium struct {
	getErr    error
	setErr    error
	removeErr error
}

func (f failingMedium) GetItem(context.Context, string) (string, bool, error) {
	return "", false, f.getErr
}

func (f failingMedium) SetItem(context.Context, string, string) error { return f.setErr }

func (f failingMedium) RemoveItem(context.Context, string) error { return f.removeErr }

func TestGetState_NoContentReturnsDefault(t *testing.T) {
	s, medium, _ := setupTestStore(t)

	state := s.GetState(context.Background())

	assert.Equal(t, domain.NewAppState(), state)
	assert.Zero(t, medium.Len(), "reading must not persist the default")
}

func TestSaveState_RoundTrip(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	want := domain.AppState{
		Videos: []domain.Video{createTestVideo(videoID1, tagID1), createTestVideo(videoID2)},
		Tags: []domain.Tag{
			{ID: tagID1, Label: "Music", Color: "#3b82f6"},
			{ID: tagID2, Label: "Talks", Color: "#ABCDEF"},
		},
		Notes: []domain.Note{
			{ID: noteID1, VideoID: videoID1, Content: "chorus", Timestamp: 43.5},
			{ID: noteID2, VideoID: videoID2, Content: "", Timestamp: 0},
		},
	}

	require.True(t, s.SaveState(ctx, want))
	assert.Equal(t, want, s.GetState(ctx))
}

func TestSaveState_NormalizesNilCollections(t *testing.T) {
	s, medium, _ := setupTestStore(t)
	ctx := context.Background()

	video := createTestVideo(videoID1)
	video.TagIDs = nil
	require.True(t, s.SaveState(ctx, domain.AppState{Videos: []domain.Video{video}}))

	raw, ok := rawSlot(t, medium)
	require.True(t, ok)
	assert.NotContains(t, raw, "null")

	state := s.GetState(ctx)
	require.Len(t, state.Videos, 1)
	assert.Equal(t, []string{}, state.Videos[0].TagIDs)
}

func TestSaveState_DoesNotAliasCaller(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	state := domain.AppState{Videos: []domain.Video{createTestVideo(videoID1, tagID1)}}
	require.True(t, s.SaveState(ctx, state))

	state.Videos[0].TagIDs[0] = tagID2
	assert.Equal(t, []string{tagID1}, s.GetVideos(ctx)[0].TagIDs)
}

func TestSaveState_QuotaExceeded(t *testing.T) {
	s, medium, logs := setupTestStore(t, kv.WithQuota(512))
	ctx := context.Background()

	require.True(t, s.SaveState(ctx, domain.AppState{Tags: []domain.Tag{{ID: tagID1, Label: "Music", Color: "#3b82f6"}}}))
	before, _ := rawSlot(t, medium)

	big := domain.NewAppState()
	for range 20 {
		big.Videos = append(big.Videos, createTestVideo(videoID1))
	}

	assert.False(t, s.SaveState(ctx, big))

	after, _ := rawSlot(t, medium)
	assert.Equal(t, before, after, "prior content must be unchanged")
	assert.Contains(t, logs.String(), "storage quota exceeded")
	assert.Len(t, s.GetTags(ctx), 1)
}

func TestSaveState_OtherWriteFailure(t *testing.T) {
	var logs bytes.Buffer
	s := store.New(failingMedium{setErr: stderrors.New("disk unplugged")},
		slog.New(slog.NewJSONHandler(&logs, nil)))

	assert.False(t, s.SaveState(context.Background(), domain.NewAppState()))
	assert.Contains(t, logs.String(), "failed to save state to storage")
	assert.NotContains(t, logs.String(), "quota")
}

func TestGetState_ReadFailureReturnsDefault(t *testing.T) {
	var logs bytes.Buffer
	s := store.New(failingMedium{getErr: errors.Storage(stderrors.New("io error"), "get")},
		slog.New(slog.NewJSONHandler(&logs, nil)))

	assert.Equal(t, domain.NewAppState(), s.GetState(context.Background()))
	assert.Contains(t, logs.String(), "failed to load state from storage")
}

func TestGetState_MalformedReturnsDefault(t *testing.T) {
	s, medium, logs := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, medium.SetItem(ctx, store.StorageKey, `{"videos": [`))

	assert.Equal(t, domain.NewAppState(), s.GetState(ctx))
	assert.Contains(t, logs.String(), "malformed state document")
}

func TestGetState_InvalidSchemaReturnsDefault(t *testing.T) {
	s, medium, logs := setupTestStore(t)
	ctx := context.Background()

	// One valid tag alongside a video missing its title: nothing is salvaged.
	doc := `{
		"videos": [{"id": "` + videoID1 + `", "youtubeId": "x", "url": "https://e.com", "thumbnail": "https://e.com/t", "createdAt": 1}],
		"tags": [{"id": "` + tagID1 + `", "label": "Music"}],
		"notes": []
	}`
	require.NoError(t, medium.SetItem(ctx, store.StorageKey, doc))

	state := s.GetState(ctx)

	assert.Equal(t, domain.NewAppState(), state)
	assert.Contains(t, logs.String(), "invalid storage schema detected")
	assert.Contains(t, logs.String(), "videos[0].title")

	// The corrupted document is left in place until the next write.
	raw, _ := rawSlot(t, medium)
	assert.Equal(t, doc, raw)
}

func TestGetState_EmptyStringReturnsDefault(t *testing.T) {
	s, medium, logs := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, medium.SetItem(ctx, store.StorageKey, ""))

	assert.Equal(t, domain.NewAppState(), s.GetState(ctx))
	assert.Empty(t, logs.String())
}

func TestGetState_AppliesDefaults(t *testing.T) {
	s, medium, _ := setupTestStore(t)
	ctx := context.Background()

	doc := `{"videos":[{"id":"` + videoID1 + `","youtubeId":"x","title":"t","url":"https://e.com","thumbnail":"https://e.com/t","createdAt":5}],
		"tags":[{"id":"` + tagID1 + `","label":"Music"}],"notes":[]}`
	require.NoError(t, medium.SetItem(ctx, store.StorageKey, doc))

	state := s.GetState(ctx)
	require.Len(t, state.Videos, 1)
	assert.Equal(t, []string{}, state.Videos[0].TagIDs)
	assert.Equal(t, domain.DefaultTagColor, state.Tags[0].Color)
}

func TestSaveVideo_Upsert(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	v := createTestVideo(videoID1)
	require.True(t, s.SaveVideo(ctx, v))
	require.True(t, s.SaveVideo(ctx, v))

	videos := s.GetVideos(ctx)
	require.Len(t, videos, 1)
	assert.Equal(t, videoID1, videos[0].ID)

	v.Title = "Renamed"
	require.True(t, s.SaveVideo(ctx, v))
	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID2)))

	videos = s.GetVideos(ctx)
	require.Len(t, videos, 2)
	assert.Equal(t, "Renamed", videos[0].Title, "update keeps position")
	assert.Equal(t, videoID2, videos[1].ID, "new entries are appended")
}

func TestSaveTag_Upsert(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	tag := domain.Tag{ID: tagID1, Label: "Music", Color: "#3b82f6"}
	require.True(t, s.SaveTag(ctx, tag))
	tag.Color = "#FF0000"
	require.True(t, s.SaveTag(ctx, tag))

	tags := s.GetTags(ctx)
	require.Len(t, tags, 1)
	assert.Equal(t, "#FF0000", tags[0].Color)
}

func TestSaveTag_WithoutColorKeepsDocument(t *testing.T) {
	s, _, logs := setupTestStore(t)
	ctx := context.Background()

	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID1)))
	require.True(t, s.SaveTag(ctx, domain.Tag{ID: tagID1, Label: "Music"}))

	state := s.GetState(ctx)
	require.Len(t, state.Videos, 1)
	assert.Equal(t, videoID1, state.Videos[0].ID)
	require.Len(t, state.Tags, 1)
	assert.Equal(t, domain.DefaultTagColor, state.Tags[0].Color)
	assert.Empty(t, state.Notes)
	assert.NotContains(t, logs.String(), "invalid storage schema")
}

func TestSaveNote_Upsert(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	note := domain.Note{ID: noteID1, VideoID: videoID1, Content: "first", Timestamp: 1}
	require.True(t, s.SaveNote(ctx, note))
	note.Content = "edited"
	require.True(t, s.SaveNote(ctx, note))

	notes := s.GetNotes(ctx)
	require.Len(t, notes, 1)
	assert.Equal(t, "edited", notes[0].Content)
}

func TestDeleteVideo_CascadesToNotes(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID1)))
	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID2)))
	require.True(t, s.SaveNote(ctx, domain.Note{ID: noteID1, VideoID: videoID1, Content: "a"}))
	require.True(t, s.SaveNote(ctx, domain.Note{ID: noteID2, VideoID: videoID2, Content: "b"}))

	require.True(t, s.DeleteVideo(ctx, videoID1))

	videos := s.GetVideos(ctx)
	require.Len(t, videos, 1)
	assert.Equal(t, videoID2, videos[0].ID)

	notes := s.GetNotes(ctx)
	require.Len(t, notes, 1)
	assert.Equal(t, videoID2, notes[0].VideoID)
}

func TestDeleteVideo_Missing(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID1)))

	assert.True(t, s.DeleteVideo(ctx, videoID2))
	assert.Len(t, s.GetVideos(ctx), 1)
}

func TestDeleteTag_StripsReferences(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.True(t, s.SaveTag(ctx, domain.Tag{ID: tagID1, Label: "Music", Color: "#3b82f6"}))
	require.True(t, s.SaveTag(ctx, domain.Tag{ID: tagID2, Label: "Talks", Color: "#3b82f6"}))
	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID1, tagID1, tagID2)))
	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID2, tagID1)))

	require.True(t, s.DeleteTag(ctx, tagID1))

	tags := s.GetTags(ctx)
	require.Len(t, tags, 1)
	assert.Equal(t, tagID2, tags[0].ID)

	videos := s.GetVideos(ctx)
	require.Len(t, videos, 2, "videos are never deleted by a tag delete")
	assert.Equal(t, []string{tagID2}, videos[0].TagIDs)
	assert.Equal(t, []string{}, videos[1].TagIDs)
}

func TestDeleteNote(t *testing.T) {
	s, _, _ := setupTestStore(t)
	ctx := context.Background()

	require.True(t, s.SaveNote(ctx, domain.Note{ID: noteID1, VideoID: videoID1}))
	require.True(t, s.SaveNote(ctx, domain.Note{ID: noteID2, VideoID: videoID1}))

	require.True(t, s.DeleteNote(ctx, noteID1))

	notes := s.GetNotes(ctx)
	require.Len(t, notes, 1)
	assert.Equal(t, noteID2, notes[0].ID)
}

func TestCRUD_ReportsWriteFailure(t *testing.T) {
	s := store.New(failingMedium{setErr: errors.ErrQuotaExceeded}, nil)
	ctx := context.Background()

	assert.False(t, s.SaveVideo(ctx, createTestVideo(videoID1)))
	assert.False(t, s.SaveTag(ctx, domain.Tag{ID: tagID1, Label: "x"}))
	assert.False(t, s.SaveNote(ctx, domain.Note{ID: noteID1, VideoID: videoID1}))
	assert.False(t, s.DeleteVideo(ctx, videoID1))
	assert.False(t, s.DeleteTag(ctx, tagID1))
	assert.False(t, s.DeleteNote(ctx, noteID1))
	assert.False(t, s.Seed(ctx))
}

func TestCRUD_ResetsCorruptedDocumentOnWrite(t *testing.T) {
	s, medium, _ := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, medium.SetItem(ctx, store.StorageKey, `not json`))

	require.True(t, s.SaveTag(ctx, domain.Tag{ID: tagID1, Label: "Music", Color: "#3b82f6"}))

	state := s.GetState(ctx)
	assert.Empty(t, state.Videos)
	assert.Len(t, state.Tags, 1)
}

func TestSeed(t *testing.T) {
	createdAt := time.UnixMilli(1700000000000)
	medium := kv.NewMemory()
	s := store.New(medium, nil, store.WithClock(func() time.Time { return createdAt }))
	ctx := context.Background()

	require.True(t, s.SaveVideo(ctx, createTestVideo(videoID1)))
	require.True(t, s.Seed(ctx))

	videos := s.GetVideos(ctx)
	require.Len(t, videos, 1, "seed overwrites existing content")
	assert.Equal(t, "dQw4w9WgXcQ", videos[0].YouTubeID)
	assert.Equal(t, store.SeedVideoID, videos[0].ID)
	assert.Equal(t, int64(1700000000000), videos[0].CreatedAt)
	assert.Equal(t, []string{store.SeedTagID}, videos[0].TagIDs)

	notes := s.GetNotes(ctx)
	require.Len(t, notes, 1)
	assert.Equal(t, videos[0].ID, notes[0].VideoID)

	tags := s.GetTags(ctx)
	require.Len(t, tags, 1)
	assert.Equal(t, "Music", tags[0].Label)
}

func TestClear(t *testing.T) {
	s, medium, _ := setupTestStore(t)
	ctx := context.Background()

	require.True(t, s.Seed(ctx))
	s.Clear(ctx)

	assert.Equal(t, domain.NewAppState(), s.GetState(ctx))
	_, ok := rawSlot(t, medium)
	assert.False(t, ok)

	// Clearing an empty slot is harmless.
	s.Clear(ctx)
}

func TestClear_LogsFailure(t *testing.T) {
	var logs bytes.Buffer
	s := store.New(failingMedium{removeErr: stderrors.New("read-only")},
		slog.New(slog.NewJSONHandler(&logs, nil)))

	s.Clear(context.Background())
	assert.Contains(t, logs.String(), "failed to clear storage")
}

func TestLostUpdate_LastWriteWins(t *testing.T) {
	medium := kv.NewMemory()
	ctx := context.Background()
	first := store.New(medium, nil)
	second := store.New(medium, nil)

	// Simulate two writers that both read before either writes.
	stale := first.GetState(ctx)
	require.True(t, second.SaveTag(ctx, domain.Tag{ID: tagID1, Label: "from second", Color: "#3b82f6"}))

	stale.Tags = append(stale.Tags, domain.Tag{ID: tagID2, Label: "from first", Color: "#3b82f6"})
	require.True(t, first.SaveState(ctx, stale))

	tags := second.GetTags(ctx)
	require.Len(t, tags, 1)
	assert.Equal(t, tagID2, tags[0].ID)
}

func TestPersistentMedia(t *testing.T) {
	backends := []string{kv.BackendBadger, kv.BackendSQLite}

	for _, backend := range backends {
		t.Run(backend, func(t *testing.T) {
			ctx := context.Background()
			medium, err := kv.Open(kv.Config{
				Backend: backend,
				Path:    filepath.Join(t.TempDir(), "data"),
				Quota:   2048,
			})
			require.NoError(t, err)
			defer medium.Close()

			s := store.New(medium, nil)

			require.True(t, s.Seed(ctx))
			seeded := s.GetState(ctx)
			require.Len(t, seeded.Videos, 1)

			require.True(t, s.SaveState(ctx, seeded))
			assert.Equal(t, seeded, s.GetState(ctx))

			huge := domain.AppState{Notes: []domain.Note{{ID: noteID1, VideoID: videoID1, Content: strings.Repeat("x", 4096)}}}
			assert.False(t, s.SaveState(ctx, huge))
			assert.Equal(t, seeded, s.GetState(ctx))

			s.Clear(ctx)
			assert.Equal(t, domain.NewAppState(), s.GetState(ctx))
		})
	}
}
