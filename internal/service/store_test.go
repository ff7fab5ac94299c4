package service_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabnotes/internal/service"
	"tabnotes/internal/testutil"
)

func newStore(t *testing.T, storage *testutil.MemStorage, opts ...service.StoreOption) *service.Store {
	t.Helper()
	opts = append([]service.StoreOption{service.WithClock(testutil.FixedClock)}, opts...)
	s := service.NewStore(storage, opts...)
	s.Load(context.Background())
	return s
}

func storedNotes(t *testing.T, storage *testutil.MemStorage) []service.Note {
	t.Helper()
	var notes []service.Note
	require.NoError(t, json.Unmarshal([]byte(storage.Value(service.NotesKey)), &notes))
	return notes
}

func storedTabs(t *testing.T, storage *testutil.MemStorage) []service.Tab {
	t.Helper()
	var tabs []service.Tab
	require.NoError(t, json.Unmarshal([]byte(storage.Value(service.TabsKey)), &tabs))
	return tabs
}

type recordingRenderer struct {
	kinds []service.Kind
}

func (r *recordingRenderer) Render(kind service.Kind, items any) {
	r.kinds = append(r.kinds, kind)
}

func TestStore_LoadEmpty(t *testing.T) {
	s := newStore(t, testutil.NewMemStorage())

	assert.Empty(t, s.Notes())
	assert.NotNil(t, s.Notes())
	assert.Empty(t, s.Tabs())
}

func TestStore_LoadExisting(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, `[{"text":"b","date":"02/01/2024"},{"text":"a"}]`)
	storage.Set(service.TabsKey, `[{"url":"http://x","title":"X"}]`)

	s := newStore(t, storage)

	assert.Equal(t, []service.Note{{Text: "b", Date: "02/01/2024"}, {Text: "a"}}, s.Notes())
	assert.Equal(t, []service.Tab{{URL: "http://x", Title: "X"}}, s.Tabs())
}

func TestStore_LoadRecoversFromBadValues(t *testing.T) {
	tests := []struct {
		name  string
		notes string
		tabs  string
		want  int // tabs expected after load
	}{
		{name: "notes not json", notes: "not json", tabs: `[{"url":"u","title":"t"}]`, want: 1},
		{name: "tabs not json", notes: `[]`, tabs: "{", want: 0},
		{name: "wrong shape", notes: `{"text":"x"}`, tabs: `[1,2]`, want: 0},
		{name: "null values", notes: `null`, tabs: `null`, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := testutil.NewMemStorage()
			storage.Set(service.NotesKey, tt.notes)
			storage.Set(service.TabsKey, tt.tabs)

			s := newStore(t, storage)

			assert.NotNil(t, s.Notes())
			assert.NotNil(t, s.Tabs())
			assert.Len(t, s.Tabs(), tt.want)
		})
	}
}

func TestStore_LoadKeepsReadableElements(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, `["a", null, {"text":"b"}, 42]`)
	storage.Set(service.TabsKey, `[{"url":"http://x","title":"X"}, "http://y", null]`)
	s := newStore(t, storage)

	assert.Equal(t, []service.Note{{Text: "a"}, {Text: "b"}}, s.Notes())
	assert.Equal(t, []service.Tab{{URL: "http://x", Title: "X"}}, s.Tabs())

	_, err := s.AddNote(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, []service.Note{
		{Text: "c", Date: "05/03/2024"},
		{Text: "a"},
		{Text: "b"},
	}, storedNotes(t, storage), "surviving notes are written back")
}

func TestStore_LoadRecoversFromReadError(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.GetErr = errors.New("disk on fire")

	s := newStore(t, storage)

	assert.Empty(t, s.Notes())
	assert.Empty(t, s.Tabs())
}

func TestStore_LoadNormalizesLegacyStringNotes(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, `["old style", {"text":"new style","date":"01/01/2024"}]`)

	s := newStore(t, storage)

	assert.Equal(t, []service.Note{
		{Text: "old style"},
		{Text: "new style", Date: "01/01/2024"},
	}, s.Notes())
}

func TestStore_AddNote(t *testing.T) {
	storage := testutil.NewMemStorage()
	r := &recordingRenderer{}
	s := newStore(t, storage, service.WithRenderer(r))
	ctx := context.Background()

	added, err := s.AddNote(ctx, "  first  ")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = s.AddNote(ctx, "second")
	require.NoError(t, err)
	assert.True(t, added)

	want := []service.Note{
		{Text: "second", Date: "05/03/2024"},
		{Text: "first", Date: "05/03/2024"},
	}
	assert.Equal(t, want, s.Notes())
	assert.Equal(t, want, storedNotes(t, storage))
	assert.Equal(t, []service.Kind{service.KindNote, service.KindNote}, r.kinds)
}

func TestStore_AddNoteBlankIsNoop(t *testing.T) {
	for _, text := range []string{"", "   ", "\n\t"} {
		storage := testutil.NewMemStorage()
		s := newStore(t, storage)

		added, err := s.AddNote(context.Background(), text)
		require.NoError(t, err)
		assert.False(t, added)
		assert.Empty(t, s.Notes())
		assert.Zero(t, storage.Puts())
	}
}

func TestStore_AddNotePersistFailureRollsBack(t *testing.T) {
	storage := testutil.NewMemStorage()
	s := newStore(t, storage)
	ctx := context.Background()

	_, err := s.AddNote(ctx, "kept")
	require.NoError(t, err)

	storage.PutErr = errors.New("read-only")
	added, err := s.AddNote(ctx, "lost")
	require.Error(t, err)
	assert.False(t, added)
	assert.Equal(t, []service.Note{{Text: "kept", Date: "05/03/2024"}}, s.Notes())
}

func TestStore_AddTab(t *testing.T) {
	tests := []struct {
		name     string
		info     service.TabInfo
		override string
		want     service.Tab
	}{
		{
			name: "descriptor title",
			info: service.TabInfo{URL: "https://go.dev", Title: "The Go Programming Language"},
			want: service.Tab{URL: "https://go.dev", Title: "The Go Programming Language", Date: "05/03/2024"},
		},
		{
			name:     "override title",
			info:     service.TabInfo{URL: "https://go.dev", Title: "The Go Programming Language"},
			override: "  Go  ",
			want:     service.Tab{URL: "https://go.dev", Title: "Go", Date: "05/03/2024"},
		},
		{
			name:     "blank override ignored",
			info:     service.TabInfo{URL: "https://go.dev", Title: "Go"},
			override: "   ",
			want:     service.Tab{URL: "https://go.dev", Title: "Go", Date: "05/03/2024"},
		},
		{
			name: "no title falls back to url",
			info: service.TabInfo{URL: "https://go.dev"},
			want: service.Tab{URL: "https://go.dev", Title: "https://go.dev", Date: "05/03/2024"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := testutil.NewMemStorage()
			s := newStore(t, storage)

			require.NoError(t, s.AddTab(context.Background(), tt.info, tt.override))
			assert.Equal(t, []service.Tab{tt.want}, s.Tabs())
			assert.Equal(t, []service.Tab{tt.want}, storedTabs(t, storage))
		})
	}
}

func TestStore_AddTabNewestFirst(t *testing.T) {
	s := newStore(t, testutil.NewMemStorage())
	ctx := context.Background()

	require.NoError(t, s.AddTab(ctx, service.TabInfo{URL: "http://a", Title: "A"}, ""))
	require.NoError(t, s.AddTab(ctx, service.TabInfo{URL: "http://b", Title: "B"}, ""))

	tabs := s.Tabs()
	require.Len(t, tabs, 2)
	assert.Equal(t, "B", tabs[0].Title)
	assert.Equal(t, "A", tabs[1].Title)
}

func TestStore_AddTabWithoutURL(t *testing.T) {
	storage := testutil.NewMemStorage()
	s := newStore(t, storage)

	err := s.AddTab(context.Background(), service.TabInfo{Title: "x"}, "")
	assert.ErrorIs(t, err, service.ErrInvalidTab)
	assert.Empty(t, s.Tabs())
	assert.Zero(t, storage.Puts())
}

func TestStore_RemoveAt(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, `[{"text":"c"},{"text":"b"},{"text":"a"}]`)
	storage.Set(service.TabsKey, `[{"url":"http://y","title":"Y"},{"url":"http://x","title":"X"}]`)
	s := newStore(t, storage)
	ctx := context.Background()

	removed, err := s.RemoveAt(ctx, service.KindNote, 1)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []service.Note{{Text: "c"}, {Text: "a"}}, s.Notes())
	assert.Equal(t, s.Notes(), storedNotes(t, storage))

	removed, err = s.RemoveAt(ctx, service.KindTab, 0)
	require.NoError(t, err)
	assert.True(t, removed)
	assert.Equal(t, []service.Tab{{URL: "http://x", Title: "X"}}, s.Tabs())
	assert.Equal(t, s.Tabs(), storedTabs(t, storage))
}

func TestStore_RemoveAtOutOfRange(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, `[{"text":"b"},{"text":"a"}]`)
	s := newStore(t, storage)
	before := s.Notes()

	for _, idx := range []int{-1, 2, 100} {
		removed, err := s.RemoveAt(context.Background(), service.KindNote, idx)
		require.NoError(t, err)
		assert.False(t, removed, "index %d", idx)
	}

	assert.Equal(t, before, s.Notes())
	assert.Zero(t, storage.Puts())
}

func TestStore_RemoveAtUnknownKind(t *testing.T) {
	s := newStore(t, testutil.NewMemStorage())

	_, err := s.RemoveAt(context.Background(), service.Kind("folder"), 0)
	assert.ErrorIs(t, err, service.ErrUnknownKind)
}

func TestStore_RemoveAtPersistFailureRollsBack(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.TabsKey, `[{"url":"http://x","title":"X"}]`)
	s := newStore(t, storage)
	storage.PutErr = errors.New("read-only")

	removed, err := s.RemoveAt(context.Background(), service.KindTab, 0)
	require.Error(t, err)
	assert.False(t, removed)
	assert.Len(t, s.Tabs(), 1)
}

func TestStore_ReplaceAll(t *testing.T) {
	storage := testutil.NewMemStorage()
	storage.Set(service.NotesKey, `[{"text":"old"}]`)
	r := &recordingRenderer{}
	s := newStore(t, storage, service.WithRenderer(r))

	notes := []service.Note{{Text: "n1"}, {Text: "n2", Date: "01/02/2023"}}
	require.NoError(t, s.ReplaceAll(context.Background(), notes, nil))

	assert.Equal(t, notes, s.Notes())
	assert.Empty(t, s.Tabs())
	assert.Equal(t, notes, storedNotes(t, storage))
	assert.Equal(t, `[]`, storage.Value(service.TabsKey))
	assert.Equal(t, 1, storage.Puts(), "both keys are written in one batch")
	assert.Equal(t, []service.Kind{service.KindNote, service.KindTab}, r.kinds)
}

func TestStore_ReplaceAllCopiesInput(t *testing.T) {
	s := newStore(t, testutil.NewMemStorage())
	notes := []service.Note{{Text: "a"}}

	require.NoError(t, s.ReplaceAll(context.Background(), notes, nil))
	notes[0].Text = "mutated"

	assert.Equal(t, "a", s.Notes()[0].Text)
}

func TestStore_SurvivesReload(t *testing.T) {
	storage := testutil.NewMemStorage()
	ctx := context.Background()

	s := newStore(t, storage)
	_, err := s.AddNote(ctx, "persisted")
	require.NoError(t, err)
	require.NoError(t, s.AddTab(ctx, service.TabInfo{URL: "http://x", Title: "X"}, ""))

	reloaded := newStore(t, storage)
	assert.Equal(t, s.Notes(), reloaded.Notes())
	assert.Equal(t, s.Tabs(), reloaded.Tabs())
}
