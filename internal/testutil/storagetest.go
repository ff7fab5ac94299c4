package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tabnotes/internal/service"
)

// OpenFunc opens a storage backend at path.
type OpenFunc func(path string) (service.Storage, error)

// RunStorageTests checks the behavior every service.Storage backend shares.
// Each subtest opens a fresh file named file inside t.TempDir().
func RunStorageTests(t *testing.T, file string, open OpenFunc) {
	t.Helper()

	openAt := func(t *testing.T, path string) service.Storage {
		t.Helper()
		s, err := open(path)
		require.NoError(t, err)
		return s
	}

	t.Run("missing key", func(t *testing.T) {
		s := openAt(t, filepath.Join(t.TempDir(), file))
		defer s.Close()

		v, ok, err := s.Get(context.Background(), service.NotesKey)
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("put and get", func(t *testing.T) {
		s := openAt(t, filepath.Join(t.TempDir(), file))
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Put(ctx,
			service.Entry{Key: service.NotesKey, Value: `[{"text":"a"}]`},
			service.Entry{Key: service.TabsKey, Value: `[]`},
		))

		v, ok, err := s.Get(ctx, service.NotesKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"text":"a"}]`, v)

		v, ok, err = s.Get(ctx, service.TabsKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[]`, v)
	})

	t.Run("overwrite", func(t *testing.T) {
		s := openAt(t, filepath.Join(t.TempDir(), file))
		defer s.Close()
		ctx := context.Background()

		require.NoError(t, s.Put(ctx, service.Entry{Key: service.TabsKey, Value: "first"}))
		require.NoError(t, s.Put(ctx, service.Entry{Key: service.TabsKey, Value: "second"}))

		v, _, err := s.Get(ctx, service.TabsKey)
		require.NoError(t, err)
		assert.Equal(t, "second", v)
	})

	t.Run("survives reopen", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", file)

		s := openAt(t, path)
		require.NoError(t, s.Put(context.Background(), service.Entry{Key: service.NotesKey, Value: `["x"]`}))
		require.NoError(t, s.Close())

		s = openAt(t, path)
		defer s.Close()
		v, ok, err := s.Get(context.Background(), service.NotesKey)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `["x"]`, v)
	})

	t.Run("cancelled context", func(t *testing.T) {
		s := openAt(t, filepath.Join(t.TempDir(), file))
		defer s.Close()
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		err := s.Put(ctx, service.Entry{Key: service.NotesKey, Value: "x"})
		assert.Error(t, err)

		_, ok, _ := s.Get(context.Background(), service.NotesKey)
		assert.False(t, ok, "nothing is written after cancellation")
	})

	t.Run("store round trip", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), file)
		ctx := context.Background()

		s := openAt(t, path)
		store := service.NewStore(s, service.WithClock(FixedClock))
		store.Load(ctx)
		_, err := store.AddNote(ctx, "persisted note")
		require.NoError(t, err)
		require.NoError(t, store.AddTab(ctx, service.TabInfo{URL: "https://go.dev", Title: "Go"}, ""))
		require.NoError(t, s.Close())

		s = openAt(t, path)
		defer s.Close()
		reloaded := service.NewStore(s)
		reloaded.Load(ctx)
		assert.Equal(t, []service.Note{{Text: "persisted note", Date: "05/03/2024"}}, reloaded.Notes())
		assert.Equal(t, []service.Tab{{URL: "https://go.dev", Title: "Go", Date: "05/03/2024"}}, reloaded.Tabs())
	})
}
