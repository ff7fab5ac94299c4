package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DateLayout is the DD/MM/YYYY layout stamped on new items.
	DateLayout = "02/01/2006"

	// FileDateLayout is DateLayout with underscores, used in export file names.
	FileDateLayout = "02_01_2006"
)

// Store owns the notes and tabs sequences and mirrors every change into
// Storage before returning.
//
// Indices passed to RemoveAt refer to the order returned by the most recent
// Notes or Tabs call; any mutation invalidates them.
type Store struct {
	mu       sync.Mutex
	storage  Storage
	notes    []Note
	tabs     []Tab
	now      func() time.Time
	renderer Renderer
	log      zerolog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock sets the clock used to date new items.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// WithRenderer sets the renderer notified after each mutation.
func WithRenderer(r Renderer) StoreOption {
	return func(s *Store) { s.renderer = r }
}

// WithLogger sets the store logger.
func WithLogger(log zerolog.Logger) StoreOption {
	return func(s *Store) { s.log = log }
}

// NewStore creates an empty store backed by storage. Call Load to read the
// persisted sequences.
func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		notes:   []Note{},
		tabs:    []Tab{},
		now:     time.Now,
		log:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load reads both sequences from storage. A missing, unreadable or
// unparsable value leaves that sequence empty; elements that fail to decode
// are dropped one by one. Load never fails.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = loadList[Note](ctx, s.storage, NotesKey, s.log)
	s.tabs = loadList[Tab](ctx, s.storage, TabsKey, s.log)

	s.log.Debug().Int("notes", len(s.notes)).Int("tabs", len(s.tabs)).Msg("loaded")
}

// loadList decodes the JSON array stored under key. The result is never nil.
func loadList[T any](ctx context.Context, storage Storage, key string, log zerolog.Logger) []T {
	list := []T{}

	raw, ok, err := storage.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msgf("starting with empty %s", key)
		return list
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return list
	}

	var elems []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &elems); err != nil {
		log.Warn().Err(fmt.Errorf("%w: %v", ErrParse, err)).Str("key", key).Msgf("starting with empty %s", key)
		return list
	}

	for i, elem := range elems {
		var v T
		if err := json.Unmarshal(elem, &v); err != nil {
			log.Warn().Err(err).Str("key", key).Int("index", i).Msg("dropping unreadable element")
			continue
		}
		list = append(list, v)
	}
	return list
}

// Notes returns a copy of the notes, newest first.
func (s *Store) Notes() []Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Note{}, s.notes...)
}

// Tabs returns a copy of the tabs, newest first.
func (s *Store) Tabs() []Tab {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Tab{}, s.tabs...)
}

// AddNote inserts a note at the front. Blank text is ignored and reported
// as added == false.
func (s *Store) AddNote(ctx context.Context, text string) (added bool, err error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.notes
	s.notes = append([]Note{{Text: text, Date: s.today()}}, s.notes...)
	if err := s.persist(ctx, KindNote); err != nil {
		s.notes = prev
		return false, err
	}
	s.render(KindNote)
	return true, nil
}

// AddTab inserts a bookmark for info at the front. overrideTitle replaces
// the tab title when it is not blank; a tab without any title is named
// after its URL.
func (s *Store) AddTab(ctx context.Context, info TabInfo, overrideTitle string) error {
	url := strings.TrimSpace(info.URL)
	if url == "" {
		return ErrInvalidTab
	}

	title := strings.TrimSpace(overrideTitle)
	if title == "" {
		title = strings.TrimSpace(info.Title)
	}
	if title == "" {
		title = url
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.tabs
	s.tabs = append([]Tab{{URL: url, Title: title, Date: s.today()}}, s.tabs...)
	if err := s.persist(ctx, KindTab); err != nil {
		s.tabs = prev
		return err
	}
	s.render(KindTab)
	return nil
}

// RemoveAt deletes the element at index from the kind sequence.
// An out-of-range index changes nothing and reports removed == false.
func (s *Store) RemoveAt(ctx context.Context, kind Kind, index int) (removed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch kind {
	case KindNote:
		if index < 0 || index >= len(s.notes) {
			return false, nil
		}
		prev := s.notes
		s.notes = append(append([]Note{}, s.notes[:index]...), s.notes[index+1:]...)
		if err := s.persist(ctx, KindNote); err != nil {
			s.notes = prev
			return false, err
		}
	case KindTab:
		if index < 0 || index >= len(s.tabs) {
			return false, nil
		}
		prev := s.tabs
		s.tabs = append(append([]Tab{}, s.tabs[:index]...), s.tabs[index+1:]...)
		if err := s.persist(ctx, KindTab); err != nil {
			s.tabs = prev
			return false, err
		}
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}

	s.render(kind)
	return true, nil
}

// ReplaceAll overwrites both sequences and writes both keys in one batch.
func (s *Store) ReplaceAll(ctx context.Context, notes []Note, tabs []Tab) error {
	if notes == nil {
		notes = []Note{}
	}
	if tabs == nil {
		tabs = []Tab{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevNotes, prevTabs := s.notes, s.tabs
	s.notes = append([]Note{}, notes...)
	s.tabs = append([]Tab{}, tabs...)
	if err := s.persist(ctx, KindNote, KindTab); err != nil {
		s.notes, s.tabs = prevNotes, prevTabs
		return err
	}
	s.render(KindNote)
	s.render(KindTab)
	return nil
}

// persist writes the full sequences for kinds. Callers hold s.mu.
func (s *Store) persist(ctx context.Context, kinds ...Kind) error {
	entries := make([]Entry, 0, len(kinds))
	for _, kind := range kinds {
		var (
			key string
			val any
		)
		switch kind {
		case KindNote:
			key, val = NotesKey, s.notes
		case KindTab:
			key, val = TabsKey, s.tabs
		}
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		entries = append(entries, Entry{Key: key, Value: string(data)})
	}

	if err := s.storage.Put(ctx, entries...); err != nil {
		return fmt.Errorf("save %s: %w", joinKinds(kinds), err)
	}
	s.log.Debug().Str("kinds", joinKinds(kinds)).Msg("persisted")
	return nil
}

func (s *Store) render(kind Kind) {
	if s.renderer == nil {
		return
	}
	switch kind {
	case KindNote:
		s.renderer.Render(kind, append([]Note{}, s.notes...))
	case KindTab:
		s.renderer.Render(kind, append([]Tab{}, s.tabs...))
	}
}

func (s *Store) today() string {
	return s.now().Format(DateLayout)
}

func joinKinds(kinds []Kind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k) + "s"
	}
	return strings.Join(parts, ",")
}
