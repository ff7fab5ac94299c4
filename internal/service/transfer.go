package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// BackupContentType is the media type of exported backups.
	BackupContentType = "application/json"

	// BackupExt is the required suffix of import files.
	BackupExt = ".json"

	// DefaultBackupTag names the application in export file names.
	DefaultBackupTag = "tabnotes"
)

// ImportState is a step of the import flow.
type ImportState int

const (
	ImportIdle ImportState = iota
	ImportFileSelected
	ImportParsing
	ImportApplied
	ImportRejected
)

func (s ImportState) String() string {
	switch s {
	case ImportIdle:
		return "idle"
	case ImportFileSelected:
		return "file-selected"
	case ImportParsing:
		return "parsing"
	case ImportApplied:
		return "applied"
	case ImportRejected:
		return "rejected"
	default:
		return fmt.Sprintf("ImportState(%d)", int(s))
	}
}

// Transfer exports the store as a backup document and replaces it from one.
type Transfer struct {
	store *Store
	tag   string
	now   func() time.Time
	log   zerolog.Logger

	mu    sync.Mutex
	state ImportState
	last  ImportState
}

// TransferOption configures a Transfer.
type TransferOption func(*Transfer)

// WithBackupTag sets the application tag embedded in export file names.
func WithBackupTag(tag string) TransferOption {
	return func(t *Transfer) {
		if tag = strings.TrimSpace(tag); tag != "" {
			t.tag = tag
		}
	}
}

// WithTransferClock sets the clock used for export file names.
func WithTransferClock(now func() time.Time) TransferOption {
	return func(t *Transfer) { t.now = now }
}

// WithTransferLogger sets the transfer logger.
func WithTransferLogger(log zerolog.Logger) TransferOption {
	return func(t *Transfer) { t.log = log }
}

// NewTransfer creates a Transfer over store.
func NewTransfer(store *Store, opts ...TransferOption) *Transfer {
	t := &Transfer{
		store: store,
		tag:   DefaultBackupTag,
		now:   time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// State returns the current import state. Outcomes are transient: once an
// import ends State is back to ImportIdle, and LastOutcome reports the result.
func (t *Transfer) State() ImportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// LastOutcome returns ImportApplied or ImportRejected for the most recent
// finished import, or ImportIdle if none has finished yet.
func (t *Transfer) LastOutcome() ImportState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last
}

// FileName returns the export file name for today.
func (t *Transfer) FileName() string {
	return fmt.Sprintf("links_notes_%s_extension_backup_%s.json", t.tag, t.now().Format(FileDateLayout))
}

// Export serializes both sequences as an indented backup document.
func (t *Transfer) Export() (Blob, error) {
	doc := Backup{
		Notes: t.store.Notes(),
		Tabs:  t.store.Tabs(),
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return Blob{}, fmt.Errorf("encode backup: %w", err)
	}

	return Blob{
		Name:        t.FileName(),
		ContentType: BackupContentType,
		Data:        bytes.TrimSuffix(buf.Bytes(), []byte("\n")),
	}, nil
}

// ImportFile reads a backup from path and imports it. The path must end in
// .json; otherwise the file is never opened.
func (t *Transfer) ImportFile(ctx context.Context, path string) error {
	if !strings.HasSuffix(path, BackupExt) {
		return fmt.Errorf("%w: %s", ErrExtension, path)
	}
	if err := t.begin(ImportFileSelected); err != nil {
		return err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.finish(ImportRejected)
		return fmt.Errorf("%w: %v", ErrIO, err)
	}

	return t.apply(ctx, data)
}

// ImportBlob imports data that arrived under name, for example a file
// downloaded from a Remote. name must end in .json.
func (t *Transfer) ImportBlob(ctx context.Context, name string, data []byte) error {
	if !strings.HasSuffix(name, BackupExt) {
		return fmt.Errorf("%w: %s", ErrExtension, name)
	}
	return t.Import(ctx, data)
}

// Import validates raw as a backup document and replaces both sequences
// with its contents. Nothing changes when validation fails.
func (t *Transfer) Import(ctx context.Context, raw []byte) error {
	if err := t.begin(ImportFileSelected); err != nil {
		return err
	}
	return t.apply(ctx, raw)
}

func (t *Transfer) apply(ctx context.Context, raw []byte) error {
	t.set(ImportParsing)

	doc, err := DecodeBackup(raw)
	if err != nil {
		t.log.Debug().Err(err).Msg("import rejected")
		t.finish(ImportRejected)
		return err
	}

	if err := t.store.ReplaceAll(ctx, doc.Notes, doc.Tabs); err != nil {
		t.finish(ImportRejected)
		return err
	}

	t.log.Debug().Int("notes", len(doc.Notes)).Int("tabs", len(doc.Tabs)).Msg("import applied")
	t.finish(ImportApplied)
	return nil
}

func (t *Transfer) begin(next ImportState) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != ImportIdle {
		return ErrImportBusy
	}
	t.state = next
	return nil
}

func (t *Transfer) set(next ImportState) {
	t.mu.Lock()
	t.state = next
	t.mu.Unlock()
}

// finish records the outcome and returns to idle.
func (t *Transfer) finish(outcome ImportState) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log.Debug().Stringer("outcome", outcome).Msg("import finished")
	t.last = outcome
	t.state = ImportIdle
}

// DecodeBackup parses and validates a backup document. A document needs at
// least one of the notes and tabs keys; a missing or null key decodes as an
// empty sequence.
func DecodeBackup(raw []byte) (Backup, error) {
	var top any
	if err := json.Unmarshal(raw, &top); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}

	if _, ok := top.(map[string]any); !ok {
		return Backup{}, fmt.Errorf("%w: top level is not an object", ErrSchema)
	}

	// Keys are matched exactly, unlike struct field decoding.
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Backup{}, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	notesRaw, hasNotes := fields[NotesKey]
	tabsRaw, hasTabs := fields[TabsKey]
	if !hasNotes && !hasTabs {
		return Backup{}, fmt.Errorf("%w: missing %q and %q", ErrSchema, NotesKey, TabsKey)
	}

	doc := Backup{Notes: []Note{}, Tabs: []Tab{}}
	if err := decodeList(notesRaw, NotesKey, &doc.Notes); err != nil {
		return Backup{}, err
	}
	if err := decodeList(tabsRaw, TabsKey, &doc.Tabs); err != nil {
		return Backup{}, err
	}
	return doc, nil
}

func decodeList(raw json.RawMessage, key string, dst any) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '[' {
		return fmt.Errorf("%w: %q is not a list", ErrSchema, key)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrSchema, key, err)
	}
	return nil
}
