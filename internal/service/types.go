// Package service holds the notes and tab-bookmark lists, their durable
// storage contract and the backup export/import round-trip.
package service

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind selects one of the two sequences.
type Kind string

const (
	KindNote Kind = "note"
	KindTab  Kind = "tab"
)

// Storage keys. Each holds a JSON array.
const (
	NotesKey = "notes"
	TabsKey  = "tabs"
)

// Note is a free-text note. Date is DD/MM/YYYY and may be empty.
type Note struct {
	Text string `json:"text"`
	Date string `json:"date,omitempty"`
}

// UnmarshalJSON accepts both the object form and the legacy bare string form.
func (n *Note) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var text string
		if err := json.Unmarshal(data, &text); err != nil {
			return err
		}
		*n = Note{Text: text}
		return nil
	}
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("note must be an object or a string")
	}
	type plain Note
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Note(p)
	return nil
}

// Tab is a bookmarked browser tab.
type Tab struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Date  string `json:"date,omitempty"`
}

// UnmarshalJSON rejects non-object values so a malformed backup cannot
// silently turn into empty bookmarks.
func (t *Tab) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '{' {
		return fmt.Errorf("tab must be an object")
	}
	type plain Tab
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = Tab(p)
	return nil
}

// TabInfo describes the currently active tab as reported by a TabSource.
type TabInfo struct {
	URL   string
	Title string
}

// Backup is the export/import document.
type Backup struct {
	Notes []Note `json:"notes"`
	Tabs  []Tab  `json:"tabs"`
}

// Blob is an exported backup ready to be written somewhere.
type Blob struct {
	Name        string
	ContentType string
	Data        []byte
}

// RemoteFile is a backup stored on a Remote.
type RemoteFile struct {
	ID       string
	Name     string
	Size     int64
	Modified string
}
