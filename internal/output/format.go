// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"tabnotes/internal/service"
)

const (
	// ListSeparator is the separator line for list sections.
	ListSeparator = "------------"

	// NotesHeader and TabsHeader title the two sections.
	NotesHeader = "Notes"
	TabsHeader  = "Tabs"
)

// FormatNote formats a note line.
// Format: "{N:>4}  {TEXT}[  ({DATE})]\n"
func FormatNote(w io.Writer, num int, note service.Note) {
	fmt.Fprintf(w, "%4d  %s%s\n", num, normalizeText(note.Text), formatDate(note.Date))
}

// FormatTab formats a bookmark as a title line followed by an indented URL line.
func FormatTab(w io.Writer, num int, tab service.Tab) {
	fmt.Fprintf(w, "%4d  %s%s\n", num, normalizeText(tab.Title), formatDate(tab.Date))
	fmt.Fprintf(w, "      %s\n", tab.URL)
}

// FormatSectionHeader formats a list section header with its item count.
func FormatSectionHeader(w io.Writer, title string, count int) {
	fmt.Fprintln(w, ListSeparator)
	fmt.Fprintf(w, "%s (%d)\n", title, count)
	fmt.Fprintln(w, ListSeparator)
}

// FormatNotes writes the notes section. Numbers are 1-based positions.
func FormatNotes(w io.Writer, notes []service.Note) {
	FormatSectionHeader(w, NotesHeader, len(notes))
	for i, n := range notes {
		FormatNote(w, i+1, n)
	}
}

// FormatTabs writes the tabs section.
func FormatTabs(w io.Writer, tabs []service.Tab) {
	FormatSectionHeader(w, TabsHeader, len(tabs))
	for i, t := range tabs {
		FormatTab(w, i+1, t)
	}
}

// FormatRemoteFile formats one remote backup line.
func FormatRemoteFile(w io.Writer, f service.RemoteFile) {
	if f.Modified != "" {
		fmt.Fprintf(w, "%s  %8d  %s\n", f.Modified, f.Size, f.Name)
		return
	}
	fmt.Fprintf(w, "%8d  %s\n", f.Size, f.Name)
}

// Renderer writes the changed list after every store mutation.
type Renderer struct {
	w io.Writer
}

// NewRenderer creates a Renderer writing to w.
func NewRenderer(w io.Writer) *Renderer {
	return &Renderer{w: w}
}

// Render implements service.Renderer.
func (r *Renderer) Render(kind service.Kind, items any) {
	switch v := items.(type) {
	case []service.Note:
		FormatNotes(r.w, v)
	case []service.Tab:
		FormatTabs(r.w, v)
	}
}

func formatDate(date string) string {
	if strings.TrimSpace(date) == "" {
		return ""
	}
	return "  (" + date + ")"
}

// normalizeText normalizes item text for display.
// - Empty or whitespace-only text becomes "(untitled)"
// - Newlines are replaced with spaces
func normalizeText(text string) string {
	// Replace newlines with spaces
	text = strings.ReplaceAll(text, "\r", " ")
	text = strings.ReplaceAll(text, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(text) == "" {
		return "(untitled)"
	}
	return text
}
