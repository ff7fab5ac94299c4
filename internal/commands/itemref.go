package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tabnotes/internal/service"
)

// ItemRef is a parsed reference to a saved note or tab.
type ItemRef struct {
	Kind service.Kind
	Num  int // 1-based position as printed by list
}

// Index returns the 0-based position in the sequence.
func (r ItemRef) Index() int { return r.Num - 1 }

// ErrItemRefRequired indicates no item reference was provided.
var ErrItemRefRequired = errors.New("item reference required")

// ParseItemRef parses an item reference from args.
//
// Accepted forms:
//  1. <prefix><digits> (n3, t12)
//  2. <prefix> <digits> (n 3, tab 2)
//
// where prefix is n or note for notes and t or tab for tabs.
// A prefix with no number is ErrItemRefRequired.
func ParseItemRef(args []string) (ItemRef, error) {
	if len(args) == 0 {
		return ItemRef{}, ErrItemRefRequired
	}

	first := strings.ToLower(args[0])

	// Combined form: letters then digits.
	split := strings.IndexFunc(first, unicode.IsDigit)
	if split > 0 {
		kind, ok := kindForPrefix(first[:split])
		if !ok || !isAllDigits(first[split:]) {
			return ItemRef{}, fmt.Errorf("invalid item reference: %s", args[0])
		}
		return newItemRef(kind, first[split:], args[0])
	}

	kind, ok := kindForPrefix(first)
	if !ok {
		return ItemRef{}, fmt.Errorf("invalid item reference: %s", args[0])
	}
	if len(args) < 2 {
		return ItemRef{}, ErrItemRefRequired
	}
	if !isAllDigits(args[1]) {
		return ItemRef{}, fmt.Errorf("invalid item reference: %s %s", args[0], args[1])
	}
	return newItemRef(kind, args[1], args[1])
}

func newItemRef(kind service.Kind, digits, raw string) (ItemRef, error) {
	num, err := strconv.Atoi(digits)
	if err != nil {
		return ItemRef{}, fmt.Errorf("invalid item reference: %s", raw)
	}
	return ItemRef{Kind: kind, Num: num}, nil
}

// kindForPrefix maps a reference prefix to a kind.
func kindForPrefix(p string) (service.Kind, bool) {
	switch p {
	case "n", "note", "notes":
		return service.KindNote, true
	case "t", "tab", "tabs":
		return service.KindTab, true
	}
	return "", false
}

// parseKind maps a list argument to a kind. Empty means both.
func parseKind(arg string) (service.Kind, bool) {
	if arg == "" {
		return "", true
	}
	return kindForPrefix(strings.ToLower(arg))
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
