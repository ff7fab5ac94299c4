package service

import "errors"

var (
	// ErrParse means a stored value is not valid JSON. Load recovers from it.
	ErrParse = errors.New("stored value is not valid JSON")

	// ErrFormat means an import document is not valid JSON.
	ErrFormat = errors.New("not a JSON document")

	// ErrExtension means the import file name lacks the .json suffix.
	ErrExtension = errors.New("not a .json file")

	// ErrSchema means an import document has neither notes nor tabs,
	// or one of them has the wrong shape.
	ErrSchema = errors.New("not a backup document")

	// ErrIO means the import file could not be read.
	ErrIO = errors.New("cannot read file")

	// ErrInvalidTab means the active tab has no URL.
	ErrInvalidTab = errors.New("tab has no url")

	// ErrUnknownKind means a kind other than note or tab was given.
	ErrUnknownKind = errors.New("unknown kind")

	// ErrAuth means remote backups need credentials that are missing or invalid.
	ErrAuth = errors.New("not authorized")

	// ErrImportBusy means another import is still in flight.
	ErrImportBusy = errors.New("import already in progress")
)
