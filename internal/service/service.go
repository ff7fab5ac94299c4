package service

import "context"

// Entry is one key/value pair written to Storage.
type Entry struct {
	Key   string
	Value string
}

// Storage is the durable key-value store the lists are mirrored into.
// Backends live under internal/backend; the store never imports them.
type Storage interface {
	// Get returns the value stored under key.
	// ok is false when the key has never been written.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Put writes all entries in a single transaction.
	// Either every entry is stored or none is.
	Put(ctx context.Context, entries ...Entry) error

	// Close releases the underlying file handles.
	Close() error
}

// TabSource reports the currently active tab.
type TabSource interface {
	ActiveTab(ctx context.Context) (TabInfo, error)
}

// TabSourceFunc adapts a function to TabSource.
type TabSourceFunc func(ctx context.Context) (TabInfo, error)

// ActiveTab implements TabSource.
func (f TabSourceFunc) ActiveTab(ctx context.Context) (TabInfo, error) { return f(ctx) }

// Renderer is told about every change to a sequence.
// items is either []Note or []Tab depending on kind. Render runs while the
// store is locked and must not call back into it.
type Renderer interface {
	Render(kind Kind, items any)
}

// Remote stores backup documents outside the machine.
// Transfers are always started by the user.
type Remote interface {
	// Upload stores data under name, replacing an existing file with that name.
	Upload(ctx context.Context, name string, data []byte) error

	// Download returns the contents of the named backup.
	Download(ctx context.Context, name string) ([]byte, error)

	// List returns stored backups, newest first.
	List(ctx context.Context) ([]RemoteFile, error)
}
