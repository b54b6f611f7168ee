package history

import "fmt"

// Backend names a Store implementation.
type Backend string

const (
	BackendJSON   Backend = "json"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory"
)

// Open returns the store for backend at path.
func Open(backend Backend, path string) (Store, error) {
	switch backend {
	case BackendJSON, "":
		return NewFileStore(path), nil
	case BackendSQLite:
		return NewSQLiteStore(path)
	case BackendMemory:
		return NewMemoryStore(Empty()), nil
	default:
		return nil, fmt.Errorf("unknown history backend %q", backend)
	}
}
