package storage

import (
	"fmt"
	"path/filepath"
)

const (
	KindMemory = "memory"
	KindFile   = "file"
	KindSQLite = "sqlite"

	SQLiteFileName = "checkpoints.db"
)

// NewStore builds a backend rooted at dir, the params directory of one
// dataset/model pair.
func NewStore(kind, dir string) (Store, error) {
	switch kind {
	case "", KindFile:
		return NewFileStore(dir), nil
	case KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		return NewSQLiteStore(filepath.Join(dir, SQLiteFileName)), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", kind)
	}
}

func CloseIfSupported(store Store) error {
	closer, ok := store.(interface{ Close() error })
	if !ok {
		return nil
	}
	return closer.Close()
}
