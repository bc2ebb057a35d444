package storage

import (
	"path/filepath"
	"testing"
)

func TestNewStoreBackends(t *testing.T) {
	dir := t.TempDir()
	cases := []struct {
		kind string
		want any
	}{
		{"", &FileStore{}},
		{"file", &FileStore{}},
		{"memory", &MemoryStore{}},
		{"sqlite", &SQLiteStore{}},
	}
	for _, tc := range cases {
		store, err := NewStore(tc.kind, dir)
		if err != nil {
			t.Fatalf("new %q store: %v", tc.kind, err)
		}
		switch tc.want.(type) {
		case *FileStore:
			if _, ok := store.(*FileStore); !ok {
				t.Fatalf("kind %q: got %T", tc.kind, store)
			}
		case *MemoryStore:
			if _, ok := store.(*MemoryStore); !ok {
				t.Fatalf("kind %q: got %T", tc.kind, store)
			}
		case *SQLiteStore:
			s, ok := store.(*SQLiteStore)
			if !ok {
				t.Fatalf("kind %q: got %T", tc.kind, store)
			}
			if s.path != filepath.Join(dir, SQLiteFileName) {
				t.Fatalf("sqlite path = %s", s.path)
			}
		}
		if err := CloseIfSupported(store); err != nil {
			t.Fatalf("close %q: %v", tc.kind, err)
		}
	}
}

func TestNewStoreUnsupported(t *testing.T) {
	if _, err := NewStore("unknown", ""); err == nil {
		t.Fatal("expected unsupported store error")
	}
}
