package storage

import (
	"context"
	"testing"
)

func TestMemoryStoreContract(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestMemoryStoreRequiresInit(t *testing.T) {
	store := NewMemoryStore()
	if err := store.SaveCheckpoint(context.Background(), sampleCheckpoint("m", 1)); err == nil {
		t.Fatal("expected error before init")
	}
}
