package storage

import (
	"context"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

// Store persists best-accuracy checkpoints keyed by model identity. Saving
// an existing identity overwrites it.
type Store interface {
	Init(ctx context.Context) error
	SaveCheckpoint(ctx context.Context, checkpoint model.Checkpoint) error
	GetCheckpoint(ctx context.Context, name string) (model.Checkpoint, bool, error)
	ListCheckpoints(ctx context.Context) ([]string, error)
}
