package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

const auxiliaryPrefix = "auxiliary_"

// FileStore writes each checkpoint as two JSON files in dir: <name>.json
// with the network and auxiliary_<name>.json with the classifier state.
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Init(_ context.Context) error {
	if s.dir == "" {
		return errors.New("file store directory is required")
	}
	return os.MkdirAll(s.dir, 0o755)
}

func (s *FileStore) NetworkPath(name string) string {
	return filepath.Join(s.dir, name+".json")
}

func (s *FileStore) AuxiliaryPath(name string) string {
	return filepath.Join(s.dir, auxiliaryPrefix+name+".json")
}

func (s *FileStore) SaveCheckpoint(_ context.Context, checkpoint model.Checkpoint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	network, err := encodeNetworkFile(checkpoint)
	if err != nil {
		return fmt.Errorf("encode network %s: %w", checkpoint.Name, err)
	}
	aux, err := EncodeClassifier(checkpoint.Classifier)
	if err != nil {
		return fmt.Errorf("encode classifier %s: %w", checkpoint.Name, err)
	}
	if err := os.WriteFile(s.NetworkPath(checkpoint.Name), append(network, '\n'), 0o644); err != nil {
		return err
	}
	return os.WriteFile(s.AuxiliaryPath(checkpoint.Name), append(aux, '\n'), 0o644)
}

func (s *FileStore) GetCheckpoint(_ context.Context, name string) (model.Checkpoint, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.NetworkPath(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.Checkpoint{}, false, nil
		}
		return model.Checkpoint{}, false, err
	}
	nf, err := decodeNetworkFile(data)
	if err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("decode network %s: %w", name, err)
	}
	data, err = os.ReadFile(s.AuxiliaryPath(name))
	if err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("read classifier %s: %w", name, err)
	}
	classifier, err := DecodeClassifier(data)
	if err != nil {
		return model.Checkpoint{}, false, fmt.Errorf("decode classifier %s: %w", name, err)
	}
	return model.Checkpoint{
		Name:       nf.Name,
		Accuracy:   nf.Accuracy,
		SavedAtUTC: nf.SavedAtUTC,
		Network:    nf.Network,
		Classifier: classifier,
	}, true, nil
}

func (s *FileStore) ListCheckpoints(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, auxiliaryPrefix) {
			continue
		}
		names = append(names, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(names)
	return names, nil
}
