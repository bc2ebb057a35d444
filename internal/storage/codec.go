package storage

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeCheckpoint(c model.Checkpoint) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeCheckpoint(data []byte) (model.Checkpoint, error) {
	var checkpoint model.Checkpoint
	if err := json.Unmarshal(data, &checkpoint); err != nil {
		return model.Checkpoint{}, err
	}
	if err := checkVersion(checkpoint.Network.VersionedRecord); err != nil {
		return model.Checkpoint{}, fmt.Errorf("network: %w", err)
	}
	if err := checkVersion(checkpoint.Classifier.VersionedRecord); err != nil {
		return model.Checkpoint{}, fmt.Errorf("classifier: %w", err)
	}
	return checkpoint, nil
}

// networkFile is the on-disk form of a checkpoint's network half.
type networkFile struct {
	Name       string                `json:"name"`
	Accuracy   float64               `json:"accuracy"`
	SavedAtUTC string                `json:"saved_at_utc"`
	Network    model.NetworkSnapshot `json:"network"`
}

func encodeNetworkFile(c model.Checkpoint) ([]byte, error) {
	return json.MarshalIndent(networkFile{
		Name:       c.Name,
		Accuracy:   c.Accuracy,
		SavedAtUTC: c.SavedAtUTC,
		Network:    c.Network,
	}, "", "  ")
}

func decodeNetworkFile(data []byte) (networkFile, error) {
	var nf networkFile
	if err := json.Unmarshal(data, &nf); err != nil {
		return networkFile{}, err
	}
	if err := checkVersion(nf.Network.VersionedRecord); err != nil {
		return networkFile{}, err
	}
	return nf, nil
}

func EncodeClassifier(s model.ClassifierState) ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

func DecodeClassifier(data []byte) (model.ClassifierState, error) {
	var state model.ClassifierState
	if err := json.Unmarshal(data, &state); err != nil {
		return model.ClassifierState{}, err
	}
	if err := checkVersion(state.VersionedRecord); err != nil {
		return model.ClassifierState{}, err
	}
	return state, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
