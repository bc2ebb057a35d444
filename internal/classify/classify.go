// Package classify reads spike-count vectors out into digit labels.
package classify

import (
	"errors"
	"fmt"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

const (
	SupportedSchemaVersion = 1
	SupportedCodecVersion  = 1
)

const (
	SchemeLogReg     = "logreg"
	SchemeAll        = "all"
	SchemeProportion = "proportion"
)

var (
	ErrStateVersion = errors.New("classifier state version mismatch")
	ErrShape        = errors.New("classifier input shape mismatch")
)

// Classifier predicts labels from per-example spike counts under one or
// more named schemes.
type Classifier interface {
	Schemes() []string
	Predict(counts [][]float64) (map[string][]int, error)
	Fit(counts [][]float64, labels []int) error
	State() model.ClassifierState
}

// FromState rebuilds a classifier from its persisted state.
func FromState(s model.ClassifierState) (Classifier, error) {
	if s.SchemaVersion != SupportedSchemaVersion || s.CodecVersion != SupportedCodecVersion {
		return nil, fmt.Errorf("%w: schema=%d codec=%d", ErrStateVersion, s.SchemaVersion, s.CodecVersion)
	}
	switch s.Kind {
	case model.ClassifierLogReg:
		return logRegFromState(s)
	case model.ClassifierRate:
		return rateFromState(s)
	default:
		return nil, fmt.Errorf("unsupported classifier kind: %s", s.Kind)
	}
}

// Accuracy is the percentage of preds matching labels.
func Accuracy(labels, preds []int) float64 {
	if len(labels) == 0 {
		return 0
	}
	correct := 0
	for i, l := range labels {
		if i < len(preds) && preds[i] == l {
			correct++
		}
	}
	return 100 * float64(correct) / float64(len(labels))
}

// Confusion counts (true label, predicted label) pairs into a
// classes x classes matrix. Out-of-range labels are skipped.
func Confusion(labels, preds []int, classes int) [][]int {
	out := make([][]int, classes)
	for i := range out {
		out[i] = make([]int, classes)
	}
	for i, l := range labels {
		if i >= len(preds) {
			break
		}
		p := preds[i]
		if l < 0 || l >= classes || p < 0 || p >= classes {
			continue
		}
		out[l][p]++
	}
	return out
}

func versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: SupportedSchemaVersion, CodecVersion: SupportedCodecVersion}
}

func argmax(v []float64) int {
	best := 0
	for i := 1; i < len(v); i++ {
		if v[i] > v[best] {
			best = i
		}
	}
	return best
}

func checkWidth(counts [][]float64, width int) error {
	for i, row := range counts {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, want %d", ErrShape, i, len(row), width)
		}
	}
	return nil
}
