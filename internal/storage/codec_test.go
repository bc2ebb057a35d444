package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

func versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func sampleCheckpoint(name string, accuracy float64) model.Checkpoint {
	return model.Checkpoint{
		Name:       name,
		Accuracy:   accuracy,
		SavedAtUTC: "2026-01-02T03:04:05Z",
		Network: model.NetworkSnapshot{
			VersionedRecord: versioned(),
			Name:            "diehl_and_cook_2015",
			Dt:              1,
			Layers: []model.LayerSnapshot{
				{Name: "X", Kind: "input", N: 2},
				{Name: "Ae", Kind: "adaptive_lif", N: 1, Rest: -65, TcDecay: 100, Theta: []float64{0.25}},
			},
			Connections: []model.ConnectionSnapshot{
				{Source: "X", Target: "Ae", Rows: 2, Cols: 1, Weights: []float64{0.1, 0.2}, Rule: "post_pre"},
			},
			Roles: model.RoleBindings{Input: "X", Excitatory: "Ae", PrimarySource: "X", PrimaryTarget: "Ae"},
		},
		Classifier: model.ClassifierState{
			VersionedRecord: versioned(),
			Kind:            model.ClassifierLogReg,
			Classes:         2,
			Coef:            [][]float64{{1}, {-1}},
			Intercept:       []float64{0, 0.5},
		},
	}
}

func assertCheckpoint(t *testing.T, got, want model.Checkpoint) {
	t.Helper()
	if got.Name != want.Name || got.Accuracy != want.Accuracy || got.SavedAtUTC != want.SavedAtUTC {
		t.Fatalf("unexpected checkpoint header: %+v", got)
	}
	if len(got.Network.Connections) != 1 || got.Network.Connections[0].Weights[1] != 0.2 {
		t.Fatalf("unexpected network: %+v", got.Network)
	}
	if got.Network.Layers[1].Theta[0] != 0.25 {
		t.Fatalf("theta lost: %+v", got.Network.Layers[1])
	}
	if got.Classifier.Kind != model.ClassifierLogReg || got.Classifier.Intercept[1] != 0.5 {
		t.Fatalf("unexpected classifier: %+v", got.Classifier)
	}
}

func TestCheckpointCodecRoundTrip(t *testing.T) {
	want := sampleCheckpoint("m", 42)
	data, err := EncodeCheckpoint(want)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := DecodeCheckpoint(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	assertCheckpoint(t, got, want)
}

func TestDecodeCheckpointVersionMismatch(t *testing.T) {
	cp := sampleCheckpoint("m", 1)
	cp.Classifier.CodecVersion = 2
	data, err := EncodeCheckpoint(cp)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeCheckpoint(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestDecodeClassifierVersionMismatch(t *testing.T) {
	if _, err := DecodeClassifier([]byte(`{"schema_version":0,"codec_version":1,"kind":"rate"}`)); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

// exerciseStore runs the shared contract every backend must meet.
func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if _, ok, err := store.GetCheckpoint(ctx, "missing"); err != nil || ok {
		t.Fatalf("expected missing checkpoint, ok=%v err=%v", ok, err)
	}

	first := sampleCheckpoint("b_model", 10)
	if err := store.SaveCheckpoint(ctx, first); err != nil {
		t.Fatalf("save: %v", err)
	}
	better := sampleCheckpoint("b_model", 55)
	if err := store.SaveCheckpoint(ctx, better); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	if err := store.SaveCheckpoint(ctx, sampleCheckpoint("a_model", 5)); err != nil {
		t.Fatalf("save second: %v", err)
	}

	got, ok, err := store.GetCheckpoint(ctx, "b_model")
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	assertCheckpoint(t, got, better)

	names, err := store.ListCheckpoints(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(names) != 2 || names[0] != "a_model" || names[1] != "b_model" {
		t.Fatalf("unexpected names: %v", names)
	}
}
