package classify

import (
	"errors"
	"reflect"
	"testing"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

// separable builds examples where neuron c fires for label c.
func separable(n, classes int) ([][]float64, []int) {
	counts := make([][]float64, n)
	labels := make([]int, n)
	for i := range counts {
		l := i % classes
		row := make([]float64, classes)
		row[l] = 5
		row[(l+1)%classes] = 1
		counts[i] = row
		labels[i] = l
	}
	return counts, labels
}

func TestLogRegUnfittedPredictsZero(t *testing.T) {
	m := NewLogReg(10, 4)
	preds, err := m.Predict([][]float64{{1, 2, 3, 4}, {0, 0, 0, 0}})
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !reflect.DeepEqual(preds[SchemeLogReg], []int{0, 0}) {
		t.Fatalf("preds = %v", preds[SchemeLogReg])
	}
}

func TestLogRegFitsSeparableData(t *testing.T) {
	counts, labels := separable(100, 4)
	m := NewLogReg(4, 4)
	if err := m.Fit(counts, labels); err != nil {
		t.Fatalf("fit: %v", err)
	}
	preds, err := m.Predict(counts)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if acc := Accuracy(labels, preds[SchemeLogReg]); acc != 100 {
		t.Fatalf("training accuracy %.2f, want 100", acc)
	}

	restored, err := FromState(m.State())
	if err != nil {
		t.Fatalf("from state: %v", err)
	}
	again, _ := restored.Predict(counts)
	if !reflect.DeepEqual(again[SchemeLogReg], preds[SchemeLogReg]) {
		t.Fatal("restored model predicts differently")
	}
}

func TestLogRegRejectsBadShapes(t *testing.T) {
	m := NewLogReg(3, 2)
	if _, err := m.Predict([][]float64{{1}}); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape, got %v", err)
	}
	if err := m.Fit([][]float64{{1, 2}}, []int{5}); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for label, got %v", err)
	}
	if err := m.Fit([][]float64{{1, 2}}, nil); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for length, got %v", err)
	}
}

func TestRateAssignsAndPredicts(t *testing.T) {
	counts, labels := separable(40, 4)
	r := NewRate(4, 4)
	unfitted, err := r.Predict(counts[:2])
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	if !reflect.DeepEqual(unfitted[SchemeAll], []int{0, 0}) {
		t.Fatalf("unassigned neurons should predict 0, got %v", unfitted[SchemeAll])
	}

	if err := r.Fit(counts, labels); err != nil {
		t.Fatalf("fit: %v", err)
	}
	if !reflect.DeepEqual(r.Assignments(), []int{0, 1, 2, 3}) {
		t.Fatalf("assignments = %v", r.Assignments())
	}
	preds, err := r.Predict(counts)
	if err != nil {
		t.Fatalf("predict: %v", err)
	}
	for _, scheme := range r.Schemes() {
		if acc := Accuracy(labels, preds[scheme]); acc != 100 {
			t.Fatalf("%s accuracy %.2f, want 100", scheme, acc)
		}
	}

	// rates accumulate: a second identical fit doubles them.
	before := r.State().Rates[0][0]
	if err := r.Fit(counts, labels); err != nil {
		t.Fatalf("refit: %v", err)
	}
	if after := r.State().Rates[0][0]; after != 2*before {
		t.Fatalf("rate after refit %f, want %f", after, 2*before)
	}
}

func TestRateStateRoundTrip(t *testing.T) {
	counts, labels := separable(20, 4)
	r := NewRate(4, 4)
	if err := r.Fit(counts, labels); err != nil {
		t.Fatalf("fit: %v", err)
	}
	c, err := FromState(r.State())
	if err != nil {
		t.Fatalf("from state: %v", err)
	}
	if !reflect.DeepEqual(c.State(), r.State()) {
		t.Fatal("state changed across round trip")
	}
}

func TestFromStateRejectsVersionAndKind(t *testing.T) {
	s := NewRate(2, 2).State()
	s.CodecVersion = 7
	if _, err := FromState(s); !errors.Is(err, ErrStateVersion) {
		t.Fatalf("expected ErrStateVersion, got %v", err)
	}
	s = NewRate(2, 2).State()
	s.Kind = "svm"
	if _, err := FromState(s); err == nil {
		t.Fatal("expected unsupported kind error")
	}
	if _, err := FromState(model.ClassifierState{VersionedRecord: versioned(), Kind: model.ClassifierLogReg}); !errors.Is(err, ErrShape) {
		t.Fatalf("expected ErrShape for empty logreg state, got %v", err)
	}
}

func TestAccuracyAndConfusion(t *testing.T) {
	labels := []int{0, 1, 2, 2}
	preds := []int{0, 2, 2, 2}
	if got := Accuracy(labels, preds); got != 75 {
		t.Fatalf("accuracy = %f", got)
	}
	if Accuracy(nil, nil) != 0 {
		t.Fatal("empty accuracy should be 0")
	}
	cm := Confusion(labels, preds, 3)
	want := [][]int{{1, 0, 0}, {0, 0, 1}, {0, 0, 2}}
	if !reflect.DeepEqual(cm, want) {
		t.Fatalf("confusion = %v", cm)
	}
	if cm := Confusion([]int{9}, []int{0}, 3); cm[0][0] != 0 {
		t.Fatal("out-of-range label should be skipped")
	}
}
