package record

import (
	"reflect"
	"testing"
)

func TestRingSlotInvariant(t *testing.T) {
	r, err := NewRing(3)
	if err != nil {
		t.Fatalf("new ring: %v", err)
	}
	for i := 0; i < 8; i++ {
		r.Put(i, [][]bool{{i%2 == 0, true}})
	}
	for k := 0; k < 3; k++ {
		latest := k
		for latest+3 < 8 {
			latest += 3
		}
		want := latest%2 == 0
		if got := r.At(k)[0][0]; got != want {
			t.Fatalf("slot %d holds wrong example: got %v want %v", k, got, want)
		}
	}
	if r.Slot(250) != 1 {
		t.Fatalf("slot(250) = %d", r.Slot(250))
	}
	if _, err := NewRing(0); err == nil {
		t.Fatal("expected capacity error")
	}
}

func TestRingCounts(t *testing.T) {
	r, _ := NewRing(2)
	r.Put(0, [][]bool{{true, false}, {true, true}})
	counts := r.Counts(2)
	if !reflect.DeepEqual(counts, [][]float64{{2, 1}, {0, 0}}) {
		t.Fatalf("counts = %v", counts)
	}
}

func TestHistoryWindow(t *testing.T) {
	h := NewHistory(4)
	for i := 0; i < 4; i++ {
		h.Append([]float64{float64(i)}, i+10)
	}
	rows, labels := h.Window(1, 3)
	if !reflect.DeepEqual(labels, []int{11, 12}) || rows[0][0] != 1 || rows[1][0] != 2 {
		t.Fatalf("window = %v %v", rows, labels)
	}
	if rows, labels := h.Window(3, 3); rows != nil || labels != nil {
		t.Fatal("empty window should be nil")
	}
	if _, labels := h.Window(-2, 99); len(labels) != 4 {
		t.Fatalf("clamped window has %d labels", len(labels))
	}
}

func TestIntervalLabels(t *testing.T) {
	labels := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	tests := []struct {
		name     string
		i        int
		interval int
		want     []int
	}{
		{"contiguous", 6, 3, []int{3, 4, 5}},
		{"multiple of length takes tail", 20, 4, []int{6, 7, 8, 9}},
		{"exact length", 10, 10, labels},
		{"straddles end", 12, 4, []int{8, 9, 0, 1}},
		{"interval longer than labels", 10, 12, []int{8, 9, 0, 1, 2, 3, 4, 5, 6, 7, 8, 9}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntervalLabels(labels, tt.i, tt.interval)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("IntervalLabels(%d, %d) = %v, want %v", tt.i, tt.interval, got, tt.want)
			}
		})
	}
	if IntervalLabels(nil, 5, 5) != nil {
		t.Fatal("empty labels should yield nil")
	}
}
