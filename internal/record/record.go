// Package record buffers per-example spike output for evaluation.
package record

import "fmt"

// Ring keeps the spike trains of the most recent Cap() examples. Example i
// always lives in slot i mod Cap(), so after a full interval slot k holds
// the k-th example of that interval.
type Ring struct {
	slots [][][]bool
}

func NewRing(capacity int) (*Ring, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("ring capacity must be > 0")
	}
	return &Ring{slots: make([][][]bool, capacity)}, nil
}

func (r *Ring) Cap() int {
	return len(r.slots)
}

// Slot is the write position of example i.
func (r *Ring) Slot(i int) int {
	return i % len(r.slots)
}

// Put stores the [step][neuron] spikes of example i.
func (r *Ring) Put(i int, spikes [][]bool) {
	r.slots[r.Slot(i)] = spikes
}

// At returns the spikes held in slot k, or nil when it was never written.
func (r *Ring) At(k int) [][]bool {
	return r.slots[k]
}

// Counts sums every slot over time. Unwritten slots yield zero rows of
// width neurons.
func (r *Ring) Counts(neurons int) [][]float64 {
	out := make([][]float64, len(r.slots))
	for k, spikes := range r.slots {
		row := make([]float64, neurons)
		for _, frame := range spikes {
			for j, s := range frame {
				if s && j < neurons {
					row[j]++
				}
			}
		}
		out[k] = row
	}
	return out
}

// History accumulates the summed spike vector and label of every example in
// a run.
type History struct {
	counts [][]float64
	labels []int
}

func NewHistory(capacity int) *History {
	return &History{
		counts: make([][]float64, 0, capacity),
		labels: make([]int, 0, capacity),
	}
}

func (h *History) Append(counts []float64, label int) {
	h.counts = append(h.counts, counts)
	h.labels = append(h.labels, label)
}

func (h *History) Len() int {
	return len(h.labels)
}

// Window returns rows and labels of examples [from, to).
func (h *History) Window(from, to int) ([][]float64, []int) {
	if from < 0 {
		from = 0
	}
	if to > len(h.labels) {
		to = len(h.labels)
	}
	if from >= to {
		return nil, nil
	}
	return h.counts[from:to], h.labels[from:to]
}

// Labels returns every recorded label in example order.
func (h *History) Labels() []int {
	return h.labels
}

// IntervalLabels returns the labels of the interval ending at example i when
// examples are drawn cyclically from labels. When i is a multiple of
// len(labels) this is the tail of labels; when the interval straddles the end
// of labels it is the tail followed by the head.
func IntervalLabels(labels []int, i, interval int) []int {
	n := len(labels)
	if n == 0 || interval <= 0 {
		return nil
	}
	end := i % n
	if end == 0 && interval <= n {
		return append([]int(nil), labels[n-interval:]...)
	}
	if start := end - interval; start >= 0 {
		return append([]int(nil), labels[start:end]...)
	}
	out := make([]int, interval)
	for k := range out {
		idx := ((i-interval+k)%n + n) % n
		out[k] = labels[idx]
	}
	return out
}
