package snn

// Recording holds the spikes of every layer for one Run, indexed
// [step][neuron].
type Recording struct {
	Steps  int
	spikes map[string][][]bool
}

func newRecording(layers []*Layer, steps int) *Recording {
	rec := &Recording{Steps: steps, spikes: make(map[string][][]bool, len(layers))}
	for _, l := range layers {
		rec.spikes[l.Name] = make([][]bool, 0, steps)
	}
	return rec
}

func (r *Recording) capture(layers []*Layer) {
	for _, l := range layers {
		frame := make([]bool, l.N)
		copy(frame, l.Spikes)
		r.spikes[l.Name] = append(r.spikes[l.Name], frame)
	}
}

// Spikes returns the recorded spikes of the named layer, or nil.
func (r *Recording) Spikes(layer string) [][]bool {
	return r.spikes[layer]
}

// Count is the total number of spikes the named layer emitted.
func (r *Recording) Count(layer string) int {
	n := 0
	for _, frame := range r.spikes[layer] {
		for _, s := range frame {
			if s {
				n++
			}
		}
	}
	return n
}

// Sum returns per-neuron spike counts of the named layer over all steps.
func (r *Recording) Sum(layer string) []float64 {
	frames := r.spikes[layer]
	if len(frames) == 0 {
		return nil
	}
	out := make([]float64, len(frames[0]))
	for _, frame := range frames {
		for i, s := range frame {
			if s {
				out[i]++
			}
		}
	}
	return out
}
