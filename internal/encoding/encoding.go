// Package encoding turns pixel intensities into spike trains.
package encoding

import (
	"fmt"
	"math/rand"
	"strings"
)

const (
	KindBernoulli = "bernoulli"
	KindPoisson   = "poisson"
)

// Train is a spike train indexed as [step][neuron].
type Train [][]bool

// Count returns the total number of spikes in the train.
func (t Train) Count() int {
	n := 0
	for _, step := range t {
		for _, s := range step {
			if s {
				n++
			}
		}
	}
	return n
}

// Encoder draws a spike train of the given number of steps from datum.
// Output is a pure function of datum and the state of rng.
type Encoder interface {
	Encode(datum []float64, steps int, dt float64, rng *rand.Rand) Train
}

// Bernoulli fires each pixel independently per step with probability
// MaxProb times its value, after normalizing by the maximum when the
// maximum exceeds one.
type Bernoulli struct {
	MaxProb float64
}

func (b Bernoulli) Encode(datum []float64, steps int, _ float64, rng *rand.Rand) Train {
	maxProb := b.MaxProb
	if maxProb <= 0 {
		maxProb = 1
	}
	peak := 0.0
	for _, v := range datum {
		if v > peak {
			peak = v
		}
	}
	probs := make([]float64, len(datum))
	for i, v := range datum {
		if peak > 1 {
			v /= peak
		}
		probs[i] = clamp01(maxProb * v)
	}
	return sample(probs, steps, rng)
}

// Poisson treats each value as a firing rate in Hz and fires per step with
// probability rate*dt/1000.
type Poisson struct{}

func (Poisson) Encode(datum []float64, steps int, dt float64, rng *rand.Rand) Train {
	probs := make([]float64, len(datum))
	for i, rate := range datum {
		probs[i] = clamp01(rate * dt / 1000)
	}
	return sample(probs, steps, rng)
}

// New resolves an encoder by name.
func New(kind string) (Encoder, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case KindBernoulli:
		return Bernoulli{MaxProb: 1}, nil
	case KindPoisson:
		return Poisson{}, nil
	default:
		return nil, fmt.Errorf("unsupported encoder: %s", kind)
	}
}

func sample(probs []float64, steps int, rng *rand.Rand) Train {
	train := make(Train, steps)
	for t := range train {
		row := make([]bool, len(probs))
		for i, p := range probs {
			if p > 0 && rng.Float64() < p {
				row[i] = true
			}
		}
		train[t] = row
	}
	return train
}

func clamp01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
