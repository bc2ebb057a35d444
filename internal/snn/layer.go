package snn

import (
	"fmt"
	"math"
	"strings"
)

const (
	KindInput       = "input"
	KindLIF         = "lif"
	KindAdaptiveLIF = "adaptive_lif"
	KindIF          = "if"
)

// NeuronParams holds the membrane and trace constants of a layer. Times are
// in milliseconds; ThetaDecay is a per-millisecond rate.
type NeuronParams struct {
	Rest       float64
	Reset      float64
	Thresh     float64
	Refrac     float64
	TcDecay    float64
	TcTrace    float64
	ThetaPlus  float64
	ThetaDecay float64
}

// Layer is a population of spiking neurons. Input layers have their spikes
// clamped each step; the other kinds integrate incoming current.
type Layer struct {
	Name   string
	Kind   string
	N      int
	Shape  []int
	Params NeuronParams

	V      []float64
	Theta  []float64
	Trace  []float64
	Spikes []bool

	refrac  []float64
	current []float64
}

func NewLayer(name, kind string, n int, p NeuronParams) (*Layer, error) {
	kind = strings.ToLower(strings.TrimSpace(kind))
	switch kind {
	case KindInput, KindLIF, KindAdaptiveLIF, KindIF:
	default:
		return nil, fmt.Errorf("unsupported layer kind: %s", kind)
	}
	if name == "" {
		return nil, fmt.Errorf("layer name is required")
	}
	if n <= 0 {
		return nil, fmt.Errorf("layer %s: size must be > 0", name)
	}
	if kind != KindInput && kind != KindIF && p.TcDecay <= 0 {
		return nil, fmt.Errorf("layer %s: tc_decay must be > 0", name)
	}
	l := &Layer{
		Name:    name,
		Kind:    kind,
		N:       n,
		Params:  p,
		V:       make([]float64, n),
		Theta:   make([]float64, n),
		Trace:   make([]float64, n),
		Spikes:  make([]bool, n),
		refrac:  make([]float64, n),
		current: make([]float64, n),
	}
	l.Reset()
	return l, nil
}

// Reset restores voltages, refractory counters, traces and spikes. Theta is
// learned state and survives.
func (l *Layer) Reset() {
	for i := 0; i < l.N; i++ {
		l.V[i] = l.Params.Rest
		l.refrac[i] = 0
		l.Trace[i] = 0
		l.Spikes[i] = false
		l.current[i] = 0
	}
}

func (l *Layer) clamp(frame []bool, dt float64) error {
	if len(frame) != l.N {
		return fmt.Errorf("layer %s: input frame has %d values, want %d", l.Name, len(frame), l.N)
	}
	copy(l.Spikes, frame)
	l.updateTraces(dt)
	return nil
}

func (l *Layer) step(dt float64) {
	p := l.Params
	decay := 1.0
	if l.Kind != KindIF {
		decay = math.Exp(-dt / p.TcDecay)
	}
	adaptive := l.Kind == KindAdaptiveLIF
	for i := 0; i < l.N; i++ {
		l.V[i] = p.Rest + (l.V[i]-p.Rest)*decay
		if adaptive && p.ThetaDecay != 0 {
			l.Theta[i] -= dt * p.ThetaDecay * l.Theta[i]
		}
		if l.refrac[i] <= 0 {
			l.V[i] += l.current[i]
		}
		l.refrac[i] -= dt

		thresh := p.Thresh
		if adaptive {
			thresh += l.Theta[i]
		}
		l.Spikes[i] = l.V[i] >= thresh
		if l.Spikes[i] {
			l.V[i] = p.Reset
			l.refrac[i] = p.Refrac
			if adaptive {
				l.Theta[i] += p.ThetaPlus
			}
		}
	}
	l.updateTraces(dt)
}

func (l *Layer) updateTraces(dt float64) {
	decay := 0.0
	if l.Params.TcTrace > 0 {
		decay = math.Exp(-dt / l.Params.TcTrace)
	}
	for i := 0; i < l.N; i++ {
		if l.Spikes[i] {
			l.Trace[i] = 1
		} else {
			l.Trace[i] *= decay
		}
	}
}
