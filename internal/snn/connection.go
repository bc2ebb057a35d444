package snn

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Connection is a dense synapse matrix from Source to Target, indexed
// [source neuron, target neuron]. A non-nil Mask zeroes the entries it
// marks false.
type Connection struct {
	Source *Layer
	Target *Layer
	W      *mat.Dense
	Mask   []bool
	Rule   string
	NuPre  float64
	NuPost float64
	WMin   float64
	WMax   float64
	// Norm, when positive, is the column sum each target's weights are
	// scaled to after every run.
	Norm float64
}

func NewConnection(source, target *Layer, w *mat.Dense) (*Connection, error) {
	if source == nil || target == nil {
		return nil, fmt.Errorf("connection endpoints are required")
	}
	rows, cols := w.Dims()
	if rows != source.N || cols != target.N {
		return nil, fmt.Errorf("connection %s->%s: weights are %dx%d, want %dx%d",
			source.Name, target.Name, rows, cols, source.N, target.N)
	}
	return &Connection{Source: source, Target: target, W: w, Rule: RuleNoOp, WMin: -1e9, WMax: 1e9}, nil
}

// Key identifies the connection within a network.
func (c *Connection) Key() string {
	return ConnectionKey(c.Source.Name, c.Target.Name)
}

func ConnectionKey(source, target string) string {
	return source + "->" + target
}

// propagate adds the weighted source spikes into the target's current.
func (c *Connection) propagate() {
	for i, s := range c.Source.Spikes {
		if s {
			floats.Add(c.Target.current, c.W.RawRowView(i))
		}
	}
}

func (c *Connection) clampWeights() {
	raw := c.W.RawMatrix()
	rows, cols := c.W.Dims()
	for i := 0; i < rows; i++ {
		row := raw.Data[i*raw.Stride : i*raw.Stride+cols]
		for j, w := range row {
			switch {
			case c.Mask != nil && !c.Mask[i*cols+j]:
				row[j] = 0
			case w < c.WMin:
				row[j] = c.WMin
			case w > c.WMax:
				row[j] = c.WMax
			}
		}
	}
}

// Normalize scales every target column to sum to Norm. Columns summing to
// zero are left alone.
func (c *Connection) Normalize() {
	if c.Norm <= 0 {
		return
	}
	rows, cols := c.W.Dims()
	sums := make([]float64, cols)
	for i := 0; i < rows; i++ {
		floats.Add(sums, c.W.RawRowView(i))
	}
	for j, s := range sums {
		if s == 0 {
			sums[j] = 1
		} else {
			sums[j] = c.Norm / s
		}
	}
	for i := 0; i < rows; i++ {
		floats.Mul(c.W.RawRowView(i), sums)
	}
}

// DecayLearningRate scales the postsynaptic learning rate by factor.
func (c *Connection) DecayLearningRate(factor float64) {
	c.NuPost *= factor
}
