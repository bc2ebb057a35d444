package experiment

import (
	"context"

	"github.com/djsaunde/bindsnet-experiments/internal/logging"
	"github.com/djsaunde/bindsnet-experiments/internal/snn"
)

const (
	minSpikes  = 5
	maxRetries = 3
)

// StepResult is the outcome of presenting one example.
type StepResult struct {
	// Retries is the number of re-runs after the first attempt.
	Retries int
	// Scales holds the input scale of every attempt, first attempt at 1.
	Scales []float64
	// Spikes is the excitatory [step][neuron] record of the accepted attempt.
	Spikes [][]bool
	// Counts sums Spikes over time.
	Counts []float64
}

// step encodes datum and runs it through net. Architectures that retry
// re-run with a doubled input scale while the excitatory layer fires fewer
// than minSpikes times, at most maxRetries times.
//
// Between attempts only transient state is reset: weight updates and
// threshold adaptation from a quiet attempt carry into the next one.
func (c *core) step(ctx context.Context, net *snn.Network, datum []float64) (StepResult, error) {
	exc := net.Roles().Excitatory.Name
	steps := c.base.Steps()
	input := make([]float64, len(datum))

	var res StepResult
	scale := 1.0
	for attempt := 0; ; attempt++ {
		for k, v := range datum {
			input[k] = v * scale
		}
		rec, err := net.Run(c.encoder.Encode(input, steps, c.base.Dt, c.rng))
		if err != nil {
			return StepResult{}, err
		}
		res.Scales = append(res.Scales, scale)
		spikes := rec.Count(exc)
		if !c.arch.Retry() || spikes >= minSpikes || attempt == maxRetries {
			res.Retries = attempt
			res.Spikes = rec.Spikes(exc)
			res.Counts = rec.Sum(exc)
			return res, nil
		}
		c.logger.Log(ctx, logging.LevelTrace, "quiet example, retrying", "attempt", attempt+1, "spikes", spikes, "scale", 2*scale)
		net.Reset()
		scale *= 2
	}
}
