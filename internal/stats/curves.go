package stats

import (
	"encoding/json"
	"fmt"
	"os"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Curves maps each classification scheme to its per-interval accuracies.
// Schemes keep the order they were declared in.
type Curves struct {
	schemes []string
	values  map[string][]float64
}

func NewCurves(schemes ...string) *Curves {
	c := &Curves{values: make(map[string][]float64, len(schemes))}
	for _, s := range schemes {
		c.schemes = append(c.schemes, s)
		c.values[s] = []float64{}
	}
	return c
}

func (c *Curves) Schemes() []string {
	return append([]string(nil), c.schemes...)
}

func (c *Curves) Append(scheme string, accuracy float64) error {
	series, ok := c.values[scheme]
	if !ok {
		return fmt.Errorf("unknown scheme: %s", scheme)
	}
	c.values[scheme] = append(series, accuracy)
	return nil
}

func (c *Curves) Series(scheme string) []float64 {
	return c.values[scheme]
}

// Len is the number of completed evaluations.
func (c *Curves) Len() int {
	if len(c.schemes) == 0 {
		return 0
	}
	return len(c.values[c.schemes[0]])
}

// Latest returns the maximum over schemes of the most recent accuracy.
func (c *Curves) Latest() (float64, bool) {
	if c.Len() == 0 {
		return 0, false
	}
	best := 0.0
	for i, s := range c.schemes {
		series := c.values[s]
		if v := series[len(series)-1]; i == 0 || v > best {
			best = v
		}
	}
	return best, true
}

// Summary describes one scheme's curve.
type Summary struct {
	Last float64 `json:"last"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	Best float64 `json:"best"`
}

// Summarize reports the last value, mean, population standard deviation and
// maximum of a scheme's curve.
func (c *Curves) Summarize(scheme string) Summary {
	series := c.values[scheme]
	if len(series) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(series, nil)
	return Summary{
		Last: series[len(series)-1],
		Mean: mean,
		Std:  std,
		Best: floats.Max(series),
	}
}

func (c *Curves) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.values)
}

// CurvesArtifact is the persisted accuracy history of a run.
type CurvesArtifact struct {
	Curves         *Curves `json:"curves"`
	UpdateInterval int     `json:"update_interval"`
	NExamples      int     `json:"n_examples"`
}

func WriteCurves(path string, artifact CurvesArtifact) error {
	return writeJSON(path, artifact)
}

// ReadCurves loads a curves artifact; schemes come back in sorted order.
func ReadCurves(path string) (map[string][]float64, CurvesArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, CurvesArtifact{}, err
	}
	var raw struct {
		Curves         map[string][]float64 `json:"curves"`
		UpdateInterval int                  `json:"update_interval"`
		NExamples      int                  `json:"n_examples"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, CurvesArtifact{}, err
	}
	return raw.Curves, CurvesArtifact{UpdateInterval: raw.UpdateInterval, NExamples: raw.NExamples}, nil
}
