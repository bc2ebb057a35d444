package classify

import (
	"fmt"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

// Rate assigns each neuron the label it fires most for and predicts by
// averaging activity over the neurons assigned to each label. Rates
// accumulate across fits.
type Rate struct {
	Classes int
	Neurons int
	// Alpha discounts previously accumulated rates on each fit.
	Alpha float64

	assignments []int
	proportions [][]float64
	rates       [][]float64
}

// NewRate returns a classifier with every neuron unassigned (-1).
func NewRate(classes, neurons int) *Rate {
	r := &Rate{
		Classes:     classes,
		Neurons:     neurons,
		Alpha:       1,
		assignments: make([]int, neurons),
		proportions: make([][]float64, neurons),
		rates:       make([][]float64, neurons),
	}
	for j := 0; j < neurons; j++ {
		r.assignments[j] = -1
		r.proportions[j] = make([]float64, classes)
		r.rates[j] = make([]float64, classes)
	}
	return r
}

func (r *Rate) Schemes() []string {
	return []string{SchemeAll, SchemeProportion}
}

// Fit adds the mean per-label spike count of each neuron to its rates and
// re-derives proportions and assignments.
func (r *Rate) Fit(counts [][]float64, labels []int) error {
	if len(counts) != len(labels) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrShape, len(counts), len(labels))
	}
	if err := checkWidth(counts, r.Neurons); err != nil {
		return err
	}
	for c := 0; c < r.Classes; c++ {
		nLabeled := 0
		sums := make([]float64, r.Neurons)
		for i, l := range labels {
			if l != c {
				continue
			}
			nLabeled++
			for j, v := range counts[i] {
				sums[j] += v
			}
		}
		if nLabeled == 0 {
			continue
		}
		for j := 0; j < r.Neurons; j++ {
			r.rates[j][c] = r.Alpha*r.rates[j][c] + sums[j]/float64(nLabeled)
		}
	}
	for j := 0; j < r.Neurons; j++ {
		total := 0.0
		for _, v := range r.rates[j] {
			total += v
		}
		for c := range r.proportions[j] {
			if total > 0 {
				r.proportions[j][c] = r.rates[j][c] / total
			} else {
				r.proportions[j][c] = 0
			}
		}
		r.assignments[j] = argmax(r.proportions[j])
	}
	return nil
}

func (r *Rate) Predict(counts [][]float64) (map[string][]int, error) {
	if err := checkWidth(counts, r.Neurons); err != nil {
		return nil, err
	}
	nAssigned := make([]int, r.Classes)
	for _, a := range r.assignments {
		if a >= 0 && a < r.Classes {
			nAssigned[a]++
		}
	}
	all := make([]int, len(counts))
	prop := make([]int, len(counts))
	for i, row := range counts {
		allRates := make([]float64, r.Classes)
		propRates := make([]float64, r.Classes)
		for j, v := range row {
			a := r.assignments[j]
			if a < 0 || a >= r.Classes {
				continue
			}
			allRates[a] += v
			propRates[a] += r.proportions[j][a] * v
		}
		for c := 0; c < r.Classes; c++ {
			if nAssigned[c] > 0 {
				allRates[c] /= float64(nAssigned[c])
				propRates[c] /= float64(nAssigned[c])
			}
		}
		all[i] = argmax(allRates)
		prop[i] = argmax(propRates)
	}
	return map[string][]int{SchemeAll: all, SchemeProportion: prop}, nil
}

func (r *Rate) Assignments() []int {
	return append([]int(nil), r.assignments...)
}

func (r *Rate) State() model.ClassifierState {
	return model.ClassifierState{
		VersionedRecord: versioned(),
		Kind:            model.ClassifierRate,
		Classes:         r.Classes,
		Assignments:     r.Assignments(),
		Proportions:     copyRows(r.proportions),
		Rates:           copyRows(r.rates),
	}
}

func rateFromState(s model.ClassifierState) (*Rate, error) {
	n := len(s.Assignments)
	if s.Classes <= 0 || n == 0 || len(s.Proportions) != n || len(s.Rates) != n {
		return nil, fmt.Errorf("%w: rate state has %d assignments, %d proportions, %d rates",
			ErrShape, n, len(s.Proportions), len(s.Rates))
	}
	r := NewRate(s.Classes, n)
	copy(r.assignments, s.Assignments)
	for j := 0; j < n; j++ {
		if len(s.Proportions[j]) != s.Classes || len(s.Rates[j]) != s.Classes {
			return nil, fmt.Errorf("%w: rate state row %d", ErrShape, j)
		}
		copy(r.proportions[j], s.Proportions[j])
		copy(r.rates[j], s.Rates[j])
	}
	return r, nil
}

func copyRows(rows [][]float64) [][]float64 {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = append([]float64(nil), row...)
	}
	return out
}
