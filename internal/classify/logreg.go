package classify

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/djsaunde/bindsnet-experiments/internal/model"
)

const defaultMaxIter = 1000

// LogReg is multinomial logistic regression with an L2 penalty of strength
// 1/C on the coefficients, fitted by L-BFGS from the current parameters.
type LogReg struct {
	Classes  int
	Features int
	C        float64
	MaxIter  int

	coef      *mat.Dense
	intercept []float64
}

// NewLogReg returns a zero-initialized model, which predicts class 0 for
// every input until fitted.
func NewLogReg(classes, features int) *LogReg {
	return &LogReg{
		Classes:   classes,
		Features:  features,
		C:         1,
		MaxIter:   defaultMaxIter,
		coef:      mat.NewDense(classes, features, nil),
		intercept: make([]float64, classes),
	}
}

func (m *LogReg) Schemes() []string {
	return []string{SchemeLogReg}
}

func (m *LogReg) decision(counts [][]float64) *mat.Dense {
	x := mat.NewDense(len(counts), m.Features, nil)
	for i, row := range counts {
		x.SetRow(i, row)
	}
	var z mat.Dense
	z.Mul(x, m.coef.T())
	for i := 0; i < len(counts); i++ {
		floats.Add(z.RawRowView(i), m.intercept)
	}
	return &z
}

func (m *LogReg) Predict(counts [][]float64) (map[string][]int, error) {
	if err := checkWidth(counts, m.Features); err != nil {
		return nil, err
	}
	preds := make([]int, len(counts))
	if len(counts) > 0 {
		z := m.decision(counts)
		for i := range preds {
			preds[i] = argmax(z.RawRowView(i))
		}
	}
	return map[string][]int{SchemeLogReg: preds}, nil
}

// Fit minimizes the penalized cross-entropy over counts starting from the
// current parameters.
func (m *LogReg) Fit(counts [][]float64, labels []int) error {
	if len(counts) == 0 {
		return nil
	}
	if len(counts) != len(labels) {
		return fmt.Errorf("%w: %d rows but %d labels", ErrShape, len(counts), len(labels))
	}
	if err := checkWidth(counts, m.Features); err != nil {
		return err
	}
	k, d, n := m.Classes, m.Features, len(counts)
	x := mat.NewDense(n, d, nil)
	for i, row := range counts {
		x.SetRow(i, row)
	}
	y := mat.NewDense(n, k, nil)
	for i, l := range labels {
		if l < 0 || l >= k {
			return fmt.Errorf("%w: label %d outside [0, %d)", ErrShape, l, k)
		}
		y.Set(i, l, 1)
	}
	penalty := 1 / m.C
	if m.C <= 0 {
		penalty = 1
	}

	nCoef := k * d
	unpack := func(params []float64) (*mat.Dense, []float64) {
		return mat.NewDense(k, d, params[:nCoef]), params[nCoef:]
	}
	// probs fills p with softmax(X W^T + b) and returns the summed
	// negative log likelihood.
	p := mat.NewDense(n, k, nil)
	probs := func(params []float64) float64 {
		w, b := unpack(params)
		p.Mul(x, w.T())
		nll := 0.0
		for i := 0; i < n; i++ {
			row := p.RawRowView(i)
			floats.Add(row, b)
			lse := floats.LogSumExp(row)
			for j := range row {
				row[j] = math.Exp(row[j] - lse)
			}
			nll -= math.Log(math.Max(row[labels[i]], 1e-300))
		}
		return nll
	}

	problem := optimize.Problem{
		Func: func(params []float64) float64 {
			nll := probs(params)
			w := params[:nCoef]
			return nll + 0.5*penalty*floats.Dot(w, w)
		},
		Grad: func(grad, params []float64) {
			probs(params)
			var diff mat.Dense
			diff.Sub(p, y)
			gw := mat.NewDense(k, d, grad[:nCoef])
			gw.Mul(diff.T(), x)
			floats.AddScaled(grad[:nCoef], penalty, params[:nCoef])
			gb := grad[nCoef:]
			for j := range gb {
				gb[j] = 0
			}
			for i := 0; i < n; i++ {
				floats.Add(gb, diff.RawRowView(i))
			}
		},
	}

	x0 := make([]float64, nCoef+k)
	for i := 0; i < k; i++ {
		copy(x0[i*d:(i+1)*d], m.coef.RawRowView(i))
	}
	copy(x0[nCoef:], m.intercept)

	result, err := optimize.Minimize(problem, x0, &optimize.Settings{MajorIterations: m.MaxIter}, &optimize.LBFGS{})
	if result == nil {
		return fmt.Errorf("fit logistic regression: %w", err)
	}
	for _, v := range result.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("fit logistic regression: non-finite parameters (status %v)", result.Status)
		}
	}
	w, b := unpack(result.X)
	m.coef = mat.DenseCopyOf(w)
	m.intercept = append([]float64(nil), b...)
	return nil
}

// Coef returns a copy of the coefficient matrix as rows per class.
func (m *LogReg) Coef() [][]float64 {
	out := make([][]float64, m.Classes)
	for i := range out {
		out[i] = append([]float64(nil), m.coef.RawRowView(i)...)
	}
	return out
}

func (m *LogReg) Intercept() []float64 {
	return append([]float64(nil), m.intercept...)
}

func (m *LogReg) State() model.ClassifierState {
	return model.ClassifierState{
		VersionedRecord: versioned(),
		Kind:            model.ClassifierLogReg,
		Classes:         m.Classes,
		Coef:            m.Coef(),
		Intercept:       m.Intercept(),
	}
}

func logRegFromState(s model.ClassifierState) (*LogReg, error) {
	if s.Classes <= 0 || len(s.Coef) != s.Classes || len(s.Intercept) != s.Classes {
		return nil, fmt.Errorf("%w: logreg state has %d coefficient rows and %d intercepts for %d classes",
			ErrShape, len(s.Coef), len(s.Intercept), s.Classes)
	}
	features := len(s.Coef[0])
	m := NewLogReg(s.Classes, features)
	for i, row := range s.Coef {
		if len(row) != features {
			return nil, fmt.Errorf("%w: ragged coefficient row %d", ErrShape, i)
		}
		m.coef.SetRow(i, row)
	}
	copy(m.intercept, s.Intercept)
	return m, nil
}
