package experiment

import (
	"fmt"
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"github.com/djsaunde/bindsnet-experiments/internal/classify"
	"github.com/djsaunde/bindsnet-experiments/internal/config"
	"github.com/djsaunde/bindsnet-experiments/internal/dataset"
	"github.com/djsaunde/bindsnet-experiments/internal/encoding"
	"github.com/djsaunde/bindsnet-experiments/internal/model"
	"github.com/djsaunde/bindsnet-experiments/internal/snn"
	"github.com/djsaunde/bindsnet-experiments/internal/stats"
)

// Architecture supplies everything that differs between the two network
// families; the runner core handles the rest.
type Architecture interface {
	Build(rng *rand.Rand) (*snn.Network, error)
	NewClassifier(neurons int) classify.Classifier
	// EncoderKind names the spike encoder resolved through encoding.New.
	EncoderKind() string
	// Prepare transforms the raw image set before streaming.
	Prepare(set *dataset.Set) (*dataset.Set, error)
	// Retry reports whether quiet examples are re-run with a boosted input.
	Retry() bool
	// Cumulative reports whether the classifier is refit on every example
	// seen so far rather than on the last interval only.
	Cumulative() bool
	// AfterRefit runs after each non-final refit in train mode.
	AfterRefit(net *snn.Network)
	// Summary returns the values of the results CSV summary columns.
	Summary(curves *stats.Curves, train bool) []float64
	WeightImage(net *snn.Network) (*mat.Dense, error)
}

// ArchitectureFor resolves the architecture implementing exp.
func ArchitectureFor(exp config.Experiment) (Architecture, error) {
	switch cfg := exp.(type) {
	case config.LocallyConnected:
		return locallyConnected{cfg: cfg}, nil
	case *config.LocallyConnected:
		return locallyConnected{cfg: *cfg}, nil
	case config.DiehlCook:
		return diehlCook{cfg: cfg}, nil
	case *config.DiehlCook:
		return diehlCook{cfg: *cfg}, nil
	default:
		return nil, fmt.Errorf("unsupported architecture: %s", exp.Architecture())
	}
}

type locallyConnected struct {
	cfg config.LocallyConnected
}

func (a locallyConnected) Build(rng *rand.Rand) (*snn.Network, error) {
	return snn.NewLocallyConnected(snn.LocallyConnectedParams{
		Side:       a.cfg.SideLength(),
		Kernel:     a.cfg.Kernel(),
		Stride:     a.cfg.StridePair(),
		Filters:    a.cfg.NFilters,
		Inhib:      a.cfg.Inhib,
		Dt:         a.cfg.Dt,
		LR:         a.cfg.LR,
		ThetaPlus:  a.cfg.ThetaPlus,
		ThetaDecay: a.cfg.ThetaDecay,
		Norm:       a.cfg.Norm,
		WMin:       0,
		WMax:       1,
	}, rng)
}

func (a locallyConnected) NewClassifier(neurons int) classify.Classifier {
	return classify.NewLogReg(config.NClasses, neurons)
}

func (a locallyConnected) EncoderKind() string {
	return encoding.KindBernoulli
}

func (a locallyConnected) Prepare(set *dataset.Set) (*dataset.Set, error) {
	if a.cfg.Crop == 0 {
		return set, nil
	}
	return set.Crop(a.cfg.Crop)
}

func (a locallyConnected) Retry() bool      { return true }
func (a locallyConnected) Cumulative() bool { return true }

func (a locallyConnected) AfterRefit(net *snn.Network) {
	if primary := net.Roles().Primary; primary != nil && a.cfg.LRDecay != 1 {
		primary.DecayLearningRate(a.cfg.LRDecay)
	}
}

// Summary is the mean and population standard deviation of the logreg
// curve in both modes.
func (a locallyConnected) Summary(curves *stats.Curves, _ bool) []float64 {
	s := curves.Summarize(classify.SchemeLogReg)
	return []float64{s.Mean, s.Std}
}

func (a locallyConnected) WeightImage(net *snn.Network) (*mat.Dense, error) {
	geom := net.Geometry()
	if geom == nil {
		return nil, fmt.Errorf("network %s has no receptive-field geometry", net.Name)
	}
	conn, err := primarySnapshot(net)
	if err != nil {
		return nil, err
	}
	return stats.LocallyConnectedWeights(conn, *geom)
}

type diehlCook struct {
	cfg config.DiehlCook
}

func (a diehlCook) Build(rng *rand.Rand) (*snn.Network, error) {
	return snn.NewDiehlAndCook2015(snn.DefaultDiehlCookParams(a.cfg.NNeurons, a.cfg.Excite, a.cfg.Inhib, a.cfg.Dt), rng)
}

func (a diehlCook) NewClassifier(neurons int) classify.Classifier {
	return classify.NewRate(config.NClasses, neurons)
}

func (a diehlCook) EncoderKind() string {
	return encoding.KindPoisson
}

func (a diehlCook) Prepare(set *dataset.Set) (*dataset.Set, error) {
	return set, nil
}

func (a diehlCook) Retry() bool               { return false }
func (a diehlCook) Cumulative() bool          { return false }
func (a diehlCook) AfterRefit(_ *snn.Network) {}

// Summary is the best accuracy per scheme after training and the mean per
// scheme after testing.
func (a diehlCook) Summary(curves *stats.Curves, train bool) []float64 {
	out := make([]float64, 0, 2)
	for _, scheme := range []string{classify.SchemeAll, classify.SchemeProportion} {
		s := curves.Summarize(scheme)
		if train {
			out = append(out, s.Best)
		} else {
			out = append(out, s.Mean)
		}
	}
	return out
}

func (a diehlCook) WeightImage(net *snn.Network) (*mat.Dense, error) {
	conn, err := primarySnapshot(net)
	if err != nil {
		return nil, err
	}
	return stats.SquareWeights(conn, config.ImageSide)
}

func primarySnapshot(net *snn.Network) (model.ConnectionSnapshot, error) {
	primary := net.Roles().Primary
	if primary == nil {
		return model.ConnectionSnapshot{}, fmt.Errorf("%w: primary connection", snn.ErrMissingRole)
	}
	for _, c := range net.Snapshot().Connections {
		if c.Source == primary.Source.Name && c.Target == primary.Target.Name {
			return c, nil
		}
	}
	return model.ConnectionSnapshot{}, fmt.Errorf("connection %s missing from snapshot", primary.Key())
}
