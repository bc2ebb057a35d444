// Package experiment drives one training or test run of a spiking network
// over a labelled image stream, evaluating a readout classifier every
// update interval.
package experiment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/djsaunde/bindsnet-experiments/internal/classify"
	"github.com/djsaunde/bindsnet-experiments/internal/config"
	"github.com/djsaunde/bindsnet-experiments/internal/dataset"
	"github.com/djsaunde/bindsnet-experiments/internal/encoding"
	"github.com/djsaunde/bindsnet-experiments/internal/logging"
	"github.com/djsaunde/bindsnet-experiments/internal/record"
	"github.com/djsaunde/bindsnet-experiments/internal/snn"
	"github.com/djsaunde/bindsnet-experiments/internal/stats"
	"github.com/djsaunde/bindsnet-experiments/internal/storage"
)

// ErrCheckpointNotFound is returned by test runs when no checkpoint is stored
// under the run identity.
var ErrCheckpointNotFound = errors.New("checkpoint not found")

// Options carries the collaborators of a run.
type Options struct {
	Root    string
	Dataset string
	Source  dataset.Source
	Store   storage.Store
	Logger  *slog.Logger
	Now     func() time.Time
}

// Result summarizes a finished run.
type Result struct {
	RunID       string
	Identity    string
	Mode        config.Mode
	Examples    int
	Evaluations int
	Retries     int
	Watermark   float64
	Curves      *stats.Curves
	Summary     []float64
}

// RunState is the mutable state of one run.
type RunState struct {
	Net        *snn.Network
	Classifier classify.Classifier
	Set        *dataset.Set
	Ring       *record.Ring
	History    *record.History
	Curves     *stats.Curves
	// Predictions accumulates every evaluated prediction per scheme.
	Predictions map[string][]int
	// Watermark is the best latest-accuracy seen; train mode only.
	Watermark   float64
	Evaluations int
	Retries     int
}

// Runner executes a run to completion.
type Runner interface {
	Run(ctx context.Context) (Result, error)
}

// phase is the part of a run that differs between training and testing.
type phase interface {
	setup(ctx context.Context, c *core) (*snn.Network, classify.Classifier, error)
	afterPredict(ctx context.Context, c *core, st *RunState, i int, final bool) error
}

type core struct {
	exp      config.Experiment
	base     config.Common
	arch     Architecture
	encoder  encoding.Encoder
	opts     Options
	layout   stats.Layout
	identity string
	stem     string
	rng      *rand.Rand
	logger   *slog.Logger
}

// TrainRunner builds a fresh network, refits the readout every interval and
// checkpoints whenever accuracy improves.
type TrainRunner struct {
	core
}

// EvalRunner loads the checkpoint named by the run identity, freezes it and
// only measures accuracy.
type EvalRunner struct {
	core
}

// NewRunner validates exp and returns the runner for its mode.
func NewRunner(exp config.Experiment, opts Options) (Runner, error) {
	if err := exp.Validate(); err != nil {
		return nil, err
	}
	arch, err := ArchitectureFor(exp)
	if err != nil {
		return nil, err
	}
	encoder, err := encoding.New(arch.EncoderKind())
	if err != nil {
		return nil, err
	}
	if opts.Source == nil {
		return nil, fmt.Errorf("dataset source is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("checkpoint store is required")
	}
	if opts.Dataset == "" {
		opts.Dataset = config.Dataset
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	base := exp.Base()
	c := core{
		exp:      exp,
		base:     base,
		arch:     arch,
		encoder:  encoder,
		opts:     opts,
		layout:   stats.Layout{Root: opts.Root, Dataset: opts.Dataset, Model: exp.Architecture()},
		identity: config.ModelName(exp),
		stem:     config.ArtifactStem(exp),
		rng:      rand.New(rand.NewSource(base.Seed)),
		logger:   opts.Logger.With("model", exp.Architecture(), "mode", string(base.Mode())),
	}
	if base.Train {
		return &TrainRunner{core: c}, nil
	}
	return &EvalRunner{core: c}, nil
}

func (r *TrainRunner) Run(ctx context.Context) (Result, error) {
	return r.run(ctx, trainPhase{})
}

func (r *EvalRunner) Run(ctx context.Context) (Result, error) {
	return r.run(ctx, evalPhase{})
}

type trainPhase struct{}

func (trainPhase) setup(_ context.Context, c *core) (*snn.Network, classify.Classifier, error) {
	net, err := c.arch.Build(c.rng)
	if err != nil {
		return nil, nil, fmt.Errorf("build network: %w", err)
	}
	return net, c.arch.NewClassifier(net.Roles().Excitatory.N), nil
}

func (trainPhase) afterPredict(ctx context.Context, c *core, st *RunState, i int, final bool) error {
	latest, ok := st.Curves.Latest()
	if ok && latest > st.Watermark {
		if err := c.checkpoint(ctx, st, latest); err != nil {
			return err
		}
		st.Watermark = latest
	}
	if final {
		return nil
	}
	if err := c.refit(st, i); err != nil {
		return fmt.Errorf("refit classifier: %w", err)
	}
	c.arch.AfterRefit(st.Net)
	return nil
}

type evalPhase struct{}

func (evalPhase) setup(ctx context.Context, c *core) (*snn.Network, classify.Classifier, error) {
	cp, ok, err := c.opts.Store.GetCheckpoint(ctx, c.identity)
	if err != nil {
		return nil, nil, fmt.Errorf("load checkpoint: %w", err)
	}
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrCheckpointNotFound, c.identity)
	}
	net, err := snn.Restore(cp.Network)
	if err != nil {
		return nil, nil, fmt.Errorf("restore network: %w", err)
	}
	clf, err := classify.FromState(cp.Classifier)
	if err != nil {
		return nil, nil, fmt.Errorf("restore classifier: %w", err)
	}
	net.Freeze()
	c.logger.Info("loaded checkpoint", "identity", c.identity, "accuracy", cp.Accuracy, "saved_at", cp.SavedAtUTC)
	return net, clf, nil
}

func (evalPhase) afterPredict(context.Context, *core, *RunState, int, bool) error {
	return nil
}

func (c *core) run(ctx context.Context, ph phase) (Result, error) {
	started := c.opts.Now()
	c.logConfiguration()
	if c.base.GPU {
		c.logger.Warn("gpu requested but the simulator runs on the cpu")
	}
	if err := c.layout.Ensure(); err != nil {
		return Result{}, err
	}

	set, err := dataset.Load(ctx, c.opts.Source, c.base.Train)
	if err != nil {
		return Result{}, fmt.Errorf("load dataset: %w", err)
	}
	if set, err = c.arch.Prepare(set); err != nil {
		return Result{}, fmt.Errorf("prepare dataset: %w", err)
	}
	net, clf, err := ph.setup(ctx, c)
	if err != nil {
		return Result{}, err
	}
	if want := set.Side * set.Side; net.Roles().Input.N != want {
		return Result{}, fmt.Errorf("network input has %d neurons, images have %d pixels", net.Roles().Input.N, want)
	}
	st, err := c.newState(net, clf, set)
	if err != nil {
		return Result{}, err
	}

	n := c.base.NExamples()
	interval := c.base.UpdateInterval
	c.logger.Info("begin", "examples", humanizeCount(n))
	tick := c.opts.Now()
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		if i%c.base.ProgressInterval == 0 {
			now := c.opts.Now()
			c.logger.Info("progress", "example", humanizeCount(i), "of", humanizeCount(n), "seconds", now.Sub(tick).Seconds())
			tick = now
		}
		if i%interval == 0 && i > 0 {
			if err := c.evaluate(ctx, ph, st, i, false); err != nil {
				return Result{}, err
			}
		}
		res, err := c.step(ctx, st.Net, st.Set.Vector(i, c.base.Intensity))
		if err != nil {
			return Result{}, fmt.Errorf("example %d: %w", i, err)
		}
		st.Retries += res.Retries
		st.Ring.Put(i, res.Spikes)
		st.History.Append(res.Counts, st.Set.Label(i))
		st.Net.Reset()
	}
	c.logger.Info("progress", "example", humanizeCount(n), "of", humanizeCount(n), "seconds", c.opts.Now().Sub(tick).Seconds())

	if err := c.evaluate(ctx, ph, st, n, true); err != nil {
		return Result{}, err
	}
	return c.finalize(st, started)
}

func (c *core) newState(net *snn.Network, clf classify.Classifier, set *dataset.Set) (*RunState, error) {
	ring, err := record.NewRing(c.base.UpdateInterval)
	if err != nil {
		return nil, err
	}
	schemes := clf.Schemes()
	preds := make(map[string][]int, len(schemes))
	for _, s := range schemes {
		preds[s] = make([]int, 0, c.base.NExamples())
	}
	return &RunState{
		Net:         net,
		Classifier:  clf,
		Set:         set,
		Ring:        ring,
		History:     record.NewHistory(c.base.NExamples()),
		Curves:      stats.NewCurves(schemes...),
		Predictions: preds,
	}, nil
}

func (c *core) logConfiguration() {
	params := c.exp.Params()
	if !c.base.Train {
		params = c.exp.TestParams()
	}
	attrs := make([]any, 0, 2*len(params)+6)
	for _, p := range params {
		attrs = append(attrs, p.Column, p.Value)
	}
	attrs = append(attrs, "train", c.base.Train, "plot", c.base.Plot, "gpu", c.base.GPU)
	c.logger.Info("configuration", attrs...)
}

func humanizeCount(n int) string {
	return humanize.Comma(int64(n))
}
