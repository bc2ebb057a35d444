package experiment

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/djsaunde/bindsnet-experiments/internal/classify"
	"github.com/djsaunde/bindsnet-experiments/internal/config"
	"github.com/djsaunde/bindsnet-experiments/internal/dataset"
	"github.com/djsaunde/bindsnet-experiments/internal/logging"
	"github.com/djsaunde/bindsnet-experiments/internal/stats"
	"github.com/djsaunde/bindsnet-experiments/internal/storage"
)

func smallDiehlCook() config.DiehlCook {
	cfg := config.DefaultDiehlCook()
	cfg.NTrain = 250
	cfg.NTest = 250
	cfg.UpdateInterval = 250
	cfg.ProgressInterval = 50
	cfg.NNeurons = 10
	cfg.Time = 10
	return cfg
}

func smallLocallyConnected() config.LocallyConnected {
	cfg := config.DefaultLocallyConnected()
	cfg.NTrain = 500
	cfg.NTest = 250
	cfg.UpdateInterval = 250
	cfg.ProgressInterval = 100
	cfg.KernelSize = []int{8}
	cfg.Stride = []int{4}
	cfg.NFilters = 4
	cfg.Time = 5
	return cfg
}

func testOptions(t *testing.T, root, model string) (Options, *storage.FileStore) {
	t.Helper()
	layout := stats.Layout{Root: root, Dataset: config.Dataset, Model: model}
	store := storage.NewFileStore(layout.ParamsDir())
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init store: %v", err)
	}
	return Options{
		Root:   root,
		Source: dataset.Synthetic{Seed: 3, NTrain: 250, NTest: 250},
		Store:  store,
	}, store
}

func TestDiehlCookTrainThenTest(t *testing.T) {
	root := t.TempDir()
	opts, store := testOptions(t, root, config.ArchDiehlAndCook)
	cfg := smallDiehlCook()
	cfg.Plot = true

	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if _, ok := runner.(*TrainRunner); !ok {
		t.Fatalf("expected train runner, got %T", runner)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("train run: %v", err)
	}
	if result.Evaluations != 1 {
		t.Fatalf("expected one evaluation, got %d", result.Evaluations)
	}
	if result.Watermark <= 0 {
		t.Fatalf("expected a positive watermark, got %v", result.Watermark)
	}
	if result.Identity != config.ModelName(cfg) {
		t.Fatalf("unexpected identity %s", result.Identity)
	}
	if _, err := os.Stat(store.NetworkPath(result.Identity)); err != nil {
		t.Fatalf("expected checkpoint file: %v", err)
	}

	layout := stats.Layout{Root: root, Dataset: config.Dataset, Model: config.ArchDiehlAndCook}
	header, rows, err := stats.ReadResults(layout.ResultsPath(true))
	if err != nil {
		t.Fatalf("read train results: %v", err)
	}
	if len(rows) != 1 || header[0] != "random seed" || header[len(header)-1] != "proportion weighting" {
		t.Fatalf("unexpected train results: header=%v rows=%v", header, rows)
	}
	for _, kind := range []string{"curves", "weights"} {
		if _, err := os.Stat(layout.PlotPath(config.ArtifactStem(cfg), kind)); err != nil {
			t.Fatalf("expected %s plot: %v", kind, err)
		}
	}

	cfg.Train = false
	cfg.Plot = false
	runner, err = NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new test runner: %v", err)
	}
	if _, ok := runner.(*EvalRunner); !ok {
		t.Fatalf("expected eval runner, got %T", runner)
	}
	testResult, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("test run: %v", err)
	}
	if testResult.Mode != config.ModeTest || testResult.Watermark != 0 {
		t.Fatalf("unexpected test result: %+v", testResult)
	}
	if _, rows, err := stats.ReadResults(layout.ResultsPath(false)); err != nil || len(rows) != 1 {
		t.Fatalf("expected one test row, got %v err=%v", rows, err)
	}
	confusion, err := stats.ReadConfusion(layout.ConfusionPath(config.ArtifactStem(cfg)))
	if err != nil {
		t.Fatalf("read confusion: %v", err)
	}
	for _, scheme := range []string{classify.SchemeAll, classify.SchemeProportion} {
		total := 0
		for _, row := range confusion.Matrices[scheme] {
			for _, v := range row {
				total += v
			}
		}
		if total != cfg.NTest {
			t.Fatalf("scheme %s: confusion covers %d examples, want %d", scheme, total, cfg.NTest)
		}
	}

	runs, err := stats.ListRunIndex(layout.ResultsDir(), stats.RunFilter{})
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 || runs[0].RunID != testResult.RunID {
		t.Fatalf("expected test run listed first, got %+v", runs)
	}
}

func TestEvalRunnerRequiresCheckpoint(t *testing.T) {
	opts, _ := testOptions(t, t.TempDir(), config.ArchDiehlAndCook)
	cfg := smallDiehlCook()
	cfg.Train = false
	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if _, err := runner.Run(context.Background()); !errors.Is(err, ErrCheckpointNotFound) {
		t.Fatalf("expected ErrCheckpointNotFound, got %v", err)
	}
}

func TestLocallyConnectedTrainRefitsEachInterval(t *testing.T) {
	root := t.TempDir()
	opts, store := testOptions(t, root, config.ArchLocallyConnected)
	cfg := smallLocallyConnected()
	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Evaluations != 2 || len(result.Curves.Series(classify.SchemeLogReg)) != 2 {
		t.Fatalf("expected two logreg evaluations, got %d", result.Evaluations)
	}
	if len(result.Summary) != 2 {
		t.Fatalf("expected mean and std, got %v", result.Summary)
	}
	cp, ok, err := store.GetCheckpoint(context.Background(), result.Identity)
	if err != nil || !ok {
		t.Fatalf("expected checkpoint, ok=%v err=%v", ok, err)
	}
	if cp.Classifier.Kind != "logreg" || cp.Network.Roles.Geometry == nil {
		t.Fatalf("unexpected checkpoint contents: kind=%s geometry=%v", cp.Classifier.Kind, cp.Network.Roles.Geometry)
	}

	layout := stats.Layout{Root: root, Dataset: config.Dataset, Model: config.ArchLocallyConnected}
	curves, meta, err := stats.ReadCurves(layout.CurvesPath(config.ArtifactStem(cfg)))
	if err != nil {
		t.Fatalf("read curves: %v", err)
	}
	if len(curves["logreg"]) != 2 || meta.NExamples != 500 || meta.UpdateInterval != 250 {
		t.Fatalf("unexpected curves artifact: %v %+v", curves, meta)
	}
}

func bestOf(curves *stats.Curves) float64 {
	best := 0.0
	for _, scheme := range curves.Schemes() {
		if s := curves.Summarize(scheme); s.Best > best {
			best = s.Best
		}
	}
	return best
}

func TestCheckpointHoldsBestAccuracy(t *testing.T) {
	opts, store := testOptions(t, t.TempDir(), config.ArchLocallyConnected)
	cfg := smallLocallyConnected()
	cfg.NTrain = 1250
	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Evaluations != 5 {
		t.Fatalf("expected 5 evaluations, got %d", result.Evaluations)
	}
	best := bestOf(result.Curves)
	if best <= 0 || result.Watermark != best {
		t.Fatalf("watermark %v, best accuracy %v (curve %v)", result.Watermark, best, result.Curves.Series(classify.SchemeLogReg))
	}
	cp, ok, err := store.GetCheckpoint(context.Background(), result.Identity)
	if err != nil || !ok {
		t.Fatalf("expected checkpoint, ok=%v err=%v", ok, err)
	}
	if cp.Accuracy != best {
		t.Fatalf("checkpoint accuracy %v, want best %v", cp.Accuracy, best)
	}
}

func TestDiehlCookWrapsShortDataset(t *testing.T) {
	opts, store := testOptions(t, t.TempDir(), config.ArchDiehlAndCook)
	opts.Source = dataset.Synthetic{Seed: 5, NTrain: 300, NTest: 300}
	cfg := smallDiehlCook()
	cfg.NTrain = 1000
	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	result, err := runner.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.Evaluations != 4 {
		t.Fatalf("expected 4 evaluations, got %d", result.Evaluations)
	}
	for _, scheme := range []string{classify.SchemeAll, classify.SchemeProportion} {
		if n := len(result.Curves.Series(scheme)); n != 4 {
			t.Fatalf("scheme %s: expected 4 accuracies, got %d", scheme, n)
		}
	}
	best := bestOf(result.Curves)
	cp, ok, err := store.GetCheckpoint(context.Background(), result.Identity)
	if err != nil || !ok {
		t.Fatalf("expected checkpoint, ok=%v err=%v", ok, err)
	}
	if result.Watermark != best || cp.Accuracy != best {
		t.Fatalf("watermark %v, checkpoint %v, best %v", result.Watermark, cp.Accuracy, best)
	}
}

func TestStepRetriesQuietExamples(t *testing.T) {
	opts, _ := testOptions(t, t.TempDir(), config.ArchLocallyConnected)
	var logs bytes.Buffer
	opts.Logger = logging.NewLogger("trace", &logs)
	cfg := smallLocallyConnected()
	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	r := runner.(*TrainRunner)
	net, err := r.arch.Build(r.rng)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	exc := net.Roles().Excitatory
	exc.Theta[0] = 1
	side := cfg.SideLength()
	res, err := r.step(context.Background(), net, make([]float64, side*side))
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res.Retries != 3 {
		t.Fatalf("expected 3 retries, got %d", res.Retries)
	}
	want := []float64{1, 2, 4, 8}
	if len(res.Scales) != len(want) {
		t.Fatalf("expected scales %v, got %v", want, res.Scales)
	}
	for i := range want {
		if res.Scales[i] != want[i] {
			t.Fatalf("expected scales %v, got %v", want, res.Scales)
		}
	}
	if len(res.Spikes) != cfg.Steps() || len(res.Counts) != exc.N {
		t.Fatalf("unexpected record shape: %d steps, %d counts", len(res.Spikes), len(res.Counts))
	}
	// Adaptation from quiet attempts is kept across retries.
	if exc.Theta[0] < 0.99 {
		t.Fatalf("expected theta to survive retries, got %v", exc.Theta[0])
	}
	if got := strings.Count(logs.String(), "quiet example, retrying"); got != 3 {
		t.Fatalf("expected 3 retry lines, got %d:\n%s", got, logs.String())
	}
	if !strings.Contains(logs.String(), "level=TRACE") {
		t.Fatalf("expected retries logged at trace level:\n%s", logs.String())
	}
}

func TestStepWithoutRetry(t *testing.T) {
	opts, _ := testOptions(t, t.TempDir(), config.ArchDiehlAndCook)
	runner, err := NewRunner(smallDiehlCook(), opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	r := runner.(*TrainRunner)
	net, err := r.arch.Build(r.rng)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	res, err := r.step(context.Background(), net, make([]float64, config.ImageSide*config.ImageSide))
	if err != nil {
		t.Fatalf("step: %v", err)
	}
	if res.Retries != 0 || len(res.Scales) != 1 {
		t.Fatalf("expected a single attempt, got %+v", res.Scales)
	}
}

func TestLearningRateDecayAfterRefit(t *testing.T) {
	cfg := smallLocallyConnected()
	cfg.LRDecay = 0.5
	arch, err := ArchitectureFor(cfg)
	if err != nil {
		t.Fatalf("architecture: %v", err)
	}
	opts, _ := testOptions(t, t.TempDir(), config.ArchLocallyConnected)
	runner, err := NewRunner(cfg, opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	net, err := arch.Build(runner.(*TrainRunner).rng)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	before := net.Roles().Primary.NuPost
	arch.AfterRefit(net)
	if got := net.Roles().Primary.NuPost; got != before*0.5 {
		t.Fatalf("expected nu_post %v, got %v", before*0.5, got)
	}
}

func TestNewRunnerValidates(t *testing.T) {
	opts, _ := testOptions(t, t.TempDir(), config.ArchDiehlAndCook)
	cfg := smallDiehlCook()
	cfg.NTrain = 300
	if _, err := NewRunner(cfg, opts); !errors.Is(err, config.ErrIntervalDivisibility) {
		t.Fatalf("expected divisibility error, got %v", err)
	}
	if _, err := NewRunner(smallDiehlCook(), Options{Store: opts.Store}); err == nil {
		t.Fatal("expected missing source error")
	}
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	opts, _ := testOptions(t, t.TempDir(), config.ArchDiehlAndCook)
	runner, err := NewRunner(smallDiehlCook(), opts)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := runner.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
