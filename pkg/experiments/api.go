// Package experiments is the public entry point for running and inspecting
// spiking-network MNIST experiments.
package experiments

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"

	"github.com/djsaunde/bindsnet-experiments/internal/config"
	"github.com/djsaunde/bindsnet-experiments/internal/dataset"
	"github.com/djsaunde/bindsnet-experiments/internal/experiment"
	"github.com/djsaunde/bindsnet-experiments/internal/logging"
	"github.com/djsaunde/bindsnet-experiments/internal/stats"
	"github.com/djsaunde/bindsnet-experiments/internal/storage"
)

const defaultRoot = "."

type (
	LocallyConnected = config.LocallyConnected
	DiehlCook        = config.DiehlCook
	Experiment       = config.Experiment
	Result           = experiment.Result
)

var (
	DefaultLocallyConnected = config.DefaultLocallyConnected
	DefaultDiehlCook        = config.DefaultDiehlCook
	ErrCheckpointNotFound   = experiment.ErrCheckpointNotFound
)

// Architectures lists every runnable model name.
var Architectures = []string{config.ArchLocallyConnected, config.ArchDiehlAndCook}

type Options struct {
	Root string
	// DataDir overrides <root>/data/MNIST.
	DataDir   string
	Dataset   string
	StoreKind string
	Logger    *slog.Logger
}

type Client struct {
	root      string
	dataDir   string
	dataset   string
	storeKind string
	logger    *slog.Logger
}

func New(opts Options) (*Client, error) {
	root := opts.Root
	if root == "" {
		root = defaultRoot
	}
	kind := opts.Dataset
	if kind == "" {
		kind = dataset.KindMNIST
	}
	if kind != dataset.KindMNIST && kind != dataset.KindSynthetic {
		return nil, fmt.Errorf("%w: %s", dataset.ErrUnknownKind, kind)
	}
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.KindFile
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Client{
		root:      root,
		dataDir:   opts.DataDir,
		dataset:   kind,
		storeKind: storeKind,
		logger:    logger,
	}, nil
}

func (c *Client) layout(model string) stats.Layout {
	return stats.Layout{Root: c.root, Dataset: config.Dataset, Model: model}
}

// openStore returns an initialized checkpoint store for model; callers must
// release it with storage.CloseIfSupported.
func (c *Client) openStore(ctx context.Context, model string) (storage.Store, error) {
	store, err := storage.NewStore(c.storeKind, c.layout(model).ParamsDir())
	if err != nil {
		return nil, err
	}
	if err := store.Init(ctx); err != nil {
		_ = storage.CloseIfSupported(store)
		return nil, err
	}
	return store, nil
}

// Run trains or tests exp, depending on its mode, and returns the summary.
func (c *Client) Run(ctx context.Context, exp Experiment) (Result, error) {
	if err := exp.Validate(); err != nil {
		return Result{}, err
	}
	dataDir := c.dataDir
	if dataDir == "" {
		dataDir = c.layout(exp.Architecture()).DataDir()
	}
	source, err := dataset.NewSource(c.dataset, dataDir, exp.Base().Seed)
	if err != nil {
		return Result{}, err
	}
	store, err := c.openStore(ctx, exp.Architecture())
	if err != nil {
		return Result{}, err
	}
	defer storage.CloseIfSupported(store)

	runner, err := experiment.NewRunner(exp, experiment.Options{
		Root:    c.root,
		Dataset: config.Dataset,
		Source:  source,
		Store:   store,
		Logger:  c.logger,
	})
	if err != nil {
		return Result{}, err
	}
	return runner.Run(ctx)
}

type RunsRequest struct {
	// Model restricts the listing to one architecture; empty lists all.
	Model string
	// Mode is "train", "test" or empty for both.
	Mode  string
	Limit int
}

type RunItem = stats.RunIndexEntry

// Runs lists recorded runs newest first.
func (c *Client) Runs(_ context.Context, req RunsRequest) ([]RunItem, error) {
	models := Architectures
	if req.Model != "" {
		if err := checkModel(req.Model); err != nil {
			return nil, err
		}
		models = []string{req.Model}
	}
	var items []RunItem
	for _, m := range models {
		entries, err := stats.ListRunIndex(c.layout(m).ResultsDir(), stats.RunFilter{Mode: req.Mode})
		if err != nil {
			return nil, err
		}
		items = append(items, entries...)
	}
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAtUTC > items[j].CreatedAtUTC
	})
	if req.Limit > 0 && len(items) > req.Limit {
		items = items[:req.Limit]
	}
	return items, nil
}

type InspectRequest struct {
	Model string
	Name  string
}

type LayerSummary struct {
	Name string
	Kind string
	N    int
}

type ConnectionSummary struct {
	Key  string
	Rows int
	Cols int
	Rule string
	Norm float64
}

type CheckpointSummary struct {
	Model       string
	Name        string
	Accuracy    float64
	SavedAtUTC  string
	Classifier  string
	Layers      []LayerSummary
	Connections []ConnectionSummary
	// Path is set for the file store only.
	Path string
}

// Inspect summarizes the checkpoint stored under req.Name.
func (c *Client) Inspect(ctx context.Context, req InspectRequest) (CheckpointSummary, error) {
	if err := checkModel(req.Model); err != nil {
		return CheckpointSummary{}, err
	}
	if req.Name == "" {
		return CheckpointSummary{}, errors.New("checkpoint name is required")
	}
	store, err := c.openStore(ctx, req.Model)
	if err != nil {
		return CheckpointSummary{}, err
	}
	defer storage.CloseIfSupported(store)

	cp, ok, err := store.GetCheckpoint(ctx, req.Name)
	if err != nil {
		return CheckpointSummary{}, err
	}
	if !ok {
		return CheckpointSummary{}, fmt.Errorf("%w: %s", ErrCheckpointNotFound, req.Name)
	}
	out := CheckpointSummary{
		Model:      req.Model,
		Name:       cp.Name,
		Accuracy:   cp.Accuracy,
		SavedAtUTC: cp.SavedAtUTC,
		Classifier: cp.Classifier.Kind,
	}
	for _, l := range cp.Network.Layers {
		out.Layers = append(out.Layers, LayerSummary{Name: l.Name, Kind: l.Kind, N: l.N})
	}
	for _, conn := range cp.Network.Connections {
		out.Connections = append(out.Connections, ConnectionSummary{
			Key:  conn.Source + "->" + conn.Target,
			Rows: conn.Rows,
			Cols: conn.Cols,
			Rule: conn.Rule,
			Norm: conn.Norm,
		})
	}
	if fs, ok := store.(*storage.FileStore); ok {
		out.Path = filepath.Clean(fs.NetworkPath(cp.Name))
	}
	return out, nil
}

// Checkpoints lists the checkpoint names stored for model.
func (c *Client) Checkpoints(ctx context.Context, model string) ([]string, error) {
	if err := checkModel(model); err != nil {
		return nil, err
	}
	store, err := c.openStore(ctx, model)
	if err != nil {
		return nil, err
	}
	defer storage.CloseIfSupported(store)
	return store.ListCheckpoints(ctx)
}

func checkModel(model string) error {
	for _, m := range Architectures {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("unknown model: %s", model)
}
