package stats

import (
	"os"
	"path/filepath"
)

// Layout resolves the artifact directories of one dataset/model pair under
// Root.
type Layout struct {
	Root    string
	Dataset string
	Model   string
}

func (l Layout) dir(kind string) string {
	return filepath.Join(l.Root, kind, l.Dataset, l.Model)
}

func (l Layout) ParamsDir() string    { return l.dir("params") }
func (l Layout) CurvesDir() string    { return l.dir("curves") }
func (l Layout) ResultsDir() string   { return l.dir("results") }
func (l Layout) ConfusionDir() string { return l.dir("confusion") }
func (l Layout) PlotsDir() string     { return l.dir("plots") }

// DataDir is where the MNIST idx files are expected by default.
func (l Layout) DataDir() string {
	return filepath.Join(l.Root, "data", "MNIST")
}

// Ensure creates every artifact directory.
func (l Layout) Ensure() error {
	for _, dir := range []string{l.ParamsDir(), l.CurvesDir(), l.ResultsDir(), l.ConfusionDir(), l.PlotsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return nil
}

func (l Layout) ResultsPath(train bool) string {
	if train {
		return filepath.Join(l.ResultsDir(), "train.csv")
	}
	return filepath.Join(l.ResultsDir(), "test.csv")
}

func (l Layout) CurvesPath(stem string) string {
	return filepath.Join(l.CurvesDir(), stem+".json")
}

func (l Layout) ConfusionPath(stem string) string {
	return filepath.Join(l.ConfusionDir(), stem+".json")
}

func (l Layout) PlotPath(stem, kind string) string {
	return filepath.Join(l.PlotsDir(), stem+"_"+kind+".png")
}
