package config

import (
	"errors"
	"fmt"
	"strings"
)

const (
	Dataset   = "mnist"
	ImageSide = 28
	NClasses  = 10
)

type Mode string

const (
	ModeTrain Mode = "train"
	ModeTest  Mode = "test"
)

var (
	ErrIntervalDivisibility = errors.New("no. examples must be divisible by update_interval")
	ErrInvalid              = errors.New("invalid configuration")
)

// Common holds the hyperparameters shared by every architecture.
type Common struct {
	Seed             int64   `yaml:"seed"`
	NTrain           int     `yaml:"n_train"`
	NTest            int     `yaml:"n_test"`
	Time             int     `yaml:"time"`
	Dt               float64 `yaml:"dt"`
	Intensity        float64 `yaml:"intensity"`
	ProgressInterval int     `yaml:"progress_interval"`
	UpdateInterval   int     `yaml:"update_interval"`
	Train            bool    `yaml:"train"`
	Plot             bool    `yaml:"plot"`
	GPU              bool    `yaml:"gpu"`
}

func (c Common) Mode() Mode {
	if c.Train {
		return ModeTrain
	}
	return ModeTest
}

// NExamples is the number of examples streamed in the configured mode.
func (c Common) NExamples() int {
	if c.Train {
		return c.NTrain
	}
	return c.NTest
}

// Steps is the number of simulation steps per example.
func (c Common) Steps() int {
	return int(float64(c.Time) / c.Dt)
}

func (c Common) validate() error {
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("%w: update_interval must be > 0", ErrInvalid)
	}
	if c.NTrain <= 0 || c.NTest <= 0 {
		return fmt.Errorf("%w: n_train and n_test must be > 0", ErrInvalid)
	}
	if c.NTrain%c.UpdateInterval != 0 || c.NTest%c.UpdateInterval != 0 {
		return fmt.Errorf("%w: n_train=%d n_test=%d update_interval=%d", ErrIntervalDivisibility, c.NTrain, c.NTest, c.UpdateInterval)
	}
	if c.Time <= 0 {
		return fmt.Errorf("%w: time must be > 0", ErrInvalid)
	}
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be > 0", ErrInvalid)
	}
	if c.Steps() <= 0 {
		return fmt.Errorf("%w: time/dt must cover at least one step", ErrInvalid)
	}
	if c.ProgressInterval <= 0 {
		return fmt.Errorf("%w: progress_interval must be > 0", ErrInvalid)
	}
	if c.Intensity < 0 {
		return fmt.Errorf("%w: intensity must be >= 0", ErrInvalid)
	}
	return nil
}

// Param is one identity field: its CSV column and its rendered value.
type Param struct {
	Column string
	Value  string
}

// Experiment is implemented by each architecture's run configuration.
type Experiment interface {
	Architecture() string
	Base() Common
	Validate() error
	// Params lists the identity fields in their fixed order.
	Params() []Param
	// TestParams lists the fields identifying a test run.
	TestParams() []Param
	SummaryColumns() []string
}

// ModelName is the identity string keying every persisted artifact.
func ModelName(exp Experiment) string {
	return joinValues(exp.Params())
}

// ArtifactStem names curves, confusion and plot files for the run's mode.
func ArtifactStem(exp Experiment) string {
	base := exp.Base()
	params := exp.Params()
	if !base.Train {
		params = exp.TestParams()
	}
	return string(base.Mode()) + "_" + joinValues(params)
}

// Header returns the results CSV header for the run's mode.
func Header(exp Experiment) []string {
	params := exp.Params()
	if !exp.Base().Train {
		params = exp.TestParams()
	}
	header := make([]string, 0, len(params)+len(exp.SummaryColumns()))
	for _, p := range params {
		header = append(header, p.Column)
	}
	return append(header, exp.SummaryColumns()...)
}

// Row returns the results CSV row for the run's mode with the given summary
// values appended.
func Row(exp Experiment, summary []float64) []string {
	params := exp.Params()
	if !exp.Base().Train {
		params = exp.TestParams()
	}
	row := make([]string, 0, len(params)+len(summary))
	for _, p := range params {
		row = append(row, p.Value)
	}
	for _, v := range summary {
		row = append(row, FormatFloat(v))
	}
	return row
}

func joinValues(params []Param) string {
	values := make([]string, len(params))
	for i, p := range params {
		values[i] = p.Value
	}
	return strings.Join(values, "_")
}
