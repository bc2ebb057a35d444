package config

import "fmt"

const ArchLocallyConnected = "logreg_locally_connected"

// LocallyConnected configures the locally-connected network read out by
// logistic regression.
type LocallyConnected struct {
	Common     `yaml:",inline"`
	KernelSize []int   `yaml:"kernel_size"`
	Stride     []int   `yaml:"stride"`
	NFilters   int     `yaml:"n_filters"`
	Crop       int     `yaml:"crop"`
	LR         float64 `yaml:"lr"`
	LRDecay    float64 `yaml:"lr_decay"`
	Inhib      float64 `yaml:"inhib"`
	ThetaPlus  float64 `yaml:"theta_plus"`
	ThetaDecay float64 `yaml:"theta_decay"`
	Norm       float64 `yaml:"norm"`
}

func DefaultLocallyConnected() LocallyConnected {
	return LocallyConnected{
		Common: Common{
			Seed:             0,
			NTrain:           60000,
			NTest:            10000,
			Time:             25,
			Dt:               1.0,
			Intensity:        0.5,
			ProgressInterval: 10,
			UpdateInterval:   250,
			Train:            true,
		},
		KernelSize: []int{16},
		Stride:     []int{2},
		NFilters:   25,
		Crop:       4,
		LR:         0.01,
		LRDecay:    1,
		Inhib:      250,
		ThetaPlus:  0.05,
		ThetaDecay: 1e-7,
		Norm:       0.2,
	}
}

func (c LocallyConnected) Architecture() string { return ArchLocallyConnected }

func (c LocallyConnected) Base() Common { return c.Common }

// SideLength is the image side after cropping.
func (c LocallyConnected) SideLength() int {
	return ImageSide - 2*c.Crop
}

// Kernel returns the kernel as a (rows, cols) pair.
func (c LocallyConnected) Kernel() [2]int {
	return pair(c.KernelSize)
}

// StridePair returns the stride as a (rows, cols) pair.
func (c LocallyConnected) StridePair() [2]int {
	return pair(c.Stride)
}

func (c LocallyConnected) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if len(c.KernelSize) != 1 && len(c.KernelSize) != 2 {
		return fmt.Errorf("%w: kernel_size takes one or two side lengths", ErrInvalid)
	}
	if len(c.Stride) != 1 && len(c.Stride) != 2 {
		return fmt.Errorf("%w: stride takes one or two lengths", ErrInvalid)
	}
	if c.Crop < 0 || c.SideLength() <= 0 {
		return fmt.Errorf("%w: crop=%d leaves no image", ErrInvalid, c.Crop)
	}
	k, s := c.Kernel(), c.StridePair()
	for i := 0; i < 2; i++ {
		if k[i] <= 0 || k[i] > c.SideLength() {
			return fmt.Errorf("%w: kernel %v does not fit a %d-pixel side", ErrInvalid, c.KernelSize, c.SideLength())
		}
		if s[i] <= 0 {
			return fmt.Errorf("%w: stride must be > 0", ErrInvalid)
		}
	}
	if c.NFilters <= 0 {
		return fmt.Errorf("%w: n_filters must be > 0", ErrInvalid)
	}
	if c.Norm <= 0 {
		return fmt.Errorf("%w: norm must be > 0", ErrInvalid)
	}
	return nil
}

func (c LocallyConnected) Params() []Param {
	return []Param{
		{"random_seed", formatInt64(c.Seed)},
		{"kernel_size", formatShape(c.KernelSize)},
		{"stride", formatShape(c.Stride)},
		{"n_filters", formatInt(c.NFilters)},
		{"crop", formatInt(c.Crop)},
		{"lr", FormatFloat(c.LR)},
		{"lr_decay", FormatFloat(c.LRDecay)},
		{"n_train", formatInt(c.NTrain)},
		{"inhib", FormatFloat(c.Inhib)},
		{"time", formatInt(c.Time)},
		{"timestep", FormatFloat(c.Dt)},
		{"theta_plus", FormatFloat(c.ThetaPlus)},
		{"theta_decay", FormatFloat(c.ThetaDecay)},
		{"intensity", FormatFloat(c.Intensity)},
		{"norm", FormatFloat(c.Norm)},
		{"progress_interval", formatInt(c.ProgressInterval)},
		{"update_interval", formatInt(c.UpdateInterval)},
	}
}

func (c LocallyConnected) TestParams() []Param {
	params := c.Params()
	out := make([]Param, 0, len(params)+1)
	for _, p := range params {
		out = append(out, p)
		if p.Column == "n_train" {
			out = append(out, Param{"n_test", formatInt(c.NTest)})
		}
	}
	return out
}

func (c LocallyConnected) SummaryColumns() []string {
	return []string{"mean_logreg", "std_logreg"}
}

func pair(v []int) [2]int {
	switch len(v) {
	case 0:
		return [2]int{}
	case 1:
		return [2]int{v[0], v[0]}
	default:
		return [2]int{v[0], v[1]}
	}
}
