package config

import "fmt"

const ArchDiehlAndCook = "diehl_and_cook_2015"

// DiehlCook configures the Diehl & Cook (2015) network read out by
// rate-based label assignment.
type DiehlCook struct {
	Common   `yaml:",inline"`
	NNeurons int     `yaml:"n_neurons"`
	Excite   float64 `yaml:"excite"`
	Inhib    float64 `yaml:"inhib"`
}

func DefaultDiehlCook() DiehlCook {
	return DiehlCook{
		Common: Common{
			Seed:             0,
			NTrain:           60000,
			NTest:            10000,
			Time:             350,
			Dt:               1.0,
			Intensity:        0.5,
			ProgressInterval: 10,
			UpdateInterval:   250,
			Train:            true,
		},
		NNeurons: 100,
		Excite:   22.5,
		Inhib:    50.0,
	}
}

func (c DiehlCook) Architecture() string { return ArchDiehlAndCook }

func (c DiehlCook) Base() Common { return c.Common }

func (c DiehlCook) Validate() error {
	if err := c.Common.validate(); err != nil {
		return err
	}
	if c.NNeurons <= 0 {
		return fmt.Errorf("%w: n_neurons must be > 0", ErrInvalid)
	}
	return nil
}

// Params includes n_test in both modes, so a test run resolves the same
// identity as the training run it evaluates only when n_test matches.
func (c DiehlCook) Params() []Param {
	return []Param{
		{"random seed", formatInt64(c.Seed)},
		{"no. neurons", formatInt(c.NNeurons)},
		{"no. train", formatInt(c.NTrain)},
		{"no. test", formatInt(c.NTest)},
		{"excitation", FormatFloat(c.Excite)},
		{"inhibition", FormatFloat(c.Inhib)},
		{"sim. time", formatInt(c.Time)},
		{"timestep", FormatFloat(c.Dt)},
		{"intensity", FormatFloat(c.Intensity)},
		{"progress int.", formatInt(c.ProgressInterval)},
		{"update int.", formatInt(c.UpdateInterval)},
	}
}

func (c DiehlCook) TestParams() []Param {
	return c.Params()
}

func (c DiehlCook) SummaryColumns() []string {
	return []string{"all activity", "proportion weighting"}
}
