package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/djsaunde/bindsnet-experiments/internal/config"
	"github.com/djsaunde/bindsnet-experiments/pkg/experiments"
)

func newLocallyConnectedCmd(exec executor) *cobra.Command {
	cfg := experiments.DefaultLocallyConnected()
	var test bool
	cmd := &cobra.Command{
		Use:     "locally-connected",
		Aliases: []string{"lc"},
		Short:   "Locally-connected network read out by logistic regression",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd, &cfg); err != nil {
				return err
			}
			if test {
				cfg.Train = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return exec(cmd, cfg)
		},
	}
	fs := cmd.Flags()
	bindCommon(fs, &cfg.Common)
	fs.IntSliceVar(&cfg.KernelSize, "kernel-size", cfg.KernelSize, "Receptive field side, or rows,cols")
	fs.IntSliceVar(&cfg.Stride, "stride", cfg.Stride, "Receptive field stride, or rows,cols")
	fs.IntVar(&cfg.NFilters, "n-filters", cfg.NFilters, "Filters per receptive field location")
	fs.IntVar(&cfg.Crop, "crop", cfg.Crop, "Pixels cropped from every image border")
	fs.Float64Var(&cfg.LR, "lr", cfg.LR, "Post-synaptic learning rate")
	fs.Float64Var(&cfg.LRDecay, "lr-decay", cfg.LRDecay, "Learning rate factor applied after every refit")
	fs.Float64Var(&cfg.Inhib, "inhib", cfg.Inhib, "Inhibition between filters sharing a location")
	fs.Float64Var(&cfg.ThetaPlus, "theta-plus", cfg.ThetaPlus, "Threshold increase per spike")
	fs.Float64Var(&cfg.ThetaDecay, "theta-decay", cfg.ThetaDecay, "Threshold decay rate")
	fs.Float64Var(&cfg.Norm, "norm", cfg.Norm, "Mean input weight per receptive field")
	fs.BoolVar(&test, "test", false, "Evaluate the trained checkpoint instead of training")
	return cmd
}

func newDiehlCookCmd(exec executor) *cobra.Command {
	cfg := experiments.DefaultDiehlCook()
	var test bool
	cmd := &cobra.Command{
		Use:     "diehl-cook",
		Aliases: []string{"dc"},
		Short:   "Diehl & Cook (2015) network read out by label assignment",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := resolve(cmd, &cfg); err != nil {
				return err
			}
			if test {
				cfg.Train = false
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return exec(cmd, cfg)
		},
	}
	fs := cmd.Flags()
	bindCommon(fs, &cfg.Common)
	fs.IntVar(&cfg.NNeurons, "n-neurons", cfg.NNeurons, "Excitatory and inhibitory neurons")
	fs.Float64Var(&cfg.Excite, "excite", cfg.Excite, "Excitatory to inhibitory weight")
	fs.Float64Var(&cfg.Inhib, "inhib", cfg.Inhib, "Inhibitory to excitatory weight")
	fs.BoolVar(&test, "test", false, "Evaluate the trained checkpoint instead of training")
	return cmd
}

func bindCommon(fs *pflag.FlagSet, c *config.Common) {
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed")
	fs.IntVar(&c.NTrain, "n-train", c.NTrain, "Training examples")
	fs.IntVar(&c.NTest, "n-test", c.NTest, "Test examples")
	fs.IntVar(&c.Time, "time", c.Time, "Simulation time per example (ms)")
	fs.Float64Var(&c.Dt, "dt", c.Dt, "Simulation timestep (ms)")
	fs.Float64Var(&c.Intensity, "intensity", c.Intensity, "Input intensity scale")
	fs.IntVar(&c.ProgressInterval, "progress-interval", c.ProgressInterval, "Examples between progress lines")
	fs.IntVar(&c.UpdateInterval, "update-interval", c.UpdateInterval, "Examples between evaluations")
	fs.BoolVar(&c.Train, "train", c.Train, "Train the network")
	fs.BoolVar(&c.Plot, "plot", c.Plot, "Render curve and weight plots at every evaluation")
	fs.BoolVar(&c.GPU, "gpu", c.GPU, "Request gpu execution (ignored)")
}

// resolve overlays the --config file onto target and then re-applies every
// flag set on the command line, so flags win over the file.
func resolve(cmd *cobra.Command, target config.Experiment) error {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		return nil
	}
	type setFlag struct {
		flag  *pflag.Flag
		value string
		slice []string
	}
	var set []setFlag
	cmd.Flags().Visit(func(f *pflag.Flag) {
		s := setFlag{flag: f, value: f.Value.String()}
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			s.slice = sv.GetSlice()
		}
		set = append(set, s)
	})
	if err := config.LoadFile(path, target); err != nil {
		return err
	}
	for _, s := range set {
		if sv, ok := s.flag.Value.(pflag.SliceValue); ok {
			if err := sv.Replace(s.slice); err != nil {
				return fmt.Errorf("flag --%s: %w", s.flag.Name, err)
			}
			continue
		}
		if err := s.flag.Value.Set(s.value); err != nil {
			return fmt.Errorf("flag --%s: %w", s.flag.Name, err)
		}
	}
	return nil
}
