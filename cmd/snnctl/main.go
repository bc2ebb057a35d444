package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/djsaunde/bindsnet-experiments/internal/logging"
	"github.com/djsaunde/bindsnet-experiments/pkg/experiments"
)

var version = "0.1.0-dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := newRootCmd(runExperiment)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// executor runs a fully resolved experiment configuration.
type executor func(cmd *cobra.Command, exp experiments.Experiment) error

func newRootCmd(exec executor) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "snnctl",
		Short: "Train and test spiking networks on MNIST",
		Long: `snnctl trains spiking neural networks on MNIST with unsupervised STDP and
measures them through a readout: logistic regression for the
locally-connected network, rate-based label assignment for the
Diehl & Cook (2015) network.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("root", ".", "Directory holding data, params, curves, results, confusion and plots")
	rootCmd.PersistentFlags().String("data-dir", "", "MNIST idx directory (default <root>/data/MNIST)")
	rootCmd.PersistentFlags().String("dataset", "mnist", "Dataset: mnist or synthetic")
	rootCmd.PersistentFlags().String("store", "file", "Checkpoint store: file, memory or sqlite")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: info, debug or trace")
	rootCmd.PersistentFlags().String("config", "", "YAML file with experiment parameters")

	rootCmd.AddCommand(
		newLocallyConnectedCmd(exec),
		newDiehlCookCmd(exec),
		newRunsCmd(),
		newInspectCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

func newClient(cmd *cobra.Command) (*experiments.Client, error) {
	root, _ := cmd.Flags().GetString("root")
	dataDir, _ := cmd.Flags().GetString("data-dir")
	dataset, _ := cmd.Flags().GetString("dataset")
	store, _ := cmd.Flags().GetString("store")
	level, _ := cmd.Flags().GetString("log-level")
	return experiments.New(experiments.Options{
		Root:      root,
		DataDir:   dataDir,
		Dataset:   dataset,
		StoreKind: store,
		Logger:    logging.NewLogger(level, cmd.ErrOrStderr()),
	})
}

func runExperiment(cmd *cobra.Command, exp experiments.Experiment) error {
	client, err := newClient(cmd)
	if err != nil {
		return err
	}
	result, err := client.Run(cmd.Context(), exp)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s run %s complete\n", result.Mode, result.RunID)
	fmt.Fprintf(out, "identity: %s\n", result.Identity)
	for i, column := range exp.SummaryColumns() {
		if i < len(result.Summary) {
			fmt.Fprintf(out, "%s: %.2f\n", column, result.Summary[i])
		}
	}
	return nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "snnctl version %s\n", version)
		},
	}
}
