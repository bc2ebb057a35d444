package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/djsaunde/bindsnet-experiments/pkg/experiments"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recorded runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			mode, _ := cmd.Flags().GetString("mode")
			limit, _ := cmd.Flags().GetInt("limit")
			jsonOut, _ := cmd.Flags().GetBool("json")

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			items, err := client.Runs(cmd.Context(), experiments.RunsRequest{Model: model, Mode: mode, Limit: limit})
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			if len(items) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN ID\tMODEL\tMODE\tEXAMPLES\tBEST\tCREATED")
			for _, item := range items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.2f\t%s\n",
					item.RunID, item.Model, item.Mode, item.Examples, item.BestAccuracy, item.CreatedAtUTC)
			}
			return w.Flush()
		},
	}
	cmd.Flags().String("model", "", "Restrict to one model (logreg_locally_connected or diehl_and_cook_2015)")
	cmd.Flags().String("mode", "", "Restrict to train or test runs")
	cmd.Flags().Int("limit", 0, "Maximum runs to list (0 = all)")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Summarize a stored checkpoint, or list checkpoints without --name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			model, _ := cmd.Flags().GetString("model")
			name, _ := cmd.Flags().GetString("name")
			jsonOut, _ := cmd.Flags().GetBool("json")
			out := cmd.OutOrStdout()

			client, err := newClient(cmd)
			if err != nil {
				return err
			}
			if name == "" {
				names, err := client.Checkpoints(cmd.Context(), model)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(out, n)
				}
				return nil
			}
			summary, err := client.Inspect(cmd.Context(), experiments.InspectRequest{Model: model, Name: name})
			if err != nil {
				return err
			}
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(summary)
			}
			fmt.Fprintf(out, "checkpoint: %s\n", summary.Name)
			fmt.Fprintf(out, "accuracy: %.2f (saved %s)\n", summary.Accuracy, summary.SavedAtUTC)
			fmt.Fprintf(out, "classifier: %s\n", summary.Classifier)
			for _, l := range summary.Layers {
				fmt.Fprintf(out, "layer %s: %s x%d\n", l.Name, l.Kind, l.N)
			}
			for _, c := range summary.Connections {
				fmt.Fprintf(out, "connection %s: %dx%d rule=%s\n", c.Key, c.Rows, c.Cols, c.Rule)
			}
			return nil
		},
	}
	cmd.Flags().String("model", "diehl_and_cook_2015", "Model whose checkpoints to read")
	cmd.Flags().String("name", "", "Checkpoint identity")
	cmd.Flags().Bool("json", false, "Output as JSON")
	return cmd
}
