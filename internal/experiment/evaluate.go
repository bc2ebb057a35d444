package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/djsaunde/bindsnet-experiments/internal/classify"
	"github.com/djsaunde/bindsnet-experiments/internal/config"
	"github.com/djsaunde/bindsnet-experiments/internal/logging"
	"github.com/djsaunde/bindsnet-experiments/internal/model"
	"github.com/djsaunde/bindsnet-experiments/internal/record"
	"github.com/djsaunde/bindsnet-experiments/internal/stats"
	"github.com/djsaunde/bindsnet-experiments/internal/storage"
)

// evaluate scores the interval ending at example i, lets the phase act on
// the new accuracies and rewrites the curves. The final flush passes
// i = n_examples with final set.
func (c *core) evaluate(ctx context.Context, ph phase, st *RunState, i int, final bool) error {
	interval := c.base.UpdateInterval
	labels := record.IntervalLabels(st.Set.Labels, i, interval)
	counts := c.intervalCounts(st, i)

	preds, err := st.Classifier.Predict(counts)
	if err != nil {
		return fmt.Errorf("predict: %w", err)
	}
	for _, scheme := range st.Curves.Schemes() {
		if err := st.Curves.Append(scheme, classify.Accuracy(labels, preds[scheme])); err != nil {
			return err
		}
		st.Predictions[scheme] = append(st.Predictions[scheme], preds[scheme]...)
		c.logger.Log(ctx, logging.LevelTrace, "predictions", "example", i, "scheme", scheme, "predicted", preds[scheme])
	}
	st.Evaluations++
	c.logCurves(st.Curves, i)

	if err := ph.afterPredict(ctx, c, st, i, final); err != nil {
		return err
	}
	if err := stats.WriteCurves(c.layout.CurvesPath(c.stem), stats.CurvesArtifact{
		Curves:         st.Curves,
		UpdateInterval: interval,
		NExamples:      c.base.NExamples(),
	}); err != nil {
		return fmt.Errorf("write curves: %w", err)
	}
	if c.base.Plot {
		c.plot(st)
	}
	return nil
}

// intervalCounts returns the spike counts of the interval ending at i.
func (c *core) intervalCounts(st *RunState, i int) [][]float64 {
	if c.arch.Cumulative() {
		counts, _ := st.History.Window(i-c.base.UpdateInterval, i)
		return counts
	}
	return st.Ring.Counts(st.Net.Roles().Excitatory.N)
}

func (c *core) refit(st *RunState, i int) error {
	if c.arch.Cumulative() {
		counts, labels := st.History.Window(0, i)
		return st.Classifier.Fit(counts, labels)
	}
	labels := record.IntervalLabels(st.Set.Labels, i, c.base.UpdateInterval)
	return st.Classifier.Fit(st.Ring.Counts(st.Net.Roles().Excitatory.N), labels)
}

func (c *core) checkpoint(ctx context.Context, st *RunState, accuracy float64) error {
	cp := model.Checkpoint{
		Name:       c.identity,
		Accuracy:   accuracy,
		SavedAtUTC: c.opts.Now().UTC().Format(time.RFC3339),
		Network:    st.Net.Snapshot(),
		Classifier: st.Classifier.State(),
	}
	if err := c.opts.Store.SaveCheckpoint(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint: %w", err)
	}
	attrs := []any{"accuracy", accuracy}
	if data, err := storage.EncodeCheckpoint(cp); err == nil {
		attrs = append(attrs, "size", humanize.Bytes(uint64(len(data))))
	}
	c.logger.Info("new best accuracy, saved checkpoint", attrs...)
	return nil
}

func (c *core) logCurves(curves *stats.Curves, i int) {
	for _, scheme := range curves.Schemes() {
		s := curves.Summarize(scheme)
		c.logger.Info("accuracy",
			"example", humanizeCount(i),
			"scheme", scheme,
			"last", fmt.Sprintf("%.2f", s.Last),
			"average", fmt.Sprintf("%.2f", s.Mean),
			"best", fmt.Sprintf("%.2f", s.Best),
		)
	}
}

// plot failures are logged and never end the run.
func (c *core) plot(st *RunState) {
	title := fmt.Sprintf("%s %s", c.exp.Architecture(), c.base.Mode())
	if err := stats.PlotCurves(c.layout.PlotPath(c.stem, "curves"), title, st.Curves, c.base.UpdateInterval); err != nil {
		c.logger.Warn("plot curves failed", "err", err)
	}
	img, err := c.arch.WeightImage(st.Net)
	if err != nil {
		c.logger.Warn("weight image failed", "err", err)
		return
	}
	if err := stats.PlotWeights(c.layout.PlotPath(c.stem, "weights"), title, img); err != nil {
		c.logger.Warn("plot weights failed", "err", err)
	}
}

func (c *core) finalize(st *RunState, started time.Time) (Result, error) {
	n := c.base.NExamples()
	means := make(map[string]float64, len(st.Curves.Schemes()))
	for _, scheme := range st.Curves.Schemes() {
		means[scheme] = st.Curves.Summarize(scheme).Mean
		c.logger.Info("average accuracy", "scheme", scheme, "mean", fmt.Sprintf("%.2f", means[scheme]))
	}

	summary := c.arch.Summary(st.Curves, c.base.Train)
	if err := stats.AppendResultRow(
		c.layout.ResultsPath(c.base.Train),
		config.Header(c.exp),
		config.Row(c.exp, summary),
	); err != nil {
		return Result{}, fmt.Errorf("write results: %w", err)
	}

	// History labels are the dataset labels cycled to n examples.
	labels := st.History.Labels()
	confusion := stats.ConfusionArtifact{Classes: config.NClasses, Matrices: map[string][][]int{}}
	for scheme, preds := range st.Predictions {
		confusion.Matrices[scheme] = classify.Confusion(labels, preds, config.NClasses)
	}
	if err := stats.WriteConfusion(c.layout.ConfusionPath(c.stem), confusion); err != nil {
		return Result{}, fmt.Errorf("write confusion: %w", err)
	}

	best := 0.0
	for _, scheme := range st.Curves.Schemes() {
		if s := st.Curves.Summarize(scheme); s.Best > best {
			best = s.Best
		}
	}
	finished := c.opts.Now()
	result := Result{
		RunID:       uuid.NewString(),
		Identity:    c.identity,
		Mode:        c.base.Mode(),
		Examples:    n,
		Evaluations: st.Evaluations,
		Retries:     st.Retries,
		Watermark:   st.Watermark,
		Curves:      st.Curves,
		Summary:     summary,
	}
	if err := stats.AppendRunIndex(c.layout.ResultsDir(), stats.RunIndexEntry{
		RunID:           result.RunID,
		Model:           c.exp.Architecture(),
		Dataset:         c.layout.Dataset,
		Identity:        c.identity,
		Mode:            string(result.Mode),
		Examples:        n,
		Evaluations:     st.Evaluations,
		MeanAccuracy:    means,
		BestAccuracy:    best,
		DurationSeconds: finished.Sub(started).Seconds(),
		CreatedAtUTC:    finished.UTC().Format(time.RFC3339Nano),
	}); err != nil {
		return Result{}, fmt.Errorf("write run index: %w", err)
	}
	c.logger.Info("complete", "run_id", result.RunID, "examples", humanizeCount(n), "retries", st.Retries)
	return result, nil
}
