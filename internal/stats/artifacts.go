package stats

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const runIndexFile = "run_index.json"

// ConfusionArtifact holds one classes x classes matrix per scheme, rows
// indexed by true label.
type ConfusionArtifact struct {
	Classes  int                `json:"classes"`
	Matrices map[string][][]int `json:"matrices"`
}

func WriteConfusion(path string, artifact ConfusionArtifact) error {
	return writeJSON(path, artifact)
}

func ReadConfusion(path string) (ConfusionArtifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return ConfusionArtifact{}, err
	}
	var artifact ConfusionArtifact
	if err := json.Unmarshal(data, &artifact); err != nil {
		return ConfusionArtifact{}, err
	}
	return artifact, nil
}

// AppendResultRow appends row to the CSV at path, writing header first when
// the file does not exist yet.
func AppendResultRow(path string, header, row []string) error {
	if len(header) != len(row) {
		return fmt.Errorf("result row has %d cells, header %d", len(row), len(header))
	}
	_, err := os.Stat(path)
	fresh := errors.Is(err, os.ErrNotExist)
	if err != nil && !fresh {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if fresh {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	if err := writer.Write(row); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

// ReadResults returns the header and data rows of a results CSV.
func ReadResults(path string) ([]string, [][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, nil
	}
	return records[0], records[1:], nil
}

type RunIndexEntry struct {
	RunID           string             `json:"run_id"`
	Model           string             `json:"model"`
	Dataset         string             `json:"dataset"`
	Identity        string             `json:"identity"`
	Mode            string             `json:"mode"`
	Examples        int                `json:"examples"`
	Evaluations     int                `json:"evaluations"`
	MeanAccuracy    map[string]float64 `json:"mean_accuracy"`
	BestAccuracy    float64            `json:"best_accuracy"`
	DurationSeconds float64            `json:"duration_seconds"`
	CreatedAtUTC    string             `json:"created_at_utc"`
}

// maxRunIndexEntries bounds the index; the oldest entries in file order are
// dropped first.
const maxRunIndexEntries = 500

// RunFilter narrows ListRunIndex. Zero fields match every entry.
type RunFilter struct {
	Mode     string
	Identity string
	Limit    int
}

func (f RunFilter) match(e RunIndexEntry) bool {
	return (f.Mode == "" || e.Mode == f.Mode) && (f.Identity == "" || e.Identity == f.Identity)
}

// AppendRunIndex records entry in baseDir's index. An entry with the same
// run id is replaced and moves to the end.
func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return err
	}
	entries = slices.DeleteFunc(entries, func(e RunIndexEntry) bool {
		return e.RunID == entry.RunID
	})
	entries = append(entries, entry)
	if over := len(entries) - maxRunIndexEntries; over > 0 {
		entries = entries[over:]
	}
	return writeJSON(filepath.Join(baseDir, runIndexFile), entries)
}

// ListRunIndex returns the entries matching filter, newest first. Entries
// created at the same instant keep reverse file order.
func ListRunIndex(baseDir string, filter RunFilter) ([]RunIndexEntry, error) {
	entries, err := readRunIndex(baseDir)
	if err != nil {
		return nil, err
	}
	out := make([]RunIndexEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if filter.match(entries[i]) {
			out = append(out, entries[i])
		}
	}
	slices.SortStableFunc(out, func(a, b RunIndexEntry) int {
		return strings.Compare(b.CreatedAtUTC, a.CreatedAtUTC)
	})
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func readRunIndex(baseDir string) ([]RunIndexEntry, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runIndexFile))
	if errors.Is(err, os.ErrNotExist) {
		return []RunIndexEntry{}, nil
	}
	if err != nil {
		return nil, err
	}
	var entries []RunIndexEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode run index: %w", err)
	}
	return entries, nil
}

func writeJSON(path string, value any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
