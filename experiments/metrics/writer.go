package metrics

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Writer persists experiment records as CSV files under a timestamped
// subdirectory of the given base directory.
type Writer struct {
	dir string
}

func NewWriter(baseDir string) (*Writer, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339)
	dir := filepath.Join(baseDir, timestamp)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	return &Writer{dir: dir}, nil
}

// Dir is the directory this writer creates files in.
func (w *Writer) Dir() string {
	return w.dir
}

func (w *Writer) WriteGameRecords(records []GameRecord) error {
	f, err := os.Create(filepath.Join(w.dir, "games.csv"))
	if err != nil {
		return fmt.Errorf("failed to create games file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{"id", "seed", "moves", "outcome", "start_time", "duration"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write games header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.ID,
			strconv.FormatUint(r.Seed, 10),
			strconv.Itoa(r.Moves),
			strconv.FormatFloat(r.Outcome, 'f', -1, 64),
			r.StartTime.UTC().Format(time.RFC3339Nano),
			r.Duration.String(),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write game row: %w", err)
		}
	}
	return nil
}

func (w *Writer) WriteMoveRecords(records []MoveRecord) error {
	f, err := os.Create(filepath.Join(w.dir, "moves.csv"))
	if err != nil {
		return fmt.Errorf("failed to create moves file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	defer writer.Flush()

	header := []string{
		"game", "step", "action", "visits", "equity",
		"simulations", "full_playouts", "rollout_steps", "duration", "tree_reset",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write moves header: %w", err)
	}

	for _, r := range records {
		row := []string{
			r.Game,
			strconv.Itoa(r.Step),
			r.Action,
			strconv.Itoa(r.Visits),
			strconv.FormatFloat(r.Equity, 'f', -1, 64),
			strconv.Itoa(r.Simulations),
			strconv.Itoa(r.FullPlayouts),
			strconv.Itoa(r.RolloutSteps),
			r.Duration.String(),
			strconv.FormatBool(r.TreeReset),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write move row: %w", err)
		}
	}
	return nil
}
