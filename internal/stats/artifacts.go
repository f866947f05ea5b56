// Package stats writes per-run artifacts: config, fitness history, the
// best line and its velocity profile, as JSON/CSV plus optional plots.
package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"apexline/internal/config"
	"apexline/internal/model"
)

const (
	configFile      = "config.json"
	fitnessFile     = "fitness.csv"
	diagnosticsFile = "diagnostics.json"
	bestLineFile    = "best_line.csv"
	velocityFile    = "velocity.csv"
	summaryFile     = "summary.json"
)

// RunArtifacts is everything written for one run.
type RunArtifacts struct {
	Run              model.RunRecord
	Config           config.Config
	BestByGeneration []float64
	Diagnostics      []model.GenerationDiagnostics
	Best             model.BestLine
}

// Write persists the artifacts under baseDir/<runID>/ and returns the
// run directory.
func Write(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}
	dir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(dir, configFile), artifacts.Config); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, diagnosticsFile), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(dir, summaryFile), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeFitnessCSV(filepath.Join(dir, fitnessFile), artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if err := writeLineCSV(filepath.Join(dir, bestLineFile), artifacts.Best.Vertices); err != nil {
		return "", err
	}
	if err := writeVelocityCSV(filepath.Join(dir, velocityFile), artifacts.Best.Velocity); err != nil {
		return "", err
	}
	return dir, nil
}

// ReadSummary loads the persisted run record from a run directory.
func ReadSummary(baseDir, runID string) (model.RunRecord, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, summaryFile))
	if err != nil {
		return model.RunRecord{}, err
	}
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func writeFitnessCSV(path string, history []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, fitness := range history {
		rec := []string{strconv.Itoa(i + 1), strconv.FormatFloat(fitness, 'g', -1, 64)}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeLineCSV(path string, vertices []model.Vertex) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"x", "y", "z"}); err != nil {
		return err
	}
	for _, v := range vertices {
		rec := []string{
			strconv.FormatFloat(v.X, 'f', -1, 64),
			strconv.FormatFloat(v.Y, 'f', -1, 64),
			strconv.FormatFloat(v.Z, 'f', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func writeVelocityCSV(path string, profile []model.VelocityPoint) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"distance_m", "speed_mps", "corner_cap_mps", "segment_time_s"}); err != nil {
		return err
	}
	for _, p := range profile {
		rec := []string{
			strconv.FormatFloat(p.DistanceMeters, 'f', 3, 64),
			strconv.FormatFloat(p.SpeedMPS, 'f', 3, 64),
			strconv.FormatFloat(p.CornerCapMPS, 'f', 3, 64),
			strconv.FormatFloat(p.SegmentTimeSec, 'g', -1, 64),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
