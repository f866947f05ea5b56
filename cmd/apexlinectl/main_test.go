package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunRequiresCommand(t *testing.T) {
	err := run(context.Background(), nil)
	if err == nil {
		t.Fatal("expected usage error")
	}
	if !strings.Contains(err.Error(), "usage: apexlinectl") {
		t.Fatalf("error does not carry usage text: %v", err)
	}
}

func TestRunUnknownCommand(t *testing.T) {
	err := run(context.Background(), []string{"optimise"})
	if err == nil || !strings.Contains(err.Error(), "unknown command: optimise") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTrackInfoSynthetic(t *testing.T) {
	if err := run(context.Background(), []string{"track-info", "-track", "circle"}); err != nil {
		t.Fatalf("track-info: %v", err)
	}
}

func TestTrackInfoRequiresSource(t *testing.T) {
	err := run(context.Background(), []string{"track-info"})
	if err == nil || !strings.Contains(err.Error(), "-track or -track-csv") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestTrackInfoCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.csv")
	data := "x,y,z,width\n0,0,0,10\n100,0,0,10\n100,100,0,10\n0,100,0,10\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := run(context.Background(), []string{"track-info", "-track-csv", path}); err != nil {
		t.Fatalf("track-info: %v", err)
	}
}

func TestPlotRequiresRunID(t *testing.T) {
	err := run(context.Background(), []string{"plot"})
	if err == nil || !strings.Contains(err.Error(), "-run is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestFitnessRequiresRunID(t *testing.T) {
	err := run(context.Background(), []string{"fitness"})
	if err == nil || !strings.Contains(err.Error(), "-run is required") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunCommandRejectsInvalidOverride(t *testing.T) {
	err := run(context.Background(), []string{"run", "-strategy", "hill_climb"})
	if err == nil {
		t.Fatal("expected validation error for unknown strategy")
	}
}
