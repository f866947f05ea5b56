package storage

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"apexline/internal/model"
)

func sampleRun(id, createdAt string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: Stamp(),
		ID:              id,
		CreatedAtUTC:    createdAt,
		Track:           "oval",
		Strategy:        "mu_plus_lambda",
		Mu:              20,
		Lambda:          40,
		SampleCount:     32,
		Generations:     120,
		GenerationsRun:  120,
		Seed:            7,
		StopReason:      "generation_limit",
		BestLapTimeSec:  61.5,
		BestFitness:     1 / 61.5,
	}
}

func TestMemoryStoreRunLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	run := sampleRun("run-1", "2026-08-30T10:00:00Z")
	require.NoError(t, store.SaveRun(ctx, run))

	got, ok, err := store.GetRun(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, run, got)

	_, ok, err = store.GetRun(ctx, "run-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStoreListRunsOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	times := []string{
		"2026-08-30T10:00:00Z",
		"2026-08-30T12:00:00Z",
		"2026-08-30T11:00:00Z",
	}
	for i, ts := range times {
		require.NoError(t, store.SaveRun(ctx, sampleRun(fmt.Sprintf("run-%d", i), ts)))
	}

	runs, err := store.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "run-2", runs[1].ID)
	assert.Equal(t, "run-0", runs[2].ID)

	limited, err := store.ListRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "run-1", limited[0].ID)
}

func TestMemoryStoreHistoryAndDiagnosticsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	history := []float64{0.01, 0.012, 0.013}
	require.NoError(t, store.SaveFitnessHistory(ctx, "run-1", history))
	history[0] = 99 // must not leak into the store

	got, ok, err := store.GetFitnessHistory(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []float64{0.01, 0.012, 0.013}, got)

	got[1] = 99
	again, _, err := store.GetFitnessHistory(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, 0.012, again[1])

	_, ok, err = store.GetFitnessHistory(ctx, "run-unknown")
	require.NoError(t, err)
	assert.False(t, ok)

	diags := []model.GenerationDiagnostics{{Generation: 1, BestFitness: 0.01, InvalidCount: 2}}
	require.NoError(t, store.SaveDiagnostics(ctx, "run-1", diags))
	gotDiags, ok, err := store.GetDiagnostics(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, diags, gotDiags)
}

func TestMemoryStoreBestLine(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Init(ctx))

	line := model.BestLine{
		VersionedRecord: Stamp(),
		RunID:           "run-1",
		LapTimeSeconds:  61.5,
		Fitness:         1 / 61.5,
		Genes:           []model.Gene{{Offset: 1.2, Sigma: 0.4}},
		Vertices:        []model.Vertex{{X: 1, Y: 2}},
	}
	require.NoError(t, store.SaveBestLine(ctx, line))

	got, ok, err := store.GetBestLine(ctx, "run-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, line, got)

	_, ok, err = store.GetBestLine(ctx, "run-unknown")
	require.NoError(t, err)
	assert.False(t, ok)
}
