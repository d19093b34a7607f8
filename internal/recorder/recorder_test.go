package recorder

import (
	"path/filepath"
	"testing"
	"time"

	"BistRadar/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteRecorder_RoundTrip(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "scans.db"), zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	base := time.Date(2024, 3, 1, 18, 30, 0, 0, time.UTC)
	runs := []*ScanRun{
		{ID: "a", Source: model.SourceTelegram, Mode: model.ModeRSI, Target: "UNIVERSE",
			Requested: 56, Analyzed: 54, Skipped: 2, Results: 10, StartedAt: base, Elapsed: 1500 * time.Millisecond},
		{ID: "b", Source: model.SourceHTTP, Mode: model.ModeMovingAverage, Target: "THYAO.IS",
			Requested: 1, Analyzed: 1, Results: 1, StartedAt: base.Add(time.Minute), Elapsed: 200 * time.Millisecond},
		{ID: "c", Source: model.SourceCron, Mode: model.ModeComposite, Target: "UNIVERSE",
			Requested: 56, Analyzed: 40, Skipped: 16, Results: 5, Partial: true, StartedAt: base.Add(2 * time.Minute)},
	}
	for _, r := range runs {
		require.NoError(t, rec.RecordScan(r))
	}

	got, err := rec.RecentScans(2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "c", got[0].ID)
	assert.True(t, got[0].Partial)
	assert.Equal(t, model.SourceCron, got[0].Source)
	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, model.ModeMovingAverage, got[1].Mode)
	assert.Equal(t, "THYAO.IS", got[1].Target)
	assert.Equal(t, 200*time.Millisecond, got[1].Elapsed)
	assert.True(t, got[1].StartedAt.Equal(base.Add(time.Minute)))
}

func TestSQLiteRecorder_DuplicateIDFails(t *testing.T) {
	rec, err := NewSQLiteRecorder(filepath.Join(t.TempDir(), "scans.db"), zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()

	run := &ScanRun{ID: "dup", Source: model.SourceCLI, Mode: model.ModeRSI, Target: "X", StartedAt: time.Now()}
	require.NoError(t, rec.RecordScan(run))
	assert.Error(t, rec.RecordScan(run))
}

func TestSQLiteRecorder_ReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scans.db")
	rec, err := NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, rec.RecordScan(&ScanRun{ID: "x", Source: model.SourceCLI, Mode: model.ModeClassifier, Target: "A", StartedAt: time.Now()}))
	require.NoError(t, rec.Close())

	rec, err = NewSQLiteRecorder(path, zerolog.Nop())
	require.NoError(t, err)
	defer rec.Close()
	got, err := rec.RecentScans(0)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestNoopRecorder(t *testing.T) {
	var rec Recorder = NewNoopRecorder()
	assert.NoError(t, rec.RecordScan(&ScanRun{ID: "x"}))
	runs, err := rec.RecentScans(5)
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, rec.Close())
}
