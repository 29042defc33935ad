package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aidanlsb/skillsync/internal/skills"
	"github.com/aidanlsb/skillsync/internal/store"
	"github.com/aidanlsb/skillsync/internal/syncer"
)

var _ syncer.Recorder = (*Ledger)(nil)

func runDoc(status store.Status, at time.Time, errMsg string) *store.Document {
	started := at.Add(-250 * time.Millisecond)
	doc := store.Empty()
	doc.GeneratedAt = at
	doc.Sync = store.SyncInfo{
		Status:     status,
		StartedAt:  &started,
		FinishedAt: &at,
		DurationMS: 250,
		Warnings:   []string{"one", "two"},
	}
	if errMsg != "" {
		doc.Sync.Error = &errMsg
	}
	doc.Summary = store.Summary{GlobalCount: 3, ProjectCount: 2, ConflictCount: 1, ArchivedCount: 4}
	return doc
}

func TestRecordAndRecent(t *testing.T) {
	ctx := context.Background()
	l, err := OpenInMemory()
	require.NoError(t, err)
	defer l.Close()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, l.RecordRun(ctx, runDoc(store.StatusOK, base, "")))
	require.NoError(t, l.RecordRun(ctx, runDoc(store.StatusFailed, base.Add(time.Minute), "conflict in demo")))

	runs, err := l.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)

	latest := runs[0]
	assert.Equal(t, store.StatusFailed, latest.Status)
	assert.Equal(t, "conflict in demo", latest.Error)
	assert.Equal(t, base.Add(time.Minute), latest.FinishedAt)
	require.NotNil(t, latest.StartedAt)
	assert.Equal(t, base.Add(time.Minute-250*time.Millisecond), *latest.StartedAt)
	assert.Equal(t, int64(250), latest.DurationMS)
	assert.Equal(t, 2, latest.Warnings)
	assert.Equal(t, 3, latest.GlobalCount)
	assert.Equal(t, 2, latest.ProjectCount)
	assert.Equal(t, 1, latest.ConflictCount)
	assert.Equal(t, 4, latest.ArchivedCount)

	assert.Equal(t, store.StatusOK, runs[1].Status)
	assert.Empty(t, runs[1].Error)
}

func TestRecentFiltersByStatus(t *testing.T) {
	ctx := context.Background()
	l, err := OpenInMemory()
	require.NoError(t, err)
	defer l.Close()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, status := range []store.Status{store.StatusOK, store.StatusFailed, store.StatusOK, store.StatusFailed} {
		require.NoError(t, l.RecordRun(ctx, runDoc(status, base.Add(time.Duration(i)*time.Minute), "")))
	}

	failed, err := l.Recent(ctx, 0, store.StatusFailed)
	require.NoError(t, err)
	require.Len(t, failed, 2)
	for _, r := range failed {
		assert.Equal(t, store.StatusFailed, r.Status)
	}

	last, err := l.LastSuccess(ctx)
	require.NoError(t, err)
	require.NotNil(t, last)
	assert.Equal(t, base.Add(2*time.Minute), last.FinishedAt)

	limited, err := l.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, base.Add(3*time.Minute), limited[0].FinishedAt)
}

func TestFindSince(t *testing.T) {
	ctx := context.Background()
	l, err := OpenInMemory()
	require.NoError(t, err)
	defer l.Close()

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		status := store.StatusOK
		if i%2 == 1 {
			status = store.StatusFailed
		}
		require.NoError(t, l.RecordRun(ctx, runDoc(status, base.Add(time.Duration(i)*time.Hour), "")))
	}

	runs, err := l.Find(ctx, Query{Since: base.Add(2 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, base.Add(3*time.Hour), runs[0].FinishedAt)
	assert.Equal(t, base.Add(2*time.Hour), runs[1].FinishedAt)

	runs, err = l.Find(ctx, Query{Since: base.Add(30 * time.Minute), Statuses: []store.Status{store.StatusFailed}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, base.Add(3*time.Hour), runs[0].FinishedAt)
}

func TestRetentionTrimsOldRuns(t *testing.T) {
	ctx := context.Background()
	l, err := OpenInMemory()
	require.NoError(t, err)
	defer l.Close()
	l.SetRetention(3)

	base := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, l.RecordRun(ctx, runDoc(store.StatusOK, base.Add(time.Duration(i)*time.Minute), "")))
	}

	runs, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, base.Add(4*time.Minute), runs[0].FinishedAt)
	assert.Equal(t, base.Add(2*time.Minute), runs[2].FinishedAt)
}

func TestOpenOnDiskPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "history.db")

	l, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, l.RecordRun(ctx, runDoc(store.StatusOK, time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC), "")))
	require.NoError(t, l.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	runs, err := reopened.Recent(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)

	empty, err := OpenInMemory()
	require.NoError(t, err)
	defer empty.Close()
	none, err := empty.Recent(ctx, 5)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestEngineRecordsIntoLedger(t *testing.T) {
	ctx := context.Background()
	l, err := OpenInMemory()
	require.NoError(t, err)
	defer l.Close()

	home := t.TempDir()
	engine := syncer.New(syncer.Options{
		Layout:     skills.NewLayout(home, ""),
		StatePath:  filepath.Join(home, "state.json"),
		ArchiveDir: filepath.Join(home, "archive"),
		DevRoot:    filepath.Join(home, "Development"),
		Recorder:   l,
	})
	_, err = engine.Run(ctx)
	require.NoError(t, err)

	runs, err := l.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusOK, runs[0].Status)
}
