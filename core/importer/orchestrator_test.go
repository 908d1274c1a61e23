package importer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylindex/vinylindex/model"
)

// stubTrackRepository implements only ReplaceByContentPath, the single
// TrackRepository method the orchestrator calls; every other method panics if
// reached, flagging a test that outgrew this stub.
type stubTrackRepository struct {
	model.TrackRepository
	outcomes map[string]model.ReplaceOutcome
	replaced []string
}

func (s *stubTrackRepository) ReplaceByContentPath(collectionUID, contentPath string, mode model.ReplaceMode, t *model.Track) (model.ReplaceOutcome, error) {
	s.replaced = append(s.replaced, contentPath)
	if outcome, ok := s.outcomes[contentPath]; ok {
		return outcome, nil
	}
	return model.ReplaceOutcomeCreated, nil
}

type stubFileImporter struct {
	results map[string]ImportResult
}

func (s *stubFileImporter) Import(ctx context.Context, contentPath string, mode model.SyncMode, lastSynchronizedAt *time.Time) (ImportResult, error) {
	if r, ok := s.results[contentPath]; ok {
		return r, nil
	}
	return ImportResult{Kind: ImportResultImported, Track: &model.Track{}}, nil
}

func noReconcile(collectionUID, contentPath string, isDirectory bool, fileModifiedAt time.Time, mode model.SyncMode) (ReconcileDecision, error) {
	return ReconcileDecision{ShouldImport: true, MediaSourceUID: "ms-" + contentPath}, nil
}

func noModTime(path string) time.Time { return time.Time{} }

func TestOrchestrator_ClassifiesEachOutcomeKind(t *testing.T) {
	tracks := &stubTrackRepository{outcomes: map[string]model.ReplaceOutcome{
		"created.flac":     model.ReplaceOutcomeCreated,
		"updated.flac":     model.ReplaceOutcomeUpdated,
		"unchanged.flac":   model.ReplaceOutcomeUnchanged,
		"not-created.flac": model.ReplaceOutcomeNotCreated,
		"not-updated.flac": model.ReplaceOutcomeNotUpdated,
	}}
	o := NewOrchestrator(tracks, &stubFileImporter{}, noReconcile)

	paths := []string{"created.flac", "updated.flac", "unchanged.flac", "not-created.flac", "not-updated.flac"}
	outcome, err := o.Run(context.Background(), "col1", paths, noModTime, model.SyncModeOnce, model.ReplaceModeUpdateOrCreate, nil)
	require.NoError(t, err)
	assert.Equal(t, CompletionFinished, outcome.Completion)
	assert.Len(t, outcome.Summary.Created, 1)
	assert.Len(t, outcome.Summary.Updated, 1)
	assert.Contains(t, outcome.Summary.Unchanged, "unchanged.flac")
	assert.Contains(t, outcome.Summary.NotCreated, "not-created.flac")
	assert.Contains(t, outcome.Summary.NotUpdated, "not-updated.flac")
}

func TestOrchestrator_SkipsDirectoriesAndSynchronizedPaths(t *testing.T) {
	tracks := &stubTrackRepository{outcomes: map[string]model.ReplaceOutcome{}}
	importer := &stubFileImporter{results: map[string]ImportResult{
		"dir":           {Kind: ImportResultSkippedDirectory},
		"synced.flac":   {Kind: ImportResultSkippedSynchronized},
		"fresh.flac":    {Kind: ImportResultImported, Track: &model.Track{}},
	}}
	o := NewOrchestrator(tracks, importer, noReconcile)

	outcome, err := o.Run(context.Background(), "col1", []string{"dir", "synced.flac", "fresh.flac"}, noModTime,
		model.SyncModeOnce, model.ReplaceModeUpdateOrCreate, nil)
	require.NoError(t, err)
	assert.Contains(t, outcome.Summary.Unchanged, "synced.flac")
	assert.Equal(t, []string{"fresh.flac"}, tracks.replaced)
}

func TestOrchestrator_AbortSetBeforeFirstPathStopsBatch(t *testing.T) {
	tracks := &stubTrackRepository{outcomes: map[string]model.ReplaceOutcome{}}
	o := NewOrchestrator(tracks, &stubFileImporter{}, noReconcile)

	var abort atomic.Bool
	abort.Store(true)
	outcome, err := o.Run(context.Background(), "col1", []string{"a.flac", "b.flac"}, noModTime,
		model.SyncModeOnce, model.ReplaceModeUpdateOrCreate, &abort)
	require.NoError(t, err)
	assert.Equal(t, CompletionAborted, outcome.Completion)
	assert.Empty(t, tracks.replaced)
}

func TestOrchestrator_SkipsImportWhenReconcileSaysNotToImport(t *testing.T) {
	tracks := &stubTrackRepository{outcomes: map[string]model.ReplaceOutcome{}}
	importer := &stubFileImporter{}
	reconcile := func(collectionUID, contentPath string, isDirectory bool, fileModifiedAt time.Time, mode model.SyncMode) (ReconcileDecision, error) {
		if contentPath == "already-synced.flac" {
			return ReconcileDecision{ShouldImport: false}, nil
		}
		return ReconcileDecision{ShouldImport: true}, nil
	}
	o := NewOrchestrator(tracks, importer, reconcile)

	outcome, err := o.Run(context.Background(), "col1", []string{"already-synced.flac", "fresh.flac"}, noModTime,
		model.SyncModeOnce, model.ReplaceModeUpdateOrCreate, nil)
	require.NoError(t, err)
	assert.Contains(t, outcome.Summary.Unchanged, "already-synced.flac")
	assert.Equal(t, []string{"fresh.flac"}, tracks.replaced)
}

func TestOrchestrator_AccumulatesReconcileErrorsWithoutStopping(t *testing.T) {
	tracks := &stubTrackRepository{outcomes: map[string]model.ReplaceOutcome{}}
	failing := func(collectionUID, contentPath string, isDirectory bool, fileModifiedAt time.Time, mode model.SyncMode) (ReconcileDecision, error) {
		if contentPath == "bad.flac" {
			return ReconcileDecision{}, assert.AnError
		}
		return ReconcileDecision{ShouldImport: true}, nil
	}
	o := NewOrchestrator(tracks, &stubFileImporter{}, failing)

	outcome, err := o.Run(context.Background(), "col1", []string{"bad.flac", "good.flac"}, noModTime,
		model.SyncModeOnce, model.ReplaceModeUpdateOrCreate, nil)
	require.Error(t, err)
	assert.Equal(t, CompletionFinished, outcome.Completion)
	assert.Contains(t, outcome.Summary.NotImported, "bad.flac")
	assert.Equal(t, []string{"good.flac"}, tracks.replaced)
}
