package persistence

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/log"
	"github.com/vinylindex/vinylindex/model"
)

// ReconcileOutcome classifies a single media-source resolution (§4.4).
type ReconcileOutcome string

const (
	ReconcileImport             ReconcileOutcome = "import"
	ReconcileSkippedSynchronized ReconcileOutcome = "skipped_synchronized"
	ReconcileSkippedDirectory    ReconcileOutcome = "skipped_directory"
	ReconcileNotFound            ReconcileOutcome = "not_found"
)

// ReconcileResult is the resolved decision for one (collection, content_path).
type ReconcileResult struct {
	Outcome        ReconcileOutcome
	MediaSourceUID string
	SynchronizedAt *time.Time
}

// MediaSourceReconciler resolves a content path to an existing media source
// row and decides whether the caller should proceed to import, based on
// SyncMode and the prior synchronized_at timestamp (§4.4). Grounded on the
// Rust original's resolve_media_source_id_synchronized_at_by_uri +
// import_track_from_url(..., SynchronizedImportMode) two-step shape.
type MediaSourceReconciler struct {
	ctx context.Context
	db  dbx.Builder
	mediaSources model.MediaSourceRepository
}

func NewMediaSourceReconciler(ctx context.Context, db dbx.Builder) *MediaSourceReconciler {
	return &MediaSourceReconciler{
		ctx:          ctx,
		db:           db,
		mediaSources: NewMediaSourceRepository(ctx, db),
	}
}

// Resolve decides whether the importer should run for the given path.
// isDirectory lets the caller short-circuit directory paths without a file read.
func (rc *MediaSourceReconciler) Resolve(collectionUID, contentPath string, isDirectory bool, fileModifiedAt time.Time, mode model.SyncMode) (ReconcileResult, error) {
	if isDirectory {
		return ReconcileResult{Outcome: ReconcileSkippedDirectory}, nil
	}

	existing, err := rc.mediaSources.FindByContentPath(collectionUID, contentPath)
	if err != nil {
		return ReconcileResult{}, err
	}
	if existing == nil {
		return ReconcileResult{Outcome: ReconcileImport}, nil
	}

	switch mode {
	case model.SyncModeAlways:
		return ReconcileResult{Outcome: ReconcileImport, MediaSourceUID: existing.UID}, nil
	case model.SyncModeOnce:
		log.Debug(rc.ctx, "persistence: skipping import, sync mode once", "path", contentPath,
			"synchronizedAt", humanize.Time(timeOr(existing.SynchronizedAt, existing.CollectedAt)))
		return ReconcileResult{Outcome: ReconcileSkippedSynchronized, MediaSourceUID: existing.UID, SynchronizedAt: existing.SynchronizedAt}, nil
	case model.SyncModeIfModified, model.SyncModeSynchronize:
		if existing.SynchronizedAt != nil && !fileModifiedAt.After(*existing.SynchronizedAt) {
			return ReconcileResult{Outcome: ReconcileSkippedSynchronized, MediaSourceUID: existing.UID, SynchronizedAt: existing.SynchronizedAt}, nil
		}
		return ReconcileResult{Outcome: ReconcileImport, MediaSourceUID: existing.UID}, nil
	default:
		return ReconcileResult{Outcome: ReconcileImport, MediaSourceUID: existing.UID}, nil
	}
}

func timeOr(v *time.Time, fallback time.Time) time.Time {
	if v == nil {
		return fallback
	}
	return *v
}
