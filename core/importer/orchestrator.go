// Package importer drives the write path that turns externally-imported
// tracks into Entity Store rows: the Import & Replace Orchestrator.
package importer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/time/rate"

	"github.com/vinylindex/vinylindex/log"
	"github.com/vinylindex/vinylindex/model"
)

// Completion reports whether a batch ran to the end or was stopped early by
// the abort flag.
type Completion string

const (
	CompletionFinished Completion = "finished"
	CompletionAborted  Completion = "aborted"
)

// Summary classifies the outcome of every path visited in a batch.
type Summary struct {
	Created      []model.Header
	Updated      []model.Header
	Unchanged    []string
	NotImported  []string
	NotCreated   []string
	NotUpdated   []string
}

// Outcome is the result of one orchestrator run.
type Outcome struct {
	Completion Completion
	Summary    Summary
}

// FileImporter is the narrow external collaborator that turns a content path
// into a candidate Track, or reports why it couldn't. The orchestrator never
// decodes audio itself — only the importer's result crosses this boundary.
type FileImporter interface {
	Import(ctx context.Context, contentPath string, mode model.SyncMode, lastSynchronizedAt *time.Time) (ImportResult, error)
}

// ImportResultKind classifies what FileImporter.Import decided without
// touching the database.
type ImportResultKind string

const (
	ImportResultImported           ImportResultKind = "imported"
	ImportResultSkippedSynchronized ImportResultKind = "skipped_synchronized"
	ImportResultSkippedDirectory    ImportResultKind = "skipped_directory"
)

// ImportResult is what a FileImporter returns for one content path.
type ImportResult struct {
	Kind  ImportResultKind
	Track *model.Track
}

// DirectoryTracker resolves the set of content paths a directory import
// should visit; the orchestrator never walks a filesystem itself.
type DirectoryTracker interface {
	ContentPaths(ctx context.Context, collectionUID string) ([]string, error)
}

// Orchestrator is the Import & Replace Orchestrator (§4.5): it resolves each
// content path against the existing media source, asks the FileImporter to
// produce a candidate track, and replaces it into the Entity Store under the
// given ReplaceMode, honoring an abort flag checked between paths.
type Orchestrator struct {
	tracks       model.TrackRepository
	reconcile    func(collectionUID, contentPath string, isDirectory bool, fileModifiedAt time.Time, mode model.SyncMode) (ReconcileDecision, error)
	importer     FileImporter
	limiter      *rate.Limiter
}

// ReconcileDecision is the subset of persistence.ReconcileResult the
// orchestrator needs; kept as its own type so this package doesn't import
// persistence directly (it only depends on model + the narrow collaborators
// above).
type ReconcileDecision struct {
	ShouldImport       bool
	MediaSourceUID     string
	LastSynchronizedAt *time.Time
}

// importsPerSecond bounds how fast the orchestrator drives the FileImporter,
// the same "suspend at a rate-limited boundary" idiom the teacher's AcoustID
// client uses against an external API — here the limiting factor is disk and
// metadata-parser throughput rather than a remote rate limit.
const importsPerSecond = 50

// NewOrchestrator constructs an Orchestrator against the track repository and
// the external collaborators it drives.
func NewOrchestrator(tracks model.TrackRepository, importer FileImporter,
	reconcile func(collectionUID, contentPath string, isDirectory bool, fileModifiedAt time.Time, mode model.SyncMode) (ReconcileDecision, error)) *Orchestrator {
	return &Orchestrator{
		tracks:    tracks,
		reconcile: reconcile,
		importer:  importer,
		limiter:   rate.NewLimiter(rate.Limit(importsPerSecond), 1),
	}
}

// Run imports and replaces every content path in contentPaths for one
// collection, under replaceMode, stopping early if abort is set between
// paths. A partial Summary is always returned, even on abort.
func (o *Orchestrator) Run(ctx context.Context, collectionUID string, contentPaths []string, fileModifiedAt func(path string) time.Time,
	syncMode model.SyncMode, replaceMode model.ReplaceMode, abort *atomic.Bool) (Outcome, error) {
	var summary Summary
	var errs *multierror.Error

	for _, path := range contentPaths {
		if abort != nil && abort.Load() {
			log.Debug(ctx, "importer: aborting batch", "path", path)
			return Outcome{Completion: CompletionAborted, Summary: summary}, errs.ErrorOrNil()
		}

		if err := o.limiter.Wait(ctx); err != nil {
			return Outcome{Completion: CompletionAborted, Summary: summary}, err
		}

		o.importOne(ctx, collectionUID, path, fileModifiedAt(path), syncMode, replaceMode, &summary, &errs)
	}

	return Outcome{Completion: CompletionFinished, Summary: summary}, errs.ErrorOrNil()
}

func (o *Orchestrator) importOne(ctx context.Context, collectionUID, contentPath string, fileModifiedAt time.Time,
	syncMode model.SyncMode, replaceMode model.ReplaceMode, summary *Summary, errs **multierror.Error) {
	decision, err := o.reconcile(collectionUID, contentPath, false, fileModifiedAt, syncMode)
	if err != nil {
		log.Error(ctx, "importer: failed to reconcile media source", err, "path", contentPath)
		summary.NotImported = append(summary.NotImported, contentPath)
		*errs = multierror.Append(*errs, err)
		return
	}
	if !decision.ShouldImport {
		summary.Unchanged = append(summary.Unchanged, contentPath)
		return
	}

	result, err := o.importer.Import(ctx, contentPath, syncMode, decision.LastSynchronizedAt)
	if err != nil {
		log.Error(ctx, "importer: failed to import track", err, "path", contentPath)
		summary.NotImported = append(summary.NotImported, contentPath)
		*errs = multierror.Append(*errs, err)
		return
	}

	switch result.Kind {
	case ImportResultSkippedDirectory:
		return
	case ImportResultSkippedSynchronized:
		summary.Unchanged = append(summary.Unchanged, contentPath)
		return
	case ImportResultImported:
		o.replace(ctx, collectionUID, contentPath, replaceMode, result.Track, summary)
	}
}

func (o *Orchestrator) replace(ctx context.Context, collectionUID, contentPath string, mode model.ReplaceMode, t *model.Track, summary *Summary) {
	outcome, err := o.tracks.ReplaceByContentPath(collectionUID, contentPath, mode, t)
	if err != nil {
		log.Error(ctx, "importer: failed to replace track", err, "path", contentPath)
		summary.NotImported = append(summary.NotImported, contentPath)
		return
	}

	switch outcome {
	case model.ReplaceOutcomeCreated:
		log.Debug(ctx, "importer: created track", "path", contentPath, "uid", t.UID)
		summary.Created = append(summary.Created, t.Header)
	case model.ReplaceOutcomeUpdated:
		log.Debug(ctx, "importer: updated track", "path", contentPath, "uid", t.UID)
		summary.Updated = append(summary.Updated, t.Header)
	case model.ReplaceOutcomeUnchanged:
		summary.Unchanged = append(summary.Unchanged, contentPath)
	case model.ReplaceOutcomeNotCreated:
		summary.NotCreated = append(summary.NotCreated, contentPath)
	case model.ReplaceOutcomeNotUpdated:
		summary.NotUpdated = append(summary.NotUpdated, contentPath)
	}
}
