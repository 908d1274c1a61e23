package core

import (
	"context"

	"github.com/vinylindex/vinylindex/log"
	"github.com/vinylindex/vinylindex/model"
)

// DirectoryUntracker is the narrow external collaborator that drops directory
// entries the media-directory tracker considers orphaned under a root path;
// the directory tracker itself is out of scope (spec §1), only its contract
// is stated here, mirroring core/importer's FileImporter/DirectoryTracker split.
type DirectoryUntracker interface {
	UntrackOrphanedDirectories(ctx context.Context, collectionUID, rootURL string) (int64, error)
}

// PurgeSummary reports the result of one PurgeUntracked call, mirroring the
// original's PurgeByUntrackedMediaSourcesSummary{untracked_directories, purged_tracks}.
type PurgeSummary struct {
	PurgedTracks         int64
	UntrackedDirectories int64
}

// Purger implements §6's purge_untracked(root_url?, untrack_orphans?) request:
// it deletes tracks whose media source has fallen out of the directory
// tracker's known set, and optionally asks the tracker to drop its own
// bookkeeping for directories under root_url that no longer contain any
// tracked source.
type Purger struct {
	tracks      model.TrackRepository
	directories DirectoryUntracker
}

// NewPurger constructs a Purger. directories may be nil; untrackOrphanedDirectories
// is then treated as a no-op rather than an error, since the collaborator is optional.
func NewPurger(tracks model.TrackRepository, directories DirectoryUntracker) *Purger {
	return &Purger{tracks: tracks, directories: directories}
}

// PurgeUntracked deletes every untracked track in collectionUID, optionally
// scoped to content paths under rootURL, and optionally untracks orphaned
// directories under rootURL via the DirectoryUntracker collaborator.
func (p *Purger) PurgeUntracked(ctx context.Context, collectionUID string, rootURL *string, untrackOrphanedDirectories bool) (PurgeSummary, error) {
	purged, err := p.tracks.PurgeUntracked(collectionUID, rootURL)
	if err != nil {
		return PurgeSummary{}, err
	}
	log.Debug(ctx, "core: purged untracked tracks", "collection", collectionUID, "count", purged)

	summary := PurgeSummary{PurgedTracks: purged}
	if !untrackOrphanedDirectories || p.directories == nil {
		return summary, nil
	}

	root := ""
	if rootURL != nil {
		root = *rootURL
	}
	untracked, err := p.directories.UntrackOrphanedDirectories(ctx, collectionUID, root)
	if err != nil {
		log.Error(ctx, "core: failed to untrack orphaned directories", err, "collection", collectionUID)
		return summary, err
	}
	summary.UntrackedDirectories = untracked
	return summary, nil
}
