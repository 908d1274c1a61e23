package persistence

import (
	"context"
	"fmt"

	. "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model"
)

// GroomReport totals what one grooming pass changed, per spec §3's two
// grooming-job invariants (orphan dictionary rows, foreign-collection
// playlist entries).
type GroomReport struct {
	OrphanFacetsDeleted    int64
	OrphanLabelsDeleted    int64
	OrphanCueLabelsDeleted int64
	PlaylistEntriesPruned  int64
}

// Groomer is the background maintenance job described in spec §5: it takes
// an exclusive writer slot, sweeps orphan tag/cue dictionary rows and
// dangling playlist entries, and truncates the WAL on completion. Grounded
// on `original_source/src/usecases/media/dir_tracker/mod.rs`'s periodic
// maintenance shape.
type Groomer struct {
	ctx       context.Context
	db        dbx.Builder
	playlists model.PlaylistRepository
}

// NewGroomer constructs a Groomer against the shared database.
func NewGroomer(ctx context.Context, db dbx.Builder) *Groomer {
	return &Groomer{ctx: ctx, db: db, playlists: NewPlaylistRepository(ctx, db)}
}

// Run performs one grooming pass: orphan dictionary sweep, then
// foreign-collection playlist-entry pruning, then a truncating WAL
// checkpoint (spec §5).
func (g *Groomer) Run(ctx context.Context) (GroomReport, error) {
	var report GroomReport
	var err error

	if report.OrphanFacetsDeleted, err = g.sweepOrphans("tag_facet", "track_tag", "facet_id"); err != nil {
		return report, err
	}
	if report.OrphanLabelsDeleted, err = g.sweepOrphans("tag_label", "track_tag", "label_id"); err != nil {
		return report, err
	}
	if report.OrphanCueLabelsDeleted, err = g.sweepOrphans("cue_label", "track_cue", "label_id"); err != nil {
		return report, err
	}

	pruned, err := g.prunePlaylists()
	if err != nil {
		return report, err
	}
	report.PlaylistEntriesPruned = pruned

	if _, err := g.db.NewQuery("PRAGMA wal_checkpoint(TRUNCATE)").WithContext(ctx).Execute(); err != nil {
		return report, fmt.Errorf("persistence: truncating checkpoint after grooming: %w", err)
	}
	return report, nil
}

// sweepOrphans deletes every row of dictTable whose id is unreferenced by
// refTable.refColumn, per spec §3: "orphan dictionary rows are swept by the
// grooming job."
func (g *Groomer) sweepOrphans(dictTable, refTable, refColumn string) (int64, error) {
	del := Delete(dictTable).Where(fmt.Sprintf(
		"id NOT IN (SELECT %s FROM %s WHERE %s IS NOT NULL)", refColumn, refTable, refColumn))
	query, args, err := del.ToSql()
	if err != nil {
		return 0, fmt.Errorf("persistence: building %s orphan sweep: %w", dictTable, err)
	}
	res, err := g.db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(g.ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("persistence: sweeping orphan %s rows: %w", dictTable, err)
	}
	return res.RowsAffected()
}

// prunePlaylists removes playlist entries referencing a track outside the
// playlist's reference collection, per spec §3: "Entries referencing tracks
// in foreign collections are pruned by the grooming job." A playlist has no
// collection field of its own (spec §3's Playlist carries no collection_id),
// so its reference collection is resolved as the collection of the first
// entry, in order, whose track still exists — an Open Question resolution
// recorded in DESIGN.md. Playlists with no resolvable track reference are
// left untouched; the next pass retries once any entry resolves.
func (g *Groomer) prunePlaylists() (int64, error) {
	all, err := g.playlists.GetAll()
	if err != nil {
		return 0, err
	}

	var pruned int64
	for _, p := range all {
		trackUIDs := make([]string, 0, len(p.Entries))
		for _, e := range p.Entries {
			if !e.IsMarker() {
				trackUIDs = append(trackUIDs, e.TrackUID)
			}
		}
		if len(trackUIDs) == 0 {
			continue
		}

		collectionByTrack, err := g.trackCollections(trackUIDs)
		if err != nil {
			return pruned, err
		}

		var refCollection string
		for _, e := range p.Entries {
			if e.IsMarker() {
				continue
			}
			if c, ok := collectionByTrack[e.TrackUID]; ok {
				refCollection = c
				break
			}
		}
		if refCollection == "" {
			continue
		}

		kept := make(model.PlaylistEntries, 0, len(p.Entries))
		var removed int64
		for _, e := range p.Entries {
			if e.IsMarker() {
				kept = append(kept, e)
				continue
			}
			if c, ok := collectionByTrack[e.TrackUID]; ok && c == refCollection {
				kept = append(kept, e)
				continue
			}
			removed++
		}
		if removed == 0 {
			continue
		}

		p.Entries = kept
		if _, err := g.playlists.Update(p.Header, &p); err != nil {
			return pruned, fmt.Errorf("persistence: pruning playlist %s: %w", p.UID, err)
		}
		pruned += removed
	}
	return pruned, nil
}

// trackCollections resolves each track uid's owning collection via its
// media source, for the subset of uids that still exist.
func (g *Groomer) trackCollections(trackUIDs []string) (map[string]string, error) {
	var rows []struct {
		EntityUID    string `db:"entity_uid"`
		CollectionID string `db:"collection_id"`
	}
	query := Select("track.entity_uid", "media_source.collection_id").
		From("track").
		Join("media_source ON media_source.entity_uid = track.media_source_id").
		Where(Eq{"track.entity_uid": trackUIDs})
	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("persistence: building track collection lookup: %w", err)
	}
	if err := g.db.NewQuery(rebind(sql)).Bind(bindArgs(args)).WithContext(g.ctx).All(&rows); err != nil {
		return nil, fmt.Errorf("persistence: resolving track collections: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.EntityUID] = row.CollectionID
	}
	return out, nil
}
