package persistence

import (
	"context"
	"fmt"

	. "github.com/Masterminds/squirrel"
	"github.com/cespare/xxhash/v2"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/log"
	"github.com/vinylindex/vinylindex/model"
)

// auxIndexer maintains the denormalized title/actor/tag/cue tables derived
// from a track's canonical body (§4.2). It runs inside the same transaction
// as the triggering write, deleting by track row id then batch-inserting the
// derived rows, interning facets/labels/cue-labels via tagCueResolver.
type auxIndexer struct {
	ctx      context.Context
	db       dbx.Builder
	resolver *tagCueResolver

	// indexed memoizes the xxhash of the last canonical body indexed per track
	// row id, skipping redundant delete+reinsert when the body is unchanged —
	// an optimization layered on top of, never replacing, the idempotence
	// contract §4.2 requires (a fresh rebuild always matches, memoized or not).
	indexed map[int64]uint64
}

func newAuxIndexer(ctx context.Context, db dbx.Builder) *auxIndexer {
	return &auxIndexer{
		ctx:      ctx,
		db:       db,
		resolver: newTagCueResolver(ctx, db),
		indexed:  make(map[int64]uint64),
	}
}

// reindex implements §4.2's contract: delete all auxiliary rows for trackRowID,
// then insert the rows derived from t. All work happens inside the caller's
// transaction; any error here must roll back the enclosing write.
func (ix *auxIndexer) reindex(trackRowID int64, t *model.Track, bodyHash uint64) error {
	if prev, ok := ix.indexed[trackRowID]; ok && prev == bodyHash {
		log.Debug(ix.ctx, "persistence: skipping aux reindex, body unchanged", "trackRowID", trackRowID)
		return nil
	}

	if err := ix.purge(trackRowID); err != nil {
		return err
	}
	if err := ix.insertTitles(trackRowID, t); err != nil {
		return err
	}
	if err := ix.insertActors(trackRowID, t); err != nil {
		return err
	}
	if err := ix.insertTags(trackRowID, t); err != nil {
		return err
	}
	if err := ix.insertCues(trackRowID, t); err != nil {
		return err
	}

	ix.indexed[trackRowID] = bodyHash
	return nil
}

// purge deletes every auxiliary row referencing trackRowID, used both before
// a reindex and when a track is deleted outright (§4.1's delete ordering).
func (ix *auxIndexer) purge(trackRowID int64) error {
	for _, table := range []string{"track_title", "track_actor", "track_tag", "track_cue"} {
		if _, err := ix.exec(Delete(table).Where(Eq{"track_id": trackRowID})); err != nil {
			return fmt.Errorf("persistence: purging %s for track %d: %w", table, trackRowID, err)
		}
	}
	delete(ix.indexed, trackRowID)
	return nil
}

func (ix *auxIndexer) insertTitles(trackRowID int64, t *model.Track) error {
	insert := Insert("track_title").Columns("track_id", "scope", "kind", "name")
	n := 0
	for _, title := range t.Titles {
		insert = insert.Values(trackRowID, string(title.Scope), string(title.Kind), title.Name)
		n++
	}
	if t.Album != nil {
		for _, title := range t.Album.Titles {
			insert = insert.Values(trackRowID, string(model.ScopeAlbum), string(title.Kind), title.Name)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	_, err := ix.exec(insert)
	return err
}

func (ix *auxIndexer) insertActors(trackRowID int64, t *model.Track) error {
	insert := Insert("track_actor").Columns("track_id", "scope", "role", "kind", "name")
	n := 0
	for _, actor := range t.Actors {
		insert = insert.Values(trackRowID, string(actor.Scope), string(actor.Role), string(actor.Kind), actor.Name)
		n++
	}
	if t.Album != nil {
		for _, actor := range t.Album.Actors {
			insert = insert.Values(trackRowID, string(model.ScopeAlbum), string(actor.Role), string(actor.Kind), actor.Name)
			n++
		}
	}
	if n == 0 {
		return nil
	}
	_, err := ix.exec(insert)
	return err
}

func (ix *auxIndexer) insertTags(trackRowID int64, t *model.Track) error {
	if len(t.Tags) == 0 {
		return nil
	}
	insert := Insert("track_tag").Columns("track_id", "facet_id", "label_id", "score")
	for _, tag := range t.Tags {
		var facetID, labelID interface{}
		if tag.Facet != nil {
			id, err := ix.resolver.resolveFacet(*tag.Facet)
			if err != nil {
				return err
			}
			facetID = id
		}
		if tag.Label != nil {
			id, err := ix.resolver.resolveLabel(*tag.Label)
			if err != nil {
				return err
			}
			labelID = id
		}
		insert = insert.Values(trackRowID, facetID, labelID, tag.Score)
	}
	_, err := ix.exec(insert)
	return err
}

func (ix *auxIndexer) insertCues(trackRowID int64, t *model.Track) error {
	if len(t.Cues) == 0 {
		return nil
	}
	insert := Insert("track_cue").Columns("track_id", "ordinal", "label_id")
	for _, cue := range t.Cues {
		var labelID interface{}
		if cue.Label != nil {
			id, err := ix.resolver.resolveCueLabel(*cue.Label)
			if err != nil {
				return err
			}
			labelID = id
		}
		insert = insert.Values(trackRowID, cue.Ordinal, labelID)
	}
	_, err := ix.exec(insert)
	return err
}

func (ix *auxIndexer) exec(sq Sqlizer) (int64, error) {
	query, args, err := sq.ToSql()
	if err != nil {
		return 0, err
	}
	res, err := ix.db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(ix.ctx).Execute()
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// HashBody computes the idempotence-memoization digest for a track's
// canonical body, used to skip redundant reindex passes.
func HashBody(body []byte) uint64 {
	return xxhash.Sum64(body)
}
