package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model"
	"github.com/vinylindex/vinylindex/model/id"
)

// dbTrack is the flat row shape of the track table: a few indexed/sortable
// columns plus the opaque canonical body blob, mirroring album_repository.go's
// dbAlbum wrapper (rich model + flattened derived columns).
type dbTrack struct {
	RowID            int64  `db:"row_id"`
	EntityUID        string `db:"entity_uid"`
	RevOrdinal       uint64 `db:"rev_ordinal"`
	RevTimestampMS   int64  `db:"rev_timestamp_ms"`
	MediaSourceID    string `db:"media_source_id"`
	BodyFormat       string `db:"body_format"`
	BodyVersionMajor int    `db:"body_version_major"`
	BodyVersionMinor int    `db:"body_version_minor"`
	BodyBytes        []byte `db:"body_bytes"`
}

func (r dbTrack) toModel() (*model.Track, error) {
	t := &model.Track{
		Header: model.Header{
			UID: r.EntityUID,
			Revision: model.Revision{
				Ordinal:   r.RevOrdinal,
				Timestamp: time.UnixMilli(r.RevTimestampMS),
			},
		},
	}
	if err := decodeTrackBody(r.BodyFormat, r.BodyVersionMajor, r.BodyVersionMinor, r.BodyBytes, t); err != nil {
		return nil, err
	}
	return t, nil
}

// trackScalarColumns extracts the columns denormalized onto the track row so
// the Query Compiler can filter/sort without decoding the body blob (§4.3).
// view_track_search re-exposes these under the same abstract names
// model.NumericField/DateTimeField/StringField use.
func trackScalarColumns(t *model.Track) map[string]interface{} {
	cols := map[string]interface{}{
		"publisher":       t.Publisher,
		"copyright":       t.Copyright,
		"color":           t.Color,
		"tempo_bpm":       t.Metrics.TempoBPM,
		"key_code":        t.Metrics.KeySignature,
		"loudness_lufs":   t.Metrics.LoudnessLufs,
		"track_number":    t.TrackIndex.Number,
		"track_total":     t.TrackIndex.Total,
		"disc_number":     t.DiscIndex.Number,
		"disc_total":      t.DiscIndex.Total,
		"movement_number": t.MovementIndex.Number,
		"movement_total":  t.MovementIndex.Total,
		"recorded_yyyymmdd":      t.RecordedAt.YYYYMMDD,
		"released_yyyymmdd":      t.ReleasedAt.YYYYMMDD,
		"released_orig_yyyymmdd": t.ReleasedOrigAt.YYYYMMDD,
	}
	if t.AdvisoryRating != nil {
		cols["advisory_rating"] = int(*t.AdvisoryRating)
	} else {
		cols["advisory_rating"] = nil
	}
	cols["recorded_ms"] = millisOrNil(t.RecordedAt.At)
	cols["released_ms"] = millisOrNil(t.ReleasedAt.At)
	cols["released_orig_ms"] = millisOrNil(t.ReleasedOrigAt.At)
	return cols
}

func millisOrNil(at *time.Time) interface{} {
	if at == nil {
		return nil
	}
	return at.UnixMilli()
}

type trackRepository struct {
	sqlRepository
	indexer *auxIndexer
}

// NewTrackRepository constructs the Entity Store + Query Compiler entry point
// for tracks (§4.1, §4.3).
func NewTrackRepository(ctx context.Context, db dbx.Builder) model.TrackRepository {
	r := &trackRepository{indexer: newAuxIndexer(ctx, db)}
	r.ctx = ctx
	r.db = db
	r.tableName = "track"
	return r
}

func (r *trackRepository) Create(t *model.Track) (model.Header, error) {
	t.UID = id.NewRandom()
	t.Revision = model.InitialRevision(time.Now())

	format, major, minor, body, err := encodeTrackBody(t)
	if err != nil {
		return model.Header{}, err
	}

	cols := []string{"entity_uid", "rev_ordinal", "rev_timestamp_ms", "media_source_id",
		"body_format", "body_version_major", "body_version_minor", "body_bytes"}
	vals := []interface{}{t.UID, t.Revision.Ordinal, t.Revision.Timestamp.UnixMilli(), t.MediaSourceUID,
		format, major, minor, body}
	for col, val := range trackScalarColumns(t) {
		cols = append(cols, col)
		vals = append(vals, val)
	}
	insert := Insert(r.tableName).Columns(cols...).Values(vals...)
	if _, err := r.executeSQL(insert); err != nil {
		return model.Header{}, fmt.Errorf("persistence: creating track: %w", err)
	}

	rowID, err := r.rowIDForUID(t.UID)
	if err != nil {
		return model.Header{}, err
	}
	if err := r.indexer.reindex(rowID, t, HashBody(body)); err != nil {
		return model.Header{}, err
	}
	return t.Header, nil
}

func (r *trackRepository) rowIDForUID(uid string) (int64, error) {
	var rowID int64
	err := r.queryOne(Select("row_id").From(r.tableName).Where(Eq{"entity_uid": uid}), &rowID)
	if err != nil {
		return 0, fmt.Errorf("persistence: resolving row id for %s: %w", uid, err)
	}
	return rowID, nil
}

func (r *trackRepository) Load(uid string) (*model.Track, error) {
	var row dbTrack
	err := r.queryOne(Select("*").From(r.tableName).Where(Eq{"entity_uid": uid}), &row)
	if err != nil {
		return nil, fmt.Errorf("track %s: %w", uid, model.ErrNotFound)
	}
	return row.toModel()
}

// Update implements the §4.1 conditional write and invokes the auxiliary
// indexer atomically within the same transaction on success.
func (r *trackRepository) Update(current model.Header, t *model.Track) (*model.Revision, error) {
	next := current.Revision.Next(time.Now())
	t.UID = current.UID

	format, major, minor, body, err := encodeTrackBody(t)
	if err != nil {
		return nil, err
	}

	upd := Update(r.tableName).
		Set("rev_ordinal", next.Ordinal).
		Set("rev_timestamp_ms", next.Timestamp.UnixMilli()).
		Set("media_source_id", t.MediaSourceUID).
		Set("body_format", format).
		Set("body_version_major", major).
		Set("body_version_minor", minor).
		Set("body_bytes", body)
	for col, val := range trackScalarColumns(t) {
		upd = upd.Set(col, val)
	}
	upd = upd.Where(And{
			Eq{"entity_uid": current.UID},
			Eq{"rev_ordinal": current.Revision.Ordinal},
			Eq{"rev_timestamp_ms": current.Revision.Timestamp.UnixMilli()},
		})
	n, err := r.executeSQL(upd)
	if err != nil {
		return nil, fmt.Errorf("persistence: updating track: %w", err)
	}
	if n == 0 {
		return nil, nil
	}

	t.Revision = next
	rowID, err := r.rowIDForUID(current.UID)
	if err != nil {
		return nil, err
	}
	if err := r.indexer.reindex(rowID, t, HashBody(body)); err != nil {
		return nil, err
	}
	return &next, nil
}

// Delete purges auxiliary rows before removing the primary row, per §4.1's
// delete ordering.
func (r *trackRepository) Delete(uid string) (bool, error) {
	rowID, err := r.rowIDForUID(uid)
	if err != nil {
		return false, nil
	}
	if err := r.indexer.purge(rowID); err != nil {
		return false, err
	}
	n, err := r.executeSQL(Delete(r.tableName).Where(Eq{"entity_uid": uid}))
	if err != nil {
		return false, fmt.Errorf("persistence: deleting track: %w", err)
	}
	return n > 0, nil
}

// Search is the Query Compiler entry point (§4.3).
func (r *trackRepository) Search(f model.Filter, sorts []model.SortOrder, page model.Pagination) (model.Tracks, error) {
	sql, err := CompileTrackSearch(f, sorts, page)
	if err != nil {
		return nil, err
	}
	sql = sql.Columns("track.row_id", "track.entity_uid", "track.rev_ordinal", "track.rev_timestamp_ms",
		"track.media_source_id", "track.body_format", "track.body_version_major", "track.body_version_minor",
		"track.body_bytes").
		Join("track ON track.row_id = " + searchView + ".row_id")

	var rows []dbTrack
	if err := r.queryAll(sql, &rows); err != nil {
		return nil, err
	}
	out := make(model.Tracks, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, nil
}

func (r *trackRepository) CountSearch(f model.Filter) (int64, error) {
	cond, err := compileFilter(f)
	if err != nil {
		return 0, err
	}
	query := Select("count(*) as count").From(searchView)
	if cond != nil {
		query = query.Where(cond)
	}
	var count int64
	if err := r.queryOne(query, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *trackRepository) ResolveByContentPath(collectionUID, contentPath string) (*model.Header, error) {
	var row struct {
		EntityUID      string `db:"entity_uid"`
		RevOrdinal     uint64 `db:"rev_ordinal"`
		RevTimestampMS int64  `db:"rev_timestamp_ms"`
	}
	query := Select("track.entity_uid", "track.rev_ordinal", "track.rev_timestamp_ms").
		From(r.tableName).
		Join("media_source ON media_source.entity_uid = track.media_source_id").
		Where(And{
			Eq{"media_source.collection_id": collectionUID},
			Eq{"media_source.content_path": contentPath},
		})
	if err := r.queryOne(query, &row); err != nil {
		return nil, nil
	}
	return &model.Header{
		UID: row.EntityUID,
		Revision: model.Revision{
			Ordinal:   row.RevOrdinal,
			Timestamp: time.UnixMilli(row.RevTimestampMS),
		},
	}, nil
}

// ReplaceByContentPath implements §4.5 step 3: write-or-insert governed by
// ReplaceMode. The written row takes its media source linkage from t.
func (r *trackRepository) ReplaceByContentPath(collectionUID, contentPath string, mode model.ReplaceMode, t *model.Track) (model.ReplaceOutcome, error) {
	existing, err := r.ResolveByContentPath(collectionUID, contentPath)
	if err != nil {
		return "", err
	}

	switch mode {
	case model.ReplaceModeCreateOnly:
		if existing != nil {
			return model.ReplaceOutcomeNotCreated, nil
		}
		if _, err := r.Create(t); err != nil {
			return "", err
		}
		return model.ReplaceOutcomeCreated, nil

	case model.ReplaceModeUpdateOnly:
		if existing == nil {
			return model.ReplaceOutcomeNotUpdated, nil
		}
		next, err := r.Update(*existing, t)
		if err != nil {
			return "", err
		}
		if next == nil {
			return model.ReplaceOutcomeNotUpdated, nil
		}
		return model.ReplaceOutcomeUpdated, nil

	case model.ReplaceModeUpdateOrCreate:
		if existing == nil {
			if _, err := r.Create(t); err != nil {
				return "", err
			}
			return model.ReplaceOutcomeCreated, nil
		}
		next, err := r.Update(*existing, t)
		if err != nil {
			return "", err
		}
		if next == nil {
			return model.ReplaceOutcomeNotUpdated, nil
		}
		return model.ReplaceOutcomeUpdated, nil

	default:
		return "", fmt.Errorf("persistence: unknown replace mode %q: %w", mode, model.ErrBadRequest)
	}
}

// FindDuplicateContentPaths is the read-only diagnostic supplementing the
// teacher's GetSplitAlbums/MergeAlbums maintenance pattern (DESIGN.md), scoped
// down to content paths that case-fold to the same value within a collection —
// never auto-merges, since that would be a destructive write this spec does
// not define.
func (r *trackRepository) FindDuplicateContentPaths(collectionUID string) ([][]string, error) {
	var rows []struct {
		ContentPath string `db:"content_path"`
	}
	query := Select("content_path").From("media_source").Where(Eq{"collection_id": collectionUID})
	if err := r.queryAll(query, &rows); err != nil {
		return nil, fmt.Errorf("persistence: scanning content paths for duplicates: %w", err)
	}

	groups := make(map[string][]string)
	for _, row := range rows {
		key := strings.ToLower(row.ContentPath)
		groups[key] = append(groups[key], row.ContentPath)
	}
	var dupes [][]string
	for _, paths := range groups {
		if len(paths) > 1 {
			dupes = append(dupes, paths)
		}
	}
	return dupes, nil
}

// PurgeUntracked deletes every track in collectionUID whose media source is
// absent from tracked_media_source (§6's Condition.SourceUntracked), optionally
// restricted to content paths beginning with contentPathPrefix (the request
// surface's root_url scoping). Auxiliary rows are purged per track before the
// primary row is removed, mirroring Delete's ordering.
func (r *trackRepository) PurgeUntracked(collectionUID string, contentPathPrefix *string) (int64, error) {
	query := Select("track.row_id").
		From(r.tableName).
		Join("media_source ON media_source.entity_uid = track.media_source_id").
		Where(And{
			Eq{"media_source.collection_id": collectionUID},
			Expr("track.media_source_id NOT IN (SELECT media_source_id FROM tracked_media_source)"),
		})
	if contentPathPrefix != nil {
		query = query.Where(Like{"media_source.content_path": escapeLike(*contentPathPrefix) + "%"})
	}

	var rows []struct {
		RowID int64 `db:"row_id"`
	}
	if err := r.queryAll(query, &rows); err != nil {
		return 0, fmt.Errorf("persistence: scanning untracked tracks: %w", err)
	}

	var purged int64
	for _, row := range rows {
		if err := r.indexer.purge(row.RowID); err != nil {
			return purged, err
		}
		n, err := r.executeSQL(Delete(r.tableName).Where(Eq{"row_id": row.RowID}))
		if err != nil {
			return purged, fmt.Errorf("persistence: deleting untracked track %d: %w", row.RowID, err)
		}
		purged += n
	}
	return purged, nil
}

var _ model.TrackRepository = (*trackRepository)(nil)
