package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model"
	"github.com/vinylindex/vinylindex/model/id"
)

// dbPlaylist stores entries as a single JSON column, the same "derived JSON
// columns alongside flattened scalar fields" split album_repository.go uses
// for discs/tags/participants.
type dbPlaylist struct {
	RowID     int64  `db:"row_id"`
	EntityUID string `db:"entity_uid"`
	RevOrdinal uint64 `db:"rev_ordinal"`
	RevTimestampMS int64 `db:"rev_timestamp_ms"`
	Title   string  `db:"title"`
	Kind    *string `db:"kind"`
	Color   *string `db:"color"`
	Notes   *string `db:"notes"`
	Entries string  `db:"entries"`
}

func (r dbPlaylist) toModel() (*model.Playlist, error) {
	p := &model.Playlist{
		Header: model.Header{
			UID: r.EntityUID,
			Revision: model.Revision{
				Ordinal:   r.RevOrdinal,
				Timestamp: time.UnixMilli(r.RevTimestampMS),
			},
		},
		Title: r.Title,
		Kind:  r.Kind,
		Color: r.Color,
		Notes: r.Notes,
	}
	if r.Entries != "" {
		if err := json.Unmarshal([]byte(r.Entries), &p.Entries); err != nil {
			return nil, fmt.Errorf("persistence: decoding playlist entries: %w", err)
		}
	}
	return p, nil
}

type playlistRepository struct {
	sqlRepository
}

// NewPlaylistRepository constructs the Entity Store for playlists (§4.1),
// consumed by the Playlist Patch Engine in core/playlist for §4.6 operations.
func NewPlaylistRepository(ctx context.Context, db dbx.Builder) model.PlaylistRepository {
	r := &playlistRepository{}
	r.ctx = ctx
	r.db = db
	r.tableName = "playlist"
	r.registerModel(&model.Playlist{}, map[string]filterFunc{
		"title": fullTextContainsFilter("title"),
	})
	return r
}

func (r *playlistRepository) Create(p *model.Playlist) (model.Header, error) {
	p.UID = id.NewRandom()
	p.Revision = model.InitialRevision(time.Now())
	entries, err := json.Marshal(p.Entries)
	if err != nil {
		return model.Header{}, fmt.Errorf("persistence: encoding playlist entries: %w", err)
	}
	insert := Insert(r.tableName).
		Columns("entity_uid", "rev_ordinal", "rev_timestamp_ms", "title", "kind", "color", "notes", "entries").
		Values(p.UID, p.Revision.Ordinal, p.Revision.Timestamp.UnixMilli(), p.Title, p.Kind, p.Color, p.Notes, string(entries))
	if _, err := r.executeSQL(insert); err != nil {
		return model.Header{}, fmt.Errorf("persistence: creating playlist: %w", err)
	}
	return p.Header, nil
}

func (r *playlistRepository) Load(uid string) (*model.Playlist, error) {
	var row dbPlaylist
	err := r.queryOne(Select("*").From(r.tableName).Where(Eq{"entity_uid": uid}), &row)
	if err != nil {
		return nil, fmt.Errorf("playlist %s: %w", uid, model.ErrNotFound)
	}
	return row.toModel()
}

// Update is the conditional write §4.6's patch engine calls after computing
// the new entry list; the patch engine itself decides whether to call this at
// all (no-op operations must not bump the revision).
func (r *playlistRepository) Update(current model.Header, p *model.Playlist) (*model.Revision, error) {
	next := current.Revision.Next(time.Now())
	p.UID = current.UID
	entries, err := json.Marshal(p.Entries)
	if err != nil {
		return nil, fmt.Errorf("persistence: encoding playlist entries: %w", err)
	}
	upd := Update(r.tableName).
		Set("rev_ordinal", next.Ordinal).
		Set("rev_timestamp_ms", next.Timestamp.UnixMilli()).
		Set("title", p.Title).
		Set("kind", p.Kind).
		Set("color", p.Color).
		Set("notes", p.Notes).
		Set("entries", string(entries)).
		Where(And{
			Eq{"entity_uid": current.UID},
			Eq{"rev_ordinal": current.Revision.Ordinal},
			Eq{"rev_timestamp_ms": current.Revision.Timestamp.UnixMilli()},
		})
	n, err := r.executeSQL(upd)
	if err != nil {
		return nil, fmt.Errorf("persistence: updating playlist: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	p.Revision = next
	return &next, nil
}

func (r *playlistRepository) Delete(uid string) (bool, error) {
	return r.deleteByUID(uid)
}

func (r *playlistRepository) CountAll(options ...model.QueryOptions) (int64, error) {
	return r.count(r.newSelect(), options...)
}

func (r *playlistRepository) GetAll(options ...model.QueryOptions) (model.Playlists, error) {
	var rows []dbPlaylist
	if err := r.queryAll(r.newSelect(options...), &rows); err != nil {
		return nil, err
	}
	out := make(model.Playlists, 0, len(rows))
	for _, row := range rows {
		p, err := row.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, nil
}

var _ model.PlaylistRepository = (*playlistRepository)(nil)
