package persistence

import (
	"context"
	"fmt"
	"math"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model"
	"github.com/vinylindex/vinylindex/model/id"
)

// RoundDurationMS converts a float64-seconds duration (as reported by the
// file importer) to milliseconds, rounding to nearest rather than truncating
// — the Open Question §9 leaves unresolved upstream. Round-to-nearest has
// symmetric error; truncation would systematically under-report duration.
func RoundDurationMS(seconds float64) int64 {
	return int64(math.Round(seconds * 1000))
}

type dbMediaSource struct {
	RowID int64 `db:"row_id"`
	*model.MediaSource `structs:",flatten"`
}

type dbMediaSources []dbMediaSource

func (ms dbMediaSources) toModels() model.MediaSources {
	out := make(model.MediaSources, len(ms))
	for i, m := range ms {
		out[i] = *m.MediaSource
	}
	return out
}

type mediaSourceRepository struct {
	sqlRepository
}

// NewMediaSourceRepository constructs the Entity Store for media sources.
func NewMediaSourceRepository(ctx context.Context, db dbx.Builder) model.MediaSourceRepository {
	r := &mediaSourceRepository{}
	r.ctx = ctx
	r.db = db
	r.tableName = "media_source"
	r.registerModel(&model.MediaSource{}, map[string]filterFunc{
		"collection_id": equalsFilter("collection_id"),
		"content_path":  equalsFilter("content_path"),
	})
	return r
}

func (r *mediaSourceRepository) Create(ms *model.MediaSource) (model.Header, error) {
	ms.UID = id.NewRandom()
	ms.Revision = model.InitialRevision(time.Now())
	if err := r.create(ms); err != nil {
		return model.Header{}, fmt.Errorf("persistence: creating media source: %w", err)
	}
	return ms.Header, nil
}

func (r *mediaSourceRepository) Load(uid string) (*model.MediaSource, error) {
	res, err := r.GetAll(model.QueryOptions{Filters: Eq{"entity_uid": uid}})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("media source %s: %w", uid, model.ErrNotFound)
	}
	return &res[0], nil
}

func (r *mediaSourceRepository) Update(current model.Header, ms *model.MediaSource) (*model.Revision, error) {
	next := current.Revision.Next(time.Now())
	ms.UID = current.UID
	ms.Revision = next
	n, err := r.updateConditional(current.UID, current.Revision, ms)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}
	return &next, nil
}

func (r *mediaSourceRepository) Delete(uid string) (bool, error) {
	return r.deleteByUID(uid)
}

// FindByContentPath enforces the §3 uniqueness invariant
// (collection_id, content_path) by direct lookup.
func (r *mediaSourceRepository) FindByContentPath(collectionUID, contentPath string) (*model.MediaSource, error) {
	res, err := r.GetAll(model.QueryOptions{Filters: And{
		Eq{"collection_id": collectionUID},
		Eq{"content_path": contentPath},
	}})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, nil
	}
	return &res[0], nil
}

func (r *mediaSourceRepository) CountAll(options ...model.QueryOptions) (int64, error) {
	return r.count(r.newSelect(), options...)
}

func (r *mediaSourceRepository) GetAll(options ...model.QueryOptions) (model.MediaSources, error) {
	var res dbMediaSources
	if err := r.queryAll(r.newSelect(options...), &res); err != nil {
		return nil, err
	}
	return res.toModels(), nil
}

var _ model.MediaSourceRepository = (*mediaSourceRepository)(nil)
