package persistence

import (
	"context"
	"fmt"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model"
	"github.com/vinylindex/vinylindex/model/id"
)

type dbCollection struct {
	*model.Collection `structs:",flatten"`
}

type dbCollections []dbCollection

func (cs dbCollections) toModels() model.Collections {
	out := make(model.Collections, len(cs))
	for i, c := range cs {
		out[i] = *c.Collection
	}
	return out
}

type collectionRepository struct {
	sqlRepository
}

// NewCollectionRepository constructs the Entity Store for collections.
func NewCollectionRepository(ctx context.Context, db dbx.Builder) model.CollectionRepository {
	r := &collectionRepository{}
	r.ctx = ctx
	r.db = db
	r.tableName = "collection"
	r.registerModel(&model.Collection{}, map[string]filterFunc{
		"title": fullTextContainsFilter("title"),
		"kind":  equalsFilter("kind"),
	})
	r.setSortMappings(map[string]string{
		"title": "title",
	})
	return r
}

func (r *collectionRepository) Create(c *model.Collection) (model.Header, error) {
	c.UID = id.NewRandom()
	c.Revision = model.InitialRevision(time.Now())
	if err := r.create(&dbCollection{Collection: c}); err != nil {
		return model.Header{}, err
	}
	return c.Header, nil
}

func (r *collectionRepository) Load(uid string) (*model.Collection, error) {
	res, err := r.GetAll(model.QueryOptions{Filters: Eq{"entity_uid": uid}})
	if err != nil {
		return nil, err
	}
	if len(res) == 0 {
		return nil, fmt.Errorf("collection %s: %w", uid, model.ErrNotFound)
	}
	return &res[0], nil
}

func (r *collectionRepository) Update(current model.Header, c *model.Collection) (*model.Revision, error) {
	next := current.Revision.Next(time.Now())
	c.UID = current.UID
	c.Revision = next
	n, err := r.updateConditional(current.UID, current.Revision, &dbCollection{Collection: c})
	if err != nil {
		return nil, err
	}
	if n == 0 {
		found, err := r.exists(Eq{"entity_uid": current.UID})
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("collection %s: %w", current.UID, model.ErrNotFound)
		}
		return nil, nil
	}
	return &next, nil
}

func (r *collectionRepository) Delete(uid string) (bool, error) {
	return r.deleteByUID(uid)
}

func (r *collectionRepository) CountAll(options ...model.QueryOptions) (int64, error) {
	return r.count(r.newSelect(), options...)
}

func (r *collectionRepository) GetAll(options ...model.QueryOptions) (model.Collections, error) {
	var res dbCollections
	if err := r.queryAll(r.newSelect(options...), &res); err != nil {
		return nil, err
	}
	return res.toModels(), nil
}

var _ model.CollectionRepository = (*collectionRepository)(nil)
