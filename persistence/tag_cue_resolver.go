package persistence

import (
	"context"
	"fmt"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/deluan/sanitize"
	"github.com/jellydator/ttlcache/v3"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model/id"
)

// dictionaryKind names which of the three dictionary tables a resolver targets.
type dictionaryKind string

const (
	dictTagFacet dictionaryKind = "tag_facet"
	dictTagLabel dictionaryKind = "tag_label"
	dictCueLabel dictionaryKind = "cue_label"
)

// tagCueResolver interns tag facets, tag labels, and cue labels into their
// dictionary tables (§4.7). Because dictionary rows are keyed by a
// deterministic hash of their normalized text (model/id.NewHash), resolve
// never needs a read round-trip for the common case: the id is computable
// before the row exists. INSERT OR IGNORE only materializes the row the
// first time a given text is seen, exactly as §5's "shared-resource policy"
// requires for race-safety under concurrent writers.
type tagCueResolver struct {
	ctx   context.Context
	db    dbx.Builder
	cache *ttlcache.Cache[string, string]
}

func newTagCueResolver(ctx context.Context, db dbx.Builder) *tagCueResolver {
	cache := ttlcache.New[string, string](
		ttlcache.WithTTL[string, string](10 * time.Minute),
	)
	return &tagCueResolver{ctx: ctx, db: db, cache: cache}
}

// resolve normalizes text, computes its deterministic id, and ensures the
// dictionary row exists, returning the id either way.
func (r *tagCueResolver) resolve(kind dictionaryKind, text string) (string, error) {
	normalized := sanitize.Accents(text)
	dictID := id.NewDictionaryID(normalized)

	cacheKey := string(kind) + ":" + dictID
	if item := r.cache.Get(cacheKey); item != nil {
		return item.Value(), nil
	}

	insert := Insert(string(kind)).Columns("id", "text").
		Values(dictID, normalized).
		Suffix("ON CONFLICT(id) DO NOTHING")
	query, args, err := insert.ToSql()
	if err != nil {
		return "", fmt.Errorf("persistence: building %s insert: %w", kind, err)
	}
	_, err = r.db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(r.ctx).Execute()
	if err != nil {
		return "", fmt.Errorf("persistence: interning %s %q: %w", kind, text, err)
	}

	r.cache.Set(cacheKey, dictID, ttlcache.DefaultTTL)
	return dictID, nil
}

func (r *tagCueResolver) resolveFacet(text string) (string, error) { return r.resolve(dictTagFacet, text) }
func (r *tagCueResolver) resolveLabel(text string) (string, error) { return r.resolve(dictTagLabel, text) }
func (r *tagCueResolver) resolveCueLabel(text string) (string, error) {
	return r.resolve(dictCueLabel, text)
}
