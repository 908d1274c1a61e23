// Package core hosts the request-surface operations layered directly on top
// of the Entity Store/Query Compiler that don't belong to a single component
// in spec §4: bulk content-path rewriting and orphan purging.
package core

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/vinylindex/vinylindex/log"
	"github.com/vinylindex/vinylindex/model"
)

// Relocator rewrites media source content paths in bulk, scoped to one
// collection (spec §6's relocate(uri_predicate, replacement) request).
type Relocator struct {
	mediaSources model.MediaSourceRepository
}

func NewRelocator(mediaSources model.MediaSourceRepository) *Relocator {
	return &Relocator{mediaSources: mediaSources}
}

// PathPredicateKind distinguishes the two predicate shapes the original's
// relocate_collected_sources supports: a plain prefix and a doublestar glob.
type PathPredicateKind string

const (
	PathPredicatePrefix PathPredicateKind = "prefix"
	PathPredicateGlob   PathPredicateKind = "glob"
)

// PathPredicate selects which media sources Relocate rewrites.
type PathPredicate struct {
	Kind    PathPredicateKind
	Pattern string
}

func (p PathPredicate) matches(contentPath string) bool {
	switch p.Kind {
	case PathPredicatePrefix:
		return strings.HasPrefix(contentPath, p.Pattern)
	case PathPredicateGlob:
		ok, _ := doublestar.Match(p.Pattern, contentPath)
		return ok
	default:
		return false
	}
}

// Relocate rewrites every media source in collectionUID whose content_path
// matches predicate: a prefix predicate has its matched prefix replaced with
// replacement, a glob predicate has the whole path replaced with replacement,
// and content_link_path is re-derived from the new path. Returns the number of
// rows rewritten, mirroring the original's ResponseBody.replaced_count.
func (r *Relocator) Relocate(ctx context.Context, collectionUID string, predicate PathPredicate, replacement string) (int, error) {
	all, err := r.mediaSources.GetAll(model.QueryOptions{Filters: nil})
	if err != nil {
		return 0, err
	}

	replaced := 0
	for _, ms := range all {
		if ms.CollectionUID != collectionUID || !predicate.matches(ms.ContentPath) {
			continue
		}
		newPath := rewrite(ms.ContentPath, predicate, replacement)
		if newPath == ms.ContentPath {
			continue
		}
		ms.ContentPath = newPath
		ms.ContentLinkPath = newPath
		if _, err := r.mediaSources.Update(ms.Header, &ms); err != nil {
			log.Error(ctx, "core: failed to relocate media source", err, "uid", ms.UID)
			continue
		}
		replaced++
	}
	log.Debug(ctx, "core: relocated media sources", "collection", collectionUID, "count", replaced)
	return replaced, nil
}

func rewrite(contentPath string, predicate PathPredicate, replacement string) string {
	switch predicate.Kind {
	case PathPredicatePrefix:
		return replacement + strings.TrimPrefix(contentPath, predicate.Pattern)
	default:
		// Glob predicates have no single matched span to splice out; the whole
		// path is replaced, matching a rename-in-place use case.
		return replacement
	}
}
