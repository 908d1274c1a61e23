package persistence

import (
	"context"
	"fmt"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/deluan/rest"
	"github.com/fatih/structs"
	"github.com/pocketbase/dbx"

	"github.com/vinylindex/vinylindex/model"
)

// filterFunc compiles a single named QueryOptions.Filters key into a Sqlizer.
// Kept for parity with the teacher's per-field filter registry, used by the
// few repositories that expose ad-hoc administrative filtering (collections,
// playlists) outside of the structured Filter algebra the query compiler owns.
type filterFunc func(name string, value interface{}) Sqlizer

// sqlRepository is the shared CRUD/query base every repository embeds. Its
// method surface follows the one album_repository.go and
// sonos_device_token_repository.go call against in the teacher (newSelect,
// count, queryAll, queryOne, executeSQL, registerModel, setSortMappings),
// with create, updateConditional, deleteByUID and exists in place of the
// teacher's put and delete.
type sqlRepository struct {
	ctx          context.Context
	db           dbx.Builder
	tableName    string
	filters      map[string]filterFunc
	sortMappings map[string]string
}

func (r *sqlRepository) registerModel(_ interface{}, filters map[string]filterFunc) {
	r.filters = filters
}

func (r *sqlRepository) setSortMappings(mappings map[string]string) {
	r.sortMappings = mappings
}

func (r *sqlRepository) sortMapping(field string) string {
	if r.sortMappings != nil {
		if col, ok := r.sortMappings[field]; ok {
			return col
		}
	}
	return field
}

func (r *sqlRepository) newSelect(options ...model.QueryOptions) SelectBuilder {
	sql := Select("*").From(r.tableName)
	for _, o := range options {
		if o.Filters != nil {
			sql = sql.Where(o.Filters)
		}
		if o.Sort != "" {
			order := r.sortMapping(o.Sort)
			if o.Order == "desc" {
				order += " desc"
			}
			sql = sql.OrderBy(order)
		}
		if o.Max > 0 {
			sql = sql.Limit(uint64(o.Max))
		}
		if o.Offset > 0 {
			sql = sql.Offset(uint64(o.Offset))
		}
	}
	return sql
}

func (r *sqlRepository) count(query SelectBuilder, options ...model.QueryOptions) (int64, error) {
	for _, o := range options {
		if o.Filters != nil {
			query = query.Where(o.Filters)
		}
	}
	countQuery := query.RemoveColumns().Columns("count(*) as count")
	var count int64
	if err := r.queryOne(countQuery, &count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *sqlRepository) exists(cond Sqlizer) (bool, error) {
	count, err := r.count(Select().From(r.tableName).Where(cond))
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *sqlRepository) queryAll(sq Sqlizer, dest interface{}) error {
	query, args, err := sq.ToSql()
	if err != nil {
		return fmt.Errorf("persistence: building query for %s: %w", r.tableName, err)
	}
	err = r.db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(r.ctx).All(dest)
	if err != nil {
		return fmt.Errorf("persistence: querying %s: %w", r.tableName, err)
	}
	return nil
}

func (r *sqlRepository) queryOne(sq Sqlizer, dest interface{}) error {
	query, args, err := sq.ToSql()
	if err != nil {
		return fmt.Errorf("persistence: building query for %s: %w", r.tableName, err)
	}
	err = r.db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(r.ctx).Row(dest)
	if err != nil {
		return fmt.Errorf("persistence: querying %s: %w", r.tableName, err)
	}
	return nil
}

func (r *sqlRepository) executeSQL(sq Sqlizer) (int64, error) {
	query, args, err := sq.ToSql()
	if err != nil {
		return 0, fmt.Errorf("persistence: building statement for %s: %w", r.tableName, err)
	}
	res, err := r.db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(r.ctx).Execute()
	if err != nil {
		return 0, fmt.Errorf("persistence: executing statement against %s: %w", r.tableName, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("persistence: rows affected for %s: %w", r.tableName, err)
	}
	return n, nil
}

// create inserts a new entity row from wrapper's flattened fields.
func (r *sqlRepository) create(wrapper interface{}) error {
	fields := structs.Map(wrapper)
	normalizeRevisionTimestamp(fields)
	_, err := r.executeSQL(Insert(r.tableName).SetMap(fields))
	if err != nil {
		return fmt.Errorf("persistence: creating %s: %w", r.tableName, err)
	}
	return nil
}

// normalizeRevisionTimestamp rewrites the rev_timestamp_ms entry structs.Map
// produces for a flattened model.Header (a time.Time, since Revision embeds
// one) into the millisecond integer every rev_timestamp_ms column actually
// stores; every hand-written repository already stores UnixMilli() directly,
// so the generic create/updateConditional path must match.
func normalizeRevisionTimestamp(fields map[string]interface{}) {
	if ts, ok := fields["rev_timestamp_ms"].(time.Time); ok {
		fields["rev_timestamp_ms"] = ts.UnixMilli()
	}
}

// updateConditional performs the §4.1 conditional write: matched on
// (uid, rev_ordinal, rev_timestamp_ms). Returns rowsAffected == 0 when the
// caller's revision is stale (RevisionConflict is the caller's concern).
func (r *sqlRepository) updateConditional(uid string, current model.Revision, wrapper interface{}) (int64, error) {
	fields := structs.Map(wrapper)
	normalizeRevisionTimestamp(fields)
	delete(fields, "entity_uid")
	upd := Update(r.tableName).SetMap(fields).Where(And{
		Eq{"entity_uid": uid},
		Eq{"rev_ordinal": current.Ordinal},
		Eq{"rev_timestamp_ms": current.Timestamp.UnixMilli()},
	})
	n, err := r.executeSQL(upd)
	if err != nil {
		return 0, fmt.Errorf("persistence: updating %s: %w", r.tableName, err)
	}
	return n, nil
}

func (r *sqlRepository) deleteByUID(uid string) (bool, error) {
	n, err := r.executeSQL(Delete(r.tableName).Where(Eq{"entity_uid": uid}))
	if err != nil {
		return false, fmt.Errorf("persistence: deleting from %s: %w", r.tableName, err)
	}
	return n > 0, nil
}

// parseRestOptions adapts the deluan/rest resource contract's QueryOptions
// into this package's model.QueryOptions, the same bridging role
// album_repository.go's parseRestOptions plays for the teacher's REST layer.
func (r *sqlRepository) parseRestOptions(_ context.Context, options ...rest.QueryOptions) model.QueryOptions {
	if len(options) == 0 {
		return model.QueryOptions{}
	}
	o := options[0]
	return model.QueryOptions{
		Sort:   o.Sort,
		Order:  o.Order,
		Max:    o.Max,
		Offset: o.Offset,
	}
}

// rebind and bindArgs adapt squirrel's default '?' positional placeholders to
// dbx's named-parameter binder, which is how the query compiler's generated
// Sqlizer trees reach the database in this module (squirrel builds the SQL
// shape; dbx executes and scans it, per the teacher's library split).
func rebind(query string) string {
	out := make([]byte, 0, len(query)+8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			out = append(out, []byte(fmt.Sprintf("{:p%d}", n))...)
			n++
			continue
		}
		out = append(out, query[i])
	}
	return string(out)
}

func bindArgs(args []interface{}) dbx.Params {
	p := make(dbx.Params, len(args))
	for i, a := range args {
		p[fmt.Sprintf("p%d", i)] = a
	}
	return p
}
