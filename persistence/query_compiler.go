package persistence

import (
	"fmt"
	"strings"
	"unicode/utf8"

	. "github.com/Masterminds/squirrel"

	"github.com/vinylindex/vinylindex/model"
)

// searchView is the pre-joined logical relation the query compiler targets (§6).
const searchView = "view_track_search"

// likeEscape is the escape character used for LIKE patterns, matching the
// teacher's sql_search.go fullTextExpr/mbidExpr idiom: backslash escapes
// both '%' and itself, and callers never see unescaped user input reach SQL.
const likeEscape = `\`

// escapeLike escapes '\' and '%' in s so it can be embedded in a LIKE pattern
// without the caller's input being interpreted as wildcards.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, likeEscape, likeEscape+likeEscape)
	s = strings.ReplaceAll(s, "%", likeEscape+"%")
	return s
}

// likePattern joins whitespace-separated terms into a single search string
// with '%' wildcards around each non-empty token, per §4.3's Phrase contract.
func likePattern(terms []string) string {
	var b strings.Builder
	b.WriteByte('%')
	for _, t := range terms {
		for _, tok := range strings.Fields(t) {
			b.WriteString(escapeLike(tok))
			b.WriteByte('%')
		}
	}
	return b.String()
}

// notSqlizer wraps a child Sqlizer to negate it. squirrel has no built-in NOT
// composite (unlike the Rust original's explicit diesel::dsl::not(...) calls),
// so this is the Go equivalent boxed/dynamic predicate object the §9 design
// note calls for.
type notSqlizer struct{ inner Sqlizer }

func (n notSqlizer) ToSql() (string, []interface{}, error) {
	sql, args, err := n.inner.ToSql()
	if err != nil {
		return "", nil, err
	}
	return "NOT (" + sql + ")", args, nil
}

// CompileTrackSearch compiles a Filter tree, sort list, and pagination into a
// single SelectBuilder against view_track_search (§4.3's single entry point).
func CompileTrackSearch(f model.Filter, sorts []model.SortOrder, page model.Pagination) (SelectBuilder, error) {
	sql := Select("*").From(searchView)

	cond, err := compileFilter(f)
	if err != nil {
		return SelectBuilder{}, err
	}
	if cond != nil {
		sql = sql.Where(cond)
	}

	sql = applySort(sql, sorts)
	sql = applyPagination(sql, page)
	return sql, nil
}

// applyPagination implements §4.3's "offset without limit is an error logged
// by the caller and ignored" rule: a nil Limit means no pagination at all,
// regardless of Offset.
func applyPagination(sql SelectBuilder, page model.Pagination) SelectBuilder {
	if page.Limit == nil {
		return sql
	}
	sql = sql.Limit(uint64(*page.Limit))
	if page.Offset != nil {
		sql = sql.Offset(uint64(*page.Offset))
	}
	return sql
}

func compileFilter(f model.Filter) (Sqlizer, error) {
	switch f.Kind {
	case model.FilterPhrase:
		return compilePhrase(f.Phrase)
	case model.FilterNumeric:
		return compileNumeric(f.Numeric)
	case model.FilterDateTime:
		return compileDateTime(f.DateTime)
	case model.FilterCondition:
		return compileCondition(*f.Condition)
	case model.FilterTag:
		return compileTag(f.Tag)
	case model.FilterCueLabel:
		return compileCueLabel(f.CueLabel)
	case model.FilterActorPhrase:
		return compileActorPhrase(f.ActorPhrase)
	case model.FilterTitlePhrase:
		return compileTitlePhrase(f.TitlePhrase)
	case model.FilterAnyTrackUid:
		if len(f.AnyTrackUid) == 0 {
			return dummyFalse(), nil
		}
		return Eq{"entity_uid": f.AnyTrackUid}, nil
	case model.FilterAnyPlaylistUid:
		return compileAnyPlaylistUid(f.AnyPlaylistUid)
	case model.FilterAll:
		return compileAll(f.All)
	case model.FilterAny:
		return compileAny(f.Any)
	case model.FilterNot:
		if f.Not == nil {
			return nil, fmt.Errorf("persistence: Not filter with no child: %w", model.ErrBadRequest)
		}
		child, err := compileFilter(*f.Not)
		if err != nil {
			return nil, err
		}
		return notSqlizer{inner: child}, nil
	default:
		return nil, fmt.Errorf("persistence: unknown filter kind %q: %w", f.Kind, model.ErrBadRequest)
	}
}

// dummyTrue/dummyFalse mirror the Rust original's dummy_true_expression /
// dummy_false_expression: always-true/false predicates for the empty-list
// edge cases of All/Any/AnyTrackUid, expressed without a boxed typeclass.
func dummyTrue() Sqlizer  { return Expr("1 = 1") }
func dummyFalse() Sqlizer { return Expr("1 = 0") }

func compileAll(children []model.Filter) (Sqlizer, error) {
	if len(children) == 0 {
		return dummyTrue(), nil
	}
	and := make(And, 0, len(children))
	for _, c := range children {
		compiled, err := compileFilter(c)
		if err != nil {
			return nil, err
		}
		and = append(and, compiled)
	}
	return and, nil
}

func compileAny(children []model.Filter) (Sqlizer, error) {
	if len(children) == 0 {
		return dummyFalse(), nil
	}
	or := make(Or, 0, len(children))
	for _, c := range children {
		compiled, err := compileFilter(c)
		if err != nil {
			return nil, err
		}
		or = append(or, compiled)
	}
	return or, nil
}

func compilePhrase(p *model.PhraseFilter) (Sqlizer, error) {
	fields := p.Fields
	if len(fields) == 0 {
		fields = model.AllStringFields
	}
	if len(p.Terms) == 0 {
		// empty term list with non-empty fields -> match rows whose field is
		// null-or-empty, per §4.3.
		or := make(Or, 0, len(fields))
		for _, field := range fields {
			or = append(or, Or{Eq{string(field): nil}, Eq{string(field): ""}})
		}
		return or, nil
	}
	pattern := likePattern(p.Terms)
	or := make(Or, 0, len(fields))
	for _, field := range fields {
		or = append(or, Like{string(field): pattern})
	}
	return or, nil
}

// int16Max is the sentinel key_code default the original treats as "higher
// than any real key code", mirroring i16::MAX.
const int16Max = 32767

// numericFieldDefault returns the field-specific default a null stored value
// is treated as for ordered comparisons (§4.3's Numeric/DateTime null policy).
// Most columns default to 0 regardless of comparison direction. key_code is
// asymmetric: it coalesces to int16Max for Lt/Le/Eq/Ne, so a null key never
// satisfies a Lt/Le/Eq bound below int16Max (it does satisfy Ne for any other
// value); it coalesces to -1 for Gt/Ge, so it never satisfies those bounds.
func numericFieldDefault(column string, kind model.NumericPredicateKind) interface{} {
	if column == string(model.FieldKeyCode) {
		switch kind {
		case model.PredGreater, model.PredGreaterOrEqual:
			return -1
		default:
			return int16Max
		}
	}
	return 0
}

func compileNumericPredicate(column string, pred model.NumericPredicate) (Sqlizer, error) {
	if pred.Value != nil && isNaN(*pred.Value) {
		return nil, fmt.Errorf("persistence: NaN is not a valid predicate value: %w", model.ErrBadRequest)
	}
	if pred.Value == nil {
		switch pred.Kind {
		case model.PredEqual:
			return Eq{column: nil}, nil
		case model.PredNotEqual:
			return NotEq{column: nil}, nil
		default:
			return nil, fmt.Errorf("persistence: nullable predicate only valid for =/!=: %w", model.ErrBadRequest)
		}
	}
	value := *pred.Value
	coalesced := Expr(fmt.Sprintf("coalesce(%s, ?)", column), numericFieldDefault(column, pred.Kind))
	switch pred.Kind {
	case model.PredLess:
		return exprLt(coalesced, value), nil
	case model.PredLessOrEqual:
		return exprLe(coalesced, value), nil
	case model.PredGreater:
		return exprGt(coalesced, value), nil
	case model.PredGreaterOrEqual:
		return exprGe(coalesced, value), nil
	case model.PredEqual:
		return exprEq(coalesced, value), nil
	case model.PredNotEqual:
		return exprNe(coalesced, value), nil
	default:
		return nil, fmt.Errorf("persistence: unknown numeric predicate %q: %w", pred.Kind, model.ErrBadRequest)
	}
}

// exprLt and friends wrap a coalesced expression in a comparison, since
// squirrel's Lt/Gt/Eq family expects a plain column name, not an expression.
func exprLt(e Sqlizer, v interface{}) Sqlizer { return wrapCompare(e, "<", v) }
func exprLe(e Sqlizer, v interface{}) Sqlizer { return wrapCompare(e, "<=", v) }
func exprGt(e Sqlizer, v interface{}) Sqlizer { return wrapCompare(e, ">", v) }
func exprGe(e Sqlizer, v interface{}) Sqlizer { return wrapCompare(e, ">=", v) }
func exprEq(e Sqlizer, v interface{}) Sqlizer { return wrapCompare(e, "=", v) }
func exprNe(e Sqlizer, v interface{}) Sqlizer { return wrapCompare(e, "<>", v) }

func wrapCompare(e Sqlizer, op string, v interface{}) Sqlizer {
	return compareExpr{e, op, v}
}

type compareExpr struct {
	lhs Sqlizer
	op  string
	rhs interface{}
}

func (c compareExpr) ToSql() (string, []interface{}, error) {
	lsql, largs, err := c.lhs.ToSql()
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("(%s) %s ?", lsql, c.op), append(largs, c.rhs), nil
}

func isNaN(f float64) bool { return f != f }

func compileNumeric(n *model.NumericFilter) (Sqlizer, error) {
	return compileNumericPredicate(string(n.Field), n.Predicate)
}

func compileDateTime(d *model.DateTimeFilter) (Sqlizer, error) {
	return compileNumericPredicate(string(d.Field), d.Predicate)
}

func compileCondition(c model.ConditionKind) (Sqlizer, error) {
	switch c {
	case model.ConditionSourceTracked:
		return Expr("media_source_id IN (SELECT media_source_id FROM tracked_media_source)"), nil
	case model.ConditionSourceUntracked:
		return Expr("media_source_id NOT IN (SELECT media_source_id FROM tracked_media_source)"), nil
	default:
		return nil, fmt.Errorf("persistence: unknown condition %q: %w", c, model.ErrBadRequest)
	}
}

// compileTag compiles a correlated sub-query over track_tag returning
// track_ids, combined with the outer query via IN / NOT IN per modifier.
func compileTag(t *model.TagFilter) (Sqlizer, error) {
	sub := Select("track_tag.track_id").From("track_tag").
		LeftJoin("tag_facet ON tag_facet.id = track_tag.facet_id").
		LeftJoin("tag_label ON tag_label.id = track_tag.label_id")

	var facetCond Sqlizer
	switch {
	case t.Facets.Prefix != nil:
		facetCond = Like{"tag_facet.text": escapeLike(*t.Facets.Prefix) + "%"}
	case len(t.Facets.AnyOf) > 0:
		facetCond = Eq{"tag_facet.text": t.Facets.AnyOf}
		for _, facet := range t.Facets.AnyOf {
			if facet == "" {
				// Unfaceted tags are matched only when the set contains the empty facet.
				facetCond = Or{facetCond, Eq{"track_tag.facet_id": nil}}
				break
			}
		}
	case len(t.Facets.NoneOf) > 0:
		facetCond = NotEq{"tag_facet.text": t.Facets.NoneOf}
	default:
		// No facet selector: only unfaceted tags match.
		facetCond = Eq{"track_tag.facet_id": nil}
	}
	sub = sub.Where(facetCond)

	if t.Label != nil {
		labelCond, err := compileStringPredicate("tag_label.text", *t.Label)
		if err != nil {
			return nil, err
		}
		sub = sub.Where(labelCond)
	}
	if t.Score != nil {
		scoreCond, err := compileNumericPredicate("track_tag.score", *t.Score)
		if err != nil {
			return nil, err
		}
		sub = sub.Where(scoreCond)
	}

	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	op := "IN"
	if t.Modifier == model.TagModifierComplement {
		op = "NOT IN"
	}
	return Expr(fmt.Sprintf("row_id %s (%s)", op, subSQL), subArgs...), nil
}

func compileCueLabel(p *model.StringPredicate) (Sqlizer, error) {
	cond, err := compileStringPredicate("cue_label.text", *p)
	if err != nil {
		return nil, err
	}
	sub := Select("track_cue.track_id").From("track_cue").
		Join("cue_label ON cue_label.id = track_cue.label_id").
		Where(cond)
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	return Expr(fmt.Sprintf("row_id IN (%s)", subSQL), subArgs...), nil
}

func compileActorPhrase(f *model.ActorPhraseFilter) (Sqlizer, error) {
	sub := Select("track_actor.track_id").From("track_actor")
	var and And
	if f.Scope != nil {
		and = append(and, Eq{"track_actor.scope": string(*f.Scope)})
	}
	if len(f.Roles) > 0 {
		and = append(and, Eq{"track_actor.role": toStrings(f.Roles)})
	}
	if len(f.Kinds) > 0 {
		and = append(and, Eq{"track_actor.kind": toStrings(f.Kinds)})
	}
	if len(f.NameTerms) > 0 {
		and = append(and, Like{"track_actor.name": likePattern(f.NameTerms)})
	}
	if len(and) > 0 {
		sub = sub.Where(and)
	}
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	op := "IN"
	if f.Modifier == model.TagModifierComplement {
		op = "NOT IN"
	}
	return Expr(fmt.Sprintf("row_id %s (%s)", op, subSQL), subArgs...), nil
}

func compileTitlePhrase(f *model.TitlePhraseFilter) (Sqlizer, error) {
	sub := Select("track_title.track_id").From("track_title")
	var and And
	if f.Scope != nil {
		and = append(and, Eq{"track_title.scope": string(*f.Scope)})
	}
	if len(f.Kinds) > 0 {
		and = append(and, Eq{"track_title.kind": toStrings(f.Kinds)})
	}
	if len(f.NameTerms) > 0 {
		and = append(and, Like{"track_title.name": likePattern(f.NameTerms)})
	}
	if len(and) > 0 {
		sub = sub.Where(and)
	}
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	op := "IN"
	if f.Modifier == model.TagModifierComplement {
		op = "NOT IN"
	}
	return Expr(fmt.Sprintf("row_id %s (%s)", op, subSQL), subArgs...), nil
}

// compileAnyPlaylistUid matches tracks referenced from any of the given
// playlists. Entries are stored as a single JSON column (playlist_repository.go),
// so membership is tested with SQLite's JSON1 json_each table-valued function
// rather than a join, since there is no normalized playlist_entry table.
func compileAnyPlaylistUid(uids []string) (Sqlizer, error) {
	if len(uids) == 0 {
		return dummyFalse(), nil
	}
	sub := Select("track.row_id").
		From("track, playlist, json_each(playlist.entries)").
		Where(Eq{"playlist.entity_uid": uids}).
		Where("json_extract(json_each.value, '$.trackUid') = track.entity_uid")
	subSQL, subArgs, err := sub.ToSql()
	if err != nil {
		return nil, err
	}
	return Expr(fmt.Sprintf("row_id IN (%s)", subSQL), subArgs...), nil
}

// compileStringPredicate implements the §4.3 string-predicate vocabulary.
// Empty needles in positive predicates degenerate to "match all"; empty
// needles in negated predicates degenerate to "match none".
func compileStringPredicate(column string, p model.StringPredicate) (Sqlizer, error) {
	switch p.Kind {
	case model.StrEquals:
		return Eq{column: p.Needle}, nil
	case model.StrEqualsNot:
		return NotEq{column: p.Needle}, nil
	case model.StrPrefix:
		if p.Needle == "" {
			return dummyTrue(), nil
		}
		// Exact substring equality, not a LIKE pattern: a literal '%' or '_' in
		// the needle must match only that literal character, never act as a
		// wildcard (unlike StrStartsWith, which is LIKE-based by design).
		return Expr(fmt.Sprintf("substr(%s, 1, ?) = ?", column), utf8.RuneCountInString(p.Needle), p.Needle), nil
	case model.StrStartsWith:
		if p.Needle == "" {
			return dummyTrue(), nil
		}
		return Like{column: escapeLike(p.Needle) + "%"}, nil
	case model.StrStartsNotWith:
		if p.Needle == "" {
			return dummyFalse(), nil
		}
		return NotLike{column: escapeLike(p.Needle) + "%"}, nil
	case model.StrEndsWith:
		if p.Needle == "" {
			return dummyTrue(), nil
		}
		return Like{column: "%" + escapeLike(p.Needle)}, nil
	case model.StrEndsNotWith:
		if p.Needle == "" {
			return dummyFalse(), nil
		}
		return NotLike{column: "%" + escapeLike(p.Needle)}, nil
	case model.StrContains:
		if p.Needle == "" {
			return dummyTrue(), nil
		}
		return Like{column: "%" + escapeLike(p.Needle) + "%"}, nil
	case model.StrContainsNot:
		if p.Needle == "" {
			return dummyFalse(), nil
		}
		return NotLike{column: "%" + escapeLike(p.Needle) + "%"}, nil
	case model.StrMatches:
		if p.Needle == "" {
			return dummyTrue(), nil
		}
		return Like{column: likePattern([]string{p.Needle})}, nil
	case model.StrMatchesNot:
		if p.Needle == "" {
			return dummyFalse(), nil
		}
		return NotLike{column: likePattern([]string{p.Needle})}, nil
	default:
		return nil, fmt.Errorf("persistence: unknown string predicate %q: %w", p.Kind, model.ErrBadRequest)
	}
}

func toStrings[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}
