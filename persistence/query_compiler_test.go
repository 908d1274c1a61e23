package persistence

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/vinylindex/vinylindex/model"
)

func compile(f model.Filter) (string, []interface{}) {
	sql, err := CompileTrackSearch(f, nil, model.NoPagination())
	Expect(err).ToNot(HaveOccurred())
	query, args, err := sql.ToSql()
	Expect(err).ToNot(HaveOccurred())
	return query, args
}

func ptrCond(c model.ConditionKind) *model.ConditionKind { return &c }

var _ = Describe("CompileTrackSearch", func() {
	It("matches everything for an empty All", func() {
		query, _ := compile(model.Filter{Kind: model.FilterAll})
		Expect(query).To(ContainSubstring("1 = 1"))
		Expect(query).To(ContainSubstring(searchView))
	})

	It("matches nothing for an empty Any", func() {
		query, _ := compile(model.Filter{Kind: model.FilterAny})
		Expect(query).To(ContainSubstring("1 = 0"))
	})

	It("matches nothing for an empty AnyTrackUid", func() {
		query, _ := compile(model.Filter{Kind: model.FilterAnyTrackUid, AnyTrackUid: nil})
		Expect(query).To(ContainSubstring("1 = 0"))
	})

	It("negates its child for Not", func() {
		inner := model.Filter{Kind: model.FilterCondition, Condition: ptrCond(model.ConditionSourceTracked)}
		query, _ := compile(model.Filter{Kind: model.FilterNot, Not: &inner})
		Expect(query).To(ContainSubstring("NOT ("))
		Expect(query).To(ContainSubstring("tracked_media_source"))
	})

	It("matches null-or-empty for a Phrase with no terms", func() {
		f := model.Filter{Kind: model.FilterPhrase, Phrase: &model.PhraseFilter{
			Fields: []model.StringField{model.FieldPublisher},
		}}
		query, args := compile(f)
		Expect(query).To(ContainSubstring("publisher"))
		Expect(query).To(ContainSubstring("IS NULL"))
		Expect(args).To(ContainElement(""))
	})

	It("escapes LIKE wildcards in Phrase terms", func() {
		f := model.Filter{Kind: model.FilterPhrase, Phrase: &model.PhraseFilter{
			Fields: []model.StringField{model.FieldPublisher},
			Terms:  []string{"100%"},
		}}
		_, args := compile(f)
		Expect(args).To(HaveLen(1))
		Expect(args[0]).To(Equal(`%100\%%`))
	})

	It("rejects NaN in a Numeric equality predicate", func() {
		nan := float64(0)
		nan = nan / nan
		f := model.Filter{Kind: model.FilterNumeric, Numeric: &model.NumericFilter{
			Field:     model.FieldTempoBPM,
			Predicate: model.NumericPredicate{Kind: model.PredEqual, Value: &nan},
		}}
		_, err := CompileTrackSearch(f, nil, model.NoPagination())
		Expect(err).To(HaveOccurred())
	})

	It("rejects a null value on a non-equality Numeric predicate", func() {
		f := model.Filter{Kind: model.FilterNumeric, Numeric: &model.NumericFilter{
			Field:     model.FieldTempoBPM,
			Predicate: model.NumericPredicate{Kind: model.PredGreater, Value: nil},
		}}
		_, err := CompileTrackSearch(f, nil, model.NoPagination())
		Expect(err).To(HaveOccurred())
	})

	It("coalesces a null key_code to int16Max for Lt/Le/Eq/Ne so it never satisfies a Lt bound", func() {
		five := float64(5)
		f := model.Filter{Kind: model.FilterNumeric, Numeric: &model.NumericFilter{
			Field:     model.FieldKeyCode,
			Predicate: model.NumericPredicate{Kind: model.PredLess, Value: &five},
		}}
		query, args := compile(f)
		Expect(query).To(ContainSubstring("coalesce(key_code, ?)"))
		Expect(args).To(ContainElement(int16Max))
	})

	It("coalesces a null key_code to -1 for Gt/Ge so it never satisfies those bounds", func() {
		five := float64(5)
		f := model.Filter{Kind: model.FilterNumeric, Numeric: &model.NumericFilter{
			Field:     model.FieldKeyCode,
			Predicate: model.NumericPredicate{Kind: model.PredGreater, Value: &five},
		}}
		query, args := compile(f)
		Expect(query).To(ContainSubstring("coalesce(key_code, ?)"))
		Expect(args).To(ContainElement(-1))
	})

	It("treats a literal wildcard character as literal in StrPrefix, unlike StrStartsWith", func() {
		prefixCond, err := compileStringPredicate("publisher", model.StringPredicate{Kind: model.StrPrefix, Needle: "100%"})
		Expect(err).ToNot(HaveOccurred())
		query, args, err := prefixCond.ToSql()
		Expect(err).ToNot(HaveOccurred())
		Expect(query).To(ContainSubstring("substr(publisher"))
		Expect(query).ToNot(ContainSubstring("LIKE"))
		Expect(args).To(ContainElement("100%"))

		startsWithCond, err := compileStringPredicate("publisher", model.StringPredicate{Kind: model.StrStartsWith, Needle: "100%"})
		Expect(err).ToNot(HaveOccurred())
		_, startsWithArgs, err := startsWithCond.ToSql()
		Expect(err).ToNot(HaveOccurred())
		Expect(startsWithArgs).To(ContainElement(`100\%%`))
	})

	It("ignores Offset when no Limit is set", func() {
		offset := int64(10)
		sql, err := CompileTrackSearch(model.Filter{Kind: model.FilterAll}, nil, model.Pagination{Offset: &offset})
		Expect(err).ToNot(HaveOccurred())
		query, _, err := sql.ToSql()
		Expect(err).ToNot(HaveOccurred())
		Expect(query).ToNot(ContainSubstring("OFFSET"))
	})

	It("always tiebreaks the sort on row_id", func() {
		sql, err := CompileTrackSearch(model.Filter{Kind: model.FilterAll}, []model.SortOrder{
			{Field: model.SortByDurationMS, Direction: model.SortDescending},
		}, model.NoPagination())
		Expect(err).ToNot(HaveOccurred())
		query, _, err := sql.ToSql()
		Expect(err).ToNot(HaveOccurred())
		Expect(query).To(ContainSubstring("duration_ms DESC"))
		Expect(query).To(ContainSubstring("row_id ASC"))
	})

	It("matches nothing for an empty AnyPlaylistUid", func() {
		query, _ := compile(model.Filter{Kind: model.FilterAnyPlaylistUid})
		Expect(query).To(ContainSubstring("1 = 0"))
	})

	It("compiles AnyPlaylistUid against json_each over playlist.entries", func() {
		query, _ := compile(model.Filter{Kind: model.FilterAnyPlaylistUid, AnyPlaylistUid: []string{"p1"}})
		Expect(query).To(ContainSubstring("json_each(playlist.entries)"))
		Expect(query).To(ContainSubstring("json_extract(json_each.value, '$.trackUid')"))
	})
})

func TestQueryCompiler(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Query Compiler Suite")
}
