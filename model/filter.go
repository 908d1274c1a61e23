package model

// StringField names a string-valued column the Phrase filter can target.
type StringField string

const (
	FieldContentPath StringField = "content_path"
	FieldContentType StringField = "content_type"
	FieldCopyright   StringField = "copyright"
	FieldPublisher   StringField = "publisher"
)

// AllStringFields is the default field set for a Phrase filter with an empty
// fields list.
var AllStringFields = []StringField{FieldContentPath, FieldContentType, FieldCopyright, FieldPublisher}

// NumericField names a numeric-valued column the Numeric filter can target.
type NumericField string

const (
	FieldTempoBPM          NumericField = "tempo_bpm"
	FieldKeyCode           NumericField = "key_code"
	FieldDurationMS        NumericField = "duration_ms"
	FieldBitrateBps        NumericField = "bitrate_bps"
	FieldSampleRateHz      NumericField = "sample_rate_hz"
	FieldChannelCount      NumericField = "channel_count"
	FieldChannelMask       NumericField = "channel_mask"
	FieldLoudnessLufs      NumericField = "loudness_lufs"
	FieldAdvisoryRating    NumericField = "advisory_rating"
	FieldArtworkDataSize   NumericField = "artwork_data_size"
	FieldArtworkWidth      NumericField = "artwork_width"
	FieldArtworkHeight     NumericField = "artwork_height"
	FieldTrackNumber       NumericField = "track_number"
	FieldTrackTotal        NumericField = "track_total"
	FieldDiscNumber        NumericField = "disc_number"
	FieldDiscTotal         NumericField = "disc_total"
	FieldRecordedYYYYMMDD  NumericField = "recorded_yyyymmdd"
	FieldReleasedYYYYMMDD  NumericField = "released_yyyymmdd"
	FieldReleasedOrigYYYYMMDD NumericField = "released_orig_yyyymmdd"
)

// DateTimeField names a millisecond-instant column the DateTime filter can target.
type DateTimeField string

const (
	FieldCollectedAt     DateTimeField = "collected_at"
	FieldRecordedAt      DateTimeField = "recorded_at"
	FieldReleasedAt      DateTimeField = "released_at"
	FieldReleasedOrigAt  DateTimeField = "released_orig_at"
)

// NumericPredicateKind is the comparison operator of a Numeric or DateTime filter.
type NumericPredicateKind string

const (
	PredLess           NumericPredicateKind = "lt"
	PredLessOrEqual    NumericPredicateKind = "le"
	PredGreater        NumericPredicateKind = "gt"
	PredGreaterOrEqual NumericPredicateKind = "ge"
	PredEqual          NumericPredicateKind = "eq"
	PredNotEqual       NumericPredicateKind = "ne"
)

// NumericPredicate compares a numeric or datetime field against a value, or
// tests presence when Value is nil and Kind is PredEqual/PredNotEqual.
type NumericPredicate struct {
	Kind  NumericPredicateKind
	Value *float64
}

// StringPredicateKind is the comparison operator of a StringPredicate.
type StringPredicateKind string

const (
	StrEquals         StringPredicateKind = "equals"
	StrEqualsNot      StringPredicateKind = "equals_not"
	StrPrefix         StringPredicateKind = "prefix"
	StrStartsWith     StringPredicateKind = "starts_with"
	StrStartsNotWith  StringPredicateKind = "starts_not_with"
	StrEndsWith       StringPredicateKind = "ends_with"
	StrEndsNotWith    StringPredicateKind = "ends_not_with"
	StrContains       StringPredicateKind = "contains"
	StrContainsNot    StringPredicateKind = "contains_not"
	StrMatches        StringPredicateKind = "matches"
	StrMatchesNot     StringPredicateKind = "matches_not"
)

// StringPredicate is the vocabulary §4.3 defines for label/name matching
// outside of the multi-term Phrase shorthand.
type StringPredicate struct {
	Kind   StringPredicateKind
	Needle string
}

// TagModifier selects plain membership or its complement for a Tag filter.
type TagModifier string

const (
	TagModifierNone       TagModifier = "none"
	TagModifierComplement TagModifier = "complement"
)

// FacetSelector picks which tag facets a Tag filter considers.
type FacetSelector struct {
	Prefix *string
	AnyOf  []string
	NoneOf []string
}

// ConditionKind names a set-membership test against directory-tracker state.
type ConditionKind string

const (
	ConditionSourceTracked   ConditionKind = "source_tracked"
	ConditionSourceUntracked ConditionKind = "source_untracked"
)

// Filter is the recursive boolean tree the query compiler consumes (§4.3).
// Exactly one of the embedded variant fields is populated; Kind says which.
type Filter struct {
	Kind FilterKind

	Phrase     *PhraseFilter
	Numeric    *NumericFilter
	DateTime   *DateTimeFilter
	Condition  *ConditionKind
	Tag        *TagFilter
	CueLabel   *StringPredicate
	ActorPhrase *ActorPhraseFilter
	TitlePhrase *TitlePhraseFilter
	AnyTrackUid []string
	AnyPlaylistUid []string

	All []Filter
	Any []Filter
	Not *Filter
}

// FilterKind discriminates which variant of Filter is populated.
type FilterKind string

const (
	FilterPhrase      FilterKind = "phrase"
	FilterNumeric     FilterKind = "numeric"
	FilterDateTime    FilterKind = "date_time"
	FilterCondition   FilterKind = "condition"
	FilterTag         FilterKind = "tag"
	FilterCueLabel    FilterKind = "cue_label"
	FilterActorPhrase FilterKind = "actor_phrase"
	FilterTitlePhrase FilterKind = "title_phrase"
	FilterAnyTrackUid FilterKind = "any_track_uid"
	FilterAnyPlaylistUid FilterKind = "any_playlist_uid"
	FilterAll         FilterKind = "all"
	FilterAny         FilterKind = "any"
	FilterNot         FilterKind = "not"
)

// PhraseFilter substring-matches a term list across a set of string fields.
type PhraseFilter struct {
	Fields []StringField
	Terms  []string
}

// NumericFilter compares a numeric column against a predicate, with null
// treated as a field-specific default for ordered comparisons.
type NumericFilter struct {
	Field     NumericField
	Predicate NumericPredicate
}

// DateTimeFilter compares a millisecond-instant column against a predicate.
type DateTimeFilter struct {
	Field     DateTimeField
	Predicate NumericPredicate
}

// TagFilter is a correlated sub-query over the tag table.
type TagFilter struct {
	Modifier TagModifier
	Facets   FacetSelector
	Label    *StringPredicate
	Score    *NumericPredicate
}

// ActorPhraseFilter is a correlated sub-query over the actor table.
type ActorPhraseFilter struct {
	Modifier  TagModifier
	Scope     *Scope
	Roles     []ActorRole
	Kinds     []ActorKind
	NameTerms []string
}

// TitlePhraseFilter is a correlated sub-query over the title table.
type TitlePhraseFilter struct {
	Modifier  TagModifier
	Scope     *Scope
	Kinds     []TitleKind
	NameTerms []string
}
