package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSearchView, downCreateSearchView)
}

// view_track_search is the single relation the Query Compiler targets (§4.3):
// every filterable/sortable column is exposed under the same abstract name
// model.NumericField/model.DateTimeField/model.StringField/model.SortField
// use, so persistence/query_compiler.go and persistence/sort_compiler.go
// reference it directly without a translation table.
func upCreateSearchView(_ context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
create view if not exists view_track_search as
select
    track.row_id                    as row_id,
    track.entity_uid                as entity_uid,
    track.media_source_id           as media_source_id,
    media_source.collection_id      as collection_id,
    media_source.content_path       as content_path,
    media_source.content_type       as content_type,
    track.publisher                 as publisher,
    track.copyright                 as copyright,
    track.color                     as color,
    track.tempo_bpm                 as tempo_bpm,
    track.key_code                  as key_code,
    track.loudness_lufs             as loudness_lufs,
    track.advisory_rating           as advisory_rating,
    track.track_number              as track_number,
    track.track_total               as track_total,
    track.disc_number               as disc_number,
    track.disc_total                as disc_total,
    media_source.audio_duration_ms    as duration_ms,
    media_source.audio_bitrate_bps    as bitrate_bps,
    media_source.audio_sample_rate_hz as sample_rate_hz,
    media_source.audio_channel_count  as channel_count,
    media_source.audio_channel_mask   as channel_mask,
    media_source.artwork_data_size   as artwork_data_size,
    media_source.artwork_width       as artwork_width,
    media_source.artwork_height      as artwork_height,
    track.recorded_yyyymmdd         as recorded_yyyymmdd,
    track.released_yyyymmdd         as released_yyyymmdd,
    track.released_orig_yyyymmdd    as released_orig_yyyymmdd,
    media_source.collected_ms       as collected_at,
    track.recorded_ms               as recorded_at,
    track.released_ms               as released_at,
    track.released_orig_ms          as released_orig_at
from track
join media_source on media_source.entity_uid = track.media_source_id;
`)
	return err
}

func downCreateSearchView(_ context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`drop view if exists view_track_search;`)
	return err
}
