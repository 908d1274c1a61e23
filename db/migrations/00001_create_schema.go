package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(upCreateSchema, downCreateSchema)
}

func upCreateSchema(_ context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
create table if not exists collection
(
    row_id           integer not null primary key autoincrement,
    entity_uid       varchar(32) not null unique,
    rev_ordinal      integer not null,
    rev_timestamp_ms integer not null,
    title            text not null,
    kind             text,
    color            text,
    notes            text
);

create table if not exists media_source
(
    row_id             integer not null primary key autoincrement,
    entity_uid         varchar(32) not null unique,
    rev_ordinal        integer not null,
    rev_timestamp_ms   integer not null,
    collection_id      varchar(32) not null references collection(entity_uid) on delete cascade,
    content_path       text not null,
    content_type       text not null,
    content_link_path  text not null,
    collected_ms       integer not null,
    synchronized_ms    integer,
    audio_duration_ms    integer,
    audio_bitrate_bps    integer,
    audio_sample_rate_hz integer,
    audio_channel_count  integer,
    audio_channel_mask   integer,
    audio_loudness_lufs  real,
    artwork_data_size  integer,
    artwork_width      integer,
    artwork_height     integer,
    artwork_digest     text,
    unique(collection_id, content_path)
);

create index if not exists media_source_collection_id on media_source(collection_id);

create table if not exists track
(
    row_id             integer not null primary key autoincrement,
    entity_uid         varchar(32) not null unique,
    rev_ordinal        integer not null,
    rev_timestamp_ms   integer not null,
    media_source_id    varchar(32) not null references media_source(entity_uid) on delete cascade,
    body_format        text not null,
    body_version_major integer not null,
    body_version_minor integer not null,
    body_bytes         blob not null,
    publisher          text,
    copyright          text,
    advisory_rating    integer,
    color              text,
    tempo_bpm          real,
    key_code           integer,
    loudness_lufs      real,
    track_number       integer,
    track_total        integer,
    disc_number        integer,
    disc_total         integer,
    movement_number    integer,
    movement_total     integer,
    recorded_yyyymmdd        integer,
    recorded_ms              integer,
    released_yyyymmdd        integer,
    released_ms              integer,
    released_orig_yyyymmdd   integer,
    released_orig_ms         integer
);

create index if not exists track_media_source_id on track(media_source_id);
create index if not exists track_recorded_ms on track(recorded_ms);
create index if not exists track_released_ms on track(released_ms);
create index if not exists track_track_number on track(track_number);
create index if not exists track_disc_number on track(disc_number);

create table if not exists tag_facet
(
    id   varchar(22) not null primary key,
    text text not null unique
);

create table if not exists tag_label
(
    id   varchar(22) not null primary key,
    text text not null unique
);

create table if not exists cue_label
(
    id   varchar(22) not null primary key,
    text text not null unique
);

create table if not exists track_title
(
    track_id integer not null references track(row_id) on delete cascade,
    scope    text not null,
    kind     text not null,
    name     text not null
);

create index if not exists track_title_track_id on track_title(track_id);
create index if not exists track_title_name on track_title(name);

create table if not exists track_actor
(
    track_id integer not null references track(row_id) on delete cascade,
    scope    text not null,
    role     text not null,
    kind     text not null,
    name     text not null
);

create index if not exists track_actor_track_id on track_actor(track_id);
create index if not exists track_actor_name on track_actor(name);

create table if not exists track_tag
(
    track_id integer not null references track(row_id) on delete cascade,
    facet_id varchar(22) references tag_facet(id),
    label_id varchar(22) references tag_label(id),
    score    real
);

create index if not exists track_tag_track_id on track_tag(track_id);
create index if not exists track_tag_facet_id on track_tag(facet_id);
create index if not exists track_tag_label_id on track_tag(label_id);

create table if not exists track_cue
(
    track_id integer not null references track(row_id) on delete cascade,
    ordinal  integer not null,
    label_id varchar(22) references cue_label(id)
);

create index if not exists track_cue_track_id on track_cue(track_id);

create table if not exists tracked_media_source
(
    media_source_id varchar(32) not null primary key references media_source(entity_uid) on delete cascade
);

create table if not exists playlist
(
    row_id           integer not null primary key autoincrement,
    entity_uid       varchar(32) not null unique,
    rev_ordinal      integer not null,
    rev_timestamp_ms integer not null,
    title            text not null,
    kind             text,
    color            text,
    notes            text,
    entries          text not null default '[]'
);
`)
	return err
}

func downCreateSchema(_ context.Context, tx *sql.Tx) error {
	_, err := tx.Exec(`
drop table if exists playlist;
drop table if exists tracked_media_source;
drop table if exists track_cue;
drop table if exists track_tag;
drop table if exists track_actor;
drop table if exists track_title;
drop table if exists cue_label;
drop table if exists tag_label;
drop table if exists tag_facet;
drop table if exists track;
drop table if exists media_source;
drop table if exists collection;
`)
	return err
}
