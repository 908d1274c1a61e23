package model

import "time"

// AudioMetadata holds the acoustic/container properties the importer reports.
type AudioMetadata struct {
	DurationMS   *int64   `structs:"audio_duration_ms" json:"durationMs,omitempty"`
	BitrateBps   *int64   `structs:"audio_bitrate_bps" json:"bitrateBps,omitempty"`
	SampleRateHz *int64   `structs:"audio_sample_rate_hz" json:"sampleRateHz,omitempty"`
	ChannelCount *int64   `structs:"audio_channel_count" json:"channelCount,omitempty"`
	ChannelMask  *int64   `structs:"audio_channel_mask" json:"channelMask,omitempty"`
	LoudnessLufs *float64 `structs:"audio_loudness_lufs" json:"loudnessLufs,omitempty"`
}

// ArtworkDigest is an embedded-artwork content digest, when one was found.
type ArtworkDigest struct {
	DataSize *int64  `structs:"artwork_data_size" json:"dataSize,omitempty"`
	Width    *int64  `structs:"artwork_width" json:"width,omitempty"`
	Height   *int64  `structs:"artwork_height" json:"height,omitempty"`
	Digest   *string `structs:"artwork_digest" json:"digest,omitempty"`
}

// MediaSource is owned by exactly one collection; (collection_id, content_path) is unique.
type MediaSource struct {
	Header
	CollectionUID   string        `structs:"collection_id" json:"collectionUid"`
	ContentPath     string        `structs:"content_path" json:"contentPath"`
	ContentType     string        `structs:"content_type" json:"contentType"`
	ContentLinkPath string        `structs:"content_link_path" json:"contentLinkPath"`
	CollectedAt     time.Time     `structs:"collected_ms" json:"collectedAt"`
	SynchronizedAt  *time.Time    `structs:"synchronized_ms" json:"synchronizedAt,omitempty"`
	AudioMetadata   `json:"audio"`
	*ArtworkDigest  `json:"artwork,omitempty"`
}

type MediaSources []MediaSource

// MediaSourceRepository is the Entity Store surface (§4.1) for media sources.
type MediaSourceRepository interface {
	Create(ms *MediaSource) (Header, error)
	Load(uid string) (*MediaSource, error)
	Update(current Header, ms *MediaSource) (*Revision, error)
	Delete(uid string) (bool, error)
	FindByContentPath(collectionUID, contentPath string) (*MediaSource, error)
	CountAll(options ...QueryOptions) (int64, error)
	GetAll(options ...QueryOptions) (MediaSources, error)
}
