package persistence

import (
	"encoding/json"
	"fmt"

	"github.com/vinylindex/vinylindex/model"
)

// Canonical body format constants, stored alongside the opaque blob in the
// track table's body_format/body_version_major/body_version_minor columns
// (§6), so a future codec change can be detected and migrated explicitly.
const (
	bodyFormatJSON        = "json"
	bodyVersionMajor      = 1
	bodyVersionMinor      = 0
)

// encodeTrackBody serializes a track's canonical fields (everything except
// Header, which is stored in dedicated columns) into the versioned body blob.
func encodeTrackBody(t *model.Track) (format string, major, minor int, body []byte, err error) {
	type trackBody struct {
		MediaSourceUID string            `json:"mediaSourceUid"`
		Titles         model.Titles      `json:"titles"`
		Actors         model.Actors      `json:"actors,omitempty"`
		Album          *model.Album      `json:"album,omitempty"`
		TrackIndex     model.Index       `json:"trackIndex"`
		DiscIndex      model.Index       `json:"discIndex"`
		MovementIndex  model.Index       `json:"movementIndex"`
		RecordedAt     model.PackedDate  `json:"recordedAt"`
		ReleasedAt     model.PackedDate  `json:"releasedAt"`
		ReleasedOrigAt model.PackedDate  `json:"releasedOrigAt"`
		Tags           model.Tags        `json:"tags,omitempty"`
		Cues           model.Cues        `json:"cues,omitempty"`
		Metrics        model.Metrics     `json:"metrics"`
		Publisher      *string           `json:"publisher,omitempty"`
		Copyright      *string           `json:"copyright,omitempty"`
		AdvisoryRating *model.AdvisoryRating `json:"advisoryRating,omitempty"`
		Color          *string           `json:"color,omitempty"`
	}
	b, err := json.Marshal(trackBody{
		MediaSourceUID: t.MediaSourceUID,
		Titles:         t.Titles,
		Actors:         t.Actors,
		Album:          t.Album,
		TrackIndex:     t.TrackIndex,
		DiscIndex:      t.DiscIndex,
		MovementIndex:  t.MovementIndex,
		RecordedAt:     t.RecordedAt,
		ReleasedAt:     t.ReleasedAt,
		ReleasedOrigAt: t.ReleasedOrigAt,
		Tags:           t.Tags,
		Cues:           t.Cues,
		Metrics:        t.Metrics,
		Publisher:      t.Publisher,
		Copyright:      t.Copyright,
		AdvisoryRating: t.AdvisoryRating,
		Color:          t.Color,
	})
	if err != nil {
		return "", 0, 0, nil, fmt.Errorf("persistence: encoding track body: %w", err)
	}
	return bodyFormatJSON, bodyVersionMajor, bodyVersionMinor, b, nil
}

// decodeTrackBody reverses encodeTrackBody, rejecting any format/version this
// build does not understand rather than guessing at forward-compatible decoding.
func decodeTrackBody(format string, major, minor int, body []byte, into *model.Track) error {
	if format != bodyFormatJSON || major != bodyVersionMajor {
		return fmt.Errorf("persistence: unsupported track body format %s v%d.%d: %w", format, major, minor, model.ErrDatabase)
	}
	var decoded struct {
		MediaSourceUID string            `json:"mediaSourceUid"`
		Titles         model.Titles      `json:"titles"`
		Actors         model.Actors      `json:"actors,omitempty"`
		Album          *model.Album      `json:"album,omitempty"`
		TrackIndex     model.Index       `json:"trackIndex"`
		DiscIndex      model.Index       `json:"discIndex"`
		MovementIndex  model.Index       `json:"movementIndex"`
		RecordedAt     model.PackedDate  `json:"recordedAt"`
		ReleasedAt     model.PackedDate  `json:"releasedAt"`
		ReleasedOrigAt model.PackedDate  `json:"releasedOrigAt"`
		Tags           model.Tags        `json:"tags,omitempty"`
		Cues           model.Cues        `json:"cues,omitempty"`
		Metrics        model.Metrics     `json:"metrics"`
		Publisher      *string           `json:"publisher,omitempty"`
		Copyright      *string           `json:"copyright,omitempty"`
		AdvisoryRating *model.AdvisoryRating `json:"advisoryRating,omitempty"`
		Color          *string           `json:"color,omitempty"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return fmt.Errorf("persistence: decoding track body: %w", err)
	}
	into.MediaSourceUID = decoded.MediaSourceUID
	into.Titles = decoded.Titles
	into.Actors = decoded.Actors
	into.Album = decoded.Album
	into.TrackIndex = decoded.TrackIndex
	into.DiscIndex = decoded.DiscIndex
	into.MovementIndex = decoded.MovementIndex
	into.RecordedAt = decoded.RecordedAt
	into.ReleasedAt = decoded.ReleasedAt
	into.ReleasedOrigAt = decoded.ReleasedOrigAt
	into.Tags = decoded.Tags
	into.Cues = decoded.Cues
	into.Metrics = decoded.Metrics
	into.Publisher = decoded.Publisher
	into.Copyright = decoded.Copyright
	into.AdvisoryRating = decoded.AdvisoryRating
	into.Color = decoded.Color
	return nil
}
