package persistence

import (
	"testing"
	"time"

	. "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylindex/vinylindex/model"
)

func TestTrackRepository_ReplaceByContentPathCreateOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()
	collections := NewCollectionRepository(ctx, db)
	sources := NewMediaSourceRepository(ctx, db)
	tracks := NewTrackRepository(ctx, db)

	col, err := collections.Create(&model.Collection{Title: "C"})
	require.NoError(t, err)

	src, err := sources.Create(&model.MediaSource{
		CollectionUID: col.UID, ContentPath: "a.flac", ContentType: "audio/flac",
		ContentLinkPath: "a.flac", CollectedAt: time.Now(),
	})
	require.NoError(t, err)

	outcome, err := tracks.ReplaceByContentPath(col.UID, "a.flac", model.ReplaceModeCreateOnly, &model.Track{MediaSourceUID: src.UID})
	require.NoError(t, err)
	assert.Equal(t, model.ReplaceOutcomeCreated, outcome)

	// A second create-only replace against the same content path must not create a duplicate.
	outcome, err = tracks.ReplaceByContentPath(col.UID, "a.flac", model.ReplaceModeCreateOnly, &model.Track{MediaSourceUID: src.UID})
	require.NoError(t, err)
	assert.Equal(t, model.ReplaceOutcomeNotCreated, outcome)
}

func TestTrackRepository_ReplaceByContentPathUpdateOnly(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()
	collections := NewCollectionRepository(ctx, db)
	sources := NewMediaSourceRepository(ctx, db)
	tracks := NewTrackRepository(ctx, db)

	col, err := collections.Create(&model.Collection{Title: "C"})
	require.NoError(t, err)

	// update-only against a content path with no existing track must report NotUpdated,
	// not create one.
	outcome, err := tracks.ReplaceByContentPath(col.UID, "missing.flac", model.ReplaceModeUpdateOnly, &model.Track{})
	require.NoError(t, err)
	assert.Equal(t, model.ReplaceOutcomeNotUpdated, outcome)

	src, err := sources.Create(&model.MediaSource{
		CollectionUID: col.UID, ContentPath: "b.flac", ContentType: "audio/flac",
		ContentLinkPath: "b.flac", CollectedAt: time.Now(),
	})
	require.NoError(t, err)
	_, err = tracks.ReplaceByContentPath(col.UID, "b.flac", model.ReplaceModeUpdateOrCreate, &model.Track{MediaSourceUID: src.UID})
	require.NoError(t, err)

	outcome, err = tracks.ReplaceByContentPath(col.UID, "b.flac", model.ReplaceModeUpdateOnly, &model.Track{MediaSourceUID: src.UID})
	require.NoError(t, err)
	assert.Equal(t, model.ReplaceOutcomeUpdated, outcome)
}

func TestTrackRepository_ReplaceByContentPathUpdateOrCreate(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()
	collections := NewCollectionRepository(ctx, db)
	sources := NewMediaSourceRepository(ctx, db)
	tracks := NewTrackRepository(ctx, db)

	col, err := collections.Create(&model.Collection{Title: "C"})
	require.NoError(t, err)
	src, err := sources.Create(&model.MediaSource{
		CollectionUID: col.UID, ContentPath: "c.flac", ContentType: "audio/flac",
		ContentLinkPath: "c.flac", CollectedAt: time.Now(),
	})
	require.NoError(t, err)

	outcome, err := tracks.ReplaceByContentPath(col.UID, "c.flac", model.ReplaceModeUpdateOrCreate, &model.Track{MediaSourceUID: src.UID})
	require.NoError(t, err)
	assert.Equal(t, model.ReplaceOutcomeCreated, outcome)

	outcome, err = tracks.ReplaceByContentPath(col.UID, "c.flac", model.ReplaceModeUpdateOrCreate, &model.Track{MediaSourceUID: src.UID})
	require.NoError(t, err)
	assert.Equal(t, model.ReplaceOutcomeUpdated, outcome)
}

func TestTrackRepository_PurgeUntrackedDeletesOnlyUntrackedRowsInCollection(t *testing.T) {
	db := openTestDB(t)
	ctx := testContext()
	collections := NewCollectionRepository(ctx, db)
	sources := NewMediaSourceRepository(ctx, db)
	tracks := NewTrackRepository(ctx, db)

	colA, err := collections.Create(&model.Collection{Title: "A"})
	require.NoError(t, err)
	colB, err := collections.Create(&model.Collection{Title: "B"})
	require.NoError(t, err)

	trackedSrc, err := sources.Create(&model.MediaSource{
		CollectionUID: colA.UID, ContentPath: "/music/tracked.flac", ContentType: "audio/flac",
		ContentLinkPath: "/music/tracked.flac", CollectedAt: time.Now(),
	})
	require.NoError(t, err)
	untrackedSrc, err := sources.Create(&model.MediaSource{
		CollectionUID: colA.UID, ContentPath: "/music/untracked.flac", ContentType: "audio/flac",
		ContentLinkPath: "/music/untracked.flac", CollectedAt: time.Now(),
	})
	require.NoError(t, err)
	otherCollectionSrc, err := sources.Create(&model.MediaSource{
		CollectionUID: colB.UID, ContentPath: "/music/elsewhere.flac", ContentType: "audio/flac",
		ContentLinkPath: "/music/elsewhere.flac", CollectedAt: time.Now(),
	})
	require.NoError(t, err)

	ins := Insert("tracked_media_source").Columns("media_source_id").Values(trackedSrc.UID)
	query, args, err := ins.ToSql()
	require.NoError(t, err)
	_, err = db.NewQuery(rebind(query)).Bind(bindArgs(args)).WithContext(ctx).Execute()
	require.NoError(t, err)

	trackedHeader, err := tracks.Create(&model.Track{MediaSourceUID: trackedSrc.UID})
	require.NoError(t, err)
	_, err = tracks.Create(&model.Track{MediaSourceUID: untrackedSrc.UID})
	require.NoError(t, err)
	_, err = tracks.Create(&model.Track{MediaSourceUID: otherCollectionSrc.UID})
	require.NoError(t, err)

	purged, err := tracks.PurgeUntracked(colA.UID, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)

	_, err = tracks.Load(trackedHeader.UID)
	assert.NoError(t, err)
}
