package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylindex/vinylindex/model"
)

var errPurgeBoom = errors.New("boom")

// fakeTrackRepository implements model.TrackRepository, recording only the
// PurgeUntracked call Purger actually drives; the rest of the interface is
// unused by this package and left unimplemented on purpose.
type fakeTrackRepository struct {
	purged    int64
	err       error
	gotRoot   *string
	gotColUID string
}

func (f *fakeTrackRepository) Create(t *model.Track) (model.Header, error) { panic("not used") }
func (f *fakeTrackRepository) Load(uid string) (*model.Track, error)       { panic("not used") }
func (f *fakeTrackRepository) Update(current model.Header, t *model.Track) (*model.Revision, error) {
	panic("not used")
}
func (f *fakeTrackRepository) Delete(uid string) (bool, error) { panic("not used") }
func (f *fakeTrackRepository) Search(fl model.Filter, sorts []model.SortOrder, page model.Pagination) (model.Tracks, error) {
	panic("not used")
}
func (f *fakeTrackRepository) CountSearch(fl model.Filter) (int64, error) { panic("not used") }
func (f *fakeTrackRepository) ResolveByContentPath(collectionUID, contentPath string) (*model.Header, error) {
	panic("not used")
}
func (f *fakeTrackRepository) ReplaceByContentPath(collectionUID, contentPath string, mode model.ReplaceMode, t *model.Track) (model.ReplaceOutcome, error) {
	panic("not used")
}
func (f *fakeTrackRepository) FindDuplicateContentPaths(collectionUID string) ([][]string, error) {
	panic("not used")
}
func (f *fakeTrackRepository) PurgeUntracked(collectionUID string, contentPathPrefix *string) (int64, error) {
	f.gotColUID = collectionUID
	f.gotRoot = contentPathPrefix
	return f.purged, f.err
}

var _ model.TrackRepository = (*fakeTrackRepository)(nil)

type fakeDirectoryUntracker struct {
	untracked int64
	err       error
	called    bool
}

func (f *fakeDirectoryUntracker) UntrackOrphanedDirectories(ctx context.Context, collectionUID, rootURL string) (int64, error) {
	f.called = true
	return f.untracked, f.err
}

var _ DirectoryUntracker = (*fakeDirectoryUntracker)(nil)

func TestPurger_PurgesTracksWithoutDirectoryUntracker(t *testing.T) {
	tracks := &fakeTrackRepository{purged: 3}
	p := NewPurger(tracks, nil)

	root := "/music"
	summary, err := p.PurgeUntracked(context.Background(), "col1", &root, true)
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.PurgedTracks)
	assert.Equal(t, int64(0), summary.UntrackedDirectories)
	assert.Equal(t, "col1", tracks.gotColUID)
	require.NotNil(t, tracks.gotRoot)
	assert.Equal(t, "/music", *tracks.gotRoot)
}

func TestPurger_UntracksOrphanedDirectoriesWhenRequested(t *testing.T) {
	tracks := &fakeTrackRepository{purged: 1}
	dirs := &fakeDirectoryUntracker{untracked: 2}
	p := NewPurger(tracks, dirs)

	summary, err := p.PurgeUntracked(context.Background(), "col1", nil, true)
	require.NoError(t, err)
	assert.True(t, dirs.called)
	assert.Equal(t, int64(2), summary.UntrackedDirectories)
}

func TestPurger_SkipsDirectoryUntrackWhenNotRequested(t *testing.T) {
	tracks := &fakeTrackRepository{purged: 1}
	dirs := &fakeDirectoryUntracker{untracked: 5}
	p := NewPurger(tracks, dirs)

	summary, err := p.PurgeUntracked(context.Background(), "col1", nil, false)
	require.NoError(t, err)
	assert.False(t, dirs.called)
	assert.Equal(t, int64(0), summary.UntrackedDirectories)
}

func TestPurger_PropagatesTrackRepositoryError(t *testing.T) {
	tracks := &fakeTrackRepository{err: errPurgeBoom}
	p := NewPurger(tracks, nil)

	_, err := p.PurgeUntracked(context.Background(), "col1", nil, false)
	assert.ErrorIs(t, err, errPurgeBoom)
}
