package playlist

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vinylindex/vinylindex/model"
)

type fakePlaylistRepository struct {
	playlists map[string]*model.Playlist
	// loseRaceFor, when set for a uid, makes Update return a nil revision
	// instead of bumping current — used to simulate a concurrent writer winning
	// the race between Load and Update.
	loseRaceFor map[string]bool
}

func newFakePlaylistRepository(playlists ...*model.Playlist) *fakePlaylistRepository {
	r := &fakePlaylistRepository{playlists: map[string]*model.Playlist{}, loseRaceFor: map[string]bool{}}
	for _, p := range playlists {
		cp := *p
		r.playlists[p.UID] = &cp
	}
	return r
}

func (r *fakePlaylistRepository) Create(p *model.Playlist) (model.Header, error) {
	r.playlists[p.UID] = p
	return p.Header, nil
}

func (r *fakePlaylistRepository) Load(uid string) (*model.Playlist, error) {
	p, ok := r.playlists[uid]
	if !ok {
		return nil, model.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePlaylistRepository) Update(current model.Header, p *model.Playlist) (*model.Revision, error) {
	if r.loseRaceFor[current.UID] {
		return nil, nil
	}
	next := current.Revision.Next(time.Now())
	p.Revision = next
	cp := *p
	r.playlists[p.UID] = &cp
	return &next, nil
}

func (r *fakePlaylistRepository) Delete(uid string) (bool, error) {
	_, ok := r.playlists[uid]
	delete(r.playlists, uid)
	return ok, nil
}

func (r *fakePlaylistRepository) CountAll(options ...model.QueryOptions) (int64, error) {
	return int64(len(r.playlists)), nil
}

func (r *fakePlaylistRepository) GetAll(options ...model.QueryOptions) (model.Playlists, error) {
	out := make(model.Playlists, 0, len(r.playlists))
	for _, p := range r.playlists {
		out = append(out, *p)
	}
	return out, nil
}

var _ model.PlaylistRepository = (*fakePlaylistRepository)(nil)

func newTestPlaylist(uid string, entries ...string) *model.Playlist {
	es := make(model.PlaylistEntries, len(entries))
	for i, uid := range entries {
		es[i] = model.PlaylistEntry{TrackUID: uid}
	}
	return &model.Playlist{
		Header:  model.Header{UID: uid, Revision: model.InitialRevision(time.Now())},
		Title:   "test",
		Entries: es,
	}
}

func TestPatchEngine_AppendBumpsRevision(t *testing.T) {
	p := newTestPlaylist("p1", "t1", "t2")
	repo := newFakePlaylistRepository(p)
	engine := NewEngine(repo, rand.New(rand.NewPCG(1, 1)))

	result, err := engine.Apply("p1", p.Revision, []model.PlaylistOp{model.OpAppend{Entries: model.PlaylistEntries{{TrackUID: "t3"}}}})
	require.NoError(t, err)
	assert.False(t, result.Conflict)
	require.NotNil(t, result.Revision)
	assert.Equal(t, uint64(2), result.Revision.Ordinal)
	assert.Equal(t, []string{"t1", "t2", "t3"}, trackUIDs(result.Playlist.Entries))
}

func TestPatchEngine_EmptyAppendIsNoOpAndDoesNotBumpRevision(t *testing.T) {
	p := newTestPlaylist("p1", "t1")
	repo := newFakePlaylistRepository(p)
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("p1", p.Revision, []model.PlaylistOp{model.OpAppend{Entries: nil}})
	require.NoError(t, err)
	assert.Nil(t, result.Revision)
	assert.False(t, result.Conflict)

	reloaded, err := repo.Load("p1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), reloaded.Revision.Ordinal)
}

func TestPatchEngine_StaleRevisionReportsConflict(t *testing.T) {
	p := newTestPlaylist("p1", "t1")
	repo := newFakePlaylistRepository(p)
	engine := NewEngine(repo, nil)

	stale := model.Revision{Ordinal: 999, Timestamp: p.Revision.Timestamp}
	result, err := engine.Apply("p1", stale, []model.PlaylistOp{model.OpAppend{Entries: model.PlaylistEntries{{TrackUID: "t2"}}}})
	require.NoError(t, err)
	assert.True(t, result.Conflict)
}

func TestPatchEngine_LostRaceBetweenLoadAndUpdateIsConflict(t *testing.T) {
	p := newTestPlaylist("p1", "t1")
	repo := newFakePlaylistRepository(p)
	repo.loseRaceFor["p1"] = true
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("p1", p.Revision, []model.PlaylistOp{model.OpAppend{Entries: model.PlaylistEntries{{TrackUID: "t2"}}}})
	require.NoError(t, err)
	assert.True(t, result.Conflict)
}

func TestPatchEngine_MoveRangeClampsAgainstEntryCount(t *testing.T) {
	p := newTestPlaylist("p1", "a", "b", "c", "d")
	repo := newFakePlaylistRepository(p)
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("p1", p.Revision, []model.PlaylistOp{
		model.OpMove{Range: model.PlaylistRange{Start: 0, End: 2}, Delta: 100},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Revision)
	assert.Equal(t, []string{"c", "d", "a", "b"}, trackUIDs(result.Playlist.Entries))
}

func TestPatchEngine_RemoveAllClearsEntries(t *testing.T) {
	p := newTestPlaylist("p1", "a", "b")
	repo := newFakePlaylistRepository(p)
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("p1", p.Revision, []model.PlaylistOp{model.OpRemoveAll{}})
	require.NoError(t, err)
	require.NotNil(t, result.Revision)
	assert.Empty(t, result.Playlist.Entries)
}

func TestPatchEngine_RemoveAllOnEmptyPlaylistIsNoOp(t *testing.T) {
	p := newTestPlaylist("p1")
	repo := newFakePlaylistRepository(p)
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("p1", p.Revision, []model.PlaylistOp{model.OpRemoveAll{}})
	require.NoError(t, err)
	assert.Nil(t, result.Revision)
}

func TestPatchEngine_CopyAllAppendsSourcePlaylistEntries(t *testing.T) {
	source := newTestPlaylist("src", "x", "y")
	dest := newTestPlaylist("dst", "a")
	repo := newFakePlaylistRepository(source, dest)
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("dst", dest.Revision, []model.PlaylistOp{model.OpCopyAll{SourcePlaylistUID: "src"}})
	require.NoError(t, err)
	require.NotNil(t, result.Revision)
	assert.Equal(t, []string{"a", "x", "y"}, trackUIDs(result.Playlist.Entries))
}

func TestPatchEngine_CopyAllFromEmptySourceIsNoOp(t *testing.T) {
	source := newTestPlaylist("src")
	dest := newTestPlaylist("dst", "a")
	repo := newFakePlaylistRepository(source, dest)
	engine := NewEngine(repo, nil)

	result, err := engine.Apply("dst", dest.Revision, []model.PlaylistOp{model.OpCopyAll{SourcePlaylistUID: "src"}})
	require.NoError(t, err)
	assert.Nil(t, result.Revision)
}

func trackUIDs(entries model.PlaylistEntries) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.TrackUID
	}
	return out
}
