// Package playlist implements the Playlist Patch Engine (§4.6): an ordered
// list of operations applied to one playlist body under optimistic
// concurrency, skipping no-op operations so the revision only bumps when
// something actually changed.
package playlist

import (
	"fmt"
	"math/rand/v2"

	"github.com/vinylindex/vinylindex/model"
)

// PatchResult mirrors the conflicting-revision short-circuit of the original
// patch_playlist: either the patch applied and bumped the revision, the
// caller's revision was stale, or no operation actually changed anything.
type PatchResult struct {
	Playlist *model.Playlist
	Revision *model.Revision
	Conflict bool
}

// Engine applies ordered PlaylistOp values to a playlist body.
type Engine struct {
	playlists model.PlaylistRepository
	rng       *rand.Rand
}

// NewEngine constructs a patch Engine. rng is injected for ShuffleAll's
// determinism in tests; pass nil to use the process-global source.
func NewEngine(playlists model.PlaylistRepository, rng *rand.Rand) *Engine {
	return &Engine{playlists: playlists, rng: rng}
}

// Apply loads the playlist, applies ops in order, and writes back only if at
// least one op modified the entry list. current is the caller's last-known
// revision; a mismatch against the stored revision is reported as Conflict
// without applying any operation, matching the original's
// "conflicting revision" early return.
func (e *Engine) Apply(uid string, current model.Revision, ops []model.PlaylistOp) (PatchResult, error) {
	p, err := e.playlists.Load(uid)
	if err != nil {
		return PatchResult{}, err
	}
	if !p.Revision.Equal(current) {
		return PatchResult{Playlist: p, Conflict: true}, nil
	}

	modified := false
	for _, op := range ops {
		if e.applyOne(p, op) {
			modified = true
		}
	}
	if !modified {
		return PatchResult{Playlist: p}, nil
	}

	next, err := e.playlists.Update(p.Header, p)
	if err != nil {
		return PatchResult{}, err
	}
	if next == nil {
		// Lost a race against a concurrent writer between Load and Update.
		return PatchResult{Playlist: p, Conflict: true}, nil
	}
	return PatchResult{Playlist: p, Revision: next}, nil
}

// applyOne applies a single operation to p.Entries in place, reporting
// whether it changed anything. Range arithmetic is clamped the same way the
// original clamps start/end against entries.len(): start.min(len),
// end.max(start).
func (e *Engine) applyOne(p *model.Playlist, op model.PlaylistOp) bool {
	switch o := op.(type) {
	case model.OpAppend:
		if len(o.Entries) == 0 {
			return false
		}
		p.Entries = append(p.Entries, o.Entries...)
		return true

	case model.OpPrepend:
		if len(o.Entries) == 0 {
			return false
		}
		p.Entries = append(append(model.PlaylistEntries{}, o.Entries...), p.Entries...)
		return true

	case model.OpInsertBefore:
		if len(o.Entries) == 0 {
			return false
		}
		before := clamp(o.Index, 0, len(p.Entries))
		out := make(model.PlaylistEntries, 0, len(p.Entries)+len(o.Entries))
		out = append(out, p.Entries[:before]...)
		out = append(out, o.Entries...)
		out = append(out, p.Entries[before:]...)
		p.Entries = out
		return true

	case model.OpMove:
		return e.move(p, o.Range, o.Delta)

	case model.OpRemove:
		return e.remove(p, o.Range)

	case model.OpRemoveAll:
		if len(p.Entries) == 0 {
			return false
		}
		p.Entries = nil
		return true

	case model.OpReverseAll:
		if len(p.Entries) < 2 {
			return false
		}
		for i, j := 0, len(p.Entries)-1; i < j; i, j = i+1, j-1 {
			p.Entries[i], p.Entries[j] = p.Entries[j], p.Entries[i]
		}
		return true

	case model.OpShuffleAll:
		if len(p.Entries) < 2 {
			return false
		}
		e.shuffle(p.Entries)
		return true

	case model.OpCopyAll:
		return e.copyAll(p, o.SourcePlaylistUID)

	default:
		panic(fmt.Sprintf("playlist: unknown patch operation %T", op))
	}
}

// clampRange normalizes a half-open range against the current entry count:
// start is clamped into [0, len], end is clamped to be no less than start,
// mirroring the original's start.min(len)/end.max(start).
func clampRange(r model.PlaylistRange, length int) (int, int) {
	start := clamp(r.Start, 0, length)
	end := clamp(r.End, start, length)
	return start, end
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func (e *Engine) move(p *model.Playlist, r model.PlaylistRange, delta int) bool {
	start, end := clampRange(r, len(p.Entries))
	if start == end || delta == 0 {
		return false
	}

	moved := append(model.PlaylistEntries{}, p.Entries[start:end]...)
	rest := append(append(model.PlaylistEntries{}, p.Entries[:start]...), p.Entries[end:]...)

	target := clamp(start+delta, 0, len(rest))
	out := make(model.PlaylistEntries, 0, len(p.Entries))
	out = append(out, rest[:target]...)
	out = append(out, moved...)
	out = append(out, rest[target:]...)
	p.Entries = out
	return true
}

func (e *Engine) remove(p *model.Playlist, r model.PlaylistRange) bool {
	start, end := clampRange(r, len(p.Entries))
	if start == end {
		return false
	}
	out := make(model.PlaylistEntries, 0, len(p.Entries)-(end-start))
	out = append(out, p.Entries[:start]...)
	out = append(out, p.Entries[end:]...)
	p.Entries = out
	return true
}

func (e *Engine) shuffle(entries model.PlaylistEntries) {
	n := len(entries)
	swap := func(i, j int) { entries[i], entries[j] = entries[j], entries[i] }
	if e.rng != nil {
		e.rng.Shuffle(n, swap)
		return
	}
	rand.Shuffle(n, swap)
}

// copyAll appends every entry of another playlist to p, a supplemented
// operation beyond the original's patch vocabulary, grounded in the same
// "read a playlist body, then mutate another" shape as the rest of this
// package.
func (e *Engine) copyAll(p *model.Playlist, sourceUID string) bool {
	source, err := e.playlists.Load(sourceUID)
	if err != nil || len(source.Entries) == 0 {
		return false
	}
	p.Entries = append(p.Entries, source.Entries...)
	return true
}
