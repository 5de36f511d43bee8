package timeline

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clipIDs(tr Track) []string {
	ids := make([]string, len(tr.Clips))
	for i, c := range tr.Clips {
		ids[i] = c.ID
	}
	return ids
}

func TestSortClips(t *testing.T) {
	e := newTestEngine()
	tl := e.CreateTimeline("Demo")
	tl, tr := e.AddTrack(tl, MediaVideo, "")
	tl, c := addClip(t, e, tl, tr.ID, 8, 9)
	tl, a := addClip(t, e, tl, tr.ID, 1, 3)
	tl, b1 := addClip(t, e, tl, tr.ID, 4, 6)
	tl, b2 := addClip(t, e, tl, tr.ID, 4, 5)

	sorted := e.SortClips(tl)

	got, _ := sorted.Track(tr.ID)
	assert.Equal(t, []string{a.ID, b1.ID, b2.ID, c.ID}, clipIDs(got))
	assert.Equal(t, tl.Duration(), sorted.Duration())

	before, _ := tl.Track(tr.ID)
	assert.Equal(t, []string{c.ID, a.ID, b1.ID, b2.ID}, clipIDs(before))

	again, _ := e.SortClips(sorted).Track(tr.ID)
	assert.Equal(t, clipIDs(got), clipIDs(again))
}

func TestSplitOverlappingClips_TrimsLaterClip(t *testing.T) {
	e := newTestEngine()
	tl := e.CreateTimeline("Demo")
	tl, tr := e.AddTrack(tl, MediaVideo, "")
	tl, a := addClip(t, e, tl, tr.ID, 0, 5)
	tl, b := addClip(t, e, tl, tr.ID, 3, 8)

	next := e.SplitOverlappingClips(tl)

	got, _ := next.Track(tr.ID)
	require.Len(t, got.Clips, 2)
	assert.Equal(t, a.ID, got.Clips[0].ID)
	assert.Equal(t, 0.0, got.Clips[0].StartTime)
	assert.Equal(t, 5.0, got.Clips[0].EndTime)
	assert.Equal(t, b.ID, got.Clips[1].ID)
	assert.Equal(t, 5.0, got.Clips[1].StartTime)
	assert.Equal(t, 8.0, got.Clips[1].EndTime)
	assert.Equal(t, 2.0, got.Clips[1].TrimStart)
	assert.False(t, got.Clips[0].Overlaps(got.Clips[1]))
	assert.Equal(t, 8.0, next.Duration())
}

func TestSplitOverlappingClips_DropsShadowedClip(t *testing.T) {
	e := newTestEngine()
	tl := e.CreateTimeline("Demo")
	tl, tr := e.AddTrack(tl, MediaVideo, "")
	tl, long := addClip(t, e, tl, tr.ID, 0, 10)
	tl, inner := addClip(t, e, tl, tr.ID, 2, 4)

	next := e.SplitOverlappingClips(tl)

	got, _ := next.Track(tr.ID)
	assert.Equal(t, []string{long.ID}, clipIDs(got))
	assert.False(t, next.HasClip(inner.ID))
	assert.Equal(t, 10.0, next.Duration())
}

func TestSplitOverlappingClips_TracksAreIndependent(t *testing.T) {
	e := newTestEngine()
	tl := e.CreateTimeline("Demo")
	tl, video := e.AddTrack(tl, MediaVideo, "")
	tl, audio := e.AddTrack(tl, MediaAudio, "")
	tl, _ = addClip(t, e, tl, video.ID, 0, 5)
	tl, _ = addClip(t, e, tl, audio.ID, 2, 7)

	next := e.SplitOverlappingClips(tl)

	a, _ := next.Track(audio.ID)
	require.Len(t, a.Clips, 1)
	assert.Equal(t, 2.0, a.Clips[0].StartTime)
	assert.Equal(t, 7.0, next.Duration())
}

func TestSplitOverlappingClips_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := 0; round < 25; round++ {
		e := newTestEngine()
		tl := e.CreateTimeline("random")
		tl, tr := e.AddTrack(tl, MediaVideo, "")
		for i := 0; i < 12; i++ {
			start := float64(rng.IntN(80)) / 4
			length := float64(1+rng.IntN(20)) / 4
			tl, _ = addClip(t, e, tl, tr.ID, start, start+length)
		}

		next := e.SplitOverlappingClips(tl)

		after, _ := next.Track(tr.ID)
		for i := range after.Clips {
			for j := i + 1; j < len(after.Clips); j++ {
				require.False(t, after.Clips[i].Overlaps(after.Clips[j]),
					"round %d: %s overlaps %s", round, after.Clips[i].ID, after.Clips[j].ID)
			}
		}
		require.True(t, sort.SliceIsSorted(after.Clips, func(i, j int) bool {
			return after.Clips[i].StartTime < after.Clips[j].StartTime
		}))

		maxEnd := 0.0
		for _, c := range after.Clips {
			maxEnd = max(maxEnd, c.EndTime)
		}
		require.Equal(t, maxEnd, next.Duration())

		// The covered region is unchanged; only the overlaps go.
		before, _ := tl.Track(tr.ID)
		for p := 0.125; p < 30; p += 0.25 {
			require.Equal(t, covers(before.Clips, p), covers(after.Clips, p), "round %d at %v", round, p)
		}
	}
}

func covers(clips []Clip, at float64) bool {
	for _, c := range clips {
		if at >= c.StartTime && at < c.EndTime {
			return true
		}
	}
	return false
}
