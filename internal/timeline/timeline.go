package timeline

import (
	"time"
)

type trackNode struct {
	meta    Track // Clips is always nil here; membership lives in clipIDs
	clipIDs []string
}

// Timeline is an immutable project snapshot. Engine operations return a new
// *Timeline when they change something and the same pointer when they do not.
//
// Clips live in a flat arena keyed by id; tracks reference them by id in
// panel order. Mutations copy the maps, never the clip values they point at.
type Timeline struct {
	id        string
	name      string
	duration  float64
	settings  Settings
	createdAt time.Time
	updatedAt time.Time

	order  []string
	tracks map[string]*trackNode
	clips  map[string]Clip
}

func (t *Timeline) ID() string { return t.id }

func (t *Timeline) Name() string { return t.name }

// Duration is the derived project length in seconds.
func (t *Timeline) Duration() float64 { return t.duration }

func (t *Timeline) Settings() Settings { return t.settings }

func (t *Timeline) CreatedAt() time.Time { return t.createdAt }

func (t *Timeline) UpdatedAt() time.Time { return t.updatedAt }

func (t *Timeline) TrackCount() int { return len(t.order) }

func (t *Timeline) ClipCount() int { return len(t.clips) }

func (t *Timeline) HasTrack(id string) bool {
	_, ok := t.tracks[id]
	return ok
}

func (t *Timeline) HasClip(id string) bool {
	_, ok := t.clips[id]
	return ok
}

// Tracks returns every track in panel order with its clips in track order.
func (t *Timeline) Tracks() []Track {
	out := make([]Track, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.view(t.tracks[id]))
	}
	return out
}

func (t *Timeline) Track(id string) (Track, bool) {
	node, ok := t.tracks[id]
	if !ok {
		return Track{}, false
	}
	return t.view(node), true
}

func (t *Timeline) Clip(id string) (Clip, bool) {
	c, ok := t.clips[id]
	if !ok {
		return Clip{}, false
	}
	return c.deepCopy(), true
}

// Clips returns every clip, tracks in panel order.
func (t *Timeline) Clips() []Clip {
	out := make([]Clip, 0, len(t.clips))
	for _, id := range t.order {
		for _, cid := range t.tracks[id].clipIDs {
			out = append(out, t.clips[cid].deepCopy())
		}
	}
	return out
}

func (t *Timeline) view(node *trackNode) Track {
	tr := node.meta
	tr.Clips = make([]Clip, 0, len(node.clipIDs))
	for _, cid := range node.clipIDs {
		tr.Clips = append(tr.Clips, t.clips[cid].deepCopy())
	}
	return tr
}

// maxEnd is the largest EndTime over every clip, or 0 with no clips.
func (t *Timeline) maxEnd() float64 {
	end := 0.0
	for _, c := range t.clips {
		if c.EndTime > end {
			end = c.EndTime
		}
	}
	return end
}

// fork returns a shallow copy whose maps and order slice may be modified
// without affecting t. Track nodes stay shared until replaced via editNode.
func (t *Timeline) fork(now time.Time) *Timeline {
	next := *t
	next.order = append([]string(nil), t.order...)
	next.tracks = make(map[string]*trackNode, len(t.tracks))
	for id, node := range t.tracks {
		next.tracks[id] = node
	}
	next.clips = make(map[string]Clip, len(t.clips))
	for id, c := range t.clips {
		next.clips[id] = c
	}
	next.updatedAt = now
	return &next
}

// editNode replaces the node for id with a private copy and returns it.
func (t *Timeline) editNode(id string) *trackNode {
	old := t.tracks[id]
	node := &trackNode{meta: old.meta, clipIDs: append([]string(nil), old.clipIDs...)}
	t.tracks[id] = node
	return node
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
