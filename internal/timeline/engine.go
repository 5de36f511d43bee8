package timeline

import (
	"time"

	"github.com/google/uuid"
)

// Engine applies editing operations to timelines. It holds no mutable state
// and is safe for concurrent use as long as its ID generator and clock are.
type Engine struct {
	newID func() string
	now   func() time.Time
}

type Option func(*Engine)

// WithIDGenerator replaces the default uuid v4 generator. The function must
// be safe for concurrent use and must not repeat values.
func WithIDGenerator(fn func() string) Option {
	return func(e *Engine) {
		e.newID = fn
	}
}

func WithClock(fn func() time.Time) Option {
	return func(e *Engine) {
		e.now = fn
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		newID: uuid.NewString,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) CreateTimeline(name string) *Timeline {
	if name == "" {
		name = DefaultTimelineName
	}
	now := e.now()
	return &Timeline{
		id:        e.newID(),
		name:      name,
		settings:  DefaultSettings(),
		createdAt: now,
		updatedAt: now,
		tracks:    map[string]*trackNode{},
		clips:     map[string]Clip{},
	}
}

func (e *Engine) Rename(t *Timeline, name string) *Timeline {
	if name == t.name {
		return t
	}
	next := t.fork(e.now())
	next.name = name
	return next
}

func (e *Engine) UpdateSettings(t *Timeline, settings Settings) *Timeline {
	next := t.fork(e.now())
	next.settings = settings
	return next
}

// AddTrack appends a track of the given type. An empty name picks the
// type's default.
func (e *Engine) AddTrack(t *Timeline, typ MediaType, name string) (*Timeline, Track) {
	if name == "" {
		name = DefaultTrackName(typ)
	}
	meta := Track{
		ID:      e.newID(),
		Type:    typ,
		Name:    name,
		Locked:  false,
		Volume:  DefaultVolume,
		Muted:   false,
		Solo:    false,
		Color:   DefaultTrackColor(typ),
		Height:  DefaultTrackHeight(typ),
		Visible: true,
	}

	next := t.fork(e.now())
	next.tracks[meta.ID] = &trackNode{meta: meta}
	next.order = append(next.order, meta.ID)

	meta.Clips = []Clip{}
	return next, meta
}

// RemoveTrack drops a track together with every clip on it.
func (e *Engine) RemoveTrack(t *Timeline, trackID string) (*Timeline, error) {
	node, ok := t.tracks[trackID]
	if !ok {
		return t, trackNotFound(trackID)
	}

	next := t.fork(e.now())
	for _, cid := range node.clipIDs {
		delete(next.clips, cid)
	}
	delete(next.tracks, trackID)
	next.order = removeID(next.order, trackID)
	next.duration = next.maxEnd()
	return next, nil
}

func (e *Engine) UpdateTrack(t *Timeline, trackID string, u TrackUpdate) (*Timeline, error) {
	if _, ok := t.tracks[trackID]; !ok {
		return t, trackNotFound(trackID)
	}

	next := t.fork(e.now())
	node := next.editNode(trackID)
	m := &node.meta
	if u.Name != nil {
		m.Name = *u.Name
	}
	if u.Color != nil {
		m.Color = *u.Color
	}
	if u.Height != nil {
		m.Height = *u.Height
	}
	if u.Locked != nil {
		m.Locked = *u.Locked
	}
	if u.Muted != nil {
		m.Muted = *u.Muted
	}
	if u.Solo != nil {
		m.Solo = *u.Solo
	}
	if u.Visible != nil {
		m.Visible = *u.Visible
	}
	if u.Volume != nil {
		m.Volume = *u.Volume
	}
	return next, nil
}

// CloneTrack appends a copy of a track. The copy and each of its clips get
// fresh ids; clip times are unchanged, so the duration is too.
func (e *Engine) CloneTrack(t *Timeline, trackID string) (*Timeline, Track, error) {
	src, ok := t.tracks[trackID]
	if !ok {
		return t, Track{}, trackNotFound(trackID)
	}

	next := t.fork(e.now())
	node := &trackNode{meta: src.meta}
	node.meta.ID = e.newID()
	for _, cid := range src.clipIDs {
		c := e.CloneClip(t.clips[cid], 0)
		c.TrackID = node.meta.ID
		next.clips[c.ID] = c
		node.clipIDs = append(node.clipIDs, c.ID)
	}
	next.tracks[node.meta.ID] = node
	next.order = append(next.order, node.meta.ID)
	return next, next.view(node), nil
}
