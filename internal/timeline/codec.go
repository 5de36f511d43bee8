package timeline

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// document is the persisted shape of a timeline: tracks nested in panel
// order, each with its clips in track order.
type document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Duration  float64   `json:"duration"`
	Tracks    []Track   `json:"tracks"`
	Settings  Settings  `json:"settings"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Fields that default to something other than their zero value are decoded
// through pointers so that absence can be told apart from zero.
type clipWire struct {
	Clip
	Volume  *float64 `json:"volume"`
	Opacity *float64 `json:"opacity"`
	Speed   *float64 `json:"speed"`
}

type trackWire struct {
	Track
	Clips   []clipWire `json:"clips"`
	Volume  *float64   `json:"volume"`
	Visible *bool      `json:"visible"`
}

type documentWire struct {
	document
	Tracks []trackWire `json:"tracks"`
}

// ToJSON encodes the full timeline. Output is deterministic for a given
// timeline value.
func ToJSON(t *Timeline) ([]byte, error) {
	doc := document{
		ID:        t.id,
		Name:      t.name,
		Duration:  t.duration,
		Tracks:    t.Tracks(),
		Settings:  t.settings,
		CreatedAt: t.createdAt,
		UpdatedAt: t.updatedAt,
	}
	return json.MarshalIndent(doc, "", "  ")
}

// FromJSON decodes a document produced by ToJSON. It rejects input that is
// not a timeline document with a *ParseError but does not validate the
// result; use ValidateTimeline for that.
func FromJSON(data []byte) (*Timeline, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, &ParseError{Err: errors.New("document is null")}
	}

	var wire documentWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil, &ParseError{Err: err}
	}

	t := &Timeline{
		id:        wire.ID,
		name:      wire.Name,
		duration:  wire.Duration,
		settings:  wire.Settings,
		createdAt: wire.CreatedAt,
		updatedAt: wire.UpdatedAt,
		order:     make([]string, 0, len(wire.Tracks)),
		tracks:    make(map[string]*trackNode, len(wire.Tracks)),
		clips:     map[string]Clip{},
	}

	for _, tw := range wire.Tracks {
		if _, dup := t.tracks[tw.ID]; dup {
			return nil, &ParseError{Err: fmt.Errorf("duplicate track id %q", tw.ID)}
		}

		meta := tw.Track
		meta.Clips = nil
		meta.Volume = valueOr(tw.Volume, DefaultVolume)
		meta.Visible = tw.Visible == nil || *tw.Visible

		node := &trackNode{meta: meta, clipIDs: make([]string, 0, len(tw.Clips))}
		for _, cw := range tw.Clips {
			if _, dup := t.clips[cw.ID]; dup {
				return nil, &ParseError{Err: fmt.Errorf("duplicate clip id %q", cw.ID)}
			}
			c := cw.Clip.deepCopy()
			c.TrackID = meta.ID
			c.Volume = valueOr(cw.Volume, DefaultVolume)
			c.Opacity = valueOr(cw.Opacity, DefaultOpacity)
			c.Speed = valueOr(cw.Speed, DefaultSpeed)
			t.clips[c.ID] = c
			node.clipIDs = append(node.clipIDs, c.ID)
		}

		t.tracks[meta.ID] = node
		t.order = append(t.order, meta.ID)
	}

	return t, nil
}

func valueOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
