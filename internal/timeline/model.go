package timeline

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// MediaType is the kind of media a track or clip carries.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaText  MediaType = "text"
	MediaImage MediaType = "image"
)

func (m MediaType) Valid() bool {
	switch m {
	case MediaVideo, MediaAudio, MediaText, MediaImage:
		return true
	}
	return false
}

// Visual reports whether clips of this type are composited into the frame.
func (m MediaType) Visual() bool {
	return m != MediaAudio
}

const (
	DefaultTimelineName = "New Project"
	DefaultClipLength   = 5.0

	DefaultVolume  = 1.0
	DefaultOpacity = 1.0
	DefaultSpeed   = 1.0

	MaxVolume = 2.0
	MaxSpeed  = 4.0
)

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultPosition is the placement given to clips added without one.
var DefaultPosition = Rect{X: 0, Y: 0, Width: 200, Height: 150}

type Transform struct {
	Rotation float64 `json:"rotation"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	AnchorX  float64 `json:"anchorX"`
	AnchorY  float64 `json:"anchorY"`
}

type Filter struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Blur       float64 `json:"blur"`
}

type SourceKind string

const (
	SourceFile SourceKind = "file"
	SourceURL  SourceKind = "url"
	SourceText SourceKind = "text"
)

type TextStyle struct {
	FontFamily      string  `json:"fontFamily"`
	FontSize        float64 `json:"fontSize"`
	FontWeight      string  `json:"fontWeight"`
	Color           string  `json:"color"`
	BackgroundColor string  `json:"backgroundColor,omitempty"`
	Padding         float64 `json:"padding,omitempty"`
	BorderRadius    float64 `json:"borderRadius,omitempty"`
	TextAlign       string  `json:"textAlign"`
	LineHeight      float64 `json:"lineHeight,omitempty"`
	LetterSpacing   float64 `json:"letterSpacing,omitempty"`
}

// Source describes where a clip's media comes from. The engine carries it
// through every operation without looking inside.
type Source struct {
	Kind    SourceKind `json:"type"`
	Src     string     `json:"src,omitempty"`
	Content string     `json:"content,omitempty"`
	Style   *TextStyle `json:"style,omitempty"`
}

type EffectType string

const (
	EffectFadeIn   EffectType = "fadeIn"
	EffectFadeOut  EffectType = "fadeOut"
	EffectSlideIn  EffectType = "slideIn"
	EffectSlideOut EffectType = "slideOut"
	EffectZoomIn   EffectType = "zoomIn"
	EffectZoomOut  EffectType = "zoomOut"
)

type Effect struct {
	Type       EffectType     `json:"type"`
	StartTime  float64        `json:"startTime"`
	EndTime    float64        `json:"endTime"`
	Easing     string         `json:"easing"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Clip is one placed piece of media on a track. Times are seconds on the
// timeline; EndTime-StartTime is authoritative, Duration is informational.
type Clip struct {
	ID        string     `json:"id"`
	TrackID   string     `json:"trackId"`
	Type      MediaType  `json:"type"`
	Name      string     `json:"name"`
	StartTime float64    `json:"startTime"`
	EndTime   float64    `json:"endTime"`
	Duration  float64    `json:"duration"`
	TrimStart float64    `json:"trimStart,omitempty"`
	TrimEnd   float64    `json:"trimEnd,omitempty"`
	Volume    float64    `json:"volume"`
	Muted     bool       `json:"muted"`
	Position  Rect       `json:"position"`
	Transform *Transform `json:"transform,omitempty"`
	Opacity   float64    `json:"opacity"`
	Speed     float64    `json:"speed"`
	Filter    *Filter    `json:"filter,omitempty"`
	Source    Source     `json:"source"`
	Effects   []Effect   `json:"effects,omitempty"`
}

// Span returns EndTime-StartTime.
func (c Clip) Span() float64 {
	return c.EndTime - c.StartTime
}

// Overlaps reports whether the half-open intervals of c and o intersect.
func (c Clip) Overlaps(o Clip) bool {
	return c.StartTime < o.EndTime && o.StartTime < c.EndTime
}

// Draft converts c back into an insertion request, dropping its identity.
// AddClip keeps the draft's EndTime as is, even when it is not positive.
func (c Clip) Draft() ClipDraft {
	c = c.deepCopy()
	volume, muted, opacity, speed, position := c.Volume, c.Muted, c.Opacity, c.Speed, c.Position
	return ClipDraft{
		Type:      c.Type,
		Name:      c.Name,
		StartTime: c.StartTime,
		EndTime:   c.EndTime,
		Duration:  c.Duration,
		TrimStart: c.TrimStart,
		TrimEnd:   c.TrimEnd,
		Source:    c.Source,
		Volume:    &volume,
		Muted:     &muted,
		Position:  &position,
		Transform: c.Transform,
		Opacity:   &opacity,
		Speed:     &speed,
		Filter:    c.Filter,
		Effects:   c.Effects,
		placed:    true,
	}
}

func (c Clip) deepCopy() Clip {
	if c.Transform != nil {
		t := *c.Transform
		c.Transform = &t
	}
	if c.Filter != nil {
		f := *c.Filter
		c.Filter = &f
	}
	if c.Source.Style != nil {
		s := *c.Source.Style
		c.Source.Style = &s
	}
	if len(c.Effects) == 0 {
		c.Effects = nil
	} else {
		effects := make([]Effect, len(c.Effects))
		for i, e := range c.Effects {
			if len(e.Parameters) == 0 {
				e.Parameters = nil
			} else {
				params := make(map[string]any, len(e.Parameters))
				for k, v := range e.Parameters {
					params[k] = v
				}
				e.Parameters = params
			}
			effects[i] = e
		}
		c.Effects = effects
	}
	return c
}

// ClipDraft is the input to AddClip. Pointer fields left nil receive their
// defaults; EndTime <= 0 means "derive from StartTime and Duration" unless
// the draft came from Clip.Draft.
type ClipDraft struct {
	Type      MediaType  `json:"type"`
	Name      string     `json:"name"`
	StartTime float64    `json:"startTime"`
	EndTime   float64    `json:"endTime"`
	Duration  float64    `json:"duration"`
	TrimStart float64    `json:"trimStart"`
	TrimEnd   float64    `json:"trimEnd"`
	Source    Source     `json:"source"`
	Volume    *float64   `json:"volume"`
	Muted     *bool      `json:"muted"`
	Position  *Rect      `json:"position"`
	Transform *Transform `json:"transform"`
	Opacity   *float64   `json:"opacity"`
	Speed     *float64   `json:"speed"`
	Filter    *Filter    `json:"filter"`
	Effects   []Effect   `json:"effects"`

	placed bool
}

// ClipUpdate is a shallow patch for UpdateClip. Only non-nil fields apply.
// Identity, owning track and media type cannot be patched.
type ClipUpdate struct {
	Name      *string    `json:"name"`
	StartTime *float64   `json:"startTime"`
	EndTime   *float64   `json:"endTime"`
	Duration  *float64   `json:"duration"`
	TrimStart *float64   `json:"trimStart"`
	TrimEnd   *float64   `json:"trimEnd"`
	Source    *Source    `json:"source"`
	Volume    *float64   `json:"volume"`
	Muted     *bool      `json:"muted"`
	Position  *Rect      `json:"position"`
	Transform *Transform `json:"transform"`
	Opacity   *float64   `json:"opacity"`
	Speed     *float64   `json:"speed"`
	Filter    *Filter    `json:"filter"`
	Effects   *[]Effect  `json:"effects"`
}

func (u ClipUpdate) apply(c Clip) Clip {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.StartTime != nil {
		c.StartTime = *u.StartTime
	}
	if u.EndTime != nil {
		c.EndTime = *u.EndTime
	}
	if u.Duration != nil {
		c.Duration = *u.Duration
	}
	if u.TrimStart != nil {
		c.TrimStart = *u.TrimStart
	}
	if u.TrimEnd != nil {
		c.TrimEnd = *u.TrimEnd
	}
	if u.Source != nil {
		c.Source = *u.Source
	}
	if u.Volume != nil {
		c.Volume = *u.Volume
	}
	if u.Muted != nil {
		c.Muted = *u.Muted
	}
	if u.Position != nil {
		c.Position = *u.Position
	}
	if u.Transform != nil {
		t := *u.Transform
		c.Transform = &t
	}
	if u.Opacity != nil {
		c.Opacity = *u.Opacity
	}
	if u.Speed != nil {
		c.Speed = *u.Speed
	}
	if u.Filter != nil {
		f := *u.Filter
		c.Filter = &f
	}
	if u.Effects != nil {
		c.Effects = *u.Effects
	}
	return c.deepCopy()
}

// Track is a read view of one lane. Clips is a copy in track order.
type Track struct {
	ID      string    `json:"id"`
	Type    MediaType `json:"type"`
	Name    string    `json:"name"`
	Clips   []Clip    `json:"clips"`
	Locked  bool      `json:"locked"`
	Volume  float64   `json:"volume"`
	Muted   bool      `json:"muted"`
	Solo    bool      `json:"solo"`
	Color   string    `json:"color"`
	Height  int       `json:"height"`
	Visible bool      `json:"visible"`
}

// TrackUpdate is a shallow patch for UpdateTrack.
type TrackUpdate struct {
	Name    *string  `json:"name"`
	Color   *string  `json:"color"`
	Height  *int     `json:"height"`
	Locked  *bool    `json:"locked"`
	Muted   *bool    `json:"muted"`
	Solo    *bool    `json:"solo"`
	Visible *bool    `json:"visible"`
	Volume  *float64 `json:"volume"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
	FPS    int `json:"fps"`
}

type Preview struct {
	Quality string `json:"quality"`
	Enabled bool   `json:"enabled"`
}

// Settings is caller-supplied project configuration. Duration here is the
// target length, not the derived timeline duration.
type Settings struct {
	Resolution      Resolution `json:"resolution"`
	BackgroundColor string     `json:"backgroundColor"`
	Duration        float64    `json:"duration"`
	Preview         Preview    `json:"preview"`
}

func DefaultSettings() Settings {
	return Settings{
		Resolution:      Resolution{Width: 1920, Height: 1080, FPS: 30},
		BackgroundColor: "#000000",
		Duration:        0,
		Preview:         Preview{Quality: "medium", Enabled: true},
	}
}

// DefaultTrackName is the title-cased media type, or "Track" for unknown types.
func DefaultTrackName(t MediaType) string {
	if !t.Valid() {
		return "Track"
	}
	// Casers carry state, so one is built per call.
	return cases.Title(language.English).String(string(t))
}

func DefaultTrackColor(t MediaType) string {
	switch t {
	case MediaVideo:
		return "#3b82f6"
	case MediaAudio:
		return "#10b981"
	case MediaText:
		return "#f59e0b"
	case MediaImage:
		return "#8b5cf6"
	}
	return "#64748b"
}

func DefaultTrackHeight(t MediaType) int {
	switch t {
	case MediaVideo:
		return 80
	case MediaAudio:
		return 60
	case MediaText:
		return 50
	case MediaImage:
		return 70
	}
	return 60
}
