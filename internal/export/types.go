package export

import "github.com/autovid/autovid-editor/internal/timeline"

// Channel is the EDL track an event lands on.
type Channel string

const (
	ChannelVideo Channel = "V"
	ChannelAudio Channel = "A"
)

// DefaultReel is written for every event; sources are identified by the
// media path comment instead.
const DefaultReel = "AX"

// ResolvedClip is one EDL event: a stretch of source media placed at a
// record position.
type ResolvedClip struct {
	ClipID      string
	ClipName    string
	MediaPath   string
	Channel     Channel
	SourceInMs  int
	SourceOutMs int
	RecordInMs  int
	RecordOutMs int
}

// SkippedClip is a clip that produced no event, with the reason.
type SkippedClip struct {
	ClipID   string `json:"clip_id"`
	ClipName string `json:"clip_name"`
	Reason   string `json:"reason"`
}

// Plan is everything an EDL is generated from.
type Plan struct {
	Title   string
	Clips   []ResolvedClip
	Skipped []SkippedClip
}

// MediaResolver maps a clip source to the media path written into the EDL.
// It returns false when the media cannot be located.
type MediaResolver func(src timeline.Source) (string, bool)

// Result summarises a finished export.
type Result struct {
	Format     string        `json:"format"`
	OutputPath string        `json:"output_path"`
	EventCount int           `json:"event_count"`
	Skipped    []SkippedClip `json:"skipped"`
}
