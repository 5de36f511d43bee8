package export

import (
	"math"
	"slices"

	"github.com/autovid/autovid-editor/internal/timeline"
)

const (
	reasonText       = "text clips have no source media"
	reasonNoSource   = "clip has no media source"
	reasonUnresolved = "media could not be resolved"
	reasonEmpty      = "clip has no playable span"
	reasonHidden     = "track is hidden"
	reasonMuted      = "muted"
)

// FromTimeline turns a timeline into EDL events. Visible video and image
// tracks feed the V channel and unmuted audio tracks the A channel. Events
// are ordered by record position; clips that cannot be exported are listed
// in Skipped. A nil resolver uses the source's Src as the media path.
func FromTimeline(t *timeline.Timeline, resolve MediaResolver) Plan {
	plan := Plan{Title: t.Name()}

	for _, tr := range t.Tracks() {
		channel := ChannelVideo
		if tr.Type == timeline.MediaAudio {
			channel = ChannelAudio
		}

		for _, c := range tr.Clips {
			if reason := skipReason(tr, c); reason != "" {
				plan.Skipped = append(plan.Skipped, SkippedClip{ClipID: c.ID, ClipName: c.Name, Reason: reason})
				continue
			}

			path := c.Source.Src
			if resolve != nil {
				var ok bool
				if path, ok = resolve(c.Source); !ok {
					plan.Skipped = append(plan.Skipped, SkippedClip{ClipID: c.ID, ClipName: c.Name, Reason: reasonUnresolved})
					continue
				}
			}

			plan.Clips = append(plan.Clips, resolveClip(c, path, channel))
		}
	}

	slices.SortStableFunc(plan.Clips, func(a, b ResolvedClip) int {
		return a.RecordInMs - b.RecordInMs
	})
	return plan
}

func skipReason(tr timeline.Track, c timeline.Clip) string {
	switch {
	case tr.Type == timeline.MediaText || c.Type == timeline.MediaText:
		return reasonText
	case tr.Type.Visual() && !tr.Visible:
		return reasonHidden
	case tr.Type == timeline.MediaAudio && (tr.Muted || c.Muted):
		return reasonMuted
	case c.Source.Kind != timeline.SourceFile && c.Source.Kind != timeline.SourceURL, c.Source.Src == "":
		return reasonNoSource
	case c.EndTime <= 0 || c.EndTime <= c.StartTime:
		return reasonEmpty
	}
	return ""
}

// resolveClip maps timeline seconds to milliseconds. A clip starting before
// zero is cut at zero and its source in point moves forward to match.
func resolveClip(c timeline.Clip, path string, channel Channel) ResolvedClip {
	speed := c.Speed
	if speed <= 0 {
		speed = timeline.DefaultSpeed
	}

	start := c.StartTime
	srcIn := c.TrimStart
	if start < 0 {
		srcIn += -start * speed
		start = 0
	}
	srcOut := srcIn + (c.EndTime-start)*speed

	return ResolvedClip{
		ClipID:      c.ID,
		ClipName:    c.Name,
		MediaPath:   path,
		Channel:     channel,
		SourceInMs:  secondsToMs(srcIn),
		SourceOutMs: secondsToMs(srcOut),
		RecordInMs:  secondsToMs(start),
		RecordOutMs: secondsToMs(c.EndTime),
	}
}

func secondsToMs(s float64) int {
	return int(math.Round(s * 1000))
}
