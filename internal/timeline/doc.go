// Package timeline is the non-destructive editing engine behind AutoVid
// projects.
//
// A Timeline holds typed tracks of clips positioned in seconds. Every Engine
// operation takes a timeline and returns the resulting one without touching
// its input, so earlier snapshots stay usable for undo and change detection:
// a changed timeline is a new pointer, a no-op returns the argument itself.
//
// Operations that name a track or clip the timeline does not contain return
// the timeline unchanged together with an error wrapping ErrTrackNotFound or
// ErrClipNotFound. Callers that prefer to ignore missing ids can do so safely.
//
// The engine does no I/O and never inspects clip media. Persist timelines
// with ToJSON and FromJSON; check them with ValidateTimeline.
package timeline
