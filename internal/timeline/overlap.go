package timeline

import (
	"slices"
)

// SortClips orders every track's clips by start time. Clips that start
// together keep their relative order.
func (e *Engine) SortClips(t *Timeline) *Timeline {
	next := t.fork(e.now())
	for _, id := range next.order {
		node := next.editNode(id)
		slices.SortStableFunc(node.clipIDs, func(a, b string) int {
			return compareStart(next.clips[a], next.clips[b])
		})
	}
	return next
}

// SplitOverlappingClips makes every track free of overlaps. Within a track,
// clips are taken in start order and each one is cut back to begin where the
// clips before it end. A clip that lies entirely under earlier clips is
// removed. Trimmed clips keep their id and have their source offset advanced
// by the amount cut from the front.
func (e *Engine) SplitOverlappingClips(t *Timeline) *Timeline {
	next := t.fork(e.now())
	for _, id := range next.order {
		node := next.editNode(id)
		sorted := append([]string(nil), node.clipIDs...)
		slices.SortStableFunc(sorted, func(a, b string) int {
			return compareStart(next.clips[a], next.clips[b])
		})

		kept := make([]string, 0, len(sorted))
		covered := 0.0
		for i, cid := range sorted {
			c := next.clips[cid]
			switch {
			case i == 0 || c.StartTime >= covered:
				kept = append(kept, cid)
			case c.EndTime <= covered:
				delete(next.clips, cid)
				continue
			default:
				cut := covered - c.StartTime
				c.StartTime = covered
				c.Duration = c.Span()
				c.TrimStart += cut * playbackRate(c)
				next.clips[cid] = c
				kept = append(kept, cid)
			}
			if i == 0 || c.EndTime > covered {
				covered = c.EndTime
			}
		}
		node.clipIDs = kept
	}
	next.duration = next.maxEnd()
	return next
}

func compareStart(a, b Clip) int {
	switch {
	case a.StartTime < b.StartTime:
		return -1
	case a.StartTime > b.StartTime:
		return 1
	}
	return 0
}
