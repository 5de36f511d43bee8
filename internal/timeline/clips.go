package timeline

// AddClip places a new clip at the end of a track's clip list. The timeline
// duration grows to cover the clip if needed.
func (e *Engine) AddClip(t *Timeline, trackID string, d ClipDraft) (*Timeline, Clip, error) {
	if _, ok := t.tracks[trackID]; !ok {
		return t, Clip{}, trackNotFound(trackID)
	}

	c := Clip{
		ID:        e.newID(),
		TrackID:   trackID,
		Type:      d.Type,
		Name:      d.Name,
		StartTime: d.StartTime,
		EndTime:   d.EndTime,
		Duration:  d.Duration,
		TrimStart: d.TrimStart,
		TrimEnd:   d.TrimEnd,
		Volume:    DefaultVolume,
		Position:  DefaultPosition,
		Transform: d.Transform,
		Opacity:   DefaultOpacity,
		Speed:     DefaultSpeed,
		Filter:    d.Filter,
		Source:    d.Source,
		Effects:   d.Effects,
	}
	if c.EndTime <= 0 && !d.placed {
		length := d.Duration
		if length <= 0 {
			length = DefaultClipLength
		}
		c.EndTime = c.StartTime + length
	}
	if d.Volume != nil {
		c.Volume = *d.Volume
	}
	if d.Muted != nil {
		c.Muted = *d.Muted
	}
	if d.Position != nil {
		c.Position = *d.Position
	}
	if d.Opacity != nil {
		c.Opacity = *d.Opacity
	}
	if d.Speed != nil {
		c.Speed = *d.Speed
	}
	c = c.deepCopy()

	next := t.fork(e.now())
	node := next.editNode(trackID)
	node.clipIDs = append(node.clipIDs, c.ID)
	next.clips[c.ID] = c
	if c.EndTime > next.duration {
		next.duration = c.EndTime
	}
	return next, c.deepCopy(), nil
}

// UpdateClip merges u into the clip. The duration only ever grows here:
// shrinking the longest clip leaves it as it was. RemoveClip is the
// operation that recomputes it from scratch.
func (e *Engine) UpdateClip(t *Timeline, clipID string, u ClipUpdate) (*Timeline, error) {
	c, ok := t.clips[clipID]
	if !ok {
		return t, clipNotFound(clipID)
	}

	next := t.fork(e.now())
	next.clips[clipID] = u.apply(c)
	if end := next.maxEnd(); end > next.duration {
		next.duration = end
	}
	return next, nil
}

func (e *Engine) RemoveClip(t *Timeline, clipID string) (*Timeline, error) {
	c, ok := t.clips[clipID]
	if !ok {
		return t, clipNotFound(clipID)
	}

	next := t.fork(e.now())
	delete(next.clips, clipID)
	if _, ok := next.tracks[c.TrackID]; ok {
		node := next.editNode(c.TrackID)
		node.clipIDs = removeID(node.clipIDs, clipID)
	}
	next.duration = next.maxEnd()
	return next, nil
}

// MoveClip shifts a clip so it starts at newStart, keeping its length.
// Negative start times are accepted; ValidateClip reports them.
func (e *Engine) MoveClip(t *Timeline, clipID string, newStart float64) (*Timeline, error) {
	c, ok := t.clips[clipID]
	if !ok {
		return t, clipNotFound(clipID)
	}
	newEnd := newStart + c.Span()
	return e.UpdateClip(t, clipID, ClipUpdate{StartTime: &newStart, EndTime: &newEnd})
}

// CloneClip returns a copy of c with a fresh id, shifted by offset seconds.
// Nested values are copied so the clone shares nothing with c. The clone is
// not placed on any timeline.
func (e *Engine) CloneClip(c Clip, offset float64) Clip {
	clone := c.deepCopy()
	clone.ID = e.newID()
	clone.StartTime = c.StartTime + offset
	clone.EndTime = c.EndTime + offset
	return clone
}

// StretchClip scales a clip's span by factor around its midpoint.
func (e *Engine) StretchClip(t *Timeline, clipID string, factor float64) (*Timeline, error) {
	c, ok := t.clips[clipID]
	if !ok {
		return t, clipNotFound(clipID)
	}
	if factor <= 0 {
		return t, ErrInvalidScale
	}

	center := (c.StartTime + c.EndTime) / 2
	start := center + (c.StartTime-center)*factor
	end := center + (c.EndTime-center)*factor
	duration := end - start
	return e.UpdateClip(t, clipID, ClipUpdate{StartTime: &start, EndTime: &end, Duration: &duration})
}

// SplitClip cuts a clip in two at time at. The left part keeps the clip's id;
// the right part gets a new id, sits right after it in the track, and has its
// source offset advanced to where the cut happened.
func (e *Engine) SplitClip(t *Timeline, clipID string, at float64) (*Timeline, Clip, error) {
	c, ok := t.clips[clipID]
	if !ok {
		return t, Clip{}, clipNotFound(clipID)
	}
	if at <= c.StartTime || at >= c.EndTime {
		return t, Clip{}, ErrSplitOutOfRange
	}

	left := c
	left.EndTime = at
	left.Duration = left.Span()

	right := c.deepCopy()
	right.ID = e.newID()
	right.StartTime = at
	right.Duration = right.Span()
	right.TrimStart = c.TrimStart + (at-c.StartTime)*playbackRate(c)

	next := t.fork(e.now())
	next.clips[left.ID] = left
	next.clips[right.ID] = right
	if _, ok := next.tracks[c.TrackID]; ok {
		node := next.editNode(c.TrackID)
		ids := make([]string, 0, len(node.clipIDs)+1)
		for _, id := range node.clipIDs {
			ids = append(ids, id)
			if id == left.ID {
				ids = append(ids, right.ID)
			}
		}
		node.clipIDs = ids
	}
	return next, right.deepCopy(), nil
}

// playbackRate is the clip speed, with non-positive values read as 1.
func playbackRate(c Clip) float64 {
	if c.Speed <= 0 {
		return DefaultSpeed
	}
	return c.Speed
}
