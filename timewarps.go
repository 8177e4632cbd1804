package leap

// timewarpEntry is a timewarp placed at an original-time start frame.
type timewarpEntry struct {
	warp      Timewarp
	origStart int
}

func (e timewarpEntry) origEnd() int { return e.origStart + e.warp.OrigFrameLength() - 1 }

// TimewarpContainer holds the timewarps applied to one subject on one layer,
// kept per track as an ordered list of non-overlapping entries. Frames not
// covered by any entry map to themselves (shifted by the length change of
// preceding entries).
type TimewarpContainer struct {
	subject string
	tracks  [NumTracks][]timewarpEntry
}

func newTimewarpContainer(subject string) *TimewarpContainer {
	return &TimewarpContainer{subject: subject}
}

// Subject returns the name of the subject the container belongs to.
func (c *TimewarpContainer) Subject() string { return c.subject }

// Len returns the number of timewarps on a track.
func (c *TimewarpContainer) Len(track TrackType) int { return len(c.tracks[track]) }

// Empty reports whether no track has a timewarp.
func (c *TimewarpContainer) Empty() bool {
	for _, entries := range c.tracks {
		if len(entries) > 0 {
			return false
		}
	}
	return true
}

// Timewarp returns the i-th timewarp on a track and its original start frame.
func (c *TimewarpContainer) Timewarp(track TrackType, i int) (Timewarp, int) {
	e := c.tracks[track][i]
	return e.warp, e.origStart
}

// add inserts tw at origStart, dropping any entry whose original span
// intersects the new one. It returns the number of dropped entries.
func (c *TimewarpContainer) add(track TrackType, tw Timewarp, origStart int) int {
	entry := timewarpEntry{warp: tw, origStart: origStart}
	entries := c.tracks[track]
	kept := entries[:0]
	dropped := 0
	for _, e := range entries {
		if e.origStart <= entry.origEnd() && entry.origStart <= e.origEnd() {
			dropped++
			continue
		}
		kept = append(kept, e)
	}

	pos := len(kept)
	for i, e := range kept {
		if e.origStart > origStart {
			pos = i
			break
		}
	}
	kept = append(kept, timewarpEntry{})
	copy(kept[pos+1:], kept[pos:])
	kept[pos] = entry
	c.tracks[track] = kept
	return dropped
}

func (c *TimewarpContainer) remove(track TrackType, i int) bool {
	entries := c.tracks[track]
	if i < 0 || i >= len(entries) {
		return false
	}
	c.tracks[track] = append(entries[:i], entries[i+1:]...)
	return true
}

func (c *TimewarpContainer) clear() {
	for i := range c.tracks {
		c.tracks[i] = nil
	}
}

// OriginalFrame maps a warped frame on a track to the original frame.
func (c *TimewarpContainer) OriginalFrame(track TrackType, frame int) int {
	entries := c.tracks[track]
	if len(entries) == 0 || frame < entries[0].origStart {
		return frame
	}

	warpedStart := entries[0].origStart
	for i, e := range entries {
		if i > 0 {
			prev := entries[i-1]
			warpedStart += prev.warp.FrameLength() + e.origStart - prev.origEnd() - 1
		}
		warpedEnd := warpedStart + e.warp.FrameLength()
		if frame < warpedStart {
			// Identity gap between the previous entry and this one.
			return e.origStart - (warpedStart - frame)
		}
		if frame < warpedEnd {
			return e.warp.MapFrame(frame-warpedStart) + e.origStart
		}
		if i == len(entries)-1 {
			return e.origEnd() + 1 + (frame - warpedEnd)
		}
	}
	return frame
}

// FrameLength returns the warped length of a track whose original length is
// origLength.
func (c *TimewarpContainer) FrameLength(track TrackType, origLength int) int {
	length := origLength
	for _, e := range c.tracks[track] {
		length += e.warp.FrameLength() - e.warp.OrigFrameLength()
	}
	return length
}

// maxFrameLength returns the largest warped length over all tracks.
func (c *TimewarpContainer) maxFrameLength(origLength int) int {
	longest := origLength
	for track := range c.tracks {
		longest = max(longest, c.FrameLength(TrackType(track), origLength))
	}
	return longest
}

// frameSet resolves the original frame of every track. Tracks without
// timewarps follow TrackAll.
func (c *TimewarpContainer) frameSet(frame int) FrameSet {
	all := c.OriginalFrame(TrackAll, frame)
	fs := uniformFrameSet(all)
	for track := range c.tracks {
		if TrackType(track) != TrackAll && len(c.tracks[track]) > 0 {
			fs[track] = c.OriginalFrame(TrackType(track), frame)
		}
	}
	return fs
}
