package leap

import (
	"sort"

	"go.uber.org/zap"
)

// BakedSubject holds the baked output of one subject.
type BakedSubject struct {
	Name string
	// Curves holds one curve per pose channel, keyed in seconds from the
	// start of the baked range.
	Curves []Curve
	// Controllers maps a controller name to one recorded state per timeline
	// frame. Frames outside the baked range are nil.
	Controllers map[string][]ControllerState
}

// Curve returns the curve of a channel.
func (b *BakedSubject) Curve(channel string) (*Curve, bool) {
	for i := range b.Curves {
		if b.Curves[i].Channel == channel {
			return &b.Curves[i], true
		}
	}
	return nil, false
}

// BakeContainer is a named bake output.
type BakeContainer struct {
	Name      string
	FrameRate float64
	// StartFrame and FrameLength describe the last baked range.
	StartFrame  int
	FrameLength int
	Subjects    []*BakedSubject
}

// Subject returns the baked output of a subject.
func (b *BakeContainer) Subject(name string) (*BakedSubject, bool) {
	for _, s := range b.Subjects {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// InitBake creates the named bake container, or resets it if it exists.
// Every registered subject gets an empty curve per pose channel and every
// controller one empty state slot per timeline frame.
func (t *Timeline) InitBake(name string) *BakeContainer {
	b := &BakeContainer{Name: name, FrameRate: t.frameRate}
	for _, s := range t.registry.Subjects() {
		bs := &BakedSubject{Name: s.Name(), Controllers: make(map[string][]ControllerState)}
		for _, cv := range s.Pose() {
			bs.Curves = append(bs.Curves, Curve{Channel: cv.Channel})
		}
		for _, c := range t.registry.Controllers(s.Name()) {
			bs.Controllers[c.Name()] = make([]ControllerState, t.frameLength)
		}
		b.Subjects = append(b.Subjects, bs)
	}
	t.bakes[name] = b
	return b
}

// BakeContainer returns a bake container by name.
func (t *Timeline) BakeContainer(name string) (*BakeContainer, bool) {
	b, ok := t.bakes[name]
	return b, ok
}

// Bakes returns the names of all bake containers, sorted.
func (t *Timeline) Bakes() []string {
	names := make([]string, 0, len(t.bakes))
	for name := range t.bakes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bake replays frames [startFrame, startFrame+length) into the named
// container, creating it if needed. Each frame's pose becomes one key per
// channel and each controller's snapshot fills the frame's slot. The timeline
// is left applied at the last baked frame, never past it; the clock state is
// restored afterwards. Baking must not interleave with other
// timeline use.
func (t *Timeline) Bake(name string, startFrame, length int) (*BakeContainer, error) {
	if startFrame < 0 || length < 0 || startFrame+length > t.frameLength {
		return nil, precondition("bake", ErrInvalidRange, "[%d, %d) of %d frames", startFrame, startFrame+length, t.frameLength)
	}
	b, ok := t.bakes[name]
	if !ok {
		b = t.InitBake(name)
	}
	b.FrameRate = t.frameRate
	b.StartFrame, b.FrameLength = startFrame, length

	savedTime, savedPlaying, savedActive, savedScale := t.currentTime, t.playing, t.active, t.timeScale
	defer func() {
		t.currentTime, t.playing, t.active, t.timeScale = savedTime, savedPlaying, savedActive, savedScale
	}()
	t.active, t.playing, t.timeScale = true, true, 1

	t.GoToFrame(startFrame)
	t.Advance(0)
	dt := 1 / t.frameRate
	for i := range length {
		if i > 0 {
			t.Advance(dt)
		}
		t.record(b, startFrame+i, ToTime(i, t.frameRate))
	}
	t.log.Debug("baked", zap.String("bake", name), zap.Int("start", startFrame), zap.Int("length", length))
	return b, nil
}

// BakeAll bakes the whole timeline into the named container.
func (t *Timeline) BakeAll(name string) (*BakeContainer, error) {
	return t.Bake(name, 0, t.frameLength)
}

func (t *Timeline) record(b *BakeContainer, frame int, at float64) {
	for _, s := range t.registry.Subjects() {
		bs, ok := b.Subject(s.Name())
		if !ok {
			bs = &BakedSubject{Name: s.Name(), Controllers: make(map[string][]ControllerState)}
			b.Subjects = append(b.Subjects, bs)
		}
		for _, cv := range s.Pose() {
			c, ok := bs.Curve(cv.Channel)
			if !ok {
				bs.Curves = append(bs.Curves, Curve{Channel: cv.Channel})
				c = &bs.Curves[len(bs.Curves)-1]
			}
			c.AddKey(Keyframe{Time: at, Value: cv.Value})
		}
		for _, ctrl := range t.registry.Controllers(s.Name()) {
			slots := bs.Controllers[ctrl.Name()]
			if frame >= len(slots) {
				slots = append(slots, make([]ControllerState, frame+1-len(slots))...)
			}
			slots[frame] = ctrl.Snapshot()
			bs.Controllers[ctrl.Name()] = slots
		}
	}
}
