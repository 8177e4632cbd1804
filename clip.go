package leap

import "fmt"

// Channel describes one animated value of a Rig.
type Channel struct {
	Name  string
	Track TrackType
	// Rest is the value restored by Rig.Reset.
	Rest float64
}

// Rig is a Subject whose pose is a flat set of named channels. It stands in
// for a skeleton: joint rotations and root position are just channels.
type Rig struct {
	name     string
	channels []Channel
	values   []float64
	index    map[string]int
}

// NewRig creates a rig at its rest pose.
func NewRig(name string, channels ...Channel) *Rig {
	r := &Rig{
		name:     name,
		channels: append([]Channel(nil), channels...),
		values:   make([]float64, len(channels)),
		index:    make(map[string]int, len(channels)),
	}
	for i, ch := range channels {
		r.index[ch.Name] = i
	}
	r.Reset()
	return r
}

func (r *Rig) Name() string { return r.name }

// Channels returns the rig's channels. The returned slice MUST NOT be mutated.
func (r *Rig) Channels() []Channel { return r.channels }

// ChannelIndex returns the index of a named channel.
func (r *Rig) ChannelIndex(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Value returns the current value of a named channel.
func (r *Rig) Value(name string) (float64, bool) {
	i, ok := r.index[name]
	if !ok {
		return 0, false
	}
	return r.values[i], true
}

// Set writes channel i.
func (r *Rig) Set(i int, v float64) { r.values[i] = v }

// Add accumulates into channel i.
func (r *Rig) Add(i int, v float64) { r.values[i] += v }

// Reset restores every channel to its rest value.
func (r *Rig) Reset() {
	for i, ch := range r.channels {
		r.values[i] = ch.Rest
	}
}

func (r *Rig) Pose() Pose {
	p := make(Pose, len(r.channels))
	for i, ch := range r.channels {
		p[i] = ChannelValue{Channel: ch.Name, Value: r.values[i]}
	}
	return p
}

type clipCurve struct {
	index int
	track TrackType
	curve Curve
}

// ClipInstance plays keyframed curves onto a Rig. Each curve is sampled at
// the local frame of its channel's track, so per-track timewarps apply.
type ClipInstance struct {
	name   string
	rig    *Rig
	length int
	fps    float64
	curves []clipCurve

	// Weight scales the clip on additive layers.
	Weight float64
}

// NewClipInstance creates a clip of frameLength frames on rig. Every curve
// must name a channel of the rig.
func NewClipInstance(name string, rig *Rig, frameLength int, frameRate float64, curves ...Curve) (*ClipInstance, error) {
	if frameLength < 1 {
		return nil, precondition("new clip", ErrTooShort, "%q has %d frames", name, frameLength)
	}
	c := &ClipInstance{name: name, rig: rig, length: frameLength, fps: frameRate, Weight: 1}
	for _, cv := range curves {
		i, ok := rig.ChannelIndex(cv.Channel)
		if !ok {
			return nil, fmt.Errorf("clip %q: rig %q has no channel %q", name, rig.Name(), cv.Channel)
		}
		c.curves = append(c.curves, clipCurve{index: i, track: rig.channels[i].Track, curve: cv})
	}
	return c, nil
}

func (c *ClipInstance) Name() string     { return c.name }
func (c *ClipInstance) Subject() string  { return c.rig.Name() }
func (c *ClipInstance) FrameLength() int { return c.length }
func (c *ClipInstance) Start()           {}
func (c *ClipInstance) Finish()          {}

// Curves returns the clip's source curves.
func (c *ClipInstance) Curves() []Curve {
	out := make([]Curve, len(c.curves))
	for i, cc := range c.curves {
		out[i] = cc.curve
	}
	return out
}

func (c *ClipInstance) Apply(frame int, mode LayerMode) {
	c.ApplyTracks(uniformFrameSet(frame), mode)
}

func (c *ClipInstance) ApplyTracks(frames FrameSet, mode LayerMode) {
	for _, cc := range c.curves {
		f := clampInt(frames[cc.track], 0, c.length-1)
		v := cc.curve.Sample(ToTime(f, c.fps))
		if mode == LayerAdditive {
			c.rig.Add(cc.index, c.Weight*v)
		} else {
			c.rig.Set(cc.index, v)
		}
	}
}

var (
	_ Subject      = (*Rig)(nil)
	_ PoseResetter = (*Rig)(nil)
	_ TrackApplier = (*ClipInstance)(nil)
)
