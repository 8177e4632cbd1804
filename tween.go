package leap

import (
	"fmt"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"in_quad":      ease.InQuad,
	"out_quad":     ease.OutQuad,
	"in_out_quad":  ease.InOutQuad,
	"in_cubic":     ease.InCubic,
	"out_cubic":    ease.OutCubic,
	"in_out_cubic": ease.InOutCubic,
	"in_sine":      ease.InSine,
	"out_sine":     ease.OutSine,
	"in_out_sine":  ease.InOutSine,
}

// Easing returns a named easing function. The empty name is linear.
func Easing(name string) (ease.TweenFunc, error) {
	if name == "" {
		return ease.Linear, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}

type channelTween struct {
	index int
	track TrackType
	to    float64
	tween *gween.Tween
}

// TweenInstance is a procedural instance that eases rig channels between two
// values over its length. The last frame lands on the target value.
type TweenInstance struct {
	name   string
	rig    *Rig
	length int
	fps    float64
	tweens []channelTween

	// Weight scales the tween on additive layers.
	Weight float64
}

// NewTweenInstance creates an empty tween of frameLength frames on rig. Add
// channels with Tween.
func NewTweenInstance(name string, rig *Rig, frameLength int, frameRate float64) (*TweenInstance, error) {
	if frameLength < 1 {
		return nil, precondition("new tween", ErrTooShort, "%q has %d frames", name, frameLength)
	}
	return &TweenInstance{name: name, rig: rig, length: frameLength, fps: frameRate, Weight: 1}, nil
}

// Tween eases channel from one value to another.
func (ti *TweenInstance) Tween(channel string, from, to float64, fn ease.TweenFunc) error {
	i, ok := ti.rig.ChannelIndex(channel)
	if !ok {
		return fmt.Errorf("tween %q: rig %q has no channel %q", ti.name, ti.rig.Name(), channel)
	}
	duration := float32(ToTime(ti.length-1, ti.fps))
	ti.tweens = append(ti.tweens, channelTween{
		index: i,
		track: ti.rig.channels[i].Track,
		to:    to,
		tween: gween.New(float32(from), float32(to), duration, fn),
	})
	return nil
}

func (ti *TweenInstance) Name() string     { return ti.name }
func (ti *TweenInstance) Subject() string  { return ti.rig.Name() }
func (ti *TweenInstance) FrameLength() int { return ti.length }
func (ti *TweenInstance) Start()           {}
func (ti *TweenInstance) Finish()          {}

func (ti *TweenInstance) Apply(frame int, mode LayerMode) {
	ti.ApplyTracks(uniformFrameSet(frame), mode)
}

func (ti *TweenInstance) ApplyTracks(frames FrameSet, mode LayerMode) {
	for _, ct := range ti.tweens {
		v := ct.to
		if ti.length > 1 {
			f := clampInt(frames[ct.track], 0, ti.length-1)
			cur, _ := ct.tween.Set(float32(ToTime(f, ti.fps)))
			v = float64(cur)
		}
		if mode == LayerAdditive {
			ti.rig.Add(ct.index, ti.Weight*v)
		} else {
			ti.rig.Set(ct.index, v)
		}
	}
}

var _ TrackApplier = (*TweenInstance)(nil)
