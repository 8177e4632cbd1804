package leap

import (
	"fmt"
	"math"

	"github.com/tanema/gween/ease"
)

// Timewarp maps frames of a warped interval back to frames of the original
// interval it replaces. Implementations are immutable values.
type Timewarp interface {
	// OrigFrameLength is the length of the replaced interval in original time.
	OrigFrameLength() int
	// FrameLength is the length of the interval after warping.
	FrameLength() int
	// MapFrame maps a local warped frame in [0, FrameLength) to a local
	// original frame in [0, OrigFrameLength).
	MapFrame(frame int) int
}

// HoldTimewarp holds a single original frame for FrameLength frames.
type HoldTimewarp struct {
	length int
}

// NewHoldTimewarp creates a hold lasting length frames.
func NewHoldTimewarp(length int) (HoldTimewarp, error) {
	if length < 1 {
		return HoldTimewarp{}, precondition("new hold timewarp", ErrInvalidTimewarp, "length %d", length)
	}
	return HoldTimewarp{length: length}, nil
}

func (HoldTimewarp) OrigFrameLength() int   { return 1 }
func (w HoldTimewarp) FrameLength() int     { return w.length }
func (HoldTimewarp) MapFrame(frame int) int { return 0 }

// LinearTimewarp uniformly resamples an interval of origLength frames into
// length frames.
type LinearTimewarp struct {
	origLength, length int
}

// NewLinearTimewarp creates a linear resample from origLength to length frames.
func NewLinearTimewarp(origLength, length int) (LinearTimewarp, error) {
	if origLength < 1 || length < 1 {
		return LinearTimewarp{}, precondition("new linear timewarp", ErrInvalidTimewarp,
			"lengths %d -> %d", origLength, length)
	}
	return LinearTimewarp{origLength: origLength, length: length}, nil
}

func (w LinearTimewarp) OrigFrameLength() int { return w.origLength }
func (w LinearTimewarp) FrameLength() int     { return w.length }

func (w LinearTimewarp) MapFrame(frame int) int {
	if w.length <= 1 || w.origLength <= 1 {
		return 0
	}
	t := float64(frame) / float64(w.length-1)
	return clampInt(int(math.Round(t*float64(w.origLength-1))), 0, w.origLength-1)
}

// MovingHoldTimewarp slows the animation into a near-hold around a key time
// and eases back out of it. KeyTime is the held point in normalized original
// time; EaseLength is the normalized warped time taken to reach it.
type MovingHoldTimewarp struct {
	origLength, length  int
	keyTime, easeLength float64
}

// NewMovingHoldTimewarp creates a moving hold. keyTime must be in [0, 1] and
// easeLength in (0, 1).
func NewMovingHoldTimewarp(origLength, length int, keyTime, easeLength float64) (MovingHoldTimewarp, error) {
	if origLength < 1 || length < 1 {
		return MovingHoldTimewarp{}, precondition("new moving hold timewarp", ErrInvalidTimewarp,
			"lengths %d -> %d", origLength, length)
	}
	if keyTime < 0 || keyTime > 1 || easeLength <= 0 || easeLength >= 1 {
		return MovingHoldTimewarp{}, precondition("new moving hold timewarp", ErrInvalidTimewarp,
			"key time %v, ease length %v", keyTime, easeLength)
	}
	return MovingHoldTimewarp{origLength: origLength, length: length, keyTime: keyTime, easeLength: easeLength}, nil
}

func (w MovingHoldTimewarp) OrigFrameLength() int { return w.origLength }
func (w MovingHoldTimewarp) FrameLength() int     { return w.length }

// KeyTime returns the held point in normalized original time.
func (w MovingHoldTimewarp) KeyTime() float64 { return w.keyTime }

// EaseLength returns the normalized warped time spent easing into the hold.
func (w MovingHoldTimewarp) EaseLength() float64 { return w.easeLength }

func (w MovingHoldTimewarp) MapFrame(frame int) int {
	if w.length <= 1 || w.origLength <= 1 {
		return 0
	}
	u := float64(frame) / float64(w.length-1)
	v := w.curve(clamp01(u))
	return clampInt(int(math.Round(v*float64(w.origLength-1))), 0, w.origLength-1)
}

// curve is monotonic with zero slope at (easeLength, keyTime).
func (w MovingHoldTimewarp) curve(u float64) float64 {
	if u <= w.easeLength {
		return float64(ease.OutCubic(float32(u), 0, float32(w.keyTime), float32(w.easeLength)))
	}
	return float64(ease.InCubic(float32(u-w.easeLength), float32(w.keyTime),
		float32(1-w.keyTime), float32(1-w.easeLength)))
}

// TimewarpKind returns the record name of a timewarp: "Hold", "Linear" or
// "MovingHold".
func TimewarpKind(tw Timewarp) string {
	switch tw.(type) {
	case HoldTimewarp:
		return "Hold"
	case LinearTimewarp:
		return "Linear"
	case MovingHoldTimewarp:
		return "MovingHold"
	default:
		return fmt.Sprintf("%T", tw)
	}
}
