package leap

import (
	"fmt"
	"math"
)

// DefaultFrameRate is the edit frame rate used when a Config does not set one.
const DefaultFrameRate = 30.0

// LayerMode selects how the instances on a layer are composited onto the
// subjects they animate.
type LayerMode uint8

const (
	LayerOverride LayerMode = iota // instance output replaces the current pose
	LayerAdditive                  // instance output is weighted and added to the current pose
)

// String returns the lower-case name of the mode.
func (m LayerMode) String() string {
	switch m {
	case LayerOverride:
		return "override"
	case LayerAdditive:
		return "additive"
	default:
		return fmt.Sprintf("LayerMode(%d)", uint8(m))
	}
}

// ParseLayerMode parses the value produced by LayerMode.String.
func ParseLayerMode(s string) (LayerMode, error) {
	switch s {
	case "override", "":
		return LayerOverride, nil
	case "additive":
		return LayerAdditive, nil
	}
	return 0, fmt.Errorf("unknown layer mode %q", s)
}

// TrackType identifies an animation track. Timewarps are kept per track, so
// e.g. the gaze of a clip can be held while its locomotion keeps moving.
type TrackType uint8

const (
	TrackGaze       TrackType = iota // eyes, head and torso gaze joints
	TrackPosture                     // spine and pelvis
	TrackLeftArm                     // left arm gesture
	TrackRightArm                    // right arm gesture
	TrackLocomotion                  // legs and root
	TrackAll                         // the whole clip; drives scheduling lookups

	NumTracks = int(TrackAll) + 1
)

var trackNames = [NumTracks]string{"Gaze", "Posture", "LArmGesture", "RArmGesture", "Locomotion", "All"}

// String returns the track name used in records and scene files.
func (t TrackType) String() string {
	if int(t) < NumTracks {
		return trackNames[t]
	}
	return fmt.Sprintf("TrackType(%d)", uint8(t))
}

// ParseTrackType parses a track name. The empty string means TrackAll.
func ParseTrackType(s string) (TrackType, error) {
	if s == "" {
		return TrackAll, nil
	}
	for i, name := range trackNames {
		if name == s {
			return TrackType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown track %q", s)
}

// FrameSet holds one frame index per track.
type FrameSet [NumTracks]int

// uniformFrameSet returns a FrameSet with every track at frame.
func uniformFrameSet(frame int) FrameSet {
	var fs FrameSet
	for i := range fs {
		fs[i] = frame
	}
	return fs
}

// Offset returns a copy of fs with delta added to every track.
func (fs FrameSet) Offset(delta int) FrameSet {
	for i := range fs {
		fs[i] += delta
	}
	return fs
}

// ToFrame converts a time in seconds to the nearest frame index.
func ToFrame(seconds, frameRate float64) int {
	return int(math.Round(seconds * frameRate))
}

// ToTime converts a frame index to a time in seconds.
func ToTime(frame int, frameRate float64) float64 {
	return float64(frame) / frameRate
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
