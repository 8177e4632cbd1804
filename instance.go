package leap

// AnimationInstance is one playable unit of motion, clip-backed or
// procedural, bound to a single subject.
type AnimationInstance interface {
	Name() string
	// Subject returns the name of the animated subject.
	Subject() string
	FrameLength() int
	// Apply poses the subject at a local frame in [0, FrameLength).
	Apply(frame int, mode LayerMode)
	// Start is called once when the instance becomes active on the timeline.
	Start()
	// Finish is called once when the instance stops being active.
	Finish()
}

// TrackApplier is implemented by instances that can be posed with a
// different local frame per track. The timeline prefers it over Apply.
type TrackApplier interface {
	ApplyTracks(frames FrameSet, mode LayerMode)
}

// ScheduledInstance is an AnimationInstance placed at a start frame on a layer.
type ScheduledInstance struct {
	id    int
	start int
	anim  AnimationInstance
	layer *LayerContainer
}

// ID returns the timeline-unique instance ID.
func (s *ScheduledInstance) ID() int { return s.id }

// StartFrame returns the first frame of the instance on the timeline.
func (s *ScheduledInstance) StartFrame() int { return s.start }

// EndFrame returns the last frame (inclusive) of the instance on the timeline.
func (s *ScheduledInstance) EndFrame() int { return s.start + s.anim.FrameLength() - 1 }

// Animation returns the scheduled instance.
func (s *ScheduledInstance) Animation() AnimationInstance { return s.anim }

// Layer returns the layer that holds the instance.
func (s *ScheduledInstance) Layer() *LayerContainer { return s.layer }

// Subject is shorthand for Animation().Subject().
func (s *ScheduledInstance) Subject() string { return s.anim.Subject() }

// Contains reports whether frame lies in [StartFrame, EndFrame].
func (s *ScheduledInstance) Contains(frame int) bool {
	return frame >= s.start && frame <= s.EndFrame()
}

// overlaps reports whether the instance intersects [start, end].
func (s *ScheduledInstance) overlaps(start, end int) bool {
	return s.start <= end && start <= s.EndFrame()
}
