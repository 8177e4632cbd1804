// Package leap is the scheduling and compositing core of a non-linear
// character-animation editor.
//
// Animators lay animation instances onto a multi-layer [Timeline], warp
// their timing with [Timewarp]s without touching keyframe data, and bake the
// composited result back into flat curves.
//
// # Quick start
//
// Register the animated subjects, create a timeline and schedule instances
// on its layers:
//
//	reg := leap.NewRegistry()
//	rig := leap.NewRig("Norman", leap.Channel{Name: "head_yaw", Track: leap.TrackGaze})
//	_ = reg.AddSubject(rig)
//
//	tl := leap.NewTimeline(reg, leap.DefaultConfig())
//	_, _ = tl.AddLayer(leap.LayerOverride, 0, "Base")
//	clip, _ := leap.NewClipInstance("Wave", rig, 60, tl.FrameRate(), curves...)
//	id, _ := tl.AddAnimation("Base", clip, 0)
//
// Drive playback from your frame loop:
//
//	tl.SetActive(true)
//	tl.Play()
//	tl.Advance(dt)
//
// # Layers
//
// Layers are applied in ascending index order every frame. An override layer
// replaces the pose of the channels its instances animate; an additive layer
// adds weighted offsets on top. Subjects that implement [PoseResetter] return
// to their rest pose before each frame is composited. Start and Finish are
// called exactly once each time an instance enters or leaves the current
// frame, and every transition is forwarded to an optional [EventSink].
//
// # Timewarps
//
// Each layer keeps a [TimewarpContainer] per subject with one ordered list of
// timewarps per [TrackType]. [HoldTimewarp] freezes a frame,
// [LinearTimewarp] resamples an interval and [MovingHoldTimewarp] eases into
// and out of a held key time. Frames outside every timewarp map one to one,
// shifted by the length change of the timewarps before them.
//
// # Gaze editing
//
// [GazeEditor] keeps the [GazeInstance]s of each subject on the gaze layer
// free of overlaps. A new shift trims, delays or replaces the shifts it
// overlaps. The gap after each shift is then absorbed into it when shorter
// than the configured maximum gap, or covered by a trailing coast during
// which the subject gazes ahead.
//
// # Baking
//
// [Timeline.Bake] replays a frame range and records every subject's pose as
// curves and every controller's state per frame into a [BakeContainer].
//
// # Persistence
//
// Gaze schedules and timewarps convert to and from [Record]s; the store
// package keeps them in SQLite and the scene package builds a whole
// workspace from YAML.
package leap
