package leap

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"
)

// Timeline owns the animation layers, the playback clock, and the cached
// timeline lengths. It is single-threaded: edits must not interleave with
// Advance.
type Timeline struct {
	layers   []*LayerContainer
	byID     map[int]*ScheduledInstance
	nextID   int
	registry SubjectRegistry
	sink     EventSink
	log      *zap.Logger
	debug    bool

	frameRate    float64
	warpsEnabled bool
	timeScale    float64
	currentTime  float64
	playing      bool
	active       bool

	origFrameLength int
	frameLength     int

	// running holds the instances applied on the last ApplyAnimation call.
	running map[int]*ScheduledInstance
	applyBuf []*ScheduledInstance

	bakes map[string]*BakeContainer

	// gazeEditors own the gaze instances on their layers.
	gazeEditors []*GazeEditor
}

// NewTimeline creates an inactive, stopped timeline whose subjects come from
// registry. Only FrameRate and TimewarpsEnabled are read from cfg.
func NewTimeline(registry SubjectRegistry, cfg Config) *Timeline {
	fps := cfg.FrameRate
	if fps <= 0 {
		fps = DefaultFrameRate
	}
	return &Timeline{
		byID:         make(map[int]*ScheduledInstance),
		registry:     registry,
		log:          zap.NewNop(),
		frameRate:    fps,
		warpsEnabled: cfg.TimewarpsEnabled,
		timeScale:    1,
		running:      make(map[int]*ScheduledInstance),
		bakes:        make(map[string]*BakeContainer),
		debug:        cfg.Debug,
	}
}

// SetLogger sets the logger used for schedule edits. nil restores the no-op
// logger.
func (t *Timeline) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	t.log = log
}

// SetEventSink sets the optional transition event sink.
func (t *Timeline) SetEventSink(sink EventSink) { t.sink = sink }

// SetDebugMode enables schedule invariant checks after every edit. A failed
// check panics.
func (t *Timeline) SetDebugMode(enabled bool) { t.debug = enabled }

// Registry returns the subject registry.
func (t *Timeline) Registry() SubjectRegistry { return t.registry }

// FrameRate returns the edit frame rate in frames per second.
func (t *Timeline) FrameRate() float64 { return t.frameRate }

// --- Layers ---

// AddLayer creates a layer. Layers are applied in ascending index order;
// equal indexes keep insertion order.
func (t *Timeline) AddLayer(mode LayerMode, index int, name string) (*LayerContainer, error) {
	if t.Layer(name) != nil {
		return nil, precondition("add layer", ErrDuplicateLayer, "%q", name)
	}
	l := newLayerContainer(mode, index, name, t)
	pos := sort.Search(len(t.layers), func(i int) bool { return t.layers[i].index > index })
	t.layers = append(t.layers, nil)
	copy(t.layers[pos+1:], t.layers[pos:])
	t.layers[pos] = l
	t.log.Debug("layer added", zap.String("layer", name), zap.Int("index", index), zap.Stringer("mode", mode))
	return l, nil
}

// RemoveLayer removes a layer and all its instances. Unknown names are ignored.
func (t *Timeline) RemoveLayer(name string) {
	l := t.Layer(name)
	if l == nil {
		return
	}
	t.RemoveAllAnimations(name)
	for i, o := range t.layers {
		if o == l {
			t.layers = append(t.layers[:i], t.layers[i+1:]...)
			break
		}
	}
}

// RemoveAllLayers removes every layer.
func (t *Timeline) RemoveAllLayers() {
	for len(t.layers) > 0 {
		t.RemoveLayer(t.layers[0].name)
	}
}

// Layer returns the named layer, or nil.
func (t *Timeline) Layer(name string) *LayerContainer {
	for _, l := range t.layers {
		if l.name == name {
			return l
		}
	}
	return nil
}

// Layers returns the layers in application order. The returned slice MUST
// NOT be mutated.
func (t *Timeline) Layers() []*LayerContainer { return t.layers }

// --- Scheduling ---

// AddAnimation schedules anim on a layer at startFrame and returns the new
// instance ID.
func (t *Timeline) AddAnimation(layer string, anim AnimationInstance, startFrame int) (int, error) {
	const op = "add animation"
	l := t.Layer(layer)
	switch {
	case l == nil:
		return 0, precondition(op, ErrUnknownLayer, "%q", layer)
	case anim == nil:
		return 0, precondition(op, ErrUnknownInstance, "nil instance")
	case startFrame < 0:
		return 0, precondition(op, ErrNegativeFrame, "start %d", startFrame)
	}
	if _, ok := t.registry.Subject(anim.Subject()); !ok {
		return 0, precondition(op, ErrUnknownSubject, "%q", anim.Subject())
	}
	if t.scheduledID(anim) >= 0 {
		return 0, precondition(op, ErrAlreadyScheduled, "%q", anim.Name())
	}
	si := t.schedule(l, anim, startFrame, -1)
	t.log.Debug("animation scheduled",
		zap.String("layer", layer), zap.String("name", anim.Name()),
		zap.Int("id", si.id), zap.Int("start", startFrame), zap.Int("length", anim.FrameLength()))
	return si.id, nil
}

// schedule places anim on l. A negative id allocates a fresh one.
func (t *Timeline) schedule(l *LayerContainer, anim AnimationInstance, startFrame, id int) *ScheduledInstance {
	if id < 0 {
		id = t.nextID
		t.nextID++
	}
	si := &ScheduledInstance{id: id, start: startFrame, anim: anim, layer: l}
	l.insert(si)
	t.byID[si.id] = si
	t.updateLengths()
	return si
}

func (t *Timeline) scheduledID(anim AnimationInstance) int {
	for id, si := range t.byID {
		if si.anim == anim {
			return id
		}
	}
	return -1
}

// RemoveAnimation unschedules an instance. Unknown IDs are ignored. An
// instance that is currently active is finished first.
func (t *Timeline) RemoveAnimation(id int) {
	si, ok := t.byID[id]
	if !ok {
		return
	}
	if e := t.gazeEditorFor(si); e != nil {
		// The editor also closes the gap left behind.
		_ = e.RemoveInstance(id)
		return
	}
	t.unschedule(si)
	t.updateLengths()
}

func (t *Timeline) gazeEditorFor(si *ScheduledInstance) *GazeEditor {
	for _, e := range t.gazeEditors {
		if e.manages(si) {
			return e
		}
	}
	return nil
}

func (t *Timeline) unschedule(si *ScheduledInstance) {
	if _, ok := t.running[si.id]; ok {
		delete(t.running, si.id)
		t.finish(si)
	}
	si.layer.remove(si)
	delete(t.byID, si.id)
	t.log.Debug("animation removed", zap.String("layer", si.layer.name), zap.Int("id", si.id))
}

// RemoveAllAnimations unschedules every instance on a layer.
func (t *Timeline) RemoveAllAnimations(layer string) {
	l := t.Layer(layer)
	if l == nil {
		return
	}
	for len(l.instances) > 0 {
		t.unschedule(l.instances[len(l.instances)-1])
	}
	t.updateLengths()
}

// Animation returns a scheduled instance by ID.
func (t *Timeline) Animation(id int) (*ScheduledInstance, bool) {
	si, ok := t.byID[id]
	return si, ok
}

// SetAnimationStartFrame moves a scheduled instance. Gaze instances owned by
// a GazeEditor are retimed through it, keeping their shift length.
func (t *Timeline) SetAnimationStartFrame(id, startFrame int) error {
	si, ok := t.byID[id]
	if !ok {
		return precondition("set start frame", ErrUnknownInstance, "id %d", id)
	}
	if startFrame < 0 {
		return precondition("set start frame", ErrNegativeFrame, "start %d", startFrame)
	}
	if e := t.gazeEditorFor(si); e != nil {
		g := si.anim.(*GazeInstance)
		return e.SetTiming(id, startFrame, startFrame+g.length-1)
	}
	si.start = startFrame
	si.layer.resort()
	t.updateLengths()
	return nil
}

// Subjects returns the names of subjects with at least one scheduled
// instance, in registry order.
func (t *Timeline) Subjects() []string {
	used := make(map[string]bool)
	for _, si := range t.byID {
		used[si.Subject()] = true
	}
	var out []string
	for _, s := range t.registry.Subjects() {
		if used[s.Name()] {
			out = append(out, s.Name())
		}
	}
	return out
}

// --- Timewarps ---

// AddTimewarp warps a subject's track on a layer starting at origStart in
// original time. Existing timewarps that overlap it are replaced.
func (t *Timeline) AddTimewarp(layer, subject string, track TrackType, tw Timewarp, origStart int) error {
	const op = "add timewarp"
	c, err := t.timewarps(op, layer, subject)
	if err != nil {
		return err
	}
	if tw == nil || int(track) >= NumTracks {
		return precondition(op, ErrInvalidTimewarp, "track %v", track)
	}
	if origStart < 0 {
		return precondition(op, ErrNegativeFrame, "start %d", origStart)
	}
	dropped := c.add(track, tw, origStart)
	t.updateLengths()
	t.log.Debug("timewarp added",
		zap.String("layer", layer), zap.String("subject", subject), zap.Stringer("track", track),
		zap.String("kind", TimewarpKind(tw)), zap.Int("start", origStart), zap.Int("replaced", dropped))
	return nil
}

// RemoveTimewarp removes the i-th timewarp of a subject's track.
func (t *Timeline) RemoveTimewarp(layer, subject string, track TrackType, i int) error {
	c, err := t.timewarps("remove timewarp", layer, subject)
	if err != nil {
		return err
	}
	if int(track) >= NumTracks || !c.remove(track, i) {
		return precondition("remove timewarp", ErrInvalidTimewarp, "%v[%d]", track, i)
	}
	t.updateLengths()
	return nil
}

// RemoveAllTimewarps clears every track of a subject on a layer.
func (t *Timeline) RemoveAllTimewarps(layer, subject string) error {
	c, err := t.timewarps("remove timewarps", layer, subject)
	if err != nil {
		return err
	}
	c.clear()
	t.updateLengths()
	return nil
}

// OriginalFrame maps a timeline frame to the original frame of a subject's
// track on a layer. It is the identity when timewarps are disabled.
func (t *Timeline) OriginalFrame(layer, subject string, track TrackType, frame int) (int, error) {
	c, err := t.timewarps("original frame", layer, subject)
	if err != nil {
		return 0, err
	}
	if !t.warpsEnabled {
		return frame, nil
	}
	return c.OriginalFrame(track, frame), nil
}

func (t *Timeline) timewarps(op, layer, subject string) (*TimewarpContainer, error) {
	l := t.Layer(layer)
	if l == nil {
		return nil, precondition(op, ErrUnknownLayer, "%q", layer)
	}
	if _, ok := t.registry.Subject(subject); !ok {
		return nil, precondition(op, ErrUnknownSubject, "%q", subject)
	}
	c := l.warps[subject]
	if c == nil {
		return nil, fmt.Errorf("%s: layer %q has no instances of %q: %w", op, layer, subject, ErrInconsistentState)
	}
	return c, nil
}

// SetTimewarpsEnabled turns timewarping on or off globally.
func (t *Timeline) SetTimewarpsEnabled(enabled bool) {
	t.warpsEnabled = enabled
	t.updateLengths()
}

// TimewarpsEnabled reports whether timewarps are applied.
func (t *Timeline) TimewarpsEnabled() bool { return t.warpsEnabled }

// --- Lengths ---

// OriginalFrameLength returns the timeline length in frames ignoring
// timewarps.
func (t *Timeline) OriginalFrameLength() int { return t.origFrameLength }

// FrameLength returns the timeline length in frames after timewarping.
func (t *Timeline) FrameLength() int { return t.frameLength }

// TimeLength returns the timeline length in seconds.
func (t *Timeline) TimeLength() float64 { return float64(t.frameLength) / t.frameRate }

func (t *Timeline) updateLengths() {
	for _, e := range t.gazeEditors {
		e.padTails()
	}
	t.origFrameLength, t.frameLength = 0, 0
	for _, l := range t.layers {
		t.origFrameLength = max(t.origFrameLength, l.originalLength(""))
		t.frameLength = max(t.frameLength, l.frameLength(t.warpsEnabled))
	}
	t.setTime(t.currentTime)
	if t.debug {
		debugCheckSchedule(t)
	}
}

// --- Clock ---

// Play starts playback.
func (t *Timeline) Play() { t.playing = true }

// Stop stops playback.
func (t *Timeline) Stop() { t.playing = false }

// Playing reports whether playback is running.
func (t *Timeline) Playing() bool { return t.playing }

// SetActive enables or disables the timeline. An inactive timeline ignores
// Advance.
func (t *Timeline) SetActive(active bool) { t.active = active }

// Active reports whether the timeline is active.
func (t *Timeline) Active() bool { return t.active }

// TimeScale returns the playback speed multiplier.
func (t *Timeline) TimeScale() float64 { return t.timeScale }

// SetTimeScale sets the playback speed multiplier.
func (t *Timeline) SetTimeScale(scale float64) { t.timeScale = scale }

// CurrentTime returns the playhead position in seconds.
func (t *Timeline) CurrentTime() float64 { return t.currentTime }

// CurrentFrame returns the playhead position in frames.
func (t *Timeline) CurrentFrame() int { return int(t.currentTime*t.frameRate + 0.5) }

func (t *Timeline) setTime(seconds float64) {
	t.currentTime = math.Max(0, math.Min(seconds, t.TimeLength()))
}

// GoToFrame moves the playhead to frame, clamped to the timeline.
func (t *Timeline) GoToFrame(frame int) {
	frame = clampInt(frame, 0, max(t.frameLength-1, 0))
	t.setTime(float64(frame) / t.frameRate)
}

// GoToTime moves the playhead to a time in seconds, clamped to the timeline.
func (t *Timeline) GoToTime(seconds float64) { t.setTime(seconds) }

// NextFrame steps the playhead one frame forward, stopping at the last frame.
func (t *Timeline) NextFrame() {
	if f := t.CurrentFrame(); f < t.frameLength-1 {
		t.GoToFrame(f + 1)
	}
}

// PreviousFrame steps the playhead one frame back, stopping at frame 0.
func (t *Timeline) PreviousFrame() {
	if f := t.CurrentFrame(); f > 0 {
		t.GoToFrame(f - 1)
	}
}

// Advance moves the clock by dt seconds (scaled) while playing, wrapping at
// the end, then applies the animation and updates every subject's
// controllers. It does nothing while the timeline is inactive.
func (t *Timeline) Advance(dt float64) {
	if !t.active {
		return
	}
	if t.playing {
		t.addTime(dt * t.timeScale)
	}
	t.ApplyAnimation()
	t.updateControllers()
}

func (t *Timeline) addTime(dt float64) {
	length := t.TimeLength()
	next := t.currentTime + dt
	if length > 0 && next >= length {
		next = math.Mod(next, length)
	}
	t.setTime(next)
}

func (t *Timeline) updateControllers() {
	frame := t.CurrentFrame()
	for _, s := range t.registry.Subjects() {
		for _, c := range t.registry.Controllers(s.Name()) {
			c.Update(frame)
		}
	}
}

// --- Application ---

// ApplyAnimation poses every subject at the current frame. Active layers are
// applied in order; for each subject the original frame is resolved through
// the subject's timewarps and every instance containing it is applied.
// Instances leaving the active set are finished before newcomers start.
func (t *Timeline) ApplyAnimation() {
	frame := t.CurrentFrame()
	for _, s := range t.registry.Subjects() {
		if r, ok := s.(PoseResetter); ok {
			r.Reset()
		}
	}

	type application struct {
		si     *ScheduledInstance
		frames FrameSet
	}
	var pending []application
	applied := make(map[int]*ScheduledInstance, len(t.running))

	for _, l := range t.layers {
		if !l.active {
			continue
		}
		for _, subject := range l.subjects {
			frames := l.frameSet(subject, frame, t.warpsEnabled)
			t.applyBuf = l.instancesAt(t.applyBuf[:0], subject, frames[TrackAll])
			for _, si := range t.applyBuf {
				applied[si.id] = si
				pending = append(pending, application{si: si, frames: frames.Offset(-si.start)})
			}
		}
	}

	var leaving []*ScheduledInstance
	for id, si := range t.running {
		if _, ok := applied[id]; !ok {
			leaving = append(leaving, si)
		}
	}
	sort.Slice(leaving, func(i, j int) bool { return leaving[i].id < leaving[j].id })
	for _, si := range leaving {
		delete(t.running, si.id)
		t.finish(si)
	}

	for _, p := range pending {
		if _, ok := t.running[p.si.id]; !ok {
			t.running[p.si.id] = p.si
			p.si.anim.Start()
			t.emit(TransitionStart, p.si)
		}
		if ta, ok := p.si.anim.(TrackApplier); ok {
			ta.ApplyTracks(p.frames, p.si.layer.mode)
		} else {
			p.si.anim.Apply(p.frames[TrackAll], p.si.layer.mode)
		}
	}
}

func (t *Timeline) finish(si *ScheduledInstance) {
	si.anim.Finish()
	t.emit(TransitionFinish, si)
}

func (t *Timeline) emit(kind TransitionKind, si *ScheduledInstance) {
	if t.sink == nil {
		return
	}
	t.sink.EmitTransition(TransitionEvent{
		Kind:       kind,
		InstanceID: si.id,
		Layer:      si.layer.name,
		Subject:    si.Subject(),
		Name:       si.anim.Name(),
		Frame:      t.CurrentFrame(),
	})
}

// Running reports whether an instance was applied on the last
// ApplyAnimation call.
func (t *Timeline) Running(id int) bool {
	_, ok := t.running[id]
	return ok
}
