package leap

import (
	"fmt"

	"go.uber.org/zap"
)

// GazeShift asks a GazeController to turn a subject towards a target.
type GazeShift struct {
	Subject string
	Target  string
	// HeadAlign and TorsoAlign in [0,1] say how far head and torso follow
	// the eyes.
	HeadAlign  float64
	TorsoAlign float64
	// Ahead means gaze straight ahead instead of at Target.
	Ahead bool
}

// GazeController computes gaze kinematics for shifts requested by gaze
// instances.
type GazeController interface {
	ShiftGaze(shift GazeShift)
	EndGaze(subject string)
}

// GazeInstance is a gaze shift towards a target followed by an optional
// coast, during which the subject gazes ahead until the next shift. The
// instance spans BodyLength+CoastLength frames.
type GazeInstance struct {
	name    string
	subject string
	target  string
	ctrl    GazeController

	headAlign  float64
	torsoAlign float64

	length int // authored shift length
	body   int // shift length plus absorbed gap
	coast  int

	coasting bool
}

// NewGazeInstance creates a gaze shift of frameLength frames. ctrl may be
// nil, in which case the instance only occupies the schedule.
func NewGazeInstance(name, subject, target string, frameLength int, ctrl GazeController) *GazeInstance {
	return &GazeInstance{
		name:       name,
		subject:    subject,
		target:     target,
		ctrl:       ctrl,
		headAlign:  1,
		torsoAlign: 0,
		length:     frameLength,
		body:       frameLength,
	}
}

func (g *GazeInstance) Name() string        { return g.name }
func (g *GazeInstance) Subject() string     { return g.subject }
func (g *GazeInstance) Target() string      { return g.target }
func (g *GazeInstance) HeadAlign() float64  { return g.headAlign }
func (g *GazeInstance) TorsoAlign() float64 { return g.torsoAlign }

// ShiftLength returns the authored length of the shift, before gap
// resolution.
func (g *GazeInstance) ShiftLength() int { return g.length }

// BodyLength returns the frames spent gazing at the target.
func (g *GazeInstance) BodyLength() int { return g.body }

// CoastLength returns the frames spent gazing ahead after the body.
func (g *GazeInstance) CoastLength() int { return g.coast }

func (g *GazeInstance) FrameLength() int { return g.body + g.coast }

func (g *GazeInstance) Start() {
	g.coasting = false
	g.shift(false)
}

func (g *GazeInstance) Finish() {
	g.coasting = false
	if g.ctrl != nil {
		g.ctrl.EndGaze(g.subject)
	}
}

func (g *GazeInstance) Apply(frame int, _ LayerMode) {
	coasting := frame >= g.body
	if coasting != g.coasting {
		g.coasting = coasting
		g.shift(coasting)
	}
}

// ApplyTracks follows the gaze track, so a timewarp on TrackGaze retimes the
// shift independently of the rest of the body.
func (g *GazeInstance) ApplyTracks(frames FrameSet, mode LayerMode) {
	g.Apply(frames[TrackGaze], mode)
}

func (g *GazeInstance) shift(ahead bool) {
	if g.ctrl == nil {
		return
	}
	g.ctrl.ShiftGaze(GazeShift{
		Subject:    g.subject,
		Target:     g.target,
		HeadAlign:  g.headAlign,
		TorsoAlign: g.torsoAlign,
		Ahead:      ahead,
	})
}

// GazeTracker is a per-subject Controller that records the gaze shifts it
// receives. It stands in for a gaze IK solver and gives bakes a
// deterministic controller state.
type GazeTracker struct {
	subject string

	target     string
	headAlign  float64
	torsoAlign float64
	ahead      bool
	active     bool

	frame      int
	shiftFrame int
	shifted    bool
	shifts     int
}

// NewGazeTracker creates a tracker for subject.
func NewGazeTracker(subject string) *GazeTracker {
	return &GazeTracker{subject: subject}
}

func (t *GazeTracker) Name() string { return "gaze:" + t.subject }

// Target returns the current target, or "" while gazing ahead or idle.
func (t *GazeTracker) Target() string {
	if !t.active || t.ahead {
		return ""
	}
	return t.target
}

// Shifts returns the number of shifts received.
func (t *GazeTracker) Shifts() int { return t.shifts }

func (t *GazeTracker) ShiftGaze(shift GazeShift) {
	if shift.Subject != t.subject {
		return
	}
	t.target = shift.Target
	t.headAlign = shift.HeadAlign
	t.torsoAlign = shift.TorsoAlign
	t.ahead = shift.Ahead
	t.active = true
	t.shifted = true
	t.shifts++
}

func (t *GazeTracker) EndGaze(subject string) {
	if subject != t.subject {
		return
	}
	t.active, t.ahead = false, false
	t.target = ""
	t.headAlign, t.torsoAlign = 0, 0
}

func (t *GazeTracker) Update(frame int) {
	t.frame = frame
	if t.shifted {
		t.shiftFrame = frame
		t.shifted = false
	}
}

func (t *GazeTracker) Snapshot() ControllerState {
	state := ControllerState{
		"active":      0,
		"ahead":       0,
		"head_align":  t.headAlign,
		"torso_align": t.torsoAlign,
		"shift_age":   0,
	}
	if t.active {
		state["active"] = 1
		state["shift_age"] = float64(t.frame - t.shiftFrame)
	}
	if t.ahead {
		state["ahead"] = 1
	}
	return state
}

// GazeSegment is one interval of a subject's gaze schedule. A coast appears
// as a separate Filler segment sharing its instance's ID.
type GazeSegment struct {
	ID     int
	Name   string
	Target string
	Start  int
	End    int // inclusive
	Filler bool
}

// GazeEditor keeps the gaze instances on one layer free of same-subject
// overlaps and resolves the gaps between them: short gaps are absorbed by
// extending the preceding shift, longer ones get a coast.
type GazeEditor struct {
	tl     *Timeline
	layer  string
	minLen int
	maxGap int
	fill   bool
	log    *zap.Logger
}

// NewGazeEditor creates an editor for the gaze layer named in cfg. The layer
// must already exist on tl.
func NewGazeEditor(tl *Timeline, cfg GazeConfig) (*GazeEditor, error) {
	if tl.Layer(cfg.Layer) == nil {
		return nil, precondition("new gaze editor", ErrUnknownLayer, "%q", cfg.Layer)
	}
	e := &GazeEditor{
		tl:     tl,
		layer:  cfg.Layer,
		minLen: ToFrame(cfg.MinLength, tl.FrameRate()),
		maxGap: ToFrame(cfg.MaxGapLength, tl.FrameRate()),
		fill:   cfg.FillGaps,
		log:    tl.log.Named("gaze"),
	}
	tl.gazeEditors = append(tl.gazeEditors, e)
	return e, nil
}

// SetLogger sets the editor's logger. nil restores the no-op logger.
func (e *GazeEditor) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	e.log = log
}

// Layer returns the name of the gaze layer.
func (e *GazeEditor) Layer() string { return e.layer }

// MinLength returns the minimum shift length in frames.
func (e *GazeEditor) MinLength() int { return e.minLen }

// MaxGap returns the shortest gap in frames that gets a coast.
func (e *GazeEditor) MaxGap() int { return e.maxGap }

// SetFillGaps enables or disables coasts for subsequent edits.
func (e *GazeEditor) SetFillGaps(fill bool) { e.fill = fill }

// AddInstance schedules a gaze shift at start. Same-subject instances it
// overlaps are trimmed, delayed or removed; the gaps on both sides of the
// new shift are then resolved.
func (e *GazeEditor) AddInstance(g *GazeInstance, start int) (int, error) {
	const op = "add gaze"
	l := e.tl.Layer(e.layer)
	switch {
	case l == nil:
		return 0, precondition(op, ErrUnknownLayer, "%q", e.layer)
	case g == nil:
		return 0, precondition(op, ErrUnknownInstance, "nil instance")
	case start < 0:
		return 0, precondition(op, ErrNegativeFrame, "start %d", start)
	case g.length < e.minLen:
		return 0, precondition(op, ErrTooShort, "%q has %d frames, need %d", g.name, g.length, e.minLen)
	}
	if _, ok := e.tl.registry.Subject(g.subject); !ok {
		return 0, precondition(op, ErrUnknownSubject, "%q", g.subject)
	}
	if e.tl.scheduledID(g) >= 0 {
		return 0, precondition(op, ErrAlreadyScheduled, "%q", g.name)
	}
	si := e.insert(l, g, start, -1)
	e.log.Debug("gaze added",
		zap.String("subject", g.subject), zap.String("name", g.name),
		zap.Int("id", si.id), zap.Int("start", si.start), zap.Int("end", si.EndFrame()))
	return si.id, nil
}

func (e *GazeEditor) insert(l *LayerContainer, g *GazeInstance, start, id int) *ScheduledInstance {
	defer l.keepWarps(g.subject)()
	g.body, g.coast = g.length, 0
	end := start + g.length - 1

	for _, other := range e.Instances(g.subject) {
		if other.overlaps(start, end) {
			e.resolveOverlap(other, start, end)
		}
	}
	l.resort()

	si := e.tl.schedule(l, g, start, id)
	e.resolveGap(si)
	if prev := e.previous(si); prev != nil {
		e.resolveGap(prev)
	}
	e.resolveTails(l)
	e.tl.updateLengths()
	e.assertSchedule(g.subject)
	return si
}

// padTails re-pads the subjects' last shifts against the current timeline
// end. The timeline calls it before every length update, so edits on other
// layers that move the end keep the trailing gaps resolved.
func (e *GazeEditor) padTails() {
	if l := e.tl.Layer(e.layer); l != nil {
		e.resolveTails(l)
	}
}

// manages reports whether si is a gaze instance on the editor's layer.
func (e *GazeEditor) manages(si *ScheduledInstance) bool {
	_, ok := si.anim.(*GazeInstance)
	return ok && si.layer.name == e.layer
}

// resolveTails re-pads the last instance of every subject, whose limit is
// the timeline end and may have moved.
func (e *GazeEditor) resolveTails(l *LayerContainer) {
	for _, subject := range l.subjects {
		if list := e.Instances(subject); len(list) > 0 {
			e.resolveGap(list[len(list)-1])
		}
	}
}

// resolveOverlap makes room for a new shift spanning [start, end].
func (e *GazeEditor) resolveOverlap(si *ScheduledInstance, start, end int) {
	g := si.anim.(*GazeInstance)
	shiftEnd := si.start + g.length - 1
	switch {
	case si.start < start && shiftEnd >= start:
		if start-si.start >= e.minLen {
			g.length = start - si.start
			g.body, g.coast = g.length, 0
			return
		}
		e.tl.unschedule(si)
	case si.start < start:
		// Only the absorbed gap or coast overlaps. The gap up to the new
		// shift is resolved once it is scheduled.
		g.body, g.coast = g.length, 0
	default:
		if rest := shiftEnd - end; rest >= e.minLen {
			pad := g.body - g.length
			g.length, g.body = rest, rest+pad
			si.start = end + 1
			return
		}
		e.tl.unschedule(si)
	}
}

// resolveGap sizes the padding after si's shift: the gap up to the next
// same-subject instance (or the timeline end) is absorbed into the body when
// short or when fillers are disabled, otherwise it becomes the coast.
func (e *GazeEditor) resolveGap(si *ScheduledInstance) {
	g := si.anim.(*GazeInstance)
	limit := e.timelineEnd()
	if next := e.next(si); next != nil {
		limit = next.start
	}
	gap := max(limit-(si.start+g.length), 0)
	if gap < e.maxGap || !e.fill {
		g.body, g.coast = g.length+gap, 0
	} else {
		g.body, g.coast = g.length, gap
	}
}

// timelineEnd is the exclusive end of the timeline with gaze padding
// ignored, so padding never extends itself.
func (e *GazeEditor) timelineEnd() int {
	end := 0
	for _, l := range e.tl.layers {
		for _, si := range l.instances {
			length := si.anim.FrameLength()
			if g, ok := si.anim.(*GazeInstance); ok && l.name == e.layer {
				length = g.length
			}
			end = max(end, si.start+length)
		}
	}
	return end
}

func (e *GazeEditor) next(si *ScheduledInstance) *ScheduledInstance {
	for _, o := range e.Instances(si.Subject()) {
		if o != si && o.start > si.start {
			return o
		}
	}
	return nil
}

func (e *GazeEditor) previous(si *ScheduledInstance) *ScheduledInstance {
	var prev *ScheduledInstance
	for _, o := range e.Instances(si.Subject()) {
		if o != si && o.start < si.start {
			prev = o
		}
	}
	return prev
}

// RemoveInstance unschedules a gaze instance and closes the gap it leaves
// behind. Unknown IDs are ignored.
func (e *GazeEditor) RemoveInstance(id int) error {
	si, ok := e.tl.byID[id]
	if !ok {
		return nil
	}
	if err := e.checkGaze("remove gaze", si); err != nil {
		return err
	}
	prev := e.previous(si)
	e.tl.unschedule(si)
	if prev != nil {
		e.resolveGap(prev)
	}
	e.resolveTails(si.layer)
	e.tl.updateLengths()
	e.assertSchedule(si.Subject())
	e.log.Debug("gaze removed", zap.String("subject", si.Subject()), zap.Int("id", id))
	return nil
}

// SetTiming moves a gaze instance to [start, end] (inclusive). The instance
// keeps its ID.
func (e *GazeEditor) SetTiming(id, start, end int) error {
	const op = "set gaze timing"
	si, ok := e.tl.byID[id]
	if !ok {
		return precondition(op, ErrUnknownInstance, "id %d", id)
	}
	if err := e.checkGaze(op, si); err != nil {
		return err
	}
	if start < 0 {
		return precondition(op, ErrNegativeFrame, "start %d", start)
	}
	if end-start+1 < e.minLen {
		return precondition(op, ErrTooShort, "[%d, %d] is shorter than %d frames", start, end, e.minLen)
	}
	defer si.layer.keepWarps(si.Subject())()
	if err := e.RemoveInstance(id); err != nil {
		return err
	}
	g := si.anim.(*GazeInstance)
	g.length = end - start + 1
	e.insert(si.layer, g, start, id)
	return nil
}

// SetAlignments sets the head and torso alignment of a gaze instance,
// clamped to [0,1].
func (e *GazeEditor) SetAlignments(id int, head, torso float64) error {
	si, ok := e.tl.byID[id]
	if !ok {
		return precondition("set gaze alignments", ErrUnknownInstance, "id %d", id)
	}
	if err := e.checkGaze("set gaze alignments", si); err != nil {
		return err
	}
	g := si.anim.(*GazeInstance)
	g.headAlign, g.torsoAlign = clamp01(head), clamp01(torso)
	return nil
}

// FixBetweenShifts makes every shift last until the next one (the last until
// the timeline end) and drops all coasts.
func (e *GazeEditor) FixBetweenShifts() {
	end := e.timelineEnd()
	l := e.tl.Layer(e.layer)
	if l == nil {
		return
	}
	for _, subject := range l.Subjects() {
		list := e.Instances(subject)
		for i, si := range list {
			limit := end
			if i+1 < len(list) {
				limit = list[i+1].start
			}
			g := si.anim.(*GazeInstance)
			g.length = max(limit-si.start, g.length)
			g.body, g.coast = g.length, 0
		}
	}
	e.tl.updateLengths()
}

// Instances returns the subject's gaze instances in start order.
func (e *GazeEditor) Instances(subject string) []*ScheduledInstance {
	l := e.tl.Layer(e.layer)
	if l == nil {
		return nil
	}
	var out []*ScheduledInstance
	for _, si := range l.instances {
		if _, ok := si.anim.(*GazeInstance); ok && si.Subject() == subject {
			out = append(out, si)
		}
	}
	return out
}

// Segments returns the subject's gaze schedule with coasts split out as
// filler segments.
func (e *GazeEditor) Segments(subject string) []GazeSegment {
	var out []GazeSegment
	for _, si := range e.Instances(subject) {
		g := si.anim.(*GazeInstance)
		bodyEnd := si.start + g.body - 1
		out = append(out, GazeSegment{ID: si.id, Name: g.name, Target: g.target, Start: si.start, End: bodyEnd})
		if g.coast > 0 {
			out = append(out, GazeSegment{ID: si.id, Name: g.name, Start: bodyEnd + 1, End: si.EndFrame(), Filler: true})
		}
	}
	return out
}

// InstanceAt returns the subject's gaze instance spanning frame, coast
// included.
func (e *GazeEditor) InstanceAt(subject string, frame int) (*ScheduledInstance, bool) {
	for _, si := range e.Instances(subject) {
		if si.Contains(frame) {
			return si, true
		}
	}
	return nil, false
}

func (e *GazeEditor) checkGaze(op string, si *ScheduledInstance) error {
	if !e.manages(si) {
		return precondition(op, ErrUnknownInstance, "id %d is not a gaze instance on %q", si.id, e.layer)
	}
	return nil
}

// assertSchedule panics if the subject's gaze instances overlap. Documented
// edits never produce that.
func (e *GazeEditor) assertSchedule(subject string) {
	list := e.Instances(subject)
	for i := 1; i < len(list); i++ {
		prev, cur := list[i-1], list[i]
		if prev.EndFrame() >= cur.start {
			panic(fmt.Sprintf("leap: gaze schedule of %q corrupted: %q [%d, %d] overlaps %q [%d, %d]",
				subject, prev.anim.Name(), prev.start, prev.EndFrame(), cur.anim.Name(), cur.start, cur.EndFrame()))
		}
	}
}
