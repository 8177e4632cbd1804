package leap

import "sort"

// LayerContainer holds the scheduled instances of one timeline layer,
// sorted by start frame, plus one TimewarpContainer per animated subject.
type LayerContainer struct {
	mode   LayerMode
	index  int
	name   string
	active bool

	instances []*ScheduledInstance
	subjects  []string // first-schedule order
	warps     map[string]*TimewarpContainer
	// held subjects keep their timewarps while they briefly have no
	// instances during a compound edit.
	held map[string]int

	timeline *Timeline
}

func newLayerContainer(mode LayerMode, index int, name string, tl *Timeline) *LayerContainer {
	return &LayerContainer{
		mode:     mode,
		index:    index,
		name:     name,
		active:   true,
		warps:    make(map[string]*TimewarpContainer),
		timeline: tl,
	}
}

// Mode returns the layering mode.
func (l *LayerContainer) Mode() LayerMode { return l.mode }

// Index returns the layer index; layers are applied in ascending index order.
func (l *LayerContainer) Index() int { return l.index }

// Name returns the unique layer name.
func (l *LayerContainer) Name() string { return l.name }

// Active reports whether the layer is applied during playback.
func (l *LayerContainer) Active() bool { return l.active }

// SetActive enables or disables the layer.
func (l *LayerContainer) SetActive(active bool) { l.active = active }

// Instances returns the layer's instances sorted by start frame. The returned
// slice MUST NOT be mutated.
func (l *LayerContainer) Instances() []*ScheduledInstance { return l.instances }

// InstancesFor returns the instances that animate subject, in start order.
func (l *LayerContainer) InstancesFor(subject string) []*ScheduledInstance {
	var out []*ScheduledInstance
	for _, si := range l.instances {
		if si.Subject() == subject {
			out = append(out, si)
		}
	}
	return out
}

// Subjects returns the subjects with instances on the layer.
func (l *LayerContainer) Subjects() []string { return append([]string(nil), l.subjects...) }

// Timewarps returns the subject's timewarp container, or nil if the subject
// has no instances on the layer.
func (l *LayerContainer) Timewarps(subject string) *TimewarpContainer { return l.warps[subject] }

func (l *LayerContainer) insert(si *ScheduledInstance) {
	subject := si.Subject()
	if _, ok := l.warps[subject]; !ok {
		l.warps[subject] = newTimewarpContainer(subject)
		l.subjects = append(l.subjects, subject)
	}
	i := sort.Search(len(l.instances), func(i int) bool {
		o := l.instances[i]
		return o.start > si.start || (o.start == si.start && o.id > si.id)
	})
	l.instances = append(l.instances, nil)
	copy(l.instances[i+1:], l.instances[i:])
	l.instances[i] = si
}

func (l *LayerContainer) remove(si *ScheduledInstance) bool {
	for i, o := range l.instances {
		if o != si {
			continue
		}
		l.instances = append(l.instances[:i], l.instances[i+1:]...)
		l.dropSubjectIfEmpty(si.Subject())
		return true
	}
	return false
}

// keepWarps keeps subject's timewarp container until the returned release is
// called, even if the subject is left without instances in between.
func (l *LayerContainer) keepWarps(subject string) (release func()) {
	if l.held == nil {
		l.held = make(map[string]int)
	}
	l.held[subject]++
	return func() {
		l.held[subject]--
		if l.held[subject] == 0 {
			delete(l.held, subject)
			l.dropSubjectIfEmpty(subject)
		}
	}
}

func (l *LayerContainer) dropSubjectIfEmpty(subject string) {
	if l.held[subject] > 0 {
		return
	}
	for _, o := range l.instances {
		if o.Subject() == subject {
			return
		}
	}
	delete(l.warps, subject)
	for i, s := range l.subjects {
		if s == subject {
			l.subjects = append(l.subjects[:i], l.subjects[i+1:]...)
			return
		}
	}
}

// resort restores start-frame order after start frames were edited in place.
func (l *LayerContainer) resort() {
	sort.SliceStable(l.instances, func(i, j int) bool {
		a, b := l.instances[i], l.instances[j]
		if a.start != b.start {
			return a.start < b.start
		}
		return a.id < b.id
	})
}

// originalLength returns max(start+length) over the subject's instances, or
// over all instances when subject is empty.
func (l *LayerContainer) originalLength(subject string) int {
	length := 0
	for _, si := range l.instances {
		if subject == "" || si.Subject() == subject {
			length = max(length, si.start+si.anim.FrameLength())
		}
	}
	return length
}

// frameLength returns the timewarp-adjusted length of the layer.
func (l *LayerContainer) frameLength(warpsEnabled bool) int {
	if !warpsEnabled {
		return l.originalLength("")
	}
	length := 0
	for _, subject := range l.subjects {
		length = max(length, l.warps[subject].maxFrameLength(l.originalLength(subject)))
	}
	return length
}

// frameSet resolves the original frame of every track for a subject.
func (l *LayerContainer) frameSet(subject string, frame int, warpsEnabled bool) FrameSet {
	c := l.warps[subject]
	if c == nil || !warpsEnabled {
		return uniformFrameSet(frame)
	}
	return c.frameSet(frame)
}

// instancesAt appends the subject's instances that contain frame.
func (l *LayerContainer) instancesAt(dst []*ScheduledInstance, subject string, frame int) []*ScheduledInstance {
	for _, si := range l.instances {
		if si.start > frame {
			break
		}
		if si.Subject() == subject && si.Contains(frame) {
			dst = append(dst, si)
		}
	}
	return dst
}
