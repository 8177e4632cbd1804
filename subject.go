package leap

import (
	"fmt"
	"sort"
)

// ChannelValue is one animated value of a subject's pose.
type ChannelValue struct {
	Channel string
	Value   float64
}

// Pose is a subject's composited pose, one value per channel in a fixed
// channel order.
type Pose []ChannelValue

// Subject is an animated character or object.
type Subject interface {
	Name() string
	// Pose returns a snapshot of the current pose. The channel order must not
	// change between calls.
	Pose() Pose
}

// PoseResetter is implemented by subjects that return to a rest pose before
// each frame is composited. Additive layers rely on it.
type PoseResetter interface {
	Reset()
}

// ControllerState is a snapshot of a controller's runtime state.
type ControllerState map[string]float64

// Controller is a per-subject runtime behavior (gaze, blink, IK helper)
// updated once per frame after the layers are applied.
type Controller interface {
	Name() string
	Update(frame int)
	Snapshot() ControllerState
}

// SubjectRegistry enumerates the animated subjects and their dependent
// controllers. Subjects and Controllers return values in execution order.
type SubjectRegistry interface {
	Subject(name string) (Subject, bool)
	Subjects() []Subject
	Controllers(subject string) []Controller
}

type orderedController struct {
	ctrl  Controller
	order int
}

// Registry is an in-memory SubjectRegistry. Subjects run in registration
// order; controllers run in ascending execution order, ties in registration
// order.
type Registry struct {
	subjects    []Subject
	byName      map[string]Subject
	controllers map[string][]orderedController
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byName:      make(map[string]Subject),
		controllers: make(map[string][]orderedController),
	}
}

// AddSubject registers a subject. Names must be unique.
func (r *Registry) AddSubject(s Subject) error {
	if _, ok := r.byName[s.Name()]; ok {
		return fmt.Errorf("subject %q already registered", s.Name())
	}
	r.subjects = append(r.subjects, s)
	r.byName[s.Name()] = s
	return nil
}

// RemoveSubject unregisters a subject and its controllers.
func (r *Registry) RemoveSubject(name string) {
	if _, ok := r.byName[name]; !ok {
		return
	}
	delete(r.byName, name)
	delete(r.controllers, name)
	for i, s := range r.subjects {
		if s.Name() == name {
			r.subjects = append(r.subjects[:i], r.subjects[i+1:]...)
			break
		}
	}
}

// AddController attaches a controller to a registered subject.
func (r *Registry) AddController(subject string, c Controller, order int) error {
	if _, ok := r.byName[subject]; !ok {
		return precondition("add controller", ErrUnknownSubject, "%q", subject)
	}
	list := append(r.controllers[subject], orderedController{ctrl: c, order: order})
	sort.SliceStable(list, func(i, j int) bool { return list[i].order < list[j].order })
	r.controllers[subject] = list
	return nil
}

func (r *Registry) Subject(name string) (Subject, bool) {
	s, ok := r.byName[name]
	return s, ok
}

func (r *Registry) Subjects() []Subject {
	return append([]Subject(nil), r.subjects...)
}

func (r *Registry) Controllers(subject string) []Controller {
	list := r.controllers[subject]
	out := make([]Controller, len(list))
	for i, oc := range list {
		out[i] = oc.ctrl
	}
	return out
}

// Compile-time check.
var _ SubjectRegistry = (*Registry)(nil)
