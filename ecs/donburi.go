package ecs

import (
	"fmt"
	"sort"

	"github.com/phanxgames/leap"

	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"github.com/yohamta/donburi/filter"
)

// TransitionEventType is the Donburi event type for timeline transitions.
// Subscribe to this in your ECS systems to react when instances start or
// finish.
var TransitionEventType = events.NewEventType[leap.TransitionEvent]()

type eventSink struct {
	world donburi.World
}

// NewEventSink creates an EventSink that publishes transitions to
// TransitionEventType. Events are queued until ProcessEvents runs.
func NewEventSink(world donburi.World) leap.EventSink {
	return &eventSink{world: world}
}

func (s *eventSink) EmitTransition(event leap.TransitionEvent) {
	TransitionEventType.Publish(s.world, event)
}

// SubjectData is the component attached to subject entities.
type SubjectData struct {
	Subject leap.Subject
	// Order is the subject's execution order; ties run in registration order.
	Order int
	seq   int
}

// ControllerData is the component attached to controller entities.
type ControllerData struct {
	Subject    string
	Controller leap.Controller
	Order      int
	seq        int
}

var (
	SubjectComponent    = donburi.NewComponentType[SubjectData]()
	ControllerComponent = donburi.NewComponentType[ControllerData]()
)

// Registry is a leap.SubjectRegistry whose subjects and controllers live in
// a Donburi world.
type Registry struct {
	world    donburi.World
	subjects map[string]donburi.Entity
	seq      int

	subjectQuery    *donburi.Query
	controllerQuery *donburi.Query
}

// NewRegistry creates an empty registry on world.
func NewRegistry(world donburi.World) *Registry {
	return &Registry{
		world:           world,
		subjects:        make(map[string]donburi.Entity),
		subjectQuery:    donburi.NewQuery(filter.Contains(SubjectComponent)),
		controllerQuery: donburi.NewQuery(filter.Contains(ControllerComponent)),
	}
}

// World returns the backing world.
func (r *Registry) World() donburi.World { return r.world }

// AddSubject creates an entity for s. Names must be unique.
func (r *Registry) AddSubject(s leap.Subject, order int) (donburi.Entity, error) {
	if _, ok := r.subjects[s.Name()]; ok {
		return 0, fmt.Errorf("subject %q already registered", s.Name())
	}
	e := r.world.Create(SubjectComponent)
	SubjectComponent.SetValue(r.world.Entry(e), SubjectData{Subject: s, Order: order, seq: r.next()})
	r.subjects[s.Name()] = e
	return e, nil
}

// Entity returns the entity of a subject.
func (r *Registry) Entity(subject string) (donburi.Entity, bool) {
	e, ok := r.subjects[subject]
	return e, ok
}

// AddController creates a controller entity for a registered subject.
func (r *Registry) AddController(subject string, c leap.Controller, order int) (donburi.Entity, error) {
	if _, ok := r.subjects[subject]; !ok {
		return 0, &leap.PreconditionError{Op: "add controller", Err: leap.ErrUnknownSubject, Detail: subject}
	}
	e := r.world.Create(ControllerComponent)
	ControllerComponent.SetValue(r.world.Entry(e), ControllerData{Subject: subject, Controller: c, Order: order, seq: r.next()})
	return e, nil
}

// RemoveSubject removes a subject entity and its controller entities.
func (r *Registry) RemoveSubject(name string) {
	e, ok := r.subjects[name]
	if !ok {
		return
	}
	var doomed []donburi.Entity
	r.controllerQuery.Each(r.world, func(entry *donburi.Entry) {
		if ControllerComponent.Get(entry).Subject == name {
			doomed = append(doomed, entry.Entity())
		}
	})
	for _, c := range doomed {
		r.world.Remove(c)
	}
	r.world.Remove(e)
	delete(r.subjects, name)
}

func (r *Registry) next() int {
	r.seq++
	return r.seq
}

func (r *Registry) Subject(name string) (leap.Subject, bool) {
	e, ok := r.subjects[name]
	if !ok || !r.world.Valid(e) {
		return nil, false
	}
	return SubjectComponent.Get(r.world.Entry(e)).Subject, true
}

func (r *Registry) Subjects() []leap.Subject {
	var data []SubjectData
	r.subjectQuery.Each(r.world, func(entry *donburi.Entry) {
		data = append(data, *SubjectComponent.Get(entry))
	})
	sort.Slice(data, func(i, j int) bool {
		if data[i].Order != data[j].Order {
			return data[i].Order < data[j].Order
		}
		return data[i].seq < data[j].seq
	})
	out := make([]leap.Subject, len(data))
	for i, d := range data {
		out[i] = d.Subject
	}
	return out
}

func (r *Registry) Controllers(subject string) []leap.Controller {
	var data []ControllerData
	r.controllerQuery.Each(r.world, func(entry *donburi.Entry) {
		if d := ControllerComponent.Get(entry); d.Subject == subject {
			data = append(data, *d)
		}
	})
	sort.Slice(data, func(i, j int) bool {
		if data[i].Order != data[j].Order {
			return data[i].Order < data[j].Order
		}
		return data[i].seq < data[j].seq
	})
	out := make([]leap.Controller, len(data))
	for i, d := range data {
		out[i] = d.Controller
	}
	return out
}

var _ leap.SubjectRegistry = (*Registry)(nil)
