package leap

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
)

// callLog records instance and controller calls in order.
type callLog []string

func (l *callLog) add(format string, args ...any) {
	if l != nil {
		*l = append(*l, fmt.Sprintf(format, args...))
	}
}

type fakeInstance struct {
	name     string
	subject  string
	length   int
	starts   int
	finishes int
	applied  []int
	modes    []LayerMode
	log      *callLog
}

func newFake(name, subject string, length int, log *callLog) *fakeInstance {
	return &fakeInstance{name: name, subject: subject, length: length, log: log}
}

func (f *fakeInstance) Name() string     { return f.name }
func (f *fakeInstance) Subject() string  { return f.subject }
func (f *fakeInstance) FrameLength() int { return f.length }

func (f *fakeInstance) Start() {
	f.starts++
	f.log.add("start %s", f.name)
}

func (f *fakeInstance) Finish() {
	f.finishes++
	f.log.add("finish %s", f.name)
}

func (f *fakeInstance) Apply(frame int, mode LayerMode) {
	f.applied = append(f.applied, frame)
	f.modes = append(f.modes, mode)
	f.log.add("apply %s %d", f.name, frame)
}

type fakeController struct {
	name   string
	frames []int
	log    *callLog
}

func (c *fakeController) Name() string { return c.name }

func (c *fakeController) Update(frame int) {
	c.frames = append(c.frames, frame)
	c.log.add("update %s %d", c.name, frame)
}

func (c *fakeController) Snapshot() ControllerState {
	last := 0
	if n := len(c.frames); n > 0 {
		last = c.frames[n-1]
	}
	return ControllerState{"frame": float64(last)}
}

type fakeSink struct {
	events []TransitionEvent
}

func (s *fakeSink) EmitTransition(e TransitionEvent) { s.events = append(s.events, e) }

func newTestRegistry(t *testing.T, subjects ...string) *Registry {
	t.Helper()
	reg := NewRegistry()
	for _, name := range subjects {
		if err := reg.AddSubject(NewRig(name)); err != nil {
			t.Fatalf("AddSubject(%q): %v", name, err)
		}
	}
	return reg
}

func newTestTimeline(t *testing.T, subjects ...string) *Timeline {
	t.Helper()
	tl := NewTimeline(newTestRegistry(t, subjects...), DefaultConfig())
	tl.SetDebugMode(true)
	return tl
}

func mustAddLayer(t *testing.T, tl *Timeline, mode LayerMode, index int, name string) *LayerContainer {
	t.Helper()
	l, err := tl.AddLayer(mode, index, name)
	if err != nil {
		t.Fatalf("AddLayer(%q): %v", name, err)
	}
	return l
}

func mustAddAnimation(t *testing.T, tl *Timeline, layer string, anim AnimationInstance, start int) int {
	t.Helper()
	id, err := tl.AddAnimation(layer, anim, start)
	if err != nil {
		t.Fatalf("AddAnimation(%q, %q, %d): %v", layer, anim.Name(), start, err)
	}
	return id
}

func hold(t *testing.T, length int) Timewarp {
	t.Helper()
	tw, err := NewHoldTimewarp(length)
	if err != nil {
		t.Fatalf("NewHoldTimewarp(%d): %v", length, err)
	}
	return tw
}

func linear(t *testing.T, origLength, length int) Timewarp {
	t.Helper()
	tw, err := NewLinearTimewarp(origLength, length)
	if err != nil {
		t.Fatalf("NewLinearTimewarp(%d, %d): %v", origLength, length, err)
	}
	return tw
}

func assertInt(t *testing.T, label string, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", label, got, want)
	}
}

func assertNear(t *testing.T, label string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > 1e-6 {
		t.Errorf("%s = %v, want %v", label, got, want)
	}
}

func assertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}

func assertPrecondition(t *testing.T, err, target error) {
	t.Helper()
	assertErrorIs(t, err, target)
	if !IsPrecondition(err) {
		t.Errorf("error %v is not a PreconditionError", err)
	}
}

func assertPanics(t *testing.T, contains string, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		r := recover()
		if r == nil {
			t.Fatalf("expected panic containing %q, got none", contains)
		}
		if msg := fmt.Sprint(r); !strings.Contains(msg, contains) {
			t.Errorf("panic message should mention %q, got: %s", contains, msg)
		}
	}()
	fn()
}
