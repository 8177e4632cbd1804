package leap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// newBakeFixture builds a rig walking for 41 frames with a gaze shift that
// coasts from frame 15.
func newBakeFixture(t *testing.T) (*Timeline, *GazeTracker) {
	t.Helper()
	reg := NewRegistry()
	rig := NewRig("Norman",
		Channel{Name: "yaw", Track: TrackGaze},
		Channel{Name: "root_x", Track: TrackLocomotion},
	)
	if err := reg.AddSubject(rig); err != nil {
		t.Fatal(err)
	}
	tracker := NewGazeTracker("Norman")
	if err := reg.AddController("Norman", tracker, 0); err != nil {
		t.Fatal(err)
	}

	tl := NewTimeline(reg, DefaultConfig())
	tl.SetDebugMode(true)
	mustAddLayer(t, tl, LayerOverride, 0, "Base")
	mustAddLayer(t, tl, LayerOverride, 1, "Gaze")

	ramp := []Keyframe{{Time: 0, Value: 0}, {Time: 1, Value: 30}}
	walk, err := NewClipInstance("walk", rig, 41, tl.FrameRate(),
		Curve{Channel: "yaw", Keys: ramp}, Curve{Channel: "root_x", Keys: ramp})
	if err != nil {
		t.Fatal(err)
	}
	mustAddAnimation(t, tl, "Base", walk, 0)

	e, err := NewGazeEditor(tl, testGazeConfig())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.AddInstance(NewGazeInstance("look", "Norman", "camera", 15, tracker), 0); err != nil {
		t.Fatal(err)
	}
	return tl, tracker
}

func TestInitBake(t *testing.T) {
	tl, tracker := newBakeFixture(t)
	b := tl.InitBake("take1")

	bs, ok := b.Subject("Norman")
	if !ok {
		t.Fatal("baked subject missing")
	}
	if len(bs.Curves) != 2 || bs.Curves[0].Channel != "yaw" || len(bs.Curves[0].Keys) != 0 {
		t.Errorf("curves = %+v, want empty yaw and root_x", bs.Curves)
	}
	assertInt(t, "controller slots", len(bs.Controllers[tracker.Name()]), tl.FrameLength())

	got, ok := tl.BakeContainer("take1")
	if !ok || got != b {
		t.Error("BakeContainer should return the initialized container")
	}
}

func TestBakeRecordsPoseAndControllers(t *testing.T) {
	tl, tracker := newBakeFixture(t)
	assertInt(t, "FrameLength", tl.FrameLength(), 41)

	b, err := tl.BakeAll("take1")
	if err != nil {
		t.Fatal(err)
	}
	bs, _ := b.Subject("Norman")
	yaw, _ := bs.Curve("yaw")
	assertInt(t, "yaw keys", len(yaw.Keys), 41)
	for i, k := range yaw.Keys {
		assertNear(t, "key time", k.Time, ToTime(i, 30))
		assertNear(t, "key value", k.Value, float64(min(i, 30)))
	}

	slots := bs.Controllers[tracker.Name()]
	assertNear(t, "frame 0 active", slots[0]["active"], 1)
	assertNear(t, "frame 0 ahead", slots[0]["ahead"], 0)
	assertNear(t, "frame 25 ahead", slots[25]["ahead"], 1)
	assertNear(t, "frame 25 shift age", slots[25]["shift_age"], 10)
}

func TestBakeRestoresClock(t *testing.T) {
	tl, _ := newBakeFixture(t)
	tl.GoToFrame(7)
	tl.SetTimeScale(3)

	if _, err := tl.Bake("part", 10, 5); err != nil {
		t.Fatal(err)
	}
	assertInt(t, "CurrentFrame", tl.CurrentFrame(), 7)
	assertNear(t, "TimeScale", tl.TimeScale(), 3)
	if tl.Playing() || tl.Active() {
		t.Error("bake should restore the stopped, inactive clock")
	}

	b, _ := tl.BakeContainer("part")
	assertInt(t, "StartFrame", b.StartFrame, 10)
	bs, _ := b.Subject("Norman")
	rootX, _ := bs.Curve("root_x")
	assertInt(t, "keys", len(rootX.Keys), 5)
	assertNear(t, "first key time", rootX.Keys[0].Time, 0)
	assertNear(t, "first key value", rootX.Keys[0].Value, 10)
}

func TestBakeStopsAtLastFrame(t *testing.T) {
	tl, tracker := newBakeFixture(t)
	b, err := tl.BakeAll("take1")
	if err != nil {
		t.Fatal(err)
	}
	// The pose and controllers stay at frame 40 instead of wrapping to 0.
	bs, _ := b.Subject("Norman")
	yaw, _ := bs.Curve("yaw")
	subject, _ := tl.registry.Subject("Norman")
	got, _ := subject.(*Rig).Value("yaw")
	assertNear(t, "yaw after bake", got, yaw.Keys[len(yaw.Keys)-1].Value)
	if tracker.Target() != "" {
		t.Errorf("Target after bake = %q, want the coast of the last frame", tracker.Target())
	}
}

func TestBakeIsDeterministic(t *testing.T) {
	tl, _ := newBakeFixture(t)
	a, err := tl.BakeAll("a")
	if err != nil {
		t.Fatal(err)
	}
	b, err := tl.BakeAll("b")
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Subjects, b.Subjects); diff != "" {
		t.Errorf("second bake differs (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a", "b"}, tl.Bakes()); diff != "" {
		t.Errorf("Bakes (-want +got):\n%s", diff)
	}
}

func TestBakeRange(t *testing.T) {
	tl, _ := newBakeFixture(t)
	for _, r := range [][2]int{{-1, 5}, {30, 20}, {0, -1}} {
		_, err := tl.Bake("bad", r[0], r[1])
		assertPrecondition(t, err, ErrInvalidRange)
	}
	if _, ok := tl.BakeContainer("bad"); ok {
		t.Error("failed bakes should not create containers")
	}
}
