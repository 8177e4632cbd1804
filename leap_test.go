package leap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

// --- Enums ---

func TestParseLayerMode(t *testing.T) {
	for _, m := range []LayerMode{LayerOverride, LayerAdditive} {
		got, err := ParseLayerMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseLayerMode(%q) = %v, %v", m.String(), got, err)
		}
	}
	if got, _ := ParseLayerMode(""); got != LayerOverride {
		t.Errorf("empty mode = %v, want override", got)
	}
	if _, err := ParseLayerMode("multiply"); err == nil {
		t.Error("unknown mode should fail")
	}
}

func TestParseTrackType(t *testing.T) {
	for track := range NumTracks {
		tt := TrackType(track)
		got, err := ParseTrackType(tt.String())
		if err != nil || got != tt {
			t.Errorf("ParseTrackType(%q) = %v, %v", tt.String(), got, err)
		}
	}
	if got, _ := ParseTrackType(""); got != TrackAll {
		t.Errorf("empty track = %v, want All", got)
	}
	if _, err := ParseTrackType("Tail"); err == nil {
		t.Error("unknown track should fail")
	}
}

func TestFrameConversions(t *testing.T) {
	assertInt(t, "ToFrame", ToFrame(1, 30), 30)
	assertInt(t, "ToFrame rounds", ToFrame(0.51/30, 30), 1)
	assertNear(t, "ToTime", ToTime(45, 30), 1.5)

	fs := uniformFrameSet(10).Offset(-4)
	for track, f := range fs {
		assertInt(t, TrackType(track).String(), f, 6)
	}
}

// --- Curves ---

func TestCurveAddKeySorted(t *testing.T) {
	var c Curve
	c.AddKey(Keyframe{Time: 1, Value: 10})
	c.AddKey(Keyframe{Time: 0, Value: 0})
	c.AddKey(Keyframe{Time: 0.5, Value: 7})
	c.AddKey(Keyframe{Time: 0.5, Value: 5})

	want := []Keyframe{{0, 0}, {0.5, 5}, {1, 10}}
	if diff := cmp.Diff(want, c.Keys); diff != "" {
		t.Errorf("keys (-want +got):\n%s", diff)
	}
	assertNear(t, "Duration", c.Duration(), 1)
}

func TestCurveSample(t *testing.T) {
	c := Curve{Keys: []Keyframe{{0, 0}, {1, 10}, {2, 0}}}
	assertNear(t, "before", c.Sample(-1), 0)
	assertNear(t, "mid", c.Sample(0.25), 2.5)
	assertNear(t, "key", c.Sample(1), 10)
	assertNear(t, "falling", c.Sample(1.5), 5)
	assertNear(t, "after", c.Sample(3), 0)
	assertNear(t, "empty", Curve{}.Sample(1), 0)
}

// --- Registry ---

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	if err := reg.AddSubject(NewRig("Norman")); err != nil {
		t.Fatal(err)
	}
	if err := reg.AddSubject(NewRig("Norman")); err == nil {
		t.Error("duplicate subject should fail")
	}
	assertPrecondition(t, reg.AddController("Ghost", &fakeController{name: "x"}, 0), ErrUnknownSubject)

	for i, name := range []string{"late", "early", "tied"} {
		order := []int{5, 1, 5}[i]
		if err := reg.AddController("Norman", &fakeController{name: name}, order); err != nil {
			t.Fatal(err)
		}
	}
	var names []string
	for _, c := range reg.Controllers("Norman") {
		names = append(names, c.Name())
	}
	if diff := cmp.Diff([]string{"early", "late", "tied"}, names); diff != "" {
		t.Errorf("controller order (-want +got):\n%s", diff)
	}

	reg.RemoveSubject("Norman")
	if _, ok := reg.Subject("Norman"); ok {
		t.Error("subject should be removed")
	}
	assertInt(t, "controllers", len(reg.Controllers("Norman")), 0)
	reg.RemoveSubject("Norman") // no-op
}

func TestRigPose(t *testing.T) {
	rig := NewRig("Norman", Channel{Name: "yaw", Rest: 2}, Channel{Name: "pitch"})
	rig.Add(0, 3)
	rig.Set(1, 4)
	want := Pose{{Channel: "yaw", Value: 5}, {Channel: "pitch", Value: 4}}
	if diff := cmp.Diff(want, rig.Pose()); diff != "" {
		t.Errorf("pose (-want +got):\n%s", diff)
	}
	rig.Reset()
	if v, _ := rig.Value("yaw"); v != 2 {
		t.Errorf("yaw after Reset = %v, want rest 2", v)
	}
	if _, ok := rig.Value("roll"); ok {
		t.Error("unknown channel should miss")
	}
}

// --- Tweens ---

func TestTweenInstance(t *testing.T) {
	rig := NewRig("Norman", Channel{Name: "yaw"}, Channel{Name: "pitch"})
	ti, err := NewTweenInstance("turn", rig, 11, 10)
	if err != nil {
		t.Fatal(err)
	}
	linearEase, _ := Easing("linear")
	if err := ti.Tween("yaw", 0, 10, linearEase); err != nil {
		t.Fatal(err)
	}
	if err := ti.Tween("roll", 0, 1, linearEase); err == nil {
		t.Error("unknown channel should fail")
	}

	ti.Apply(5, LayerOverride)
	yaw, _ := rig.Value("yaw")
	assertNear(t, "mid", yaw, 5)
	ti.Apply(10, LayerOverride)
	yaw, _ = rig.Value("yaw")
	assertNear(t, "end", yaw, 10)

	ti.Weight = 0.5
	ti.Apply(10, LayerAdditive)
	yaw, _ = rig.Value("yaw")
	assertNear(t, "additive", yaw, 15)

	if _, err := Easing("bounce_forever"); err == nil {
		t.Error("unknown easing should fail")
	}
	_, err = NewTweenInstance("x", rig, 0, 10)
	assertPrecondition(t, err, ErrTooShort)
}

// --- Gaze assertions ---

func TestGazeScheduleAssertion(t *testing.T) {
	_, e := newGazeFixture(t, 0)
	mustAddGaze(t, e, "A", 0, 20)
	mustAddGaze(t, e, "B", 20, 20)

	e.Instances("Norman")[0].Animation().(*GazeInstance).body = 30
	assertPanics(t, "corrupted", func() { e.assertSchedule("Norman") })
}
