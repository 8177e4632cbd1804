package leap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestGazeRecordsRoundTrip(t *testing.T) {
	_, e := newGazeFixture(t, 150)
	mustAddGaze(t, e, "A", 10, 30)
	mustAddGaze(t, e, "B", 25, 30)
	id := mustAddGaze(t, e, "C", 80, 30)
	if err := e.SetAlignments(id, 0.5, 0.25); err != nil {
		t.Fatal(err)
	}
	records := e.Records()
	assertInt(t, "records", len(records), 3)
	if records[0].FrameLength != 15 || records[0].Kind != RecordGaze {
		t.Errorf("first record = %+v, want trimmed 15-frame gaze", records[0])
	}

	_, loaded := newGazeFixture(t, 150)
	n, err := loaded.LoadRecords(records, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertInt(t, "loaded", n, 3)
	if diff := cmp.Diff(e.Segments("Norman"), loaded.Segments("Norman"),
		cmpopts.IgnoreFields(GazeSegment{}, "ID")); diff != "" {
		t.Errorf("reloaded schedule (-saved +loaded):\n%s", diff)
	}
	if diff := cmp.Diff(records, loaded.Records()); diff != "" {
		t.Errorf("records after reload (-saved +loaded):\n%s", diff)
	}
}

func TestLoadRecordsSkipsUnknownSubjects(t *testing.T) {
	_, e := newGazeFixture(t, 0)
	records := []Record{
		{Layer: "Gaze", Subject: "Ghost", Name: "boo", Kind: RecordGaze, StartFrame: 0, FrameLength: 30},
		{Layer: "Gaze", Subject: "Norman", Name: "A", Kind: RecordGaze, StartFrame: 0, FrameLength: 30},
		{Layer: "Base", Subject: "Norman", Kind: "Hold", StartFrame: 0, FrameLength: 5},
	}
	n, err := e.LoadRecords(records, nil)
	if err != nil {
		t.Fatal(err)
	}
	assertInt(t, "loaded", n, 1)

	_, err = e.LoadRecords([]Record{{Subject: "Norman", Name: "tiny", Kind: RecordGaze, FrameLength: 2}}, nil)
	assertPrecondition(t, err, ErrTooShort)
}

func TestTimewarpRecordsRoundTrip(t *testing.T) {
	build := func() *Timeline {
		tl := newTestTimeline(t, "Norman")
		mustAddLayer(t, tl, LayerOverride, 0, "Base")
		mustAddAnimation(t, tl, "Base", newFake("clip", "Norman", 100, nil), 0)
		return tl
	}
	src := build()
	mh, err := NewMovingHoldTimewarp(20, 40, 0.5, 0.3)
	if err != nil {
		t.Fatal(err)
	}
	for _, w := range []struct {
		track TrackType
		tw    Timewarp
		start int
	}{
		{TrackAll, hold(t, 10), 5},
		{TrackAll, linear(t, 10, 20), 30},
		{TrackGaze, mh, 50},
	} {
		if err := src.AddTimewarp("Base", "Norman", w.track, w.tw, w.start); err != nil {
			t.Fatal(err)
		}
	}
	records := src.TimewarpRecords()
	assertInt(t, "records", len(records), 3)

	dst := build()
	n, err := dst.LoadTimewarpRecords(append(records,
		Record{Layer: "Base", Subject: "Ghost", Kind: "Hold", FrameLength: 3}))
	if err != nil {
		t.Fatal(err)
	}
	assertInt(t, "loaded", n, 3)
	if diff := cmp.Diff(records, dst.TimewarpRecords()); diff != "" {
		t.Errorf("timewarp records (-saved +loaded):\n%s", diff)
	}
	assertInt(t, "FrameLength", dst.FrameLength(), src.FrameLength())
}

func TestTimewarpFromRecordErrors(t *testing.T) {
	cases := []Record{
		{Kind: "Warp", FrameLength: 5},
		{Kind: "MovingHold", FrameLength: 5, Params: map[string]float64{"orig_length": 3}},
		{Kind: "Linear", FrameLength: 5},
		{Kind: "Hold", FrameLength: 0},
	}
	for _, r := range cases {
		if _, err := TimewarpFromRecord(r); !IsPrecondition(err) {
			t.Errorf("TimewarpFromRecord(%+v) error = %v, want precondition", r, err)
		}
	}
}

func TestLoadTimewarpRecordsNeedsScheduledSubject(t *testing.T) {
	tl := newTestTimeline(t, "Norman")
	mustAddLayer(t, tl, LayerOverride, 0, "Base")
	_, err := tl.LoadTimewarpRecords([]Record{{Layer: "Base", Subject: "Norman", Kind: "Hold", FrameLength: 3}})
	assertErrorIs(t, err, ErrInconsistentState)

	_, err = tl.LoadTimewarpRecords([]Record{{Layer: "Base", Subject: "Norman", Kind: "Hold", Track: "Arms", FrameLength: 3}})
	if err == nil {
		t.Error("expected error for unknown track")
	}
}
