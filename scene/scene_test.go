package scene

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/ecs"
	"github.com/phanxgames/leap/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yohamta/donburi"
)

const demoScene = `
name: demo
subjects:
  - name: Norman
    channels:
      - {name: yaw, track: Gaze}
      - {name: root_x, track: Locomotion}
  - name: Sam
    order: 1
    channels:
      - {name: yaw, track: Gaze}
layers:
  - {name: Base, index: 0}
  - {name: Additive, mode: additive, index: 2}
clips:
  - name: walk
    subject: Norman
    layer: Base
    start: 0
    length: 90
    curves:
      - channel: root_x
        keys: [{t: 0, v: 0}, {t: 3, v: 90}]
  - {name: idle, subject: Sam, layer: Base, start: 0, length: 90}
tweens:
  - name: nod
    subject: Norman
    layer: Additive
    start: 30
    length: 11
    weight: 0.5
    channels:
      - {channel: yaw, from: 0, to: 10, ease: out_cubic}
gaze:
  - {subject: Norman, name: look, target: camera, start: 0, length: 30}
timewarps:
  - {layer: Base, subject: Norman, kind: Hold, start: 10, length: 5, track: All}
`

func loadDemo(t *testing.T) *Workspace {
	t.Helper()
	w, err := Parse([]byte(demoScene), leap.DefaultConfig(), nil)
	require.NoError(t, err)
	return w
}

type span struct {
	Name, Target string
	Start, End   int
}

func spans(w *Workspace, subject string) []span {
	var out []span
	for _, s := range w.Gaze.Segments(subject) {
		if s.Filler {
			continue
		}
		out = append(out, span{s.Name, s.Target, s.Start, s.End})
	}
	return out
}

func TestParseBuildsWorkspace(t *testing.T) {
	w := loadDemo(t)

	assert.Equal(t, "demo", w.Name)
	require.Contains(t, w.Rigs, "Norman")
	require.Contains(t, w.Trackers, "Sam")

	var layers []string
	for _, l := range w.Timeline.Layers() {
		layers = append(layers, l.Name())
	}
	assert.Equal(t, []string{"Base", "Additive", "Gaze"}, layers, "gaze layer is appended after the declared ones")

	assert.Equal(t, 90, w.Timeline.OriginalFrameLength())
	assert.Equal(t, 94, w.Timeline.FrameLength(), "hold timewarp adds four frames")
	assert.True(t, w.Timeline.Active())
	assert.True(t, w.Timeline.Playing())

	assert.Equal(t, []span{{"look", "camera", 0, 29}}, spans(w, "Norman"))

	var names []string
	for _, s := range w.Registry.Subjects() {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"Norman", "Sam"}, names)
	assert.Len(t, w.Registry.Controllers("Norman"), 1)
}

func TestParseErrors(t *testing.T) {
	cases := map[string]string{
		"bad yaml":        "name: [",
		"missing name":    "subjects: []",
		"unknown subject": "name: x\nlayers: [{name: Base, index: 0}]\nclips: [{name: c, subject: Ghost, layer: Base, length: 5}]",
		"unknown track":   "name: x\nsubjects: [{name: A, channels: [{name: yaw, track: Tail}]}]",
		"unknown mode":    "name: x\nlayers: [{name: Base, mode: multiply, index: 0}]",
		"unknown easing": `name: x
subjects: [{name: A, channels: [{name: yaw}]}]
layers: [{name: Base, index: 0}]
tweens: [{name: t, subject: A, layer: Base, length: 5, channels: [{channel: yaw, to: 1, ease: wobble}]}]`,
		"short gaze": "name: x\nsubjects: [{name: A}]\ngaze: [{subject: A, name: g, length: 3}]",
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(data), leap.DefaultConfig(), nil)
			assert.Error(t, err)
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "demo.yaml")
	require.NoError(t, os.WriteFile(path, []byte(demoScene), 0o644))

	w, err := Load(path, leap.DefaultConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, "demo", w.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), leap.DefaultConfig(), nil)
	assert.Error(t, err)
}

func TestStepDeliversTransitions(t *testing.T) {
	w := loadDemo(t)

	var got []string
	ecs.TransitionEventType.Subscribe(w.World, func(_ donburi.World, e leap.TransitionEvent) {
		got = append(got, e.Kind.String()+":"+e.Name)
	})

	w.Step(0)
	assert.ElementsMatch(t, []string{"start:walk", "start:idle", "start:look"}, got)
	assert.Equal(t, "camera", w.Trackers["Norman"].Target())
}

func TestWorkspacePose(t *testing.T) {
	w := loadDemo(t)
	rig := w.Rigs["Norman"]

	w.Timeline.GoToFrame(30)
	w.Step(0)
	x, _ := rig.Value("root_x")
	assert.InDelta(t, 26, x, 1e-9, "frame 30 plays original frame 26 after the hold")
	yaw, _ := rig.Value("yaw")
	assert.InDelta(t, 0, yaw, 1e-9)

	w.Timeline.GoToFrame(40)
	w.Step(0)
	yaw, _ = rig.Value("yaw")
	assert.InDelta(t, 5, yaw, 1e-9, "additive tween lands on its target at half weight")
}

func TestAddGazeAndGazeID(t *testing.T) {
	w := loadDemo(t)
	id, err := w.AddGaze("away", "Norman", "door", 40, 30)
	require.NoError(t, err)

	got, ok := w.GazeID("away")
	require.True(t, ok)
	assert.Equal(t, id, got)
	_, ok = w.GazeID("nope")
	assert.False(t, ok)

	_, err = w.AddGaze("x", "Ghost", "door", 0, 30)
	assert.ErrorIs(t, err, leap.ErrUnknownSubject)
}

func TestPersistAndRestore(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, ":memory:")
	require.NoError(t, err)
	defer st.Close()

	edited := loadDemo(t)
	_, err = edited.AddGaze("away", "Norman", "door", 40, 30)
	require.NoError(t, err)
	require.NoError(t, edited.Persist(ctx, st))

	fresh := loadDemo(t)
	require.NoError(t, fresh.Restore(ctx, st))
	assert.Equal(t, spans(edited, "Norman"), spans(fresh, "Norman"))
	assert.Equal(t, edited.Gaze.Records(), fresh.Gaze.Records())
	assert.Equal(t, edited.Timeline.TimewarpRecords(), fresh.Timeline.TimewarpRecords())
	assert.Equal(t, 94, fresh.Timeline.FrameLength())

	other, err := Parse([]byte("name: other\nsubjects: [{name: A}]"), leap.DefaultConfig(), nil)
	require.NoError(t, err)
	require.NoError(t, other.Restore(ctx, st), "nothing saved is not an error")
	assert.Empty(t, other.Gaze.Records())
}
