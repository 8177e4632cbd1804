package scene

import (
	"testing"

	"github.com/phanxgames/leap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScript(t *testing.T) {
	r, err := ParseScript([]byte(`
steps:
  - {action: add_gaze, name: away, subject: Norman, target: door, start: 40, length: 30}
  - {action: advance, frames: 3}
`))
	require.NoError(t, err)
	require.Len(t, r.steps, 2)
	assert.Equal(t, "add_gaze", r.steps[0].Action)
	assert.Equal(t, 40, r.steps[0].Start)
	assert.Equal(t, 3, r.steps[1].Frames)
	assert.False(t, r.Done())
}

func TestParseScript_Invalid(t *testing.T) {
	_, err := ParseScript([]byte(`steps: [`))
	assert.Error(t, err)

	_, err = ParseScript([]byte(`steps: []`))
	assert.Error(t, err, "empty scripts are rejected")
}

func TestRunnerAdvance(t *testing.T) {
	w := loadDemo(t)
	r, err := ParseScript([]byte(`steps: [{action: advance, frames: 3}]`))
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		require.False(t, r.Done())
		require.NoError(t, r.Step(w))
		assert.Equal(t, i, w.Timeline.CurrentFrame())
	}
	assert.True(t, r.Done())

	require.NoError(t, r.Step(w))
	assert.Equal(t, 3, w.Timeline.CurrentFrame(), "a finished runner does nothing")
}

func TestRunnerEditsGaze(t *testing.T) {
	w := loadDemo(t)
	r, err := ParseScript([]byte(`
steps:
  - {action: add_gaze, name: away, subject: Norman, target: door, start: 40, length: 30}
  - {action: align, name: away, head_align: 0.5, torso_align: 0.25}
  - {action: set_timing, name: look, start: 0, end: 34}
  - {action: goto, frame: 0}
  - {action: advance, frames: 5}
  - {action: bake, name: take, start: 0, length: 10}
  - {action: bake, name: all}
`))
	require.NoError(t, err)
	require.NoError(t, r.Run(w))
	assert.True(t, r.Done())

	assert.Equal(t, []span{
		{"look", "camera", 0, 39},
		{"away", "door", 40, 89},
	}, spans(w, "Norman"))

	id, ok := w.GazeID("away")
	require.True(t, ok)
	si, _ := w.Timeline.Animation(id)
	g := si.Animation().(*leap.GazeInstance)
	assert.InDelta(t, 0.5, g.HeadAlign(), 1e-9)
	assert.InDelta(t, 0.25, g.TorsoAlign(), 1e-9)

	assert.Equal(t, 5, w.Timeline.CurrentFrame(), "bakes restore the clock")
	take, ok := w.Timeline.BakeContainer("take")
	require.True(t, ok)
	bs, ok := take.Subject("Norman")
	require.True(t, ok)
	x, _ := bs.Curve("root_x")
	assert.Len(t, x.Keys, 10)

	all, ok := w.Timeline.BakeContainer("all")
	require.True(t, ok)
	assert.Equal(t, w.Timeline.FrameLength(), all.FrameLength)
}

func TestRunnerTimewarpAndRemove(t *testing.T) {
	w := loadDemo(t)
	r, err := ParseScript([]byte(`
steps:
  - {action: timewarp, layer: Base, subject: Sam, kind: Linear, track: All, start: 0, orig_length: 10, length: 20}
  - {action: add_gaze, name: away, subject: Norman, target: door, start: 40, length: 30}
  - {action: remove_gaze, name: away}
`))
	require.NoError(t, err)
	require.NoError(t, r.Run(w))

	assert.Equal(t, 100, w.Timeline.FrameLength(), "linear warp stretches Sam by ten frames")
	_, ok := w.GazeID("away")
	assert.False(t, ok)
}

func TestRunnerErrors(t *testing.T) {
	cases := map[string]struct {
		script string
		is     error
	}{
		"unknown action": {script: `steps: [{action: dance}]`},
		"unknown gaze":   {script: `steps: [{action: remove_gaze, name: ghost}]`, is: leap.ErrUnknownInstance},
		"short gaze":     {script: `steps: [{action: add_gaze, name: g, subject: Norman, start: 0, length: 2}]`, is: leap.ErrTooShort},
		"bad timewarp":   {script: `steps: [{action: timewarp, layer: Base, subject: Norman, kind: Warp, length: 4}]`, is: leap.ErrInvalidTimewarp},
		"bad bake range": {script: `steps: [{action: bake, name: b, start: 90, length: 50}]`, is: leap.ErrInvalidRange},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			w := loadDemo(t)
			r, err := ParseScript([]byte(tc.script))
			require.NoError(t, err)

			err = r.Run(w)
			require.Error(t, err)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
			assert.True(t, r.Done(), "a failed step stops the runner")
		})
	}
}
