package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const viewScene = `
name: view
subjects:
  - name: Norman
    channels: [{name: root_x, track: Locomotion}]
layers:
  - {name: Base, index: 0}
clips:
  - {name: walk, subject: Norman, layer: Base, start: 0, length: 90}
gaze:
  - {subject: Norman, name: look, target: camera, start: 0, length: 30}
timewarps:
  - {layer: Base, subject: Norman, kind: Hold, start: 10, length: 11, track: All}
`

func TestLayoutSchedule(t *testing.T) {
	w, err := scene.Parse([]byte(viewScene), leap.DefaultConfig(), nil)
	require.NoError(t, err)
	tl := w.Timeline

	// Eight pixels per original frame.
	width := 90*8 + labelW + 2*marginX
	s := layoutSchedule(tl, width)

	require.Len(t, s.Bars, 3, "walk, look and the look coast")
	walk, look, coast := s.Bars[0], s.Bars[1], s.Bars[2]
	assert.Equal(t, "walk", walk.Label)
	assert.InDelta(t, marginX+labelW, walk.X, 1e-9)
	assert.InDelta(t, 720, walk.W, 1e-9)
	assert.Equal(t, barBody, walk.Kind)

	assert.InDelta(t, 240, look.W, 1e-9)
	assert.Equal(t, barCoast, coast.Kind)
	assert.InDelta(t, look.X+look.W, coast.X, 1e-9)
	assert.InDelta(t, 480, coast.W, 1e-9)
	assert.Greater(t, look.Y, walk.Y, "gaze row is below the base row")

	// Frame 15 sits inside the hold, which plays original frame 10.
	tl.GoToFrame(15)
	w.Step(0)
	s = layoutSchedule(tl, width)
	require.Len(t, s.Playheads, 2)
	assert.InDelta(t, marginX+labelW+10*8, s.Playheads[0].X, 1e-9)
	assert.InDelta(t, marginX+labelW+15*8, s.Playheads[1].X, 1e-9)
	assert.Equal(t, barRunning, s.Bars[0].Kind)

	tl.Layers()[0].SetActive(false)
	s = layoutSchedule(tl, width)
	assert.Contains(t, s.Labels[0].Text, "Base (off)")
}

func TestWatchFilesSignalsReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(viewScene), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	reload := make(chan struct{}, 1)
	watcher, err := watchFiles(ctx, zap.NewNop(), reload, path)
	require.NoError(t, err)
	defer watcher.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(viewScene+"\n"), 0o644))

	select {
	case <-reload:
	case <-time.After(5 * time.Second):
		t.Fatal("no reload signal after writing the scene")
	}
}

func TestViewerReloadKeepsClock(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")
	require.NoError(t, os.WriteFile(path, []byte(viewScene), 0o644))

	cfg := leap.DefaultConfig()
	cfg.Store.Path = filepath.Join(dir, "edits.db")
	v := &viewer{path: path, cfg: cfg, log: zap.NewNop(), reload: make(chan struct{}, 1)}
	ctx := context.Background()
	require.NoError(t, v.load(ctx))

	v.ws.Timeline.GoToFrame(42)
	v.ws.Timeline.Stop()
	v.ws.Timeline.SetTimewarpsEnabled(false)
	require.NoError(t, v.load(ctx))

	assert.Equal(t, 42, v.ws.Timeline.CurrentFrame())
	assert.False(t, v.ws.Timeline.Playing())
	assert.False(t, v.ws.Timeline.TimewarpsEnabled())
}
