// Leapview plays a leap scene and draws its schedule: one bar per scheduled
// instance, gaze coasts in a muted color and a playhead per row showing the
// original frame each subject is playing. The scene file and the edit
// database are watched, so edits made with the leap command show up live.
//
// Keys: Space play/stop, Left/Right step a frame, Home rewind, T toggle
// timewarps, 1-9 toggle layers.
package main

import (
	"context"
	"fmt"
	"image/color"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/scene"
	"github.com/phanxgames/leap/store"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const (
	windowTitle = "leap viewer"
	screenW     = 960
	screenH     = 540
)

var (
	bodyColor    = color.RGBA{R: 0x5b, G: 0x8d, B: 0xef, A: 0xff}
	runningColor = color.RGBA{R: 0x9b, G: 0xd0, B: 0x6b, A: 0xff}
	coastColor   = color.RGBA{R: 0x44, G: 0x44, B: 0x55, A: 0xff}
	playColor    = color.RGBA{R: 0xff, G: 0x6b, B: 0x6b, A: 0xff}
	clearColor   = color.RGBA{R: 0x1a, G: 0x1a, B: 0x26, A: 0xff}
)

// whitePixel is scaled and tinted to draw every rectangle.
var whitePixel *ebiten.Image

func init() {
	whitePixel = ebiten.NewImage(1, 1)
	whitePixel.Fill(color.White)
}

type viewer struct {
	path string
	cfg  leap.Config
	log  *zap.Logger

	ws     *scene.Workspace
	reload chan struct{}
	err    error
}

// load builds the workspace from the scene file and the stored edits. The
// clock position and play state survive reloads.
func (v *viewer) load(ctx context.Context) error {
	ws, err := scene.Load(v.path, v.cfg, v.log)
	if err != nil {
		return err
	}
	st, err := store.Open(ctx, v.cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()
	if err := ws.Restore(ctx, st); err != nil {
		return err
	}

	if v.ws != nil {
		ws.Timeline.GoToTime(v.ws.Timeline.CurrentTime())
		if !v.ws.Timeline.Playing() {
			ws.Timeline.Stop()
		}
		ws.Timeline.SetTimewarpsEnabled(v.ws.Timeline.TimewarpsEnabled())
	}
	v.ws = ws
	v.log.Info("scene loaded", zap.String("scene", ws.Name), zap.Int("frames", ws.Timeline.FrameLength()))
	return nil
}

func (v *viewer) Update() error {
	select {
	case <-v.reload:
		v.err = v.load(context.Background())
		if v.err != nil {
			v.log.Warn("reload failed", zap.Error(v.err))
		}
	default:
	}

	tl := v.ws.Timeline
	switch {
	case inpututil.IsKeyJustPressed(ebiten.KeySpace):
		if tl.Playing() {
			tl.Stop()
		} else {
			tl.Play()
		}
	case inpututil.IsKeyJustPressed(ebiten.KeyRight):
		tl.NextFrame()
	case inpututil.IsKeyJustPressed(ebiten.KeyLeft):
		tl.PreviousFrame()
	case inpututil.IsKeyJustPressed(ebiten.KeyHome):
		tl.GoToFrame(0)
	case inpututil.IsKeyJustPressed(ebiten.KeyT):
		tl.SetTimewarpsEnabled(!tl.TimewarpsEnabled())
	}
	for i, l := range tl.Layers() {
		if i < 9 && inpututil.IsKeyJustPressed(ebiten.Key1+ebiten.Key(i)) {
			l.SetActive(!l.Active())
		}
	}

	v.ws.Step(1 / float64(ebiten.TPS()))
	return nil
}

func fillRect(dst *ebiten.Image, b bar, clr color.Color) {
	var op ebiten.DrawImageOptions
	op.GeoM.Scale(max(b.W, 1), b.H)
	op.GeoM.Translate(b.X, b.Y)
	op.ColorScale.ScaleWithColor(clr)
	dst.DrawImage(whitePixel, &op)
}

func (v *viewer) Draw(screen *ebiten.Image) {
	screen.Fill(clearColor)
	tl := v.ws.Timeline
	s := layoutSchedule(tl, screenW)

	for _, b := range s.Bars {
		clr := bodyColor
		switch b.Kind {
		case barRunning:
			clr = runningColor
		case barCoast:
			clr = coastColor
		}
		fillRect(screen, b, clr)
		if b.Label != "" && b.W > 40 {
			ebitenutil.DebugPrintAt(screen, b.Label, int(b.X)+3, int(b.Y)+1)
		}
	}
	for _, p := range s.Playheads {
		fillRect(screen, p, playColor)
	}
	for _, l := range s.Labels {
		ebitenutil.DebugPrintAt(screen, l.Text, l.X, l.Y)
	}

	state := "stopped"
	if tl.Playing() {
		state = "playing"
	}
	warps := "on"
	if !tl.TimewarpsEnabled() {
		warps = "off"
	}
	status := fmt.Sprintf("%s  frame %d/%d  %s  timewarps %s  FPS %.0f",
		v.ws.Name, tl.CurrentFrame(), tl.FrameLength(), state, warps, ebiten.ActualFPS())
	ebitenutil.DebugPrintAt(screen, status, 4, 4)
	if v.err != nil {
		ebitenutil.DebugPrintAt(screen, "reload failed: "+v.err.Error(), 4, screenH-16)
	}
}

func (v *viewer) Layout(_, _ int) (int, int) {
	return screenW, screenH
}

func newRootCmd() *cobra.Command {
	var configPath, dbPath string
	var verbose bool
	cmd := &cobra.Command{
		Use:          "leapview <scene>",
		Short:        "Play a leap scene and draw its schedule",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := leap.DefaultConfig()
			if configPath != "" {
				var err error
				if cfg, err = leap.LoadConfig(configPath); err != nil {
					return err
				}
			}
			if dbPath != "" {
				cfg.Store.Path = dbPath
			}
			if verbose {
				cfg.Logging.Level = "debug"
			}
			log, err := cfg.NewLogger()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			defer log.Sync()

			v := &viewer{path: args[0], cfg: cfg, log: log, reload: make(chan struct{}, 1)}
			if err := v.load(cmd.Context()); err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			watcher, err := watchFiles(ctx, log, v.reload, args[0], cfg.Store.Path)
			if err != nil {
				return err
			}
			defer watcher.Close()

			ebiten.SetWindowTitle(windowTitle)
			ebiten.SetWindowSize(screenW, screenH)
			return ebiten.RunGame(v)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Config file")
	cmd.Flags().StringVar(&dbPath, "db", "", "Edit database path (overrides the config)")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
