// Package scene loads YAML scene files into a ready-to-edit workspace: a
// timeline, its subjects and controllers in a Donburi world, and a gaze
// editor. It also runs edit scripts against a workspace and syncs edits
// with a store.
package scene

import (
	"context"
	"fmt"
	"os"

	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/ecs"
	"github.com/phanxgames/leap/store"
	"github.com/yohamta/donburi"
	"github.com/yohamta/donburi/features/events"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ChannelDef declares one rig channel.
type ChannelDef struct {
	Name  string  `yaml:"name"`
	Track string  `yaml:"track,omitempty"`
	Rest  float64 `yaml:"rest,omitempty"`
}

// SubjectDef declares a rig. Order is its execution order.
type SubjectDef struct {
	Name     string       `yaml:"name"`
	Order    int          `yaml:"order,omitempty"`
	Channels []ChannelDef `yaml:"channels"`
}

// LayerDef declares a layer. Layers are active unless Inactive is set.
type LayerDef struct {
	Name     string `yaml:"name"`
	Mode     string `yaml:"mode,omitempty"`
	Index    int    `yaml:"index"`
	Inactive bool   `yaml:"inactive,omitempty"`
}

// ClipDef declares a keyframed clip scheduled on a layer.
type ClipDef struct {
	Name    string       `yaml:"name"`
	Subject string       `yaml:"subject"`
	Layer   string       `yaml:"layer"`
	Start   int          `yaml:"start"`
	Length  int          `yaml:"length"`
	Weight  *float64     `yaml:"weight,omitempty"`
	Curves  []leap.Curve `yaml:"curves"`
}

// TweenChannelDef eases one channel between two values.
type TweenChannelDef struct {
	Channel string  `yaml:"channel"`
	From    float64 `yaml:"from"`
	To      float64 `yaml:"to"`
	Ease    string  `yaml:"ease,omitempty"`
}

// TweenDef declares a procedural tween scheduled on a layer.
type TweenDef struct {
	Name     string            `yaml:"name"`
	Subject  string            `yaml:"subject"`
	Layer    string            `yaml:"layer"`
	Start    int               `yaml:"start"`
	Length   int               `yaml:"length"`
	Weight   *float64          `yaml:"weight,omitempty"`
	Channels []TweenChannelDef `yaml:"channels"`
}

// File is the YAML form of a scene.
type File struct {
	Name      string        `yaml:"name"`
	Subjects  []SubjectDef  `yaml:"subjects"`
	Layers    []LayerDef    `yaml:"layers"`
	Clips     []ClipDef     `yaml:"clips,omitempty"`
	Tweens    []TweenDef    `yaml:"tweens,omitempty"`
	Gaze      []leap.Record `yaml:"gaze,omitempty"`
	Timewarps []leap.Record `yaml:"timewarps,omitempty"`
}

// Workspace is a loaded scene.
type Workspace struct {
	Name     string
	Config   leap.Config
	World    donburi.World
	Registry *ecs.Registry
	Timeline *leap.Timeline
	Gaze     *leap.GazeEditor
	Rigs     map[string]*leap.Rig
	Trackers map[string]*leap.GazeTracker

	log *zap.Logger
}

// Load reads and builds a scene file.
func Load(path string, cfg leap.Config, log *zap.Logger) (*Workspace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scene: %w", err)
	}
	return Parse(data, cfg, log)
}

// Parse builds a scene from YAML.
func Parse(data []byte, cfg leap.Config, log *zap.Logger) (*Workspace, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return Build(&f, cfg, log)
}

// Build creates a workspace from a parsed scene. The gaze layer named by
// cfg.Gaze.Layer is created if the scene does not declare it. The timeline
// starts active and playing at frame 0.
func Build(f *File, cfg leap.Config, log *zap.Logger) (*Workspace, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if f.Name == "" {
		return nil, fmt.Errorf("build scene: missing name")
	}
	world := donburi.NewWorld()
	w := &Workspace{
		Name:     f.Name,
		Config:   cfg,
		World:    world,
		Registry: ecs.NewRegistry(world),
		Rigs:     make(map[string]*leap.Rig),
		Trackers: make(map[string]*leap.GazeTracker),
		log:      log.With(zap.String("scene", f.Name)),
	}
	w.Timeline = leap.NewTimeline(w.Registry, cfg)
	w.Timeline.SetLogger(w.log)
	w.Timeline.SetEventSink(ecs.NewEventSink(world))
	ecs.TransitionEventType.Subscribe(world, w.logTransition)

	if err := w.buildSubjects(f.Subjects); err != nil {
		return nil, err
	}
	if err := w.buildLayers(f.Layers); err != nil {
		return nil, err
	}
	if err := w.buildClips(f.Clips); err != nil {
		return nil, err
	}
	if err := w.buildTweens(f.Tweens); err != nil {
		return nil, err
	}

	gaze, err := leap.NewGazeEditor(w.Timeline, cfg.Gaze)
	if err != nil {
		return nil, fmt.Errorf("build scene %q: %w", f.Name, err)
	}
	gaze.SetLogger(w.log)
	w.Gaze = gaze
	if _, err := gaze.LoadRecords(withGazeLayer(f.Gaze, cfg.Gaze.Layer), w.Dispatcher()); err != nil {
		return nil, fmt.Errorf("build scene %q: %w", f.Name, err)
	}
	if _, err := w.Timeline.LoadTimewarpRecords(f.Timewarps); err != nil {
		return nil, fmt.Errorf("build scene %q: %w", f.Name, err)
	}

	w.Timeline.SetActive(true)
	w.Timeline.Play()
	w.Timeline.GoToFrame(0)
	w.log.Debug("scene built",
		zap.Int("subjects", len(w.Rigs)),
		zap.Int("frames", w.Timeline.FrameLength()))
	return w, nil
}

func withGazeLayer(records []leap.Record, layer string) []leap.Record {
	out := make([]leap.Record, len(records))
	for i, r := range records {
		if r.Kind == "" {
			r.Kind = leap.RecordGaze
		}
		if r.Layer == "" {
			r.Layer = layer
		}
		out[i] = r
	}
	return out
}

func (w *Workspace) buildSubjects(defs []SubjectDef) error {
	for _, sd := range defs {
		channels := make([]leap.Channel, len(sd.Channels))
		for i, cd := range sd.Channels {
			track, err := leap.ParseTrackType(cd.Track)
			if err != nil {
				return fmt.Errorf("subject %q channel %q: %w", sd.Name, cd.Name, err)
			}
			channels[i] = leap.Channel{Name: cd.Name, Track: track, Rest: cd.Rest}
		}
		rig := leap.NewRig(sd.Name, channels...)
		if _, err := w.Registry.AddSubject(rig, sd.Order); err != nil {
			return fmt.Errorf("build scene: %w", err)
		}
		tracker := leap.NewGazeTracker(sd.Name)
		if _, err := w.Registry.AddController(sd.Name, tracker, 0); err != nil {
			return fmt.Errorf("build scene: %w", err)
		}
		w.Rigs[sd.Name] = rig
		w.Trackers[sd.Name] = tracker
	}
	return nil
}

func (w *Workspace) buildLayers(defs []LayerDef) error {
	for _, ld := range defs {
		mode, err := leap.ParseLayerMode(ld.Mode)
		if err != nil {
			return fmt.Errorf("layer %q: %w", ld.Name, err)
		}
		l, err := w.Timeline.AddLayer(mode, ld.Index, ld.Name)
		if err != nil {
			return fmt.Errorf("build scene: %w", err)
		}
		l.SetActive(!ld.Inactive)
	}
	if w.Timeline.Layer(w.Config.Gaze.Layer) == nil {
		index := 0
		for _, l := range w.Timeline.Layers() {
			index = max(index, l.Index()+1)
		}
		if _, err := w.Timeline.AddLayer(leap.LayerOverride, index, w.Config.Gaze.Layer); err != nil {
			return fmt.Errorf("build scene: %w", err)
		}
	}
	return nil
}

func (w *Workspace) rig(kind, name, subject string) (*leap.Rig, error) {
	rig, ok := w.Rigs[subject]
	if !ok {
		return nil, fmt.Errorf("%s %q: unknown subject %q", kind, name, subject)
	}
	return rig, nil
}

func (w *Workspace) buildClips(defs []ClipDef) error {
	for _, cd := range defs {
		rig, err := w.rig("clip", cd.Name, cd.Subject)
		if err != nil {
			return err
		}
		clip, err := leap.NewClipInstance(cd.Name, rig, cd.Length, w.Timeline.FrameRate(), cd.Curves...)
		if err != nil {
			return err
		}
		if cd.Weight != nil {
			clip.Weight = *cd.Weight
		}
		if _, err := w.Timeline.AddAnimation(cd.Layer, clip, cd.Start); err != nil {
			return fmt.Errorf("clip %q: %w", cd.Name, err)
		}
	}
	return nil
}

func (w *Workspace) buildTweens(defs []TweenDef) error {
	for _, td := range defs {
		rig, err := w.rig("tween", td.Name, td.Subject)
		if err != nil {
			return err
		}
		ti, err := leap.NewTweenInstance(td.Name, rig, td.Length, w.Timeline.FrameRate())
		if err != nil {
			return err
		}
		if td.Weight != nil {
			ti.Weight = *td.Weight
		}
		for _, ch := range td.Channels {
			fn, err := leap.Easing(ch.Ease)
			if err != nil {
				return fmt.Errorf("tween %q: %w", td.Name, err)
			}
			if err := ti.Tween(ch.Channel, ch.From, ch.To, fn); err != nil {
				return err
			}
		}
		if _, err := w.Timeline.AddAnimation(td.Layer, ti, td.Start); err != nil {
			return fmt.Errorf("tween %q: %w", td.Name, err)
		}
	}
	return nil
}

func (w *Workspace) logTransition(_ donburi.World, e leap.TransitionEvent) {
	w.log.Debug("transition",
		zap.Stringer("kind", e.Kind),
		zap.Int("id", e.InstanceID),
		zap.String("layer", e.Layer),
		zap.String("subject", e.Subject),
		zap.String("name", e.Name),
		zap.Int("frame", e.Frame))
}

// Dispatcher routes gaze shifts to the subjects' trackers.
func (w *Workspace) Dispatcher() leap.GazeDispatcher {
	d := make(leap.GazeDispatcher, len(w.Trackers))
	for name, tr := range w.Trackers {
		d[name] = tr
	}
	return d
}

// AddGaze schedules a gaze shift driven by the subject's tracker.
func (w *Workspace) AddGaze(name, subject, target string, start, length int) (int, error) {
	tracker, ok := w.Trackers[subject]
	if !ok {
		return 0, &leap.PreconditionError{Op: "add gaze", Err: leap.ErrUnknownSubject, Detail: subject}
	}
	return w.Gaze.AddInstance(leap.NewGazeInstance(name, subject, target, length, tracker), start)
}

// GazeID returns the ID of the first scheduled gaze instance with the given
// name.
func (w *Workspace) GazeID(name string) (int, bool) {
	l := w.Timeline.Layer(w.Gaze.Layer())
	for _, subject := range l.Subjects() {
		for _, si := range w.Gaze.Instances(subject) {
			if si.Animation().Name() == name {
				return si.ID(), true
			}
		}
	}
	return 0, false
}

// Step advances the timeline by dt seconds and delivers queued transition
// events.
func (w *Workspace) Step(dt float64) {
	w.Timeline.Advance(dt)
	events.ProcessAllEvents(w.World)
}

// Restore replaces the gaze schedule and the timewarps with the versions
// saved in st, if any.
func (w *Workspace) Restore(ctx context.Context, st *store.Store) error {
	gaze, err := st.LoadGaze(ctx, w.Name)
	if err != nil {
		return err
	}
	if len(gaze) > 0 {
		w.Timeline.RemoveAllAnimations(w.Gaze.Layer())
		if _, err := w.Gaze.LoadRecords(gaze, w.Dispatcher()); err != nil {
			return fmt.Errorf("restore gaze: %w", err)
		}
	}

	warps, err := st.LoadTimewarps(ctx, w.Name)
	if err != nil {
		return err
	}
	if len(warps) > 0 {
		for _, l := range w.Timeline.Layers() {
			for _, subject := range l.Subjects() {
				if err := w.Timeline.RemoveAllTimewarps(l.Name(), subject); err != nil {
					return fmt.Errorf("restore timewarps: %w", err)
				}
			}
		}
		if _, err := w.Timeline.LoadTimewarpRecords(warps); err != nil {
			return fmt.Errorf("restore timewarps: %w", err)
		}
	}
	w.log.Info("restored edits", zap.Int("gaze", len(gaze)), zap.Int("timewarps", len(warps)))
	return nil
}

// Persist saves the gaze schedule and the timewarps to st.
func (w *Workspace) Persist(ctx context.Context, st *store.Store) error {
	if err := st.SaveGaze(ctx, w.Name, w.Gaze.Records()); err != nil {
		return err
	}
	return st.SaveTimewarps(ctx, w.Name, w.Timeline.TimewarpRecords())
}
