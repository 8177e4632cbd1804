package scene

import (
	"fmt"
	"os"

	"github.com/phanxgames/leap"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Step is a single action in an edit script. Gaze instances are addressed by
// name.
type Step struct {
	Action  string `yaml:"action"`
	Name    string `yaml:"name,omitempty"`
	Subject string `yaml:"subject,omitempty"`
	Target  string `yaml:"target,omitempty"`
	Layer   string `yaml:"layer,omitempty"`
	Track   string `yaml:"track,omitempty"`
	Kind    string `yaml:"kind,omitempty"`

	Start      int     `yaml:"start,omitempty"`
	End        int     `yaml:"end,omitempty"`
	Length     int     `yaml:"length,omitempty"`
	OrigLength int     `yaml:"orig_length,omitempty"`
	KeyTime    float64 `yaml:"key_time,omitempty"`
	EaseLength float64 `yaml:"ease_length,omitempty"`
	HeadAlign  float64 `yaml:"head_align,omitempty"`
	TorsoAlign float64 `yaml:"torso_align,omitempty"`
	Frame      int     `yaml:"frame,omitempty"`
	Frames     int     `yaml:"frames,omitempty"`
}

// Script is the top-level YAML structure of an edit script.
type Script struct {
	Steps []Step `yaml:"steps"`
}

// Runner executes an edit script against a workspace, one step per frame.
// An advance step plays the timeline for its frame count before the next
// step runs.
type Runner struct {
	steps     []Step
	cursor    int
	waitCount int
	done      bool
	log       *zap.Logger
}

// LoadScript reads an edit script file.
func LoadScript(path string) (*Runner, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

// ParseScript parses a YAML edit script and returns a runner ready to step.
func ParseScript(data []byte) (*Runner, error) {
	var script Script
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	return &Runner{steps: script.Steps, log: zap.NewNop()}, nil
}

// SetLogger sets the logger used to trace executed steps.
func (r *Runner) SetLogger(log *zap.Logger) {
	if log == nil {
		log = zap.NewNop()
	}
	r.log = log
}

// Done reports whether all steps have been executed.
func (r *Runner) Done() bool {
	return r.done
}

// Step advances the runner by one frame. A failed step stops the runner.
func (r *Runner) Step(w *Workspace) error {
	if r.done {
		return nil
	}
	if r.waitCount > 0 {
		r.waitCount--
		w.Step(1 / w.Timeline.FrameRate())
		r.checkDone()
		return nil
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return nil
	}

	st := r.steps[r.cursor]
	r.cursor++
	r.log.Debug("script step", zap.Int("step", r.cursor), zap.String("action", st.Action))
	if err := r.exec(w, st); err != nil {
		r.done = true
		return fmt.Errorf("step %d (%s): %w", r.cursor, st.Action, err)
	}
	r.checkDone()
	return nil
}

// Run steps the runner until every step has executed.
func (r *Runner) Run(w *Workspace) error {
	for !r.done {
		if err := r.Step(w); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) checkDone() {
	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

func (r *Runner) gazeID(w *Workspace, name string) (int, error) {
	id, ok := w.GazeID(name)
	if !ok {
		return 0, &leap.PreconditionError{Op: "find gaze", Err: leap.ErrUnknownInstance, Detail: name}
	}
	return id, nil
}

func (r *Runner) exec(w *Workspace, st Step) error {
	tl := w.Timeline
	switch st.Action {
	case "add_gaze":
		_, err := w.AddGaze(st.Name, st.Subject, st.Target, st.Start, st.Length)
		return err
	case "remove_gaze":
		id, err := r.gazeID(w, st.Name)
		if err != nil {
			return err
		}
		return w.Gaze.RemoveInstance(id)
	case "set_timing":
		id, err := r.gazeID(w, st.Name)
		if err != nil {
			return err
		}
		return w.Gaze.SetTiming(id, st.Start, st.End)
	case "align":
		id, err := r.gazeID(w, st.Name)
		if err != nil {
			return err
		}
		return w.Gaze.SetAlignments(id, st.HeadAlign, st.TorsoAlign)
	case "fix_between_shifts":
		w.Gaze.FixBetweenShifts()
	case "timewarp":
		rec := leap.Record{
			Kind:        st.Kind,
			FrameLength: st.Length,
			Params: map[string]float64{
				"orig_length": float64(st.OrigLength),
				"key_time":    st.KeyTime,
				"ease_length": st.EaseLength,
			},
		}
		track, err := leap.ParseTrackType(st.Track)
		if err != nil {
			return err
		}
		tw, err := leap.TimewarpFromRecord(rec)
		if err != nil {
			return err
		}
		return tl.AddTimewarp(st.Layer, st.Subject, track, tw, st.Start)
	case "bake":
		var err error
		if st.Length == 0 {
			_, err = tl.BakeAll(st.Name)
		} else {
			_, err = tl.Bake(st.Name, st.Start, st.Length)
		}
		return err
	case "play":
		tl.Play()
	case "stop":
		tl.Stop()
	case "goto":
		tl.GoToFrame(st.Frame)
		w.Step(0)
	case "advance":
		frames := max(st.Frames, 1)
		w.Step(1 / tl.FrameRate())
		r.waitCount = frames - 1 // this frame counts as one
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}
