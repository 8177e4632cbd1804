package leap

import (
	"fmt"

	"go.uber.org/zap"
)

// Record kinds besides the timewarp kinds returned by TimewarpKind.
const RecordGaze = "Gaze"

// Record is the tabular form of a scheduled gaze instance or a timewarp.
// StartFrame is an original-time frame. For gaze records FrameLength is the
// authored shift length; gap padding is re-derived on load.
type Record struct {
	Layer       string             `yaml:"layer" json:"layer"`
	Subject     string             `yaml:"subject" json:"subject"`
	Name        string             `yaml:"name,omitempty" json:"name,omitempty"`
	Kind        string             `yaml:"kind" json:"kind"`
	Target      string             `yaml:"target,omitempty" json:"target,omitempty"`
	StartFrame  int                `yaml:"start" json:"start"`
	FrameLength int                `yaml:"length" json:"length"`
	Track       string             `yaml:"track,omitempty" json:"track,omitempty"`
	Params      map[string]float64 `yaml:"params,omitempty" json:"params,omitempty"`
}

// GazeDispatcher routes gaze shifts to a per-subject controller.
type GazeDispatcher map[string]GazeController

func (d GazeDispatcher) ShiftGaze(shift GazeShift) {
	if c := d[shift.Subject]; c != nil {
		c.ShiftGaze(shift)
	}
}

func (d GazeDispatcher) EndGaze(subject string) {
	if c := d[subject]; c != nil {
		c.EndGaze(subject)
	}
}

// Records returns the gaze schedule of every subject in start order.
func (e *GazeEditor) Records() []Record {
	l := e.tl.Layer(e.layer)
	if l == nil {
		return nil
	}
	var out []Record
	for _, subject := range l.Subjects() {
		for _, si := range e.Instances(subject) {
			g := si.anim.(*GazeInstance)
			out = append(out, Record{
				Layer:       e.layer,
				Subject:     subject,
				Name:        g.name,
				Kind:        RecordGaze,
				Target:      g.target,
				StartFrame:  si.start,
				FrameLength: g.length,
				Track:       TrackGaze.String(),
				Params:      map[string]float64{"head_align": g.headAlign, "torso_align": g.torsoAlign},
			})
		}
	}
	return out
}

// LoadRecords schedules the gaze records in order. Records of other kinds are
// ignored; records naming unregistered subjects are logged and skipped. It
// returns the number of instances scheduled.
func (e *GazeEditor) LoadRecords(records []Record, ctrl GazeController) (int, error) {
	n := 0
	for _, r := range records {
		if r.Kind != RecordGaze {
			continue
		}
		if _, ok := e.tl.registry.Subject(r.Subject); !ok {
			e.log.Warn("skipping gaze record for unknown subject",
				zap.String("subject", r.Subject), zap.String("name", r.Name))
			continue
		}
		g := NewGazeInstance(r.Name, r.Subject, r.Target, r.FrameLength, ctrl)
		if v, ok := r.Params["head_align"]; ok {
			g.headAlign = clamp01(v)
		}
		if v, ok := r.Params["torso_align"]; ok {
			g.torsoAlign = clamp01(v)
		}
		if _, err := e.AddInstance(g, r.StartFrame); err != nil {
			return n, fmt.Errorf("gaze record %q: %w", r.Name, err)
		}
		n++
	}
	return n, nil
}

// TimewarpRecords returns every timewarp on every layer.
func (t *Timeline) TimewarpRecords() []Record {
	var out []Record
	for _, l := range t.layers {
		for _, subject := range l.subjects {
			c := l.warps[subject]
			for track := range NumTracks {
				for i := range c.Len(TrackType(track)) {
					tw, start := c.Timewarp(TrackType(track), i)
					out = append(out, timewarpRecord(l.name, subject, TrackType(track), tw, start))
				}
			}
		}
	}
	return out
}

func timewarpRecord(layer, subject string, track TrackType, tw Timewarp, start int) Record {
	r := Record{
		Layer:       layer,
		Subject:     subject,
		Kind:        TimewarpKind(tw),
		StartFrame:  start,
		FrameLength: tw.FrameLength(),
		Track:       track.String(),
		Params:      map[string]float64{"orig_length": float64(tw.OrigFrameLength())},
	}
	if mh, ok := tw.(MovingHoldTimewarp); ok {
		r.Params["key_time"] = mh.KeyTime()
		r.Params["ease_length"] = mh.EaseLength()
	}
	return r
}

// TimewarpFromRecord builds the timewarp described by a record.
func TimewarpFromRecord(r Record) (Timewarp, error) {
	orig := int(r.Params["orig_length"])
	switch r.Kind {
	case "Hold":
		return NewHoldTimewarp(r.FrameLength)
	case "Linear":
		return NewLinearTimewarp(orig, r.FrameLength)
	case "MovingHold":
		key, ok1 := r.Params["key_time"]
		ease, ok2 := r.Params["ease_length"]
		if !ok1 || !ok2 {
			return nil, precondition("timewarp from record", ErrInvalidTimewarp, "MovingHold needs key_time and ease_length")
		}
		return NewMovingHoldTimewarp(orig, r.FrameLength, key, ease)
	}
	return nil, precondition("timewarp from record", ErrInvalidTimewarp, "unknown kind %q", r.Kind)
}

// LoadTimewarpRecords applies timewarp records. Gaze records are ignored;
// records naming unregistered subjects are logged and skipped. The animated
// subjects must already be scheduled on the record's layer.
func (t *Timeline) LoadTimewarpRecords(records []Record) (int, error) {
	n := 0
	for _, r := range records {
		if r.Kind == RecordGaze {
			continue
		}
		if _, ok := t.registry.Subject(r.Subject); !ok {
			t.log.Warn("skipping timewarp record for unknown subject",
				zap.String("subject", r.Subject), zap.String("layer", r.Layer))
			continue
		}
		track, err := ParseTrackType(r.Track)
		if err != nil {
			return n, fmt.Errorf("timewarp record: %w", err)
		}
		tw, err := TimewarpFromRecord(r)
		if err != nil {
			return n, err
		}
		if err := t.AddTimewarp(r.Layer, r.Subject, track, tw, r.StartFrame); err != nil {
			return n, fmt.Errorf("timewarp record on %q: %w", r.Layer, err)
		}
		n++
	}
	return n, nil
}
