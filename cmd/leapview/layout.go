package main

import (
	"fmt"

	"github.com/phanxgames/leap"
)

type barKind uint8

const (
	barBody barKind = iota
	barCoast
	barRunning
)

// bar is one scheduled instance (or the coast of a gaze instance) in screen
// space.
type bar struct {
	X, Y, W, H float64
	Kind       barKind
	Label      string
}

type label struct {
	X, Y int
	Text string
}

// schedule is the screen layout of a timeline: one row per layer and
// subject, bars over the original frame axis and a playhead per row at the
// row's original frame.
type schedule struct {
	Bars      []bar
	Labels    []label
	Playheads []bar
}

const (
	marginX   = 8.0
	labelW    = 140.0
	rowH      = 18.0
	rowGap    = 4.0
	headerH   = 16.0
	topMargin = 24.0
)

func layoutSchedule(tl *leap.Timeline, width float64) schedule {
	var s schedule
	length := max(tl.OriginalFrameLength(), 1)
	left := marginX + labelW
	scale := (width - left - marginX) / float64(length)
	frame := tl.CurrentFrame()

	y := topMargin
	for i, l := range tl.Layers() {
		state := ""
		if !l.Active() {
			state = " (off)"
		}
		s.Labels = append(s.Labels, label{X: int(marginX), Y: int(y), Text: fmt.Sprintf("%d %s%s", i+1, l.Name(), state)})
		y += headerH

		for _, subject := range l.Subjects() {
			s.Labels = append(s.Labels, label{X: int(marginX) + 8, Y: int(y) + 2, Text: subject})
			for _, si := range l.InstancesFor(subject) {
				kind := barBody
				if tl.Running(si.ID()) {
					kind = barRunning
				}
				bodyLen := si.Animation().FrameLength()
				g, isGaze := si.Animation().(*leap.GazeInstance)
				if isGaze {
					bodyLen = g.BodyLength()
				}
				s.Bars = append(s.Bars, bar{
					X: left + float64(si.StartFrame())*scale, Y: y,
					W: float64(bodyLen) * scale, H: rowH,
					Kind: kind, Label: si.Animation().Name(),
				})
				if isGaze && g.CoastLength() > 0 {
					s.Bars = append(s.Bars, bar{
						X: left + float64(si.StartFrame()+bodyLen)*scale, Y: y,
						W: float64(g.CoastLength()) * scale, H: rowH,
						Kind: barCoast,
					})
				}
			}
			orig, err := tl.OriginalFrame(l.Name(), subject, leap.TrackAll, frame)
			if err == nil {
				s.Playheads = append(s.Playheads, bar{X: left + float64(orig)*scale, Y: y - 2, W: 2, H: rowH + 4})
			}
			y += rowH + rowGap
		}
		y += rowGap
	}
	return s
}
