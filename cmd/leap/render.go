package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/phanxgames/leap"
	"github.com/phanxgames/leap/store"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	labelStyle  = lipgloss.NewStyle().Width(12)
	barStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

const coastGlyph = '.'

func glyph(i int) rune { return rune('a' + i%26) }

// renderSchedule draws every layer as one bar per subject over the original
// frame range, followed by a legend of the instances.
func renderSchedule(tl *leap.Timeline, width int) string {
	width = max(width, 10)
	length := max(tl.OriginalFrameLength(), 1)

	var blocks []string
	for _, l := range tl.Layers() {
		title := fmt.Sprintf("%s (%s, index %d)", l.Name(), l.Mode(), l.Index())
		if !l.Active() {
			title += " inactive"
		}
		lines := []string{titleStyle.Render(title)}

		glyphs := make(map[int]rune)
		for i, si := range l.Instances() {
			glyphs[si.ID()] = glyph(i)
		}
		for _, subject := range l.Subjects() {
			bar := []rune(strings.Repeat(" ", width))
			for _, si := range l.InstancesFor(subject) {
				for c := range width {
					f := c * length / width
					if !si.Contains(f) {
						continue
					}
					bar[c] = glyphs[si.ID()]
					if g, ok := si.Animation().(*leap.GazeInstance); ok && f-si.StartFrame() >= g.BodyLength() {
						bar[c] = coastGlyph
					}
				}
			}
			lines = append(lines, labelStyle.Render(subject)+"|"+barStyle.Render(string(bar))+"|")
		}
		for i, si := range l.Instances() {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("  %c %-12s %-10s [%d, %d]",
				glyph(i), si.Animation().Name(), si.Subject(), si.StartFrame(), si.EndFrame())))
		}
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, lines...))
	}

	footer := mutedStyle.Render(fmt.Sprintf("%d frames (%d original) at %g fps",
		tl.FrameLength(), tl.OriginalFrameLength(), tl.FrameRate()))
	blocks = append(blocks, footer)
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, blocks...))
}

// renderSegments lists a subject's gaze segments.
func renderSegments(e *leap.GazeEditor, subject string) string {
	lines := []string{
		titleStyle.Render("gaze: " + subject),
		headerStyle.Render(fmt.Sprintf("%-4s %-12s %-10s %6s %6s", "ID", "NAME", "TARGET", "START", "END")),
	}
	for _, s := range e.Segments(subject) {
		line := fmt.Sprintf("%-4d %-12s %-10s %6d %6d", s.ID, s.Name, s.Target, s.Start, s.End)
		if s.Filler {
			line = mutedStyle.Render(fmt.Sprintf("%-4d %-12s %-10s %6d %6d", s.ID, "(ahead)", "", s.Start, s.End))
		}
		lines = append(lines, line)
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func renderBakes(list []store.BakeInfo) string {
	if len(list) == 0 {
		return mutedStyle.Render("no bakes")
	}
	lines := []string{headerStyle.Render(fmt.Sprintf("%-36s %-12s %6s %6s  %s", "ID", "NAME", "START", "FRAMES", "CREATED"))}
	for _, b := range list {
		lines = append(lines, fmt.Sprintf("%-36s %-12s %6d %6d  %s",
			b.ID, b.Name, b.StartFrame, b.FrameLength, b.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
