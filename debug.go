package leap

import "fmt"

// debugCheckSchedule panics with a descriptive message when a layer's
// instances are out of start order or the ID index disagrees with the
// layers. Only called when the timeline is in debug mode.
func debugCheckSchedule(t *Timeline) {
	seen := 0
	for _, l := range t.layers {
		for i, si := range l.instances {
			if si.layer != l {
				panic(fmt.Sprintf("leap debug: instance %d on layer %q claims layer %q", si.id, l.name, si.layer.name))
			}
			if t.byID[si.id] != si {
				panic(fmt.Sprintf("leap debug: instance %d on layer %q is not indexed", si.id, l.name))
			}
			if i > 0 {
				prev := l.instances[i-1]
				if prev.start > si.start || (prev.start == si.start && prev.id > si.id) {
					panic(fmt.Sprintf("leap debug: layer %q out of order at %d: %d@%d before %d@%d",
						l.name, i, prev.id, prev.start, si.id, si.start))
				}
			}
			if l.warps[si.Subject()] == nil {
				panic(fmt.Sprintf("leap debug: layer %q has no timewarps for scheduled subject %q", l.name, si.Subject()))
			}
			seen++
		}
	}
	if seen != len(t.byID) {
		panic(fmt.Sprintf("leap debug: %d instances indexed, %d on layers", len(t.byID), seen))
	}
}
