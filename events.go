package leap

// TransitionKind identifies an instance activation edge.
type TransitionKind uint8

const (
	TransitionStart  TransitionKind = iota // instance became active
	TransitionFinish                       // instance stopped being active
)

func (k TransitionKind) String() string {
	if k == TransitionStart {
		return "start"
	}
	return "finish"
}

// TransitionEvent is emitted each time an instance starts or finishes.
type TransitionEvent struct {
	Kind       TransitionKind
	InstanceID int
	Layer      string
	Subject    string
	Name       string
	// Frame is the timeline frame at which the transition was observed.
	Frame int
}

// EventSink is the interface for optional event forwarding. When set on a
// Timeline, every start/finish transition is forwarded.
type EventSink interface {
	EmitTransition(event TransitionEvent)
}
