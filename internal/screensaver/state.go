package screensaver

// State is the last observed state of the screensaver daemon.
type State int

const (
	StateUnknown State = iota
	StateOff
	StateOn
)

// StateFromRunning maps a query result to a State.
func StateFromRunning(running bool) State {
	if running {
		return StateOn
	}
	return StateOff
}

func (s State) String() string {
	switch s {
	case StateOn:
		return "running"
	case StateOff:
		return "stopped"
	default:
		return "unknown"
	}
}
