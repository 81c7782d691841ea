package lifecycle

// State is a step of the coordinator's lifecycle.
type State int

const (
	StateCreated State = iota
	StateActivating
	StateReady
	StateTaskRunning
	StateDeactivating
	StateStopped
	StateFailed
	StateReleased
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateCreated:
		return "Created"
	case StateActivating:
		return "Activating"
	case StateReady:
		return "Ready"
	case StateTaskRunning:
		return "TaskRunning"
	case StateDeactivating:
		return "Deactivating"
	case StateStopped:
		return "Stopped"
	case StateFailed:
		return "Failed"
	case StateReleased:
		return "Released"
	default:
		return "Unknown"
	}
}

// transitions lists the legal successor states.
var transitions = map[State][]State{
	StateCreated:      {StateActivating},
	StateActivating:   {StateReady, StateFailed},
	StateReady:        {StateTaskRunning},
	StateTaskRunning:  {StateDeactivating},
	StateDeactivating: {StateStopped},
	StateStopped:      {StateReleased},
	StateFailed:       {StateReleased},
}

// CanTransition reports whether moving from s to next is legal.
func (s State) CanTransition(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the pool has been asked to stop from this state.
func (s State) Terminal() bool {
	return s == StateStopped || s == StateFailed
}
