package exporter

import "fmt"

// State is a step of one export run.
type State int

const (
	StateIdle State = iota
	StateConnected
	StateExecuted
	StateWriting
	StateWritten
	StateFinalizing
	StateDone
	StateFailed
)

var stateNames = [...]string{"idle", "connected", "executed", "writing", "written", "finalizing", "done", "failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool { return s == StateDone || s == StateFailed }

// next lists the forward transitions allowed from each state. Any
// non-terminal state may also move to StateFailed.
var next = map[State]State{
	StateIdle:       StateConnected,
	StateConnected:  StateExecuted,
	StateExecuted:   StateWriting,
	StateWriting:    StateWritten,
	StateWritten:    StateFinalizing,
	StateFinalizing: StateDone,
}

func canTransition(from, to State) bool {
	if from.Terminal() {
		return false
	}
	if to == StateFailed {
		return true
	}
	return next[from] == to
}
