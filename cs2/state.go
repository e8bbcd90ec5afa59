package cs2

import "fmt"

// State is the lifecycle position of a Game
type State int

const (
	StateUnattached State = iota
	StateAttaching
	StateAttached
	StateResolving
	StateResolved
	StateFailed
)

var stateNames = [...]string{"unattached", "attaching", "attached", "resolving", "resolved", "failed"}

func (s State) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}
