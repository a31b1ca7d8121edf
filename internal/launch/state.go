package launch

import "fmt"

// State is the launch lifecycle state for one launcher invocation.
type State string

const (
	StateNeedsSetup    State = "needs_setup"
	StateValidating    State = "validating"
	StateReadyToLaunch State = "ready_to_launch"
	StateLaunched      State = "launched"
	StateFailed        State = "failed"
)

// ValidTransitions defines allowed single-hop state transitions.
var ValidTransitions = map[State][]State{
	StateNeedsSetup: {
		StateValidating, // a candidate configuration was submitted
	},
	StateValidating: {
		StateReadyToLaunch, // every check passed; record persisted
		StateNeedsSetup,    // at least one check failed; re-edit
	},
	StateReadyToLaunch: {
		StateLaunched, // spawn confirmed
		StateFailed,   // spawn failed
	},

	// Terminal for this invocation; a new run starts over.
	StateLaunched: {},
	StateFailed:   {},
}

// CanTransitionTo checks if a transition from the current state to the
// target state is valid.
func (s State) CanTransitionTo(target State) error {
	allowed, ok := ValidTransitions[s]
	if !ok {
		return fmt.Errorf("%w: unknown state: %s", ErrInvalidTransition, s)
	}

	for _, valid := range allowed {
		if valid == target {
			return nil
		}
	}

	return fmt.Errorf("%w: cannot transition from %s to %s", ErrInvalidTransition, s, target)
}

// String returns the string representation of the state.
func (s State) String() string {
	return string(s)
}

// IsTerminal returns true if the state ends the invocation.
func (s State) IsTerminal() bool {
	return s == StateLaunched || s == StateFailed
}
