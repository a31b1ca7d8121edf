package launch

import (
	"errors"
	"fmt"
)

var (
	// ErrConfigIncomplete is returned when no launch-ready configuration is
	// available. It routes the user to setup and is never fatal by itself.
	ErrConfigIncomplete = errors.New("configuration incomplete")

	// ErrInvalidTransition is returned when a state transition is not valid.
	ErrInvalidTransition = errors.New("invalid state transition")
)

// ValidationFailure is one reportable reason a candidate configuration was
// rejected. Field names the config key the setup form should point at.
type ValidationFailure struct {
	Field  string
	Reason string
}

func (e ValidationFailure) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
