// Package environment outlines the interfaces and errors needed to
// implement concrete environments
package environment

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/blackjack/spec"
	"sfneuman.com/blackjack/timestep"
)

// Environment implements a simulated environment that an agent can
// interact with through the Reset and Step operations.
//
// Step returns the next timestep, whether that timestep is the last
// in the episode, and an error. The error is non-nil only on a
// protocol violation: stepping before the first Reset or stepping a
// finished episode without an intervening Reset. Protocol violations
// are fatal and are never retried.
type Environment interface {
	Reset() timestep.TimeStep
	Step(action mat.Vector) (timestep.TimeStep, bool, error)
	RewardSpec() spec.Environment
	DiscountSpec() spec.Environment
	ObservationSpec() spec.Environment
	ActionSpec() spec.Environment
}

// ProtocolError describes an illegal use of the Reset/Step protocol
// of an Environment.
type ProtocolError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *ProtocolError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

var errStepBeforeReset = errors.New("environment was never reset")

var errStepAfterDone = errors.New("episode already ended")

// NewStepBeforeReset returns the error produced when Step is called
// on an environment that was never reset
func NewStepBeforeReset(op string) error {
	return &ProtocolError{Op: op, Err: errStepBeforeReset}
}

// NewStepAfterDone returns the error produced when Step is called
// after a terminal timestep without an intervening Reset
func NewStepAfterDone(op string) error {
	return &ProtocolError{Op: op, Err: errStepAfterDone}
}

// IsProtocolViolation returns whether an error reports an illegal use
// of the Reset/Step protocol
func IsProtocolViolation(err error) bool {
	var protocolErr *ProtocolError
	return errors.As(err, &protocolErr)
}

// ValidateAction ensures an action vector describes a single discrete
// action within the environment's action specification
func ValidateAction(action mat.Vector, actionSpec spec.Environment) error {
	if action.Len() != 1 {
		return fmt.Errorf("validateaction: actions must be 1-dimensional "+
			"\n\twant(1) \n\thave(%v)", action.Len())
	}

	a := action.AtVec(0)
	if a < actionSpec.LowerBound.AtVec(0) || a > actionSpec.UpperBound.AtVec(0) {
		return fmt.Errorf("validateaction: action %v out of bounds [%v, %v]",
			a, actionSpec.LowerBound.AtVec(0), actionSpec.UpperBound.AtVec(0))
	}
	return nil
}
