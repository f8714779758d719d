// Package timestep describes single steps of the agent-environment
// interaction and the transitions between them
package timestep

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// StepType marks a TimeStep's position in its episode: opening step,
// interior step, or terminal step
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (s StepType) String() string {
	switch s {
	case First:
		return "First"
	case Last:
		return "Last"
	default:
		return "Mid"
	}
}

// TimeStep packages together a single timestep in an environment. A
// terminal timestep always has Discount == 0 so that bootstrapped
// update targets vanish at the end of an episode.
type TimeStep struct {
	stepType    StepType
	Reward      float64
	Discount    float64
	Observation mat.Vector
	Number      int
}

// New packages the pieces of one interaction step into a TimeStep
func New(t StepType, r, d float64, o mat.Vector, n int) TimeStep {
	return TimeStep{t, r, d, o, n}
}

// First returns whether the TimeStep opens its episode
func (t *TimeStep) First() bool {
	return t.stepType == First
}

// Mid returns whether the TimeStep is interior to its episode
func (t *TimeStep) Mid() bool {
	return t.stepType == Mid
}

// Last returns whether the TimeStep ends its episode
func (t *TimeStep) Last() bool {
	return t.stepType == Last
}

func (t TimeStep) String() string {
	str := "TimeStep | Type: %v  |  Reward:  %.2f  |  Discount: %.2f  |  " +
		"Step Number:  %v"

	return fmt.Sprintf(str, t.stepType, t.Reward, t.Discount, t.Number)
}
