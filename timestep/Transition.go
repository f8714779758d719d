package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single (S, A, R, S', A') transition
// of the agent-environment interaction. The Discount field is the
// discount applied to action values in NextState; it is 0 when
// NextState is terminal.
type Transition struct {
	State      mat.Vector
	Action     mat.Vector
	Reward     float64
	Discount   float64
	NextState  mat.Vector
	NextAction mat.Vector
}

// NewTransition packages two sequential timesteps and their associated
// actions into a Transition
func NewTransition(step TimeStep, action mat.Vector, nextStep TimeStep,
	nextAction mat.Vector) Transition {
	return Transition{
		State:      step.Observation,
		Action:     action,
		Reward:     nextStep.Reward,
		Discount:   nextStep.Discount,
		NextState:  nextStep.Observation,
		NextAction: nextAction,
	}
}

// Terminal returns whether the transition ends an episode
func (t Transition) Terminal() bool {
	return t.Discount == 0.0
}
