// Package agent defines an agent interface
package agent

import (
	"gonum.org/v1/gonum/mat"
	"sfneuman.com/blackjack/timestep"
)

// Agent determines the implementation details of an agent or
// algorithm.
//
// An Agent is composed of a Learner, which learns weights, and a
// Policy which chooses actions in each state. The Policy chooses
// which actions are taken, and the Learner uses these actions to
// update the Policy. The three control algorithms in this repository
// are a closed set of Agent implementations; the training and
// evaluation loops are written once against this interface.
type Agent interface {
	Learner
	Policy
}

// Learner implements a learning algorithm that defines how weights
// are updated.
type Learner interface {
	// Step performs a single update to the learner. Recoverable
	// conditions (an update requested before enough experience
	// exists) are silent no-ops; a non-nil error means the run is
	// corrupted and should be aborted.
	Step() error

	// Observe records that an action lead to some timestep
	Observe(action mat.Vector, nextObs timestep.TimeStep) error

	// ObserveFirst records the first timestep in an episode
	ObserveFirst(timestep.TimeStep) error

	// EndEpisode performs cleanup at the end of an episode
	EndEpisode()
}

// Policy represents a policy that an agent can have.
//
// Policies determine how agents select actions. In evaluation mode a
// Policy must select greedy actions only and the Learner's update
// operations must leave all parameters untouched.
type Policy interface {
	SelectAction(t timestep.TimeStep) *mat.VecDense
	Eval()        // Set policy to evaluation mode
	Train()       // Set policy to training mode
	IsEval() bool // Indicates if in evaluation mode
}

// EpsilonDecayer is an Agent whose exploration is annealed across
// episodes. The training loop calls DecayEpsilon once at the end of
// every training episode.
type EpsilonDecayer interface {
	DecayEpsilon()
}
