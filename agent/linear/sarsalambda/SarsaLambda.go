// Package sarsalambda implements the SARSA(λ) algorithm with linear
// function approximation over tile-coded features
package sarsalambda

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/blackjack/agent"
	"sfneuman.com/blackjack/agent/linear/policy"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/spec"
	"sfneuman.com/blackjack/tilecoder"
	ts "sfneuman.com/blackjack/timestep"
)

// SarsaLambda implements on-policy SARSA(λ) with accumulating
// eligibility traces and linear function approximation. Raw
// observations are tile coded inside the agent, so environments emit
// their natural state vectors.
//
// The agent and its ε-greedy policy share one weight matrix. To keep
// behaviour and update target on-policy, the next action of each
// update is chosen during Step and replayed by the following
// SelectAction call.
type SarsaLambda struct {
	weights   *mat.Dense // actions × tile features, shared with behaviour
	traces    *mat.Dense
	behaviour *policy.EGreedy
	coder     *tilecoder.TileCoder

	alpha    float64
	gamma    float64
	lambda   float64
	schedule agent.Schedule

	step     ts.TimeStep
	action   int
	nextStep ts.TimeStep

	// Action chosen for the bootstrap of the last update, replayed by
	// SelectAction
	nextAction    int
	hasNextAction bool

	eval bool
}

// New creates a new SarsaLambda agent for the argument environment.
// The coder determines how raw observations are mapped to binary
// features.
func New(e env.Environment, config Config, coder *tilecoder.TileCoder,
	seed uint64) (*SarsaLambda, error) {
	// Ensure environment has discrete, 0-enumerated actions
	if e.ActionSpec().Cardinality != spec.Discrete {
		return nil, fmt.Errorf("sarsalambda: cannot use non-discrete actions")
	}
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("sarsalambda: actions must be 1-dimensional")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("sarsalambda: actions must be enumerated " +
			"starting from 0")
	}
	if coder == nil {
		return nil, fmt.Errorf("sarsalambda: no tile coder given")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	features := coder.VecLength()

	behaviour := policy.NewEGreedy(config.Epsilon.Init, features, numActions,
		seed)

	return &SarsaLambda{
		weights:   behaviour.Weights(),
		traces:    mat.NewDense(numActions, features, nil),
		behaviour: behaviour,
		coder:     coder,
		alpha:     config.LearningRate,
		gamma:     config.Gamma,
		lambda:    config.Lambda,
		schedule:  config.Epsilon,
	}, nil
}

// Weights returns the weight matrix of the agent. Rows index actions
// and columns index tile features.
func (s *SarsaLambda) Weights() *mat.Dense {
	return s.weights
}

// ObserveFirst observes and records the first episodic timestep,
// zeroing the eligibility traces
func (s *SarsaLambda) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first in "+
			"its episode", t.Number)
	}
	s.traces.Zero()
	s.step = ts.TimeStep{}
	s.nextStep = t
	s.hasNextAction = false
	return nil
}

// Observe observes and records any timestep other than the first
// timestep
func (s *SarsaLambda) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods do not support "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}
	s.step = s.nextStep
	s.action = int(action.AtVec(0))
	s.nextStep = nextStep
	return nil
}

// Step updates the weights along the eligibility traces using the TD
// error of the last observed transition
func (s *SarsaLambda) Step() error {
	if s.eval {
		return nil
	}
	// No complete transition exists until Observe has been called
	if s.step.Observation == nil {
		return nil
	}

	state := s.coder.Encode(s.step.Observation)
	q := mat.Dot(s.weights.RowView(s.action), state)

	// Choose the next action now so the bootstrap matches the action
	// the policy will actually take
	var qNext float64
	if !s.nextStep.Last() {
		nextState := s.coder.Encode(s.nextStep.Observation)
		s.nextAction = s.behaviour.SelectAction(nextState)
		s.hasNextAction = true
		qNext = mat.Dot(s.weights.RowView(s.nextAction), nextState)
	}

	delta := s.nextStep.Reward + s.gamma*s.nextStep.Discount*qNext - q

	// Decay all traces, then accumulate on the features of the taken
	// action
	s.traces.Scale(s.gamma*s.lambda, s.traces)
	row := s.traces.RowView(s.action).(*mat.VecDense)
	row.AddVec(row, state)

	// w ← w + αδz
	var update mat.Dense
	update.Scale(s.alpha*delta, s.traces)
	s.weights.Add(s.weights, &update)

	return nil
}

// EndEpisode performs cleanup at the end of an episode
func (s *SarsaLambda) EndEpisode() {}

// SelectAction selects an action according to the agent's ε-greedy
// policy. During training the action chosen by the last update is
// replayed so that behaviour and update target coincide. In evaluation
// mode the action is always greedy.
func (s *SarsaLambda) SelectAction(t ts.TimeStep) *mat.VecDense {
	if s.eval {
		action := s.behaviour.GreedyAction(s.coder.Encode(t.Observation))
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	if s.hasNextAction {
		s.hasNextAction = false
		return mat.NewVecDense(1, []float64{float64(s.nextAction)})
	}

	action := s.behaviour.SelectAction(s.coder.Encode(t.Observation))
	return mat.NewVecDense(1, []float64{float64(action)})
}

// DecayEpsilon advances ε one step along the agent's schedule
func (s *SarsaLambda) DecayEpsilon() {
	s.behaviour.SetEpsilon(s.schedule.Next(s.behaviour.Epsilon()))
}

// Epsilon returns the agent's current exploration rate
func (s *SarsaLambda) Epsilon() float64 {
	return s.behaviour.Epsilon()
}

// Eval sets the agent into evaluation mode
func (s *SarsaLambda) Eval() {
	s.eval = true
	s.hasNextAction = false
}

// Train sets the agent into training mode
func (s *SarsaLambda) Train() {
	s.eval = false
	s.hasNextAction = false
}

// IsEval returns whether the agent is in evaluation mode
func (s *SarsaLambda) IsEval() bool {
	return s.eval
}
