// Package montecarlo implements tabular first-visit Monte Carlo
// control with exploring starts
package montecarlo

import (
	"bytes"
	"encoding/gob"
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/blackjack/agent"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/spec"
	ts "sfneuman.com/blackjack/timestep"
)

// stateKey is a hashable encoding of a discrete state observation
type stateKey [3]int

// keyOf converts an observation vector into a stateKey. Observations
// must be 3-dimensional; malformed observations are a programmer
// error and fail fast.
func keyOf(obs mat.Vector) stateKey {
	if obs.Len() != 3 {
		panic(fmt.Sprintf("keyof: expected 3-dimensional observation, "+
			"got %v", obs.Len()))
	}
	return stateKey{int(obs.AtVec(0)), int(obs.AtVec(1)), int(obs.AtVec(2))}
}

// visit is a single (state, action, reward) triple of a trajectory.
// The reward is the one observed after taking the action.
type visit struct {
	state  stateKey
	action int
	reward float64
}

// MonteCarlo implements tabular first-visit Monte Carlo control with
// exploring starts. The agent generates a full trajectory under its
// ε-greedy policy, then on episode end updates the action-value
// estimate of each (state, action) pair visited for the first time in
// that episode toward the realized return by incremental averaging.
//
// The action-value table grows lazily as states are visited and never
// shrinks. Querying a pair that was never visited yields 0.
type MonteCarlo struct {
	q      map[stateKey][]float64
	visits map[stateKey][]int

	gamma           float64
	epsilon         float64
	schedule        agent.Schedule
	exploringStarts bool

	numActions int
	rng        *rand.Rand

	trajectory []visit
	lastStep   ts.TimeStep
	firstMove  bool
	eval       bool
}

// New creates a new MonteCarlo agent for the argument environment
func New(e env.Environment, config Config, seed uint64) (*MonteCarlo,
	error) {
	// Ensure environment has discrete, 0-enumerated actions
	if e.ActionSpec().Cardinality != spec.Discrete {
		return nil, fmt.Errorf("montecarlo: cannot use non-discrete actions")
	}
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("montecarlo: actions must be 1-dimensional")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("montecarlo: actions must be enumerated " +
			"starting from 0")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1

	return &MonteCarlo{
		q:               make(map[stateKey][]float64),
		visits:          make(map[stateKey][]int),
		gamma:           config.Gamma,
		epsilon:         config.Epsilon.Init,
		schedule:        config.Epsilon,
		exploringStarts: config.ExploringStarts,
		numActions:      numActions,
		rng:             rand.New(rand.NewSource(seed)),
	}, nil
}

// QValue returns the current action-value estimate of taking the
// argument action in the state described by obs. Pairs that were
// never visited have value 0.
func (m *MonteCarlo) QValue(obs mat.Vector, action int) float64 {
	values, ok := m.q[keyOf(obs)]
	if !ok {
		return 0.0
	}
	return values[action]
}

// TableSize returns the number of states in the action-value table
func (m *MonteCarlo) TableSize() int {
	return len(m.q)
}

// ObserveFirst observes and records the first episodic timestep
func (m *MonteCarlo) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first "+
			"in its episode", t.Number)
	}
	m.trajectory = m.trajectory[:0]
	m.lastStep = t
	m.firstMove = true
	return nil
}

// Observe observes and records any timestep other than the first
// timestep, appending the resulting transition to the current
// trajectory
func (m *MonteCarlo) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods do not support "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	if !m.eval {
		m.trajectory = append(m.trajectory, visit{
			state:  keyOf(m.lastStep.Observation),
			action: int(action.AtVec(0)),
			reward: nextStep.Reward,
		})
	}
	m.lastStep = nextStep
	return nil
}

// Step is a no-op: Monte Carlo control updates only at episode ends
func (m *MonteCarlo) Step() error {
	return nil
}

// EndEpisode applies the first-visit update to every (state, action)
// pair in the recorded trajectory
func (m *MonteCarlo) EndEpisode() {
	if m.eval {
		return
	}

	// Index of the first visit of each (state, action) pair
	type pair struct {
		state  stateKey
		action int
	}
	firstVisit := make(map[pair]int, len(m.trajectory))
	for i, v := range m.trajectory {
		p := pair{v.state, v.action}
		if _, seen := firstVisit[p]; !seen {
			firstVisit[p] = i
		}
	}

	// Accumulate returns backwards; update only at first visits
	G := 0.0
	for i := len(m.trajectory) - 1; i >= 0; i-- {
		v := m.trajectory[i]
		G = v.reward + m.gamma*G

		if firstVisit[pair{v.state, v.action}] != i {
			continue
		}

		values, ok := m.q[v.state]
		if !ok {
			values = make([]float64, m.numActions)
			m.q[v.state] = values
			m.visits[v.state] = make([]int, m.numActions)
		}

		m.visits[v.state][v.action]++
		count := float64(m.visits[v.state][v.action])
		values[v.action] += (G - values[v.action]) / count
	}

	m.trajectory = m.trajectory[:0]
}

// SelectAction selects an action according to the agent's ε-greedy
// policy. With exploring starts enabled, the first action of every
// training episode is sampled uniformly at random instead. In
// evaluation mode the action is always greedy.
func (m *MonteCarlo) SelectAction(t ts.TimeStep) *mat.VecDense {
	defer func() { m.firstMove = false }()

	if !m.eval {
		if m.exploringStarts && m.firstMove {
			action := int(m.rng.Int63n(int64(m.numActions)))
			return mat.NewVecDense(1, []float64{float64(action)})
		}
		if m.rng.Float64() < m.epsilon {
			action := int(m.rng.Int63n(int64(m.numActions)))
			return mat.NewVecDense(1, []float64{float64(action)})
		}
	}

	return mat.NewVecDense(1, []float64{float64(m.greedyAction(
		keyOf(t.Observation)))})
}

// greedyAction returns the greedy action in a state, breaking ties by
// the lowest action index
func (m *MonteCarlo) greedyAction(key stateKey) int {
	values, ok := m.q[key]
	if !ok {
		return 0
	}

	greedy := 0
	for a := 1; a < m.numActions; a++ {
		if values[a] > values[greedy] {
			greedy = a
		}
	}
	return greedy
}

// DecayEpsilon advances ε one step along the agent's schedule
func (m *MonteCarlo) DecayEpsilon() {
	m.epsilon = m.schedule.Next(m.epsilon)
}

// Epsilon returns the agent's current exploration rate
func (m *MonteCarlo) Epsilon() float64 {
	return m.epsilon
}

// Eval sets the agent into evaluation mode
func (m *MonteCarlo) Eval() {
	m.eval = true
}

// Train sets the agent into training mode
func (m *MonteCarlo) Train() {
	m.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (m *MonteCarlo) IsEval() bool {
	return m.eval
}

// GobEncode serializes the action-value table and visit counts so a
// trained policy can be checkpointed
func (m *MonteCarlo) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	if err := enc.Encode(m.q); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode table: %v", err)
	}
	if err := enc.Encode(m.visits); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode visits: %v", err)
	}
	return buf.Bytes(), nil
}

// GobDecode restores a checkpointed action-value table
func (m *MonteCarlo) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	if err := dec.Decode(&m.q); err != nil {
		return fmt.Errorf("gobdecode: could not decode table: %v", err)
	}
	if err := dec.Decode(&m.visits); err != nil {
		return fmt.Errorf("gobdecode: could not decode visits: %v", err)
	}
	return nil
}
