// Package dqn implements deep Q-learning with experience replay and a
// hard-synced target network
package dqn

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
	"sfneuman.com/blackjack/agent"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/expreplay"
	"sfneuman.com/blackjack/network"
	"sfneuman.com/blackjack/spec"
	ts "sfneuman.com/blackjack/timestep"
	"sfneuman.com/blackjack/utils/floatutils"
)

// DQN implements deep Q-learning with uniform experience replay. The
// update target for a sampled transition is
//
//	r + γ * max[Q(s', a')]
//
// where Q(s', ·) is predicted by a target network whose weights are
// hard-copied from the learned weights every TargetSyncInterval
// gradient steps. With DoubleDQN enabled, the bootstrap action is
// chosen by the online network and only evaluated by the target
// network.
//
// Update targets are computed outside the computational graph from the
// target network's forward pass and fed into the learning graph, which
// minimizes the mean squared TD error over the sampled batch.
type DQN struct {
	// policyNet selects actions one observation at a time. Its weights
	// track the learned weights after every gradient step.
	policyNet   network.NeuralNet
	policyNetVM G.VM

	// trainNet learns the weights over batches of replayed experience
	trainNet   network.NeuralNet
	trainNetVM G.VM
	solver     G.Solver

	// targetNet provides the action values bootstrapped from in the
	// update target
	targetNet   network.NeuralNet
	targetNetVM G.VM

	// onlineSelNet is a batch copy of the learned weights used to pick
	// the bootstrap action when DoubleDQN is enabled, nil otherwise
	onlineSelNet   network.NeuralNet
	onlineSelNetVM G.VM

	// Fed-in nodes of the learning graph
	selectedActions *G.Node
	targets         *G.Node

	targetSyncInterval int
	gradientSteps      int
	rewardClip         float64

	epsilon  float64
	schedule agent.Schedule
	rng      *rand.Rand

	numActions int
	batchSize  int
	replay     expreplay.ExperienceReplayer

	// step is the last observed timestep. The next call to Observe
	// stores the transition starting at this step.
	step ts.TimeStep

	eval bool
}

// New creates and returns a new DQN agent
func New(e env.Environment, config Config, seed uint64) (*DQN, error) {
	// Ensure environment has discrete, 0-enumerated actions
	if e.ActionSpec().Cardinality != spec.Discrete {
		return nil, fmt.Errorf("dqn: cannot use non-discrete actions")
	}
	if e.ActionSpec().LowerBound.Len() > 1 {
		return nil, fmt.Errorf("dqn: actions must be 1-dimensional")
	}
	if e.ActionSpec().LowerBound.AtVec(0) != 0.0 {
		return nil, fmt.Errorf("dqn: actions must be enumerated starting " +
			"from 0")
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	numActions := int(e.ActionSpec().UpperBound.AtVec(0)) + 1
	numFeatures := e.ObservationSpec().Shape.Len()
	batchSize := config.BatchSize()
	init := config.InitWFn.InitWFn()

	// Behaviour network for selecting single actions
	g := G.NewGraph()
	policyNet, err := network.NewMLP(numFeatures, 1, numActions, g,
		config.PolicyLayers, config.Biases, init, config.Activations)
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create policy network: %v",
			err)
	}
	policyNetVM := G.NewTapeMachine(g)

	// Learning network taking batches of replayed experience
	trainNet, err := policyNet.CloneWithBatch(batchSize)
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create learning network: %v",
			err)
	}
	gTrain := trainNet.Graph()

	// One-hot actions of the sampled transitions, used to pick each
	// transition's predicted action value out of the network output
	selectedActions := G.NewMatrix(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize, numActions),
		G.WithName("selectedActions"),
	)
	predictedValues := G.Must(G.HadamardProd(trainNet.Prediction(),
		selectedActions))
	predictedValues = G.Must(G.Sum(predictedValues, 1))

	// Update targets, computed from the target network's forward pass
	// and fed in before each learning step
	targets := G.NewVector(
		gTrain,
		tensor.Float64,
		G.WithShape(batchSize),
		G.WithName("updateTargets"),
	)

	// Mean squared TD error
	losses := G.Must(G.Sub(targets, predictedValues))
	losses = G.Must(G.Square(losses))
	cost := G.Must(G.Mean(losses))

	if _, err := G.Grad(cost, trainNet.Learnables()...); err != nil {
		return nil, fmt.Errorf("dqn: could not compute gradient: %v", err)
	}
	trainNetVM := G.NewTapeMachine(gTrain,
		G.BindDualValues(trainNet.Learnables()...))

	// Target network providing the bootstrapped action values
	targetNet, err := trainNet.Clone()
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create target network: %v",
			err)
	}
	targetNetVM := G.NewTapeMachine(targetNet.Graph())

	// Online selection network for Double-DQN action selection
	var onlineSelNet network.NeuralNet
	var onlineSelNetVM G.VM
	if config.DoubleDQN {
		onlineSelNet, err = trainNet.Clone()
		if err != nil {
			return nil, fmt.Errorf("dqn: could not create online selection "+
				"network: %v", err)
		}
		onlineSelNetVM = G.NewTapeMachine(onlineSelNet.Graph())
	}

	replay, err := config.ExpReplay.Create(numFeatures, numActions,
		int64(seed))
	if err != nil {
		return nil, fmt.Errorf("dqn: could not create experience replay "+
			"buffer: %v", err)
	}

	return &DQN{
		policyNet:          policyNet,
		policyNetVM:        policyNetVM,
		trainNet:           trainNet,
		trainNetVM:         trainNetVM,
		solver:             config.Solver,
		targetNet:          targetNet,
		targetNetVM:        targetNetVM,
		onlineSelNet:       onlineSelNet,
		onlineSelNetVM:     onlineSelNetVM,
		selectedActions:    selectedActions,
		targets:            targets,
		targetSyncInterval: config.TargetSyncInterval,
		rewardClip:         config.RewardClip,
		epsilon:            config.Epsilon.Init,
		schedule:           config.Epsilon,
		rng:                rand.New(rand.NewSource(seed)),
		numActions:         numActions,
		batchSize:          batchSize,
		replay:             replay,
	}, nil
}

// ObserveFirst observes and records the first episodic timestep
func (d *DQN) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observefirst: timestep %v is not the first in "+
			"its episode", t.Number)
	}
	d.step = t
	return nil
}

// Observe observes and records any timestep other than the first
// timestep, storing the transition that the observed timestep
// completes in the replay buffer. A terminal timestep completes a
// transition like any other, so episode-ending rewards are stored and
// replayed. The update target never bootstraps from a next action, so
// the stored transition carries none.
func (d *DQN) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if action.Len() != 1 {
		return fmt.Errorf("observe: value-based methods do not support "+
			"multi-dimensional actions (action dim = %d)", action.Len())
	}

	if !d.eval {
		oneHot := mat.NewVecDense(d.numActions, nil)
		oneHot.SetVec(int(action.AtVec(0)), 1.0)

		transition := ts.NewTransition(d.step, oneHot, nextStep, nil)
		if d.rewardClip > 0 {
			transition.Reward = floatutils.Clip(transition.Reward,
				-d.rewardClip, d.rewardClip)
		}
		if err := d.replay.Add(transition); err != nil {
			return fmt.Errorf("observe: could not store transition: %v", err)
		}
	}

	d.step = nextStep
	return nil
}

// Step updates the learned weights on a batch of replayed experience.
// An update requested before the replay buffer holds enough experience
// is a silent no-op.
func (d *DQN) Step() error {
	if d.eval {
		return nil
	}

	S, A, R, discounts, NextS, err := d.replay.Sample()
	if expreplay.IsEmptyBuffer(err) || expreplay.IsInsufficientSamples(err) {
		return nil
	} else if err != nil {
		return fmt.Errorf("step: could not sample replay buffer: %v", err)
	}

	targets, err := d.computeTargets(R, discounts, NextS)
	if err != nil {
		return err
	}

	// Feed the batch into the learning graph
	if err := d.trainNet.SetInput(S); err != nil {
		return fmt.Errorf("step: could not set learning input: %v", err)
	}
	actionTensor := tensor.New(
		tensor.WithShape(d.batchSize, d.numActions),
		tensor.WithBacking(A),
	)
	if err := G.Let(d.selectedActions, actionTensor); err != nil {
		return fmt.Errorf("step: could not set selected actions: %v", err)
	}
	targetTensor := tensor.New(
		tensor.WithShape(d.batchSize),
		tensor.WithBacking(targets),
	)
	if err := G.Let(d.targets, targetTensor); err != nil {
		return fmt.Errorf("step: could not set update targets: %v", err)
	}

	// Gradient step
	if err := d.trainNetVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not run learning step: %v", err)
	}
	if err := d.solver.Step(d.trainNet.Model()); err != nil {
		return fmt.Errorf("step: could not step solver: %v", err)
	}
	d.trainNetVM.Reset()
	d.gradientSteps++

	// Propagate the learned weights to the action selection networks
	// and, on schedule, to the target network
	if err := d.policyNet.Set(d.trainNet); err != nil {
		return fmt.Errorf("step: could not sync policy network: %v", err)
	}
	if d.onlineSelNet != nil {
		if err := d.onlineSelNet.Set(d.trainNet); err != nil {
			return fmt.Errorf("step: could not sync online selection "+
				"network: %v", err)
		}
	}
	if d.gradientSteps%d.targetSyncInterval == 0 {
		if err := d.targetNet.Set(d.trainNet); err != nil {
			return fmt.Errorf("step: could not sync target network: %v", err)
		}
	}

	return nil
}

// computeTargets computes the update target of each sampled transition
// from the target network's predictions in the next states
func (d *DQN) computeTargets(R, discounts,
	NextS []float64) ([]float64, error) {
	if err := d.targetNet.SetInput(NextS); err != nil {
		return nil, fmt.Errorf("step: could not set target net input: %v",
			err)
	}
	if err := d.targetNetVM.RunAll(); err != nil {
		return nil, fmt.Errorf("step: could not run target net: %v", err)
	}
	nextValues := d.targetNet.Output().Data().([]float64)
	d.targetNetVM.Reset()

	// With Double-DQN the bootstrap action comes from the online
	// network instead of being the target network's own maximum
	var selValues []float64
	if d.onlineSelNet != nil {
		if err := d.onlineSelNet.SetInput(NextS); err != nil {
			return nil, fmt.Errorf("step: could not set online selection "+
				"input: %v", err)
		}
		if err := d.onlineSelNetVM.RunAll(); err != nil {
			return nil, fmt.Errorf("step: could not run online selection "+
				"net: %v", err)
		}
		selValues = d.onlineSelNet.Output().Data().([]float64)
		d.onlineSelNetVM.Reset()
	} else {
		selValues = nextValues
	}

	if !floatutils.Finite(nextValues...) || !floatutils.Finite(selValues...) {
		return nil, &DqnError{Op: "step", Err: errInstability}
	}

	targets := make([]float64, d.batchSize)
	for i := 0; i < d.batchSize; i++ {
		row := selValues[i*d.numActions : (i+1)*d.numActions]
		bootstrap := nextValues[i*d.numActions+floatutils.ArgMax(row)]
		targets[i] = R[i] + discounts[i]*bootstrap
	}
	if !floatutils.Finite(targets...) {
		return nil, &DqnError{Op: "step", Err: errInstability}
	}

	return targets, nil
}

// SelectAction returns an ε-greedy action with respect to the
// predicted action values of the argument timestep's observation. In
// evaluation mode the action is always greedy.
func (d *DQN) SelectAction(t ts.TimeStep) *mat.VecDense {
	if !d.eval && d.rng.Float64() < d.epsilon {
		action := int(d.rng.Int63n(int64(d.numActions)))
		return mat.NewVecDense(1, []float64{float64(action)})
	}

	obs := make([]float64, t.Observation.Len())
	for i := range obs {
		obs[i] = t.Observation.AtVec(i)
	}
	if err := d.policyNet.SetInput(obs); err != nil {
		panic(fmt.Sprintf("selectaction: could not set policy input: %v",
			err))
	}
	if err := d.policyNetVM.RunAll(); err != nil {
		panic(fmt.Sprintf("selectaction: could not run policy net: %v", err))
	}
	values := d.policyNet.Output().Data().([]float64)
	action := floatutils.ArgMax(values)
	d.policyNetVM.Reset()

	return mat.NewVecDense(1, []float64{float64(action)})
}

// EndEpisode performs cleanup at the end of an episode
func (d *DQN) EndEpisode() {}

// DecayEpsilon advances ε one step along the agent's schedule
func (d *DQN) DecayEpsilon() {
	d.epsilon = d.schedule.Next(d.epsilon)
}

// Epsilon returns the agent's current exploration rate
func (d *DQN) Epsilon() float64 {
	return d.epsilon
}

// GradientSteps returns the number of gradient steps taken so far
func (d *DQN) GradientSteps() int {
	return d.gradientSteps
}

// Eval sets the agent into evaluation mode
func (d *DQN) Eval() {
	d.eval = true
}

// Train sets the agent into training mode
func (d *DQN) Train() {
	d.eval = false
}

// IsEval returns whether the agent is in evaluation mode
func (d *DQN) IsEval() bool {
	return d.eval
}
