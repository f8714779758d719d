package dqn

import (
	"fmt"

	"sfneuman.com/blackjack/agent"
	"sfneuman.com/blackjack/expreplay"
	"sfneuman.com/blackjack/initwfn"
	"sfneuman.com/blackjack/network"
	"sfneuman.com/blackjack/solver"
)

// Config implements a configuration for a DQN agent
type Config struct {
	PolicyLayers []int                 // Hidden layer sizes in neural net
	Biases       []bool                // Whether each hidden layer has a bias
	Activations  []*network.Activation // Activation of each hidden layer
	Solver       *solver.Solver        // Solver for learning weights

	// Initialization algorithm for weights
	InitWFn *initwfn.InitWFn

	Epsilon agent.Schedule // Behaviour policy ε annealing

	// Experience replay parameters
	ExpReplay expreplay.Config

	// TargetSyncInterval is the number of gradient steps between hard
	// copies of the learned weights into the target network
	TargetSyncInterval int

	// DoubleDQN selects the bootstrap action with the online network
	// and evaluates it with the target network
	DoubleDQN bool

	// RewardClip clips stored rewards into [-RewardClip, RewardClip].
	// Values <= 0 disable clipping.
	RewardClip float64
}

// BatchSize returns the batch size of the agent constructed using this
// Config
func (c Config) BatchSize() int {
	return c.ExpReplay.BatchSize
}

// Validate checks a Config to ensure it is a valid configuration of a
// DQN agent
func (c Config) Validate() error {
	if len(c.PolicyLayers) != len(c.Biases) {
		return fmt.Errorf("dqn: invalid number of biases\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Biases))
	}
	if len(c.PolicyLayers) != len(c.Activations) {
		return fmt.Errorf("dqn: invalid number of activations\n\twant(%v)"+
			"\n\thave(%v)", len(c.PolicyLayers), len(c.Activations))
	}
	if c.Solver == nil {
		return fmt.Errorf("dqn: no solver specified")
	}
	if c.InitWFn == nil {
		return fmt.Errorf("dqn: no weight initializer specified")
	}
	if c.TargetSyncInterval < 1 {
		return fmt.Errorf("dqn: target network must be synced at positive "+
			"gradient step intervals \n\twant(>0) \n\thave(%v)",
			c.TargetSyncInterval)
	}
	if c.ExpReplay.BatchSize < 1 {
		return fmt.Errorf("dqn: replay batch size must be positive, got %v",
			c.ExpReplay.BatchSize)
	}
	if err := c.Epsilon.Validate(); err != nil {
		return fmt.Errorf("dqn: %v", err)
	}
	return nil
}
