// Trains three agents on blackjack and compares their frozen greedy
// policies: tabular first-visit Monte Carlo control, SARSA(λ) with
// tile-coded linear function approximation, and DQN.
package main

import (
	"fmt"
	"log"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/blackjack/agent"
	"sfneuman.com/blackjack/agent/linear/sarsalambda"
	"sfneuman.com/blackjack/agent/nonlinear/dqn"
	"sfneuman.com/blackjack/agent/tabular/montecarlo"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/environment/blackjack"
	"sfneuman.com/blackjack/experiment"
	"sfneuman.com/blackjack/experiment/tracker"
	"sfneuman.com/blackjack/expreplay"
	"sfneuman.com/blackjack/initwfn"
	"sfneuman.com/blackjack/network"
	"sfneuman.com/blackjack/solver"
	"sfneuman.com/blackjack/tilecoder"
)

const (
	envSeed   uint64 = 192382
	agentSeed uint64 = 830182

	evalEpisodes = 10000
)

func newEnv(seed uint64) env.Environment {
	e, _ := blackjack.New(false, true, 1.0, seed)
	return e
}

func newMonteCarlo(e env.Environment) (agent.Agent, error) {
	config := montecarlo.Config{
		Gamma: 1.0,
		Epsilon: agent.Schedule{
			Init:  0.1,
			Floor: 0.01,
			Decay: 0.99999,
		},
		ExploringStarts: true,
	}
	return montecarlo.New(e, config, agentSeed)
}

func newSarsaLambda(e env.Environment) (agent.Agent, error) {
	minDims := mat.NewVecDense(3, []float64{4, 1, 0})
	maxDims := mat.NewVecDense(3, []float64{32, 11, 2})
	coder, err := tilecoder.New(8, minDims, maxDims, []int{14, 5, 2},
		agentSeed)
	if err != nil {
		return nil, err
	}

	config := sarsalambda.Config{
		LearningRate: 0.01,
		Gamma:        1.0,
		Lambda:       0.8,
		Epsilon: agent.Schedule{
			Init:  0.1,
			Floor: 0.01,
			Decay: 0.99999,
		},
	}
	return sarsalambda.New(e, config, coder, agentSeed)
}

func newDQN(e env.Environment) (agent.Agent, error) {
	adam, err := solver.NewDefaultAdam(0.0005, 32)
	if err != nil {
		return nil, err
	}
	glorot, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		return nil, err
	}

	config := dqn.Config{
		PolicyLayers: []int{64, 64},
		Biases:       []bool{true, true},
		Activations:  []*network.Activation{network.ReLU(), network.ReLU()},
		Solver:       adam,
		InitWFn:      glorot,
		Epsilon: agent.Schedule{
			Init:  0.5,
			Floor: 0.05,
			Decay: 0.9999,
		},
		ExpReplay: expreplay.Config{
			MinCapacity: 1000,
			MaxCapacity: 50000,
			BatchSize:   32,
		},
		TargetSyncInterval: 500,
		DoubleDQN:          false,
		RewardClip:         0,
	}
	return dqn.New(e, config, agentSeed)
}

type contender struct {
	name     string
	episodes int
	build    func(env.Environment) (agent.Agent, error)
}

func main() {
	contenders := []contender{
		{"Monte Carlo ES", 500000, newMonteCarlo},
		{"SARSA(lambda)", 500000, newSarsaLambda},
		{"DQN", 100000, newDQN},
	}

	summaries := make([]experiment.Summary, len(contenders))
	for i, c := range contenders {
		// Each agent trains against its own environment stream but is
		// evaluated on an identically seeded one
		trainEnv := newEnv(envSeed + uint64(i))

		a, err := c.build(trainEnv)
		if err != nil {
			log.Fatalf("could not create %v agent: %v", c.name, err)
		}

		returns := tracker.NewReturn(fmt.Sprintf("returns_%d.bin", i))
		exp := experiment.NewEpisodic(trainEnv, a, c.episodes, returns)

		fmt.Printf("training %v for %v episodes...\n", c.name, c.episodes)
		if err := exp.Run(); err != nil {
			log.Fatalf("%v training failed: %v", c.name, err)
		}
		exp.Save()

		summary, err := experiment.Evaluate(newEnv(envSeed+100), a,
			evalEpisodes)
		if err != nil {
			log.Fatalf("%v evaluation failed: %v", c.name, err)
		}
		summaries[i] = summary
	}

	fmt.Printf("\n%-16v %10v %12v %8v %8v %8v %8v\n", "agent", "mean",
		"95% CI", "win", "loss", "push", "bust")
	for i, c := range contenders {
		s := summaries[i]
		fmt.Printf("%-16v %10.4f %12.4f %8.3f %8.3f %8.3f %8.3f\n",
			c.name, s.MeanReturn, s.Confidence95, s.WinRate, s.LossRate,
			s.PushRate, s.BustRate)
	}
}
