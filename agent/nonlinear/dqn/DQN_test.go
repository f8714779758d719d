package dqn

import (
	"testing"

	"gonum.org/v1/gonum/mat"
	"gorgonia.org/tensor"
	"sfneuman.com/blackjack/agent"
	"sfneuman.com/blackjack/environment/blackjack"
	"sfneuman.com/blackjack/expreplay"
	"sfneuman.com/blackjack/initwfn"
	"sfneuman.com/blackjack/network"
	"sfneuman.com/blackjack/solver"
	ts "sfneuman.com/blackjack/timestep"
)

func expReplayConfig(minCap, maxCap, batch int) expreplay.Config {
	return expreplay.Config{
		MinCapacity: minCap,
		MaxCapacity: maxCap,
		BatchSize:   batch,
	}
}

func newTestConfig(t *testing.T) Config {
	t.Helper()

	adam, err := solver.NewDefaultAdam(0.001, 4)
	if err != nil {
		t.Fatalf("could not create solver: %v", err)
	}
	glorot, err := initwfn.NewGlorotU(1.0)
	if err != nil {
		t.Fatalf("could not create weight initializer: %v", err)
	}

	return Config{
		PolicyLayers: []int{16, 16},
		Biases:       []bool{true, true},
		Activations:  []*network.Activation{network.ReLU(), network.ReLU()},
		Solver:       adam,
		InitWFn:      glorot,
		Epsilon:      agent.Schedule{Init: 0.1, Floor: 0.01, Decay: 0.99},
		ExpReplay:    expReplayConfig(4, 64, 4),

		TargetSyncInterval: 8,
	}
}

func newTestAgent(t *testing.T, config Config) *DQN {
	t.Helper()

	env, _ := blackjack.New(false, false, 1.0, 3)
	d, err := New(env, config, 91)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	return d
}

// fillReplay runs scripted two-step episodes through the agent,
// storing two transitions per episode
func fillReplay(t *testing.T, d *DQN, episodes int) {
	t.Helper()

	hit := mat.NewVecDense(1, []float64{blackjack.Hit})
	for i := 0; i < episodes; i++ {
		first := ts.New(ts.First, 0, 1, mat.NewVecDense(3,
			[]float64{12, 4, 0}), 0)
		if err := d.ObserveFirst(first); err != nil {
			t.Fatalf("ObserveFirst failed: %v", err)
		}

		mid := ts.New(ts.Mid, 0, 1, mat.NewVecDense(3,
			[]float64{15, 4, 0}), 1)
		if err := d.Observe(hit, mid); err != nil {
			t.Fatalf("Observe failed: %v", err)
		}

		last := ts.New(ts.Last, -1, 0, mat.NewVecDense(3,
			[]float64{25, 4, 0}), 2)
		if err := d.Observe(hit, last); err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
		d.EndEpisode()
	}
}

func TestConfigValidation(t *testing.T) {
	env, _ := blackjack.New(false, false, 1.0, 3)

	valid := newTestConfig(t)
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	mismatchedBiases := valid
	mismatchedBiases.Biases = []bool{true}
	noSolver := valid
	noSolver.Solver = nil
	noInit := valid
	noInit.InitWFn = nil
	badSync := valid
	badSync.TargetSyncInterval = 0
	badEpsilon := valid
	badEpsilon.Epsilon = agent.Schedule{Init: 2, Decay: 1}
	badBatch := valid
	badBatch.ExpReplay = expReplayConfig(4, 64, 0)

	for i, config := range []Config{mismatchedBiases, noSolver, noInit,
		badSync, badEpsilon, badBatch} {
		if _, err := New(env, config, 1); err == nil {
			t.Errorf("config %d should have been rejected", i)
		}
	}
}

// An update before the replay buffer holds MinCapacity transitions
// must silently do nothing.
func TestStepBeforeSufficientExperienceIsNoOp(t *testing.T) {
	config := newTestConfig(t)
	config.ExpReplay = expReplayConfig(8, 64, 4)
	d := newTestAgent(t, config)

	fillReplay(t, d, 2) // 4 transitions, below the minimum of 8

	if err := d.Step(); err != nil {
		t.Fatalf("Step with insufficient experience errored: %v", err)
	}
	if d.GradientSteps() != 0 {
		t.Errorf("Step with insufficient experience took %d gradient steps",
			d.GradientSteps())
	}
}

// Once enough experience exists, Step must take gradient steps and
// keep the action selection network in sync with the learned weights.
func TestStepLearnsAndSyncsPolicyNet(t *testing.T) {
	config := newTestConfig(t)
	config.ExpReplay = expReplayConfig(4, 64, 4)
	d := newTestAgent(t, config)

	fillReplay(t, d, 4)

	for i := 0; i < 3; i++ {
		if err := d.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
	if d.GradientSteps() != 3 {
		t.Fatalf("took %d gradient steps, expected 3", d.GradientSteps())
	}

	trained := d.trainNet.Learnables()
	policy := d.policyNet.Learnables()
	for i := range trained {
		want := trained[i].Value().(*tensor.Dense).Data().([]float64)
		got := policy[i].Value().(*tensor.Dense).Data().([]float64)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("policy net learnable %d differs from learned "+
					"weights at %d", i, j)
			}
		}
	}
}

// The target network must only change on the sync schedule
func TestTargetNetHardSync(t *testing.T) {
	config := newTestConfig(t)
	config.ExpReplay = expReplayConfig(4, 64, 4)
	config.TargetSyncInterval = 4
	d := newTestAgent(t, config)

	fillReplay(t, d, 4)

	snapshot := make([][]float64, 0)
	for _, node := range d.targetNet.Learnables() {
		data := node.Value().(*tensor.Dense).Data().([]float64)
		snapshot = append(snapshot, append([]float64{}, data...))
	}

	// Three gradient steps: before the interval, the target network
	// must be untouched
	for i := 0; i < 3; i++ {
		if err := d.Step(); err != nil {
			t.Fatalf("Step %d failed: %v", i, err)
		}
	}
	for i, node := range d.targetNet.Learnables() {
		data := node.Value().(*tensor.Dense).Data().([]float64)
		for j := range data {
			if data[j] != snapshot[i][j] {
				t.Fatalf("target net changed before the sync interval")
			}
		}
	}

	// The fourth step crosses the interval and must copy the learned
	// weights
	if err := d.Step(); err != nil {
		t.Fatalf("Step failed: %v", err)
	}
	trained := d.trainNet.Learnables()
	target := d.targetNet.Learnables()
	for i := range trained {
		want := trained[i].Value().(*tensor.Dense).Data().([]float64)
		got := target[i].Value().(*tensor.Dense).Data().([]float64)
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("target net learnable %d differs from learned "+
					"weights after sync", i)
			}
		}
	}
}

// Every Observe must store the transition the observed timestep
// completes. In particular the transition ending at a terminal
// timestep carries the hand's reward, so a one-step episode must
// leave exactly one transition behind.
func TestStoresTransitionEveryStep(t *testing.T) {
	config := newTestConfig(t)
	config.ExpReplay = expReplayConfig(1, 8, 1)
	d := newTestAgent(t, config)

	stick := mat.NewVecDense(1, []float64{blackjack.Stick})
	first := ts.New(ts.First, 0, 1, mat.NewVecDense(3,
		[]float64{20, 4, 0}), 0)
	if err := d.ObserveFirst(first); err != nil {
		t.Fatalf("ObserveFirst failed: %v", err)
	}
	last := ts.New(ts.Last, 1, 0, mat.NewVecDense(3,
		[]float64{20, 4, 0}), 1)
	if err := d.Observe(stick, last); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	d.EndEpisode()

	if n := d.replay.Capacity(); n != 1 {
		t.Fatalf("one-step episode stored %d transitions, expected 1", n)
	}
	_, _, rewards, discounts, _, err := d.replay.Sample()
	if err != nil {
		t.Fatalf("could not sample replay buffer: %v", err)
	}
	if rewards[0] != 1.0 {
		t.Errorf("stored terminal reward = %v, expected 1", rewards[0])
	}
	if discounts[0] != 0.0 {
		t.Errorf("stored terminal discount = %v, expected 0", discounts[0])
	}

	// A longer episode stores one transition per Observe
	if err := d.ObserveFirst(ts.New(ts.First, 0, 1, mat.NewVecDense(3,
		[]float64{12, 4, 0}), 0)); err != nil {
		t.Fatalf("ObserveFirst failed: %v", err)
	}
	hit := mat.NewVecDense(1, []float64{blackjack.Hit})
	if err := d.Observe(hit, ts.New(ts.Mid, 0, 1, mat.NewVecDense(3,
		[]float64{15, 4, 0}), 1)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if err := d.Observe(hit, ts.New(ts.Last, -1, 0, mat.NewVecDense(3,
		[]float64{25, 4, 0}), 2)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	d.EndEpisode()

	if n := d.replay.Capacity(); n != 3 {
		t.Errorf("two episodes stored %d transitions, expected 3", n)
	}
}

// Stored rewards must be clipped into [-RewardClip, RewardClip]
func TestRewardClip(t *testing.T) {
	config := newTestConfig(t)
	config.ExpReplay = expReplayConfig(1, 4, 1)
	config.RewardClip = 1.0
	d := newTestAgent(t, config)

	// A one-step natural hand: the 1.5 payout arrives on the terminal
	// timestep and is the only stored reward
	stick := mat.NewVecDense(1, []float64{blackjack.Stick})
	first := ts.New(ts.First, 0, 1, mat.NewVecDense(3,
		[]float64{21, 4, 1}), 0)
	if err := d.ObserveFirst(first); err != nil {
		t.Fatalf("ObserveFirst failed: %v", err)
	}
	last := ts.New(ts.Last, 1.5, 0, mat.NewVecDense(3,
		[]float64{21, 4, 1}), 1)
	if err := d.Observe(stick, last); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}

	_, _, rewards, _, _, err := d.replay.Sample()
	if err != nil {
		t.Fatalf("could not sample replay buffer: %v", err)
	}
	if rewards[0] != 1.0 {
		t.Errorf("stored reward = %v, expected the clipped value 1", rewards[0])
	}
}

// In evaluation mode the agent must not store experience or update
func TestEvalIsFrozen(t *testing.T) {
	config := newTestConfig(t)
	config.ExpReplay = expReplayConfig(1, 64, 1)
	d := newTestAgent(t, config)

	d.Eval()
	if !d.IsEval() {
		t.Fatal("agent not in evaluation mode after Eval()")
	}

	fillReplay(t, d, 3)
	if d.replay.Capacity() != 0 {
		t.Errorf("evaluation mode stored %d transitions",
			d.replay.Capacity())
	}
	if err := d.Step(); err != nil {
		t.Fatalf("Step in evaluation mode errored: %v", err)
	}
	if d.GradientSteps() != 0 {
		t.Errorf("evaluation mode took %d gradient steps", d.GradientSteps())
	}

	// Greedy selection must work without training
	action := d.SelectAction(ts.New(ts.First, 0, 1, mat.NewVecDense(3,
		[]float64{12, 4, 0}), 0))
	if a := int(action.AtVec(0)); a != blackjack.Stick && a != blackjack.Hit {
		t.Errorf("selected illegal action %d", a)
	}
}

func TestDecayEpsilon(t *testing.T) {
	d := newTestAgent(t, newTestConfig(t))

	if d.Epsilon() != 0.1 {
		t.Fatalf("initial ε = %v, expected 0.1", d.Epsilon())
	}
	for i := 0; i < 1000; i++ {
		d.DecayEpsilon()
	}
	if d.Epsilon() != 0.01 {
		t.Errorf("ε did not settle at its floor: got %v", d.Epsilon())
	}
}
