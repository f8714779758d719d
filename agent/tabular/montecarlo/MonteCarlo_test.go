package montecarlo

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"sfneuman.com/blackjack/agent"
	"sfneuman.com/blackjack/environment/blackjack"
	ts "sfneuman.com/blackjack/timestep"
)

func newTestAgent(t *testing.T, exploringStarts bool) *MonteCarlo {
	t.Helper()

	env, _ := blackjack.New(false, false, 1.0, 1)
	config := Config{
		Gamma:           1.0,
		Epsilon:         agent.Schedule{Init: 0.1, Floor: 0.01, Decay: 0.9},
		ExploringStarts: exploringStarts,
	}

	m, err := New(env, config, 17)
	if err != nil {
		t.Fatalf("could not create agent: %v", err)
	}
	return m
}

func obs(playerSum, dealerCard, ace float64) *mat.VecDense {
	return mat.NewVecDense(3, []float64{playerSum, dealerCard, ace})
}

func step(stepType ts.StepType, reward float64, o *mat.VecDense,
	number int) ts.TimeStep {
	discount := 1.0
	if stepType == ts.Last {
		discount = 0.0
	}
	return ts.New(stepType, reward, discount, o, number)
}

// An untrained agent must answer action-value queries with the default
// value instead of failing.
func TestEmptyTableDefaultsToZero(t *testing.T) {
	m := newTestAgent(t, false)

	if m.TableSize() != 0 {
		t.Fatalf("fresh agent has %d states in its table", m.TableSize())
	}
	for action := 0; action < 2; action++ {
		if got := m.QValue(obs(15, 10, 0), action); got != 0.0 {
			t.Errorf("untrained QValue(action %d) = %v, expected 0", action,
				got)
		}
	}
}

// A first visit moves the estimate to the realized return, and a
// repeated visit of the same pair in one episode updates it only once.
func TestFirstVisitUpdate(t *testing.T) {
	m := newTestAgent(t, false)

	hit := mat.NewVecDense(1, []float64{blackjack.Hit})
	stick := mat.NewVecDense(1, []float64{blackjack.Stick})
	state := obs(12, 5, 0)

	// The same (state, Hit) pair occurs twice. With γ = 1 the return
	// from the first occurrence is 0 + 0 + 1 = 1.
	if err := m.ObserveFirst(step(ts.First, 0, state, 0)); err != nil {
		t.Fatalf("ObserveFirst failed: %v", err)
	}
	if err := m.Observe(hit, step(ts.Mid, 0, state, 1)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if err := m.Observe(hit, step(ts.Mid, 0, obs(18, 5, 0), 2)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if err := m.Observe(stick, step(ts.Last, 1, obs(18, 5, 0), 3)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	m.EndEpisode()

	if got := m.QValue(state, blackjack.Hit); got != 1.0 {
		t.Errorf("QValue after first episode = %v, expected 1 (single "+
			"first-visit update)", got)
	}
	if got := m.QValue(obs(18, 5, 0), blackjack.Stick); got != 1.0 {
		t.Errorf("QValue of final stick = %v, expected 1", got)
	}

	// A second episode through the same pair with return -1 must
	// average the two first visits: (1 + -1) / 2 = 0.
	if err := m.ObserveFirst(step(ts.First, 0, state, 0)); err != nil {
		t.Fatalf("ObserveFirst failed: %v", err)
	}
	if err := m.Observe(hit, step(ts.Last, -1, obs(25, 5, 0), 1)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	m.EndEpisode()

	if got := m.QValue(state, blackjack.Hit); got != 0.0 {
		t.Errorf("QValue after two episodes = %v, expected 0", got)
	}
}

// Discounting must be applied when accumulating the return
func TestDiscountedReturn(t *testing.T) {
	m := newTestAgent(t, false)
	m.gamma = 0.5

	hit := mat.NewVecDense(1, []float64{blackjack.Hit})
	start := obs(10, 3, 0)

	if err := m.ObserveFirst(step(ts.First, 0, start, 0)); err != nil {
		t.Fatalf("ObserveFirst failed: %v", err)
	}
	if err := m.Observe(hit, step(ts.Mid, 0, obs(14, 3, 0), 1)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	if err := m.Observe(hit, step(ts.Last, 1, obs(19, 3, 0), 2)); err != nil {
		t.Fatalf("Observe failed: %v", err)
	}
	m.EndEpisode()

	// Return from the start state is 0 + γ(1) = 0.5
	if got := m.QValue(start, blackjack.Hit); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("discounted QValue = %v, expected 0.5", got)
	}
}

// With exploring starts, only the first action of an episode may be
// non-greedy when ε = 0.
func TestExploringStartsOnlyFirstAction(t *testing.T) {
	m := newTestAgent(t, true)
	m.epsilon = 0.0

	state := obs(13, 7, 0)

	// Make Stick clearly greedy in the test state
	m.q[keyOf(state)] = []float64{1.0, -1.0}
	m.visits[keyOf(state)] = []int{1, 1}

	sawHitFirst := false
	for episode := 0; episode < 100; episode++ {
		if err := m.ObserveFirst(step(ts.First, 0, state, 0)); err != nil {
			t.Fatalf("ObserveFirst failed: %v", err)
		}

		first := m.SelectAction(step(ts.First, 0, state, 0))
		if int(first.AtVec(0)) == blackjack.Hit {
			sawHitFirst = true
		}

		// All later actions must be greedy
		for i := 0; i < 5; i++ {
			a := m.SelectAction(step(ts.Mid, 0, state, i+1))
			if int(a.AtVec(0)) != blackjack.Stick {
				t.Fatalf("non-greedy action %v selected after the first "+
					"move with ε = 0", a.AtVec(0))
			}
		}
	}
	if !sawHitFirst {
		t.Error("exploring starts never sampled the non-greedy first action " +
			"in 100 episodes")
	}
}

// In evaluation mode the agent must act greedily and never update
func TestEvalIsGreedyAndFrozen(t *testing.T) {
	m := newTestAgent(t, true)

	state := obs(20, 10, 0)
	m.q[keyOf(state)] = []float64{2.0, 0.0}
	m.visits[keyOf(state)] = []int{1, 1}

	m.Eval()
	if !m.IsEval() {
		t.Fatal("agent not in evaluation mode after Eval()")
	}

	for i := 0; i < 200; i++ {
		if err := m.ObserveFirst(step(ts.First, 0, state, 0)); err != nil {
			t.Fatalf("ObserveFirst failed: %v", err)
		}
		a := m.SelectAction(step(ts.First, 0, state, 0))
		if int(a.AtVec(0)) != blackjack.Stick {
			t.Fatalf("evaluation mode selected non-greedy action %v",
				a.AtVec(0))
		}
		err := m.Observe(a, step(ts.Last, 1, obs(21, 10, 0), 1))
		if err != nil {
			t.Fatalf("Observe failed: %v", err)
		}
		m.EndEpisode()
	}

	if got := m.QValue(state, blackjack.Stick); got != 2.0 {
		t.Errorf("evaluation episodes changed the table: QValue = %v, "+
			"expected 2", got)
	}

	m.Train()
	if m.IsEval() {
		t.Error("agent still in evaluation mode after Train()")
	}
}

// ε must follow the multiplicative schedule down to its floor
func TestDecayEpsilon(t *testing.T) {
	m := newTestAgent(t, false)

	if m.Epsilon() != 0.1 {
		t.Fatalf("initial ε = %v, expected 0.1", m.Epsilon())
	}
	m.DecayEpsilon()
	if math.Abs(m.Epsilon()-0.09) > 1e-12 {
		t.Errorf("ε after one decay = %v, expected 0.09", m.Epsilon())
	}
	for i := 0; i < 1000; i++ {
		m.DecayEpsilon()
	}
	if m.Epsilon() != 0.01 {
		t.Errorf("ε did not settle at its floor: got %v", m.Epsilon())
	}
}

// A checkpointed table must round-trip through gob
func TestGobRoundTrip(t *testing.T) {
	m := newTestAgent(t, false)

	state := obs(16, 9, 1)
	m.q[keyOf(state)] = []float64{-0.25, 0.75}
	m.visits[keyOf(state)] = []int{4, 8}

	data, err := m.GobEncode()
	if err != nil {
		t.Fatalf("GobEncode failed: %v", err)
	}

	restored := newTestAgent(t, false)
	if err := restored.GobDecode(data); err != nil {
		t.Fatalf("GobDecode failed: %v", err)
	}

	if got := restored.QValue(state, blackjack.Hit); got != 0.75 {
		t.Errorf("restored QValue = %v, expected 0.75", got)
	}
	if restored.TableSize() != 1 {
		t.Errorf("restored table has %d states, expected 1",
			restored.TableSize())
	}
}

// New must reject malformed configurations
func TestInvalidConfig(t *testing.T) {
	env, _ := blackjack.New(false, false, 1.0, 1)

	configs := []Config{
		{Gamma: -0.1, Epsilon: agent.Schedule{Init: 0.1, Decay: 1}},
		{Gamma: 1.5, Epsilon: agent.Schedule{Init: 0.1, Decay: 1}},
		{Gamma: 1.0, Epsilon: agent.Schedule{Init: 1.5, Decay: 1}},
		{Gamma: 1.0, Epsilon: agent.Schedule{Init: 0.1, Floor: 0.5,
			Decay: 1}},
		{Gamma: 1.0, Epsilon: agent.Schedule{Init: 0.1, Decay: 0}},
	}
	for i, config := range configs {
		if _, err := New(env, config, 1); err == nil {
			t.Errorf("config %d should have been rejected: %+v", i, config)
		}
	}
}
