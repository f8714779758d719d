package policy

import (
	"testing"

	"gonum.org/v1/gonum/mat"
)

// features returns a sparse binary feature vector with the argument
// indices set to 1
func features(length int, active ...int) *mat.VecDense {
	v := mat.NewVecDense(length, nil)
	for _, i := range active {
		v.SetVec(i, 1.0)
	}
	return v
}

func TestActionValuesAreLinear(t *testing.T) {
	p := NewEGreedy(0.1, 4, 2, 7)
	p.Weights().Set(0, 1, 2.0)
	p.Weights().Set(1, 1, -1.0)
	p.Weights().Set(1, 3, 0.5)

	values := p.ActionValues(features(4, 1, 3))
	if got := values.AtVec(0); got != 2.0 {
		t.Errorf("action 0 value = %v, expected 2", got)
	}
	if got := values.AtVec(1); got != -0.5 {
		t.Errorf("action 1 value = %v, expected -0.5", got)
	}
}

func TestGreedyPolicyIsDeterministic(t *testing.T) {
	p := NewGreedy(4, 2, 7)
	p.Weights().Set(1, 2, 1.0)

	obs := features(4, 2)
	for i := 0; i < 100; i++ {
		if a := p.SelectAction(obs); a != 1 {
			t.Fatalf("greedy policy selected non-greedy action %v", a)
		}
	}
}

func TestEGreedyExplores(t *testing.T) {
	p := NewEGreedy(0.5, 4, 2, 7)
	p.Weights().Set(1, 2, 1.0)

	obs := features(4, 2)
	sawGreedy, sawOther := false, false
	for i := 0; i < 1000; i++ {
		if p.SelectAction(obs) == 1 {
			sawGreedy = true
		} else {
			sawOther = true
		}
	}
	if !sawGreedy || !sawOther {
		t.Errorf("ε = 0.5 policy was not stochastic: greedy=%v other=%v",
			sawGreedy, sawOther)
	}
}

func TestSetEpsilon(t *testing.T) {
	p := NewEGreedy(0.5, 4, 2, 7)
	if p.Epsilon() != 0.5 {
		t.Fatalf("ε = %v, expected 0.5", p.Epsilon())
	}
	p.SetEpsilon(0.0)
	if p.Epsilon() != 0.0 {
		t.Errorf("ε = %v after SetEpsilon(0), expected 0", p.Epsilon())
	}

	// With ε = 0 the policy must be purely greedy
	p.Weights().Set(0, 1, 3.0)
	obs := features(4, 1)
	for i := 0; i < 100; i++ {
		if a := p.SelectAction(obs); a != 0 {
			t.Fatalf("ε = 0 policy selected non-greedy action %v", a)
		}
	}
}
