package network

import (
	"testing"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func newTestMLP(t *testing.T, batch int, init G.InitWFn) NeuralNet {
	t.Helper()

	g := G.NewGraph()
	net, err := NewMLP(3, batch, 2, g, []int{16, 16}, []bool{true, true},
		init, []*Activation{ReLU(), ReLU()})
	if err != nil {
		t.Fatalf("could not create network: %v", err)
	}
	return net
}

func learnableData(t *testing.T, node *G.Node) []float64 {
	t.Helper()

	data, ok := node.Value().(*tensor.Dense)
	if !ok {
		t.Fatalf("learnable %v holds no dense value", node.Name())
	}
	return data.Data().([]float64)
}

func TestNewMLPValidation(t *testing.T) {
	g := G.NewGraph()

	_, err := NewMLP(3, 1, 2, g, []int{16, 16}, []bool{true},
		G.Zeroes(), []*Activation{ReLU(), ReLU()})
	if err == nil {
		t.Error("mismatched bias count was not rejected")
	}

	_, err = NewMLP(3, 1, 2, g, []int{16}, []bool{true},
		G.Zeroes(), []*Activation{ReLU(), ReLU()})
	if err == nil {
		t.Error("mismatched activation count was not rejected")
	}

	_, err = NewMLP(3, 0, 2, g, nil, nil, G.Zeroes(), nil)
	if err == nil {
		t.Error("non-positive batch size was not rejected")
	}
}

func TestMLPShape(t *testing.T) {
	net := newTestMLP(t, 4, G.GlorotU(1.0))

	if net.BatchSize() != 4 {
		t.Errorf("batch size = %d, expected 4", net.BatchSize())
	}
	if net.Features() != 3 {
		t.Errorf("features = %d, expected 3", net.Features())
	}
	if net.Outputs() != 2 {
		t.Errorf("outputs = %d, expected 2", net.Outputs())
	}

	// Two hidden layers plus the automatic output layer, each with a
	// weight matrix; all three layers carry a bias.
	if len(net.Learnables()) != 6 {
		t.Errorf("learnables = %d, expected 6", len(net.Learnables()))
	}

	shape := net.Prediction().Shape()
	if shape[0] != 4 || shape[1] != 2 {
		t.Errorf("prediction shape = %v, expected (4, 2)", shape)
	}
}

func TestCloneWithBatchPreservesWeights(t *testing.T) {
	net := newTestMLP(t, 1, G.GlorotU(1.0))

	clone, err := net.CloneWithBatch(32)
	if err != nil {
		t.Fatalf("could not clone network: %v", err)
	}
	if clone.BatchSize() != 32 {
		t.Errorf("clone batch size = %d, expected 32", clone.BatchSize())
	}
	if clone.Graph() == net.Graph() {
		t.Error("clone shares its graph with the original")
	}

	source := net.Learnables()
	cloned := clone.Learnables()
	if len(source) != len(cloned) {
		t.Fatalf("clone has %d learnables, original has %d", len(cloned),
			len(source))
	}
	for i := range source {
		want := learnableData(t, source[i])
		got := learnableData(t, cloned[i])
		if len(want) != len(got) {
			t.Fatalf("learnable %d sizes differ: %d != %d", i, len(got),
				len(want))
		}
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("learnable %d differs at %d: %v != %v", i, j,
					got[j], want[j])
			}
		}
	}
}

func TestSetCopiesWeights(t *testing.T) {
	dest := newTestMLP(t, 1, G.Zeroes())
	source := newTestMLP(t, 1, G.Ones())

	if err := dest.Set(source); err != nil {
		t.Fatalf("could not set weights: %v", err)
	}

	destNodes := dest.Learnables()
	sourceNodes := source.Learnables()
	for i := range destNodes {
		want := learnableData(t, sourceNodes[i])
		got := learnableData(t, destNodes[i])
		for j := range want {
			if got[j] != want[j] {
				t.Fatalf("learnable %d differs at %d after Set: %v != %v",
					i, j, got[j], want[j])
			}
		}
	}
}

func TestSetInputLengthChecked(t *testing.T) {
	net := newTestMLP(t, 2, G.Zeroes())

	if err := net.SetInput([]float64{1, 2, 3}); err == nil {
		t.Error("short input was not rejected")
	}
	if err := net.SetInput([]float64{1, 2, 3, 4, 5, 6}); err != nil {
		t.Errorf("valid input was rejected: %v", err)
	}
}
