// Package network implements the value function approximators used by
// nonlinear agents. Networks are built on Gorgonia computational
// graphs and predict one action value per action given a batch of
// state observations.
package network

import (
	G "gorgonia.org/gorgonia"
)

// NeuralNet is a feedforward action-value network. A NeuralNet always
// owns its input node; callers feed observations with SetInput and
// read predictions from Output after running a VM over Graph.
type NeuralNet interface {
	// Graph returns the computational graph the network is built on
	Graph() *G.ExprGraph

	// Clone returns a copy of the network on a fresh graph with the
	// same architecture, weights, and batch size
	Clone() (NeuralNet, error)

	// CloneWithBatch clones the network but changes the batch size of
	// its input node
	CloneWithBatch(int) (NeuralNet, error)

	// BatchSize returns the number of observations the network
	// processes per forward pass
	BatchSize() int

	// Features returns the length of a single observation vector
	Features() int

	// Outputs returns the number of action values predicted
	Outputs() int

	// SetInput sets the value of the input node. The argument must
	// hold BatchSize() * Features() values in row-major order.
	SetInput([]float64) error

	// Set overwrites the network's weights with those of another
	// network of identical architecture
	Set(NeuralNet) error

	// Learnables returns the nodes holding learnable weights
	Learnables() G.Nodes

	// Model returns the learnable nodes with their gradients, in the
	// form a Gorgonia solver steps over
	Model() []G.ValueGrad

	// Output returns the value of the prediction node after the last
	// VM run
	Output() G.Value

	// Prediction returns the graph node holding the network's
	// predictions
	Prediction() *G.Node
}
