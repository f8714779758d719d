// Package policy implements policies using linear function
// approximation
package policy

import (
	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	"sfneuman.com/blackjack/utils/matutils"
)

// EGreedy implements an ε-greedy policy using linear function
// approximation. Action values are computed as the matrix-vector
// product of the weight matrix (one row of weights per action) with a
// feature vector, so sparse binary features such as tile codings work
// directly.
type EGreedy struct {
	weights *mat.Dense
	epsilon float64
	seed    rand.Source // Seed for random number generation
}

// NewEGreedy constructs a new EGreedy policy, where e = epsilon is
// the probability with which a random action is selected; features
// is the number of features in a given feature vector; actions is the
// number of actions available. The returned policy owns its weight
// matrix; learners update the policy by mutating the matrix returned
// from Weights().
func NewEGreedy(e float64, features, actions int, seed uint64) *EGreedy {
	source := rand.NewSource(seed)
	weights := mat.NewDense(actions, features, nil)

	return &EGreedy{weights, e, source}
}

// NewGreedy creates a new greedy policy over linear action values
func NewGreedy(features, actions int, seed uint64) *EGreedy {
	return NewEGreedy(0.0, features, actions, seed)
}

// Weights returns the weight matrix of the EGreedy policy. Rows index
// actions and columns index features.
func (p *EGreedy) Weights() *mat.Dense {
	return p.weights
}

// ActionValues returns the value estimate of each action given the
// feature vector obs
func (p *EGreedy) ActionValues(obs mat.Vector) *mat.VecDense {
	numActions, _ := p.weights.Dims()
	actionValues := mat.NewVecDense(numActions, nil)
	actionValues.MulVec(p.weights, obs)
	return actionValues
}

// SelectAction selects an action from the ε-greedy policy given the
// feature vector obs
func (p *EGreedy) SelectAction(obs mat.Vector) int {
	actionValues := p.ActionValues(obs)
	numActions := actionValues.Len()

	// Find the greedy action
	greedyAction := matutils.MaxVec(actionValues)
	if p.epsilon == 0.0 {
		return greedyAction
	}

	// Calculate the ε probability of choosing any action at random
	prob := p.epsilon / float64(numActions)
	actionProbabilities := make([]float64, numActions)
	for i := 0; i < numActions; i++ {
		actionProbabilities[i] = prob
	}

	// Adjust the probability of choosing the greedy action
	actionProbabilities[greedyAction] += 1.0 - p.epsilon

	// Sample an action from the categorical distribution over actions
	dist := distuv.NewCategorical(actionProbabilities, p.seed)
	return int(dist.Rand())
}

// GreedyAction returns the greedy action given the feature vector obs
func (p *EGreedy) GreedyAction(obs mat.Vector) int {
	return matutils.MaxVec(p.ActionValues(obs))
}

// Epsilon returns the policy's current exploration rate
func (p *EGreedy) Epsilon() float64 {
	return p.epsilon
}

// SetEpsilon sets the policy's exploration rate
func (p *EGreedy) SetEpsilon(e float64) {
	p.epsilon = e
}
