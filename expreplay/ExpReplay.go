// Package expreplay implements experience replay buffers
package expreplay

import (
	"fmt"
	"math/rand"

	"sfneuman.com/blackjack/timestep"
)

// ExperienceReplayer implements an experience replay buffer
type ExperienceReplayer interface {
	// Add adds a transition to the buffer
	Add(t timestep.Transition) error

	// Sample samples a batch of experience from the buffer and
	// returns the batch of (S, A, R, γ, S') tuples as flat []float64.
	// The discount of a terminal transition is 0, so bootstrapped
	// targets computed from the batch vanish at episode ends.
	Sample() (states, actions, rewards, discounts,
		nextStates []float64, err error)

	// Capacity returns the current number of samples in the buffer
	Capacity() int

	// MaxCapacity returns the maximum allowable samples in the buffer
	MaxCapacity() int

	// MinCapacity returns the number of samples required to be in
	// the buffer before the buffer can be sampled
	MinCapacity() int

	// BatchSize returns the number of samples returned by Sample()
	BatchSize() int
}

// Config describes a specific configuration of an ExperienceReplayer
type Config struct {
	MinCapacity int `json:"min_capacity"`
	MaxCapacity int `json:"max_capacity"`
	BatchSize   int `json:"batch_size"`
}

// Create creates and returns the ExperienceReplayer described by the
// Config
func (c Config) Create(featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	return New(c.MinCapacity, c.MaxCapacity, c.BatchSize, featureSize,
		actionSize, seed)
}

// ringCache implements a concrete ExperienceReplayer. Transitions are
// stored in insertion order in fixed, pre-allocated caches; once the
// buffer is full, each Add overwrites the oldest stored transition.
// Sampling is uniformly random over the stored transitions.
type ringCache struct {
	stateCache     []float64
	actionCache    []float64
	rewardCache    []float64
	discountCache  []float64
	nextStateCache []float64

	next   int // index that the next Add writes to
	isFull bool

	rng       *rand.Rand
	batchSize int

	minCapacity int
	maxCapacity int
	featureSize int
	actionSize  int
}

// New creates and returns a new ExperienceReplayer with uniformly
// random sampling and oldest-first eviction. The featureSize and
// actionSize parameters define the lengths of the stored state and
// action vectors. No samples are returned until at least minCapacity
// transitions have been added.
func New(minCapacity, maxCapacity, batchSize, featureSize, actionSize int,
	seed int64) (ExperienceReplayer, error) {
	if minCapacity <= 0 {
		return nil, fmt.Errorf("new: minCapacity must be > 0")
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("new: maxCapacity must be >= 1")
	}
	if maxCapacity < minCapacity {
		return nil, fmt.Errorf("new: cannot have minCapacity(%v) > max "+
			"buffer capacity (%v)", minCapacity, maxCapacity)
	}
	if maxCapacity < batchSize {
		return nil, fmt.Errorf("new: cannot have batch size(%v) > max "+
			"buffer capacity (%v)", batchSize, maxCapacity)
	}

	return &ringCache{
		stateCache:     make([]float64, maxCapacity*featureSize),
		actionCache:    make([]float64, maxCapacity*actionSize),
		rewardCache:    make([]float64, maxCapacity),
		discountCache:  make([]float64, maxCapacity),
		nextStateCache: make([]float64, maxCapacity*featureSize),

		rng:       rand.New(rand.NewSource(seed)),
		batchSize: batchSize,

		minCapacity: minCapacity,
		maxCapacity: maxCapacity,
		featureSize: featureSize,
		actionSize:  actionSize,
	}, nil
}

// String returns the string representation of the ringCache
func (c *ringCache) String() string {
	baseStr := "Capacity: %v of %v \nStates: %v \nActions: %v \n" +
		"Rewards: %v \nDiscounts: %v \nNext States: %v"
	return fmt.Sprintf(baseStr, c.Capacity(), c.maxCapacity, c.stateCache,
		c.actionCache, c.rewardCache, c.discountCache, c.nextStateCache)
}

// BatchSize returns the number of samples returned by Sample()
func (c *ringCache) BatchSize() int {
	return c.batchSize
}

// Capacity returns the current number of elements in the cache that
// are available for sampling
func (c *ringCache) Capacity() int {
	if c.isFull {
		return c.maxCapacity
	}
	return c.next
}

// MaxCapacity returns the maximum number of elements that are allowed
// in the cache
func (c *ringCache) MaxCapacity() int {
	return c.maxCapacity
}

// MinCapacity returns the minimum number of elements required in the
// cache before sampling is allowed
func (c *ringCache) MinCapacity() int {
	return c.minCapacity
}

// Add adds a transition to the cache, evicting the oldest stored
// transition when the cache is full
func (c *ringCache) Add(t timestep.Transition) error {
	if t.State.Len() != c.featureSize || t.NextState.Len() != c.featureSize {
		return fmt.Errorf("add: invalid feature size \n\twant(%v)"+
			"\n\thave(%v)", c.featureSize, t.State.Len())
	}
	if t.Action.Len() != c.actionSize {
		return fmt.Errorf("add: invalid action size \n\twant(%v)"+
			"\n\thave(%v)", c.actionSize, t.Action.Len())
	}

	index := c.next

	stateInd := index * c.featureSize
	for i := 0; i < c.featureSize; i++ {
		c.stateCache[stateInd+i] = t.State.AtVec(i)
		c.nextStateCache[stateInd+i] = t.NextState.AtVec(i)
	}

	actionInd := index * c.actionSize
	for i := 0; i < c.actionSize; i++ {
		c.actionCache[actionInd+i] = t.Action.AtVec(i)
	}

	c.rewardCache[index] = t.Reward
	c.discountCache[index] = t.Discount

	c.next++
	if c.next == c.maxCapacity {
		c.next = 0
		c.isFull = true
	}
	return nil
}

// Sample samples and returns a batch of transitions from the replay
// buffer
func (c *ringCache) Sample() ([]float64, []float64, []float64, []float64,
	[]float64, error) {
	if c.Capacity() == 0 {
		return nil, nil, nil, nil, nil, &ExpReplayError{
			Op:  "sample",
			Err: errEmptyCache,
		}
	}
	if c.Capacity() < c.MinCapacity() {
		return nil, nil, nil, nil, nil, &ExpReplayError{
			Op:  "sample",
			Err: errInsufficientSamples,
		}
	}

	stateBatch := make([]float64, c.batchSize*c.featureSize)
	nextStateBatch := make([]float64, c.batchSize*c.featureSize)
	actionBatch := make([]float64, c.batchSize*c.actionSize)
	rewardBatch := make([]float64, c.batchSize)
	discountBatch := make([]float64, c.batchSize)

	for i := 0; i < c.batchSize; i++ {
		index := c.rng.Intn(c.Capacity())

		batchStart := i * c.featureSize
		expStart := index * c.featureSize
		copy(stateBatch[batchStart:batchStart+c.featureSize],
			c.stateCache[expStart:expStart+c.featureSize])
		copy(nextStateBatch[batchStart:batchStart+c.featureSize],
			c.nextStateCache[expStart:expStart+c.featureSize])

		batchStart = i * c.actionSize
		expStart = index * c.actionSize
		copy(actionBatch[batchStart:batchStart+c.actionSize],
			c.actionCache[expStart:expStart+c.actionSize])

		rewardBatch[i] = c.rewardCache[index]
		discountBatch[i] = c.discountCache[index]
	}

	return stateBatch, actionBatch, rewardBatch, discountBatch,
		nextStateBatch, nil
}

// insertOrder returns the indices of the stored transitions in
// oldest-first insertion order. Used by tests to confirm eviction
// order.
func (c *ringCache) insertOrder() []int {
	if !c.isFull {
		order := make([]int, c.next)
		for i := range order {
			order[i] = i
		}
		return order
	}

	order := make([]int, 0, c.maxCapacity)
	for i := c.next; i < c.maxCapacity; i++ {
		order = append(order, i)
	}
	for i := 0; i < c.next; i++ {
		order = append(order, i)
	}
	return order
}
