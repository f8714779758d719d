// Package blackjack implements the Blackjack card game as an episodic
// environment.
//
// The environment follows the classic formulation of Sutton & Barto
// (Example 5.1): cards are drawn from an infinite deck, the dealer
// hits until reaching at least 17, and an episode is a single hand.
// State observations are the triple (player sum, dealer upcard,
// usable ace). The two actions are enumerated as 0 (stick) and
// 1 (hit).
package blackjack

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/spec"
	ts "sfneuman.com/blackjack/timestep"
)

// Action enumeration. The constants are untyped so that they can be
// used directly as action values and as Q-table indices.
const (
	Stick = iota
	Hit
)

// Observation bounds
const (
	MinPlayerSum    float64 = 4.0
	MaxPlayerSum    float64 = 31.0
	MinDealerUpcard float64 = 1.0
	MaxDealerUpcard float64 = 10.0

	MinDiscreteAction int = 0
	MaxDiscreteAction int = 1
)

// dealerStandsAt is the hand value at which the dealer stops hitting
const dealerStandsAt = 17

// Blackjack implements the Blackjack environment. Each episode is a
// single hand: the player hits until sticking or going bust, after
// which the dealer plays out its hand and the episode ends with reward
// -1, 0, or +1 (+1.5 for a natural when the Natural flag is set).
//
// All randomness is drawn from the random source created at
// construction; two Blackjack values created with the same seed deal
// identical sequences of cards.
type Blackjack struct {
	rng      *rand.Rand
	natural  bool
	sab      bool
	discount float64

	playerCards []int
	dealerCards []int

	lastStep ts.TimeStep
	dealt    bool // whether a hand has ever been dealt
	done     bool // whether the current hand has finished
}

// New creates a new Blackjack environment and deals the first hand,
// returning the environment and the first timestep of the first
// episode.
//
// The natural flag enables the 3:2 payout on a natural (an ace and a
// ten as the initial two cards). The sab flag enables the Sutton &
// Barto rule variant, where a player natural wins outright unless the
// dealer also holds a natural. The discount parameter is the discount
// applied on non-terminal timesteps.
func New(natural, sab bool, discount float64, seed uint64) (*Blackjack,
	ts.TimeStep) {
	source := rand.NewSource(seed)

	b := &Blackjack{
		rng:      rand.New(source),
		natural:  natural,
		sab:      sab,
		discount: discount,
	}
	return b, b.Reset()
}

// drawCard draws a single card value from an infinite deck. Face
// cards count 10, so the value 10 is four times as likely as any
// other value.
func (b *Blackjack) drawCard() int {
	rank := int(b.rng.Int63n(13)) + 1
	if rank > 10 {
		return 10
	}
	return rank
}

// usableAce returns whether a hand holds an ace countable as 11
// without going bust
func usableAce(hand []int) bool {
	raw := 0
	hasAce := false
	for _, card := range hand {
		raw += card
		if card == 1 {
			hasAce = true
		}
	}
	return hasAce && raw+10 <= 21
}

// sumHand returns the best total of a hand, counting a usable ace
// as 11
func sumHand(hand []int) int {
	sum := 0
	for _, card := range hand {
		sum += card
	}
	if usableAce(hand) {
		return sum + 10
	}
	return sum
}

// isBust returns whether a hand has gone over 21
func isBust(hand []int) bool {
	return sumHand(hand) > 21
}

// score returns the final value of a hand, 0 if the hand is bust
func score(hand []int) int {
	if isBust(hand) {
		return 0
	}
	return sumHand(hand)
}

// isNatural returns whether a hand is a natural blackjack: an ace and
// a ten as the first two cards
func isNatural(hand []int) bool {
	if len(hand) != 2 {
		return false
	}
	return (hand[0] == 1 && hand[1] == 10) || (hand[0] == 10 && hand[1] == 1)
}

// Reset deals a new hand, returning the first timestep of the new
// episode
func (b *Blackjack) Reset() ts.TimeStep {
	b.playerCards = []int{b.drawCard(), b.drawCard()}
	b.dealerCards = []int{b.drawCard(), b.drawCard()}
	b.dealt = true
	b.done = false

	firstStep := ts.New(ts.First, 0.0, b.discount, b.observation(), 0)
	b.lastStep = firstStep
	return firstStep
}

// Step takes one environmental step given action a and returns the
// next timestep, whether that timestep is the last in the episode,
// and an error on protocol violations. The action vector must hold a
// single value: 0 to stick, 1 to hit.
func (b *Blackjack) Step(action mat.Vector) (ts.TimeStep, bool, error) {
	if !b.dealt {
		return ts.TimeStep{}, true, env.NewStepBeforeReset("step")
	}
	if b.done {
		return ts.TimeStep{}, true, env.NewStepAfterDone("step")
	}
	if err := env.ValidateAction(action, b.ActionSpec()); err != nil {
		return ts.TimeStep{}, true, err
	}

	var reward float64
	var stepType ts.StepType

	if int(action.AtVec(0)) == Hit {
		b.playerCards = append(b.playerCards, b.drawCard())
		if isBust(b.playerCards) {
			reward = -1.0
			stepType = ts.Last
		} else {
			reward = 0.0
			stepType = ts.Mid
		}
	} else {
		reward = b.playOutDealer()
		stepType = ts.Last
	}

	discount := b.discount
	if stepType == ts.Last {
		discount = 0.0
		b.done = true
	}

	nextStep := ts.New(stepType, reward, discount, b.observation(),
		b.lastStep.Number+1)
	b.lastStep = nextStep
	return nextStep, nextStep.Last(), nil
}

// playOutDealer draws cards for the dealer until its hand reaches 17
// and returns the final reward of the hand
func (b *Blackjack) playOutDealer() float64 {
	for sumHand(b.dealerCards) < dealerStandsAt {
		b.dealerCards = append(b.dealerCards, b.drawCard())
	}

	playerScore := score(b.playerCards)
	dealerScore := score(b.dealerCards)

	var reward float64
	switch {
	case playerScore > dealerScore:
		reward = 1.0
	case playerScore < dealerScore:
		reward = -1.0
	default:
		reward = 0.0
	}

	if b.sab && isNatural(b.playerCards) && !isNatural(b.dealerCards) {
		// Under the Sutton & Barto rules a player natural always wins
		// unless the dealer also holds a natural
		reward = 1.0
	} else if !b.sab && b.natural && isNatural(b.playerCards) &&
		reward == 1.0 {
		reward = 1.5
	}
	return reward
}

// observation returns the current state observation triple
func (b *Blackjack) observation() mat.Vector {
	ace := 0.0
	if usableAce(b.playerCards) {
		ace = 1.0
	}
	return mat.NewVecDense(3, []float64{
		float64(sumHand(b.playerCards)),
		float64(b.dealerCards[0]),
		ace,
	})
}

// PlayerCards returns a copy of the player's current hand. External
// collaborators may use the hand to render the table; mutating the
// returned slice has no effect on the environment.
func (b *Blackjack) PlayerCards() []int {
	cards := make([]int, len(b.playerCards))
	copy(cards, b.playerCards)
	return cards
}

// DealerCards returns a copy of the dealer's current hand, including
// the hole card
func (b *Blackjack) DealerCards() []int {
	cards := make([]int, len(b.dealerCards))
	copy(cards, b.dealerCards)
	return cards
}

// ObservationSpec returns the observation specification of the
// environment
func (b *Blackjack) ObservationSpec() spec.Environment {
	shape := mat.NewVecDense(3, nil)
	lowerBound := mat.NewVecDense(3, []float64{MinPlayerSum,
		MinDealerUpcard, 0.0})
	upperBound := mat.NewVecDense(3, []float64{MaxPlayerSum,
		MaxDealerUpcard, 1.0})

	return spec.NewEnvironment(shape, spec.Observation, lowerBound,
		upperBound, spec.Discrete)
}

// ActionSpec returns the action specification of the environment
func (b *Blackjack) ActionSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	lowerBound := mat.NewVecDense(1, []float64{float64(MinDiscreteAction)})
	upperBound := mat.NewVecDense(1, []float64{float64(MaxDiscreteAction)})

	return spec.NewEnvironment(shape, spec.Action, lowerBound,
		upperBound, spec.Discrete)
}

// DiscountSpec returns the discounting specification of the
// environment
func (b *Blackjack) DiscountSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	bound := mat.NewVecDense(1, []float64{b.discount})

	return spec.NewEnvironment(shape, spec.Discount, bound, bound,
		spec.Continuous)
}

// RewardSpec returns the reward specification of the environment
func (b *Blackjack) RewardSpec() spec.Environment {
	shape := mat.NewVecDense(1, nil)
	maxReward := 1.0
	if b.natural {
		maxReward = 1.5
	}
	lowerBound := mat.NewVecDense(1, []float64{-1.0})
	upperBound := mat.NewVecDense(1, []float64{maxReward})

	return spec.NewEnvironment(shape, spec.Reward, lowerBound,
		upperBound, spec.Discrete)
}

// String returns a string representation of the current hand
func (b *Blackjack) String() string {
	str := "Blackjack  |  Player: %v  |  Dealer: %v"
	return fmt.Sprintf(str, b.playerCards, b.dealerCards)
}
