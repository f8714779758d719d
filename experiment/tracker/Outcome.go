package tracker

import (
	"encoding/gob"
	"log"
	"os"

	ts "sfneuman.com/blackjack/timestep"
)

// Hand outcomes recorded by the Outcome tracker
const (
	Loss = iota
	Push
	Win
	Bust // A loss where the player went over 21
)

// Outcome tracks and saves the outcome of each episode of a blackjack
// experiment. The outcome is derived from the final reward and the
// final observation: a positive reward is a win, zero is a push, and a
// negative reward is a loss, recorded as a bust when the player's sum
// exceeded 21.
type Outcome struct {
	outcomes []int
	filename string
}

// NewOutcome creates and returns a new *Outcome Tracker
func NewOutcome(filename string) Tracker {
	return &Outcome{filename: filename}
}

// Track records the outcome of an episode when its final timestep
// arrives
func (o *Outcome) Track(step ts.TimeStep) {
	if !step.Last() {
		return
	}
	o.outcomes = append(o.outcomes, Classify(step))
}

// Outcomes returns the episode outcomes recorded so far
func (o *Outcome) Outcomes() []int {
	return o.outcomes
}

// Save saves the data tracked by the Outcome Tracker to disk
func (o *Outcome) Save() {
	file, err := os.Create(o.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(o.outcomes); err != nil {
		log.Fatalf("could not encode outcome data: %v", err)
	}
}

// Classify returns the outcome of an episode given its final timestep
func Classify(step ts.TimeStep) int {
	switch {
	case step.Reward > 0:
		return Win
	case step.Reward == 0:
		return Push
	case step.Observation.AtVec(0) > 21:
		return Bust
	default:
		return Loss
	}
}
