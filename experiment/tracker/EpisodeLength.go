package tracker

import (
	"encoding/gob"
	"log"
	"os"

	ts "sfneuman.com/blackjack/timestep"
)

// EpisodeLength tracks and saves the number of timesteps in each
// episode of an experiment
type EpisodeLength struct {
	currentLength  int
	episodeLengths []int
	filename       string
}

// NewEpisodeLength creates and returns a new *EpisodeLength Tracker
func NewEpisodeLength(filename string) Tracker {
	return &EpisodeLength{filename: filename}
}

// Track counts the timesteps of the current episode, recording the
// count when the episode ends
func (e *EpisodeLength) Track(step ts.TimeStep) {
	if step.First() {
		e.currentLength = 0
		return
	}

	e.currentLength++
	if step.Last() {
		e.episodeLengths = append(e.episodeLengths, e.currentLength)
		e.currentLength = 0
	}
}

// Lengths returns the episode lengths recorded so far
func (e *EpisodeLength) Lengths() []int {
	return e.episodeLengths
}

// Save saves the data tracked by the EpisodeLength Tracker to disk
func (e *EpisodeLength) Save() {
	file, err := os.Create(e.filename)
	if err != nil {
		log.Fatalf("could not open save file: %v", err)
	}
	defer file.Close()

	en := gob.NewEncoder(file)
	if err = en.Encode(e.episodeLengths); err != nil {
		log.Fatalf("could not encode episode length data: %v", err)
	}
}
