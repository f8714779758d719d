// Package tracker implements Trackers, which record data generated
// during an experiment and save it to disk once the experiment has
// finished.
package tracker

import (
	"encoding/gob"
	"log"
	"os"

	ts "sfneuman.com/blackjack/timestep"
)

// Tracker records experiment data timestep by timestep and saves the
// recorded data after the experiment has finished. Trackers reset
// their per-episode state whenever a First timestep arrives, so
// truncated episodes do not corrupt later ones.
type Tracker interface {
	Track(t ts.TimeStep)
	Save()
}

// LoadFloats loads and returns float64 data saved by a Tracker
func LoadFloats(filename string) []float64 {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []float64
	if err := dec.Decode(&data); err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}

// LoadInts loads and returns int data saved by a Tracker
func LoadInts(filename string) []int {
	file, err := os.Open(filename)
	if err != nil {
		log.Fatalf("could not open data file: %v", err)
	}
	defer file.Close()

	dec := gob.NewDecoder(file)
	var data []int
	if err := dec.Decode(&data); err != nil {
		log.Fatalf("could not decode data: %v", err)
	}

	return data
}
