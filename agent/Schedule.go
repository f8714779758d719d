package agent

import "fmt"

// Schedule describes a monotone, multiplicative annealing schedule
// for the exploration rate ε. Starting from Init, each decay step
// multiplies the current value by Decay until Floor is reached.
// Setting Decay to 1 keeps ε fixed at Init.
type Schedule struct {
	Init  float64 `json:"init"`
	Floor float64 `json:"floor"`
	Decay float64 `json:"decay"`
}

// Validate ensures the Schedule describes a legal ε annealing
func (s Schedule) Validate() error {
	if s.Init < 0 || s.Init > 1 {
		return fmt.Errorf("schedule: initial ε must be in [0, 1], got %v",
			s.Init)
	}
	if s.Floor < 0 || s.Floor > s.Init {
		return fmt.Errorf("schedule: ε floor must be in [0, %v], got %v",
			s.Init, s.Floor)
	}
	if s.Decay <= 0 || s.Decay > 1 {
		return fmt.Errorf("schedule: ε decay must be in (0, 1], got %v",
			s.Decay)
	}
	return nil
}

// Next returns the ε value following current in the schedule
func (s Schedule) Next(current float64) float64 {
	next := current * s.Decay
	if next < s.Floor {
		return s.Floor
	}
	return next
}
