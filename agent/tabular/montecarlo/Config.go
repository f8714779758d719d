package montecarlo

import (
	"fmt"

	"sfneuman.com/blackjack/agent"
)

// Config represents a configuration for the MonteCarlo agent
type Config struct {
	Gamma   float64        `json:"gamma"`
	Epsilon agent.Schedule `json:"epsilon"`

	// ExploringStarts samples the first action of every training
	// episode uniformly at random, regardless of ε
	ExploringStarts bool `json:"exploring_starts"`
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("montecarlo: discount must be in [0, 1], got %v",
			c.Gamma)
	}
	if err := c.Epsilon.Validate(); err != nil {
		return fmt.Errorf("montecarlo: %v", err)
	}
	return nil
}
