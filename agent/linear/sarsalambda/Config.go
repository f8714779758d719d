package sarsalambda

import (
	"fmt"

	"sfneuman.com/blackjack/agent"
)

// Config represents a configuration for the SarsaLambda agent
type Config struct {
	LearningRate float64        `json:"learning_rate"`
	Gamma        float64        `json:"gamma"`
	Lambda       float64        `json:"lambda"`
	Epsilon      agent.Schedule `json:"epsilon"`
}

// Validate ensures that the Config is valid
func (c Config) Validate() error {
	if c.LearningRate <= 0 {
		return fmt.Errorf("sarsalambda: learning rate must be positive, "+
			"got %v", c.LearningRate)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("sarsalambda: discount must be in [0, 1], got %v",
			c.Gamma)
	}
	if c.Lambda < 0 || c.Lambda > 1 {
		return fmt.Errorf("sarsalambda: trace decay must be in [0, 1], "+
			"got %v", c.Lambda)
	}
	if err := c.Epsilon.Validate(); err != nil {
		return fmt.Errorf("sarsalambda: %v", err)
	}
	return nil
}
