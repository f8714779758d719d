package solver

import G "gorgonia.org/gorgonia"

// VanillaConfig describes plain stochastic gradient descent with an
// optional gradient clip
type VanillaConfig struct {
	StepSize float64
	Batch    int
	Clip     float64 // <= 0 disables clipping
}

// NewVanilla returns a wrapped plain gradient descent solver
func NewVanilla(stepSize float64, batchSize int,
	clip float64) (*Solver, error) {
	vanilla := VanillaConfig{
		StepSize: stepSize,
		Batch:    batchSize,
		Clip:     clip,
	}

	return newSolver(Vanilla, vanilla)
}

// Create builds the Gorgonia solver the config describes
func (v VanillaConfig) Create() G.Solver {
	if v.Clip <= 0 {
		return G.NewVanillaSolver(
			G.WithLearnRate(v.StepSize),
			G.WithBatchSize(float64(v.Batch)),
		)
	}
	return G.NewVanillaSolver(
		G.WithLearnRate(v.StepSize),
		G.WithBatchSize(float64(v.Batch)),
		G.WithClip(v.Clip),
	)
}

// ValidType returns whether the config can back a Solver of the
// argument type
func (v VanillaConfig) ValidType(t Type) bool {
	return t == Vanilla
}
