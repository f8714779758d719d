package experiment

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
	"sfneuman.com/blackjack/agent"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/experiment/tracker"
)

// Summary holds the aggregate statistics of an evaluation run
type Summary struct {
	Episodes     int
	MeanReturn   float64
	StdDev       float64
	Confidence95 float64 // Half-width of the 95% CI on the mean return

	WinRate  float64
	LossRate float64 // Includes busts
	PushRate float64
	BustRate float64
}

// String implements the fmt.Stringer interface
func (s Summary) String() string {
	return fmt.Sprintf("episodes: %d  mean return: %.4f ± %.4f  "+
		"(σ = %.4f)  win: %.3f  loss: %.3f  push: %.3f  bust: %.3f",
		s.Episodes, s.MeanReturn, s.Confidence95, s.StdDev, s.WinRate,
		s.LossRate, s.PushRate, s.BustRate)
}

// Evaluate runs the agent's frozen greedy policy on the environment
// for the given number of episodes and returns aggregate statistics.
// The agent is placed in evaluation mode for the duration of the run
// and restored to training mode afterwards; no learning operations are
// invoked, so the agent's parameters are left untouched.
func Evaluate(e env.Environment, a agent.Agent, episodes int) (Summary,
	error) {
	if episodes <= 0 {
		return Summary{}, fmt.Errorf("evaluate: episode count must be "+
			"positive, got %v", episodes)
	}

	a.Eval()
	defer a.Train()

	returns := make([]float64, 0, episodes)
	var wins, losses, pushes, busts int

	for i := 0; i < episodes; i++ {
		step := e.Reset()
		episodeReturn := 0.0

		for j := 0; !step.Last() && j < MaxEpisodeSteps; j++ {
			action := a.SelectAction(step)

			nextStep, _, err := e.Step(action)
			if err != nil {
				return Summary{}, fmt.Errorf("evaluate: episode %v: %v", i,
					err)
			}
			episodeReturn += nextStep.Reward
			step = nextStep
		}

		returns = append(returns, episodeReturn)
		switch tracker.Classify(step) {
		case tracker.Win:
			wins++
		case tracker.Push:
			pushes++
		case tracker.Bust:
			busts++
			losses++
		default:
			losses++
		}
	}

	n := float64(len(returns))
	mean := stat.Mean(returns, nil)
	stdDev := stat.StdDev(returns, nil)

	return Summary{
		Episodes:     len(returns),
		MeanReturn:   mean,
		StdDev:       stdDev,
		Confidence95: 1.96 * stdDev / math.Sqrt(n),
		WinRate:      float64(wins) / n,
		LossRate:     float64(losses) / n,
		PushRate:     float64(pushes) / n,
		BustRate:     float64(busts) / n,
	}, nil
}
