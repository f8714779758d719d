// Package experiment implements functionality for training agents on
// environments and evaluating their frozen policies
package experiment

import (
	"fmt"

	"sfneuman.com/blackjack/agent"
	env "sfneuman.com/blackjack/environment"
	"sfneuman.com/blackjack/experiment/tracker"
	ts "sfneuman.com/blackjack/timestep"
)

// MaxEpisodeSteps bounds the number of timesteps in a single episode.
// Episodes hitting the bound are truncated without a terminal update.
// Blackjack hands end within a dozen steps, so the bound only guards
// against a runaway environment.
const MaxEpisodeSteps = 100

// Episodic runs an agent on an episodic environment for a fixed budget
// of training episodes. Every environment timestep is forwarded to the
// registered trackers, and agents implementing agent.EpsilonDecayer
// have their exploration annealed once per episode.
type Episodic struct {
	env.Environment
	agent.Agent
	episodes        int
	maxEpisodeSteps int
	trackers        []tracker.Tracker
}

// NewEpisodic creates and returns a new Episodic experiment that
// trains agent a on environment e for the given number of episodes
func NewEpisodic(e env.Environment, a agent.Agent, episodes int,
	trackers ...tracker.Tracker) *Episodic {
	return &Episodic{
		Environment:     e,
		Agent:           a,
		episodes:        episodes,
		maxEpisodeSteps: MaxEpisodeSteps,
		trackers:        trackers,
	}
}

// Register adds a tracker.Tracker to the (possibly already running)
// experiment
func (o *Episodic) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single training episode. A non-nil error means the
// run is corrupted and should be aborted.
func (o *Episodic) RunEpisode() error {
	step := o.Environment.Reset()
	if err := o.Agent.ObserveFirst(step); err != nil {
		return fmt.Errorf("runepisode: %v", err)
	}
	o.track(step)

	for i := 0; !step.Last() && i < o.maxEpisodeSteps; i++ {
		action := o.Agent.SelectAction(step)

		nextStep, _, err := o.Environment.Step(action)
		if err != nil {
			return fmt.Errorf("runepisode: environment: %v", err)
		}
		o.track(nextStep)

		if err := o.Agent.Observe(action, nextStep); err != nil {
			return fmt.Errorf("runepisode: %v", err)
		}
		if err := o.Agent.Step(); err != nil {
			return fmt.Errorf("runepisode: %v", err)
		}

		step = nextStep
	}

	o.Agent.EndEpisode()
	if decayer, ok := o.Agent.(agent.EpsilonDecayer); ok {
		decayer.DecayEpsilon()
	}
	return nil
}

// Run trains the agent for the experiment's full episode budget,
// aborting on the first fatal error
func (o *Episodic) Run() error {
	o.Agent.Train()
	for i := 0; i < o.episodes; i++ {
		if err := o.RunEpisode(); err != nil {
			return fmt.Errorf("run: episode %v: %v", i, err)
		}
	}
	return nil
}

// Save saves all the data cached by the trackers to disk
func (o *Episodic) Save() {
	for _, t := range o.trackers {
		t.Save()
	}
}

// track forwards the current timestep to each tracker
func (o *Episodic) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
