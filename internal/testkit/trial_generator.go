// Package testkit generates synthetic signal detection data from known parameters.
package testkit

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"gosdt/domain/sdt"
)

// TrialGeneratorConfig configures the trial generator
type TrialGeneratorConfig struct {
	Blocks       int     `json:"blocks"`
	SignalTrials int     `json:"signal_trials"`
	NoiseTrials  int     `json:"noise_trials"`
	DPrime       float64 `json:"d_prime"`
	Criterion    float64 `json:"criterion"`
	Seed         uint64  `json:"seed"`
}

// DefaultTrialConfig returns a moderately sensitive, unbiased observer
func DefaultTrialConfig() TrialGeneratorConfig {
	return TrialGeneratorConfig{
		Blocks:       10,
		SignalTrials: 100,
		NoiseTrials:  100,
		DPrime:       1.0,
		Criterion:    0,
		Seed:         42,
	}
}

// Validate rejects configurations that cannot produce a usable block
func (c TrialGeneratorConfig) Validate() error {
	if c.Blocks < 1 {
		return fmt.Errorf("blocks must be at least 1, got %d", c.Blocks)
	}
	if c.SignalTrials < 1 || c.NoiseTrials < 1 {
		return fmt.Errorf("signal and noise trials must be at least 1, got %d and %d", c.SignalTrials, c.NoiseTrials)
	}
	return nil
}

// TrialGenerator simulates an equal-variance Gaussian observer. Each trial draws
// evidence from N(0,1) on noise trials or N(d′,1) on signal trials and answers
// "yes" when the evidence exceeds d′/2 + c.
type TrialGenerator struct {
	config TrialGeneratorConfig
	noise  distuv.Normal
	signal distuv.Normal
}

// NewTrialGenerator creates a generator; the same seed always yields the same blocks
func NewTrialGenerator(config TrialGeneratorConfig) *TrialGenerator {
	src := rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)
	return &TrialGenerator{
		config: config,
		noise:  distuv.Normal{Mu: 0, Sigma: 1, Src: src},
		signal: distuv.Normal{Mu: config.DPrime, Sigma: 1, Src: src},
	}
}

// Threshold is the evidence level above which the observer says "yes"
func (g *TrialGenerator) Threshold() float64 {
	return g.config.DPrime/2 + g.config.Criterion
}

// GenerateBlock simulates one block of trials
func (g *TrialGenerator) GenerateBlock() sdt.Counts {
	threshold := g.Threshold()
	var c sdt.Counts
	for i := 0; i < g.config.SignalTrials; i++ {
		if g.signal.Rand() > threshold {
			c.Hits++
		} else {
			c.Misses++
		}
	}
	for i := 0; i < g.config.NoiseTrials; i++ {
		if g.noise.Rand() > threshold {
			c.FalseAlarms++
		} else {
			c.CorrectRejections++
		}
	}
	return c
}

// GenerateBlocks simulates config.Blocks blocks
func (g *TrialGenerator) GenerateBlocks() ([]sdt.Counts, error) {
	if err := g.config.Validate(); err != nil {
		return nil, err
	}
	blocks := make([]sdt.Counts, g.config.Blocks)
	for i := range blocks {
		blocks[i] = g.GenerateBlock()
	}
	return blocks, nil
}
