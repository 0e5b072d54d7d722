// Package consolidate implements entity resolution for procurement
// opportunities: natural-key exact matching, weighted fuzzy scoring,
// union-find grouping, and source-priority merging.
package consolidate

import (
	"github.com/rotisserie/eris"

	"github.com/tendergov/tender-cli/internal/model"
)

// Weights are the five similarity factor weights. They must sum to 1.0.
type Weights struct {
	Description float64 `yaml:"description"`
	Buyer       float64 `yaml:"buyer"`
	Value       float64 `yaml:"value"`
	Date        float64 `yaml:"date"`
	Location    float64 `yaml:"location"`
}

// Config carries every tunable the engine reads. Lookup tables are passed
// here explicitly rather than read from package globals so runs are
// reproducible and tests can substitute fixtures.
type Config struct {
	Weights Weights

	// AutoThreshold is the inclusive lower bound for automatic fuzzy
	// merging; ReviewThreshold the inclusive lower bound for grouping with
	// a review flag.
	AutoThreshold   float64
	ReviewThreshold float64

	// Value proximity bounds: relative difference at or under ValueTolerance
	// scores 1.0, at or over ValueCutoff scores 0.0.
	ValueTolerance float64
	ValueCutoff    float64

	// Date proximity bounds in days.
	DateToleranceDays float64
	DateCutoffDays    float64

	// Priorities ranks sources for merge conflicts; lower wins.
	Priorities map[model.Source]int

	// FuzzyWorkers bounds the goroutines scoring candidate pairs.
	FuzzyWorkers int

	Derive model.DeriveConfig
}

// DefaultPriorities is the production source ranking.
func DefaultPriorities() map[model.Source]int {
	return map[model.Source]int{
		model.SourcePNCP:        1,
		model.SourceComprasnet:  2,
		model.SourceLicitacoesE: 3,
		model.SourceBLL:         4,
		model.SourceBNC:         5,
	}
}

// DefaultConfig returns the production configuration.
func DefaultConfig() Config {
	return Config{
		Weights: Weights{
			Description: 0.35,
			Buyer:       0.25,
			Value:       0.20,
			Date:        0.10,
			Location:    0.10,
		},
		AutoThreshold:     0.90,
		ReviewThreshold:   0.75,
		ValueTolerance:    0.05,
		ValueCutoff:       0.50,
		DateToleranceDays: 7,
		DateCutoffDays:    90,
		Priorities:        DefaultPriorities(),
		FuzzyWorkers:      4,
		Derive:            model.DefaultDeriveConfig(),
	}
}

const weightEpsilon = 1e-9

// Validate rejects configurations the engine cannot run with.
func (c Config) Validate() error {
	sum := c.Weights.Description + c.Weights.Buyer + c.Weights.Value + c.Weights.Date + c.Weights.Location
	if diff := sum - 1.0; diff > weightEpsilon || diff < -weightEpsilon {
		return eris.Errorf("consolidate: factor weights sum to %v, want 1.0", sum)
	}
	if c.AutoThreshold < c.ReviewThreshold {
		return eris.Errorf("consolidate: auto threshold %v below review threshold %v", c.AutoThreshold, c.ReviewThreshold)
	}
	if c.AutoThreshold > 1 || c.ReviewThreshold <= 0 {
		return eris.New("consolidate: thresholds must fall in (0, 1]")
	}
	if len(c.Priorities) == 0 {
		return eris.New("consolidate: empty source priority table")
	}
	if c.FuzzyWorkers < 1 {
		return eris.New("consolidate: fuzzy workers must be at least 1")
	}
	return nil
}
