package testkit

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"linhypo/internal/errors"

	"gonum.org/v1/gonum/mat"
)

// SimulationConfig configures the synthetic regression data generator
type SimulationConfig struct {
	Observations      int             `json:"observations"`
	Predictors        int             `json:"predictors"`
	FixedCoefficients map[int]float64 `json:"fixed_coefficients"`
	Intercept         float64         `json:"intercept"`
	Seed              uint64          `json:"seed"`
}

// DefaultSimulationConfig returns the reference scenario: 300 observations,
// 5 predictors, coefficients 1 and 2 at indices 0 and 3, intercept 20
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		Observations:      300,
		Predictors:        5,
		FixedCoefficients: map[int]float64{0: 1, 3: 2},
		Intercept:         20,
		Seed:              42,
	}
}

// NullSimulationConfig is the default scenario without any true effect
func NullSimulationConfig() SimulationConfig {
	cfg := DefaultSimulationConfig()
	cfg.FixedCoefficients = nil
	return cfg
}

// MaxSimulationCells bounds Observations × Predictors of one simulated design
const MaxSimulationCells = 10_000_000

// Validate checks the configuration
func (c SimulationConfig) Validate() error {
	if c.Observations < 1 || c.Predictors < 1 {
		return errors.InvalidInput(fmt.Sprintf("simulation needs at least one observation and one predictor, got %d x %d", c.Observations, c.Predictors))
	}
	if c.Observations > MaxSimulationCells/c.Predictors {
		return errors.InvalidInput(fmt.Sprintf("simulation of %d x %d exceeds %d cells", c.Observations, c.Predictors, MaxSimulationCells))
	}
	for idx := range c.FixedCoefficients {
		if idx < 0 || idx >= c.Predictors {
			return errors.InvalidInput(fmt.Sprintf("fixed coefficient index %d outside 0..%d", idx, c.Predictors-1))
		}
	}
	return nil
}

// DataGenerator draws design matrices and responses with known structure
type DataGenerator struct {
	config SimulationConfig
	rng    *rand.Rand
}

// NewDataGenerator creates a generator seeded from the configuration
func NewDataGenerator(config SimulationConfig) *DataGenerator {
	return &DataGenerator{
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
	}
}

// Generate returns X with uniform [0,1) predictors and
// y = noise + X[:, fixed]·values + intercept, where the noise is uniform [0,1).
// Successive calls continue the same random stream.
func (g *DataGenerator) Generate() (*mat.Dense, []float64, error) {
	cfg := g.config
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	data := make([]float64, cfg.Observations*cfg.Predictors)
	for i := range data {
		data[i] = g.rng.Float64()
	}
	x := mat.NewDense(cfg.Observations, cfg.Predictors, data)

	y := make([]float64, cfg.Observations)
	for i := range y {
		y[i] = g.rng.Float64()
	}

	indices := make([]int, 0, len(cfg.FixedCoefficients))
	for idx := range cfg.FixedCoefficients {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for i := range y {
		effect := 0.0
		for _, idx := range indices {
			effect += x.At(i, idx) * cfg.FixedCoefficients[idx]
		}
		y[i] += effect + cfg.Intercept
	}

	return x, y, nil
}

// Simulate draws one data set for cfg
func Simulate(cfg SimulationConfig) (*mat.Dense, []float64, error) {
	return NewDataGenerator(cfg).Generate()
}
