package sgd

import (
	"log"
	"math"
	"math/rand/v2"
)

// StableBatchLimit is the number of consecutive below-tolerance batches the
// optimizer tolerates; once the counter exceeds it at an epoch boundary the
// run stops.
const StableBatchLimit = 10

// Config holds the hyperparameters of a run.
type Config struct {
	// LearnRate is either a single scalar or one rate per parameter.
	LearnRate []float64
	// Epochs is the maximum number of passes over the training set.
	Epochs int
	// BatchSize is the number of rows per mini-batch, 1 <= BatchSize <= rows.
	BatchSize int
	// Tolerance is the per-component step size below which a batch counts
	// as stable.
	Tolerance float64
	Precision Precision
	// Seed drives the per-epoch shuffle. Every run starts a fresh source
	// from it, so repeated runs shuffle identically. A nil Seed draws a
	// nondeterministic source for every run.
	Seed *uint64
	// Logger receives one line per epoch when set.
	Logger *log.Logger
}

// DefaultConfig runs 500 epochs of single-row batches with a 1e-6
// tolerance in double precision.
func DefaultConfig() Config {
	return Config{
		LearnRate: []float64{0.001},
		Epochs:    500,
		BatchSize: 1,
		Tolerance: 1e-6,
		Precision: Float64,
	}
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// WithSeed returns a copy of c that shuffles from seed.
func (c Config) WithSeed(seed uint64) Config {
	c.Seed = &seed
	return c
}

func (c Config) source() *rand.Rand {
	if c.Seed == nil {
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return NewRand(*c.Seed)
}

func (c Config) validate() error {
	if len(c.LearnRate) == 0 {
		return invalidArgument("learn_rate", c.LearnRate, "must not be empty")
	}
	for _, lr := range c.LearnRate {
		if math.IsInf(lr, 1) {
			return invalidArgument("learn_rate", lr, "must be finite")
		}
		if !(lr > 0) {
			return invalidArgument("learn_rate", lr, "must be greater than 0")
		}
	}
	if c.Epochs <= 0 {
		return invalidArgument("n_iter", c.Epochs, "must be greater than 0")
	}
	if c.BatchSize <= 0 {
		return invalidArgument("batch_size", c.BatchSize, "must be greater than 0")
	}
	if !(c.Tolerance > 0) {
		return invalidArgument("tolerance", c.Tolerance, "must be greater than 0")
	}
	if !c.Precision.valid() {
		return invalidArgument("precision", c.Precision, "must be float32 or float64")
	}
	return nil
}
