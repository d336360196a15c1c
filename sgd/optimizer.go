// Package sgd implements mini-batch stochastic gradient descent over a
// dense design matrix and target vector.
//
// The stopping rule is deliberately unusual: a batch whose scaled step is
// within tolerance in every component is not applied, it ends the current
// epoch early and bumps a stability counter. Any applied step resets the
// counter. The counter is only inspected at epoch boundaries, and the run
// ends once it exceeds StableBatchLimit.
package sgd

import (
	"encoding/binary"
	"math"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GradientFunc returns the gradient of the loss at x for one mini-batch.
// It must be pure: a, b and x are views of optimizer state and must be
// neither modified nor retained.
type GradientFunc func(a mat.Matrix, b, x mat.Vector) mat.Vector

// Result is what a run leaves behind.
type Result struct {
	// X is the final parameter estimate.
	X *mat.VecDense
	// Trace holds ||truth - x|| after every applied step. It is empty when
	// no ground truth was given.
	Trace []float64
	// Epochs counts epochs that were started (shuffled).
	Epochs int
	// Evaluations counts gradient calls.
	Evaluations int
	// Updates counts applied steps.
	Updates int
	// Converged is set when the stability counter ended the run early.
	Converged bool
}

// Fingerprint hashes the bit patterns of X and Trace. Two runs with the
// same inputs and seed produce the same fingerprint.
func (r *Result) Fingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	write := func(v float64) {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		_, _ = h.Write(buf[:])
	}
	if r.X != nil {
		for i := 0; i < r.X.Len(); i++ {
			write(r.X.AtVec(i))
		}
	}
	for _, v := range r.Trace {
		write(v)
	}
	return h.Sum64()
}

// Optimizer runs SGD with a fixed gradient function and configuration.
type Optimizer struct {
	grad GradientFunc
	cfg  Config
}

// New validates everything that does not depend on the data.
func New(grad GradientFunc, cfg Config) (*Optimizer, error) {
	if grad == nil {
		return nil, invalidArgument("gradient", nil, "must be a callable function")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.LearnRate = append([]float64(nil), cfg.LearnRate...)
	if cfg.Seed != nil {
		seed := *cfg.Seed
		cfg.Seed = &seed
	}
	return &Optimizer{grad: grad, cfg: cfg}, nil
}

// Optimize is New followed by Run.
func Optimize(grad GradientFunc, a mat.Matrix, b, truth, init mat.Vector, cfg Config) (*Result, error) {
	o, err := New(grad, cfg)
	if err != nil {
		return nil, err
	}
	return o.Run(a, b, truth, init)
}

// run is the mutable state of a single call to Run.
type run struct {
	*Result
	grad   GradientFunc
	prec   Precision
	table  *table
	rate   []float64
	tol    float64
	truth  []float64
	step   []float64
	stable int
}

// Run starts from init and returns the final estimate. truth may be nil.
func (o *Optimizer) Run(a mat.Matrix, b, truth, init mat.Vector) (*Result, error) {
	r, err := o.prepare(a, b, truth, init)
	if err != nil {
		return nil, err
	}

	rng := o.cfg.source()
	bounds := r.table.batches(o.cfg.BatchSize)

	for epoch := 0; epoch < o.cfg.Epochs; epoch++ {
		if r.stable > StableBatchLimit {
			r.Converged = true
			break
		}
		r.Epochs++
		r.table.shuffle(rng)

		for _, bound := range bounds {
			applied, err := r.batch(bound[0], bound[1])
			if err != nil {
				return nil, err
			}
			if !applied {
				break
			}
		}
		if o.cfg.Logger != nil {
			o.cfg.Logger.Printf("epoch %d: updates=%d stable=%d", epoch, r.Updates, r.stable)
		}
	}
	return r.Result, nil
}

func (o *Optimizer) prepare(a mat.Matrix, b, truth, init mat.Vector) (*run, error) {
	if a == nil || b == nil || init == nil {
		return nil, invalidArgument("data", nil, "A, b and init are required")
	}
	rows, cols := a.Dims()
	if b.Len() != rows {
		return nil, shapeMismatch("b", rows, b.Len())
	}
	if init.Len() != cols {
		return nil, shapeMismatch("init", cols, init.Len())
	}
	if truth != nil && truth.Len() != cols {
		return nil, shapeMismatch("ground_truth", cols, truth.Len())
	}
	if n := len(o.cfg.LearnRate); n != 1 && n != cols {
		return nil, shapeMismatch("learn_rate", cols, n)
	}
	if o.cfg.BatchSize > rows {
		return nil, invalidArgument("batch_size", o.cfg.BatchSize,
			"must be less than or equal to the number of training samples")
	}

	p := o.cfg.Precision
	rate := make([]float64, cols)
	for i := range rate {
		if len(o.cfg.LearnRate) == 1 {
			rate[i] = p.Round(o.cfg.LearnRate[0])
		} else {
			rate[i] = p.Round(o.cfg.LearnRate[i])
		}
	}

	r := &run{
		Result: &Result{X: p.vector(init)},
		grad:   o.grad,
		prec:   p,
		table:  newTable(a, b, p),
		rate:   rate,
		tol:    p.Round(o.cfg.Tolerance),
		step:   make([]float64, cols),
	}
	if truth != nil {
		r.truth = mat.VecDenseCopyOf(truth).RawVector().Data
		r.Trace = []float64{}
	}
	return r, nil
}

// batch evaluates the gradient on rows [start, stop) and applies the step
// unless it is within tolerance. It reports whether the step was applied.
func (r *run) batch(start, stop int) (bool, error) {
	a, b := r.table.batch(start, stop)
	g := r.grad(a, b, r.X)
	r.Evaluations++
	if g == nil {
		return false, shapeMismatch("gradient", len(r.step), 0)
	}
	if g.Len() != len(r.step) {
		return false, shapeMismatch("gradient", len(r.step), g.Len())
	}

	stable := true
	for i := range r.step {
		s := r.prec.Round(r.rate[i] * r.prec.Round(g.AtVec(i)))
		r.step[i] = s
		if !(math.Abs(s) <= r.tol) {
			stable = false
		}
	}
	if stable {
		r.stable++
		return false, nil
	}
	r.stable = 0

	x := r.X.RawVector().Data
	for i, s := range r.step {
		x[i] = r.prec.Round(x[i] - s)
	}
	r.Updates++
	if r.truth != nil {
		r.Trace = append(r.Trace, floats.Distance(r.truth, x, 2))
	}
	return true, nil
}
