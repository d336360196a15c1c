package main

import (
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/stojg/lstsq/lsq"
	"github.com/stojg/lstsq/sgd"
	"github.com/stojg/lstsq/synth"
)

// experiment is one synthetic problem solved by SGD and by the
// pseudo-inverse.
type experiment struct {
	data synth.Config
	// seed makes both the problem and the shuffling reproducible, a
	// negative seed draws fresh randomness.
	seed int64
	sgd  sgd.Config
	// init picks the starting point, see startingPoint.
	init string
	// solver names the closed-form reference, see solve.
	solver string
}

type report struct {
	problem   *synth.Problem
	result    *sgd.Result
	reference *mat.VecDense

	truthDistance     float64 // ||truth - x_hat||
	referenceDistance float64 // ||x_hat - x_ref||
	referenceError    float64 // ||truth - x_ref||
	cost              float64
	rSquared          float64
	rate              float64
	rateOK            bool
	elapsed           time.Duration
}

// rngs returns the source for the problem and the starting point, and the
// sgd config with its shuffle seed set. A negative seed leaves both random.
func (e experiment) rngs() (*rand.Rand, sgd.Config) {
	if e.seed < 0 {
		cfg := e.sgd
		cfg.Seed = nil
		return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())), cfg
	}
	seed := uint64(e.seed)
	return sgd.NewRand(seed), e.sgd.WithSeed(seed + 1)
}

// startingPoint returns zeros, or N(0, 1) draws for "random".
func startingPoint(method string, n int, rng *rand.Rand) (*mat.VecDense, error) {
	switch method {
	case "zeros", "":
		return mat.NewVecDense(n, nil), nil
	case "random":
		normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rng}
		x := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			x.SetVec(i, normal.Rand())
		}
		return x, nil
	}
	return nil, fmt.Errorf("unknown starting point %q", method)
}

func runExperiment(e experiment) (*report, error) {
	dataRng, cfg := e.rngs()

	problem, err := synth.Generate(e.data, dataRng)
	if err != nil {
		return nil, fmt.Errorf("could not generate problem: %w", err)
	}

	init, err := startingPoint(e.init, e.data.Cols, dataRng)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := sgd.Optimize(lsq.Gradient, problem.A, problem.B, problem.Truth, init, cfg)
	if err != nil {
		return nil, fmt.Errorf("could not run sgd: %w", err)
	}
	elapsed := time.Since(start)

	reference, err := solve(e.solver, problem.A, problem.B)
	if err != nil {
		return nil, fmt.Errorf("could not compute reference solution: %w", err)
	}

	xHat := result.X.RawVector().Data
	r := &report{
		problem:           problem,
		result:            result,
		reference:         reference,
		truthDistance:     floats.Distance(problem.Truth.RawVector().Data, xHat, 2),
		referenceDistance: floats.Distance(xHat, reference.RawVector().Data, 2),
		referenceError:    floats.Distance(problem.Truth.RawVector().Data, reference.RawVector().Data, 2),
		cost:              lsq.Cost(problem.A, problem.B, result.X),
		rSquared:          lsq.RSquared(problem.A, problem.B, result.X),
		elapsed:           elapsed,
	}
	r.rate, _, r.rateOK = lsq.ConvergenceRate(result.Trace)
	return r, nil
}

// solve computes the reference solution with the named method.
func solve(method string, a mat.Matrix, b mat.Vector) (*mat.VecDense, error) {
	switch method {
	case "pinv", "":
		return lsq.PseudoInverse(a, b, lsq.DefaultRcond)
	case "normal":
		return lsq.NormalEquations(a, b)
	case "minnorm":
		return lsq.MinimumNorm(a, b)
	}
	return nil, fmt.Errorf("unknown solver %q", method)
}

func (r *report) print(w io.Writer) {
	rows, cols := r.problem.A.Dims()
	res := r.result
	fmt.Fprintf(w, "problem: %d rows, %d features\n", rows, cols)
	fmt.Fprintf(w, "sgd: %d epochs, %d gradient evaluations, %d updates in %s\n",
		res.Epochs, res.Evaluations, res.Updates, r.elapsed.Round(time.Millisecond))
	if res.Converged {
		fmt.Fprintf(w, "sgd: stopped early after more than %d stable batches\n", sgd.StableBatchLimit)
	}
	fmt.Fprintf(w, "||truth - x_sgd||: %g\n", r.truthDistance)
	fmt.Fprintf(w, "||x_sgd - x_ref||: %g\n", r.referenceDistance)
	fmt.Fprintf(w, "||truth - x_ref||: %g\n", r.referenceError)
	fmt.Fprintf(w, "cost: %g, r²: %0.4f\n", r.cost, r.rSquared)
	if r.rateOK {
		fmt.Fprintf(w, "convergence: error shrinks %0.3g per step (log slope %0.3g)\n", 1-math.Exp(r.rate), r.rate)
	}
	fmt.Fprintf(w, "fingerprint: %016x\n", res.Fingerprint())
}
