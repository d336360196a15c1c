// Package synth generates random least-squares problems with a known
// answer.
package synth

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Config describes the problem to draw. Truth and A entries are drawn from
// N(Mu, Sigma); each observation gets N(0, Noise) added.
type Config struct {
	Rows  int
	Cols  int
	Mu    float64
	Sigma float64
	Noise float64
}

// DefaultConfig returns a rows x cols problem with unit Gaussian entries
// and noise of cols/40.
func DefaultConfig(rows, cols int) Config {
	return Config{
		Rows:  rows,
		Cols:  cols,
		Mu:    0,
		Sigma: 1,
		Noise: float64(cols) / 40,
	}
}

// Problem is a design matrix, its observations and the vector that
// generated them.
type Problem struct {
	A     *mat.Dense
	B     *mat.VecDense
	Truth *mat.VecDense
}

// Generate draws a problem from rng.
func Generate(cfg Config, rng *rand.Rand) (*Problem, error) {
	if cfg.Rows <= 0 || cfg.Cols <= 0 {
		return nil, fmt.Errorf("problem must have at least one row and column, got %dx%d", cfg.Rows, cfg.Cols)
	}
	if cfg.Sigma <= 0 {
		return nil, fmt.Errorf("sigma must be positive, got %v", cfg.Sigma)
	}
	if cfg.Noise < 0 {
		return nil, fmt.Errorf("noise must not be negative, got %v", cfg.Noise)
	}

	normal := distuv.Normal{Mu: cfg.Mu, Sigma: cfg.Sigma, Src: rng}

	truth := mat.NewVecDense(cfg.Cols, nil)
	for i := 0; i < cfg.Cols; i++ {
		truth.SetVec(i, normal.Rand())
	}

	a := mat.NewDense(cfg.Rows, cfg.Cols, nil)
	for i := 0; i < cfg.Rows; i++ {
		for j := 0; j < cfg.Cols; j++ {
			a.Set(i, j, normal.Rand())
		}
	}

	b := mat.NewVecDense(cfg.Rows, nil)
	b.MulVec(a, truth)
	if cfg.Noise > 0 {
		noise := distuv.Normal{Mu: 0, Sigma: cfg.Noise, Src: rng}
		for i := 0; i < cfg.Rows; i++ {
			b.SetVec(i, b.AtVec(i)+noise.Rand())
		}
	}

	return &Problem{A: a, B: b, Truth: truth}, nil
}
