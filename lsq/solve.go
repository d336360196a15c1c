package lsq

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DefaultRcond is the relative cutoff below which singular values are
// treated as zero by PseudoInverse.
const DefaultRcond = 1e-12

// NormalEquations solves (AᵗA)x = Aᵗb through a Cholesky factorization.
// A must have full column rank.
func NormalEquations(a mat.Matrix, b mat.Vector) (*mat.VecDense, error) {
	rows, cols := a.Dims()
	if b.Len() != rows {
		return nil, fmt.Errorf("b has %d rows, A has %d", b.Len(), rows)
	}

	ata := mat.NewSymDense(cols, nil)
	ata.SymOuterK(1, a.T())

	atb := mat.NewVecDense(cols, nil)
	atb.MulVec(a.T(), b)

	var chol mat.Cholesky
	if ok := chol.Factorize(ata); !ok {
		return nil, fmt.Errorf("AᵗA is not positive definite, A is rank deficient")
	}

	x := mat.NewVecDense(cols, nil)
	if err := chol.SolveVecTo(x, atb); err != nil {
		return nil, fmt.Errorf("could not solve normal equations: %v", err)
	}
	return x, nil
}

// PseudoInverse returns A⁺b computed from the thin SVD of A. Singular
// values below rcond times the largest one are dropped, so the result is
// the minimum norm least-squares solution for any shape of A.
func PseudoInverse(a mat.Matrix, b mat.Vector, rcond float64) (*mat.VecDense, error) {
	rows, cols := a.Dims()
	if b.Len() != rows {
		return nil, fmt.Errorf("b has %d rows, A has %d", b.Len(), rows)
	}
	if rcond <= 0 {
		rcond = DefaultRcond
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, fmt.Errorf("could not factorize A")
	}
	values := svd.Values(nil)
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	// coef = Σ⁺ Uᵗ b
	coef := mat.NewVecDense(len(values), nil)
	coef.MulVec(u.T(), b)
	cutoff := 0.0
	if len(values) > 0 {
		cutoff = rcond * values[0]
	}
	for i, s := range values {
		if s <= cutoff {
			coef.SetVec(i, 0)
			continue
		}
		coef.SetVec(i, coef.AtVec(i)/s)
	}

	x := mat.NewVecDense(cols, nil)
	x.MulVec(&v, coef)
	return x, nil
}

// MinimumNorm returns Aᵗ(AAᵗ)⁻¹b, the minimum norm solution of an
// underdetermined system. A must have full row rank.
func MinimumNorm(a mat.Matrix, b mat.Vector) (*mat.VecDense, error) {
	rows, cols := a.Dims()
	if b.Len() != rows {
		return nil, fmt.Errorf("b has %d rows, A has %d", b.Len(), rows)
	}

	aat := mat.NewSymDense(rows, nil)
	aat.SymOuterK(1, a)

	var chol mat.Cholesky
	if ok := chol.Factorize(aat); !ok {
		return nil, fmt.Errorf("AAᵗ is not positive definite, A is rank deficient")
	}

	y := mat.NewVecDense(rows, nil)
	if err := chol.SolveVecTo(y, b); err != nil {
		return nil, fmt.Errorf("could not solve for minimum norm: %v", err)
	}

	x := mat.NewVecDense(cols, nil)
	x.MulVec(a.T(), y)
	return x, nil
}
