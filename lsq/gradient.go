// Package lsq holds the least-squares pieces around the optimizer: the
// batch gradient, closed-form reference solutions and fit diagnostics.
package lsq

import (
	"gonum.org/v1/gonum/mat"
)

// Gradient is the gradient of ||Ax - b||²/2 with respect to x,
// AᵗAx - Aᵗb, evaluated as Aᵗ(Ax - b).
func Gradient(a mat.Matrix, b, x mat.Vector) mat.Vector {
	rows, cols := a.Dims()
	r := mat.NewVecDense(rows, nil)
	r.MulVec(a, x)
	r.SubVec(r, b)

	g := mat.NewVecDense(cols, nil)
	g.MulVec(a.T(), r)
	return g
}
