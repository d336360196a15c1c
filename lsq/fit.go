package lsq

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

func residuals(a mat.Matrix, b, x mat.Vector) *mat.VecDense {
	rows, _ := a.Dims()
	r := mat.NewVecDense(rows, nil)
	r.MulVec(a, x)
	r.SubVec(b, r)
	return r
}

// SSE is the sum of squared errors of the fit x.
func SSE(a mat.Matrix, b, x mat.Vector) float64 {
	r := residuals(a, b, x)
	return mat.Dot(r, r)
}

// SST is the total sum of squares of b around its mean.
func SST(b mat.Vector) float64 {
	y := mat.Col(nil, 0, b)
	m := stat.Mean(y, nil)
	s := 0.0
	for _, v := range y {
		d := v - m
		s += d * d
	}
	return s
}

// RSquared is the coefficient of determination 1 - SSE/SST.
func RSquared(a mat.Matrix, b, x mat.Vector) float64 {
	sst := SST(b)
	if sst == 0 {
		return math.NaN()
	}
	return 1 - SSE(a, b, x)/sst
}

// Cost is the mean squared residual, SSE / rows.
func Cost(a mat.Matrix, b, x mat.Vector) float64 {
	rows, _ := a.Dims()
	if rows == 0 {
		return 0
	}
	return SSE(a, b, x) / float64(rows)
}

// ConvergenceRate fits log(trace[i]) = c + m*i and returns m and c. A
// negative m means the error shrinks by a factor of exp(m) per step.
// Non-positive entries carry no information on a log scale and are skipped.
func ConvergenceRate(trace []float64) (m, c float64, ok bool) {
	var xs, ys []float64
	for i, v := range trace {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xs = append(xs, float64(i))
		ys = append(ys, math.Log(v))
	}
	if len(xs) < 2 {
		return 0, 0, false
	}
	c, m = stat.LinearRegression(xs, ys, nil, false)
	return m, c, true
}
