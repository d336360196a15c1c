package sgd

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Precision is the floating point width the optimizer keeps its state in.
type Precision int

const (
	Float64 Precision = iota
	Float32
)

// ParsePrecision accepts the usual dtype spellings.
func ParsePrecision(s string) (Precision, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "float64", "f64", "double", "":
		return Float64, nil
	case "float32", "f32", "single":
		return Float32, nil
	}
	return Float64, invalidArgument("precision", s, "must be float32 or float64")
}

func (p Precision) String() string {
	switch p {
	case Float64:
		return "float64"
	case Float32:
		return "float32"
	}
	return fmt.Sprintf("Precision(%d)", int(p))
}

func (p Precision) valid() bool {
	return p == Float64 || p == Float32
}

// Round returns v as it would be stored at width p.
func (p Precision) Round(v float64) float64 {
	if p == Float32 {
		return float64(float32(v))
	}
	return v
}

func (p Precision) roundSlice(s []float64) {
	if p != Float32 {
		return
	}
	for i, v := range s {
		s[i] = float64(float32(v))
	}
}

// vector copies v at width p.
func (p Precision) vector(v mat.Vector) *mat.VecDense {
	out := mat.VecDenseCopyOf(v)
	p.roundSlice(out.RawVector().Data)
	return out
}
