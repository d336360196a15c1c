package sgd

import (
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// table holds A and b side by side as [A | b] so that a row permutation
// can never separate an observation from its target.
type table struct {
	data *mat.Dense
	rows int
	cols int // feature columns, b lives in column cols
}

func newTable(a mat.Matrix, b mat.Vector, p Precision) *table {
	rows, cols := a.Dims()
	data := mat.NewDense(rows, cols+1, nil)
	for i := 0; i < rows; i++ {
		row := data.RawRowView(i)
		for j := 0; j < cols; j++ {
			row[j] = p.Round(a.At(i, j))
		}
		row[cols] = p.Round(b.AtVec(i))
	}
	return &table{data: data, rows: rows, cols: cols}
}

// shuffle permutes the rows in place.
func (t *table) shuffle(rng *rand.Rand) {
	rng.Shuffle(t.rows, t.swap)
}

func (t *table) swap(i, j int) {
	ri, rj := t.data.RawRowView(i), t.data.RawRowView(j)
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

// batch returns views of rows [start, stop) split back into A and b.
func (t *table) batch(start, stop int) (mat.Matrix, mat.Vector) {
	a := t.data.Slice(start, stop, 0, t.cols)
	b := t.data.Slice(start, stop, t.cols, t.cols+1).(*mat.Dense).ColView(0)
	return a, b
}

// batches returns the [start, stop) bounds of every batch of size n; the
// final batch is short when rows is not a multiple of n.
func (t *table) batches(n int) [][2]int {
	out := make([][2]int, 0, (t.rows+n-1)/n)
	for start := 0; start < t.rows; start += n {
		out = append(out, [2]int{start, min(start+n, t.rows)})
	}
	return out
}
