package sgd

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestTableShufflePreservesPairs(t *testing.T) {
	a := mat.NewDense(5, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
		5, 50,
	})
	b := mat.NewVecDense(5, []float64{-1, -2, -3, -4, -5})
	tab := newTable(a, b, Float64)

	rng := NewRand(3)
	for i := 0; i < 10; i++ {
		tab.shuffle(rng)
		var firsts []float64
		for r := 0; r < tab.rows; r++ {
			row := tab.data.RawRowView(r)
			require.Equal(t, 10*row[0], row[1])
			require.Equal(t, -row[0], row[2])
			firsts = append(firsts, row[0])
		}
		assert.ElementsMatch(t, []float64{1, 2, 3, 4, 5}, firsts)
	}
}

func TestTableBatches(t *testing.T) {
	tab := newTable(mat.NewDense(10, 1, nil), mat.NewVecDense(10, nil), Float64)

	assert.Equal(t, [][2]int{{0, 4}, {4, 8}, {8, 10}}, tab.batches(4))
	assert.Equal(t, [][2]int{{0, 10}}, tab.batches(10))
	assert.Len(t, tab.batches(1), 10)
}

func TestTableBatchViews(t *testing.T) {
	a := mat.NewDense(3, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
	})
	b := mat.NewVecDense(3, []float64{7, 8, 9})
	tab := newTable(a, b, Float64)

	ba, bb := tab.batch(1, 3)
	r, c := ba.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 3.0, ba.At(0, 0))
	assert.Equal(t, 6.0, ba.At(1, 1))
	assert.Equal(t, 2, bb.Len())
	assert.Equal(t, 8.0, bb.AtVec(0))
	assert.Equal(t, 9.0, bb.AtVec(1))
}

func TestPrecision(t *testing.T) {
	p, err := ParsePrecision("float32")
	require.NoError(t, err)
	assert.Equal(t, Float32, p)
	assert.Equal(t, "float32", p.String())

	p, err = ParsePrecision("")
	require.NoError(t, err)
	assert.Equal(t, Float64, p)

	_, err = ParsePrecision("float16")
	require.ErrorIs(t, err, ErrInvalidArgument)

	assert.Equal(t, 0.1, Float64.Round(0.1))
	assert.Equal(t, float64(float32(0.1)), Float32.Round(0.1))
	assert.NotEqual(t, 0.1, Float32.Round(0.1))

	v := Float32.vector(mat.NewVecDense(2, []float64{0.1, 0.2}))
	assert.Equal(t, []float64{float64(float32(0.1)), float64(float32(0.2))}, v.RawVector().Data)

	tab := newTable(mat.NewDense(1, 1, []float64{0.1}), mat.NewVecDense(1, []float64{0.3}), Float32)
	assert.Equal(t, []float64{float64(float32(0.1)), float64(float32(0.3))}, tab.data.RawRowView(0))
}
