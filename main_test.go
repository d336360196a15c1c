package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stojg/lstsq/trace"
)

func TestParseLearnRate(t *testing.T) {
	rates, err := parseLearnRate("0.1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1}, rates)

	rates, err = parseLearnRate("0.1, 0.2,0.3")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, rates)

	_, err = parseLearnRate("fast")
	require.Error(t, err)
}

func TestNewExperimentFromFlags(t *testing.T) {
	exp, err := newExperiment()
	require.NoError(t, err)
	assert.Equal(t, rows, exp.data.Rows)
	assert.Equal(t, cols, exp.data.Cols)
	assert.Equal(t, float64(cols)/40, exp.data.Noise)
	assert.Equal(t, []float64{0.001}, exp.sgd.LearnRate)
	assert.Nil(t, exp.sgd.Logger)
	assert.Equal(t, "zeros", exp.init)
	assert.Nil(t, exp.sgd.Seed)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "image/png", contentType("PNG"))
	assert.Equal(t, "image/svg+xml", contentType("svg"))
	assert.Equal(t, "application/octet-stream", contentType("tiff"))
}

func TestArtifactsWriteFiles(t *testing.T) {
	r, err := runExperiment(testExperiment())
	require.NoError(t, err)

	dir := t.TempDir()
	list := artifacts(r, trace.Zstd)
	require.Len(t, list, 3)

	for _, a := range list {
		path := filepath.Join(dir, a.name)
		require.NoError(t, saveArtifact(path, a))
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}

	f, err := os.Open(filepath.Join(dir, "sgd-trace.csv.zst"))
	require.NoError(t, err)
	defer f.Close()
	values, err := trace.Read(f, trace.Zstd)
	require.NoError(t, err)
	assert.Equal(t, r.result.Trace, values)
}

func TestArtifactsWithoutTrace(t *testing.T) {
	r, err := runExperiment(testExperiment())
	require.NoError(t, err)
	r.result.Trace = nil

	list := artifacts(r, trace.None)
	require.Len(t, list, 1)
	assert.Equal(t, "sgd-compare.png", list[0].name)
}
