package pipeline_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HappyEinara/wingline/pipeline"
)

func TestFromGlobConcatenatesMatchedFilesInSortedOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, pipeline.FromSlice(intRecords(2)).Write(filepath.Join(dir, "b.jl")).Run())
	require.NoError(t, pipeline.FromSlice(intRecords(3)).Write(filepath.Join(dir, "a.jl")).Run())

	p, err := pipeline.FromGlob(filepath.Join(dir, "*.jl"))
	require.NoError(t, err)

	it, err := p.Iterate()
	require.NoError(t, err)
	var got []int64
	for {
		r, ok := it.Next()
		if !ok {
			break
		}
		v, _ := r.Get("n")
		got = append(got, v.Int())
	}
	require.NoError(t, it.Err())
	// a.jl sorts before b.jl: its 3 records (0,1,2) come first.
	assert.Equal(t, []int64{0, 1, 2, 0, 1}, got)
}

func TestFromGlobFailsWithNoMatches(t *testing.T) {
	dir := t.TempDir()
	_, err := pipeline.FromGlob(filepath.Join(dir, "*.nope"))
	assert.Error(t, err)
}

func TestFromGlobHashIsStableAndSensitiveToFileSet(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, pipeline.FromSlice(intRecords(1)).Write(filepath.Join(dir, "a.jl")).Run())

	p1, err := pipeline.FromGlob(filepath.Join(dir, "*.jl"))
	require.NoError(t, err)
	p2, err := pipeline.FromGlob(filepath.Join(dir, "*.jl"))
	require.NoError(t, err)
	assert.Equal(t, p1.Dict(), p2.Dict())

	require.NoError(t, pipeline.FromSlice(intRecords(1)).Write(filepath.Join(dir, "b.jl")).Run())
	p3, err := pipeline.FromGlob(filepath.Join(dir, "*.jl"))
	require.NoError(t, err)
	assert.NotEqual(t, p1.Dict(), p3.Dict())
}
