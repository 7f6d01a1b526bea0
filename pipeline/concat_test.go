package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HappyEinara/wingline/pipeline"
)

func drainInts(t *testing.T, p *pipeline.Pipeline) []int64 {
	t.Helper()
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
	return got
}

// A bare tap concatenated directly, with no stage chained onto other.
func TestConcatBareSourceOntoTerminalNode(t *testing.T) {
	p := pipeline.FromSlice(intRecords(3)).             // 0,1,2
		Concat("after-first", pipeline.FromSlice(intRecords(2))). // 0,1
		Each("add-one", addOne("n"))

	got := drainInts(t, p)
	assert.Equal(t, []int64{1, 2, 3, 1, 2}, got)
}

// other keeps its own source and transforms; Concat runs it to
// completion independently and appends its output after p's.
func TestConcatWithChainedOtherPipeline(t *testing.T) {
	other := pipeline.FromSlice(intRecords(2)).Each("add-one", addOne("n")) // 1,2

	p := pipeline.FromSlice(intRecords(3)).Concat("joined", other) // 0,1,2,1,2

	got := drainInts(t, p)
	assert.Equal(t, []int64{0, 1, 2, 1, 2}, got)
}

func TestConcatRejectsAlreadyStartedSource(t *testing.T) {
	other := pipeline.FromSlice(intRecords(1))
	require.NoError(t, other.Run())

	p := pipeline.FromSlice(intRecords(1)).Concat("x", other)
	require.Error(t, p.Err())
}

// other need not be a single bare tap: whatever shape its own graph
// has, Concat runs it to completion and appends its output.
func TestConcatAcceptsNestedConcat(t *testing.T) {
	other := pipeline.FromSlice(intRecords(1)).Concat("nested", pipeline.FromSlice(intRecords(1))) // 0,0
	p := pipeline.FromSlice(intRecords(1)).Concat("y", other)                                      // 0,0,0

	got := drainInts(t, p)
	assert.Equal(t, []int64{0, 0, 0}, got)
}
