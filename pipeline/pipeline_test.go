package pipeline_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HappyEinara/wingline/internal/cache"
	"github.com/HappyEinara/wingline/internal/fileio"
	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/record"
	"github.com/HappyEinara/wingline/internal/stages"
	"github.com/HappyEinara/wingline/pipeline"
)

func intRecord(n int) *record.Record {
	r := record.New()
	r.Set("n", record.Int(int64(n)))
	return r
}

func intRecords(count int) []*record.Record {
	out := make([]*record.Record, count)
	for i := range out {
		out[i] = intRecord(i)
	}
	return out
}

func addOne(field string) graph.EachProcess {
	return func(r *record.Record) (*record.Record, bool) {
		v, ok := r.Get(field)
		if !ok {
			return r, true
		}
		out := r.Clone()
		out.Set(field, record.Int(v.Int()+1))
		return out, true
	}
}

// S1: two in-memory each-stages chained, both applied in order.
func TestAddOneTwiceInMemory(t *testing.T) {
	p := pipeline.FromSlice(intRecords(3)).
		Each("add-one", addOne("n")).
		Each("add-one", addOne("n"))

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
	assert.Equal(t, []int64{2, 3, 4}, got)
}

// S2: Head/Tail windowed stages.
func TestHeadAndTail(t *testing.T) {
	headResult, err := pipeline.FromSlice(intRecords(10)).
		All("", stages.Head(3)).
		Iterate()
	require.NoError(t, err)
	var head []int64
	for {
		r, ok := headResult.Next()
		if !ok {
			break
		}
		v, _ := r.Get("n")
		head = append(head, v.Int())
	}
	require.NoError(t, headResult.Err())
	assert.Equal(t, []int64{0, 1, 2}, head)

	tailResult, err := pipeline.FromSlice(intRecords(10)).
		All("", stages.Tail(3)).
		Iterate()
	require.NoError(t, err)
	var tail []int64
	for {
		r, ok := tailResult.Next()
		if !ok {
			break
		}
		v, _ := r.Get("n")
		tail = append(tail, v.Int())
	}
	require.NoError(t, tailResult.Err())
	assert.Equal(t, []int64{7, 8, 9}, tail)
}

// S3: write JSONLines to disk.
func TestWriteJSONLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl")

	err := pipeline.FromSlice(intRecords(5)).Write(path).Run()
	require.NoError(t, err)

	r, err := fileio.OpenDetect(path)
	require.NoError(t, err)
	defer r.Close()

	var count int
	for {
		_, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 5, count)
}

// S4: cache hit on the second run must not re-invoke the stage function.
func TestCacheHitSkipsStageOnSecondRun(t *testing.T) {
	dir := t.TempDir()

	calls := 0
	fn := func(r *record.Record) (*record.Record, bool) {
		calls++
		return r, true
	}

	p1 := pipeline.FromSlice(intRecords(4), pipeline.WithCacheDir(filepath.Join(dir, "cache"), 64)).
		Each("counted", fn)
	it1, err := p1.Iterate()
	require.NoError(t, err)
	for {
		_, ok := it1.Next()
		if !ok {
			break
		}
	}
	require.NoError(t, it1.Err())
	firstCalls := calls

	p2 := pipeline.FromSlice(intRecords(4), pipeline.WithCacheDir(filepath.Join(dir, "cache"), 64)).
		Each("counted", fn)
	it2, err := p2.Iterate()
	require.NoError(t, err)
	for {
		_, ok := it2.Next()
		if !ok {
			break
		}
	}
	require.NoError(t, it2.Err())

	assert.Equal(t, 4, firstCalls)
	assert.Equal(t, firstCalls, calls, "second run must not re-invoke the cached stage")
}

// Caching a stage atop a non-deterministic source must fail the build
// rather than silently skip the cache (spec §7's HashUnavailable).
func TestCacheRequiresValidHash(t *testing.T) {
	dir := t.TempDir()
	calls := 0
	next := func() (*record.Record, bool) {
		calls++
		if calls > 3 {
			return nil, false
		}
		return intRecord(calls), true
	}

	p := pipeline.FromIterator(next, pipeline.WithCacheDir(filepath.Join(dir, "cache"), 64)).
		Each("counted", addOne("n"))

	assert.ErrorIs(t, p.Err(), cache.ErrHashUnavailable)

	_, err := p.Iterate()
	assert.ErrorIs(t, err, cache.ErrHashUnavailable)
}

// S5: when the sink's writer setup fails, the graph aborts, the file
// already at the output path is left untouched, and no partial temp
// file is left behind (internal/fileio.Writer's atomic rename never runs).
func TestAtomicWriteDiscardedOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl")
	require.NoError(t, os.WriteFile(path, []byte("pre-existing"), 0o644))

	err := pipeline.FromSlice(intRecords(5)).Write(path).Run()
	assert.Error(t, err, "writing to an already-existing path must fail rather than overwrite it")

	contents, statErr := os.ReadFile(path)
	require.NoError(t, statErr)
	assert.Equal(t, "pre-existing", string(contents), "the original file must be untouched")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file should be left behind")
}

// S6: filetype detection handles suffix-popping across container+format.
func TestFiletypeDetectionSuffixPopping(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.jl.gz")

	require.NoError(t, pipeline.FromSlice(intRecords(85)).Write(path).Run())

	ft, err := fileio.Detect(path)
	require.NoError(t, err)
	assert.Equal(t, fileio.ContainerGzip, ft.Container)
	assert.Equal(t, fileio.FormatJSONLines, ft.Format)

	r, err := fileio.OpenDetect(path)
	require.NoError(t, err)
	defer r.Close()
	var count int
	for {
		_, ok, err := r.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		count++
	}
	assert.Equal(t, 85, count)
}
