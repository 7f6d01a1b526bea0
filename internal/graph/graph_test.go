package graph

import (
	"testing"
	"time"

	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/record"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recs(n int) []*record.Record {
	out := make([]*record.Record, n)
	for i := range out {
		r := record.New()
		r.Set("i", record.Int(int64(i)))
		out[i] = r
	}
	return out
}

func TestLinearPipelineDeliversAllRecords(t *testing.T) {
	g := New(nil, 0)
	tap := g.NewTap("tap", hashid.Hash{}, SourceFromSlice(recs(5)))
	pipe := g.NewPipe("double", tap, hashid.Hash{}, WrapEach(func(r *record.Record) (*record.Record, bool) {
		v, _ := r.Get("i")
		out := r.Clone()
		out.Set("i", record.Int(v.Int()*2))
		return out, true
	}))

	var got []int64
	sink := g.NewSink("collect", pipe, func(in Iterator) Iterator {
		return &collectIterator{in: in, out: &got}
	}, nil, nil)
	_ = sink

	require.NoError(t, g.Run())
	assert.Equal(t, []int64{0, 2, 4, 6, 8}, got)
}

type collectIterator struct {
	in  Iterator
	out *[]int64
}

func (c *collectIterator) Next() (*record.Record, bool) {
	r, ok := c.in.Next()
	if !ok {
		return nil, false
	}
	v, _ := r.Get("i")
	*c.out = append(*c.out, v.Int())
	return r, true
}

func TestEachProcessDropsFilteredRecords(t *testing.T) {
	g := New(nil, 0)
	tap := g.NewTap("tap", hashid.Hash{}, SourceFromSlice(recs(6)))
	evens := g.NewPipe("evens", tap, hashid.Hash{}, WrapEach(func(r *record.Record) (*record.Record, bool) {
		v, _ := r.Get("i")
		return r, v.Int()%2 == 0
	}))
	var got []int64
	g.NewSink("collect", evens, func(in Iterator) Iterator {
		return &collectIterator{in: in, out: &got}
	}, nil, nil)

	require.NoError(t, g.Run())
	assert.Equal(t, []int64{0, 2, 4}, got)
}

func TestActivateDeactivatesCacheReaderAncestors(t *testing.T) {
	g := New(nil, 0)
	tap := g.NewTap("tap", hashid.Hash{}, SourceFromSlice(recs(3)))
	pipe := g.NewPipe("uncached", tap, hashid.Hash{}, WrapEach(func(r *record.Record) (*record.Record, bool) { return r, true }))

	reader := g.NewCacheReader("cached-reader", hashid.Hash{}, pipe, SourceFromSlice(recs(3)))
	var got []int64
	sink := g.NewSink("collect", reader, func(in Iterator) Iterator {
		return &collectIterator{in: in, out: &got}
	}, nil, nil)
	_ = sink

	g.Activate()
	assert.True(t, reader.active)
	assert.False(t, tap.active)
	assert.False(t, pipe.active)
}

func TestAbortStopsWorkersPromptly(t *testing.T) {
	g := New(nil, 0)
	start := make(chan struct{})
	tap := g.NewTap("tap", hashid.Hash{}, func(n *Node) {
		close(start)
		for i := 0; ; i++ {
			if n.g.aborted() {
				return
			}
			r := record.New()
			n.putOutbound(r)
		}
	})
	g.NewSink("sink", tap, func(in Iterator) Iterator { return in }, nil, nil)

	done := make(chan error, 1)
	go func() { done <- g.Run() }()

	<-start
	g.Abort()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("graph did not stop after abort")
	}
}

func TestNewUsesConfiguredQueueCapacity(t *testing.T) {
	g := New(nil, 8)
	tap := g.NewTap("tap", hashid.Hash{}, SourceFromSlice(recs(1)))
	pipe := g.NewPipe("pipe", tap, hashid.Hash{}, WrapEach(func(r *record.Record) (*record.Record, bool) {
		return r, true
	}))
	assert.Equal(t, 8, pipe.inbound.Cap())
}

func TestNewNonPositiveQueueCapacityFallsBackToDefault(t *testing.T) {
	g := New(nil, 0)
	tap := g.NewTap("tap", hashid.Hash{}, SourceFromSlice(recs(1)))
	pipe := g.NewPipe("pipe", tap, hashid.Hash{}, WrapEach(func(r *record.Record) (*record.Record, bool) {
		return r, true
	}))
	assert.Equal(t, QueueCapacity, pipe.inbound.Cap())
}
