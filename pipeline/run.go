package pipeline

import (
	"fmt"

	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/record"
)

// iteratorQueueCapacity bounds the channel an iterator sink drains
// into. It is generous rather than truly unbounded (spec §9 calls for
// "an unbounded channel fed by the sink worker"); a consumer that
// falls far enough behind this capacity simply applies backpressure to
// the graph like any other bounded edge, which is a safe, if not
// literal, reading of that guidance.
const iteratorQueueCapacity = 4096

// Run starts the graph and blocks until it finishes, returning the
// first error observed by any stage, if any (spec §4.1, §6's
// "pipeline.run()").
func (p *Pipeline) Run() error {
	if p.buildErr != nil {
		return p.buildErr
	}
	if err := p.checkNotStarted(); err != nil {
		return err
	}
	p.started = true
	return p.g.Run()
}

// Iterator is returned by Iterate; it yields the pipeline's final
// output records as the graph runs concurrently in the background.
type Iterator struct {
	ch   chan *record.Record
	done chan error
	err  error
}

// Next returns the next record, or ok=false once the pipeline has
// produced its last record. Callers must drain Next to ok=false before
// relying on Err; Iterator has no Close or other way to stop early.
func (it *Iterator) Next() (*record.Record, bool) {
	r, ok := <-it.ch
	if !ok {
		it.err = <-it.done
	}
	return r, ok
}

// Err returns the pipeline's final error, valid only after Next has
// returned ok=false.
func (it *Iterator) Err() error { return it.err }

// Iterate adds an iterator sink and starts the graph, per spec §4.7:
// "Iterating a pipeline adds an iterator sink on the fly and starts
// the graph." The graph runs on its own goroutines; Iterate returns
// immediately with an Iterator the caller drains.
func (p *Pipeline) Iterate() (*Iterator, error) {
	if p.buildErr != nil {
		return nil, p.buildErr
	}
	if err := p.checkNotStarted(); err != nil {
		return nil, err
	}

	it := &Iterator{
		ch:   make(chan *record.Record, iteratorQueueCapacity),
		done: make(chan error, 1),
	}
	process := func(in graph.Iterator) graph.Iterator {
		return &channelSinkIterator{in: in, ch: it.ch}
	}
	p.g.NewSink("sink.iterator", p.current, process, nil, nil)

	p.started = true
	go func() {
		err := p.g.Run()
		close(it.ch)
		it.done <- err
	}()
	return it, nil
}

type channelSinkIterator struct {
	in graph.Iterator
	ch chan<- *record.Record
}

func (c *channelSinkIterator) Next() (*record.Record, bool) {
	r, ok := c.in.Next()
	if !ok {
		return nil, false
	}
	c.ch <- r
	return r, true
}

// Dict renders the underlying graph as a nested map (spec §4.1's
// dict(), exposed here as a debugging/introspection helper since the
// graph itself is unexported).
func (p *Pipeline) Dict() map[string]interface{} {
	return p.g.Dict()
}

// Concat appends other's output after this pipeline's own, into a
// single node named explicitly via attachAs (spec §4.7: "Concatenating
// one pipeline onto another requires naming the attachment node
// explicitly"). other keeps its own taps and runs to completion as its
// own independent graph (grounded on original_source/wingline/pipeline
// .py's IteratorSink, reused here via Iterate); its records are
// appended only once this pipeline's own current output is exhausted.
// other must not have been started; after Concat, other must not be
// used independently. Because the result depends on other's content in
// a way this package cannot fingerprint generically, the attachment
// node's hash is always invalid, so no stage built on top of it has a
// hash either: with WithCacheDir set, attaching such a stage fails the
// build with cache.ErrHashUnavailable.
func (p *Pipeline) Concat(attachAs string, other *Pipeline) *Pipeline {
	if p.buildErr != nil {
		return p
	}
	if err := p.checkNotStarted(); err != nil {
		return p.fail(err)
	}
	if other.buildErr != nil {
		return p.fail(other.buildErr)
	}
	if other.started {
		return p.fail(fmt.Errorf("pipeline: concat source %w", ErrAlreadyStarted))
	}

	var attach *graph.Node
	process := func(in graph.Iterator) graph.Iterator {
		return &concatIterator{first: in, other: other, node: attach}
	}
	attach = p.g.NewPipe(attachAs, p.current, hashid.Hash{}, process)
	p.current = attach
	return p
}

// concatIterator drains first (this pipeline's own output) completely,
// then starts other's graph and drains its output, surfacing any
// failure from either side through node.
type concatIterator struct {
	first   graph.Iterator
	other   *Pipeline
	node    *graph.Node
	second  *Iterator
	started bool
}

func (c *concatIterator) Next() (*record.Record, bool) {
	if c.first != nil {
		if r, ok := c.first.Next(); ok {
			return r, true
		}
		c.first = nil
	}
	if !c.started {
		c.started = true
		it, err := c.other.Iterate()
		if err != nil {
			c.node.FailGraph(fmt.Errorf("pipeline: concat: start source: %w", err))
			return nil, false
		}
		c.second = it
	}
	r, ok := c.second.Next()
	if !ok {
		if err := c.second.Err(); err != nil {
			c.node.FailGraph(fmt.Errorf("pipeline: concat: %w", err))
		}
		return nil, false
	}
	return r, true
}
