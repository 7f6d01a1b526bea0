// Package graph implements the plumbing graph: stages as nodes, queues
// as edges, and the activation/scheduling algorithm that runs them.
//
// Grounded on original_source/wingline/plumbing/base.py (Plumbing,
// Tap, Sink, PipeThread) and original_source/wingline/graph.py
// (PipelineGraph), with the concurrent scheduling idiom adapted from
// samgonzalez27-script-weaver/internal/dag/executor.go's
// mutex-guarded state machine.
package graph

import (
	"fmt"
	"io"

	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/queue"
	"github.com/HappyEinara/wingline/internal/record"
	"go.uber.org/zap"
)

// Kind distinguishes the roles a Node can play; it drives activation
// and start/join behaviour (spec §4.1, §4.3, §4.4, §4.6).
type Kind int

const (
	KindTap Kind = iota
	KindPipe
	KindSink
	KindCacheReader
	KindCacheWriter
)

func (k Kind) String() string {
	switch k {
	case KindTap:
		return "tap"
	case KindPipe:
		return "pipe"
	case KindSink:
		return "sink"
	case KindCacheReader:
		return "cache-reader"
	case KindCacheWriter:
		return "cache-writer"
	default:
		return "unknown"
	}
}

// Iterator yields records one at a time; Next returns ok=false once
// exhausted. It is the shape both the inbound-queue adapter and
// in-memory taps implement.
type Iterator interface {
	Next() (*record.Record, bool)
}

// AllProcess consumes a record iterator and yields a record iterator,
// per spec §4.2: "consumes a record iterator and yields a record
// iterator. Used for windowed operations."
type AllProcess func(in Iterator) Iterator

// EachProcess consumes one record and optionally returns one, per spec
// §4.2's "Each-process" shape.
type EachProcess func(r *record.Record) (*record.Record, bool)

// WrapEach lifts an EachProcess into an AllProcess, per spec §4.2:
// "Wrapped to become an all-process."
func WrapEach(fn EachProcess) AllProcess {
	return func(in Iterator) Iterator {
		return &eachIterator{in: in, fn: fn}
	}
}

type eachIterator struct {
	in Iterator
	fn EachProcess
}

func (it *eachIterator) Next() (*record.Record, bool) {
	for {
		r, ok := it.in.Next()
		if !ok {
			return nil, false
		}
		out, keep := it.fn(r)
		if keep {
			return out, true
		}
	}
}

// sliceIterator adapts a pre-built slice of records to Iterator, used
// by in-memory sequence/iterable taps.
type sliceIterator struct {
	items []*record.Record
	pos   int
}

func (it *sliceIterator) Next() (*record.Record, bool) {
	if it.pos >= len(it.items) {
		return nil, false
	}
	r := it.items[it.pos]
	it.pos++
	return r, true
}

// funcIterator adapts a pull function to Iterator, used by one-shot
// iterable taps that don't want to materialize a slice.
type funcIterator struct {
	next func() (*record.Record, bool)
}

func (it *funcIterator) Next() (*record.Record, bool) { return it.next() }

// Node is one stage in the plumbing graph.
type Node struct {
	name string
	kind Kind
	hash hashid.Hash

	g *Graph

	// execParent is who this node reads its inbound queue from; nil
	// for taps and cache-readers (both generate records from their own
	// source rather than consuming a parent's output).
	execParent *Node
	children   []*Node

	// shadowParent is set only on a cache-reader: the original node it
	// replaces in the wiring, kept so the activation walk can deactivate
	// that node's ancestor chain (spec §4.1's activation algorithm,
	// §4.6's "During activation, its ancestors are deactivated").
	shadowParent *Node

	inbound  *queue.Queue
	outbound []*queue.Queue

	// tapSource drives a tap's worker: it pushes records directly to
	// outbound and returns when exhausted or aborted. Set only for taps
	// and cache-readers.
	tapSource func(n *Node)

	process    AllProcess
	setupFn    func() error
	teardownFn func(success bool) error

	active  bool
	started bool
	doneCh  chan struct{}
	runErr  error

	logger *zap.Logger
}

// Name returns the node's diagnostic name.
func (n *Node) Name() string { return n.name }

// Kind returns the node's role.
func (n *Node) Kind() Kind { return n.kind }

// Hash returns the node's content-hash identity (spec §3); Hash().Valid()
// is false when caching is disabled on this branch.
func (n *Node) Hash() hashid.Hash { return n.hash }

// IsActive reports whether this node will be scheduled on Run (spec
// §4.1's activation flag).
func (n *Node) IsActive() bool { return n.active }

// Parent returns the execution parent, or nil for taps/cache-readers.
func (n *Node) Parent() *Node { return n.execParent }

// Graph returns the graph this node belongs to.
func (n *Node) Graph() *Graph { return n.g }

// FailGraph records err as the graph's first failure, for use by
// callers managing a node's source/sink resources outside the normal
// worker loop (e.g. detecting a read error only observable after an
// Iterator reports plain exhaustion).
func (n *Node) FailGraph(err error) { n.fail(err) }

// Aborted reports whether the graph has been asked to stop, for tap
// sources that loop over multiple underlying resources (e.g. a
// multi-file glob tap) and need to break out between resources rather
// than only between records.
func (n *Node) Aborted() bool { return n.g.aborted() }

// Children returns the node's children in registration order.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// AttachCloser arranges for c to be closed during this node's
// teardown, chained after any teardown hook already set. Used by file
// taps and sinks to release the underlying fileio.Reader/Writer
// without every caller re-deriving that plumbing.
func (n *Node) AttachCloser(c io.Closer) {
	prev := n.teardownFn
	n.teardownFn = func(success bool) error {
		var prevErr error
		if prev != nil {
			prevErr = prev(success)
		}
		if err := c.Close(); err != nil && prevErr == nil {
			return err
		}
		return prevErr
	}
}

func (n *Node) addChild(child *Node) {
	n.children = append(n.children, child)
	n.outbound = append(n.outbound, child.inbound)
}

// inboundIterator adapts a Node's inbound queue to Iterator, polling
// for abort at each wait (spec §4.2, §5's "bounded poll with timeout").
type inboundIterator struct {
	n *Node
}

func (it *inboundIterator) Next() (*record.Record, bool) {
	for {
		if it.n.g.aborted() {
			return nil, false
		}
		r, sentinel, ok := it.n.inbound.Get()
		if !ok {
			continue // poll timeout; re-check abort
		}
		if sentinel {
			return nil, false
		}
		return r, true
	}
}

func (n *Node) putOutbound(r *record.Record) bool {
	for _, q := range n.outbound {
		if n.g.aborted() {
			return false
		}
		q.Put(r)
	}
	return true
}

func (n *Node) sentinelOutbound() {
	for _, q := range n.outbound {
		q.PutSentinel()
	}
}

// runWorker executes this node's lifecycle: setup, process loop,
// sentinel propagation, teardown (spec §4.2's worker loop).
func (n *Node) runWorker() {
	defer close(n.doneCh)

	if n.tapSource != nil {
		n.runTap()
		return
	}

	if n.setupFn != nil {
		if err := n.setupFn(); err != nil {
			n.fail(fmt.Errorf("%s: setup: %w", n.name, err))
			n.sentinelOutbound()
			n.safeTeardown(false)
			return
		}
	}

	proc := n.process
	if proc == nil {
		proc = func(in Iterator) Iterator { return in }
	}

	out := proc(&inboundIterator{n: n})
	for {
		if n.g.aborted() {
			break
		}
		r, ok := out.Next()
		if !ok {
			break
		}
		if n.g.aborted() {
			break
		}
		n.putOutbound(r)
	}
	n.sentinelOutbound()
	n.safeTeardown(!n.g.aborted())
}

func (n *Node) runTap() {
	n.tapSource(n)
	n.sentinelOutbound()
	n.safeTeardown(!n.g.aborted())
}

func (n *Node) safeTeardown(success bool) {
	if n.teardownFn == nil {
		return
	}
	if err := n.teardownFn(success); err != nil {
		n.fail(fmt.Errorf("%s: teardown: %w", n.name, err))
	}
}

func (n *Node) fail(err error) {
	if n.logger != nil {
		n.logger.Error("stage failure", zap.String("stage", n.name), zap.Error(err))
	}
	n.g.setAbort(err)
	n.runErr = err
}
