package graph

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/queue"
	"github.com/HappyEinara/wingline/internal/record"
	"go.uber.org/zap"
)

// QueueCapacity is the default bound on every inter-node queue, per
// spec §4.1's "bounded FIFO" edges. Graph.New accepts an override; see
// Settings.QueueCapacity in internal/config.
const QueueCapacity = 64

// Graph owns the nodes of one pipeline and runs the activation and
// scheduling algorithm described in spec §4.1 and §9.
//
// Grounded on original_source/wingline/graph.py's PipelineGraph (taps,
// sinks, parent-walk activation) and original_source/wingline/plumbing
// /execution.py's ExecutionPlan (the cache-reader ancestor-deactivation
// walk).
type Graph struct {
	mu      sync.Mutex
	nodes   []*Node
	taps    []*Node
	sinks   []*Node
	started bool

	abortFlag int32
	abortErr  atomic.Value // error

	logger        *zap.Logger
	queueCapacity int
}

// New creates an empty graph. A nil logger disables stage-failure
// logging (callers typically pass a *zap.Logger from internal/wlog).
// queueCapacity bounds every inter-node queue this graph creates; 0
// falls back to QueueCapacity.
func New(logger *zap.Logger, queueCapacity int) *Graph {
	if queueCapacity <= 0 {
		queueCapacity = QueueCapacity
	}
	return &Graph{logger: logger, queueCapacity: queueCapacity}
}

func (g *Graph) aborted() bool { return atomic.LoadInt32(&g.abortFlag) != 0 }

func (g *Graph) setAbort(err error) {
	if atomic.CompareAndSwapInt32(&g.abortFlag, 0, 1) {
		g.abortErr.Store(err)
	}
}

// Abort requests cooperative cancellation: every node's worker checks
// this flag at each queue wait and record boundary (spec §4.2, §5's
// "abort is checked ... no thread is ever force-killed").
func (g *Graph) Abort() { g.setAbort(fmt.Errorf("aborted")) }

// Fail records err as the graph's first failure and requests abort,
// for callers outside a Node's own worker loop (e.g. a tap source that
// detects a read error after its iterator reports simple exhaustion).
func (g *Graph) Fail(err error) { g.setAbort(err) }

// Err returns the first failure recorded by any node, or nil.
func (g *Graph) Err() error {
	v := g.abortErr.Load()
	if v == nil {
		return nil
	}
	return v.(error)
}

func (g *Graph) register(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n.g = g
	n.logger = g.logger
	g.nodes = append(g.nodes, n)
	switch n.kind {
	case KindTap, KindCacheReader:
		g.taps = append(g.taps, n)
	case KindSink:
		g.sinks = append(g.sinks, n)
	}
}

// NewTap creates a source node with no execution parent. source is
// called once on the node's worker goroutine; it must push every
// record to the returned node via Node's internal wiring (use
// SourceFromSlice or SourceFromFunc for the common cases) and return when
// exhausted or when the graph aborts.
func (g *Graph) NewTap(name string, hash hashid.Hash, source func(n *Node)) *Node {
	n := &Node{
		name:      name,
		kind:      KindTap,
		hash:      hash,
		tapSource: source,
		doneCh:    make(chan struct{}),
	}
	g.register(n)
	return n
}

// NewPipe creates a transform node wired to read from parent's output.
// process implements the stage's transformation (spec §4.2). hash is
// the stage's combined content-hash identity (Hash{} disables caching
// for this and all descendant stages, per spec §3).
func (g *Graph) NewPipe(name string, parent *Node, hash hashid.Hash, process AllProcess) *Node {
	n := &Node{
		name:       name,
		kind:       KindPipe,
		hash:       hash,
		execParent: parent,
		process:    process,
		inbound:    queue.New(name+".in", g.queueCapacity),
		doneCh:     make(chan struct{}),
	}
	parent.addChild(n)
	g.register(n)
	return n
}

// NewSink creates a terminal (or tee) node. consume is invoked as an
// AllProcess so a writer-sink can both persist and pass records
// through to further children (spec §4.4's multi-consumer fan-out).
// Sinks inherit their parent's hash (spec §4.4: hash is not meaningful
// past a terminal, but is kept for dict()/diagnostics).
func (g *Graph) NewSink(name string, parent *Node, consume AllProcess, setup func() error, teardown func(success bool) error) *Node {
	n := &Node{
		name:       name,
		kind:       KindSink,
		hash:       parent.hash,
		execParent: parent,
		process:    consume,
		setupFn:    setup,
		teardownFn: teardown,
		inbound:    queue.New(name+".in", g.queueCapacity),
		doneCh:     make(chan struct{}),
		active:     true, // sinks are always active; see Activate
	}
	parent.addChild(n)
	g.register(n)
	return n
}

// NewCacheReader creates a tap-like node that replaces original in the
// wiring: its children now read from the cache reader instead of from
// original, and original's ancestor chain is deactivated by Activate
// (spec §4.6: "On a cache hit, the stage and its ancestors are
// replaced in the active graph by a single cache-reading tap").
// Name, hash are the replaced stage's; source streams decoded cache
// records.
func (g *Graph) NewCacheReader(name string, hash hashid.Hash, original *Node, source func(n *Node)) *Node {
	n := &Node{
		name:         name,
		kind:         KindCacheReader,
		hash:         hash,
		shadowParent: original,
		tapSource:    source,
		doneCh:       make(chan struct{}),
	}
	g.register(n)
	return n
}

// NewCacheWriter creates an inline pass-through node that both persists
// every record it sees (via persist) and forwards it unchanged, sitting
// between parent and parent's original children (spec §4.6: "On a cache
// miss, a cache-writing pipe is inserted between the stage and its
// children").
func (g *Graph) NewCacheWriter(name string, parent *Node, persist func(r *record.Record) error, setup func() error, teardown func(success bool) error) *Node {
	process := func(in Iterator) Iterator {
		return &persistIterator{in: in, persist: persist}
	}
	n := &Node{
		name:       name,
		kind:       KindCacheWriter,
		hash:       parent.hash,
		execParent: parent,
		process:    process,
		setupFn:    setup,
		teardownFn: teardown,
		inbound:    queue.New(name+".in", g.queueCapacity),
		doneCh:     make(chan struct{}),
	}
	parent.addChild(n)
	g.register(n)
	return n
}

type persistIterator struct {
	in      Iterator
	persist func(r *record.Record) error
	failed  bool
}

func (it *persistIterator) Next() (*record.Record, bool) {
	r, ok := it.in.Next()
	if !ok {
		return nil, false
	}
	if !it.failed {
		if err := it.persist(r); err != nil {
			it.failed = true
		}
	}
	return r, true
}

// Activate runs the two-pass activation algorithm (spec §4.1, §9):
// pass one marks every ancestor of every sink active; pass two walks
// each cache-reader's shadow-parent chain and deactivates it, so a
// cached branch's un-cached originals are never started.
func (g *Graph) Activate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.activateLocked()
}

func (g *Graph) activateLocked() {
	for _, sink := range g.sinks {
		for p := sink; p != nil; p = p.execParent {
			p.active = true
		}
	}
	for _, n := range g.nodes {
		if n.kind == KindCacheReader {
			n.active = true
			for p := n.shadowParent; p != nil; p = p.execParent {
				p.active = false
			}
		}
	}
}

// Run activates the graph (if not already) and starts every active
// node's worker goroutine, then blocks until all of them finish. It
// returns the first error recorded by any node, or the "aborted" error
// recorded by Abort, if any (spec §4.1's "Start/join").
func (g *Graph) Run() error {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return fmt.Errorf("graph already started")
	}
	g.started = true
	g.activateLocked()
	active := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		if n.active {
			active = append(active, n)
		}
	}
	g.mu.Unlock()

	var wg sync.WaitGroup
	for _, n := range active {
		n.started = true
		wg.Add(1)
		go func(n *Node) {
			defer wg.Done()
			n.runWorker()
		}(n)
	}
	wg.Wait()

	return g.Err()
}

// Started reports whether Run has been called (spec §4.7's
// AlreadyStarted enforcement lives in the pipeline package, which
// checks this).
func (g *Graph) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// Nodes returns every registered node, active or not (for Dict/introspection).
func (g *Graph) Nodes() []*Node { return append([]*Node(nil), g.nodes...) }

// Taps returns every tap and cache-reader node.
func (g *Graph) Taps() []*Node { return append([]*Node(nil), g.taps...) }

// Sinks returns every sink node.
func (g *Graph) Sinks() []*Node { return append([]*Node(nil), g.sinks...) }

// Dict renders the graph as a nested map keyed by node name, suitable
// for pretty-printing or JSON encoding (spec §4.1's "dict()" debug
// view, grounded on graph.py's PipelineGraph.dict property).
func (g *Graph) Dict() map[string]interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make(map[string]interface{}, len(g.taps))
	for _, tap := range g.taps {
		out[tap.name] = nodeDict(tap)
	}
	return out
}

func nodeDict(n *Node) map[string]interface{} {
	children := make(map[string]interface{}, len(n.children))
	for _, c := range n.children {
		children[c.name] = nodeDict(c)
	}
	return map[string]interface{}{
		"kind":     n.kind.String(),
		"hash":     n.hash.String(),
		"active":   n.active,
		"children": children,
	}
}
