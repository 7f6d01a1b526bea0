// Package pipeline is the fluent builder boundary (spec §4.7): it
// composes a internal/graph.Graph from taps, pipes, and sinks, placing
// cache reader/writer wrappers where the stage hash and cache
// directory call for them, and is not itself part of the engine core.
//
// Grounded on original_source/wingline/plumbing/builder surface
// described in spec §6's "Public constructor surface", with the
// chaining idiom adapted from
// _examples/scrapbird-breachline/application/app/query/pipeline.go's
// QueryPipeline.AddStage, generalized from a fixed query-stage list
// into an arbitrary user-composed graph.
package pipeline

import (
	"errors"
	"fmt"

	"github.com/HappyEinara/wingline/internal/cache"
	"github.com/HappyEinara/wingline/internal/fileio"
	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/record"
	"github.com/HappyEinara/wingline/internal/wlog"
	"go.uber.org/zap"
)

// ErrAlreadyStarted is returned by any builder method or Iterate/Run
// called a second time on the same Pipeline (spec §4.7, §7).
var ErrAlreadyStarted = errors.New("pipeline: already started")

// Pipeline is a single graph under construction or already run. Zero
// value is not usable; create one with FromSlice or FromFile.
type Pipeline struct {
	g             *graph.Graph
	store         *cache.Store
	current       *graph.Node
	started       bool
	buildErr      error
	logger        *zap.Logger
	queueCapacity int
}

// Option configures a Pipeline at construction time.
type Option func(*Pipeline)

// WithCacheDir enables content-addressed caching rooted at dir (spec
// §4.6). memCapacity sizes the in-memory hit/miss LRU fronting the
// disk cache; 0 disables it.
func WithCacheDir(dir string, memCapacity int) Option {
	return func(p *Pipeline) {
		p.store = cache.New(dir, memCapacity)
	}
}

// WithLogger overrides the default logger (internal/wlog.Default()).
func WithLogger(logger *zap.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithQueueCapacity overrides the bound on every inter-node queue in
// this pipeline's graph (spec §9's "bounded, to apply backpressure").
// capacity <= 0 leaves internal/graph's own default in place.
func WithQueueCapacity(capacity int) Option {
	return func(p *Pipeline) {
		p.queueCapacity = capacity
	}
}

func newPipeline(opts []Option) *Pipeline {
	p := &Pipeline{logger: wlog.Default()}
	for _, opt := range opts {
		opt(p)
	}
	p.g = graph.New(p.logger, p.queueCapacity)
	return p
}

// FromSlice starts a pipeline from an in-memory, already-materialized
// sequence. Its hash is a stable fingerprint of the sequence's content
// (spec §3: "stable across runs for equal sequences").
func FromSlice(items []*record.Record, opts ...Option) *Pipeline {
	p := newPipeline(opts)
	h := hashSequence(items)
	p.current = p.g.NewTap("source.slice", h, graph.SourceFromSlice(items))
	return p
}

// FromIterator starts a pipeline from a non-materialized, one-shot
// source. Because the source cannot be rewound or serialized, its hash
// is always invalid — per spec §3, "None for non-sequence iterables" —
// so no stage on this branch has a hash: with WithCacheDir set,
// attaching a stage fails the build with cache.ErrHashUnavailable.
func FromIterator(next func() (*record.Record, bool), opts ...Option) *Pipeline {
	p := newPipeline(opts)
	p.current = p.g.NewTap("source.iterator", hashid.Hash{}, graph.SourceFromFunc(next))
	return p
}

// FromFile starts a pipeline reading path, always detecting its
// filetype (WithFiletype is a WriteOption and applies only to Write;
// there is no way to pin a source's filetype). The tap's hash is
// the hash of the file's raw bytes (spec §3), computed once up front
// so cache decisions at build time are based on real file content.
func FromFile(path string, opts ...Option) (*Pipeline, error) {
	p := newPipeline(opts)

	h, err := hashid.HashFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline: hash source file: %w", err)
	}

	ft, err := fileio.Detect(path)
	if err != nil {
		return nil, err
	}

	r, err := fileio.Open(path, ft)
	if err != nil {
		return nil, err
	}

	tap := p.g.NewTap("source.file", h, func(n *graph.Node) {
		graph.SourceFromFunc(r.Pull)(n)
		if err := r.Err(); err != nil {
			n.FailGraph(fmt.Errorf("pipeline: read %s: %w", path, err))
		}
	})
	tap.AttachCloser(r)
	p.current = tap
	return p, nil
}

func hashSequence(items []*record.Record) hashid.Hash {
	var b recordByteWriter
	for _, r := range items {
		b.writeRecord(r)
	}
	return hashid.HashSequence(b.Bytes())
}

// Err returns any error recorded while building the pipeline (e.g. a
// failed file open deferred past a chained call) that a terminal
// operation (Run/Iterate) should surface instead of proceeding.
func (p *Pipeline) Err() error { return p.buildErr }

func (p *Pipeline) fail(err error) *Pipeline {
	if p.buildErr == nil {
		p.buildErr = err
	}
	return p
}

func (p *Pipeline) checkNotStarted() error {
	if p.started {
		return ErrAlreadyStarted
	}
	return nil
}
