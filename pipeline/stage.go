package pipeline

import (
	"fmt"

	"github.com/HappyEinara/wingline/internal/cache"
	"github.com/HappyEinara/wingline/internal/fileio"
	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/record"
)

// Each appends an each-process stage (spec §4.2, §6): identity is the
// caller's stable fingerprint for fn (see internal/hashid.StageIdentity
// and spec §9's design note — Go cannot hash a closure, so the caller
// supplies this explicitly). An empty identity leaves this stage and
// every stage downstream of it without a hash: with no cache directory
// they simply run uncached, and with WithCacheDir set the build fails
// with cache.ErrHashUnavailable (see applyCache).
func (p *Pipeline) Each(identity string, fn graph.EachProcess) *Pipeline {
	return p.attach(identity, graph.WrapEach(fn))
}

// All appends an all-process stage: a windowed transform that consumes
// the whole upstream iterator and yields its own (spec §4.2).
func (p *Pipeline) All(identity string, fn graph.AllProcess) *Pipeline {
	return p.attach(identity, fn)
}

func (p *Pipeline) attach(identity string, process graph.AllProcess) *Pipeline {
	if p.buildErr != nil {
		return p
	}
	if err := p.checkNotStarted(); err != nil {
		return p.fail(err)
	}

	stageHash := hashid.Combine(p.current.Hash(), hashid.StageIdentity(identity))
	name := fmt.Sprintf("pipe.%s", identity)
	if identity == "" {
		name = fmt.Sprintf("pipe.%d", len(p.g.Nodes()))
	}

	pipe := p.g.NewPipe(name, p.current, stageHash, process)
	p.current = p.applyCache(pipe)
	return p
}

// applyCache implements spec §4.6: given a just-built stage and a
// configured cache store, either replace it with a CacheReader (hit) or
// follow it with a CacheWriter (miss). Downstream chaining continues
// from whichever node now carries this stage's output. With no cache
// store configured, the stage is returned unchanged; with a store
// configured but an invalid hash (the stage sits atop a
// non-deterministic source), the pipeline build fails with
// cache.ErrHashUnavailable (spec §7's HashUnavailable) rather than
// silently skipping the cache.
func (p *Pipeline) applyCache(stage *graph.Node) *graph.Node {
	if p.store == nil {
		return stage
	}
	h := stage.Hash()
	if err := cache.RequireHash(h); err != nil {
		p.fail(fmt.Errorf("pipeline: cache %s: %w", stage.Name(), err))
		return stage
	}

	if p.store.Has(h) {
		items, err := p.store.ReadAll(h)
		if err != nil {
			p.fail(fmt.Errorf("pipeline: read cache entry %s: %w", h, err))
			return stage
		}
		return p.g.NewCacheReader(stage.Name()+".cached", h, stage, graph.SourceFromSlice(items))
	}

	var w *fileio.Writer
	setup := func() error {
		cw, err := p.store.Writer(h)
		if err != nil {
			return err
		}
		w = cw
		return nil
	}
	persist := func(r *record.Record) error {
		return w.Write(r)
	}
	teardown := func(success bool) error {
		if w == nil {
			return nil
		}
		return w.Close(success)
	}
	return p.g.NewCacheWriter(stage.Name()+".cachewrite", stage, persist, setup, teardown)
}
