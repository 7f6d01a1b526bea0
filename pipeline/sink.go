package pipeline

import (
	"fmt"

	"github.com/HappyEinara/wingline/internal/fileio"
	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/record"
)

// Write appends a file-writer sink (spec §4.4, §4.5, §6's
// "pipeline.write(path | File)"). The writer acquires its handle in
// setup, writes one record per process call while forwarding it
// downstream unchanged — sinks can have children, per spec §9's open
// question on tee patterns — and commits or discards in teardown
// according to the graph's final success state.
func (p *Pipeline) Write(path string, opts ...WriteOption) *Pipeline {
	if p.buildErr != nil {
		return p
	}
	if err := p.checkNotStarted(); err != nil {
		return p.fail(err)
	}

	cfg := writeConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	ft := cfg.filetype
	if !cfg.haveFiletype {
		detected, err := fileio.Detect(path)
		if err != nil {
			return p.fail(err)
		}
		ft = detected
	}

	var w *fileio.Writer
	var writeErr error
	setup := func() error {
		opened, err := fileio.OpenWriter(path, ft)
		if err != nil {
			return err
		}
		w = opened
		return nil
	}
	process := func(in graph.Iterator) graph.Iterator {
		return &writeThroughIterator{
			in: in,
			write: func(r *record.Record) error {
				if err := w.Write(r); err != nil {
					writeErr = err
					return err
				}
				return nil
			},
		}
	}
	teardown := func(success bool) error {
		if w == nil {
			return nil
		}
		closeErr := w.Close(success && writeErr == nil)
		if writeErr != nil {
			return writeErr
		}
		return closeErr
	}

	sink := p.g.NewSink(fmt.Sprintf("sink.file.%s", path), p.current, process, setup, teardown)
	p.current = sink
	return p
}

type writeThroughIterator struct {
	in    graph.Iterator
	write func(*record.Record) error
	err   error
}

func (wt *writeThroughIterator) Next() (*record.Record, bool) {
	r, ok := wt.in.Next()
	if !ok {
		return nil, false
	}
	if wt.err == nil {
		if err := wt.write(r); err != nil {
			wt.err = err
		}
	}
	return r, true
}

// WriteOption configures Write.
type WriteOption func(*writeConfig)

type writeConfig struct {
	filetype     fileio.Filetype
	haveFiletype bool
}

// WithFiletype pins the container/format explicitly instead of
// detecting it from path's suffix.
func WithFiletype(ft fileio.Filetype) WriteOption {
	return func(c *writeConfig) {
		c.filetype = ft
		c.haveFiletype = true
	}
}
