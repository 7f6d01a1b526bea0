// Package cache implements the content-addressed intermediate cache:
// a disk store keyed by stage hash (spec §4.6, §6) fronted by an
// optional in-memory LRU of recently-seen hashes, so a hot rerun
// avoids even a stat() against the cache directory.
//
// The disk layout and Gzip+Msgpack wire format are grounded on
// original_source/wingline/plumbing/execution.py's cache_path /
// exists check and original_source/wingline/hasher.py; the in-memory
// LRU is adapted from
// _examples/scrapbird-breachline/application/app/cache/lru.go.
package cache

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/HappyEinara/wingline/internal/fileio"
	"github.com/HappyEinara/wingline/internal/hashid"
	"github.com/HappyEinara/wingline/internal/record"
)

// wireFiletype is the cache's fixed on-disk shape: Gzip+Msgpack (spec
// §4.6: "The cache format is Gzip+Msgpack").
var wireFiletype = fileio.Filetype{Container: fileio.ContainerGzip, Format: fileio.FormatMsgpack}

// Store is the content-addressed disk cache rooted at Dir.
type Store struct {
	Dir string
	lru *lru
}

// New creates a Store rooted at dir. memCapacity sizes the optional
// in-memory hit/miss dedup LRU (0 disables it, falling back to a stat
// per lookup).
func New(dir string, memCapacity int) *Store {
	s := &Store{Dir: dir}
	if memCapacity > 0 {
		s.lru = newLRU(memCapacity)
	}
	return s
}

// Path returns the on-disk cache entry path for h (spec §6:
// "<cache_dir>/<xx>/<xxxxxxxxxxxxxxxx>.wingline").
func (s *Store) Path(h hashid.Hash) string {
	return filepath.Join(s.Dir, h.Prefix2(), h.String()+".wingline")
}

// Has reports whether a complete cache entry exists for h. A prior
// negative lookup is remembered in the in-memory LRU so repeated
// misses (e.g. re-walking a pipeline with a partially warm cache)
// don't keep hitting the filesystem.
func (s *Store) Has(h hashid.Hash) bool {
	if !h.Valid() {
		return false
	}
	if s.lru != nil {
		if hit, ok := s.lru.get(h.String()); ok {
			return hit
		}
	}
	_, err := os.Stat(s.Path(h))
	exists := err == nil
	if s.lru != nil {
		s.lru.put(h.String(), exists)
	}
	return exists
}

// Reader opens h's cache entry for streaming.
func (s *Store) Reader(h hashid.Hash) (*fileio.Reader, error) {
	r, err := fileio.Open(s.Path(h), wireFiletype)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", h, err)
	}
	return r, nil
}

// Writer opens a new cache entry for h, to be populated and committed
// through Writer's atomic Close (spec §4.6: "atomically committed on
// success").
func (s *Store) Writer(h hashid.Hash) (*fileio.Writer, error) {
	w, err := fileio.OpenWriter(s.Path(h), wireFiletype)
	if err != nil {
		return nil, fmt.Errorf("cache: open %s: %w", h, err)
	}
	if s.lru != nil {
		s.lru.put(h.String(), true)
	}
	return w, nil
}

// ErrHashUnavailable is surfaced when caching is requested for a stage
// whose hash is invalid, i.e. it sits downstream of a non-deterministic
// source (spec §7's HashUnavailable).
var ErrHashUnavailable = fmt.Errorf("cache: hash unavailable for this stage")

// RequireHash validates h before a caller wires a cache reader/writer.
func RequireHash(h hashid.Hash) error {
	if !h.Valid() {
		return ErrHashUnavailable
	}
	return nil
}

// drainAll reads every record from r, used by the all-in-memory cache
// reader construction in the pipeline package when it is simpler to
// materialize the cached output than to stream it through a dedicated
// iterator (the cache entry, being the output of one already-finished
// stage, is the size of that stage's output regardless).
func drainAll(r *fileio.Reader) ([]*record.Record, error) {
	var out []*record.Record
	for {
		rec, ok, err := r.Next()
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, rec)
	}
}

// ReadAll opens and fully drains h's cache entry, closing it before
// returning. Used by CacheReader nodes, which replay the whole cached
// stage output as an in-memory tap.
func (s *Store) ReadAll(h hashid.Hash) ([]*record.Record, error) {
	r, err := s.Reader(h)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return drainAll(r)
}
