package pipeline

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/HappyEinara/wingline/internal/fileio"
	"github.com/HappyEinara/wingline/internal/graph"
	"github.com/HappyEinara/wingline/internal/hashid"
)

// globTapSeed distinguishes a glob tap's hash from a single-file tap's
// (which hashes only raw bytes): two pipelines reading the same single
// file via FromFile and via FromGlob must not collide.
var globTapSeed = hashid.HashBytes([]byte("wingline.tap.glob"))

// FromGlob builds a pipeline whose tap concatenates every file matched
// by pattern (a doublestar pattern, e.g. "logs/**/*.csv.gz"), sorted by
// path for a deterministic read order. Each matched file's container
// and format are detected independently, so a directory of mixed
// filetypes is valid as long as every file's records share a schema
// the caller can reconcile downstream.
//
// The tap's hash combines every matched file's content hash with its
// path (grounded on fileloader/directory.go's CalculateDirectoryHash,
// which folds a sorted per-file hash-plus-relative-path sequence into
// one digest so adding, removing, or renaming a matched file changes
// the hash even if file contents are otherwise unchanged).
func FromGlob(pattern string, opts ...Option) (*Pipeline, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("pipeline: glob %s: %w", pattern, err)
	}
	var paths []string
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		paths = append(paths, m)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("pipeline: glob %s: no files matched", pattern)
	}

	h, err := hashGlobFiles(paths)
	if err != nil {
		return nil, err
	}

	p := newPipeline(opts)
	tap := p.g.NewTap("source.glob", h, func(n *graph.Node) {
		runGlobSource(n, paths)
	})
	p.current = tap
	return p, nil
}

func hashGlobFiles(paths []string) (hashid.Hash, error) {
	acc := globTapSeed
	for _, path := range paths {
		contentHash, err := hashid.HashFile(path)
		if err != nil {
			return hashid.Hash{}, fmt.Errorf("pipeline: hash %s: %w", path, err)
		}
		combined := hashid.Combine(contentHash, hashid.StageIdentity(path))
		acc = hashid.Combine(acc, combined)
	}
	return acc, nil
}

// runGlobSource drains each matched file's records in turn, stopping
// early (without failing the graph) on abort and failing the graph on
// a genuine read error from any file.
func runGlobSource(n *graph.Node, paths []string) {
	for _, path := range paths {
		if n.Aborted() {
			return
		}
		r, err := fileio.OpenDetect(path)
		if err != nil {
			n.FailGraph(fmt.Errorf("pipeline: open %s: %w", path, err))
			return
		}
		graph.SourceFromFunc(r.Pull)(n)
		readErr := r.Err()
		closeErr := r.Close()
		if readErr != nil {
			n.FailGraph(fmt.Errorf("pipeline: read %s: %w", path, readErr))
			return
		}
		if closeErr != nil {
			n.FailGraph(fmt.Errorf("pipeline: close %s: %w", path, closeErr))
			return
		}
	}
}
