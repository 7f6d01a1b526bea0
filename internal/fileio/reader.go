package fileio

import (
	"io"

	"github.com/HappyEinara/wingline/internal/record"
)

// Reader opens a file through its container then its format, exposing
// a flat record stream (spec §4.5's "Reader::open(path, filetype) ->
// iterator<Record>"). Format readers hold no resources of their own,
// so Close releases the container only.
type Reader struct {
	container io.ReadCloser
	format    RecordReader
	err       error
}

// Open opens path for reading as the explicit, already-resolved ft; it
// does not detect anything (use OpenDetect, or Detect first, when the
// caller doesn't know the filetype).
func Open(path string, ft Filetype) (*Reader, error) {
	c, err := openContainerReader(path, ft.Container)
	if err != nil {
		return nil, err
	}
	f, err := newFormatReader(c, ft.Format)
	if err != nil {
		c.Close()
		return nil, err
	}
	return &Reader{container: c, format: f}, nil
}

// OpenDetect detects path's filetype before opening it.
func OpenDetect(path string) (*Reader, error) {
	ft, err := Detect(path)
	if err != nil {
		return nil, err
	}
	return Open(path, ft)
}

// Next returns the next record, or ok=false once the stream (and
// underlying file) is exhausted. err is non-nil only on a genuine read
// failure, never on ordinary end-of-stream.
func (r *Reader) Next() (*record.Record, bool, error) {
	rec, err := r.format.Read()
	if err == io.EOF {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return rec, true, nil
}

// Close releases the reader's resources.
func (r *Reader) Close() error {
	return r.container.Close()
}

// Err returns the error that stopped the last Pull, if any.
func (r *Reader) Err() error { return r.err }

// Pull adapts the Reader to the pull-function shape graph.SourceFromFunc
// wants, without this package depending on graph. Any read error is
// recorded (retrievable via Err) and ends the stream as if exhausted;
// the graph's abort flag is set by the caller that notices Err() != nil.
func (r *Reader) Pull() (*record.Record, bool) {
	rec, ok, err := r.Next()
	if err != nil {
		r.err = err
		return nil, false
	}
	return rec, ok
}
