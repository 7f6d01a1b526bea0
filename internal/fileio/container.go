package fileio

import (
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

// openContainerReader opens the single logical member inside a container
// for reading, returning a ReadCloser whose Close releases every
// resource the container allocated (spec §4.5: "reader ... closes
// format then container").
func openContainerReader(path string, c Container) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNonexistentSource, path)
		}
		return nil, err
	}

	switch c {
	case ContainerBare:
		return f, nil

	case ContainerGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("fileio: gzip container: %w", err)
		}
		return &stackedCloser{Reader: gz, closers: []io.Closer{gz, f}}, nil

	case ContainerXZ:
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("fileio: xz container: %w", err)
		}
		return &stackedCloser{Reader: xr, closers: []io.Closer{f}}, nil

	case ContainerZip:
		return openZipMember(path, f)

	default:
		f.Close()
		return nil, fmt.Errorf("fileio: unsupported container %v", c)
	}
}

// openZipMember reads the first non-directory entry of the zip at
// path, per spec §4.5: "treat the zip as holding one logical member;
// read the first non-directory entry".
func openZipMember(path string, f *os.File) (io.ReadCloser, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("fileio: zip container: %w", err)
	}
	for _, entry := range zr.File {
		if strings.HasSuffix(entry.Name, "/") {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("fileio: zip member %s: %w", entry.Name, err)
		}
		return &stackedCloser{Reader: rc, closers: []io.Closer{rc, f}}, nil
	}
	f.Close()
	return nil, fmt.Errorf("fileio: zip container has no file members")
}

type stackedCloser struct {
	io.Reader
	closers []io.Closer
}

func (s *stackedCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// newContainerWriter wraps an io.WriteCloser against a single underlying
// file handle, adding whatever container framing c requires. memberName
// is the zip entry name used when c is ContainerZip (spec §4.5: "write
// by creating a single member named after the path stem").
func newContainerWriter(f *os.File, c Container, memberName string) (io.WriteCloser, error) {
	switch c {
	case ContainerBare:
		return f, nil

	case ContainerGzip:
		gz := gzip.NewWriter(f)
		return &stackedWriteCloser{Writer: gz, closers: []io.Closer{gz, f}}, nil

	case ContainerXZ:
		xw, err := xz.NewWriter(f)
		if err != nil {
			return nil, fmt.Errorf("fileio: xz container: %w", err)
		}
		return &stackedWriteCloser{Writer: xw, closers: []io.Closer{xw, f}}, nil

	case ContainerZip:
		zw := zip.NewWriter(f)
		member, err := zw.Create(memberName)
		if err != nil {
			return nil, fmt.Errorf("fileio: zip container: %w", err)
		}
		return &stackedWriteCloser{Writer: member, closers: []io.Closer{zw, f}}, nil

	default:
		return nil, fmt.Errorf("fileio: unsupported container %v", c)
	}
}

type stackedWriteCloser struct {
	io.Writer
	closers []io.Closer
}

func (s *stackedWriteCloser) Close() error {
	var first error
	for _, c := range s.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// memberNameFor derives the zip entry name from a destination path's
// stem, per spec §4.5.
func memberNameFor(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
