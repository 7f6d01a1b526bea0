package fileio

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/HappyEinara/wingline/internal/record"
	"github.com/google/uuid"
)

// Writer opens a temporary file beside the destination, writes through
// container+format, and only replaces the destination on an explicit
// successful Close — the atomic-write contract of spec §4.5 and §9:
// "always write to a sibling temp file and rename on success; remove
// on failure. Create parent directories before rename."
type Writer struct {
	finalPath string
	tempPath  string
	tempFile  *os.File
	container io.WriteCloser
	format    RecordWriter
}

// OpenWriter creates the sibling temp file and opens container+format
// writers against it. It fails with ErrPathExists if finalPath already
// exists (spec §4.5).
func OpenWriter(finalPath string, ft Filetype) (*Writer, error) {
	if _, err := os.Stat(finalPath); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrPathExists, finalPath)
	}

	dir := filepath.Dir(finalPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("fileio: create parent dirs: %w", err)
	}

	tempPath := filepath.Join(dir, fmt.Sprintf(".%s.%s.tmp", filepath.Base(finalPath), uuid.NewString()))
	tempFile, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("fileio: create temp file: %w", err)
	}

	container, err := newContainerWriter(tempFile, ft.Container, memberNameFor(finalPath))
	if err != nil {
		tempFile.Close()
		os.Remove(tempPath)
		return nil, err
	}
	format, err := newFormatWriter(container, ft.Format)
	if err != nil {
		container.Close()
		os.Remove(tempPath)
		return nil, err
	}

	return &Writer{
		finalPath: finalPath,
		tempPath:  tempPath,
		tempFile:  tempFile,
		container: container,
		format:    format,
	}, nil
}

// Write appends one record.
func (w *Writer) Write(r *record.Record) error {
	return w.format.Write(r)
}

// Close finalizes the writer: on success it closes format then
// container (releasing resources in reverse-acquisition order, per
// spec §9) and atomically renames the temp file into place; on
// failure it discards the temp file instead. Callers must call Close
// exactly once, passing the node's overall success state (false on
// abort or a process error, per spec §4.4 and §5).
func (w *Writer) Close(success bool) error {
	formatErr := w.format.Close()
	containerErr := w.container.Close()

	if !success || formatErr != nil || containerErr != nil {
		os.Remove(w.tempPath)
		if formatErr != nil {
			return formatErr
		}
		return containerErr
	}

	if err := os.Rename(w.tempPath, w.finalPath); err != nil {
		os.Remove(w.tempPath)
		return fmt.Errorf("fileio: commit %s: %w", w.finalPath, err)
	}
	return nil
}
