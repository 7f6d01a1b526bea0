package fileio

import "errors"

// Sentinel errors for the fileio error taxonomy (spec §7).
var (
	// ErrNonexistentSource is returned opening a reader against a
	// missing file.
	ErrNonexistentSource = errors.New("fileio: nonexistent source")

	// ErrPathExists is returned opening a writer against an existing
	// final path.
	ErrPathExists = errors.New("fileio: path exists")
)
