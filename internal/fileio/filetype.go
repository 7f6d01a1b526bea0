// Package fileio implements the Container × Format matrix: byte-level
// framing (bare/gzip/zip/xz) crossed with record serialization
// (JSONLines/CSV/Msgpack/XLSX/JSON+JPath), filetype detection, and the
// atomic reader/writer boundary.
//
// Grounded on original_source/wingline/files/{filetype,detect}.py's
// suffix-popping detection and on
// _examples/scrapbird-breachline's app/fileloader package for the Go
// magic-byte/extension idiom (compression.go, detection.go).
package fileio

import (
	"bytes"
	"fmt"
	"os"
	"strings"
)

// Container is the byte-level framing around a record stream.
type Container int

const (
	ContainerBare Container = iota
	ContainerGzip
	ContainerZip
	ContainerXZ
)

func (c Container) String() string {
	switch c {
	case ContainerGzip:
		return "gzip"
	case ContainerZip:
		return "zip"
	case ContainerXZ:
		return "xz"
	default:
		return "bare"
	}
}

// Format is the record serialization inside a container.
type Format int

const (
	FormatJSONLines Format = iota
	FormatCSV
	FormatMsgpack
	FormatXLSX
	FormatJSONPath
)

func (f Format) String() string {
	switch f {
	case FormatCSV:
		return "csv"
	case FormatMsgpack:
		return "msgpack"
	case FormatXLSX:
		return "xlsx"
	case FormatJSONPath:
		return "jsonpath"
	default:
		return "jsonlines"
	}
}

// Filetype is a resolved (Container, Format) pair.
type Filetype struct {
	Container Container
	Format    Format
}

// ErrUnrecognizedFiletype is returned when neither magic bytes nor
// suffix inspection can resolve both a container and a format (spec
// §7's UnrecognizedFiletype).
var ErrUnrecognizedFiletype = fmt.Errorf("fileio: unrecognized filetype")

var containerSuffixes = map[string]Container{
	".gz":   ContainerGzip,
	".gzip": ContainerGzip,
	".zip":  ContainerZip,
	".xz":   ContainerXZ,
}

var formatSuffixes = map[string]Format{
	".json":     FormatJSONLines,
	".jsonl":    FormatJSONLines,
	".jl":       FormatJSONLines,
	".csv":      FormatCSV,
	".msgpack":  FormatMsgpack,
	".wingline": FormatMsgpack,
	".xlsx":     FormatXLSX,
	".jpath":    FormatJSONPath,
}

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zipMagic  = []byte{0x50, 0x4b, 0x03, 0x04}
	xzMagic   = []byte{0xfd, 0x37, 0x7a, 0x58, 0x5a, 0x00}
)

// magicHeaderSize is how many leading bytes Detect peeks, matching
// spec §4.5's "peek file header bytes (first 261 bytes)".
const magicHeaderSize = 261

// detectContainerMagic inspects header for a known container signature.
func detectContainerMagic(header []byte) (Container, bool) {
	if bytes.HasPrefix(header, gzipMagic) {
		return ContainerGzip, true
	}
	if bytes.HasPrefix(header, zipMagic) {
		return ContainerZip, true
	}
	if bytes.HasPrefix(header, xzMagic) {
		return ContainerXZ, true
	}
	return ContainerBare, false
}

// isMsgpackMapHeader reports whether b is msgpack's leading type byte
// for a map (fixmap, map16, or map32) — the shape this package's own
// writer always emits first for a record (msgpack.go's EncodeMapLen),
// and so the signature a bare Msgpack stream starts with.
func isMsgpackMapHeader(b byte) bool {
	return (b >= 0x80 && b <= 0x8f) || b == 0xde || b == 0xdf
}

// looksLikeCSVHeader is a heuristic: a CSV header row is printable text
// containing at least one comma before its first newline.
func looksLikeCSVHeader(header []byte) bool {
	line := header
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}
	if !bytes.ContainsRune(line, ',') {
		return false
	}
	for _, b := range line {
		if b < 0x09 || (b > 0x0d && b < 0x20) || b == 0x7f {
			return false
		}
	}
	return true
}

// detectFormatMagic inspects header for a record-format signature when
// no container magic matched, i.e. header is presumed to hold the
// record stream's own leading bytes rather than a container's (spec
// §4.5's "if none, attempt format detection from header" step, between
// container magic sniffing and suffix inspection). XLSX is unreachable
// here: a real .xlsx file's ZIP-family magic is always claimed by
// detectContainerMagic first.
func detectFormatMagic(header []byte) (Format, bool) {
	if len(header) == 0 {
		return 0, false
	}
	if isMsgpackMapHeader(header[0]) {
		return FormatMsgpack, true
	}
	trimmed := bytes.TrimLeft(header, " \t\r\n")
	if len(trimmed) > 0 && trimmed[0] == '{' {
		return FormatJSONLines, true
	}
	if looksLikeCSVHeader(trimmed) {
		return FormatCSV, true
	}
	return 0, false
}

// Detect resolves path to a Filetype in three steps (spec §4.5): first
// magic-byte container sniffing, then — only when no container magic
// matched, since a real container's framing hides the format's own
// leading bytes — format detection from the same header bytes, and
// finally suffix-popping: the outermost suffix is matched against
// known container suffixes and consumed, then the next suffix is
// matched against known format suffixes.
func Detect(path string) (Filetype, error) {
	container := ContainerBare
	haveContainer := false
	var header []byte

	if f, err := os.Open(path); err == nil {
		buf := make([]byte, magicHeaderSize)
		n, _ := f.Read(buf)
		f.Close()
		header = buf[:n]
		if c, ok := detectContainerMagic(header); ok {
			container = c
			haveContainer = true
		}
	}

	if !haveContainer {
		if format, ok := detectFormatMagic(header); ok {
			return Filetype{Container: container, Format: format}, nil
		}
	}

	lower := strings.ToLower(path)
	if !haveContainer {
		for suffix, c := range containerSuffixes {
			if strings.HasSuffix(lower, suffix) {
				container = c
				haveContainer = true
				lower = strings.TrimSuffix(lower, suffix)
				break
			}
		}
	} else {
		for suffix := range containerSuffixes {
			if strings.HasSuffix(lower, suffix) {
				lower = strings.TrimSuffix(lower, suffix)
				break
			}
		}
	}

	for suffix, fmtKind := range formatSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return Filetype{Container: container, Format: fmtKind}, nil
		}
	}

	return Filetype{}, fmt.Errorf("%w: %s", ErrUnrecognizedFiletype, path)
}
