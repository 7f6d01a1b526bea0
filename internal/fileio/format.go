package fileio

import (
	"fmt"
	"io"

	"github.com/HappyEinara/wingline/internal/record"
)

// RecordReader yields records one at a time. Read returns io.EOF (with
// a nil record) once the stream is exhausted.
type RecordReader interface {
	Read() (*record.Record, error)
}

// RecordWriter appends records to an underlying stream. Close flushes
// any format-level trailer (e.g. XLSX must write its whole workbook at
// close) but does not commit the file — that is the writer's job (see
// writer.go's atomic rename).
type RecordWriter interface {
	Write(r *record.Record) error
	Close() error
}

// newFormatReader dispatches to the concrete decoder for f.
func newFormatReader(r io.Reader, f Format) (RecordReader, error) {
	switch f {
	case FormatJSONLines:
		return newJSONLinesReader(r), nil
	case FormatCSV:
		return newCSVReader(r), nil
	case FormatMsgpack:
		return newMsgpackReader(r), nil
	case FormatXLSX:
		return newXLSXReader(r)
	case FormatJSONPath:
		return newJSONPathReader(r, "")
	default:
		return nil, fmt.Errorf("fileio: unsupported format %v", f)
	}
}

// newFormatWriter dispatches to the concrete encoder for f.
func newFormatWriter(w io.Writer, f Format) (RecordWriter, error) {
	switch f {
	case FormatJSONLines:
		return newJSONLinesWriter(w), nil
	case FormatCSV:
		return newCSVWriter(w), nil
	case FormatMsgpack:
		return newMsgpackWriter(w), nil
	case FormatXLSX:
		return newXLSXWriter(w), nil
	case FormatJSONPath:
		return newJSONPathWriter(w), nil
	default:
		return nil, fmt.Errorf("fileio: unsupported format %v", f)
	}
}
