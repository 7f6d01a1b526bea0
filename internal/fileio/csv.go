package fileio

import (
	"encoding/csv"
	"io"

	"github.com/HappyEinara/wingline/internal/record"
)

// csv implements the CSV format: "excel" dialect, header row on first
// write using that record's key order, subsequent rows following the
// same header (spec §4.5).

type csvReader struct {
	r      *csv.Reader
	header []string
}

func newCSVReader(r io.Reader) RecordReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return &csvReader{r: cr}
}

func (cr *csvReader) Read() (*record.Record, error) {
	if cr.header == nil {
		header, err := cr.r.Read()
		if err != nil {
			return nil, err
		}
		cr.header = header
	}
	row, err := cr.r.Read()
	if err != nil {
		return nil, err
	}
	return record.FromStrings(cr.header, row), nil
}

type csvWriter struct {
	w      *csv.Writer
	header []string
}

func newCSVWriter(w io.Writer) RecordWriter {
	cw := csv.NewWriter(w)
	cw.UseCRLF = true
	return &csvWriter{w: cw}
}

func (cw *csvWriter) Write(r *record.Record) error {
	if cw.header == nil {
		cw.header = r.Keys()
		if err := cw.w.Write(cw.header); err != nil {
			return err
		}
	}
	if err := cw.w.Write(record.ToStrings(cw.header, r)); err != nil {
		return err
	}
	cw.w.Flush()
	return cw.w.Error()
}

func (cw *csvWriter) Close() error {
	cw.w.Flush()
	return cw.w.Error()
}
