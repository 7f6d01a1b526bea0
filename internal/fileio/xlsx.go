package fileio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/HappyEinara/wingline/internal/record"
	"github.com/xuri/excelize/v2"
)

// xlsx is a supplemented format (not in spec.md's matrix, added per
// SPEC_FULL.md's domain-stack expansion) grounded on
// original_source/wingline/files/formats/xlsx.py and wired through
// excelize, the spreadsheet library already used by the teacher's
// fileloader package for the same purpose.
//
// excelize needs random access to the whole workbook, so both reader
// and writer buffer the full sheet rather than streaming record by
// record.

const xlsxSheet = "Sheet1"

type xlsxReader struct {
	header []string
	rows   [][]string
	pos    int
}

func newXLSXReader(r io.Reader) (RecordReader, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("fileio: xlsx: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("fileio: xlsx: %w", err)
	}
	if len(rows) == 0 {
		return &xlsxReader{}, nil
	}
	return &xlsxReader{header: rows[0], rows: rows[1:]}, nil
}

func (xr *xlsxReader) Read() (*record.Record, error) {
	if xr.pos >= len(xr.rows) {
		return nil, io.EOF
	}
	row := xr.rows[xr.pos]
	xr.pos++
	return record.FromStrings(xr.header, row), nil
}

type xlsxWriter struct {
	w      io.Writer
	header []string
	rows   [][]string
}

func newXLSXWriter(w io.Writer) RecordWriter {
	return &xlsxWriter{w: w}
}

func (xw *xlsxWriter) Write(r *record.Record) error {
	if xw.header == nil {
		xw.header = r.Keys()
	}
	xw.rows = append(xw.rows, record.ToStrings(xw.header, r))
	return nil
}

func (xw *xlsxWriter) Close() error {
	f := excelize.NewFile()
	defer f.Close()

	if xw.header != nil {
		for i, h := range xw.header {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(xlsxSheet, cell, h)
		}
		for r, row := range xw.rows {
			for i, v := range row {
				cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
				f.SetCellValue(xlsxSheet, cell, v)
			}
		}
	}
	return f.Write(xw.w)
}
