package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RowSource is a lazy, forward-only stream of raw rows. Next returns
// io.EOF when the stream is exhausted.
type RowSource interface {
	Next() ([]string, error)
	Close() error
}

// OpenRows opens a saved upload for streaming row access, picking the
// decoder by file extension.
func OpenRows(path string) (RowSource, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return openXLSX(path)
	case ".csv":
		return openCSV(path)
	default:
		return nil, fmt.Errorf("unsupported spreadsheet type %q", filepath.Ext(path))
	}
}

// xlsxSource streams the first worksheet without materializing the
// workbook in memory.
type xlsxSource struct {
	file *excelize.File
	rows *excelize.Rows
}

func openXLSX(path string) (*xlsxSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, ErrEmptyFile
	}
	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open worksheet %q: %w", sheets[0], err)
	}
	return &xlsxSource{file: f, rows: rows}, nil
}

func (s *xlsxSource) Next() ([]string, error) {
	if !s.rows.Next() {
		if err := s.rows.Error(); err != nil {
			return nil, fmt.Errorf("read worksheet row: %w", err)
		}
		return nil, io.EOF
	}
	cols, err := s.rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read worksheet row: %w", err)
	}
	return cols, nil
}

func (s *xlsxSource) Close() error {
	_ = s.rows.Close()
	return s.file.Close()
}

type csvSource struct {
	file   *os.File
	reader *csv.Reader
}

func openCSV(path string) (*csvSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open csv: %w", err)
	}
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // ragged rows are tolerated; the normalizer pads
	return &csvSource{file: f, reader: r}, nil
}

func (s *csvSource) Next() ([]string, error) {
	rec, err := s.reader.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	if err != nil {
		return nil, fmt.Errorf("read csv row: %w", err)
	}
	return rec, nil
}

func (s *csvSource) Close() error {
	return s.file.Close()
}
