// Package dataset reads source spreadsheets and reads/writes the cleaned
// snapshot. It knows file formats, not planets: rows come in as strings and
// the converter gives them meaning.
package dataset

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for extensions other than .csv and .xlsx
	ErrUnsupportedFormat = errors.New("unsupported source format")
	// ErrEmptySource is returned when a source has no header row
	ErrEmptySource = errors.New("source has no header row")
	// ErrMalformedSource is returned when a source cannot be parsed
	ErrMalformedSource = errors.New("malformed source")
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Source is a raw table: one header row and the data rows beneath it
type Source struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ReadSource loads a CSV or XLSX file. The archive's leading '#' comment
// block in CSV exports is skipped. Only the first worksheet of a workbook is read.
func ReadSource(path string) (*Source, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return readCSV(path)
	case ".xlsx", ".xlsm":
		return readXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

func readCSV(path string) (*Source, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if bom, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(bom, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}

	src := &Source{Path: path, Header: cleanHeader(header)}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
		}
		src.Rows = append(src.Rows, row)
	}

	return src, nil
}

func readXLSX(path string) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open source %s: %w", path, err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}

	// Raw values, so a cell's number format never rounds the data
	rows, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSource, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptySource, path)
	}

	return &Source{Path: path, Header: cleanHeader(rows[0]), Rows: rows[1:]}, nil
}

// cleanHeader trims whitespace and a UTF-8 byte order mark
func cleanHeader(header []string) []string {
	out := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		out[i] = strings.TrimSpace(h)
	}
	return out
}
