// Package inputfile extracts identifier candidates from uploaded list files.
// Supported formats are plain text, CSV and XLSX workbooks. Extraction is
// permissive: any cell or token carrying a digit is a candidate, and
// normalization decides later what is actually usable.
package inputfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/xuri/excelize/v2"
)

// ErrUnsupported indicates a file extension no extractor handles.
var ErrUnsupported = errors.New("inputfile: unsupported file format")

// Extract reads path and returns identifier candidates in file order.
func Extract(path string) ([]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt":
		return extractText(path)
	case ".csv":
		return extractCSV(path)
	case ".xlsx":
		return extractXLSX(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupported, filepath.Ext(path))
	}
}

func extractText(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer f.Close()

	var out []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		out = append(out, tokens(scanner.Text())...)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read list file: %w", err)
	}
	return out, nil
}

func extractCSV(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open list file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var out []string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse csv: %w", err)
		}
		for _, cell := range record {
			out = append(out, tokens(cell)...)
		}
	}
	return out, nil
}

func extractXLSX(path string) ([]string, error) {
	book, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	var out []string
	for _, sheet := range book.GetSheetList() {
		rows, err := book.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		for _, row := range rows {
			for _, cell := range row {
				out = append(out, tokens(cell)...)
			}
		}
	}
	return out, nil
}

// tokens splits a line or cell on separators and keeps pieces that carry at
// least one digit.
func tokens(text string) []string {
	var out []string
	for _, piece := range strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || unicode.IsSpace(r)
	}) {
		if strings.ContainsFunc(piece, unicode.IsDigit) {
			out = append(out, piece)
		}
	}
	return out
}
