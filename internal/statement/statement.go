// Package statement reads bank statement spreadsheets into signed rows.
//
// Banks export statements with a few lines of preamble before the header, so
// the header row is located heuristically among the first rows by looking for
// a date, a value (or separate inflow/outflow) and a description column.
package statement

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"reconledger-backend/internal/domain"
	"reconledger-backend/internal/logger"
)

// HeaderScanRows is how many leading rows are searched for the header.
const HeaderScanRows = 30

// Read parses a statement; .xlsx files go through excelize, anything else is
// treated as delimited text.
func Read(filename string, r io.Reader) ([]domain.StatementRow, error) {
	logger.EnterMethod("statement.Read", "filename", filename)

	var (
		grid [][]string
		err  error
	)
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		grid, err = readXLSX(r)
	default:
		grid, err = readCSV(r)
	}
	if err != nil {
		logger.ExitMethodWithError("statement.Read", err, "filename", filename)
		return nil, err
	}

	rows, err := Parse(grid)
	if err != nil {
		logger.ExitMethodWithError("statement.Read", err, "filename", filename)
		return nil, err
	}

	logger.ExitMethod("statement.Read", "filename", filename, "rows", len(rows))
	return rows, nil
}

func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &domain.IntegrationError{Reason: fmt.Sprintf("statement file is not a readable spreadsheet: %v", err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &domain.IntegrationError{Reason: "spreadsheet has no sheets"}
	}
	grid, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &domain.IntegrationError{Reason: fmt.Sprintf("failed to read sheet %q: %v", sheets[0], err)}
	}
	return grid, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, &domain.IntegrationError{Reason: fmt.Sprintf("failed to read statement file: %v", err)}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	grid, err := reader.ReadAll()
	if err != nil {
		return nil, &domain.IntegrationError{Reason: fmt.Sprintf("statement file is not valid CSV: %v", err)}
	}
	return grid, nil
}

// sniffDelimiter picks the most frequent of ';', ',' and tab in the first lines.
func sniffDelimiter(data []byte) rune {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	best, bestCount := ',', -1
	for _, d := range []rune{';', ',', '\t'} {
		if n := bytes.Count(sample, []byte(string(d))); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}
