package sheet

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"livelens/internal/trends"
)

// Load reads a spreadsheet by extension. CSV and XLSX are supported; the
// first row is the header row.
func Load(path string) ([]trends.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open sheet %s: %w", path, err)
		}
		defer file.Close()
		return ReadCSV(file)
	case ".xlsx", ".xlsm":
		return ReadXLSX(path)
	default:
		return nil, fmt.Errorf("unsupported sheet format %q", filepath.Ext(path))
	}
}

// ReadCSV parses header-keyed rows from CSV data. Ragged rows are tolerated;
// rows with no non-empty cell are skipped.
func ReadCSV(r io.Reader) ([]trends.Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	return assemble(records), nil
}

// ReadXLSX parses header-keyed rows from the active worksheet of an XLSX
// workbook.
func ReadXLSX(path string) ([]trends.Row, error) {
	workbook, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer workbook.Close()

	sheetName := workbook.GetSheetName(workbook.GetActiveSheetIndex())
	records, err := workbook.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("read worksheet %s: %w", sheetName, err)
	}
	if len(records) < 2 {
		return nil, nil
	}
	return assemble(records), nil
}

// assemble converts raw records into header-keyed rows. Blank headers get a
// positional col_N name so no cell is lost.
func assemble(records [][]string) []trends.Row {
	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("col_%d", i)
		}
		headers[i] = header
	}

	rows := make([]trends.Row, 0, len(records)-1)
	for _, record := range records[1:] {
		empty := true
		for _, cell := range record {
			if strings.TrimSpace(cell) != "" {
				empty = false
				break
			}
		}
		if empty {
			continue
		}
		row := make(trends.Row, len(headers))
		for i, cell := range record {
			if i >= len(headers) {
				break
			}
			row[headers[i]] = strings.TrimSpace(cell)
		}
		rows = append(rows, row)
	}
	return rows
}
