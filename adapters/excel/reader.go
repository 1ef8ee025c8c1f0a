package excel

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gosdt/domain/sdt"
	"gosdt/internal"

	"github.com/xuri/excelize/v2"
)

// BlockReader reads trial-count blocks from Excel or CSV files
type BlockReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	logger   *internal.Logger
}

// NewBlockReader creates a reader; the file type is picked from the extension
func NewBlockReader(filePath string) *BlockReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &BlockReader{filePath: filePath, fileType: fileType, logger: internal.DefaultLogger}
}

// ReadBlocks returns every data row of the file. Rows are only parsed here;
// count validation is left to the statistics layer.
func (r *BlockReader) ReadBlocks() ([]LabelledCounts, error) {
	r.logger.Debug("[BlockReader] reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var (
		rows [][]string
		err  error
	)
	start := time.Now()
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	r.logger.Debug("[BlockReader] read %d rows in %.2fms", len(rows), float64(time.Since(start).Nanoseconds())/1e6)

	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have a header row and at least one data row", strings.ToUpper(r.fileType))
	}
	return parseRows(rows)
}

func (r *BlockReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SheetName, err)
	}
	return rows, nil
}

func (r *BlockReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// parseRows maps headers case-insensitively and parses the four count columns.
// Row numbers in errors are 1-based spreadsheet rows.
func parseRows(rows [][]string) ([]LabelledCounts, error) {
	index := make(map[string]int)
	for i, header := range rows[0] {
		index[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, required := range []string{ColumnHits, ColumnMisses, ColumnFalseAlarms, ColumnCorrectRejections} {
		if _, ok := index[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}

	cell := func(row []string, column string) string {
		i, ok := index[column]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}
	number := func(row []string, rowNum int, column string) (float64, error) {
		raw := cell(row, column)
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return 0, fmt.Errorf("row %d column %q: %q is not a number", rowNum, column, raw)
		}
		return v, nil
	}

	blocks := make([]LabelledCounts, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlank(row) {
			continue
		}

		var c sdt.Counts
		var err error
		if c.Hits, err = number(row, rowNum, ColumnHits); err != nil {
			return nil, err
		}
		if c.Misses, err = number(row, rowNum, ColumnMisses); err != nil {
			return nil, err
		}
		if c.FalseAlarms, err = number(row, rowNum, ColumnFalseAlarms); err != nil {
			return nil, err
		}
		if c.CorrectRejections, err = number(row, rowNum, ColumnCorrectRejections); err != nil {
			return nil, err
		}

		label := cell(row, ColumnLabel)
		if label == "" {
			label = fmt.Sprintf("row %d", rowNum)
		}
		blocks = append(blocks, LabelledCounts{Row: rowNum, Label: label, Counts: c})
	}

	if len(blocks) == 0 {
		return nil, fmt.Errorf("no data rows found")
	}
	return blocks, nil
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
