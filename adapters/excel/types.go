package excel

import "gosdt/domain/sdt"

// Column headers understood by BlockReader and written by Exporter
const (
	ColumnLabel             = "label"
	ColumnHits              = "hits"
	ColumnMisses            = "misses"
	ColumnFalseAlarms       = "false_alarms"
	ColumnCorrectRejections = "correct_rejections"
)

// SheetName is the sheet blocks are read from
const SheetName = "Sheet1"

// LabelledCounts is one spreadsheet row: a block of trials and its optional label
type LabelledCounts struct {
	Row    int        `json:"row"`
	Label  string     `json:"label"`
	Counts sdt.Counts `json:"counts"`
}

// CountsOf strips labels from rows
func CountsOf(rows []LabelledCounts) []sdt.Counts {
	out := make([]sdt.Counts, len(rows))
	for i, row := range rows {
		out[i] = row.Counts
	}
	return out
}
