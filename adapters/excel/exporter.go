package excel

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/plot"
	"gosdt/internal/report"

	"github.com/xuri/excelize/v2"
)

const (
	pooledSheet  = "Pooled"
	densitySheet = "Density"
)

// Exporter writes summaries and plot series to .xlsx workbooks
type Exporter struct {
	logger *internal.Logger
}

// NewExporter creates an exporter
func NewExporter() *Exporter {
	return &Exporter{logger: internal.DefaultLogger}
}

// WriteSummary writes one row per block to Sheet1, in the layout BlockReader
// reads back, and the pooled record plus descriptives to a second sheet.
func (e *Exporter) WriteSummary(path string, labels []string, summary *analysis.Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{
		ColumnLabel, ColumnHits, ColumnMisses, ColumnFalseAlarms, ColumnCorrectRejections,
		"hit_rate", "false_alarm_rate", "d_prime", "criterion",
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, b := range summary.Blocks {
		label := fmt.Sprintf("block %d", b.Index)
		if i < len(labels) && labels[i] != "" {
			label = labels[i]
		}
		row := []interface{}{
			label, b.Counts.Hits, b.Counts.Misses, b.Counts.FalseAlarms, b.Counts.CorrectRejections,
			cellValue(b.HitRate), cellValue(b.FalseAlarmRate), cellValue(b.DPrime), cellValue(b.Criterion),
		}
		if err := setRow(f, SheetName, i+2, row); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(pooledSheet); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", pooledSheet, err)
	}
	pooled := summary.Pooled
	rows := [][]interface{}{
		{"measure", "value"},
		{ColumnHits, pooled.Hits()},
		{ColumnMisses, pooled.Misses()},
		{ColumnFalseAlarms, pooled.FalseAlarms()},
		{ColumnCorrectRejections, pooled.CorrectRejections()},
		{"hit_rate", cellValue(pooled.HitRate())},
		{"false_alarm_rate", cellValue(pooled.FalseAlarmRate())},
		{"d_prime", cellValue(pooled.DPrime())},
		{"criterion", cellValue(pooled.Criterion())},
		{"d_prime_mean", summary.DPrime.Mean},
		{"d_prime_std_dev", summary.DPrime.StdDev},
		{"criterion_mean", summary.Criterion.Mean},
		{"criterion_std_dev", summary.Criterion.StdDev},
		{"non_finite_blocks", summary.NonFiniteBlocks},
	}
	for i, row := range rows {
		if err := setRow(f, pooledSheet, i+1, row); err != nil {
			return err
		}
	}

	return e.save(f, path)
}

// WriteDensity writes the x grid and both curves as columns
func (e *Exporter) WriteDensity(path string, density *plot.DensityPlot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(SheetName, densitySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	header := []interface{}{"x", "noise", "signal", "threshold"}
	if err := setRow(f, densitySheet, 1, header); err != nil {
		return err
	}
	for i, x := range density.X {
		row := []interface{}{x, density.Noise[i], density.Signal[i]}
		if i == 0 {
			row = append(row, density.Threshold)
		}
		if err := setRow(f, densitySheet, i+2, row); err != nil {
			return err
		}
	}
	return e.save(f, path)
}

func (e *Exporter) save(f *excelize.File, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	e.logger.Info("[Exporter] wrote %s", path)
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write %s row %d: %w", sheet, row, err)
	}
	return nil
}

// cellValue keeps finite numbers numeric and writes infinities as text
func cellValue(v float64) interface{} {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return report.FormatFloat(v)
	}
	return v
}
