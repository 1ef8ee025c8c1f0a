package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gosdt/domain/sdt"
	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/plot"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadBlocksCSV(t *testing.T) {
	path := writeFile(t, "blocks.csv", "Label,Hits,Misses,False_Alarms,Correct_Rejections\n"+
		"a,15,10,15,5\n"+
		",,,,\n"+
		",1,2,3,1.5\n")

	blocks, err := NewBlockReader(path).ReadBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)

	assert.Equal(t, "a", blocks[0].Label)
	assert.Equal(t, 2, blocks[0].Row)
	assert.Equal(t, sdt.Counts{Hits: 15, Misses: 10, FalseAlarms: 15, CorrectRejections: 5}, blocks[0].Counts)
	assert.Equal(t, "row 4", blocks[1].Label)
	assert.Equal(t, 1.5, blocks[1].Counts.CorrectRejections)
}

func TestReadBlocksColumnOrderDoesNotMatter(t *testing.T) {
	path := writeFile(t, "reordered.csv", "correct_rejections,false_alarms,misses,hits\n4,3,2,1\n")

	blocks, err := NewBlockReader(path).ReadBlocks()
	require.NoError(t, err)
	assert.Equal(t, sdt.Counts{Hits: 1, Misses: 2, FalseAlarms: 3, CorrectRejections: 4}, CountsOf(blocks)[0])
}

func TestReadBlocksErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"missing column", "hits,misses,false_alarms\n1,2,3\n", `missing required column "correct_rejections"`},
		{"bad number", "hits,misses,false_alarms,correct_rejections\n1,two,3,4\n", `row 2 column "misses"`},
		{"header only", "hits,misses,false_alarms,correct_rejections\n", "header row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBlockReader(writeFile(t, "f.csv", tt.content)).ReadBlocks()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	_, err := NewBlockReader(filepath.Join(t.TempDir(), "missing.xlsx")).ReadBlocks()
	assert.ErrorContains(t, err, "not found")
}

// A summary workbook can be fed back in as input.
func TestWriteSummaryIsReadable(t *testing.T) {
	counts := []sdt.Counts{
		{Hits: 8, Misses: 2, FalseAlarms: 3, CorrectRejections: 7},
		{Hits: 10, Misses: 0, FalseAlarms: 1, CorrectRejections: 9},
	}
	summarizer := analysis.NewSummarizer(2, internal.NewLoggerTo(os.Stderr, internal.LogLevelError))
	summary, err := summarizer.Summarize(context.Background(), counts)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "summary.xlsx")
	require.NoError(t, NewExporter().WriteSummary(path, []string{"first"}, summary))

	blocks, err := NewBlockReader(path).ReadBlocks()
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, "first", blocks[0].Label)
	assert.Equal(t, "block 1", blocks[1].Label)
	assert.Equal(t, counts, CountsOf(blocks))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	dPrime, err := f.GetCellValue(SheetName, "H3")
	require.NoError(t, err)
	assert.Equal(t, "+Inf", dPrime)

	pooledHits, err := f.GetCellValue(pooledSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "18", pooledHits)
}

func TestWriteDensity(t *testing.T) {
	r, err := sdt.New(8, 2, 3, 7)
	require.NoError(t, err)
	density, err := plot.Density(r, 5, 2)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "density.xlsx")
	require.NoError(t, NewExporter().WriteDensity(path, density))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(densitySheet)
	require.NoError(t, err)
	require.Len(t, rows, 6)
	assert.Equal(t, []string{"x", "noise", "signal", "threshold"}, rows[0])
	assert.Equal(t, "-2", rows[1][0])
}

func TestCellValue(t *testing.T) {
	assert.Equal(t, 1.5, cellValue(1.5))
	assert.Equal(t, "-Inf", cellValue(math.Inf(-1)))
}
