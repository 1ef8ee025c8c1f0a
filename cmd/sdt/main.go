package main

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gosdt/adapters/excel"
	"gosdt/domain/sdt"
	"gosdt/internal"
	"gosdt/internal/analysis"
	"gosdt/internal/api"
	"gosdt/internal/config"
	"gosdt/internal/plot"
	"gosdt/internal/report"
	"gosdt/internal/testkit"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var asJSON bool

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "sdt",
		Short:         "Signal detection statistics from hit, miss, false alarm and correct rejection counts",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&asJSON, "json", false, "Print results as JSON")

	rootCmd.AddCommand(
		newComputeCmd(),
		newPoolCmd(),
		newScaleCmd(),
		newSummarizeCmd(),
		newExportCmd(),
		newDensityCmd(),
		newReportCmd(),
		newSimulateCmd(),
	)
	return rootCmd
}

func newComputeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compute [hits] [misses] [false-alarms] [correct-rejections]",
		Short: "Compute d′ and c for one block",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := parseCounts(args)
			if err != nil {
				return err
			}
			r, err := sdt.FromCounts(counts)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), r)
		},
	}
}

func newPoolCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pool [H,M,FA,CR]...",
		Short: "Pool several blocks by summing their counts",
		Long: `Pool several blocks by summing their counts and re-deriving the statistics.

Example: sdt pool 1,1,2,1 2,1,1,3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records := make([]sdt.Record, 0, len(args))
			for i, arg := range args {
				counts, err := parseCounts(strings.Split(arg, ","))
				if err != nil {
					return fmt.Errorf("block %d: %w", i+1, err)
				}
				r, err := sdt.FromCounts(counts)
				if err != nil {
					return fmt.Errorf("block %d: %w", i+1, err)
				}
				records = append(records, r)
			}
			pooled, err := sdt.Pool(records...)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), pooled)
		},
	}
}

func newScaleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scale [hits] [misses] [false-alarms] [correct-rejections] [factor]",
		Short: "Replicate a block factor-fold",
		Args:  cobra.ExactArgs(5),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := parseCounts(args[:4])
			if err != nil {
				return err
			}
			factor, err := parseNumber("factor", args[4])
			if err != nil {
				return err
			}
			r, err := sdt.FromCounts(counts)
			if err != nil {
				return err
			}
			scaled, err := r.Scale(factor)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), scaled)
		},
	}
}

func newSummarizeCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "summarize [file]",
		Short: "Summarize every block of a .csv or .xlsx file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, summary, err := summarizeFile(cmd, args[0], workers)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Blocks derived concurrently")
	return cmd
}

func newExportCmd() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "export [file] [out.xlsx]",
		Short: "Summarize a .csv or .xlsx file into an xlsx workbook",
		Long: `Summarize a .csv or .xlsx file into an xlsx workbook. Without out.xlsx the
workbook is written to EXPORT_DIR as <file>-summary.xlsx.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			stem := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			out := exportPath(cfg, args[1:], stem+"-summary.xlsx")

			rows, summary, err := summarizeFile(cmd, args[0], workers)
			if err != nil {
				return err
			}
			labels := make([]string, len(rows))
			for i, row := range rows {
				labels[i] = row.Label
			}
			if err := excel.NewExporter().WriteSummary(out, labels, summary); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d blocks to %s\n", len(rows), out)
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Blocks derived concurrently")
	return cmd
}

func newDensityCmd() *cobra.Command {
	var points int
	var span float64

	cmd := &cobra.Command{
		Use:   "density [hits] [misses] [false-alarms] [correct-rejections] [out.xlsx]",
		Short: "Write the noise and signal densities of one block to an xlsx workbook",
		Long: `Write the noise and signal densities of one block to an xlsx workbook.
Without out.xlsx the workbook is written to EXPORT_DIR as density.xlsx.
--points and --span default to DENSITY_POINTS and DENSITY_SPAN.`,
		Args: cobra.RangeArgs(4, 5),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("points") {
				points = cfg.Analysis.DensityPoints
			}
			if !cmd.Flags().Changed("span") {
				span = cfg.Analysis.DensitySpan
			}

			counts, err := parseCounts(args[:4])
			if err != nil {
				return err
			}
			r, err := sdt.FromCounts(counts)
			if err != nil {
				return err
			}
			density, err := plot.Density(r, points, span)
			if err != nil {
				return err
			}

			out := exportPath(cfg, args[4:], "density.xlsx")
			if err := excel.NewExporter().WriteDensity(out, density); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %d points to %s (threshold %s)\n",
				len(density.X), out, report.FormatFloat(density.Threshold))
			return nil
		},
	}

	cmd.Flags().IntVar(&points, "points", 0, "Grid points")
	cmd.Flags().Float64Var(&span, "span", 0, "Standard deviations covered beyond both means")
	return cmd
}

// exportPath is the explicit output argument if given, else name inside EXPORT_DIR.
func exportPath(cfg *config.Config, args []string, name string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return filepath.Join(cfg.Export.Dir, name)
}

func newReportCmd() *cobra.Command {
	var title string
	var html bool

	cmd := &cobra.Command{
		Use:   "report [hits] [misses] [false-alarms] [correct-rejections]",
		Short: "Print a markdown report for one block",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			counts, err := parseCounts(args)
			if err != nil {
				return err
			}
			r, err := sdt.FromCounts(counts)
			if err != nil {
				return err
			}
			if html {
				_, err = cmd.OutOrStdout().Write(report.HTML(title, r))
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), report.Markdown(title, r))
			return err
		},
	}

	cmd.Flags().StringVar(&title, "title", "Signal detection report", "Report heading")
	cmd.Flags().BoolVar(&html, "html", false, "Render HTML instead of markdown")
	return cmd
}

func newSimulateCmd() *cobra.Command {
	config := testkit.DefaultTrialConfig()
	var out string

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Simulate blocks from an observer with known d′ and c",
		Long: `Simulate blocks of trials from an equal-variance Gaussian observer and
summarize them, or write them as CSV that summarize and export can read.

Example: sdt simulate --d-prime 1.5 --criterion 0.2 --blocks 20 --out blocks.csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			blocks, err := testkit.NewTrialGenerator(config).GenerateBlocks()
			if err != nil {
				return err
			}
			if out != "" {
				if err := writeBlocksCSV(out, blocks); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d blocks to %s\n", len(blocks), out)
				return nil
			}
			logger := internal.NewLogger(logLevel())
			summary, err := analysis.NewSummarizer(1, logger).Summarize(cmd.Context(), blocks)
			if err != nil {
				return err
			}
			return printSummary(cmd.OutOrStdout(), summary)
		},
	}

	cmd.Flags().IntVar(&config.Blocks, "blocks", config.Blocks, "Number of blocks")
	cmd.Flags().IntVar(&config.SignalTrials, "signal-trials", config.SignalTrials, "Signal trials per block")
	cmd.Flags().IntVar(&config.NoiseTrials, "noise-trials", config.NoiseTrials, "Noise trials per block")
	cmd.Flags().Float64Var(&config.DPrime, "d-prime", config.DPrime, "True sensitivity")
	cmd.Flags().Float64Var(&config.Criterion, "criterion", config.Criterion, "True response bias")
	cmd.Flags().Uint64Var(&config.Seed, "seed", config.Seed, "Random seed")
	cmd.Flags().StringVar(&out, "out", "", "Write the blocks to this CSV file instead of summarizing them")
	return cmd
}

func summarizeFile(cmd *cobra.Command, path string, workers int) ([]excel.LabelledCounts, *analysis.Summary, error) {
	rows, err := excel.NewBlockReader(path).ReadBlocks()
	if err != nil {
		return nil, nil, err
	}
	logger := internal.NewLogger(logLevel())
	summary, err := analysis.NewSummarizer(workers, logger).Summarize(cmd.Context(), excel.CountsOf(rows))
	if err != nil {
		return nil, nil, err
	}
	return rows, summary, nil
}

func logLevel() internal.LogLevel {
	if level, ok := internal.ParseLogLevel(os.Getenv("LOG_LEVEL")); ok {
		return level
	}
	return internal.LogLevelWarn
}

// parseCounts reads hits, misses, false alarms and correct rejections in that order.
func parseCounts(args []string) (sdt.Counts, error) {
	if len(args) != 4 {
		return sdt.Counts{}, fmt.Errorf("expected 4 counts, got %d", len(args))
	}
	names := [4]string{"hits", "misses", "false alarms", "correct rejections"}
	var values [4]float64
	for i, arg := range args {
		v, err := parseNumber(names[i], arg)
		if err != nil {
			return sdt.Counts{}, err
		}
		values[i] = v
	}
	return sdt.Counts{
		Hits:              values[0],
		Misses:            values[1],
		FalseAlarms:       values[2],
		CorrectRejections: values[3],
	}, nil
}

func parseNumber(name, arg string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %q is not a number", name, arg)
	}
	return v, nil
}

func printRecord(w io.Writer, r sdt.Record) error {
	if asJSON {
		return writeJSON(w, api.NewStatsResponse(r))
	}
	c := r.Counts()
	fmt.Fprintf(w, "counts      H=%s M=%s FA=%s CR=%s\n",
		report.FormatFloat(c.Hits), report.FormatFloat(c.Misses),
		report.FormatFloat(c.FalseAlarms), report.FormatFloat(c.CorrectRejections))
	fmt.Fprintf(w, "hit rate    %s (z %s)\n", report.FormatFloat(r.HitRate()), report.FormatFloat(r.ZHit()))
	fmt.Fprintf(w, "fa rate     %s (z %s)\n", report.FormatFloat(r.FalseAlarmRate()), report.FormatFloat(r.ZFalseAlarm()))
	fmt.Fprintf(w, "d'          %s\n", report.FormatFloat(r.DPrime()))
	fmt.Fprintf(w, "c           %s\n", report.FormatFloat(r.Criterion()))
	return nil
}

func printSummary(w io.Writer, s *analysis.Summary) error {
	if asJSON {
		return writeJSON(w, api.NewSummaryResponse(s))
	}
	fmt.Fprintf(w, "blocks      %d (%d with infinite statistics)\n", len(s.Blocks), s.NonFiniteBlocks)
	fmt.Fprintf(w, "pooled d'   %s\n", report.FormatFloat(s.Pooled.DPrime()))
	fmt.Fprintf(w, "pooled c    %s\n", report.FormatFloat(s.Pooled.Criterion()))
	for _, d := range []struct {
		name string
		desc analysis.Descriptives
	}{{"d'", s.DPrime}, {"c", s.Criterion}} {
		fmt.Fprintf(w, "%-11s mean %s  median %s  sd %s  min %s  max %s (n=%d)\n", d.name,
			report.FormatFloat(d.desc.Mean), report.FormatFloat(d.desc.Median),
			report.FormatFloat(d.desc.StdDev), report.FormatFloat(d.desc.Min),
			report.FormatFloat(d.desc.Max), d.desc.N)
	}
	return nil
}

func writeBlocksCSV(path string, blocks []sdt.Counts) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	header := []string{excel.ColumnLabel, excel.ColumnHits, excel.ColumnMisses, excel.ColumnFalseAlarms, excel.ColumnCorrectRejections}
	if err := w.Write(header); err != nil {
		f.Close()
		return err
	}
	for i, b := range blocks {
		record := []string{
			fmt.Sprintf("block %d", i+1),
			strconv.FormatFloat(b.Hits, 'f', -1, 64),
			strconv.FormatFloat(b.Misses, 'f', -1, 64),
			strconv.FormatFloat(b.FalseAlarms, 'f', -1, 64),
			strconv.FormatFloat(b.CorrectRejections, 'f', -1, 64),
		}
		if err := w.Write(record); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
